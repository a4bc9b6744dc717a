package unsubscribe

// ActionKind is one step the page analyser may ask the browser to perform.
type ActionKind string

const (
	ActionClick  ActionKind = "click"
	ActionType   ActionKind = "type"
	ActionCheck  ActionKind = "check"
	ActionSelect ActionKind = "select"
)

type Action struct {
	Action   ActionKind `json:"action"`
	Selector string     `json:"selector"`
	Value    string     `json:"value,omitempty"`
}

func (a Action) IsValid() bool {
	if a.Selector == "" {
		return false
	}
	switch a.Action {
	case ActionClick, ActionCheck:
		return true
	case ActionType, ActionSelect:
		return a.Value != ""
	}
	return false
}

type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func Succeeded(message string) Result {
	return Result{Success: true, Message: message}
}

func Failed(err error) Result {
	return Result{Success: false, Error: err.Error()}
}
