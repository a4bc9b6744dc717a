package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"mailsort/internal/domain/email"
	"mailsort/internal/domain/unsubscribe"
)

const (
	categorizeBodyLimit = 1000
	summarizeBodyLimit  = 2000
)

type Client struct {
	api   openai.Client
	model string
}

func NewClient(apiKey, model string, opts ...option.RequestOption) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}

	client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)

	return &Client{
		api:   client,
		model: model,
	}, nil
}

// Categorize returns the name of the best matching category, or
// email.Uncategorized when nothing fits.
func (c *Client) Categorize(ctx context.Context, subject, from, body string, categories []*email.Category) (string, error) {
	var list strings.Builder
	for _, cat := range categories {
		fmt.Fprintf(&list, "- %s: %s\n", cat.Name, cat.Description)
	}

	prompt := fmt.Sprintf(`You are an email categorization assistant. Analyze the following email and determine which category it belongs to.

Email Subject: %s
Email From: %s
Email Body: %s

Available Categories:
%s
Respond with ONLY the category name that best matches this email. If no category fits well, respond with "%s".`,
		subject, from, truncate(body, categorizeBodyLimit), list.String(), email.Uncategorized)

	text, err := c.complete(ctx, 100, openai.UserMessage(prompt))
	if err != nil {
		return "", err
	}

	name := strings.Trim(stripFences(text), "\"'` \n")
	if name == "" {
		return email.Uncategorized, nil
	}
	return name, nil
}

func (c *Client) Summarize(ctx context.Context, subject, body string) (string, error) {
	prompt := fmt.Sprintf(`Summarize the following email in 2-3 concise sentences. Focus on the main purpose and any action items.

Email Subject: %s
Email Body: %s

Summary:`, subject, truncate(body, summarizeBodyLimit))

	text, err := c.complete(ctx, 200, openai.UserMessage(prompt))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// AnalyzeUnsubscribePage asks the model which actions complete the
// unsubscribe flow shown in screenshot (PNG). A reply without a usable JSON
// array yields no actions.
func (c *Client) AnalyzeUnsubscribePage(ctx context.Context, screenshot []byte, userEmail string) ([]unsubscribe.Action, error) {
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(screenshot)

	text, err := c.complete(ctx, 1000, openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
		openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
		openai.TextContentPart(unsubscribePrompt(userEmail)),
	}))
	if err != nil {
		return nil, err
	}

	return parseActions(text), nil
}

func (c *Client) complete(ctx context.Context, maxTokens int64, msg openai.ChatCompletionMessageParamUnion) (string, error) {
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:     c.model,
		MaxTokens: openai.Int(maxTokens),
		Messages:  []openai.ChatCompletionMessageParamUnion{msg},
	})
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty LLM response")
	}

	return resp.Choices[0].Message.Content, nil
}

func unsubscribePrompt(userEmail string) string {
	return fmt.Sprintf(`You are an automation agent tasked with unsubscribing from an email list.

I have provided you with a screenshot of an unsubscribe webpage. Analyze the page and provide step-by-step instructions to complete the unsubscribe process.

Your response should be a JSON array of actions in this format:
[
  { "action": "click", "selector": "#unsubscribe-button" },
  { "action": "type", "selector": "input[name='email']", "value": "%[1]s" },
  { "action": "check", "selector": "input[type='checkbox']" },
  { "action": "click", "selector": "button[type='submit']" }
]

Available actions:
- click: Click an element (provide CSS selector)
- type: Type text into an input (provide CSS selector and value)
- check: Check a checkbox (provide CSS selector)
- select: Select a dropdown option (provide CSS selector and value)

Important:
- Use simple, reliable CSS selectors (prefer IDs, then classes, then tag names with attributes)
- The user's email is: %[1]s
- Look for unsubscribe buttons, confirmation buttons, or forms
- If the page already confirms unsubscription or no action is needed, return an empty array []

Provide ONLY valid JSON, no other text.`, userEmail)
}

func parseActions(text string) []unsubscribe.Action {
	raw, ok := extractJSONArray(stripFences(text))
	if !ok {
		log.Printf("Could not extract JSON from LLM response")
		return nil
	}

	var actions []unsubscribe.Action
	if err := json.Unmarshal([]byte(raw), &actions); err != nil {
		log.Printf("LLM parse error: %v (raw=%s)", err, raw)
		return nil
	}

	valid := actions[:0]
	for _, a := range actions {
		if a.IsValid() {
			valid = append(valid, a)
			continue
		}
		log.Printf("Dropping invalid action %+v", a)
	}
	return valid
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// extractJSONArray returns the span from the first '[' to the last ']'.
func extractJSONArray(text string) (string, bool) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end < start {
		return "", false
	}
	return text[start : end+1], true
}

// truncate cuts s to limit runes and marks the cut with "...".
func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
