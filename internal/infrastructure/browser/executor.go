// Package browser follows web unsubscribe links in headless Chrome. The page
// is screenshotted and a PageAnalyzer decides which form actions to perform.
package browser

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"mailsort/internal/domain/unsubscribe"
)

const (
	viewportWidth  = 1280
	viewportHeight = 720
)

// PageAnalyzer turns a PNG screenshot of an unsubscribe page into actions.
type PageAnalyzer interface {
	AnalyzeUnsubscribePage(ctx context.Context, screenshot []byte, userEmail string) ([]unsubscribe.Action, error)
}

type Executor struct {
	analyzer PageAnalyzer

	NavigationTimeout time.Duration
	ActionTimeout     time.Duration
	Settle            time.Duration

	cancelAlloc   context.CancelFunc
	browserCtx    context.Context
	cancelBrowser context.CancelFunc

	startOnce sync.Once
	startErr  error
}

// NewExecutor prepares a Chrome instance. The browser itself starts on the
// first Unsubscribe call and lives until Close.
func NewExecutor(analyzer PageAnalyzer, headless bool) *Executor {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if !headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	opts = append(opts, chromedp.WindowSize(viewportWidth, viewportHeight))

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(log.Printf))

	return &Executor{
		analyzer:          analyzer,
		NavigationTimeout: 30 * time.Second,
		ActionTimeout:     5 * time.Second,
		Settle:            2 * time.Second,
		cancelAlloc:       cancelAlloc,
		browserCtx:        browserCtx,
		cancelBrowser:     cancelBrowser,
	}
}

func (e *Executor) Close() {
	e.cancelBrowser()
	e.cancelAlloc()
}

// Unsubscribe opens link in a new tab and carries out the actions the
// analyser asks for. Individual action failures are logged and skipped.
func (e *Executor) Unsubscribe(ctx context.Context, link, userEmail string) unsubscribe.Result {
	if err := e.start(); err != nil {
		return unsubscribe.Failed(fmt.Errorf("start browser: %w", err))
	}

	tabCtx, cancelTab := chromedp.NewContext(e.browserCtx)
	defer cancelTab()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	// The first Run opens the tab; it must not carry a deadline.
	if err := chromedp.Run(tabCtx, chromedp.EmulateViewport(viewportWidth, viewportHeight)); err != nil {
		return unsubscribe.Failed(fmt.Errorf("open tab: %w", err))
	}

	if err := e.runWithTimeout(tabCtx, e.NavigationTimeout, chromedp.Navigate(link)); err != nil {
		log.Printf("Error navigating to %s: %v", link, err)
		return unsubscribe.Failed(fmt.Errorf("navigate: %w", err))
	}

	var screenshot []byte
	if err := chromedp.Run(tabCtx, chromedp.Sleep(e.Settle), chromedp.FullScreenshot(&screenshot, 100)); err != nil {
		return unsubscribe.Failed(fmt.Errorf("screenshot: %w", err))
	}

	actions, err := e.analyzer.AnalyzeUnsubscribePage(ctx, screenshot, userEmail)
	if err != nil {
		log.Printf("Error analyzing unsubscribe page %s: %v", link, err)
		return unsubscribe.Failed(fmt.Errorf("analyze page: %w", err))
	}
	if len(actions) == 0 {
		return unsubscribe.Succeeded("No action needed or already unsubscribed")
	}

	log.Printf("Executing %d unsubscribe actions on %s", len(actions), link)
	for _, a := range actions {
		tasks, err := actionTasks(a)
		if err == nil {
			err = e.runWithTimeout(tabCtx, e.ActionTimeout, tasks)
		}
		if err != nil {
			log.Printf("Error executing action %s on %q: %v", a.Action, a.Selector, err)
		}
	}

	if err := chromedp.Run(tabCtx, chromedp.Sleep(e.Settle)); err != nil {
		return unsubscribe.Failed(err)
	}

	return unsubscribe.Succeeded("Unsubscribe actions completed")
}

func (e *Executor) start() error {
	e.startOnce.Do(func() {
		e.startErr = chromedp.Run(e.browserCtx)
	})
	return e.startErr
}

func (e *Executor) runWithTimeout(ctx context.Context, d time.Duration, actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

// actionTasks translates one analyser action into browser tasks.
func actionTasks(a unsubscribe.Action) (chromedp.Tasks, error) {
	if !a.IsValid() {
		return nil, fmt.Errorf("invalid action %q on %q", a.Action, a.Selector)
	}

	switch a.Action {
	case unsubscribe.ActionClick:
		return chromedp.Tasks{
			chromedp.WaitVisible(a.Selector, chromedp.ByQuery),
			chromedp.Click(a.Selector, chromedp.ByQuery),
		}, nil

	case unsubscribe.ActionType:
		return chromedp.Tasks{
			chromedp.WaitVisible(a.Selector, chromedp.ByQuery),
			chromedp.SetValue(a.Selector, "", chromedp.ByQuery),
			chromedp.SendKeys(a.Selector, a.Value, chromedp.ByQuery),
		}, nil

	case unsubscribe.ActionCheck:
		var checked bool
		return chromedp.Tasks{
			chromedp.WaitReady(a.Selector, chromedp.ByQuery),
			chromedp.JavascriptAttribute(a.Selector, "checked", &checked, chromedp.ByQuery),
			chromedp.ActionFunc(func(ctx context.Context) error {
				if checked {
					return nil
				}
				return chromedp.Click(a.Selector, chromedp.ByQuery).Do(ctx)
			}),
		}, nil

	case unsubscribe.ActionSelect:
		return chromedp.Tasks{
			chromedp.WaitReady(a.Selector, chromedp.ByQuery),
			chromedp.SetValue(a.Selector, a.Value, chromedp.ByQuery),
		}, nil
	}

	return nil, fmt.Errorf("unknown action %q", a.Action)
}
