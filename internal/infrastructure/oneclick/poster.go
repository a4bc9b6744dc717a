// Package oneclick sends RFC 8058 one-click unsubscribe requests.
package oneclick

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const body = "List-Unsubscribe=One-Click"

type Poster struct {
	client *http.Client
}

// NewPoster returns a Poster whose requests give up after timeout. A zero
// timeout means 15 seconds.
func NewPoster(timeout time.Duration) *Poster {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Poster{client: &http.Client{Timeout: timeout}}
}

// Post sends the one-click request to link. Any 2xx answer counts as done.
func (p *Poster) Post(ctx context.Context, link string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, link, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("build one-click request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("one-click post: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("one-click post: unexpected status %s", resp.Status)
	}
	return nil
}
