// Package quote fetches the closing quote of the report from a Hitokoto
// compatible endpoint.
package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"telereport/internal/collect"
	"telereport/internal/logging"
	"telereport/internal/report"
)

// Fallback is used whenever the quote service cannot give a usable quote.
const Fallback = `"用代码表达言语的魅力，用代码书写山河的壮丽。" —— 一言「一言开发者中心」`

var (
	// ErrStatus is returned for non-2xx responses.
	ErrStatus = errors.New("quote service returned non-success status")
	// ErrMissingField is returned when the payload has no quote text.
	ErrMissingField = errors.New("quote payload has no hitokoto field")
)

// maxBody caps how much of the response is read.
const maxBody = 64 << 10

type payload struct {
	Hitokoto string `json:"hitokoto"`
	FromWho  string `json:"from_who"`
	From     string `json:"from"`
}

// Fetcher performs one GET per call. It is safe for concurrent use.
type Fetcher struct {
	url    string
	client *http.Client
}

// New creates a Fetcher. A nil client means http.DefaultClient.
func New(url string, client *http.Client) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{url: url, client: client}
}

// Fetch returns the formatted, escaped quote. On any failure Value holds
// Fallback and Err says why.
func (f *Fetcher) Fetch(ctx context.Context) collect.Result[string] {
	timer := logging.StartTimer(logging.CategoryQuote, "Fetch")
	defer timer.Stop()

	p, err := f.get(ctx)
	if err != nil {
		logging.QuoteWarn("using fallback quote: %v", err)
		return collect.Result[string]{Value: Fallback, Err: err}
	}
	return collect.Result[string]{Value: Format(p.Hitokoto, p.FromWho, p.From)}
}

func (f *Fetcher) get(ctx context.Context) (payload, error) {
	var p payload

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return p, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return p, fmt.Errorf("quote request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return p, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&p); err != nil {
		return p, fmt.Errorf("failed to decode response: %w", err)
	}
	if p.Hitokoto == "" {
		return p, ErrMissingField
	}
	logging.QuoteDebug("got quote from %q", p.From)
	return p, nil
}

// Format renders `"text" —— author「source」`. The source suffix is
// omitted when source is empty. Every part is escaped.
func Format(text, author, source string) string {
	s := `"` + report.Escape(text) + `" —— ` + report.Escape(author)
	if source != "" {
		s += "「" + report.Escape(source) + "」"
	}
	return s
}
