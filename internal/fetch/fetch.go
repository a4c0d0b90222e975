// Package fetch defines the page-fetch port and its headless-browser
// implementation. The crawler only sees the Fetcher interface; whether a
// page is rendered by Chromium or served by a test double is invisible
// to it.
package fetch

import (
	"context"
	"fmt"
	"time"
)

// Result is a fetched, rendered page.
type Result struct {
	// HTML after rendering.
	HTML string

	// FinalURL after redirects (normalized by the caller, not here).
	FinalURL string

	// HTTP status of the main document. 0 when unknown.
	StatusCode int

	// Content-Type of the main document response.
	ContentType string

	// Number of redirect hops followed for the main document.
	RedirectHops int

	// Time from dispatch to document ready. Used as a TTFB-ish
	// performance proxy by the classifier.
	Elapsed time.Duration
}

// ErrorKind categorizes fetch failures.
type ErrorKind string

const (
	KindTimeout ErrorKind = "timeout"
	KindNetwork ErrorKind = "network"
	KindHTTP    ErrorKind = "http"
)

// Error is a terminal fetch failure for one URL.
type Error struct {
	Kind ErrorKind
	URL  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Fetcher fetches and renders a single page. Implementations must honor
// the timeout and never retry; a failed fetch is a terminal outcome for
// that URL within a crawl.
type Fetcher interface {
	Fetch(ctx context.Context, url string, timeout time.Duration) (*Result, error)
}
