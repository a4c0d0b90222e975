package fetch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// ChromeOptions configures the headless-browser fetcher.
type ChromeOptions struct {
	// UserAgent sent on every request.
	UserAgent string

	// ExecPath is an optional Chromium binary path.
	ExecPath string

	// PoolSize is the number of browser tabs kept ready. Should match
	// the crawl worker width.
	PoolSize int
}

// ChromeFetcher renders pages with headless Chromium via chromedp. Tabs
// are pooled so concurrent fetches do not pay browser startup cost.
type ChromeFetcher struct {
	mu        sync.Mutex
	allocator context.Context
	cancel    context.CancelFunc
	pool      chan context.Context
	closed    bool
}

// NewChromeFetcher starts the browser allocator and fills the tab pool.
func NewChromeFetcher(opts ChromeOptions) (*ChromeFetcher, error) {
	if opts.PoolSize < 1 {
		opts.PoolSize = 1
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("window-size", "1920,1080"),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	f := &ChromeFetcher{}
	f.allocator, f.cancel = chromedp.NewExecAllocator(context.Background(), allocOpts...)

	f.pool = make(chan context.Context, opts.PoolSize)
	for i := 0; i < opts.PoolSize; i++ {
		tab, _ := chromedp.NewContext(f.allocator)
		f.pool <- tab
	}

	return f, nil
}

// Fetch navigates a pooled tab to the URL, waits for the document to be
// ready and returns the rendered HTML with the main-document status.
func (f *ChromeFetcher) Fetch(ctx context.Context, urlStr string, timeout time.Duration) (*Result, error) {
	select {
	case <-ctx.Done():
		return nil, &Error{Kind: KindNetwork, URL: urlStr, Err: ctx.Err()}
	case tab := <-f.pool:
		defer f.release(tab)
		return f.fetchInTab(ctx, tab, urlStr, timeout)
	}
}

// release hands a tab back to the pool. A tab that was checked out
// across Close is cancelled instead; the pool channel is never closed,
// so this cannot panic. The buffered send under the lock never blocks:
// capacity equals the total tab count.
func (f *ChromeFetcher) release(tab context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		_ = chromedp.Cancel(tab)
		return
	}
	f.pool <- tab
}

func (f *ChromeFetcher) fetchInTab(parent, tab context.Context, urlStr string, timeout time.Duration) (*Result, error) {
	timeoutCtx, cancel := context.WithTimeout(tab, timeout)
	defer cancel()

	// Stop when the caller's context dies even though the tab context
	// is independent of it.
	stop := context.AfterFunc(parent, cancel)
	defer stop()

	result := &Result{}
	started := time.Now()

	var mu sync.Mutex
	chromedp.ListenTarget(timeoutCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			if e.Type == network.ResourceTypeDocument && e.RedirectResponse != nil {
				mu.Lock()
				result.RedirectHops++
				mu.Unlock()
			}
		case *network.EventResponseReceived:
			if e.Type == network.ResourceTypeDocument {
				mu.Lock()
				result.StatusCode = int(e.Response.Status)
				result.ContentType = e.Response.MimeType
				mu.Unlock()
			}
		case *page.EventJavascriptDialogOpening:
			go chromedp.Run(timeoutCtx, page.HandleJavaScriptDialog(true))
		}
	})

	if err := chromedp.Run(timeoutCtx, network.Enable()); err != nil {
		return nil, classify(urlStr, err)
	}

	var html, finalURL string
	err := chromedp.Run(timeoutCtx,
		chromedp.Navigate(urlStr),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Location(&finalURL),
		chromedp.ActionFunc(func(ctx context.Context) error {
			node, err := dom.GetDocument().Do(ctx)
			if err != nil {
				return err
			}
			html, err = dom.GetOuterHTML().WithNodeID(node.NodeID).Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, classify(urlStr, err)
	}

	mu.Lock()
	defer mu.Unlock()
	result.HTML = html
	result.FinalURL = finalURL
	result.Elapsed = time.Since(started)
	if result.ContentType == "" {
		result.ContentType = "text/html"
	}
	return result, nil
}

// Close releases all tabs and the browser allocator.
func (f *ChromeFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true

	// Drain pooled tabs without closing the channel; tabs checked out
	// by in-flight fetches come back through release, which sees the
	// closed flag and cancels them.
	for {
		select {
		case tab := <-f.pool:
			_ = chromedp.Cancel(tab)
		default:
			if f.cancel != nil {
				f.cancel()
			}
			return nil
		}
	}
}

func classify(urlStr string, err error) error {
	kind := KindNetwork
	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "deadline") {
		kind = KindTimeout
	}
	return &Error{Kind: kind, URL: urlStr, Err: err}
}
