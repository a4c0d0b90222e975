// Package crawler walks a site breadth-first within a fixed budget and
// produces the raw material for classification. One coordinator goroutine
// owns all crawl state; workers only fetch and parse, reporting back over
// a channel, so page order is deterministic for a fixed site regardless
// of worker timing.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/site-audit/siteaudit/internal/config"
	"github.com/site-audit/siteaudit/internal/extract"
	"github.com/site-audit/siteaudit/internal/fetch"
	"github.com/site-audit/siteaudit/internal/frontier"
	"github.com/site-audit/siteaudit/internal/robots"
	"github.com/site-audit/siteaudit/internal/urlutil"
)

// Outcome describes what happened to one crawl candidate.
type Outcome string

const (
	OutcomeSuccess       Outcome = "success"
	OutcomeTimeout       Outcome = "timeout"
	OutcomeError         Outcome = "error"
	OutcomeSkippedRobots Outcome = "skipped-robots"
	OutcomeSkippedScope  Outcome = "skipped-scope"
	OutcomeSkippedHTML   Outcome = "skipped-non-html"
)

// PageRecord is the result of processing one URL. Every candidate that
// reaches the coordinator produces exactly one record, including skips
// and failures.
type PageRecord struct {
	URL          string
	FinalURL     string
	Depth        int
	Outcome      Outcome
	Status       int
	Err          string
	Elapsed      time.Duration
	RedirectHops int
	Signals      *extract.Signals
}

// Fetched reports whether the record consumed a fetch from the page budget.
func (p *PageRecord) Fetched() bool {
	switch p.Outcome {
	case OutcomeSkippedRobots, OutcomeSkippedScope:
		return false
	}
	return true
}

// BrokenLink is an internal link that answered with an error status or
// could not be reached at all during the post-crawl link check.
type BrokenLink struct {
	URL     string
	Status  int
	FoundOn string
}

// Result is everything one crawl learned about a site.
type Result struct {
	StartURL  string
	Origin    string
	StartedAt time.Time
	Runtime   time.Duration

	Pages  []PageRecord
	Robots robots.Policy

	// Notes on budget limits the crawl ran into, in the order hit.
	LimitNotes []string

	BrokenLinks  []BrokenLink
	LinksChecked int

	PagesFetched int
	PagesFailed  int
}

// RobotsGate answers allow/deny for crawl candidates.
type RobotsGate interface {
	Allowed(ctx context.Context, rawURL string) bool
	PolicyFor(ctx context.Context, rawURL string) robots.Policy
}

// Options configures one Crawler.
type Options struct {
	Fetcher     fetch.Fetcher
	Gate        RobotsGate
	Budget      config.Budget
	Concurrency int

	// LinkClient performs HEAD/GET probes for the broken-link check.
	// nil uses http.DefaultClient.
	LinkClient *http.Client

	// PerHostRPS caps the request rate against any single host.
	// Zero or negative disables the limiter.
	PerHostRPS float64

	UserAgent string
	Logger    *logrus.Logger
}

// Crawler runs bounded same-origin crawls.
type Crawler struct {
	fetcher     fetch.Fetcher
	gate        RobotsGate
	budget      config.Budget
	concurrency int
	linkClient  *http.Client
	perHostRPS  float64
	userAgent   string
	log         *logrus.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func New(opts Options) *Crawler {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.LinkClient == nil {
		opts.LinkClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	return &Crawler{
		fetcher:     opts.Fetcher,
		gate:        opts.Gate,
		budget:      opts.Budget,
		concurrency: opts.Concurrency,
		linkClient:  opts.LinkClient,
		perHostRPS:  opts.PerHostRPS,
		userAgent:   opts.UserAgent,
		log:         opts.Logger,
	}
}

// fetchOutcome pairs a dispatched candidate with its fetch result so the
// coordinator can fold batches back in dispatch order.
type fetchOutcome struct {
	index  int
	item   frontier.Item
	record PageRecord
}

// Run crawls from startURL, which must already be validated and
// normalized. It returns a Result even when every page failed; the only
// error condition is a cancelled context before any work happened.
func (c *Crawler) Run(ctx context.Context, startURL string) (*Result, error) {
	origin, err := urlutil.Origin(startURL)
	if err != nil {
		return nil, fmt.Errorf("crawl start: %w", err)
	}

	started := time.Now()
	deadline := started.Add(c.budget.MaxRuntime)
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	res := &Result{
		StartURL:  startURL,
		Origin:    origin,
		StartedAt: started,
	}
	res.Robots = c.gate.PolicyFor(ctx, startURL)

	front := frontier.New(c.budget.MaxDepth)
	front.Push(frontier.Item{URL: startURL, NormalizedURL: startURL, Depth: 0})

	depthLimited := false
	fetched := 0

	for front.Len() > 0 {
		if ctx.Err() != nil {
			res.LimitNotes = append(res.LimitNotes, fmt.Sprintf("runtime limit of %s reached", c.budget.MaxRuntime))
			break
		}
		if fetched >= c.budget.MaxPages {
			res.LimitNotes = append(res.LimitNotes, fmt.Sprintf("page limit of %d reached", c.budget.MaxPages))
			break
		}

		batch := c.takeBatch(ctx, front, res, c.budget.MaxPages-fetched)
		if len(batch) == 0 {
			continue
		}

		outcomes := c.fetchBatch(ctx, batch)
		for _, out := range outcomes {
			fetched++
			record := out.record
			front.MarkVisited(out.item.NormalizedURL)
			if record.FinalURL != "" && record.FinalURL != out.item.NormalizedURL {
				front.MarkVisited(record.FinalURL)
			}

			if record.Outcome == OutcomeSuccess && record.Signals != nil {
				for _, link := range record.Signals.InternalLinks {
					if !urlutil.LooksLikeHTML(link) {
						continue
					}
					item := frontier.Item{
						URL:            link,
						NormalizedURL:  link,
						Depth:          out.item.Depth + 1,
						DiscoveredFrom: record.URL,
					}
					if !front.Push(item) && out.item.Depth+1 > c.budget.MaxDepth {
						depthLimited = true
					}
				}
			}
			if record.Outcome == OutcomeTimeout || record.Outcome == OutcomeError {
				res.PagesFailed++
			} else if record.Fetched() {
				res.PagesFetched++
			}
			res.Pages = append(res.Pages, record)
		}
	}

	if depthLimited {
		res.LimitNotes = append(res.LimitNotes, fmt.Sprintf("depth limit of %d reached", c.budget.MaxDepth))
	}

	if c.budget.MaxLinkChecks > 0 {
		c.checkLinks(ctx, res)
	}

	res.Runtime = time.Since(started)
	c.log.WithFields(logrus.Fields{
		"url":     startURL,
		"pages":   len(res.Pages),
		"fetched": res.PagesFetched,
		"failed":  res.PagesFailed,
		"runtime": res.Runtime.Round(time.Millisecond).String(),
	}).Info("Crawl finished")
	return res, nil
}

// takeBatch pops up to one worker-width of fetchable candidates. Robots
// rejections are recorded immediately and do not occupy a batch slot or
// consume the page budget.
func (c *Crawler) takeBatch(ctx context.Context, front *frontier.Frontier, res *Result, remaining int) []frontier.Item {
	width := c.concurrency
	if remaining < width {
		width = remaining
	}
	batch := make([]frontier.Item, 0, width)
	for len(batch) < width {
		item, ok := front.Pop()
		if !ok {
			break
		}
		if !c.gate.Allowed(ctx, item.URL) {
			front.MarkVisited(item.NormalizedURL)
			res.Pages = append(res.Pages, PageRecord{
				URL:     item.URL,
				Depth:   item.Depth,
				Outcome: OutcomeSkippedRobots,
			})
			continue
		}
		batch = append(batch, item)
	}
	return batch
}

// fetchBatch runs one batch of fetches concurrently and returns the
// outcomes sorted back into dispatch order.
func (c *Crawler) fetchBatch(ctx context.Context, batch []frontier.Item) []fetchOutcome {
	results := make(chan fetchOutcome, len(batch))
	for i, item := range batch {
		go func(i int, item frontier.Item) {
			results <- fetchOutcome{index: i, item: item, record: c.fetchOne(ctx, item)}
		}(i, item)
	}

	outcomes := make([]fetchOutcome, 0, len(batch))
	for range batch {
		outcomes = append(outcomes, <-results)
	}
	sort.Slice(outcomes, func(a, b int) bool { return outcomes[a].index < outcomes[b].index })
	return outcomes
}

func (c *Crawler) fetchOne(ctx context.Context, item frontier.Item) PageRecord {
	record := PageRecord{URL: item.URL, Depth: item.Depth}
	started := time.Now()

	if err := c.waitHost(ctx, item.URL); err != nil {
		record.Outcome = OutcomeTimeout
		record.Err = "rate limit wait cancelled"
		record.Elapsed = time.Since(started)
		return record
	}

	result, err := c.fetcher.Fetch(ctx, item.URL, c.budget.PerPageTimeout)
	if err != nil {
		var fe *fetch.Error
		if errors.As(err, &fe) && fe.Kind == fetch.KindTimeout {
			record.Outcome = OutcomeTimeout
		} else {
			record.Outcome = OutcomeError
		}
		record.Err = err.Error()
		record.Elapsed = time.Since(started)
		c.log.WithError(err).WithField("url", item.URL).Debug("Page fetch failed")
		return record
	}

	record.Status = result.StatusCode
	record.Elapsed = result.Elapsed
	if record.Elapsed == 0 {
		record.Elapsed = time.Since(started)
	}
	record.RedirectHops = result.RedirectHops
	record.FinalURL = item.NormalizedURL
	if result.FinalURL != "" {
		if normalized, err := urlutil.NormalizeString(result.FinalURL); err == nil {
			record.FinalURL = normalized
		}
	}

	if !urlutil.SameOrigin(record.FinalURL, item.URL) {
		record.Outcome = OutcomeSkippedScope
		return record
	}
	if result.ContentType != "" && !isHTMLContentType(result.ContentType) {
		record.Outcome = OutcomeSkippedHTML
		return record
	}

	record.Outcome = OutcomeSuccess
	record.Signals = extract.Extract(result.HTML, record.FinalURL)
	return record
}

// waitHost blocks until the per-host rate limiter admits a request.
func (c *Crawler) waitHost(ctx context.Context, rawURL string) error {
	if c.perHostRPS <= 0 {
		return nil
	}
	host := urlutil.Host(rawURL)
	if host == "" {
		return nil
	}

	c.mu.Lock()
	if c.limiters == nil {
		c.limiters = make(map[string]*rate.Limiter)
	}
	limiter, ok := c.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(c.perHostRPS), 1)
		c.limiters[host] = limiter
	}
	c.mu.Unlock()

	return limiter.Wait(ctx)
}

func isHTMLContentType(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml")
}
