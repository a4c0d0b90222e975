package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/site-audit/siteaudit/internal/config"
	"github.com/site-audit/siteaudit/internal/fetch"
	"github.com/site-audit/siteaudit/internal/robots"
)

// fakeFetcher serves canned pages keyed by URL and counts calls.
type fakeFetcher struct {
	mu      sync.Mutex
	pages   map[string]*fetch.Result
	errs    map[string]error
	calls   []string
	latency time.Duration
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string, timeout time.Duration) (*fetch.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()
	if f.latency > 0 {
		select {
		case <-time.After(f.latency):
		case <-ctx.Done():
			return nil, &fetch.Error{Kind: fetch.KindTimeout, URL: url, Err: ctx.Err()}
		}
	}
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	if res, ok := f.pages[url]; ok {
		return res, nil
	}
	return nil, &fetch.Error{Kind: fetch.KindNetwork, URL: url, Err: fmt.Errorf("no such page")}
}

func (f *fakeFetcher) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// allowAllGate approves everything except listed paths.
type allowAllGate struct {
	denied map[string]bool
	policy robots.Policy
}

func (g *allowAllGate) Allowed(ctx context.Context, rawURL string) bool {
	return !g.denied[rawURL]
}

func (g *allowAllGate) PolicyFor(ctx context.Context, rawURL string) robots.Policy {
	return g.policy
}

func htmlPage(finalURL, body string) *fetch.Result {
	return &fetch.Result{
		HTML:        "<html><head><title>t</title></head><body>" + body + "</body></html>",
		FinalURL:    finalURL,
		StatusCode:  200,
		ContentType: "text/html",
		Elapsed:     10 * time.Millisecond,
	}
}

func link(href string) string {
	return `<a href="` + href + `">link</a>`
}

func testBudget() config.Budget {
	return config.Budget{
		MaxPages:       150,
		MaxDepth:       6,
		MaxRuntime:     30 * time.Second,
		PerPageTimeout: 2 * time.Second,
	}
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestRunVisitsSameOriginBFS(t *testing.T) {
	const origin = "https://site.test"
	ff := &fakeFetcher{pages: map[string]*fetch.Result{
		origin + "/":   htmlPage(origin+"/", link("/a")+link("/b")+link("https://other.test/x")),
		origin + "/a":  htmlPage(origin+"/a", link("/a1")),
		origin + "/b":  htmlPage(origin+"/b", link("/b1")),
		origin + "/a1": htmlPage(origin+"/a1", ""),
		origin + "/b1": htmlPage(origin+"/b1", ""),
	}}

	c := New(Options{
		Fetcher:     ff,
		Gate:        &allowAllGate{},
		Budget:      testBudget(),
		Concurrency: 1,
		Logger:      quietLogger(),
	})

	res, err := c.Run(context.Background(), origin+"/")
	require.NoError(t, err)

	var urls []string
	for _, p := range res.Pages {
		urls = append(urls, p.URL)
	}
	assert.Equal(t, []string{
		origin + "/", origin + "/a", origin + "/b", origin + "/a1", origin + "/b1",
	}, urls, "breadth-first discovery order")
	assert.Equal(t, 5, res.PagesFetched)
	assert.Zero(t, res.PagesFailed)

	for _, call := range ff.calls {
		assert.NotContains(t, call, "other.test", "cross-origin URLs must never be fetched")
	}
}

func TestRunRespectsPageBudget(t *testing.T) {
	const origin = "https://site.test"
	pages := map[string]*fetch.Result{}
	var links string
	for i := 0; i < 10; i++ {
		path := fmt.Sprintf("/p%d", i)
		links += link(path)
		pages[origin+path] = htmlPage(origin+path, "")
	}
	pages[origin+"/"] = htmlPage(origin+"/", links)

	budget := testBudget()
	budget.MaxPages = 4
	c := New(Options{
		Fetcher:     &fakeFetcher{pages: pages},
		Gate:        &allowAllGate{},
		Budget:      budget,
		Concurrency: 2,
		Logger:      quietLogger(),
	})

	res, err := c.Run(context.Background(), origin+"/")
	require.NoError(t, err)

	assert.Equal(t, 4, res.PagesFetched)
	require.NotEmpty(t, res.LimitNotes)
	assert.Contains(t, res.LimitNotes[0], "page limit")
}

func TestRunRespectsDepthLimit(t *testing.T) {
	const origin = "https://site.test"
	ff := &fakeFetcher{pages: map[string]*fetch.Result{
		origin + "/":   htmlPage(origin+"/", link("/d1")),
		origin + "/d1": htmlPage(origin+"/d1", link("/d2")),
		origin + "/d2": htmlPage(origin+"/d2", link("/d3")),
	}}

	budget := testBudget()
	budget.MaxDepth = 1
	c := New(Options{
		Fetcher:     ff,
		Gate:        &allowAllGate{},
		Budget:      budget,
		Concurrency: 1,
		Logger:      quietLogger(),
	})

	res, err := c.Run(context.Background(), origin+"/")
	require.NoError(t, err)

	assert.Len(t, res.Pages, 2)
	assert.Equal(t, 2, ff.fetchCount())
}

func TestRunRobotsBlockedSeedStillReports(t *testing.T) {
	const origin = "https://site.test"
	ff := &fakeFetcher{pages: map[string]*fetch.Result{}}
	gate := &allowAllGate{
		denied: map[string]bool{origin + "/": true},
		policy: robots.Policy{RobotsPresent: true, RobotsStatus: 200},
	}

	c := New(Options{
		Fetcher:     ff,
		Gate:        gate,
		Budget:      testBudget(),
		Concurrency: 2,
		Logger:      quietLogger(),
	})

	res, err := c.Run(context.Background(), origin+"/")
	require.NoError(t, err)

	require.Len(t, res.Pages, 1)
	assert.Equal(t, OutcomeSkippedRobots, res.Pages[0].Outcome)
	assert.Zero(t, ff.fetchCount(), "disallowed URLs must never reach the fetcher")
	assert.True(t, res.Robots.RobotsPresent)
}

func TestRunPageFailureDoesNotAbortCrawl(t *testing.T) {
	const origin = "https://site.test"
	ff := &fakeFetcher{
		pages: map[string]*fetch.Result{
			origin + "/":   htmlPage(origin+"/", link("/broken")+link("/ok")),
			origin + "/ok": htmlPage(origin+"/ok", ""),
		},
		errs: map[string]error{
			origin + "/broken": &fetch.Error{Kind: fetch.KindTimeout, URL: origin + "/broken", Err: context.DeadlineExceeded},
		},
	}

	c := New(Options{
		Fetcher:     ff,
		Gate:        &allowAllGate{},
		Budget:      testBudget(),
		Concurrency: 1,
		Logger:      quietLogger(),
	})

	res, err := c.Run(context.Background(), origin+"/")
	require.NoError(t, err)

	require.Len(t, res.Pages, 3)
	assert.Equal(t, OutcomeTimeout, res.Pages[1].Outcome)
	assert.Greater(t, res.Pages[1].Elapsed, time.Duration(0), "failed fetches still record elapsed time")
	assert.Equal(t, OutcomeSuccess, res.Pages[2].Outcome)
	assert.Equal(t, 1, res.PagesFailed)
	assert.Equal(t, 2, res.PagesFetched)
}

func TestRunRespectsRuntimeBudget(t *testing.T) {
	const origin = "https://site.test"
	pages := map[string]*fetch.Result{}
	var links string
	for i := 0; i < 20; i++ {
		path := fmt.Sprintf("/p%d", i)
		links += link(path)
		pages[origin+path] = htmlPage(origin+path, "")
	}
	pages[origin+"/"] = htmlPage(origin+"/", links)

	budget := testBudget()
	budget.MaxRuntime = 50 * time.Millisecond
	budget.PerPageTimeout = 500 * time.Millisecond
	c := New(Options{
		Fetcher:     &fakeFetcher{pages: pages, latency: 30 * time.Millisecond},
		Gate:        &allowAllGate{},
		Budget:      budget,
		Concurrency: 1,
		Logger:      quietLogger(),
	})

	started := time.Now()
	res, err := c.Run(context.Background(), origin+"/")
	elapsed := time.Since(started)
	require.NoError(t, err)

	assert.Less(t, len(res.Pages), 21, "crawl must stop before exhausting the frontier")
	assert.GreaterOrEqual(t, len(res.Pages), 1)
	require.NotEmpty(t, res.LimitNotes)
	assert.Contains(t, res.LimitNotes[0], "runtime limit")
	assert.Less(t, elapsed, budget.MaxRuntime+budget.PerPageTimeout,
		"crawl duration stays within max runtime plus one page timeout")
}

func TestRunSkipsNonHTMLResponses(t *testing.T) {
	const origin = "https://site.test"
	ff := &fakeFetcher{pages: map[string]*fetch.Result{
		origin + "/": htmlPage(origin+"/", link("/feed")),
		origin + "/feed": {
			FinalURL:    origin + "/feed",
			StatusCode:  200,
			ContentType: "application/rss+xml",
		},
	}}

	c := New(Options{
		Fetcher:     ff,
		Gate:        &allowAllGate{},
		Budget:      testBudget(),
		Concurrency: 1,
		Logger:      quietLogger(),
	})

	res, err := c.Run(context.Background(), origin+"/")
	require.NoError(t, err)

	require.Len(t, res.Pages, 2)
	assert.Equal(t, OutcomeSkippedHTML, res.Pages[1].Outcome)
	assert.Nil(t, res.Pages[1].Signals)
}

func TestRunCrossOriginRedirectSkipped(t *testing.T) {
	const origin = "https://site.test"
	ff := &fakeFetcher{pages: map[string]*fetch.Result{
		origin + "/": htmlPage(origin+"/", link("/away")),
		origin + "/away": {
			HTML:         "<html><body>elsewhere</body></html>",
			FinalURL:     "https://elsewhere.test/landing",
			StatusCode:   200,
			ContentType:  "text/html",
			RedirectHops: 1,
		},
	}}

	c := New(Options{
		Fetcher:     ff,
		Gate:        &allowAllGate{},
		Budget:      testBudget(),
		Concurrency: 1,
		Logger:      quietLogger(),
	})

	res, err := c.Run(context.Background(), origin+"/")
	require.NoError(t, err)

	require.Len(t, res.Pages, 2)
	assert.Equal(t, OutcomeSkippedScope, res.Pages[1].Outcome)
	assert.Nil(t, res.Pages[1].Signals)
}

func TestCheckLinksFindsBrokenTargets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.WriteHeader(http.StatusOK)
		case "/gone":
			w.WriteHeader(http.StatusNotFound)
		case "/head-refused":
			if r.Method == http.MethodHead {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	origin := srv.URL
	ff := &fakeFetcher{pages: map[string]*fetch.Result{
		origin + "/": htmlPage(origin+"/", link("/ok")+link("/gone")+link("/head-refused")),
	}}

	// depth 0 keeps the links out of the crawl so the checker must probe them
	budget := testBudget()
	budget.MaxDepth = 0
	budget.MaxLinkChecks = 10
	c := New(Options{
		Fetcher:     ff,
		Gate:        &allowAllGate{},
		Budget:      budget,
		Concurrency: 1,
		LinkClient:  srv.Client(),
		Logger:      quietLogger(),
	})

	res, err := c.Run(context.Background(), origin+"/")
	require.NoError(t, err)

	require.Len(t, res.BrokenLinks, 1)
	assert.Equal(t, origin+"/gone", res.BrokenLinks[0].URL)
	assert.Equal(t, 404, res.BrokenLinks[0].Status)
	assert.Equal(t, 3, res.LinksChecked)
}

func TestCheckLinksSkipsBudgetForCrawledTargets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/gone" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	origin := srv.URL
	ff := &fakeFetcher{pages: map[string]*fetch.Result{
		origin + "/":  htmlPage(origin+"/", link("/a")+link("/gone")),
		origin + "/a": htmlPage(origin+"/a", ""),
	}}

	// One probe slot: /a's status is known from the crawl and must not
	// spend it, leaving the slot for /gone.
	budget := testBudget()
	budget.MaxDepth = 1
	budget.MaxLinkChecks = 1
	c := New(Options{
		Fetcher:     ff,
		Gate:        &allowAllGate{},
		Budget:      budget,
		Concurrency: 1,
		LinkClient:  srv.Client(),
		Logger:      quietLogger(),
	})

	res, err := c.Run(context.Background(), origin+"/")
	require.NoError(t, err)

	assert.Equal(t, 1, res.LinksChecked)
	require.Len(t, res.BrokenLinks, 1)
	assert.Equal(t, origin+"/gone", res.BrokenLinks[0].URL)
	for _, note := range res.LimitNotes {
		assert.NotContains(t, note, "link check limit")
	}
}
