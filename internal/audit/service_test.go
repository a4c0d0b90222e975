package audit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/site-audit/siteaudit/internal/config"
	"github.com/site-audit/siteaudit/internal/fetch"
	"github.com/site-audit/siteaudit/internal/llm"
	"github.com/site-audit/siteaudit/internal/report"
)

type fakeFetcher struct {
	pages map[string]*fetch.Result
	errs  map[string]error
	calls int64
}

func (f *fakeFetcher) Fetch(_ context.Context, url string, _ time.Duration) (*fetch.Result, error) {
	atomic.AddInt64(&f.calls, 1)
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	if r, ok := f.pages[url]; ok {
		return r, nil
	}
	return nil, &fetch.Error{Kind: fetch.KindHTTP, URL: url, Err: errors.New("not found")}
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// stubHTTPClient answers every robots/sitemap/link probe with body.
func stubHTTPClient(status int, body string) *http.Client {
	return &http.Client{Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(strings.NewReader(body)),
			Header:     http.Header{},
		}, nil
	})}
}

func page(html string) *fetch.Result {
	return &fetch.Result{HTML: html, StatusCode: 200, ContentType: "text/html; charset=utf-8"}
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testService(f *fakeFetcher, llmClient *llm.Client, httpClient *http.Client) *Service {
	if httpClient == nil {
		httpClient = stubHTTPClient(404, "")
	}
	return NewService(Options{
		Fetcher: f,
		Settings: config.Settings{
			Concurrency: 2,
			UserAgent:   config.DefaultUserAgent,
		},
		LLM:        llmClient,
		Logger:     quietLogger(),
		HTTPClient: httpClient,
	})
}

func siteFetcher() *fakeFetcher {
	home := `<html><head><title>Acme Studio Home Page</title><meta name="viewport" content="width=device-width"></head>` +
		`<body><h1>Acme</h1><a href="https://site.example/about">About</a></body></html>`
	about := `<html><head><title>About Acme Studio and team</title></head><body><h1>About</h1></body></html>`
	return &fakeFetcher{pages: map[string]*fetch.Result{
		"https://site.example/":      withFinal(page(home), "https://site.example/"),
		"https://site.example/about": withFinal(page(about), "https://site.example/about"),
	}}
}

func withFinal(r *fetch.Result, final string) *fetch.Result {
	r.FinalURL = final
	return r
}

func TestReportEndToEnd(t *testing.T) {
	f := siteFetcher()
	s := testService(f, nil, nil)

	r, cached, err := s.Report(context.Background(), "https://site.example/")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, config.ProfileFull, r.Profile)
	assert.Len(t, r.Sections, len(report.SectionOrder))
	assert.Equal(t, 2, r.Crawl.PagesFetched)
	require.NotNil(t, r.Scores)
	assert.GreaterOrEqual(t, r.Scores.Overall, 0)
	assert.LessOrEqual(t, r.Scores.Overall, 100)
}

func TestReportServedFromCache(t *testing.T) {
	f := siteFetcher()
	s := testService(f, nil, nil)

	r1, _, err := s.Report(context.Background(), "https://site.example/")
	require.NoError(t, err)
	callsAfterFirst := atomic.LoadInt64(&f.calls)

	r2, cached, err := s.Report(context.Background(), "https://site.example/")
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Same(t, r1, r2)
	assert.Equal(t, callsAfterFirst, atomic.LoadInt64(&f.calls))
}

func TestReportInvalidURL(t *testing.T) {
	s := testService(&fakeFetcher{}, nil, nil)

	_, _, err := s.Report(context.Background(), "not a url")
	require.Error(t, err)
}

func TestReportUnreachableSeed(t *testing.T) {
	f := &fakeFetcher{errs: map[string]error{
		"https://down.example/": &fetch.Error{Kind: fetch.KindNetwork, URL: "https://down.example/", Err: errors.New("connection refused")},
	}}
	s := testService(f, nil, nil)

	_, _, err := s.Report(context.Background(), "https://down.example/")
	require.ErrorIs(t, err, ErrUnreachable)
}

func TestReportRobotsBlockedSeedStillReports(t *testing.T) {
	f := siteFetcher()
	s := testService(f, nil, stubHTTPClient(200, "User-agent: *\nDisallow: /\n"))

	r, _, err := s.Report(context.Background(), "https://site.example/")
	require.NoError(t, err)
	assert.Equal(t, 0, r.Crawl.PagesFetched)
	assert.Equal(t, int64(0), atomic.LoadInt64(&f.calls))
	assert.Len(t, r.Sections, len(report.SectionOrder))
}

func TestExecutiveSummaryPrefersCachedFullReport(t *testing.T) {
	f := siteFetcher()
	s := testService(f, nil, nil)

	full, _, err := s.Report(context.Background(), "https://site.example/")
	require.NoError(t, err)
	calls := atomic.LoadInt64(&f.calls)

	res, err := s.ExecutiveSummary(context.Background(), "https://site.example/")
	require.NoError(t, err)
	assert.Same(t, full, res.Report)
	assert.Equal(t, calls, atomic.LoadInt64(&f.calls))
	assert.False(t, res.Refined)
	for _, key := range report.SummaryKeys {
		assert.NotEmpty(t, res.Summary[key])
	}
}

func TestExecutiveSummaryRunsSummaryProfileWhenCold(t *testing.T) {
	f := siteFetcher()
	s := testService(f, nil, nil)

	res, err := s.ExecutiveSummary(context.Background(), "https://site.example/")
	require.NoError(t, err)
	assert.Equal(t, config.ProfileSummary, res.Report.Profile)
	// Seed plus its direct links fit inside the summary budget.
	assert.Equal(t, 2, res.Report.Crawl.PagesFetched)
}

func TestExecutiveSummaryLLMRefinement(t *testing.T) {
	answer := map[string]string{}
	for _, key := range report.SummaryKeys {
		answer[key] = "Refined sentence about " + key + "."
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content, _ := json.Marshal(answer)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": string(content)}},
			},
		})
	}))
	defer srv.Close()

	s := testService(siteFetcher(), llm.New("gsk_test", "", srv.URL), nil)

	res, err := s.ExecutiveSummary(context.Background(), "https://site.example/")
	require.NoError(t, err)
	assert.True(t, res.Refined)
	assert.Equal(t, "Refined sentence about overall.", res.Summary["overall"])
}

func TestExecutiveSummaryLLMFailureFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := testService(siteFetcher(), llm.New("gsk_test", "", srv.URL), nil)

	res, err := s.ExecutiveSummary(context.Background(), "https://site.example/")
	require.NoError(t, err)
	assert.False(t, res.Refined)
	for _, key := range report.SummaryKeys {
		assert.NotEmpty(t, res.Summary[key])
	}
}
