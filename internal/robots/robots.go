// Package robots gates crawl candidates against the target site's
// robots.txt and probes for a sitemap. The policy is fetched at most once
// per origin for the lifetime of one crawl; an unreachable or absent
// robots.txt allows everything, since a missing policy file must not
// block an otherwise-permitted audit.
package robots

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"

	"github.com/site-audit/siteaudit/internal/urlutil"
)

// Policy summarizes what was discovered about an origin's crawl guidance.
type Policy struct {
	RobotsURL      string
	RobotsPresent  bool
	RobotsStatus   int
	SitemapURL     string
	SitemapPresent bool
}

// Gate answers allow/deny for URLs, memoized per origin.
type Gate struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration

	mu       sync.Mutex
	data     map[string]*robotstxt.RobotsData
	policies map[string]Policy
}

// NewGate builds a gate. A nil client gets a default with the given timeout.
func NewGate(client *http.Client, userAgent string, timeout time.Duration) *Gate {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	if userAgent == "" {
		userAgent = "SiteAuditBot"
	}
	return &Gate{
		client:    client,
		userAgent: userAgent,
		timeout:   timeout,
		data:      make(map[string]*robotstxt.RobotsData),
		policies:  make(map[string]Policy),
	}
}

// Allowed reports whether the URL may be fetched under the origin's
// robots policy. Fail-open: parse or fetch trouble means allow.
func (g *Gate) Allowed(ctx context.Context, rawURL string) bool {
	origin, err := urlutil.Origin(rawURL)
	if err != nil {
		return true
	}

	data := g.load(ctx, origin)
	if data == nil {
		return true
	}

	group := data.FindGroup(g.userAgent)
	if group == nil {
		return true
	}

	path := strings.TrimPrefix(rawURL, origin)
	if path == "" {
		path = "/"
	}
	return group.Test(path)
}

// PolicyFor returns what was learned about an origin, fetching robots.txt
// and probing the sitemap on first use.
func (g *Gate) PolicyFor(ctx context.Context, rawURL string) Policy {
	origin, err := urlutil.Origin(rawURL)
	if err != nil {
		return Policy{}
	}
	g.load(ctx, origin)

	g.mu.Lock()
	defer g.mu.Unlock()
	return g.policies[origin]
}

// load fetches and memoizes the robots data for an origin. Returns nil
// when no usable policy exists (treat as allow-all).
func (g *Gate) load(ctx context.Context, origin string) *robotstxt.RobotsData {
	g.mu.Lock()
	if data, ok := g.data[origin]; ok {
		g.mu.Unlock()
		return data
	}
	g.mu.Unlock()

	policy := Policy{
		RobotsURL:  origin + "/robots.txt",
		SitemapURL: origin + "/sitemap.xml",
	}

	var data *robotstxt.RobotsData
	body, status, err := g.get(ctx, policy.RobotsURL)
	if err == nil {
		policy.RobotsStatus = status
		if status == http.StatusOK {
			policy.RobotsPresent = true
			if parsed, perr := robotstxt.FromBytes(body); perr == nil {
				data = parsed
			}
			policy.SitemapPresent = strings.Contains(strings.ToLower(string(body)), "sitemap:")
		}
	}

	if !policy.SitemapPresent {
		if _, status, err := g.get(ctx, policy.SitemapURL); err == nil && status == http.StatusOK {
			policy.SitemapPresent = true
		}
	}

	g.mu.Lock()
	g.data[origin] = data
	g.policies[origin] = policy
	g.mu.Unlock()
	return data
}

func (g *Gate) get(ctx context.Context, url string) ([]byte, int, error) {
	reqCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}
