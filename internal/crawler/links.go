package crawler

import (
	"context"
	"fmt"
	"net/http"
	"sort"
)

// checkLinks probes every internal link discovered during the crawl with a
// HEAD request (falling back to GET when HEAD is refused) and records the
// ones answering 4xx/5xx or not at all. Statuses already known from the
// crawl seed the cache so crawled pages are never re-fetched. The check
// runs inside whatever time remains of the crawl budget.
func (c *Crawler) checkLinks(ctx context.Context, res *Result) {
	statusCache := make(map[string]int)
	foundOn := make(map[string]string)

	targets := make(map[string]struct{})
	for i := range res.Pages {
		page := &res.Pages[i]
		if page.FinalURL != "" && page.Status > 0 {
			statusCache[page.FinalURL] = page.Status
		}
		if page.Signals == nil {
			continue
		}
		for _, link := range page.Signals.InternalLinks {
			targets[link] = struct{}{}
			if _, ok := foundOn[link]; !ok {
				foundOn[link] = page.URL
			}
		}
	}

	ordered := make([]string, 0, len(targets))
	for link := range targets {
		ordered = append(ordered, link)
	}
	sort.Strings(ordered)

	for _, link := range ordered {
		// Statuses seeded from crawled pages cost no probe budget.
		status, known := statusCache[link]
		if !known {
			if res.LinksChecked >= c.budget.MaxLinkChecks {
				res.LimitNotes = append(res.LimitNotes, fmt.Sprintf("link check limit of %d reached", c.budget.MaxLinkChecks))
				break
			}
			if ctx.Err() != nil {
				res.LimitNotes = append(res.LimitNotes, "runtime limit reached while checking internal links")
				break
			}
			if !c.gate.Allowed(ctx, link) {
				continue
			}
			res.LinksChecked++
			status = c.probe(ctx, link)
			statusCache[link] = status
		}
		if status >= 400 || status == 0 {
			res.BrokenLinks = append(res.BrokenLinks, BrokenLink{
				URL:     link,
				Status:  status,
				FoundOn: foundOn[link],
			})
		}
	}
}

// probe returns the status of one link, 0 on transport failure.
func (c *Crawler) probe(ctx context.Context, link string) int {
	status := c.request(ctx, http.MethodHead, link)
	if status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented {
		status = c.request(ctx, http.MethodGet, link)
	}
	return status
}

func (c *Crawler) request(ctx context.Context, method, link string) int {
	reqCtx, cancel := context.WithTimeout(ctx, c.budget.PerPageTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, link, nil)
	if err != nil {
		return 0
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	resp, err := c.linkClient.Do(req)
	if err != nil {
		return 0
	}
	resp.Body.Close()
	return resp.StatusCode
}
