// Package audit orchestrates a full site audit: crawl, classify, score
// and assemble, with caching and request coalescing in front.
package audit

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/site-audit/siteaudit/internal/auditcache"
	"github.com/site-audit/siteaudit/internal/classify"
	"github.com/site-audit/siteaudit/internal/config"
	"github.com/site-audit/siteaudit/internal/crawler"
	"github.com/site-audit/siteaudit/internal/fetch"
	"github.com/site-audit/siteaudit/internal/llm"
	"github.com/site-audit/siteaudit/internal/report"
	"github.com/site-audit/siteaudit/internal/robots"
	"github.com/site-audit/siteaudit/internal/score"
	"github.com/site-audit/siteaudit/internal/urlutil"
)

// ErrUnreachable reports that the start page itself could not be
// fetched, so no audit material exists.
var ErrUnreachable = errors.New("start page unreachable")

// Options wires the service dependencies.
type Options struct {
	Fetcher  fetch.Fetcher
	Settings config.Settings
	Cache    *auditcache.Cache
	LLM      *llm.Client
	Logger   *logrus.Logger

	// HTTPClient serves robots.txt lookups and broken-link probes.
	// nil uses http.DefaultClient.
	HTTPClient *http.Client
}

// Service runs audits and serves them from cache when fresh.
type Service struct {
	fetcher    fetch.Fetcher
	settings   config.Settings
	cache      *auditcache.Cache
	llm        *llm.Client
	log        *logrus.Logger
	httpClient *http.Client
}

func NewService(opts Options) *Service {
	s := &Service{
		fetcher:    opts.Fetcher,
		settings:   opts.Settings,
		cache:      opts.Cache,
		llm:        opts.LLM,
		log:        opts.Logger,
		httpClient: opts.HTTPClient,
	}
	if s.cache == nil {
		s.cache = auditcache.New()
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	if s.httpClient == nil {
		s.httpClient = http.DefaultClient
	}
	return s
}

// Report runs (or serves from cache) a full-profile audit. The second
// return reports whether the result came from cache.
func (s *Service) Report(ctx context.Context, rawURL string) (*report.Report, bool, error) {
	return s.reportFor(ctx, rawURL, config.ProfileFull)
}

// SummaryResult carries the executive summary plus the report it was
// derived from.
type SummaryResult struct {
	Summary map[string]string `json:"summary"`
	Report  *report.Report    `json:"-"`

	// Refined is true when an LLM rewrote the deterministic text.
	Refined bool `json:"refined"`
}

// ExecutiveSummary produces the per-area summary for a site. A fresh
// cached full report is reused; otherwise the cheaper summary profile
// crawls the start page. When an LLM key is configured the text is
// refined, falling back to the deterministic sentences on any failure.
func (s *Service) ExecutiveSummary(ctx context.Context, rawURL string) (*SummaryResult, error) {
	validated, err := urlutil.Validate(rawURL)
	if err != nil {
		return nil, err
	}

	var r *report.Report
	if full, ok := s.cache.Get(auditcache.Key(validated, config.ProfileFull)); ok {
		r = full
	} else {
		r, _, err = s.reportFor(ctx, validated, config.ProfileSummary)
		if err != nil {
			return nil, err
		}
	}

	res := &SummaryResult{
		Summary: report.ExecutiveSummary(r),
		Report:  r,
	}
	if s.llm.Enabled() {
		refined, err := s.llm.RefineSummary(ctx, r)
		if err != nil {
			s.log.WithError(err).Warn("LLM refinement failed, keeping deterministic summary")
		} else {
			res.Summary = refined
			res.Refined = true
		}
	}
	return res, nil
}

func (s *Service) reportFor(ctx context.Context, rawURL string, profile config.Profile) (*report.Report, bool, error) {
	validated, err := urlutil.Validate(rawURL)
	if err != nil {
		return nil, false, err
	}

	budget := config.BudgetFor(profile)
	key := auditcache.Key(validated, profile)
	return s.cache.GetOrCompute(ctx, key, budget.CacheTTL, func(ctx context.Context) (*report.Report, error) {
		return s.run(ctx, validated, profile, budget)
	})
}

// run performs one uncached audit.
func (s *Service) run(ctx context.Context, url string, profile config.Profile, budget config.Budget) (*report.Report, error) {
	log := s.log.WithFields(logrus.Fields{"url": url, "profile": profile})
	log.Info("Starting audit")

	gate := robots.NewGate(s.httpClient, s.settings.UserAgent, budget.PerPageTimeout)
	c := crawler.New(crawler.Options{
		Fetcher:     s.fetcher,
		Gate:        gate,
		Budget:      budget,
		Concurrency: s.settings.Concurrency,
		LinkClient:  s.httpClient,
		PerHostRPS:  s.settings.PerHostRPS,
		UserAgent:   s.settings.UserAgent,
		Logger:      s.log,
	})

	res, err := c.Run(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("crawl %s: %w", url, err)
	}
	if err := seedUnreachable(res); err != nil {
		return nil, err
	}

	findings := classify.Classify(&classify.Input{
		Origin:               res.Origin,
		Pages:                res.Pages,
		Robots:               res.Robots,
		Broken:               res.BrokenLinks,
		LimitNotes:           res.LimitNotes,
		IncludeLimitFindings: profile == config.ProfileFull,
	})

	evaluated := 0
	for i := range res.Pages {
		if res.Pages[i].Outcome == crawler.OutcomeSuccess {
			evaluated++
		}
	}
	scores := score.Score(findings, evaluated)
	r := report.Assemble(res, findings, scores, profile)

	log.WithFields(logrus.Fields{
		"pages":    len(res.Pages),
		"findings": len(findings),
		"overall":  scores.Overall,
		"status":   scores.Status,
	}).Info("Audit finished")
	return r, nil
}

// seedUnreachable fails the audit when nothing was fetched and the
// start page itself errored. A robots-blocked seed is not an error;
// the report then states the site refused crawling.
func seedUnreachable(res *crawler.Result) error {
	if res.PagesFetched > 0 || len(res.Pages) == 0 {
		return nil
	}
	seed := res.Pages[0]
	if seed.Outcome == crawler.OutcomeError || seed.Outcome == crawler.OutcomeTimeout {
		if seed.Err != "" {
			return fmt.Errorf("%w: %s", ErrUnreachable, seed.Err)
		}
		return ErrUnreachable
	}
	return nil
}
