// Package config defines audit profiles, crawl budgets and process settings.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Profile selects how aggressive an audit crawl is.
type Profile string

const (
	// ProfileFull is the complete audit used by the report endpoint.
	ProfileFull Profile = "full"

	// ProfileSummary is the fast profile used by the executive summary
	// endpoint when no full report is cached.
	ProfileSummary Profile = "summary"
)

// Budget holds the hard limits for one crawl. All bounds are positive and
// finite; hitting one ends the crawl with a partial result, never an error.
type Budget struct {
	// Maximum pages fetched (attempted fetches, not skips).
	MaxPages int

	// Maximum link depth from the seed (seed is depth 0).
	MaxDepth int

	// Wall-clock limit for the whole crawl.
	MaxRuntime time.Duration

	// Timeout applied to each individual page fetch.
	PerPageTimeout time.Duration

	// Maximum internal links probed for broken-link detection after the
	// crawl (0 disables the check).
	MaxLinkChecks int

	// How long a completed report stays valid in the audit cache.
	CacheTTL time.Duration
}

// BudgetFor returns the fixed budget for a profile.
func BudgetFor(p Profile) Budget {
	if p == ProfileSummary {
		return Budget{
			MaxPages:       12,
			MaxDepth:       1,
			MaxRuntime:     8 * time.Second,
			PerPageTimeout: 5 * time.Second,
			MaxLinkChecks:  0,
			CacheTTL:       600 * time.Second,
		}
	}
	return Budget{
		MaxPages:       150,
		MaxDepth:       6,
		MaxRuntime:     120 * time.Second,
		PerPageTimeout: 20 * time.Second,
		MaxLinkChecks:  400,
		CacheTTL:       900 * time.Second,
	}
}

// Settings holds process-level configuration resolved from the environment.
type Settings struct {
	// HTTP bind port for the API.
	Port string

	// Number of concurrent fetch workers per crawl.
	Concurrency int

	// User-Agent sent on every fetch and robots request.
	UserAgent string

	// Optional Chromium executable path (empty = chromedp default lookup).
	ChromePath string

	// Per-host request rate during a crawl.
	PerHostRPS float64

	// LLM refinement settings; APIKey empty disables refinement.
	LLMAPIKey  string
	LLMModel   string
	LLMBaseURL string
}

// DefaultUserAgent identifies the audit crawler to target sites.
const DefaultUserAgent = "SiteAuditBot/1.0 (+https://github.com/site-audit/siteaudit)"

// Load resolves Settings from the environment.
func Load() Settings {
	return Settings{
		Port:        GetEnv("PORT", "8080"),
		Concurrency: GetEnvInt("CRAWL_CONCURRENCY", 5),
		UserAgent:   GetEnv("CRAWL_USER_AGENT", DefaultUserAgent),
		ChromePath:  GetEnv("CHROMIUM_PATH", ""),
		PerHostRPS:  GetEnvFloat("CRAWL_PER_HOST_RPS", 4),
		LLMAPIKey:   GetEnv("LLM_API_KEY", ""),
		LLMModel:    GetEnv("LLM_MODEL", ""),
		LLMBaseURL:  GetEnv("LLM_BASE_URL", ""),
	}
}

// LoadEnv loads local .env files into the process environment.
func LoadEnv(logger *logrus.Logger) {
	for _, file := range []string{".env", ".env.dev"} {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Overload(file); err != nil && logger != nil {
			logger.WithError(err).Warnf("Failed to load %s", file)
		}
	}
}

// GetEnv gets an environment variable with a default value.
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt gets an integer environment variable with a default value.
func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetEnvFloat gets a float environment variable with a default value.
func GetEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetLogLevel gets the log level from the environment.
func GetLogLevel() logrus.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return logrus.DebugLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
