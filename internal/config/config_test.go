package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBudgetFor(t *testing.T) {
	full := BudgetFor(ProfileFull)
	assert.Equal(t, 150, full.MaxPages)
	assert.Equal(t, 6, full.MaxDepth)
	assert.Equal(t, 120*time.Second, full.MaxRuntime)
	assert.Equal(t, 20*time.Second, full.PerPageTimeout)
	assert.Equal(t, 400, full.MaxLinkChecks)
	assert.Equal(t, 900*time.Second, full.CacheTTL)

	summary := BudgetFor(ProfileSummary)
	assert.Equal(t, 12, summary.MaxPages)
	assert.Equal(t, 1, summary.MaxDepth)
	assert.Equal(t, 8*time.Second, summary.MaxRuntime)
	assert.Equal(t, 5*time.Second, summary.PerPageTimeout)
	assert.Equal(t, 0, summary.MaxLinkChecks)
	assert.Equal(t, 600*time.Second, summary.CacheTTL)
}

func TestBudgetBoundsPositive(t *testing.T) {
	for _, p := range []Profile{ProfileFull, ProfileSummary} {
		b := BudgetFor(p)
		assert.Positive(t, b.MaxPages, "profile %s", p)
		assert.Positive(t, b.MaxDepth, "profile %s", p)
		assert.Positive(t, b.MaxRuntime, "profile %s", p)
		assert.Positive(t, b.PerPageTimeout, "profile %s", p)
		assert.Positive(t, b.CacheTTL, "profile %s", p)
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("TEST_CONC", "9")
	assert.Equal(t, 9, GetEnvInt("TEST_CONC", 5))
	assert.Equal(t, 5, GetEnvInt("TEST_CONC_MISSING", 5))
	t.Setenv("TEST_CONC_BAD", "nope")
	assert.Equal(t, 5, GetEnvInt("TEST_CONC_BAD", 5))
}
