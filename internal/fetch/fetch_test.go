package fetch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	err := &Error{Kind: KindTimeout, URL: "https://example.com/", Err: context.DeadlineExceeded}
	assert.Contains(t, err.Error(), "https://example.com/")
	assert.Contains(t, err.Error(), "timeout")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestClassifyKind(t *testing.T) {
	err := classify("https://example.com/", context.DeadlineExceeded)
	var fe *Error
	assert.ErrorAs(t, err, &fe)
	assert.Equal(t, KindTimeout, fe.Kind)

	err = classify("https://example.com/", errors.New("net::ERR_CONNECTION_REFUSED"))
	assert.ErrorAs(t, err, &fe)
	assert.Equal(t, KindNetwork, fe.Kind)
}

func TestCloseWithTabCheckedOut(t *testing.T) {
	f, err := NewChromeFetcher(ChromeOptions{PoolSize: 2})
	require.NoError(t, err)

	// Simulate a fetch in flight: one tab is checked out when Close runs.
	tab := <-f.pool
	require.NoError(t, f.Close())

	assert.NotPanics(t, func() { f.release(tab) })
	assert.Len(t, f.pool, 0, "a tab returned after Close is cancelled, not pooled")

	// Close is idempotent.
	require.NoError(t, f.Close())
}
