package frontier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFIFOOrder(t *testing.T) {
	f := New(5)
	f.Push(Item{URL: "https://a.test/", NormalizedURL: "https://a.test/", Depth: 0})
	f.Push(Item{URL: "https://a.test/b", NormalizedURL: "https://a.test/b", Depth: 1})
	f.Push(Item{URL: "https://a.test/c", NormalizedURL: "https://a.test/c", Depth: 1})

	got := make([]string, 0, 3)
	for {
		item, ok := f.Pop()
		if !ok {
			break
		}
		got = append(got, item.URL)
	}
	assert.Equal(t, []string{"https://a.test/", "https://a.test/b", "https://a.test/c"}, got)
}

func TestDuplicateSuppression(t *testing.T) {
	f := New(5)
	assert.True(t, f.Push(Item{NormalizedURL: "https://a.test/page"}))
	assert.False(t, f.Push(Item{NormalizedURL: "https://a.test/page"}), "already queued")

	item, ok := f.Pop()
	assert.True(t, ok)
	f.MarkVisited(item.NormalizedURL)

	assert.False(t, f.Push(Item{NormalizedURL: "https://a.test/page"}), "already visited")
	assert.True(t, f.HasVisited("https://a.test/page"))
	assert.Equal(t, 1, f.VisitedCount())
}

func TestDepthLimit(t *testing.T) {
	f := New(2)
	assert.True(t, f.Push(Item{NormalizedURL: "https://a.test/d2", Depth: 2}))
	assert.False(t, f.Push(Item{NormalizedURL: "https://a.test/d3", Depth: 3}))
	assert.Equal(t, 1, f.Len())
}
