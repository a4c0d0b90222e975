// Package frontier holds the breadth-first URL queue for a single crawl.
// Discovery order is preserved exactly: URLs pushed earlier are popped
// earlier, so the page list of a crawl is deterministic for a fixed site.
package frontier

import "container/list"

// Item is one queued crawl candidate.
type Item struct {
	URL            string
	NormalizedURL  string
	Depth          int
	DiscoveredFrom string
}

// Frontier is a FIFO queue with duplicate suppression. Not safe for
// concurrent use; the crawl coordinator is its sole owner.
type Frontier struct {
	queue    *list.List
	queued   map[string]struct{}
	visited  map[string]struct{}
	maxDepth int
}

func New(maxDepth int) *Frontier {
	return &Frontier{
		queue:    list.New(),
		queued:   make(map[string]struct{}),
		visited:  make(map[string]struct{}),
		maxDepth: maxDepth,
	}
}

// Push enqueues an item unless it exceeds the depth limit or its
// normalized URL has already been queued or visited. Returns whether
// the item was accepted.
func (f *Frontier) Push(item Item) bool {
	if item.Depth > f.maxDepth {
		return false
	}
	key := item.NormalizedURL
	if key == "" {
		key = item.URL
	}
	if _, ok := f.queued[key]; ok {
		return false
	}
	if _, ok := f.visited[key]; ok {
		return false
	}
	f.queued[key] = struct{}{}
	f.queue.PushBack(item)
	return true
}

// Pop removes and returns the oldest queued item.
func (f *Frontier) Pop() (Item, bool) {
	front := f.queue.Front()
	if front == nil {
		return Item{}, false
	}
	f.queue.Remove(front)
	item := front.Value.(Item)
	key := item.NormalizedURL
	if key == "" {
		key = item.URL
	}
	delete(f.queued, key)
	return item, true
}

func (f *Frontier) Len() int {
	return f.queue.Len()
}

// MarkVisited records that a normalized URL has been processed, so later
// discoveries of the same URL are dropped at Push.
func (f *Frontier) MarkVisited(normalized string) {
	f.visited[normalized] = struct{}{}
}

func (f *Frontier) HasVisited(normalized string) bool {
	_, ok := f.visited[normalized]
	return ok
}

func (f *Frontier) VisitedCount() int {
	return len(f.visited)
}
