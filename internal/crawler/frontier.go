package crawler

import (
	"net/url"
	"sync"
)

type frontierEntry struct {
	url   *url.URL
	depth int
}

// frontier is an unbounded FIFO queue of pages awaiting fetch. It is
// unbounded on purpose: workers push discovered links without blocking, so a
// full downstream worker queue can never deadlock the crawl.
type frontier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	entries []frontierEntry
	closed  bool
}

func newFrontier() *frontier {
	f := &frontier{}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// Push appends an entry, reporting false once the frontier is closed.
func (f *frontier) Push(e frontierEntry) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false
	}
	f.entries = append(f.entries, e)
	f.cond.Signal()
	return true
}

// Pop blocks until an entry is available or the frontier closes. The second
// return value is false only when the frontier is closed and drained.
func (f *frontier) Pop() (frontierEntry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for len(f.entries) == 0 && !f.closed {
		f.cond.Wait()
	}
	if len(f.entries) == 0 {
		return frontierEntry{}, false
	}
	e := f.entries[0]
	f.entries = f.entries[1:]
	return e, true
}

// Close wakes all blocked readers. Entries already queued can still be
// drained; further pushes are rejected.
func (f *frontier) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.cond.Broadcast()
}
