package scrape

import "sync"

type verdict int

const (
	accept verdict = iota
	wait
	stale
)

// Cycle holds the freshness token of one sync cycle. It is safe for
// concurrent use by the pages of a parallel scan.
type Cycle struct {
	mu    sync.Mutex
	prev  int64
	token int64
}

// NewCycle starts a cycle following one that completed at prevToken
// (zero for the first cycle).
func NewCycle(prevToken int64) *Cycle {
	return &Cycle{prev: prevToken}
}

// Token returns the fixed token, or zero before the first adopting read.
func (c *Cycle) Token() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// Previous returns the token of the preceding cycle.
func (c *Cycle) Previous() int64 {
	return c.prev
}

// check classifies an observed token. An adopting read fixes the token
// when none is fixed yet and upstream has moved past the previous cycle.
func (c *Cycle) check(observed int64, adopt bool) (verdict, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.token != 0 && observed == c.token:
		return accept, c.token, nil
	case c.token != 0 && observed < c.token:
		return wait, c.token, nil
	case c.token != 0:
		return stale, c.token, nil
	case !adopt:
		return stale, 0, errNoToken
	case observed <= c.prev:
		return wait, c.prev, nil
	}
	c.token = observed
	return accept, c.token, nil
}
