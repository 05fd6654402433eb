package observe

import "sync/atomic"

// Counter receives changes to the number of open observers. Inject one with
// WithCounter to watch for leaks.
type Counter interface {
	Add(delta int)
}

// LiveCounter is a Counter that keeps the running total.
type LiveCounter struct {
	n atomic.Int64
}

// Add adjusts the total by delta.
func (c *LiveCounter) Add(delta int) {
	c.n.Add(int64(delta))
}

// Load returns the current total.
func (c *LiveCounter) Load() int {
	return int(c.n.Load())
}

type nopCounter struct{}

func (nopCounter) Add(int) {}
