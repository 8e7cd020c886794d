package roster

import (
	"sync"
	"time"
)

// Coalescer batches items added within a window and hands each batch to
// flush in one call. The window opens with the first item of a batch and is
// not extended by later items, so a steady stream still flushes every window.
//
// flush is never called concurrently with itself, and batches are delivered
// in the order their items were added. flush may call Add; it must not call
// Flush or Close.
type Coalescer[T any] struct {
	window time.Duration
	flush  func([]T)

	mu       sync.Mutex
	pending  []T
	timer    *time.Timer
	closed   bool
	flushing bool

	flushMu sync.Mutex
}

// NewCoalescer returns a coalescer with the given window. A zero window
// flushes every item synchronously from Add.
func NewCoalescer[T any](window time.Duration, flush func([]T)) *Coalescer[T] {
	return &Coalescer[T]{
		window: window,
		flush:  flush,
	}
}

// Add queues item. It reports false once the coalescer is closed.
func (c *Coalescer[T]) Add(item T) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.pending = append(c.pending, item)

	if c.window <= 0 {
		// A running flush picks the item up before it returns
		flushing := c.flushing
		c.mu.Unlock()
		if !flushing {
			c.Flush()
		}
		return true
	}

	if c.timer == nil {
		c.timer = time.AfterFunc(c.window, c.Flush)
	}
	c.mu.Unlock()
	return true
}

// Flush delivers the pending batch now, if there is one. With a zero window
// it keeps delivering until nothing is pending, so items added from inside
// flush go out as their own batches.
func (c *Coalescer[T]) Flush() {
	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	for {
		c.mu.Lock()
		batch := c.pending
		c.pending = nil
		if c.timer != nil {
			c.timer.Stop()
			c.timer = nil
		}
		c.flushing = len(batch) > 0
		c.mu.Unlock()

		if len(batch) == 0 {
			return
		}
		c.flush(batch)

		if c.window > 0 {
			c.mu.Lock()
			c.flushing = false
			c.mu.Unlock()
			return
		}
	}
}

// Pending returns the number of items waiting for the next flush.
func (c *Coalescer[T]) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Close flushes what is pending and rejects further items.
func (c *Coalescer[T]) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.Flush()
}
