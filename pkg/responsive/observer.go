// Package responsive turns container size changes into layout updates.
//
// An [Observer] may be fed every resize tick. It coalesces bursts with a
// trailing debounce and skips sizes equal to the last one applied, so the
// relayout callback runs once per settled size. Relayout is idempotent, so
// the debounce only saves work; a zero delay applies every change at once.
package responsive

import (
	"context"
	"sync"
	"time"

	"github.com/matzehuels/nodeflow/pkg/diagram"
)

// DefaultDelay is the trailing debounce applied to size changes.
const DefaultDelay = 100 * time.Millisecond

// Observer debounces size changes and forwards settled sizes to apply.
type Observer struct {
	apply func(diagram.Size)
	delay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending *diagram.Size
	last    diagram.Size
	applied bool
	closed  bool

	done     chan struct{}
	watchers sync.WaitGroup
}

// New creates an Observer calling apply for every settled size. apply runs
// on the caller's goroutine when delay is zero or on Flush, and on a timer
// goroutine otherwise.
func New(delay time.Duration, apply func(diagram.Size)) *Observer {
	if delay < 0 {
		delay = 0
	}
	return &Observer{apply: apply, delay: delay, done: make(chan struct{})}
}

// Observe records a size change.
func (o *Observer) Observe(size diagram.Size) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	if o.delay == 0 {
		o.pending = &size
		o.mu.Unlock()
		o.Flush()
		return
	}
	o.pending = &size
	if o.timer != nil {
		o.timer.Stop()
	}
	o.timer = time.AfterFunc(o.delay, func() { o.Flush() })
	o.mu.Unlock()
}

// Flush applies the pending size now, if any. It reports whether apply ran.
func (o *Observer) Flush() bool {
	o.mu.Lock()
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	if o.pending == nil || o.closed {
		o.pending = nil
		o.mu.Unlock()
		return false
	}
	size := *o.pending
	o.pending = nil
	if o.applied && size == o.last {
		o.mu.Unlock()
		return false
	}
	o.last, o.applied = size, true
	o.mu.Unlock()

	o.apply(size)
	return true
}

// Last returns the last applied size.
func (o *Observer) Last() (diagram.Size, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last, o.applied
}

// Watch observes sizes from ch until ctx is done, ch is closed or the
// observer is closed. It returns immediately.
func (o *Observer) Watch(ctx context.Context, ch <-chan diagram.Size) {
	o.watchers.Add(1)
	go func() {
		defer o.watchers.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-o.done:
				return
			case size, ok := <-ch:
				if !ok {
					return
				}
				o.Observe(size)
			}
		}
	}()
}

// Close drops any pending size, stops the debounce timer and waits for
// Watch goroutines to exit. It is safe to call more than once.
func (o *Observer) Close() {
	o.mu.Lock()
	if !o.closed {
		close(o.done)
	}
	o.closed = true
	o.pending = nil
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	o.mu.Unlock()
	o.watchers.Wait()
}
