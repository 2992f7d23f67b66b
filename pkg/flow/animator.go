package flow

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var (
	// ErrRunning is returned by Start when a tick loop is already running.
	ErrRunning = errors.New("flow: animation already running")
	// ErrClosed is returned by Start after Close.
	ErrClosed = errors.New("flow: animator closed")
)

// Animator owns the particle tasks of one diagram instance. Tasks are
// created and cancelled by Sync; sampling them is a pure function of
// elapsed time, so tasks never coordinate with each other.
//
// An Animator is safe for concurrent use.
type Animator struct {
	mu     sync.Mutex
	tasks  map[string]*Task
	unit   time.Duration
	rng    *rand.Rand
	clock  func() time.Time
	start  time.Time
	logger *log.Logger
	closed bool

	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures an Animator.
type Option func(*Animator)

// WithUnit sets the length of one duration unit.
func WithUnit(d time.Duration) Option {
	return func(a *Animator) {
		if d > 0 {
			a.unit = d
		}
	}
}

// WithSeed makes start phases reproducible.
func WithSeed(seed uint64) Option {
	return func(a *Animator) { a.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Animator) { a.clock = now }
}

// WithLogger sets the logger used for task lifecycle messages.
func WithLogger(l *log.Logger) Option {
	return func(a *Animator) { a.logger = l }
}

// New creates an Animator with no tasks. Elapsed time is measured from the
// moment New is called.
func New(opts ...Option) *Animator {
	a := &Animator{
		tasks: make(map[string]*Task),
		unit:  DefaultUnit,
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.rng == nil {
		a.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if a.logger == nil {
		a.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	a.start = a.clock()
	return a
}

// Sync reconciles tasks with the visible edges. Animated routes without a
// task get one with a fresh random phase; existing tasks keep their phase
// and pick up the new curve; tasks whose edge is gone are cancelled.
// Sync returns the added and removed edge ids, sorted.
func (a *Animator) Sync(routes []Route) (added, removed []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, nil
	}

	keep := make(map[string]struct{}, len(routes))
	for _, r := range routes {
		if !r.Edge.Animate {
			continue
		}
		id := r.Edge.ID()
		if _, dup := keep[id]; dup {
			continue
		}
		keep[id] = struct{}{}
		d := Duration(r.Edge.EffectiveSpeed(), a.unit)
		if t, ok := a.tasks[id]; ok {
			if t.Duration != d {
				t.Phase = time.Duration(float64(t.Phase) / float64(t.Duration) * float64(d))
				t.Duration = d
			}
			t.Curve = r.Curve
			t.Color = r.Edge.EffectiveColor()
			continue
		}
		a.tasks[id] = &Task{
			EdgeID:   id,
			Curve:    r.Curve,
			Color:    r.Edge.EffectiveColor(),
			Duration: d,
			Phase:    time.Duration(a.rng.Float64() * float64(d)),
		}
		added = append(added, id)
	}
	for id := range a.tasks {
		if _, ok := keep[id]; !ok {
			delete(a.tasks, id)
			removed = append(removed, id)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	if len(added)+len(removed) > 0 {
		a.logger.Debug("synced flow tasks", "added", len(added), "removed", len(removed), "running", len(a.tasks))
	}
	return added, removed
}

// Cancel removes the task for an edge id. It reports whether a task existed.
func (a *Animator) Cancel(edgeID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.tasks[edgeID]
	delete(a.tasks, edgeID)
	return ok
}

// Tasks returns a copy of every task, sorted by edge id.
func (a *Animator) Tasks() []Task {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Task, 0, len(a.tasks))
	for _, t := range a.tasks {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EdgeID < out[j].EdgeID })
	return out
}

// Len returns the number of scheduled tasks.
func (a *Animator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.tasks)
}

// Particles samples every task at the given elapsed time.
func (a *Animator) Particles(elapsed time.Duration) []Particle {
	tasks := a.Tasks()
	out := make([]Particle, len(tasks))
	for i, t := range tasks {
		out[i] = t.Sample(elapsed)
	}
	return out
}

// Elapsed returns the time since the animator was created.
func (a *Animator) Elapsed() time.Duration {
	return a.clock().Sub(a.start)
}

// Frame samples every task at the current elapsed time.
func (a *Animator) Frame() []Particle {
	return a.Particles(a.Elapsed())
}

// Start runs a tick loop on its own goroutine, delivering a frame to sink
// every interval until ctx is cancelled or Stop/Close is called. sink must
// not call Stop or Close.
func (a *Animator) Start(ctx context.Context, interval time.Duration, sink func([]Particle)) error {
	if interval <= 0 {
		interval = time.Second / 30
	}
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	if a.cancel != nil {
		a.mu.Unlock()
		return ErrRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	a.cancel, a.done = cancel, done
	a.mu.Unlock()

	go a.run(ctx, interval, sink, done)
	return nil
}

func (a *Animator) run(ctx context.Context, interval time.Duration, sink func([]Particle), done chan struct{}) {
	defer func() {
		a.mu.Lock()
		if a.done == done {
			a.cancel()
			a.cancel, a.done = nil, nil
		}
		a.mu.Unlock()
		close(done)
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sink(a.Frame())
		}
	}
}

// Stop ends the tick loop, if any, and waits for it to exit. Tasks are kept.
func (a *Animator) Stop() {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.cancel, a.done = nil, nil
	a.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
}

// Close stops the tick loop and cancels every task. Sync and Start do
// nothing after Close.
func (a *Animator) Close() {
	a.Stop()
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	clear(a.tasks)
}
