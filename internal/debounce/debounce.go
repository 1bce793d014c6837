// Package debounce collapses bursts of triggers into single serialized runs.
package debounce

import (
	"context"
	"sync"
	"time"
)

// Func is the debounced work. It receives the arguments of the most recent trigger.
type Func[T any] func(ctx context.Context, arg T) error

// Debouncer runs fn once a quiet window has elapsed since the last Trigger.
// Runs never overlap: a trigger that arrives while fn is executing starts its
// window only after that run returns.
type Debouncer[T any] struct {
	window  time.Duration
	fn      Func[T]
	onError func(error)

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	idle    *sync.Cond
	timer   *time.Timer
	gen     uint64
	arg     T
	pending bool
	running bool
	rearm   bool
	closed  bool
	runs    int
}

// New creates a Debouncer. onError receives every error returned by fn and may be nil.
func New[T any](window time.Duration, fn Func[T], onError func(error)) *Debouncer[T] {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Debouncer[T]{
		window:  window,
		fn:      fn,
		onError: onError,
		ctx:     ctx,
		cancel:  cancel,
	}
	d.idle = sync.NewCond(&d.mu)
	return d
}

// Trigger schedules a run with arg, replacing the arguments of any earlier
// trigger that has not run yet.
func (d *Debouncer[T]) Trigger(arg T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	d.arg = arg
	d.pending = true
	if d.running {
		d.rearm = true
		return
	}
	d.armLocked()
}

func (d *Debouncer[T]) armLocked() {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.window, func() { d.fire(gen) })
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	// A newer trigger re-armed the timer after this one was already queued.
	if d.closed || gen != d.gen || !d.pending || d.running {
		d.mu.Unlock()
		return
	}
	d.execLocked()
	d.mu.Unlock()
}

// execLocked runs fn with d.mu released around the call.
func (d *Debouncer[T]) execLocked() {
	arg := d.arg
	d.pending = false
	d.running = true
	d.mu.Unlock()

	err := d.fn(d.ctx, arg)
	if err != nil && d.onError != nil {
		d.onError(err)
	}

	d.mu.Lock()
	d.running = false
	d.runs++
	if d.rearm && !d.closed {
		d.rearm = false
		d.armLocked()
	}
	d.idle.Broadcast()
}

// Flush runs a pending trigger immediately, waiting for any in-flight run first.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for d.running {
		d.idle.Wait()
	}
	if d.closed || !d.pending {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	d.rearm = false
	d.execLocked()
}

// Wait blocks until no run is pending or executing.
func (d *Debouncer[T]) Wait() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for (d.pending && !d.closed) || d.running {
		d.idle.Wait()
	}
}

// Runs returns how many times fn has completed.
func (d *Debouncer[T]) Runs() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.runs
}

// Close drops pending triggers, cancels the context passed to fn and waits
// for an in-flight run to return.
func (d *Debouncer[T]) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
	}
	d.cancel()
	for d.running {
		d.idle.Wait()
	}
	d.idle.Broadcast()
}
