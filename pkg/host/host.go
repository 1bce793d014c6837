// Package host tracks the lifecycle state of the hosting application.
package host

import (
	"context"
	"sync"
)

// State is a lifecycle phase. Phases only move forward.
type State int

const (
	Starting State = iota
	Ready
	Closing
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Closing:
		return "closing"
	default:
		return "starting"
	}
}

// Lifecycle lets callers wait for the host to reach a phase.
type Lifecycle struct {
	mu      sync.Mutex
	state   State
	reached map[State]chan struct{}
}

// NewLifecycle returns a lifecycle in the Starting phase.
func NewLifecycle() *Lifecycle {
	l := &Lifecycle{reached: make(map[State]chan struct{})}
	for _, s := range []State{Starting, Ready, Closing} {
		l.reached[s] = make(chan struct{})
	}
	close(l.reached[Starting])
	return l
}

// State returns the current phase.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Reach advances to s, releasing everyone waiting on s or an earlier phase.
func (l *Lifecycle) Reach(s State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for phase := l.state + 1; phase <= s; phase++ {
		close(l.reached[phase])
	}
	if s > l.state {
		l.state = s
	}
}

// ReachedState blocks until the host reaches s or ctx is done.
func (l *Lifecycle) ReachedState(ctx context.Context, s State) error {
	l.mu.Lock()
	ch, ok := l.reached[s]
	l.mu.Unlock()
	if !ok {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
