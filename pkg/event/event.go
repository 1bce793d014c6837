// Package event provides a typed observer list with explicit unsubscribe.
package event

import "sync"

// Emitter fans a value out to registered listeners and channel subscribers.
// The zero value is ready to use.
type Emitter[T any] struct {
	mu          sync.Mutex
	nextID      uint64
	listeners   []listener[T]
	subscribers map[chan T]struct{}
}

type listener[T any] struct {
	id uint64
	fn func(T)
}

// On registers fn and returns a function that removes it. Calling the
// returned function more than once is a no-op.
func (e *Emitter[T]) On(fn func(T)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	id := e.nextID
	e.listeners = append(e.listeners, listener[T]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { e.remove(id) })
	}
}

func (e *Emitter[T]) remove(id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, l := range e.listeners {
		if l.id == id {
			e.listeners = append(e.listeners[:i:i], e.listeners[i+1:]...)
			return
		}
	}
}

// Fire calls every listener in registration order, outside of the emitter
// lock, then offers the value to channel subscribers without blocking.
func (e *Emitter[T]) Fire(v T) {
	e.mu.Lock()
	snapshot := make([]listener[T], len(e.listeners))
	copy(snapshot, e.listeners)
	for ch := range e.subscribers {
		select {
		case ch <- v:
		default:
			// Slow subscribers miss values rather than stalling the sender
		}
	}
	e.mu.Unlock()

	for _, l := range snapshot {
		l.fn(v)
	}
}

// Subscribe creates a buffered channel that receives every fired value.
func (e *Emitter[T]) Subscribe(buffer int) chan T {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.subscribers == nil {
		e.subscribers = make(map[chan T]struct{})
	}
	ch := make(chan T, buffer)
	e.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (e *Emitter[T]) Unsubscribe(ch chan T) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.subscribers[ch]; !ok {
		return
	}
	delete(e.subscribers, ch)
	close(ch)
}

// Len returns the number of registered listeners.
func (e *Emitter[T]) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners)
}

// Dispose drops every listener and closes every subscriber channel.
func (e *Emitter[T]) Dispose() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = nil
	for ch := range e.subscribers {
		close(ch)
	}
	e.subscribers = nil
}
