// Package roots tracks the workspace roots of a session.
package roots

import (
	"context"
	"path/filepath"
	"slices"
	"sync"

	"github.com/grovetools/launchsync/pkg/event"
)

// Root is a top-level workspace folder.
type Root struct {
	Path string `json:"path"`
}

// Key is the stable identity of a root: its cleaned absolute location.
func (r Root) Key() string {
	if abs, err := filepath.Abs(r.Path); err == nil {
		return abs
	}
	return filepath.Clean(r.Path)
}

// List is a mutable, observable list of workspace roots.
type List struct {
	mu      sync.RWMutex
	roots   []Root
	changed event.Emitter[[]Root]
}

// NewList creates a list seeded with paths. Duplicate keys are dropped.
func NewList(paths ...string) *List {
	l := &List{}
	l.roots = dedupe(paths)
	return l
}

// Roots returns a snapshot of the current roots.
func (l *List) Roots(ctx context.Context) ([]Root, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.roots), nil
}

// Set replaces the roots and notifies listeners when the key set changed.
func (l *List) Set(paths ...string) {
	next := dedupe(paths)
	l.mu.Lock()
	if sameKeys(l.roots, next) {
		l.mu.Unlock()
		return
	}
	l.roots = next
	l.mu.Unlock()
	l.changed.Fire(slices.Clone(next))
}

// Add appends a root if its key is not present yet.
func (l *List) Add(path string) {
	l.mu.RLock()
	paths := make([]string, 0, len(l.roots)+1)
	for _, r := range l.roots {
		paths = append(paths, r.Path)
	}
	l.mu.RUnlock()
	l.Set(append(paths, path)...)
}

// Remove drops the root with the same key as path.
func (l *List) Remove(path string) {
	key := Root{Path: path}.Key()
	l.mu.RLock()
	paths := make([]string, 0, len(l.roots))
	for _, r := range l.roots {
		if r.Key() != key {
			paths = append(paths, r.Path)
		}
	}
	l.mu.RUnlock()
	l.Set(paths...)
}

// OnDidChangeRoots registers fn for root list changes.
func (l *List) OnDidChangeRoots(fn func([]Root)) func() {
	return l.changed.On(fn)
}

func dedupe(paths []string) []Root {
	seen := make(map[string]bool, len(paths))
	out := make([]Root, 0, len(paths))
	for _, p := range paths {
		r := Root{Path: p}
		if seen[r.Key()] {
			continue
		}
		seen[r.Key()] = true
		out = append(out, r)
	}
	return out
}

func sameKeys(a, b []Root) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Key() != b[i].Key() {
			return false
		}
	}
	return true
}
