// Package guard ties native resources to the scope of one codec call.
package guard

import (
	"sync"
	"sync/atomic"
)

// Scope releases everything registered with it, last acquired first, exactly
// once. The zero value is ready to use.
type Scope struct {
	mu       sync.Mutex
	releases []func()
	closed   bool
}

// Defer registers fn to run on Close. Registering on a closed scope runs fn
// immediately.
func (s *Scope) Defer(fn func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		fn()
		return
	}
	s.releases = append(s.releases, fn)
	s.mu.Unlock()
}

// Close runs the registered releases in reverse order. Further calls are
// no-ops.
func (s *Scope) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	releases := s.releases
	s.releases = nil
	s.mu.Unlock()

	for i := len(releases) - 1; i >= 0; i-- {
		releases[i]()
	}
}

// Handle owns one resource and its teardown.
type Handle[T any] struct {
	value    T
	release  func(T)
	once     sync.Once
	released atomic.Bool
}

// Acquire wraps value and registers its release with s.
func Acquire[T any](s *Scope, value T, release func(T)) *Handle[T] {
	h := &Handle[T]{value: value, release: release}
	s.Defer(h.Release)
	return h
}

// Get returns the wrapped resource.
func (h *Handle[T]) Get() T { return h.value }

// Release tears the resource down. It is safe to call more than once, so a
// handle can be released early and still be closed with its scope.
func (h *Handle[T]) Release() {
	h.once.Do(func() {
		if h.release != nil {
			h.release(h.value)
		}
		h.released.Store(true)
	})
}

// Released reports whether Release already ran to completion. It may be
// called from any goroutine.
func (h *Handle[T]) Released() bool { return h.released.Load() }
