// Package atom provides a mutex-guarded box for one value of any type.
package atom

import "sync"

type Atom[T any] struct {
	mu sync.RWMutex
	v  T
}

func New[T any](v T) *Atom[T] {
	return &Atom[T]{v: v}
}

// Deref returns the held value.
func (at *Atom[T]) Deref() T {
	at.mu.RLock()
	defer at.mu.RUnlock()

	return at.v
}

// Swap applies fn to the held value under the lock and returns the result.
func (at *Atom[T]) Swap(fn func(T) T) T {
	at.mu.Lock()
	defer at.mu.Unlock()

	at.v = fn(at.v)
	return at.v
}

// Reset replaces the held value.
func (at *Atom[T]) Reset(v T) {
	at.mu.Lock()
	defer at.mu.Unlock()

	at.v = v
}
