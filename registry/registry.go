// Package registry provides the ordered, owned registry the orchestrator keeps
// its modules in.
package registry

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"
)

// Static errors for registry package
var (
	ErrAlreadyRegistered = errors.New("already registered")
	ErrNotRegistered     = errors.New("not registered")
	ErrEmptyID           = errors.New("registry id is empty")
)

// Entry is a registered value together with its registration metadata.
type Entry[T any] struct {
	ID           string
	Value        T
	RegisteredAt time.Time
}

// Registry stores values by id and remembers registration order, which the
// scheduler uses as its tie-breaker.
type Registry[T any] struct {
	mu      sync.RWMutex
	entries map[string]*Entry[T]
	order   []string
	now     func() time.Time
}

// New creates an empty registry.
func New[T any]() *Registry[T] {
	return &Registry[T]{
		entries: make(map[string]*Entry[T]),
		now:     time.Now,
	}
}

// Add registers v under id.
func (r *Registry[T]) Add(id string, v T) error {
	if id == "" {
		return ErrEmptyID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[id]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, id)
	}
	r.entries[id] = &Entry[T]{ID: id, Value: v, RegisteredAt: r.now()}
	r.order = append(r.order, id)
	return nil
}

// Get returns the value registered under id.
func (r *Registry[T]) Get(id string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		var zero T
		return zero, false
	}
	return e.Value, true
}

// Entry returns a copy of the full entry for id.
func (r *Registry[T]) Entry(id string) (Entry[T], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return Entry[T]{}, false
	}
	return *e, true
}

// Has reports whether id is registered.
func (r *Registry[T]) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[id]
	return ok
}

// Remove deletes id. Removing an unknown id returns ErrNotRegistered.
func (r *Registry[T]) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, id)
	}
	delete(r.entries, id)
	r.order = slices.DeleteFunc(r.order, func(s string) bool { return s == id })
	return nil
}

// IDs returns registered ids in registration order.
func (r *Registry[T]) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Len returns the number of registered entries.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Each calls fn for every entry in registration order. fn must not modify
// the registry.
func (r *Registry[T]) Each(fn func(id string, v T)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		fn(id, r.entries[id].Value)
	}
}
