package basic

import (
	"sync"
	"weak"
)

// Handle is a non-owning reference to a transport. Lock returns the transport
// while it is still alive. The zero Handle is always expired.
type Handle[T any] struct {
	lock func() (T, bool)
}

// Lock returns the referenced transport, or false once it has gone away.
func (h Handle[T]) Lock() (T, bool) {
	if h.lock == nil {
		var zero T
		return zero, false
	}
	return h.lock()
}

// Alive reports whether the referenced transport can still be locked.
func (h Handle[T]) Alive() bool {
	_, ok := h.Lock()
	return ok
}

// Weak returns a handle that expires once p is garbage collected.
func Weak[T any](p *T) Handle[*T] {
	wp := weak.Make(p)
	return Handle[*T]{lock: func() (*T, bool) {
		v := wp.Value()
		return v, v != nil
	}}
}

// Strong returns a handle that never expires. The transport's lifetime is
// managed by whoever created it.
func Strong[T any](v T) Handle[T] {
	return Handle[T]{lock: func() (T, bool) { return v, true }}
}

// Owner holds a transport on behalf of its caller and hands out handles to
// it. Release expires every handle at once.
type Owner[T any] struct {
	mu       sync.RWMutex
	v        T
	released bool
}

// NewOwner takes ownership of v.
func NewOwner[T any](v T) *Owner[T] {
	return &Owner[T]{v: v}
}

// Handle returns a handle that stays valid until Release is called.
func (o *Owner[T]) Handle() Handle[T] {
	return Handle[T]{lock: o.lock}
}

func (o *Owner[T]) lock() (T, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.released {
		var zero T
		return zero, false
	}
	return o.v, true
}

// Release drops the transport. Pending operations stop at their next step
// without calling back. Release is idempotent.
func (o *Owner[T]) Release() {
	o.mu.Lock()
	defer o.mu.Unlock()
	var zero T
	o.v = zero
	o.released = true
}

// Released reports whether Release has been called.
func (o *Owner[T]) Released() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.released
}
