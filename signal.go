package canopy

import (
	"slices"
	"sync"
	"sync/atomic"
	"weak"
)

// listener is one connected callback. call returns false once the listener's
// weak owner has been collected.
type listener[A any] struct {
	call         func(A) bool
	disconnected atomic.Bool
}

// signalCore stores listeners copy-on-write: emitters load an immutable
// snapshot, writers replace it under mu. Safe for concurrent use.
type signalCore[A any] struct {
	mu        sync.Mutex
	listeners atomic.Pointer[[]*listener[A]]
}

func (c *signalCore[A]) connect(call func(A) bool) Connection {
	c.mu.Lock()
	defer c.mu.Unlock()
	l := &listener[A]{call: call}
	var next []*listener[A]
	if cur := c.listeners.Load(); cur != nil {
		next = slices.Clone(*cur)
	}
	next = append(next, l)
	c.listeners.Store(&next)
	return Connection{drop: func() { c.disconnect(l) }}
}

func (c *signalCore[A]) disconnect(l *listener[A]) {
	l.disconnected.Store(true)
	c.mu.Lock()
	defer c.mu.Unlock()
	cur := c.listeners.Load()
	if cur == nil {
		return
	}
	next := slices.DeleteFunc(slices.Clone(*cur), func(x *listener[A]) bool { return x == l })
	c.listeners.Store(&next)
}

// prune drops listeners that are disconnected or whose owner is gone.
func (c *signalCore[A]) prune(dead []*listener[A]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur := c.listeners.Load()
	if cur == nil {
		return
	}
	next := slices.DeleteFunc(slices.Clone(*cur), func(x *listener[A]) bool {
		return slices.Contains(dead, x)
	})
	c.listeners.Store(&next)
}

func (c *signalCore[A]) emit(a A) {
	cur := c.listeners.Load()
	if cur == nil {
		return
	}
	var dead []*listener[A]
	for _, l := range *cur {
		// A listener disconnected by an earlier listener in this emission
		// is still in the snapshot.
		if l.disconnected.Load() {
			continue
		}
		if !l.call(a) {
			l.disconnected.Store(true)
			dead = append(dead, l)
		}
	}
	if len(dead) > 0 {
		c.prune(dead)
	}
}

func (c *signalCore[A]) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur := c.listeners.Load(); cur != nil {
		for _, l := range *cur {
			l.disconnected.Store(true)
		}
	}
	c.listeners.Store(nil)
}

func (c *signalCore[A]) len() int {
	cur := c.listeners.Load()
	if cur == nil {
		return 0
	}
	return len(*cur)
}

// Connection identifies a connected listener.
type Connection struct {
	drop func()
}

// Disconnect removes the listener. Safe to call more than once and on the
// zero Connection.
func (c Connection) Disconnect() {
	if c.drop != nil {
		c.drop()
	}
}

// Signal0 is a signal without arguments. The zero value is ready to use.
type Signal0 struct {
	core signalCore[struct{}]
}

// Connect registers fn and returns a handle for disconnecting it.
func (s *Signal0) Connect(fn func()) Connection {
	return s.core.connect(func(struct{}) bool { fn(); return true })
}

// Disconnect removes the listener identified by c.
func (s *Signal0) Disconnect(c Connection) { c.Disconnect() }

// Emit invokes every live listener in connection order.
func (s *Signal0) Emit() { s.core.emit(struct{}{}) }

// Clear disconnects all listeners.
func (s *Signal0) Clear() { s.core.clear() }

// Len returns the number of connected listeners, including weak listeners
// whose owners have been collected but not yet pruned.
func (s *Signal0) Len() int { return s.core.len() }

// Signal is a signal carrying one value. The zero value is ready to use.
type Signal[T any] struct {
	core signalCore[T]
}

// Connect registers fn and returns a handle for disconnecting it.
func (s *Signal[T]) Connect(fn func(T)) Connection {
	return s.core.connect(func(v T) bool { fn(v); return true })
}

// Disconnect removes the listener identified by c.
func (s *Signal[T]) Disconnect(c Connection) { c.Disconnect() }

// Emit invokes every live listener in connection order.
func (s *Signal[T]) Emit(v T) { s.core.emit(v) }

// Clear disconnects all listeners.
func (s *Signal[T]) Clear() { s.core.clear() }

// Len returns the number of connected listeners.
func (s *Signal[T]) Len() int { return s.core.len() }

type pair[A, B any] struct {
	a A
	b B
}

// Signal2 is a signal carrying two values. The zero value is ready to use.
type Signal2[A, B any] struct {
	core signalCore[pair[A, B]]
}

// Connect registers fn and returns a handle for disconnecting it.
func (s *Signal2[A, B]) Connect(fn func(A, B)) Connection {
	return s.core.connect(func(p pair[A, B]) bool { fn(p.a, p.b); return true })
}

// Disconnect removes the listener identified by c.
func (s *Signal2[A, B]) Disconnect(c Connection) { c.Disconnect() }

// Emit invokes every live listener in connection order.
func (s *Signal2[A, B]) Emit(a A, b B) { s.core.emit(pair[A, B]{a, b}) }

// Clear disconnects all listeners.
func (s *Signal2[A, B]) Clear() { s.core.clear() }

// Len returns the number of connected listeners.
func (s *Signal2[A, B]) Len() int { return s.core.len() }

// ConnectOwned0 connects fn on behalf of owner without keeping owner alive.
// Once owner has been garbage collected the listener is skipped and pruned.
// fn must not capture owner itself.
func ConnectOwned0[O any](s *Signal0, owner *O, fn func(o *O)) Connection {
	wp := weak.Make(owner)
	return s.core.connect(func(struct{}) bool {
		o := wp.Value()
		if o == nil {
			return false
		}
		fn(o)
		return true
	})
}

// ConnectOwned connects fn on behalf of owner without keeping owner alive.
func ConnectOwned[O, T any](s *Signal[T], owner *O, fn func(o *O, v T)) Connection {
	wp := weak.Make(owner)
	return s.core.connect(func(v T) bool {
		o := wp.Value()
		if o == nil {
			return false
		}
		fn(o, v)
		return true
	})
}

// ConnectOwned2 connects fn on behalf of owner without keeping owner alive.
func ConnectOwned2[O, A, B any](s *Signal2[A, B], owner *O, fn func(o *O, a A, b B)) Connection {
	wp := weak.Make(owner)
	return s.core.connect(func(p pair[A, B]) bool {
		o := wp.Value()
		if o == nil {
			return false
		}
		fn(o, p.a, p.b)
		return true
	})
}

// Value is an observable value. Set emits Changed when the value differs
// from the current one.
type Value[T comparable] struct {
	mu      sync.RWMutex
	v       T
	Changed Signal[T]
}

// NewValue returns a Value holding v.
func NewValue[T comparable](v T) *Value[T] {
	return &Value[T]{v: v}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.v
}

// Set stores x and emits Changed if it differs from the current value.
func (v *Value[T]) Set(x T) {
	v.mu.Lock()
	if v.v == x {
		v.mu.Unlock()
		return
	}
	v.v = x
	v.mu.Unlock()
	v.Changed.Emit(x)
}
