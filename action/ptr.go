// SPDX-License-Identifier: GPL-3.0-or-later

package action

// Ptr is a typed handle to a [Runner], used the way the original's
// ActionPtr<TAction> is: a reference callers hold onto an action without
// owning its lifetime. Go's garbage collector already gives every pointer
// shared-ownership semantics, so Ptr adds no reference counting of its own
// — it exists to carry the concrete action type through call sites that
// would otherwise need a type assertion back out of [Runner].
type Ptr[T Runner] struct {
	action T
}

// NewPtr wraps a.
func NewPtr[T Runner](a T) Ptr[T] {
	return Ptr[T]{action: a}
}

// Get returns the wrapped action.
func (p Ptr[T]) Get() T {
	return p.action
}

// Valid reports whether the handle wraps a non-nil action.
func (p Ptr[T]) Valid() bool {
	var zero T
	return any(p.action) != any(zero)
}

// OwnPtr is a [Ptr] whose owner is responsible for stopping the action when
// done with it. This is the explicit stand-in for the original's
// OwnActionPtr destructor ("calls Stop() on drop if the action is stoppable
// and not yet finished") — Go has no destructors, so callers must call
// [*OwnPtr.Release] themselves, typically via defer at the point the handle
// is created.
type OwnPtr[T Runner] struct {
	Ptr[T]
}

// NewOwnPtr wraps a as an owning handle.
func NewOwnPtr[T Runner](a T) OwnPtr[T] {
	return OwnPtr[T]{Ptr: NewPtr(a)}
}

// Release stops the wrapped action if it implements [Stoppable] and has not
// already reached a terminal state. Call exactly once; typically via defer.
func (p OwnPtr[T]) Release() {
	if !p.Valid() {
		return
	}
	a := p.Get()
	if a.Finished() {
		return
	}
	if s, ok := any(a).(Stoppable); ok {
		s.Stop()
	}
}
