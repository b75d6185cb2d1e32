// SPDX-License-Identifier: GPL-3.0-or-later

package action

import (
	"github.com/aethernetio/aethergo"
	"github.com/aethernetio/aethergo/event"
)

// Runner is the interface a [Processor] drives: every tick it calls Tick on
// every registered action and removes those reporting Finished.
type Runner interface {
	// Tick advances the action by one step. It returns the time the
	// scheduler should next consider ticking this action again (equal to
	// now unless the action reported [Delay]).
	Tick(now aether.TimePoint) aether.TimePoint

	// Finished reports whether the action has reached a terminal state.
	Finished() bool
}

// Stoppable is implemented by actions that support explicit cancellation.
type Stoppable interface {
	Stop()
}

// Context is what a concrete action needs from its owning [Processor] to
// participate in scheduling: a place to register itself, and the shared
// wakeup signal to call when it has new state ready.
type Context struct {
	Registry *Registry
	Trigger  *Trigger
}

// Updater is implemented by PT (almost always *T) and is the only method a
// concrete action must provide: the actual step logic. [Action] handles
// everything else — terminal-state bookkeeping, event dispatch, trigger
// signalling.
//
// The two-type-parameter shape (T the action struct, PT its pointer type
// constrained to implement Updater) is how this module expresses what the
// original's CRTP base (`class Action : public IAction` with `T* self =
// static_cast<T*>(this)`) does in Go: PT stands in for "the concrete type
// embedding this Action", recovered through the pointer-method-set
// constraint instead of a downcast.
type Updater[T any] interface {
	*T
	Update(now aether.TimePoint) UpdateStatus
}

// Action is the common base every concrete action embeds. It is generic
// over the embedding type so that its result/error/stop events hand
// subscribers the concrete action, not just an opaque handle — mirroring
// the original's `Event<void(T&)>` callbacks.
//
// A concrete action looks like:
//
//	type Dial struct {
//	    action.Action[Dial, *Dial]
//	    // ...
//	}
//
//	func NewDial(ctx action.Context) *Dial {
//	    d := &Dial{}
//	    d.Action = action.New[Dial, *Dial](ctx, d)
//	    return d
//	}
//
//	func (d *Dial) Update(now aether.TimePoint) action.UpdateStatus {
//	    // ...
//	}
type Action[T any, PT Updater[T]] struct {
	trigger *Trigger
	self    PT

	resultEvent   event.Event[PT]
	errorEvent    event.Event[PT]
	stopEvent     event.Event[PT]
	finishedEvent event.Event[struct{}]

	finished bool
}

// New constructs an [Action] base for self, registers self with
// ctx.Registry, and immediately signals ctx.Trigger (a freshly constructed
// action always has at least one pending tick).
func New[T any, PT Updater[T]](ctx Context, self PT) Action[T, PT] {
	a := Action[T, PT]{trigger: ctx.Trigger, self: self}
	if ctx.Registry != nil {
		ctx.Registry.PushBack(self)
	}
	a.signal()
	return a
}

// Tick implements [Runner]. It calls self.Update, dispatches the
// corresponding event on a terminal result, and marks the action finished.
func (a *Action[T, PT]) Tick(now aether.TimePoint) aether.TimePoint {
	if a.finished {
		return now
	}
	status := a.self.Update(now)
	switch status.Kind {
	case KindResult:
		a.resultEvent.Emit(a.self)
		a.finish()
	case KindError:
		a.errorEvent.Emit(a.self)
		a.finish()
	case KindStop:
		a.stopEvent.Emit(a.self)
		a.finish()
	case KindDelay:
		return status.DelayTo
	}
	return now
}

// Finished implements [Runner].
func (a *Action[T, PT]) Finished() bool {
	return a.finished
}

// ResultEvent returns the subscribable result event.
func (a *Action[T, PT]) ResultEvent() *event.Event[PT] {
	return &a.resultEvent
}

// ErrorEvent returns the subscribable error event.
func (a *Action[T, PT]) ErrorEvent() *event.Event[PT] {
	return &a.errorEvent
}

// StopEvent returns the subscribable stop event.
func (a *Action[T, PT]) StopEvent() *event.Event[PT] {
	return &a.stopEvent
}

// FinishedEvent returns the event fired exactly once, after any terminal
// transition, regardless of which one.
func (a *Action[T, PT]) FinishedEvent() *event.Event[struct{}] {
	return &a.finishedEvent
}

// OnResult, OnError and OnStop implement [StatusNotifier]: a view of the
// terminal events that drops the concrete action argument. Code that only
// cares about which terminal event fired, not which concrete action type
// produced it (e.g. a [pipeline] sequencing stages of differing types),
// subscribes through these instead of ResultEvent/ErrorEvent/StopEvent.
func (a *Action[T, PT]) OnResult(cb func()) event.Subscription {
	return a.resultEvent.Subscribe(func(PT) { cb() })
}

func (a *Action[T, PT]) OnError(cb func()) event.Subscription {
	return a.errorEvent.Subscribe(func(PT) { cb() })
}

func (a *Action[T, PT]) OnStop(cb func()) event.Subscription {
	return a.stopEvent.Subscribe(func(PT) { cb() })
}

// StatusNotifier is the type-erased half of an [Action]'s event surface:
// enough for a caller that only sequences actions by their terminal outcome
// (not their concrete type) to subscribe. Every Action[T, PT] satisfies this
// automatically through the OnResult/OnError/OnStop methods above, and so
// does every concrete action embedding one.
type StatusNotifier interface {
	OnResult(cb func()) event.Subscription
	OnError(cb func()) event.Subscription
	OnStop(cb func()) event.Subscription
}

// signal wakes the owning processor's trigger, used both at construction
// and whenever the concrete action wants to be re-ticked sooner than its
// last reported delay (e.g. new data arrived on a socket).
func (a *Action[T, PT]) signal() {
	if a.trigger != nil {
		a.trigger.Trigger()
	}
}

// Signal is the public entry point concrete actions call to ask for an
// earlier re-tick than their last [Delay] requested.
func (a *Action[T, PT]) Signal() {
	a.signal()
}

func (a *Action[T, PT]) finish() {
	a.signal()
	a.finished = true
	a.finishedEvent.Emit(struct{}{})
}
