// SPDX-License-Identifier: GPL-3.0-or-later

package action

import (
	"sync"
	"time"

	"github.com/aethernetio/aethergo"
)

// triggerState is the shared signal behind one or more [Trigger] values.
// Indirecting through a pointer is what makes [Merge] possible: after a
// merge, both triggers point at the same state, so signalling either
// wakes waiters on both.
type triggerState struct {
	mu  sync.Mutex
	ch  chan struct{}
	set bool
}

func newTriggerState() *triggerState {
	return &triggerState{ch: make(chan struct{})}
}

// Trigger is a shared wakeup signal used to unblock a host loop that would
// otherwise sleep until the next scheduled delay. Setting it wakes any
// goroutine currently waiting in [*Trigger.Wait] or [*Trigger.WaitUntil].
//
// The zero value is not usable; construct with [NewTrigger].
type Trigger struct {
	state *triggerState
}

// NewTrigger returns a new, unsignalled [*Trigger].
func NewTrigger() *Trigger {
	return &Trigger{state: newTriggerState()}
}

// Trigger signals the trigger, waking any current or future waiter until
// the signal is consumed by [*Trigger.Wait], [*Trigger.WaitUntil], or
// [*Trigger.IsTriggered].
func (t *Trigger) Trigger() {
	s := t.state
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		s.set = true
		close(s.ch)
	}
}

// Wait blocks until the trigger is signalled, then consumes the signal.
func (t *Trigger) Wait() {
	s := t.state
	s.mu.Lock()
	ch := s.ch
	s.mu.Unlock()
	<-ch
	t.consume()
}

// WaitUntil blocks until the trigger is signalled or deadline passes,
// whichever comes first. It reports whether the trigger was signalled.
func (t *Trigger) WaitUntil(deadline aether.TimePoint) bool {
	s := t.state
	s.mu.Lock()
	ch := s.ch
	s.mu.Unlock()

	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()
	select {
	case <-ch:
		t.consume()
		return true
	case <-timer.C:
		return t.IsTriggered()
	}
}

// IsTriggered reports whether the trigger is currently signalled, consuming
// the signal if so.
func (t *Trigger) IsTriggered() bool {
	return t.consume()
}

// consume clears a pending signal and reports whether one was pending.
func (t *Trigger) consume() bool {
	s := t.state
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return false
	}
	s.set = false
	s.ch = make(chan struct{})
	return true
}

// Merge unifies left and right so that signalling either one wakes waiters
// on both. After Merge, left and right are interchangeable.
func Merge(left, right *Trigger) {
	left.state = right.state
}
