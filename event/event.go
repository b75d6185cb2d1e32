// SPDX-License-Identifier: GPL-3.0-or-later

// Package event provides a minimal single-producer/multi-consumer dispatch
// primitive used throughout this module wherever a component needs to
// notify observers of a state change without depending on their concrete
// types: stream info updates, action lifecycle transitions, poller-adjacent
// connection events, and the AT dispatcher's line-arrival notifications.
package event

import "sync"

// Event dispatches values of type T to every subscribed callback. The zero
// value is ready to use.
//
// Subscribers are called synchronously, in the order returned by
// iterating a Go map (i.e. unspecified) — callers that need ordering
// guarantees between two specific subscribers should compose them into one
// callback rather than relying on subscription order.
type Event[T any] struct {
	mu   sync.Mutex
	subs map[uint64]func(T)
	next uint64
}

// Subscription is a handle returned by [*Event.Subscribe]. Calling
// Unsubscribe removes the associated callback; it is the explicit
// equivalent of a move-only RAII token that unsubscribes on drop, since Go
// has no destructors to run that implicitly.
//
// Unsubscribe is safe to call from within the callback itself and is a
// no-op if called more than once or on the zero value.
type Subscription struct {
	unsubscribe func()
}

// Unsubscribe removes the subscription, if it has not already been removed.
func (s Subscription) Unsubscribe() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// Subscribe registers cb to be called on every future [*Event.Emit]. cb may
// be a plain function or a bound method value (e.g. obj.HandleUpdate),
// which is how most observers in this module register: the dispatcher holds
// no reference to obj's type, only to the bound call.
func (e *Event[T]) Subscribe(cb func(T)) Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.subs == nil {
		e.subs = make(map[uint64]func(T))
	}
	id := e.next
	e.next++
	e.subs[id] = cb
	return Subscription{unsubscribe: func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.subs, id)
	}}
}

// Emit calls every currently-subscribed callback with v. Callbacks
// subscribed or unsubscribed from within a callback take effect on the next
// Emit, since Emit snapshots the subscriber list before calling any of them.
func (e *Event[T]) Emit(v T) {
	e.mu.Lock()
	subs := make([]func(T), 0, len(e.subs))
	for _, cb := range e.subs {
		subs = append(subs, cb)
	}
	e.mu.Unlock()
	for _, cb := range subs {
		cb(v)
	}
}

// Len reports the number of currently-active subscriptions.
func (e *Event[T]) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subs)
}

// Combine merges several subscriptions into one: calling Unsubscribe on the
// result unsubscribes all of them. Used to register a group of related
// handlers (e.g. an action's result/error/stop callbacks) and tear them down
// together.
func Combine(subs ...Subscription) Subscription {
	return Subscription{unsubscribe: func() {
		for _, s := range subs {
			s.Unsubscribe()
		}
	}}
}
