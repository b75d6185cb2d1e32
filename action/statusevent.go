// SPDX-License-Identifier: GPL-3.0-or-later

package action

import "github.com/aethernetio/aethergo/event"

// Handlers groups the optional callbacks for an action's three terminal
// outcomes, mirroring the original's ActionEventStatus OnResult/OnError/
// OnStop chain without the C++ fluent-builder machinery: any combination of
// the three may be nil.
type Handlers[PT any] struct {
	OnResult func(PT)
	OnError  func(PT)
	OnStop   func(PT)
}

// Subscribe registers every non-nil handler in h against the matching event
// on a, and returns one [event.Subscription] that tears all of them down
// together.
func Subscribe[T any, PT Updater[T]](a *Action[T, PT], h Handlers[PT]) event.Subscription {
	var subs []event.Subscription
	if h.OnResult != nil {
		subs = append(subs, a.ResultEvent().Subscribe(h.OnResult))
	}
	if h.OnError != nil {
		subs = append(subs, a.ErrorEvent().Subscribe(h.OnError))
	}
	if h.OnStop != nil {
		subs = append(subs, a.StopEvent().Subscribe(h.OnStop))
	}
	return event.Combine(subs...)
}
