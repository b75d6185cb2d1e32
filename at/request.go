// SPDX-License-Identifier: GPL-3.0-or-later

package at

import (
	"time"

	"github.com/aethernetio/aethergo"
	"github.com/aethernetio/aethergo/action"
	"github.com/aethernetio/aethergo/event"
)

// Sender issues a single AT command and returns a notifier for its
// completion — normally a thin wrapper around a serial port write. Request
// depends on this instead of a concrete write-action type so it works the
// same whether the command is a literal string or a driver-specific
// command-builder closure.
type Sender func() action.StatusNotifier

// Wait describes one expected response a [Request] waits for after issuing
// its command: a prefix to match, a timeout relative to request start, and
// an optional handler that inspects the matched line. A nil Handler always
// succeeds. A Handler returning false fails the whole request, exactly like
// an "ERROR" response does.
type Wait struct {
	Expected string
	Timeout  time.Duration
	Handler  func(buf *Buffer, pos Iterator) bool
}

type requestState uint8

const (
	stateMakeRequest requestState = iota
	stateWaitResponse
	stateSuccess
	stateError
)

// Request issues one AT command and waits for zero or more named responses,
// each with its own timeout, failing immediately if an "ERROR" response (or
// any Wait whose Handler returns false) arrives first.
type Request struct {
	action.Action[Request, *Request]

	dispatcher *Dispatcher
	send       Sender

	started       bool
	startTime     aether.TimePoint
	state         requestState
	waits         []*waitObserver
	errObserver   *waitObserver
	responseCount int
	cmdSub        event.Subscription
}

type waitObserver struct {
	req      *Request
	wait     Wait
	observed bool
}

func (w *waitObserver) Observe(buf *Buffer, pos Iterator) {
	w.observed = true
	ok := true
	if w.wait.Handler != nil {
		ok = w.wait.Handler(buf, pos)
	}
	w.req.onObserved(ok)
}

// NewRequest constructs a Request that issues send and waits on waits. An
// implicit observer for the literal prefix "ERROR" is always registered
// alongside the caller's waits.
func NewRequest(ctx action.Context, dispatcher *Dispatcher, send Sender, waits []Wait) *Request {
	r := &Request{dispatcher: dispatcher, send: send}

	r.errObserver = &waitObserver{req: r, wait: Wait{
		Expected: "ERROR",
		Handler:  func(*Buffer, Iterator) bool { return false },
	}}
	dispatcher.Listen(r.errObserver.wait.Expected, r.errObserver)

	for _, w := range waits {
		wo := &waitObserver{req: r, wait: w}
		dispatcher.Listen(w.Expected, wo)
		r.waits = append(r.waits, wo)
	}

	r.Action = action.New[Request, *Request](ctx, r)
	return r
}

func (r *Request) onObserved(ok bool) {
	if r.state == stateSuccess || r.state == stateError {
		return
	}
	if !ok {
		r.state = stateError
	} else {
		r.responseCount++
	}
	r.Signal()
}

// Update implements the action's per-tick logic.
func (r *Request) Update(now aether.TimePoint) action.UpdateStatus {
	switch r.state {
	case stateMakeRequest:
		if !r.started {
			r.started = true
			r.startTime = now
			r.makeRequest()
			if r.state == stateError {
				r.cleanup()
				return action.Error()
			}
		}
		return action.Nothing()
	case stateWaitResponse:
		return r.waitResponses(now)
	case stateSuccess:
		return action.Result()
	case stateError:
		r.cleanup()
		return action.Error()
	}
	return action.Nothing()
}

func (r *Request) makeRequest() {
	notifier := r.send()
	if notifier == nil {
		r.state = stateError
		r.Signal()
		return
	}
	r.cmdSub = event.Combine(
		notifier.OnResult(func() {
			r.state = stateWaitResponse
			r.Signal()
		}),
		notifier.OnError(func() {
			r.state = stateError
			r.Signal()
		}),
	)
}

func (r *Request) waitResponses(now aether.TimePoint) action.UpdateStatus {
	if r.responseCount == len(r.waits) {
		r.state = stateSuccess
		r.cleanup()
		return action.Result()
	}

	var (
		haveTimeout bool
		minTimeout  time.Duration
	)
	for _, w := range r.waits {
		if w.observed {
			continue
		}
		if !haveTimeout || w.wait.Timeout < minTimeout {
			minTimeout = w.wait.Timeout
			haveTimeout = true
		}
	}
	if !haveTimeout {
		return action.Nothing()
	}

	deadline := r.startTime.Add(minTimeout)
	if !deadline.After(now) {
		r.state = stateError
		r.cleanup()
		return action.Error()
	}
	return action.Delay(deadline)
}

func (r *Request) cleanup() {
	r.cmdSub.Unsubscribe()
	r.dispatcher.Remove(r.errObserver)
	for _, w := range r.waits {
		r.dispatcher.Remove(w)
	}
}
