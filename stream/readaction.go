// SPDX-License-Identifier: GPL-3.0-or-later

package stream

import (
	"sync"

	"github.com/aethernetio/aethergo"
	"github.com/aethernetio/aethergo/action"
	"github.com/aethernetio/aethergo/event"
)

// ReadAction buffers inbound chunks pushed from a Sender's recv callback
// and emits them as out_data_event on its own next Update, rather than
// inline from Push. A Sender's recv callback already runs on the
// cooperative scheduler thread by the time it reaches here (socket.Socket
// hops poller-thread events through DispatchPending first), but Push can
// still be called from deep inside another action's own Update — the extra
// tick keeps emission from happening recursively on that same call stack.
type ReadAction struct {
	action.Action[ReadAction, *ReadAction]

	mu      sync.Mutex
	pending [][]byte
	outData event.Event[[]byte]
	stopped bool
}

// NewReadAction constructs a ReadAction registered against ctx.
func NewReadAction(ctx action.Context) *ReadAction {
	r := &ReadAction{}
	r.Action = action.New[ReadAction, *ReadAction](ctx, r)
	return r
}

// Push buffers one chunk of inbound data for emission on the next tick. The
// slice is copied; the caller's buffer need not outlive the call.
func (r *ReadAction) Push(data []byte) {
	cp := append([]byte(nil), data...)
	r.mu.Lock()
	r.pending = append(r.pending, cp)
	r.mu.Unlock()
	r.Signal()
}

// OutDataEvent emits each buffered chunk, in arrival order, one tick after
// Push.
func (r *ReadAction) OutDataEvent() *event.Event[[]byte] {
	return &r.outData
}

func (r *ReadAction) Update(aether.TimePoint) action.UpdateStatus {
	r.mu.Lock()
	pending := r.pending
	r.pending = nil
	stopped := r.stopped
	r.mu.Unlock()

	for _, chunk := range pending {
		r.outData.Emit(chunk)
	}
	if stopped {
		return action.Stop()
	}
	return action.Nothing()
}

// Stop terminates the action; chunks pushed before Stop are still emitted
// on the final tick, before the action reports Stop.
func (r *ReadAction) Stop() {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()
	r.Signal()
}
