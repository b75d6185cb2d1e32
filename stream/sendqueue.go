// SPDX-License-Identifier: GPL-3.0-or-later

package stream

import (
	"github.com/aethernetio/aethergo/action"
	"github.com/aethernetio/aethergo/event"
)

// SendQueueManager serializes writes onto a single [Sender]: at most one
// [WriteAction] is ever in progress, later ones wait in FIFO order. Push may
// be called from a scheduler tick or from a Sender's own ReadyToWrite
// callback (itself only ever invoked from [socket.Socket.DispatchPending],
// i.e. still the single cooperative thread) — there is no second real
// thread to race against here, which is why, unlike the original's
// try-lock-and-defer-to-next-tick dance, a plain FIFO append is enough.
type SendQueueManager struct {
	ctx    action.Context
	sender Sender

	pending []*WriteAction
	current *WriteAction
	sub     event.Subscription
}

// NewSendQueueManager constructs a queue that sends through sender,
// constructing its WriteActions against ctx.
func NewSendQueueManager(ctx action.Context, sender Sender) *SendQueueManager {
	return &SendQueueManager{ctx: ctx, sender: sender}
}

// Push enqueues data for sending and returns the action representing this
// write. If nothing is currently in progress, the write starts immediately
// (on the next tick of its own Update).
func (m *SendQueueManager) Push(data []byte) *WriteAction {
	w := newWriteAction(m.ctx, m.sender, data)
	m.pending = append(m.pending, w)
	if m.current == nil {
		m.runNext()
	}
	return w
}

func (m *SendQueueManager) runNext() {
	if len(m.pending) == 0 {
		m.current = nil
		return
	}
	w := m.pending[0]
	m.pending = m.pending[1:]
	m.current = w
	m.sub = w.FinishedEvent().Subscribe(func(struct{}) { m.advance() })
}

func (m *SendQueueManager) advance() {
	m.sub.Unsubscribe()
	m.current = nil
	m.runNext()
}

// Retry re-signals whichever write is currently in progress, asking it to
// attempt another Send on the next tick. Call this from the underlying
// Sender's ReadyToWrite notification.
func (m *SendQueueManager) Retry() {
	if m.current != nil {
		m.current.Signal()
	}
}

// Stop cancels the in-progress write, if any, and drops every queued one
// without ever starting it — mirroring [pipeline.Queue.Stop]'s
// always-drop-pending, always-report-stopped behavior for the write it was
// actually running.
func (m *SendQueueManager) Stop() {
	for _, w := range m.pending {
		w.Stop()
	}
	m.pending = nil
	if m.current != nil {
		m.current.Stop()
	}
}
