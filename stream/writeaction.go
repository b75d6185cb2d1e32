// SPDX-License-Identifier: GPL-3.0-or-later

package stream

import (
	"github.com/aethernetio/aethergo"
	"github.com/aethernetio/aethergo/action"
)

// WriteAction is the owning handle a [ByteIStream.Write] call returns: it
// ticks until every byte handed to it has been accepted by the underlying
// [Sender], reporting Result on full send, Error if the sender fails, or
// Stop if the caller cancels it before that happens.
type WriteAction struct {
	action.Action[WriteAction, *WriteAction]

	sender    Sender
	remaining []byte
	stopped   bool
	failed    error
}

func newWriteAction(ctx action.Context, sender Sender, data []byte) *WriteAction {
	w := &WriteAction{sender: sender, remaining: data}
	w.Action = action.New[WriteAction, *WriteAction](ctx, w)
	return w
}

// Update makes one attempt per tick to push the remaining bytes through
// sender. A partial acceptance re-signals the action so the rest goes out
// on the next tick. A (0, nil) return from Sender.Send means the caller
// should wait for the next ReadyToWrite-driven retry rather than spin;
// [SendQueueManager.Retry] re-signals this action when that happens.
func (w *WriteAction) Update(aether.TimePoint) action.UpdateStatus {
	if w.stopped {
		return action.Stop()
	}
	if w.failed != nil {
		return action.Error()
	}
	if len(w.remaining) == 0 {
		return action.Result()
	}
	n, err := w.sender.Send(w.remaining)
	if err != nil {
		w.failed = err
		return action.Error()
	}
	w.remaining = w.remaining[n:]
	if len(w.remaining) == 0 {
		return action.Result()
	}
	if n > 0 {
		w.Signal()
	}
	return action.Nothing()
}

// Stop cancels the write; already-sent bytes are not un-sent.
func (w *WriteAction) Stop() {
	if w.stopped {
		return
	}
	w.stopped = true
	w.Signal()
}
