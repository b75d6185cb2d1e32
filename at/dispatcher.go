// SPDX-License-Identifier: GPL-3.0-or-later

package at

import (
	"github.com/aethernetio/aethergo/event"
)

// Observer is notified when a [Dispatcher] finds its registered command in
// the buffer. Implementations must be comparable (almost always a pointer
// receiver type), since [Dispatcher.Remove] identifies entries by value
// equality.
type Observer interface {
	Observe(buf *Buffer, pos Iterator)
}

type registration struct {
	command  string
	observer Observer
}

// Dispatcher owns a command-prefix -> [Observer] registry and scans the
// buffer for registered commands every time it updates. Only one observer
// notifies per buffer update: registrations are scanned in the order they
// were made, so the first registered command whose prefix is found in the
// newly arrived window wins. A caller that needs a longer, more-specific
// prefix to take priority over a shorter one that is itself a prefix of it
// must register the longer one first.
type Dispatcher struct {
	buffer *Buffer
	order  []registration
	sub    event.Subscription
}

// NewDispatcher returns a Dispatcher that watches buffer.
func NewDispatcher(buffer *Buffer) *Dispatcher {
	d := &Dispatcher{buffer: buffer}
	d.sub = buffer.UpdateEvent().Subscribe(d.bufferUpdate)
	return d
}

// Listen registers observer for command. If command was already registered,
// the new observer replaces the old one in place, keeping its original
// position in registration order (last registration wins for the handler,
// matching the original's documented swap-handler-atomically behavior, but
// dispatch priority still follows when the command was first registered).
func (d *Dispatcher) Listen(command string, observer Observer) {
	for i := range d.order {
		if d.order[i].command == command {
			d.order[i].observer = observer
			return
		}
	}
	d.order = append(d.order, registration{command: command, observer: observer})
}

// Remove removes every entry whose observer equals observer.
func (d *Dispatcher) Remove(observer Observer) {
	kept := d.order[:0]
	for _, r := range d.order {
		if r.observer != observer {
			kept = append(kept, r)
		}
	}
	d.order = kept
}

// bufferUpdate runs on every [Buffer] update event: scan registered
// commands in registration order for the first one found at or after pos,
// dispatch at most one observer, then discard everything strictly before
// pos regardless of whether a match was found.
func (d *Dispatcher) bufferUpdate(pos Iterator) {
	for _, r := range d.order {
		if res := d.buffer.FindPattern(r.command, pos); res != d.buffer.End() {
			r.observer.Observe(d.buffer, res)
			break
		}
	}
	d.buffer.Erase(pos)
}
