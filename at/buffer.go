// SPDX-License-Identifier: GPL-3.0-or-later

// Package at implements the AT-command line accumulator, prefix-routing
// dispatcher and request/response state machine that drive a modem's
// control channel. Grounded on
// original_source/aether/serial_ports/at_support/{at_buffer,at_dispatcher,
// at_listener,at_request}.h(.cpp) — the at_buffer.h header ships without a
// matching .cpp in the retrieval pack, so Buffer.Feed's line-splitting
// logic is grounded directly on the line-accumulation contract spec.md §4.7
// describes rather than on a concrete original implementation.
package at

import (
	"bytes"

	"github.com/aethernetio/aethergo/event"
)

// Iterator is a stable handle to a line in a [Buffer]: a monotonically
// increasing line ID rather than a slice index, so it stays valid across
// Erase calls that drop older lines. Comparable with < and ==.
type Iterator int64

// Buffer is a FIFO of complete, \r\n-stripped lines read from a serial
// port, plus whatever incomplete trailing fragment hasn't seen its
// terminator yet. The zero value is ready to use.
type Buffer struct {
	lines       [][]byte
	baseID      Iterator
	staging     []byte
	updateEvent event.Event[Iterator]
}

// NewBuffer returns an empty [*Buffer].
func NewBuffer() *Buffer {
	return &Buffer{}
}

// UpdateEvent emits the iterator of the earliest newly completed line
// whenever Feed completes one or more lines.
func (b *Buffer) UpdateEvent() *event.Event[Iterator] {
	return &b.updateEvent
}

// Feed appends data read from the serial port. Input bytes accumulate in
// an internal staging buffer; each time a "\r\n" is found, everything up to
// it becomes a new line and the staging buffer keeps whatever incomplete
// bytes remain after it.
func (b *Buffer) Feed(data []byte) {
	b.staging = append(b.staging, data...)
	firstNew := b.End()
	for {
		idx := bytes.Index(b.staging, []byte("\r\n"))
		if idx < 0 {
			break
		}
		line := append([]byte(nil), b.staging[:idx]...)
		b.lines = append(b.lines, line)
		b.staging = b.staging[idx+2:]
	}
	if b.End() != firstNew {
		b.updateEvent.Emit(firstNew)
	}
}

// Begin returns the iterator of the oldest line still in the buffer.
func (b *Buffer) Begin() Iterator { return b.baseID }

// End returns the iterator one past the newest line.
func (b *Buffer) End() Iterator { return b.baseID + Iterator(len(b.lines)) }

func (b *Buffer) line(it Iterator) []byte {
	return b.lines[int(it-b.baseID)]
}

// FindPattern returns the iterator of the first line at or after start that
// contains needle as a substring, or End() if none matches.
func (b *Buffer) FindPattern(needle string, start Iterator) Iterator {
	if start < b.baseID {
		start = b.baseID
	}
	end := b.End()
	n := []byte(needle)
	for it := start; it < end; it++ {
		if bytes.Contains(b.line(it), n) {
			return it
		}
	}
	return end
}

// GetCrate returns up to size bytes starting offset bytes into the line at
// start, continuing across subsequent line boundaries as a flat byte view
// (lines are concatenated without reinserting the stripped "\r\n").
func (b *Buffer) GetCrate(size, offset int, start Iterator) []byte {
	out := make([]byte, 0, size)
	end := b.End()
	for it, off := start, offset; it < end && len(out) < size; it++ {
		line := b.line(it)
		if off >= len(line) {
			off -= len(line)
			continue
		}
		avail := line[off:]
		if need := size - len(out); need < len(avail) {
			avail = avail[:need]
		}
		out = append(out, avail...)
		off = 0
	}
	return out
}

// Erase drops every line in [Begin(), pos); pos is clamped to [Begin(),
// End()]. Callers only ever erase a prefix — there is no general
// arbitrary-range erase, matching how [Dispatcher] is the only caller.
func (b *Buffer) Erase(pos Iterator) {
	if pos <= b.baseID {
		return
	}
	if end := b.End(); pos > end {
		pos = end
	}
	n := int(pos - b.baseID)
	b.lines = b.lines[n:]
	b.baseID = pos
}
