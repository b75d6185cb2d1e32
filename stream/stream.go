// SPDX-License-Identifier: GPL-3.0-or-later

// Package stream turns the raw, non-blocking [socket.Socket] primitive into
// the byte-stream contract the rest of this module's transports are built
// on: an owning write action per call, an inbound-data event, and a
// StreamInfo event that reports link/writability changes instead of making
// every caller poll [socket.Socket.State] itself.
package stream

import (
	"github.com/aethernetio/aethergo/event"
)

// LinkState is the high-level connectivity state a [ByteIStream] reports
// through [StreamInfo], independent of the underlying socket's own
// connection lifecycle.
type LinkState uint8

const (
	Unlinked LinkState = iota
	Linked
	LinkError
)

// StreamInfo is the contract a [ByteIStream] publishes to its caller;
// changes emit on [ByteIStream.StreamUpdateEvent].
type StreamInfo struct {
	LinkState     LinkState
	IsWritable    bool
	IsReliable    bool
	MaxPacketSize uint32
	RecPacketSize uint32
}

// Sender is whatever a [SendQueueManager] pushes bytes through. A
// [*socket.Socket] satisfies this; so does any transport-specific
// non-blocking send path (e.g. a modem AT write), which is why this package
// depends on an interface rather than importing socket directly for this
// one purpose.
type Sender interface {
	// Send attempts a non-blocking send with the same contract as
	// [socket.Socket.Send]: (n, nil) with n the number of bytes accepted
	// (len(data) on full acceptance, fewer, down to 0, if the caller should
	// wait and retry the rest), (n, err) on failure.
	Send(data []byte) (int, error)
}

// ByteIStream is the byte-stream contract every transport channel exposes
// upward.
type ByteIStream interface {
	// Write submits data for sending and returns the owning action
	// representing this write: Result on full send, Error on transport
	// failure, Stop if the caller cancels it.
	Write(data []byte) *WriteAction

	// StreamUpdateEvent emits whenever StreamInfo changes.
	StreamUpdateEvent() *event.Event[StreamInfo]

	// OutDataEvent emits received application-level chunks in arrival
	// order.
	OutDataEvent() *event.Event[[]byte]

	// Restream tears down the underlying link; implementations respond by
	// transitioning to LinkError immediately. Establishing a fresh link is
	// left to the caller.
	Restream()
}
