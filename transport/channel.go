// SPDX-License-Identifier: GPL-3.0-or-later

package transport

import (
	"github.com/aethernetio/aethergo/pipeline"
	"github.com/aethernetio/aethergo/stream"
)

// TransportBuilderAction is the action a [Channel.TransportBuilder] call
// returns: Result once the underlying transport is connected and ready,
// Error if it could not be built. Grounded on
// original_source/aether/transport/itransport_builder_action.h's
// TransportBuilderAction (transport_stream() accessor renamed Stream to
// match this module's stream.ByteIStream naming).
type TransportBuilderAction interface {
	pipeline.StageAction

	// Stream returns the built transport. Only valid once the action has
	// reported Result.
	Stream() stream.ByteIStream
}

// Channel is the abstract node between an access point (or adapter) and a
// transport: a named path from this device to one remote endpoint over one
// specific transport family, grounded on
// original_source/aether/channels/channel.h's Channel base (not present in
// the retrieval pack in full, reconstructed from its concrete subclasses
// [ModemChannel] and the ethernet adapter's internal builder).
type Channel interface {
	// MaxPacketSize is the largest single write this channel's transport
	// accepts without internal fragmentation.
	MaxPacketSize() uint32
	// RecPacketSize is the largest single inbound chunk this channel's
	// transport delivers through OutDataEvent.
	RecPacketSize() uint32
	// ConnectionType reports Full for a TCP-like channel, Less for UDP.
	ConnectionType() ConnectionType
	// Reliability reports whether the channel's own transport guarantees
	// delivery, independent of any safe-stream layer above it.
	Reliability() Reliability
	// TransportBuilder returns an action that builds (or reuses) this
	// channel's transport stream.
	TransportBuilder() TransportBuilderAction
}
