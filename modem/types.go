// SPDX-License-Identifier: GPL-3.0-or-later

// Package modem implements a transport-agnostic AT-speaking device driver:
// a vendor command table contract ([CommandSet]), a serialized AT-sequence
// driver ([Driver]) built on [github.com/aethernetio/aethergo/at], and a
// [stream.ByteIStream] ([Transport]) layered over a connection index the
// driver allocates. Grounded on
// original_source/aether/modems/{imodem_driver,modem_driver_types}.h and
// original_source/aether/transport/modems/{modem_transport,
// send_queue_poller,modem_tcp}.h. Concrete vendor command tables
// (SIM7070/BG95/Thingy91x) are data, not core — only [NewGenericCommandSet], a
// worked example over the AT/OK/ERROR vocabulary common to all of them,
// ships here.
package modem

import (
	"fmt"

	"github.com/aethernetio/aethergo/at"
)

// Protocol selects which network protocol a modem connection speaks.
type Protocol uint8

const (
	TCP Protocol = iota
	UDP
)

func (p Protocol) String() string {
	if p == UDP {
		return "UDP"
	}
	return "TCP"
}

// ConnectionIndex identifies one of a modem driver's open network
// connections. Indices are local to the driver and never exposed to the
// network, matching the original's kInvalidConnectionIndex/ConnectionIndex
// contract.
type ConnectionIndex int32

// InvalidConnectionIndex is returned in place of a real index when an
// operation that would normally allocate one fails.
const InvalidConnectionIndex ConnectionIndex = -1

// Step is one AT command plus the responses a [Driver] operation waits for
// before considering that command complete.
type Step struct {
	Command string
	Waits   []Wait
}

// Wait is a type alias for [at.Wait], so CommandSet implementations read
// without a qualifier.
type Wait = at.Wait

func (s Step) String() string {
	return fmt.Sprintf("Step(%q, %d waits)", s.Command, len(s.Waits))
}

// CommandSet is the vendor-specific contract the core AT engine depends on.
// A concrete modem backend supplies one; [NewGenericCommandSet] builds a
// deliberately generic worked example.
type CommandSet struct {
	// Init is the sequence run once at Driver.Start: echo off, extended
	// errors, SIM check, network registration, APN setup, context
	// activation, etc. Any stage failing fails the whole Start.
	Init []Step

	// OpenNetwork builds the AT sequence that opens a protocol connection
	// to host:port.
	OpenNetwork func(protocol Protocol, host string, port uint16) Step

	// CloseNetwork builds the AT sequence that closes an open connection.
	CloseNetwork func(idx ConnectionIndex) Step

	// WritePacket builds the AT sequence that sends data over an open
	// connection.
	WritePacket func(idx ConnectionIndex, data []byte) Step

	// ReadPacket builds the AT sequence that polls for and reads pending
	// bytes on an open connection.
	ReadPacket func(idx ConnectionIndex) Step

	// UnsolicitedRecvPrefix is the response prefix (e.g. "+CARECV",
	// "#XRECV") a modem that supports unsolicited receive notifications
	// uses to announce inbound data without polling. Empty if unsupported.
	UnsolicitedRecvPrefix string
}
