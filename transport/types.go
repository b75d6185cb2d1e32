// SPDX-License-Identifier: GPL-3.0-or-later

// Package transport builds [stream.ByteIStream]s for a resolved or
// resolvable remote endpoint: an [Adapter] that turns a [UnifiedAddress]
// into one [TransportStreamBuilder] per resolved IP (grounded on
// original_source/aether/adapters/ethernet.cpp's EthernetAdapter /
// EthernetTransportBuilderAction), and a [Channel] abstraction — most
// notably [ModemChannel] — that instead binds to one address at
// construction time and builds its transport through a dedicated,
// deduplicated connect pipeline (grounded on
// original_source/aether/channels/modem_channel.{h,cpp} and
// original_source/aether/access_points/modem_access_point.{h,cpp}).
package transport

import (
	"fmt"
	"net/netip"
)

// Protocol selects which network protocol an address or channel speaks.
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

// AddressKind tags which variant a [UnifiedAddress] holds: a literal IP, or
// a name that still needs resolving (or that a modem channel will dial
// directly, bypassing host-side DNS).
type AddressKind uint8

const (
	AddressIP AddressKind = iota
	AddressName
)

// UnifiedAddress is the tagged address variant a caller asks an [Adapter]
// or a [ModemChannel] to build a transport for: either a literal
// IP+port+protocol, or a name+port+protocol still needing resolution.
// Grounded on the original's `std::variant<IpAddressPortProtocol,
// NameAddress>`; Go has no closed sum type, so the two variants are fields
// on one struct gated by Kind, following this module's established
// preference (see SPEC_FULL.md §3) for small concrete structs over
// interface hierarchies when the variant set is closed.
type UnifiedAddress struct {
	Kind     AddressKind
	IP       netip.Addr
	Name     string
	Port     uint16
	Protocol Protocol
}

// IPAddress builds a literal-address [UnifiedAddress].
func IPAddress(ip netip.Addr, port uint16, proto Protocol) UnifiedAddress {
	return UnifiedAddress{Kind: AddressIP, IP: ip, Port: port, Protocol: proto}
}

// NameAddress builds a name-address [UnifiedAddress], resolved later by an
// [Adapter] or dialed directly by a modem.
func NameAddress(name string, port uint16, proto Protocol) UnifiedAddress {
	return UnifiedAddress{Kind: AddressName, Name: name, Port: port, Protocol: proto}
}

// IsName reports whether this address still needs resolving.
func (u UnifiedAddress) IsName() bool { return u.Kind == AddressName }

// Host returns the dial target: the literal IP's string form, or the raw
// name, whichever variant is set.
func (u UnifiedAddress) Host() string {
	if u.Kind == AddressName {
		return u.Name
	}
	return u.IP.String()
}

func (u UnifiedAddress) String() string {
	return fmt.Sprintf("%s:%d/%s", u.Host(), u.Port, u.Protocol)
}

// Endpoint is a [UnifiedAddress] used as a dial target. An [Adapter]'s
// resolution step always yields literal-IP endpoints; a [ModemChannel]
// dials its address as given, so a name reaches the modem unresolved and
// is never forced through host-side DNS.
type Endpoint = UnifiedAddress

// ConnectionType distinguishes a full, ordered connection (TCP) from a
// connectionless, best-effort one (UDP).
type ConnectionType uint8

const (
	Full ConnectionType = iota
	Less
)

// Reliability reports whether a channel's underlying transport guarantees
// delivery on its own, independent of any safe-stream layer above it.
type Reliability uint8

const (
	Reliable Reliability = iota
	Unreliable
)

// propertiesFor derives [ConnectionType]/[Reliability] from a protocol, the
// same switch original_source/aether/channels/modem_channel.cpp's
// constructor runs.
func propertiesFor(proto Protocol) (ConnectionType, Reliability) {
	if proto == UDP {
		return Less, Unreliable
	}
	return Full, Reliable
}
