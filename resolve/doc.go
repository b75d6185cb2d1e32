// SPDX-License-Identifier: GPL-3.0-or-later

// Package resolve provides name-to-address resolution for transport building.
//
// # Core Abstraction
//
// The transport layer only ever asks a [Resolver] to turn a name into a list
// of addresses:
//
//	type Resolver interface {
//		Resolve(ctx context.Context, name string) ([]netip.Addr, error)
//	}
//
// [PlainResolver] wraps the system resolver. [DoUDPResolver], [DoTCPResolver],
// [DoTLSResolver] and [DoHResolver] speak DNS-over-UDP/TCP/TLS/HTTPS
// respectively, built from a lower-level set of composable primitives.
//
// # Composable primitives
//
// The DNS-over-X resolvers are themselves built from a single interface:
//
//	type Func[A, B any] interface {
//		Call(ctx context.Context, input A) (B, error)
//	}
//
// Each Func represents an atomic network operation with exactly one success
// mode and one failure mode. This enables type-safe composition via
// [Compose2] through [Compose8], where the compiler verifies that outputs
// match inputs across pipeline stages.
//
// Connection establishment:
//   - [ConnectFunc]: dials TCP or UDP endpoints
//   - [TLSHandshakeFunc]: performs a TLS handshake over an existing connection
//   - [ObserveConnFunc]: observes a connection for structured I/O logging
//   - [CancelWatchFunc]: closes a connection on context cancellation
//
// HTTP (used only by [DoHResolver]):
//   - [HTTPConn]: wraps a connection with an HTTP transport, performs round
//     trips with structured logging and transparent body observation
//
// DNS exchange (each type owns the connection it wraps):
//   - [DNSOverUDPConn], [DNSOverTCPConn], [DNSOverTLSConn], [DNSOverHTTPSConn]
//   - [DNSExchangeLogContext]: shared structured logging for DNS exchanges
//
// # Connection Lifecycle
//
// Dial operations ([ConnectFunc], [TLSHandshakeFunc]) create connections and
// transfer ownership to the next stage on success; on error they close the
// connection. Wrapper types ([HTTPConn], [DNSOverTLSConn], etc.) own their
// underlying connection — callers must Close() them when done.
//
// # Observability
//
// All primitives support structured logging via [SLogger] (compatible with
// [log/slog]); logging is a no-op until a logger is supplied. Error
// classification is configurable via [ErrClassifier] and defaults to the
// errclass package's platform-aware classifier.
//
// Span events (*Start/*Done pairs) record operation lifecycle, timing, and
// success/failure. Wire observations (dnsQuery/dnsResponse) capture
// protocol-level messages. I/O-level events (read, write, deadline changes)
// log at [slog.LevelDebug]; everything else logs at [slog.LevelInfo]. Use
// [NewSpanID] to generate a UUIDv7 identifier per operation and attach it to
// the logger so all entries from one resolution correlate.
//
// # Timeout and Context Philosophy
//
// This package is context-transparent: operations never modify the context
// they receive. The caller controls timeouts externally via
// [context.WithTimeout] or [context.WithDeadline]. [CancelWatchFunc] binds
// the context lifecycle to the connection so in-progress I/O unblocks
// promptly when the context is done; always include it when composing
// connection pipelines.
package resolve
