// SPDX-License-Identifier: GPL-3.0-or-later

// Package poller multiplexes readiness across many network connections, so a
// single-threaded action scheduler can drive hundreds of sockets without
// blocking on any of them. The native backends (epoll, kqueue) wait on one
// goroutine; the portable backend runs one goroutine per registration.
//
// Every platform backend implements the same [Poller] contract: register a
// connection with an interest mask and a callback, and the poller invokes the
// callback from its own internal goroutine whenever the connection becomes
// ready. Registration is edge-triggered where the kernel supports it
// (epoll, kqueue); callers that care about level-triggered draining keep
// reading/writing until they see EAGAIN, then rely on the next edge to
// resume them, exactly like the socket package above this one does.
//
// [New] picks the best backend for the running platform: epoll on linux,
// kqueue on the BSDs and darwin, and a portable goroutine-based watcher
// everywhere else (including windows, see poll_other.go for why this module
// does not attempt real IOCP).
package poller

import "net"

// EventMask is a bitmask of readiness conditions a registration cares about.
type EventMask uint8

const (
	// Read is set when a connection has data to read, reached EOF, or (for a
	// listening or connecting socket) is ready to accept/finish connecting.
	Read EventMask = 1 << iota

	// Write is set when a connection can accept more data without blocking.
	Write

	// Error is set when a connection has failed; it is reported regardless
	// of whether Read or Write was requested.
	Error
)

// Has reports whether m includes any bit set in f.
func (m EventMask) Has(f EventMask) bool {
	return m&f != 0
}

// Callback is invoked by a [Poller] with the readiness conditions that
// triggered the call. It runs on the poller's internal goroutine and must
// not block.
type Callback func(ready EventMask)

// Poller multiplexes readiness notifications for registered connections.
//
// A Poller is safe for concurrent use by multiple goroutines. On the native
// backends callbacks are invoked serially from the poller's own goroutine,
// never concurrently with each other. The portable backend invokes each
// registration's callback from that registration's own goroutine, so
// callbacks for different connections can run concurrently.
type Poller interface {
	// Add registers conn for the conditions in mask, or updates an existing
	// registration's mask and callback if conn is already registered. conn
	// must implement [syscall.Conn] on platforms with a native backend
	// (everything this module builds a real epoll/kqueue backend for).
	Add(conn net.Conn, mask EventMask, cb Callback) error

	// Remove cancels conn's registration, if any, and blocks until the
	// poller guarantees no further callback for conn will run.
	Remove(conn net.Conn) error

	// Start begins dispatching readiness events in the background. Start
	// must be called once before any callback fires.
	Start() error

	// Stop unblocks the internal wait, joins the dispatch goroutine, and
	// releases the backend's kernel resources. Stop is idempotent-unsafe:
	// call it exactly once.
	Stop() error
}
