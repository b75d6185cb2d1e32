// SPDX-License-Identifier: GPL-3.0-or-later

// Package socket wraps [net.Conn] in the non-blocking, callback-driven shape
// the rest of this module expects: Connect/Send/Disconnect never block the
// caller, and inbound data, writability and errors are reported through
// settable callbacks instead of being read synchronously.
//
// A [*Socket] itself never runs on its own goroutine. Dialing happens on a
// short-lived background goroutine (net.Dial has no non-blocking variant);
// once connected, readiness comes from a [poller.Poller], whose worker
// goroutine does the least possible work per the module's concurrency
// model — set a pending flag, wake the trigger — and leaves the actual
// callback dispatch (including draining reads to EAGAIN) to
// [*Socket.DispatchPending], which the owning action calls from its own
// Update, i.e. on the single cooperative scheduler thread.
package socket

import (
	"errors"
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/aethernetio/aethergo"
	"github.com/aethernetio/aethergo/action"
	"github.com/aethernetio/aethergo/errclass"
	"github.com/aethernetio/aethergo/poller"
)

// State is a Socket's connection lifecycle: None -> Connecting ->
// Connected | ConnectionFailed; Connected -> Disconnected via Disconnect or
// a fatal error.
type State uint8

const (
	StateNone State = iota
	StateConnecting
	StateConnected
	StateConnectionFailed
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateConnectionFailed:
		return "connection-failed"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Max per-datagram sizes the send/recv buffers are sized to, one per
// transport; TCP is a stream but framing above this layer still works in
// chunks this size, UDP is a hard datagram ceiling.
const (
	maxTCPChunk    = 1500
	maxUDPDatagram = 1200
)

// ErrNotConnected is returned by Send when called outside [StateConnected].
var ErrNotConnected = errors.New("socket: not connected")

// Socket is the non-blocking connection primitive every transport channel
// in this module is ultimately built on. The zero value is not usable; use
// [NewTCPSocket] or [NewUDPSocket].
type Socket struct {
	network     string
	maxChunk    int
	pl          poller.Poller
	trigger     *action.Trigger
	logger      aether.SLogger
	dial        func(network, address string) (net.Conn, error)

	mu    sync.Mutex
	conn  net.Conn
	state State

	connectGen      uint64
	connectPending  bool
	connectConn     net.Conn
	connectErr      error
	readablePending bool
	writablePending bool
	fatalPending    error

	onConnected  func(err error)
	onReadyWrite func()
	onRecvData   func(data []byte)
	onError      func(err error)
}

// NewTCPSocket constructs a [*Socket] that dials "tcp" addresses, polled for
// readiness through pl and waking trigger on every cross-thread event.
func NewTCPSocket(pl poller.Poller, trigger *action.Trigger, logger aether.SLogger) *Socket {
	return newSocket("tcp", maxTCPChunk, pl, trigger, logger)
}

// NewUDPSocket constructs a [*Socket] that dials "udp" addresses. Dialing a
// connected UDP socket (what [net.Dial] does for "udp") is how this module
// satisfies "UDP sockets connect by binding a remote address so that
// subsequent sends don't need one" — net.Dial already does exactly that.
func NewUDPSocket(pl poller.Poller, trigger *action.Trigger, logger aether.SLogger) *Socket {
	return newSocket("udp", maxUDPDatagram, pl, trigger, logger)
}

func newSocket(network string, maxChunk int, pl poller.Poller, trigger *action.Trigger, logger aether.SLogger) *Socket {
	if logger == nil {
		logger = aether.DefaultSLogger()
	}
	return &Socket{
		network:  network,
		maxChunk: maxChunk,
		pl:       pl,
		trigger:  trigger,
		logger:   logger,
		dial:     net.Dial,
		state:    StateNone,
	}
}

// SetReadyToWrite installs the callback fired after a [Send] that returned
// (0, nil) once the socket can accept more data.
func (s *Socket) SetReadyToWrite(cb func()) {
	s.mu.Lock()
	s.onReadyWrite = cb
	s.mu.Unlock()
}

// SetRecvData installs the callback fired with each chunk of inbound data,
// in arrival order. The slice is only valid for the duration of the call.
func (s *Socket) SetRecvData(cb func(data []byte)) {
	s.mu.Lock()
	s.onRecvData = cb
	s.mu.Unlock()
}

// SetError installs the callback fired exactly once, the first time the
// socket hits an unrecoverable error (including a remote close).
func (s *Socket) SetError(cb func(err error)) {
	s.mu.Lock()
	s.onError = cb
	s.mu.Unlock()
}

// State reports the current connection lifecycle state.
func (s *Socket) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connect dials addr without blocking the caller: the actual [net.Dial]
// runs on a background goroutine (Go has no non-blocking dial primitive),
// and connected is invoked exactly once, from [DispatchPending] on the
// caller's own thread, reporting the terminal of Connecting.
func (s *Socket) Connect(addr netip.AddrPort, connected func(err error)) {
	s.mu.Lock()
	s.state = StateConnecting
	s.onConnected = connected
	s.connectGen++
	gen := s.connectGen
	network, target := s.network, addr.String()
	s.mu.Unlock()

	s.logger.Info("socket connect start", "network", network, "addr", target)

	go func() {
		conn, err := s.dial(network, target)
		s.mu.Lock()
		if gen != s.connectGen {
			// Disconnect (or a new Connect) happened while dialing; this
			// result is stale, throw it away instead of resurrecting a
			// socket the caller already walked away from.
			s.mu.Unlock()
			if conn != nil {
				_ = conn.Close()
			}
			return
		}
		s.connectPending = true
		s.connectConn = conn
		s.connectErr = err
		s.mu.Unlock()
		s.signal()
	}()
}

// Send writes data without blocking. It returns (len(data), nil) on full
// acceptance, (n, nil) with n < len(data) (0 when nothing was taken) if the
// kernel send queue filled up (the caller should wait for ReadyToWrite and
// retry the rest), or a non-nil error if the connection has failed.
func (s *Socket) Send(data []byte) (int, error) {
	s.mu.Lock()
	conn, state := s.conn, s.state
	s.mu.Unlock()
	if state != StateConnected || conn == nil {
		return 0, ErrNotConnected
	}

	_ = conn.SetWriteDeadline(time.Now())
	n, err := conn.Write(data)
	if err == nil {
		return n, nil
	}
	if isTimeout(err) {
		return n, nil
	}
	s.logger.Debug("socket send failed", "errClass", errclass.New(err))
	s.handleFatal(err)
	return n, err
}

// Disconnect tears down the socket immediately: it is removed from the
// poller and closed. Further Send calls return [ErrNotConnected]. Safe to
// call more than once or while a Connect is still in flight.
func (s *Socket) Disconnect() {
	s.mu.Lock()
	conn := s.conn
	already := s.state == StateDisconnected
	s.state = StateDisconnected
	s.conn = nil
	s.connectGen++ // invalidate any in-flight dial
	s.mu.Unlock()

	if already || conn == nil {
		return
	}
	_ = s.pl.Remove(conn)
	_ = conn.Close()
}

// DispatchPending runs on the cooperative scheduler thread and turns
// whatever the poller or the background dial goroutine left pending into
// the user-visible callbacks: at most one Connect completion, one drain of
// inbound data (read until EAGAIN), one ReadyToWrite, in that order.
func (s *Socket) DispatchPending() {
	s.mu.Lock()
	if s.connectPending {
		s.connectPending = false
		conn, err := s.connectConn, s.connectErr
		s.connectConn = nil
		s.connectErr = nil
		s.mu.Unlock()
		s.finishConnect(conn, err)
		s.mu.Lock()
	}

	readable := s.readablePending
	s.readablePending = false
	writable := s.writablePending
	s.writablePending = false
	fatal := s.fatalPending
	s.fatalPending = nil
	conn := s.conn
	onRecv, onWrite := s.onRecvData, s.onReadyWrite
	s.mu.Unlock()

	if fatal != nil {
		s.handleFatal(fatal)
		return
	}
	if readable && conn != nil {
		s.drainRecv(conn, onRecv)
	}
	if writable && onWrite != nil {
		onWrite()
	}
}

func (s *Socket) finishConnect(conn net.Conn, err error) {
	s.mu.Lock()
	cb := s.onConnected
	if err != nil {
		s.state = StateConnectionFailed
	} else {
		s.conn = conn
		s.state = StateConnected
	}
	s.mu.Unlock()

	s.logger.Info("socket connect done", "err", err, "errClass", errclass.New(err))

	if err == nil {
		if pollErr := s.pl.Add(conn, poller.Read|poller.Write|poller.Error, s.onPollerEvent); pollErr != nil {
			s.handleFatal(pollErr)
			return
		}
	}
	if cb != nil {
		cb(err)
	}
}

// onPollerEvent runs on the poller's worker goroutine. Per the module's
// concurrency model it does the least possible work: record what happened
// and wake the scheduler; DispatchPending does everything else.
func (s *Socket) onPollerEvent(ready poller.EventMask) {
	s.mu.Lock()
	if ready.Has(poller.Error) {
		s.fatalPending = errSocketReported
	}
	if ready.Has(poller.Read) {
		s.readablePending = true
	}
	if ready.Has(poller.Write) {
		s.writablePending = true
	}
	s.mu.Unlock()
	s.signal()
}

var errSocketReported = errors.New("socket: poller reported error readiness")

// drainRecv reads until the connection would block, matching the
// edge-triggered contract: one readable edge may carry more than one
// read's worth of bytes, and nothing will tell us again unless we drain now.
func (s *Socket) drainRecv(conn net.Conn, onRecv func([]byte)) {
	buf := make([]byte, s.maxChunk)
	for {
		_ = conn.SetReadDeadline(time.Now())
		n, err := conn.Read(buf)
		if n > 0 && onRecv != nil {
			onRecv(buf[:n])
		}
		if err != nil {
			if isTimeout(err) {
				return
			}
			s.handleFatal(err)
			return
		}
	}
}

func (s *Socket) handleFatal(err error) {
	s.mu.Lock()
	if s.state == StateDisconnected {
		s.mu.Unlock()
		return
	}
	conn := s.conn
	s.state = StateDisconnected
	s.conn = nil
	onErr := s.onError
	s.mu.Unlock()

	if conn != nil {
		_ = s.pl.Remove(conn)
		_ = conn.Close()
	}
	s.logger.Debug("socket fatal error", "errClass", errclass.New(err))
	if onErr != nil {
		onErr(err)
	}
}

func (s *Socket) signal() {
	if s.trigger != nil {
		s.trigger.Trigger()
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
