// SPDX-License-Identifier: GPL-3.0-or-later

package resolve

import (
	"context"
	"net"
	"time"

	"github.com/bassosimone/safeconn"
	"github.com/miekg/dns"
)

// DNSOverUDPConn wraps a UDP connection for DNS-over-UDP exchanges.
//
// This type owns the underlying connection. The caller is responsible for
// calling Close() when done.
//
// All fields are safe to modify after construction but before first use of
// Exchange(). Fields must not be mutated concurrently with Exchange().
//
// Construct via [*DNSOverUDPConnFunc].
type DNSOverUDPConn struct {
	// conn is the owned UDP connection.
	conn net.Conn

	// ErrClassifier classifies errors for structured logging.
	ErrClassifier ErrClassifier

	// Logger is the SLogger to use.
	Logger SLogger

	// TimeNow is the function to get the current time.
	TimeNow func() time.Time
}

// Close closes the underlying UDP connection.
func (c *DNSOverUDPConn) Close() error {
	return c.conn.Close()
}

// Conn returns the underlying net.Conn for logging purposes.
func (c *DNSOverUDPConn) Conn() net.Conn {
	return c.conn
}

// Exchange performs a DNS exchange over UDP.
// This method may be called multiple times on the same connection.
func (c *DNSOverUDPConn) Exchange(ctx context.Context, query *dns.Msg) (*dns.Msg, error) {
	conn := c.conn

	t0 := c.TimeNow()
	deadline, _ := ctx.Deadline()
	lc := &DNSExchangeLogContext{
		ErrClassifier:  c.ErrClassifier,
		LocalAddr:      safeconn.LocalAddr(conn),
		Logger:         c.Logger,
		Protocol:       safeconn.Network(conn),
		RemoteAddr:     safeconn.RemoteAddr(conn),
		ServerProtocol: "udp",
		TimeNow:        c.TimeNow,
	}
	lc.LogStart(t0, deadline)

	resp, err := c.exchange(ctx, conn, query, t0, lc)
	lc.LogDone(t0, deadline, err)
	return resp, err
}

func (c *DNSOverUDPConn) exchange(
	ctx context.Context, conn net.Conn, query *dns.Msg, t0 time.Time, lc *DNSExchangeLogContext) (*dns.Msg, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	raw, err := query.Pack()
	if err != nil {
		return nil, err
	}
	var rqr []byte
	lc.MakeQueryObserver(t0, &rqr)(raw)
	if _, err := conn.Write(raw); err != nil {
		return nil, err
	}

	buf := make([]byte, maxUDPMessageSize)
	n, err := conn.Read(buf)
	if err != nil {
		return nil, err
	}
	lc.MakeResponseObserver(t0, &rqr)(buf[:n])

	resp := new(dns.Msg)
	if err := resp.Unpack(buf[:n]); err != nil {
		return nil, err
	}
	return resp, nil
}

// DNSOverUDPConnFunc wraps a net.Conn into a [*DNSOverUDPConn].
//
// This is a [Func] that can be composed into pipelines.
//
// All fields are safe to modify after construction but before first use.
// Fields must not be mutated concurrently with calls to [Call].
type DNSOverUDPConnFunc struct {
	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewDNSOverUDPConnFunc] from [Config.ErrClassifier].
	ErrClassifier ErrClassifier

	// Logger is the [SLogger] to use (configurable for testing or custom logging).
	//
	// Set by [NewDNSOverUDPConnFunc] to the user-provided logger.
	Logger SLogger

	// TimeNow is the function to get the current time (configurable for testing).
	//
	// Set by [NewDNSOverUDPConnFunc] from [Config.TimeNow].
	TimeNow func() time.Time
}

// NewDNSOverUDPConnFunc returns a new [*DNSOverUDPConnFunc].
func NewDNSOverUDPConnFunc(cfg *Config, logger SLogger) *DNSOverUDPConnFunc {
	return &DNSOverUDPConnFunc{
		ErrClassifier: cfg.ErrClassifier,
		Logger:        logger,
		TimeNow:       cfg.TimeNow,
	}
}

var _ Func[net.Conn, *DNSOverUDPConn] = &DNSOverUDPConnFunc{}

// Call wraps the net.Conn into a DNSOverUDPConn.
func (op *DNSOverUDPConnFunc) Call(ctx context.Context, conn net.Conn) (*DNSOverUDPConn, error) {
	return &DNSOverUDPConn{
		conn:          conn,
		ErrClassifier: op.ErrClassifier,
		Logger:        op.Logger,
		TimeNow:       op.TimeNow,
	}, nil
}
