// SPDX-License-Identifier: GPL-3.0-or-later

package resolve

import (
	"context"
	"net"
	"time"

	"github.com/bassosimone/safeconn"
	"github.com/miekg/dns"
)

// DNSOverTCPConn wraps a TCP connection for DNS-over-TCP exchanges.
//
// This type owns the underlying connection. The caller is responsible for
// calling Close() when done.
//
// All fields are safe to modify after construction but before first use of
// Exchange(). Fields must not be mutated concurrently with Exchange().
//
// Construct via [*DNSOverTCPConnFunc].
type DNSOverTCPConn struct {
	// conn is the owned TCP connection.
	conn net.Conn

	// ErrClassifier classifies errors for structured logging.
	ErrClassifier ErrClassifier

	// Logger is the SLogger to use.
	Logger SLogger

	// TimeNow is the function to get the current time.
	TimeNow func() time.Time
}

// Close closes the underlying TCP connection.
func (c *DNSOverTCPConn) Close() error {
	return c.conn.Close()
}

// Conn returns the underlying net.Conn for logging purposes.
func (c *DNSOverTCPConn) Conn() net.Conn {
	return c.conn
}

// Exchange performs a DNS exchange over TCP.
// This method may be called multiple times on the same connection.
func (c *DNSOverTCPConn) Exchange(ctx context.Context, query *dns.Msg) (*dns.Msg, error) {
	conn := c.conn

	t0 := c.TimeNow()
	deadline, _ := ctx.Deadline()
	lc := &DNSExchangeLogContext{
		ErrClassifier:  c.ErrClassifier,
		LocalAddr:      safeconn.LocalAddr(conn),
		Logger:         c.Logger,
		Protocol:       safeconn.Network(conn),
		RemoteAddr:     safeconn.RemoteAddr(conn),
		ServerProtocol: "tcp",
		TimeNow:        c.TimeNow,
	}
	lc.LogStart(t0, deadline)

	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}

	var rqr []byte
	raw, err := writeDNSMessageStream(conn, query)
	if err == nil {
		lc.MakeQueryObserver(t0, &rqr)(raw)
	}
	if err != nil {
		lc.LogDone(t0, deadline, err)
		return nil, err
	}

	rawResp, resp, err := readDNSMessageStream(conn)
	if err == nil {
		lc.MakeResponseObserver(t0, &rqr)(rawResp)
	}
	lc.LogDone(t0, deadline, err)
	return resp, err
}

// DNSOverTCPConnFunc wraps a net.Conn into a [*DNSOverTCPConn].
//
// This is a [Func] that can be composed into pipelines.
//
// All fields are safe to modify after construction but before first use.
// Fields must not be mutated concurrently with calls to [Call].
type DNSOverTCPConnFunc struct {
	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewDNSOverTCPConnFunc] from [Config.ErrClassifier].
	ErrClassifier ErrClassifier

	// Logger is the [SLogger] to use (configurable for testing or custom logging).
	//
	// Set by [NewDNSOverTCPConnFunc] to the user-provided logger.
	Logger SLogger

	// TimeNow is the function to get the current time (configurable for testing).
	//
	// Set by [NewDNSOverTCPConnFunc] from [Config.TimeNow].
	TimeNow func() time.Time
}

// NewDNSOverTCPConnFunc returns a new [*DNSOverTCPConnFunc].
func NewDNSOverTCPConnFunc(cfg *Config, logger SLogger) *DNSOverTCPConnFunc {
	return &DNSOverTCPConnFunc{
		ErrClassifier: cfg.ErrClassifier,
		Logger:        logger,
		TimeNow:       cfg.TimeNow,
	}
}

var _ Func[net.Conn, *DNSOverTCPConn] = &DNSOverTCPConnFunc{}

// Call wraps the net.Conn into a DNSOverTCPConn.
func (op *DNSOverTCPConnFunc) Call(ctx context.Context, conn net.Conn) (*DNSOverTCPConn, error) {
	return &DNSOverTCPConn{
		conn:          conn,
		ErrClassifier: op.ErrClassifier,
		Logger:        op.Logger,
		TimeNow:       op.TimeNow,
	}, nil
}
