// SPDX-License-Identifier: GPL-3.0-or-later

package resolve

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bassosimone/safeconn"
	"github.com/miekg/dns"
)

const dnsMessageContentType = "application/dns-message"

// DNSOverHTTPSConn wraps an HTTPConn for DNS-over-HTTPS exchanges.
//
// This type owns the underlying HTTPConn. The caller is responsible for
// calling Close() when done.
//
// All fields are safe to modify after construction but before first use of
// Exchange(). Fields must not be mutated concurrently with Exchange().
//
// Construct via [*DNSOverHTTPSConnFunc].
type DNSOverHTTPSConn struct {
	// httpConn is the owned HTTPConn.
	httpConn *HTTPConn

	// url is the DoH endpoint URL.
	url string

	// ErrClassifier classifies errors for structured logging.
	ErrClassifier ErrClassifier

	// Logger is the SLogger to use.
	Logger SLogger

	// TimeNow is the function to get the current time.
	TimeNow func() time.Time
}

// Close closes the underlying HTTPConn.
func (c *DNSOverHTTPSConn) Close() error {
	return c.httpConn.Close()
}

// HTTPConn returns the underlying *HTTPConn for logging purposes.
func (c *DNSOverHTTPSConn) HTTPConn() *HTTPConn {
	return c.httpConn
}

// Exchange performs a DNS exchange over HTTPS, following RFC 8484: the
// query is POSTed as application/dns-message and the response is read the
// same way.
//
// This method may be called multiple times on the same connection.
func (c *DNSOverHTTPSConn) Exchange(ctx context.Context, query *dns.Msg) (*dns.Msg, error) {
	hc := c.httpConn
	conn := hc.Conn()

	t0 := c.TimeNow()
	deadline, _ := ctx.Deadline()
	lc := &DNSExchangeLogContext{
		ErrClassifier:  c.ErrClassifier,
		LocalAddr:      safeconn.LocalAddr(conn),
		Logger:         c.Logger,
		Protocol:       safeconn.Network(conn),
		RemoteAddr:     safeconn.RemoteAddr(conn),
		ServerProtocol: "doh",
		TimeNow:        c.TimeNow,
	}
	lc.LogStart(t0, deadline)

	resp, err := c.exchange(ctx, hc, query, t0, lc)
	lc.LogDone(t0, deadline, err)
	return resp, err
}

func (c *DNSOverHTTPSConn) exchange(
	ctx context.Context, hc *HTTPConn, query *dns.Msg, t0 time.Time, lc *DNSExchangeLogContext) (*dns.Msg, error) {
	raw, err := query.Pack()
	if err != nil {
		return nil, err
	}
	var rqr []byte
	lc.MakeQueryObserver(t0, &rqr)(raw)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("content-type", dnsMessageContentType)
	httpReq.Header.Set("accept", dnsMessageContentType)

	httpResp, err := hc.RoundTrip(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("resolve: DoH server returned status %d", httpResp.StatusCode)
	}

	rawResp, err := io.ReadAll(io.LimitReader(httpResp.Body, maxUDPMessageSize*16))
	if err != nil {
		return nil, err
	}
	lc.MakeResponseObserver(t0, &rqr)(rawResp)

	resp := new(dns.Msg)
	if err := resp.Unpack(rawResp); err != nil {
		return nil, err
	}
	return resp, nil
}

// DNSOverHTTPSConnFunc wraps an *HTTPConn into a [*DNSOverHTTPSConn].
//
// This is a [Func] that can be composed into pipelines.
//
// All fields are safe to modify after construction but before first use.
// Fields must not be mutated concurrently with calls to [Call].
type DNSOverHTTPSConnFunc struct {
	// URL is the DoH endpoint URL (e.g., "https://dns.google/dns-query").
	//
	// Set by [NewDNSOverHTTPSConnFunc] to the user-provided value.
	URL string

	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewDNSOverHTTPSConnFunc] from [Config.ErrClassifier].
	ErrClassifier ErrClassifier

	// Logger is the [SLogger] to use (configurable for testing or custom logging).
	//
	// Set by [NewDNSOverHTTPSConnFunc] to the user-provided logger.
	Logger SLogger

	// TimeNow is the function to get the current time (configurable for testing).
	//
	// Set by [NewDNSOverHTTPSConnFunc] from [Config.TimeNow].
	TimeNow func() time.Time
}

// NewDNSOverHTTPSConnFunc returns a new [*DNSOverHTTPSConnFunc].
//
// The url parameter is the DoH endpoint (e.g., "https://dns.google/dns-query").
func NewDNSOverHTTPSConnFunc(cfg *Config, url string, logger SLogger) *DNSOverHTTPSConnFunc {
	return &DNSOverHTTPSConnFunc{
		URL:           url,
		ErrClassifier: cfg.ErrClassifier,
		Logger:        logger,
		TimeNow:       cfg.TimeNow,
	}
}

var _ Func[*HTTPConn, *DNSOverHTTPSConn] = &DNSOverHTTPSConnFunc{}

// Call wraps the HTTPConn into a DNSOverHTTPSConn.
func (op *DNSOverHTTPSConnFunc) Call(ctx context.Context, httpConn *HTTPConn) (*DNSOverHTTPSConn, error) {
	return &DNSOverHTTPSConn{
		httpConn:      httpConn,
		url:           op.URL,
		ErrClassifier: op.ErrClassifier,
		Logger:        op.Logger,
		TimeNow:       op.TimeNow,
	}, nil
}
