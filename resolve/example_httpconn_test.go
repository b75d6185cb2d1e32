// SPDX-License-Identifier: GPL-3.0-or-later

package resolve_test

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/netip"
	"os"
	"strings"
	"time"

	"github.com/aethernetio/aethergo/resolve"
	"github.com/bassosimone/runtimex"
)

// This example shows how to compose an HTTPS pipeline that performs
// an HTTP round trip and reads the response body.
func Example_httpsRoundTrip() {
	// Create context with overall timeout for the entire operation.
	// Caller controls timeout externally - the pipeline never modifies the context.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Create a config and logger with a span ID for correlating log entries
	cfg := resolve.NewConfig()
	spanID := resolve.NewSpanID()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil)).With("spanID", spanID)

	// Create pipeline for establishing an HTTPS connection.
	// CancelWatchFunc binds context lifecycle to connection lifecycle:
	// when context is done (timeout, cancel, signal), connection closes.
	epntOp := resolve.NewEndpointFunc(netip.MustParseAddrPort("8.8.8.8:443"))

	connectOp := resolve.NewConnectFunc(cfg, "tcp", logger)

	observeOp := resolve.NewObserveConnFunc(cfg, logger)

	autoCancelOp := resolve.NewCancelWatchFunc()

	tlsConfig := &tls.Config{ServerName: "dns.google", NextProtos: []string{"h2", "http/1.1"}}
	tlsHandshakeOp := resolve.NewTLSHandshakeFunc(cfg, tlsConfig, logger)

	httpConnOp := resolve.NewHTTPConnFuncTLS(cfg, logger)

	dialPipe := resolve.Compose6(epntOp, connectOp, observeOp, autoCancelOp, tlsHandshakeOp, httpConnOp)

	// Connect and wrap in HTTPConn
	httpConn := runtimex.PanicOnError1(dialPipe.Call(ctx, resolve.Unit{}))
	defer httpConn.Close()

	// Create the HTTP request and perform the round trip
	httpReq := runtimex.PanicOnError1(
		http.NewRequestWithContext(ctx, "GET", "https://dns.google/", http.NoBody))
	resp := runtimex.PanicOnError1(httpConn.RoundTrip(httpReq))
	defer resp.Body.Close()
	runtimex.Assert(resp.StatusCode < 400)

	// Read the body
	body := runtimex.PanicOnError1(io.ReadAll(resp.Body))

	// Extract and print the title from the HTML
	title := extractTitle(string(body))
	fmt.Printf("%s\n", title)

	// Output:
	// Google Public DNS
}

// extractTitle extracts the content of the <title> tag from HTML.
func extractTitle(html string) string {
	const startTag = "<title>"
	const endTag = "</title>"
	start := strings.Index(html, startTag)
	if start == -1 {
		return ""
	}
	start += len(startTag)
	end := strings.Index(html[start:], endTag)
	if end == -1 {
		return ""
	}
	return html[start : start+end]
}
