// SPDX-License-Identifier: GPL-3.0-or-later

package resolve

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/netip"

	"github.com/miekg/dns"
)

// Resolver resolves a domain name to a set of addresses.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type Resolver interface {
	Resolve(ctx context.Context, name string) ([]netip.Addr, error)
}

// PlainResolver implements [Resolver] using the host's stdlib resolver.
//
// This is the default resolver: it requires no extra configuration and
// works wherever [net.DefaultResolver] works.
type PlainResolver struct {
	// Resolver is the underlying stdlib resolver.
	//
	// Set by [NewPlainResolver] to [net.DefaultResolver].
	Resolver *net.Resolver
}

// NewPlainResolver returns a new [*PlainResolver] using [net.DefaultResolver].
func NewPlainResolver() *PlainResolver {
	return &PlainResolver{Resolver: net.DefaultResolver}
}

var _ Resolver = &PlainResolver{}

// Resolve implements [Resolver].
func (r *PlainResolver) Resolve(ctx context.Context, name string) ([]netip.Addr, error) {
	return r.Resolver.LookupNetIP(ctx, "ip", name)
}

// dnsExchanger is the method set shared by every DNSOverXConn type. It lets
// the resolvers below drive the exchange without depending on a concrete
// connection type.
type dnsExchanger interface {
	Exchange(ctx context.Context, query *dns.Msg) (*dns.Msg, error)
	Close() error
}

// exchangeAddrs issues an A and an AAAA query over x and merges the
// addresses found in both responses. A failed query is skipped, so a server
// that does not support one address family does not prevent resolution via
// the other. It fails only when no address is found at all: with the last
// query error if a query failed, otherwise with a no-addresses error.
func exchangeAddrs(ctx context.Context, x dnsExchanger, name string) ([]netip.Addr, error) {
	var addrs []netip.Addr
	var lastErr error
	for _, qtype := range [...]uint16{dns.TypeA, dns.TypeAAAA} {
		query := new(dns.Msg)
		query.SetQuestion(dns.Fqdn(name), qtype)
		resp, err := x.Exchange(ctx, query)
		if err != nil {
			lastErr = err
			continue
		}
		addrs = append(addrs, extractAddrs(resp)...)
	}
	if len(addrs) == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, fmt.Errorf("resolve: no addresses found for %q", name)
	}
	return addrs, nil
}

// extractAddrs collects the A and AAAA records from a DNS response.
func extractAddrs(msg *dns.Msg) []netip.Addr {
	var out []netip.Addr
	for _, rr := range msg.Answer {
		switch rec := rr.(type) {
		case *dns.A:
			if addr, ok := netip.AddrFromSlice(rec.A.To4()); ok {
				out = append(out, addr)
			}
		case *dns.AAAA:
			if addr, ok := netip.AddrFromSlice(rec.AAAA.To16()); ok {
				out = append(out, addr)
			}
		}
	}
	return out
}

// DoUDPResolver implements [Resolver] using DNS-over-UDP against a single
// configured server. Each call to Resolve dials a fresh connection: UDP
// DNS has no session state worth keeping across lookups on a constrained
// device, and a fresh socket sidesteps stale NAT bindings.
type DoUDPResolver struct {
	// Server is the DNS-over-UDP server endpoint (e.g. "8.8.8.8:53").
	Server netip.AddrPort

	dialPipe Func[Unit, *DNSOverUDPConn]
}

// NewDoUDPResolver returns a new [*DoUDPResolver] dialing server.
func NewDoUDPResolver(cfg *Config, server netip.AddrPort, logger SLogger) *DoUDPResolver {
	return &DoUDPResolver{
		Server: server,
		dialPipe: Compose5(
			NewEndpointFunc(server),
			NewConnectFunc(cfg, "udp", logger),
			NewObserveConnFunc(cfg, logger),
			NewCancelWatchFunc(),
			NewDNSOverUDPConnFunc(cfg, logger),
		),
	}
}

var _ Resolver = &DoUDPResolver{}

// Resolve implements [Resolver].
func (r *DoUDPResolver) Resolve(ctx context.Context, name string) ([]netip.Addr, error) {
	conn, err := r.dialPipe.Call(ctx, Unit{})
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return exchangeAddrs(ctx, conn, name)
}

// DoTCPResolver implements [Resolver] using DNS-over-TCP against a single
// configured server.
type DoTCPResolver struct {
	// Server is the DNS-over-TCP server endpoint (e.g. "8.8.8.8:53").
	Server netip.AddrPort

	dialPipe Func[Unit, *DNSOverTCPConn]
}

// NewDoTCPResolver returns a new [*DoTCPResolver] dialing server.
func NewDoTCPResolver(cfg *Config, server netip.AddrPort, logger SLogger) *DoTCPResolver {
	return &DoTCPResolver{
		Server: server,
		dialPipe: Compose5(
			NewEndpointFunc(server),
			NewConnectFunc(cfg, "tcp", logger),
			NewObserveConnFunc(cfg, logger),
			NewCancelWatchFunc(),
			NewDNSOverTCPConnFunc(cfg, logger),
		),
	}
}

var _ Resolver = &DoTCPResolver{}

// Resolve implements [Resolver].
func (r *DoTCPResolver) Resolve(ctx context.Context, name string) ([]netip.Addr, error) {
	conn, err := r.dialPipe.Call(ctx, Unit{})
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return exchangeAddrs(ctx, conn, name)
}

// DoTLSResolver implements [Resolver] using DNS-over-TLS (RFC 7858) against
// a single configured server.
type DoTLSResolver struct {
	// Server is the DNS-over-TLS server endpoint (e.g. "8.8.8.8:853").
	Server netip.AddrPort

	dialPipe Func[Unit, *DNSOverTLSConn]
}

// NewDoTLSResolver returns a new [*DoTLSResolver] dialing server and
// verifying the peer certificate against serverName.
func NewDoTLSResolver(cfg *Config, server netip.AddrPort, serverName string, logger SLogger) *DoTLSResolver {
	tlsConfig := &tls.Config{ServerName: serverName}
	return &DoTLSResolver{
		Server: server,
		dialPipe: Compose6(
			NewEndpointFunc(server),
			NewConnectFunc(cfg, "tcp", logger),
			NewObserveConnFunc(cfg, logger),
			NewCancelWatchFunc(),
			NewTLSHandshakeFunc(cfg, tlsConfig, logger),
			NewDNSOverTLSConnFunc(cfg, logger),
		),
	}
}

var _ Resolver = &DoTLSResolver{}

// Resolve implements [Resolver].
func (r *DoTLSResolver) Resolve(ctx context.Context, name string) ([]netip.Addr, error) {
	conn, err := r.dialPipe.Call(ctx, Unit{})
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return exchangeAddrs(ctx, conn, name)
}

// DoHResolver implements [Resolver] using DNS-over-HTTPS (RFC 8484) against
// a single configured server.
type DoHResolver struct {
	// Server is the DoH server endpoint (e.g. "8.8.8.8:443").
	Server netip.AddrPort

	// URL is the DoH query URL (e.g. "https://dns.google/dns-query").
	URL string

	dialPipe Func[Unit, *DNSOverHTTPSConn]
}

// NewDoHResolver returns a new [*DoHResolver] dialing server, performing a
// TLS handshake for serverName, and issuing queries against url.
func NewDoHResolver(cfg *Config, server netip.AddrPort, serverName, url string, logger SLogger) *DoHResolver {
	tlsConfig := &tls.Config{ServerName: serverName, NextProtos: []string{"h2", "http/1.1"}}
	return &DoHResolver{
		Server: server,
		URL:    url,
		dialPipe: Compose7(
			NewEndpointFunc(server),
			NewConnectFunc(cfg, "tcp", logger),
			NewObserveConnFunc(cfg, logger),
			NewCancelWatchFunc(),
			NewTLSHandshakeFunc(cfg, tlsConfig, logger),
			NewHTTPConnFuncTLS(cfg, logger),
			NewDNSOverHTTPSConnFunc(cfg, url, logger),
		),
	}
}

var _ Resolver = &DoHResolver{}

// Resolve implements [Resolver].
func (r *DoHResolver) Resolve(ctx context.Context, name string) ([]netip.Addr, error) {
	conn, err := r.dialPipe.Call(ctx, Unit{})
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return exchangeAddrs(ctx, conn, name)
}
