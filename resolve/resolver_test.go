// SPDX-License-Identifier: GPL-3.0-or-later

package resolve

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExchanger is a [dnsExchanger] driven by a function, for testing
// exchangeAddrs without a real connection.
type fakeExchanger struct {
	exchangeFunc func(ctx context.Context, query *dns.Msg) (*dns.Msg, error)
}

func (f *fakeExchanger) Exchange(ctx context.Context, query *dns.Msg) (*dns.Msg, error) {
	return f.exchangeFunc(ctx, query)
}

func (f *fakeExchanger) Close() error {
	return nil
}

func aRecord(name string, ip net.IP) *dns.A {
	return &dns.A{
		Hdr: dns.RR_Header{Name: dns.Fqdn(name), Rrtype: dns.TypeA, Class: dns.ClassINET},
		A:   ip,
	}
}

func aaaaRecord(name string, ip net.IP) *dns.AAAA {
	return &dns.AAAA{
		Hdr:  dns.RR_Header{Name: dns.Fqdn(name), Rrtype: dns.TypeAAAA, Class: dns.ClassINET},
		AAAA: ip,
	}
}

func TestExtractAddrs(t *testing.T) {
	t.Run("mixed A and AAAA records", func(t *testing.T) {
		msg := new(dns.Msg)
		msg.Answer = []dns.RR{
			aRecord("example.com", net.ParseIP("93.184.216.34")),
			aaaaRecord("example.com", net.ParseIP("2606:2800:220:1:248:1893:25c8:1946")),
		}

		addrs := extractAddrs(msg)

		require.Len(t, addrs, 2)
		assert.Equal(t, netip.MustParseAddr("93.184.216.34"), addrs[0])
		assert.Equal(t, netip.MustParseAddr("2606:2800:220:1:248:1893:25c8:1946"), addrs[1])
	})

	t.Run("no answers", func(t *testing.T) {
		msg := new(dns.Msg)
		assert.Empty(t, extractAddrs(msg))
	})

	t.Run("ignores non-address records", func(t *testing.T) {
		msg := new(dns.Msg)
		msg.Answer = []dns.RR{
			&dns.CNAME{Hdr: dns.RR_Header{Name: dns.Fqdn("example.com"), Rrtype: dns.TypeCNAME}, Target: dns.Fqdn("other.com")},
		}
		assert.Empty(t, extractAddrs(msg))
	})
}

func TestExchangeAddrs(t *testing.T) {
	t.Run("both queries succeed", func(t *testing.T) {
		x := &fakeExchanger{
			exchangeFunc: func(ctx context.Context, query *dns.Msg) (*dns.Msg, error) {
				resp := new(dns.Msg)
				switch query.Question[0].Qtype {
				case dns.TypeA:
					resp.Answer = []dns.RR{aRecord("example.com", net.ParseIP("1.2.3.4"))}
				case dns.TypeAAAA:
					resp.Answer = []dns.RR{aaaaRecord("example.com", net.ParseIP("::1"))}
				}
				return resp, nil
			},
		}

		addrs, err := exchangeAddrs(context.Background(), x, "example.com")

		require.NoError(t, err)
		assert.Len(t, addrs, 2)
	})

	t.Run("one family fails, the other succeeds", func(t *testing.T) {
		x := &fakeExchanger{
			exchangeFunc: func(ctx context.Context, query *dns.Msg) (*dns.Msg, error) {
				if query.Question[0].Qtype == dns.TypeAAAA {
					return nil, errors.New("no AAAA support")
				}
				resp := new(dns.Msg)
				resp.Answer = []dns.RR{aRecord("example.com", net.ParseIP("1.2.3.4"))}
				return resp, nil
			},
		}

		addrs, err := exchangeAddrs(context.Background(), x, "example.com")

		require.NoError(t, err)
		require.Len(t, addrs, 1)
		assert.Equal(t, netip.MustParseAddr("1.2.3.4"), addrs[0])
	})

	t.Run("both queries fail", func(t *testing.T) {
		wantErr := errors.New("server down")
		x := &fakeExchanger{
			exchangeFunc: func(ctx context.Context, query *dns.Msg) (*dns.Msg, error) {
				return nil, wantErr
			},
		}

		addrs, err := exchangeAddrs(context.Background(), x, "example.com")

		require.Error(t, err)
		assert.Nil(t, addrs)
	})

	t.Run("both queries succeed with no records", func(t *testing.T) {
		x := &fakeExchanger{
			exchangeFunc: func(ctx context.Context, query *dns.Msg) (*dns.Msg, error) {
				return new(dns.Msg), nil
			},
		}

		addrs, err := exchangeAddrs(context.Background(), x, "example.com")

		require.Error(t, err)
		assert.Nil(t, addrs)
	})
}

func TestNewPlainResolver(t *testing.T) {
	r := NewPlainResolver()

	require.NotNil(t, r)
	assert.Equal(t, net.DefaultResolver, r.Resolver)
	var _ Resolver = r
}

func TestNewDoUDPResolver(t *testing.T) {
	cfg := NewConfig()
	server := netip.MustParseAddrPort("8.8.8.8:53")

	r := NewDoUDPResolver(cfg, server, DefaultSLogger())

	require.NotNil(t, r)
	assert.Equal(t, server, r.Server)
	require.NotNil(t, r.dialPipe)
	var _ Resolver = r
}

func TestNewDoTCPResolver(t *testing.T) {
	cfg := NewConfig()
	server := netip.MustParseAddrPort("8.8.8.8:53")

	r := NewDoTCPResolver(cfg, server, DefaultSLogger())

	require.NotNil(t, r)
	assert.Equal(t, server, r.Server)
	require.NotNil(t, r.dialPipe)
	var _ Resolver = r
}

func TestNewDoTLSResolver(t *testing.T) {
	cfg := NewConfig()
	server := netip.MustParseAddrPort("8.8.8.8:853")

	r := NewDoTLSResolver(cfg, server, "dns.google", DefaultSLogger())

	require.NotNil(t, r)
	assert.Equal(t, server, r.Server)
	require.NotNil(t, r.dialPipe)
	var _ Resolver = r
}

func TestNewDoHResolver(t *testing.T) {
	cfg := NewConfig()
	server := netip.MustParseAddrPort("8.8.8.8:443")
	url := "https://dns.google/dns-query"

	r := NewDoHResolver(cfg, server, "dns.google", url, DefaultSLogger())

	require.NotNil(t, r)
	assert.Equal(t, server, r.Server)
	assert.Equal(t, url, r.URL)
	require.NotNil(t, r.dialPipe)
	var _ Resolver = r
}
