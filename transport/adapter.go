// SPDX-License-Identifier: GPL-3.0-or-later

package transport

import (
	"context"
	"net/netip"
	"sync"

	"github.com/aethernetio/aethergo"
	"github.com/aethernetio/aethergo/action"
	"github.com/aethernetio/aethergo/pipeline"
	"github.com/aethernetio/aethergo/poller"
	"github.com/aethernetio/aethergo/resolve"
	"github.com/aethernetio/aethergo/socket"
	"github.com/aethernetio/aethergo/stream"
)

const (
	defaultTCPPacketSize = 1500
	defaultUDPPacketSize = 1200
)

// TransportStreamBuilder builds one concrete transport stream, once its
// endpoint is known to be a literal address. Grounded on
// original_source/aether/transport/itransport_stream_builder.h's
// ITransportStreamBuilder (BuildTransportStream renamed to carry the action
// context it needs, since this module's sockets are constructed with one).
type TransportStreamBuilder interface {
	BuildTransportStream(ctx action.Context) stream.ByteIStream
}

// Adapter owns a poller reference and a DNS resolver, and turns a
// [UnifiedAddress] into one [TransportStreamBuilder] per resolved IP.
// Grounded on original_source/aether/adapters/ethernet.cpp's EthernetAdapter.
type Adapter struct {
	poller   poller.Poller
	resolver resolve.Resolver
	logger   aether.SLogger
}

// NewAdapter constructs an Adapter. resolver may be [resolve.NewPlainResolver]
// or any of the DoH/DoT/DoU adapters in package resolve.
func NewAdapter(pl poller.Poller, resolver resolve.Resolver, logger aether.SLogger) *Adapter {
	if logger == nil {
		logger = aether.NewConfig().Logger
	}
	return &Adapter{poller: pl, resolver: resolver, logger: logger}
}

// AdapterBuilderAction is the action [Adapter.CreateTransport] returns.
// Grounded on original_source/aether/adapters/ethernet.cpp's
// EthernetTransportBuilderAction: a two-stage pipeline, AddressResolve then
// BuildersCreate, whose terminal [Builders] accessor yields one builder per
// resolved address.
type AdapterBuilderAction struct {
	*pipeline.Pipeline

	builders []TransportStreamBuilder
}

// Builders returns one [TransportStreamBuilder] per endpoint this address
// resolved to. Only valid once the action has reported Result.
func (a *AdapterBuilderAction) Builders() []TransportStreamBuilder {
	return a.builders
}

// CreateTransport resolves addr (a no-op for a literal IP) and constructs
// one builder per resulting endpoint.
func (a *Adapter) CreateTransport(ctx action.Context, addr UnifiedAddress) *AdapterBuilderAction {
	act := &AdapterBuilderAction{}
	var resolved []UnifiedAddress

	stages := []pipeline.Stage{
		func(ctx action.Context) pipeline.StageAction {
			return newAddressResolveAction(ctx, a.resolver, addr, &resolved)
		},
		func(ctx action.Context) pipeline.StageAction {
			for _, ep := range resolved {
				act.builders = append(act.builders, &SocketTransportBuilder{
					poller:   a.poller,
					endpoint: ep,
					logger:   a.logger,
				})
			}
			return newInstantAction(ctx, false)
		},
	}
	act.Pipeline = pipeline.New(ctx, stages...)
	return act
}

// addressResolveAction implements the AddressResolve pipeline stage. A
// literal-IP address resolves instantly with no goroutine; a name address
// is resolved on a background goroutine, mirroring
// [socket.Socket.Connect]'s dial-on-goroutine-then-Trigger pattern, since
// [resolve.Resolver.Resolve] is a blocking, context-based call that must
// never run on the scheduler thread.
type addressResolveAction struct {
	action.Action[addressResolveAction, *addressResolveAction]

	out *[]UnifiedAddress

	mu   sync.Mutex
	done bool
	err  error
}

func newAddressResolveAction(ctx action.Context, resolver resolve.Resolver, addr UnifiedAddress, out *[]UnifiedAddress) *addressResolveAction {
	r := &addressResolveAction{out: out}
	r.Action = action.New[addressResolveAction, *addressResolveAction](ctx, r)

	if !addr.IsName() {
		*out = append(*out, addr)
		r.done = true
		return r
	}

	trigger := ctx.Trigger
	name, port, proto := addr.Name, addr.Port, addr.Protocol
	go func() {
		ips, err := resolver.Resolve(context.Background(), name)
		r.mu.Lock()
		r.done = true
		r.err = err
		if err == nil {
			for _, ip := range ips {
				*out = append(*out, IPAddress(ip, port, proto))
			}
		}
		r.mu.Unlock()
		if trigger != nil {
			trigger.Trigger()
		}
	}()
	return r
}

func (r *addressResolveAction) Update(aether.TimePoint) action.UpdateStatus {
	r.mu.Lock()
	done, err := r.done, r.err
	r.mu.Unlock()
	if !done {
		return action.Nothing()
	}
	if err != nil {
		return action.Error()
	}
	return action.Result()
}

// instantAction is a one-tick action, used for pipeline stages that do
// their work synchronously (e.g. BuildersCreate) and only need to report a
// terminal state the pipeline can sequence on.
type instantAction struct {
	action.Action[instantAction, *instantAction]

	failed bool
}

func newInstantAction(ctx action.Context, failed bool) *instantAction {
	a := &instantAction{failed: failed}
	a.Action = action.New[instantAction, *instantAction](ctx, a)
	return a
}

func (a *instantAction) Update(aether.TimePoint) action.UpdateStatus {
	if a.failed {
		return action.Error()
	}
	return action.Result()
}

// SocketTransportBuilder builds a [*stream.SocketStream] over a literal
// IP+port+protocol endpoint. Grounded on
// original_source/aether/adapters/ethernet.cpp's internal
// EthernetTransportBuilder (BuildTcp/BuildUdp).
type SocketTransportBuilder struct {
	poller   poller.Poller
	endpoint UnifiedAddress
	logger   aether.SLogger
}

// BuildTransportStream implements [TransportStreamBuilder].
func (b *SocketTransportBuilder) BuildTransportStream(ctx action.Context) stream.ByteIStream {
	maxPacketSize := uint32(defaultTCPPacketSize)
	var sock *socket.Socket
	if b.endpoint.Protocol == UDP {
		maxPacketSize = defaultUDPPacketSize
		sock = socket.NewUDPSocket(b.poller, ctx.Trigger, b.logger)
	} else {
		sock = socket.NewTCPSocket(b.poller, ctx.Trigger, b.logger)
	}

	s := stream.NewSocketStream(ctx, sock, maxPacketSize)
	s.Connect(netip.AddrPortFrom(b.endpoint.IP, b.endpoint.Port))
	return s
}
