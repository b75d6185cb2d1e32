// SPDX-License-Identifier: GPL-3.0-or-later

package transport

import (
	"time"

	"github.com/aethernetio/aethergo"
	"github.com/aethernetio/aethergo/action"
	"github.com/aethernetio/aethergo/event"
	"github.com/aethernetio/aethergo/modem"
	"github.com/aethernetio/aethergo/stream"
)

// modemMaxPacketSize/modemRecPacketSize match the original's
// ModemChannel constructor, which hardcodes both to 1024 regardless of
// protocol.
const (
	modemMaxPacketSize = 1024
	modemRecPacketSize = 1024
)

// ModemChannel is a [Channel] bound to one [UnifiedAddress] at construction
// time, dialed over a shared [ModemAccessPoint]'s modem. Grounded on
// original_source/aether/channels/modem_channel.{h,cpp}: unlike the
// ethernet side, a modem channel is built once per address rather than
// handed an address per TransportBuilder call, since the original's
// TransportBuilder() takes no arguments.
type ModemChannel struct {
	ctx          action.Context
	accessPoint  *ModemAccessPoint
	address      UnifiedAddress
	pollInterval time.Duration
	pollTimeout  time.Duration

	connType    ConnectionType
	reliability Reliability
}

// NewModemChannel binds a channel to address, reachable through ap. address
// must carry Protocol TCP or UDP; any other value is a caller error (the
// original asserts here, since no third protocol exists for modem sockets).
func NewModemChannel(ctx action.Context, ap *ModemAccessPoint, address UnifiedAddress, pollInterval, pollTimeout time.Duration) *ModemChannel {
	connType, reliability := propertiesFor(address.Protocol)
	return &ModemChannel{
		ctx:          ctx,
		accessPoint:  ap,
		address:      address,
		pollInterval: pollInterval,
		pollTimeout:  pollTimeout,
		connType:     connType,
		reliability:  reliability,
	}
}

// MaxPacketSize implements [Channel].
func (c *ModemChannel) MaxPacketSize() uint32 { return modemMaxPacketSize }

// RecPacketSize implements [Channel].
func (c *ModemChannel) RecPacketSize() uint32 { return modemRecPacketSize }

// ConnectionType implements [Channel].
func (c *ModemChannel) ConnectionType() ConnectionType { return c.connType }

// Reliability implements [Channel].
func (c *ModemChannel) Reliability() Reliability { return c.reliability }

// TransportBuilder implements [Channel]: it runs the three-stage
// ModemConnect -> TransportCreate -> WaitTransportConnected pipeline
// described by original_source/aether/channels/modem_channel.cpp's
// ModemTransportBuilderAction.
func (c *ModemChannel) TransportBuilder() TransportBuilderAction {
	return newModemTransportBuilderAction(c.ctx, c)
}

type mtbState uint8

const (
	mtbModemConnect mtbState = iota
	mtbTransportCreate
	mtbWaitConnected
	mtbConnected
	mtbFailed
)

// modemTransportBuilderAction is the hand-rolled state machine behind
// [ModemChannel.TransportBuilder], grounded on
// modem_channel_internal::ModemTransportBuilderAction. It is not built on
// [pipeline.Pipeline] because its middle stage (TransportCreate) runs
// synchronously inline and its last stage waits on an event from an object
// (the freshly built [*modem.Transport]) constructed by the stage before
// it, which a [pipeline.Stage] factory's uniform signature has no natural
// place to thread through — the same reason the original hand-rolls this
// one action directly instead of composing a StateMachine<State> from
// reusable stage types.
type modemTransportBuilderAction struct {
	action.Action[modemTransportBuilderAction, *modemTransportBuilderAction]

	channel *ModemChannel

	state   mtbState
	entered bool

	connectSub event.Subscription
	streamSub  event.Subscription

	transport *modem.Transport
}

func newModemTransportBuilderAction(ctx action.Context, channel *ModemChannel) *modemTransportBuilderAction {
	a := &modemTransportBuilderAction{channel: channel}
	a.Action = action.New[modemTransportBuilderAction, *modemTransportBuilderAction](ctx, a)
	return a
}

// Stream implements [TransportBuilderAction].
func (a *modemTransportBuilderAction) Stream() stream.ByteIStream {
	return a.transport
}

func (a *modemTransportBuilderAction) Update(aether.TimePoint) action.UpdateStatus {
	if !a.entered {
		a.entered = true
		switch a.state {
		case mtbModemConnect:
			a.connectModem()
		case mtbTransportCreate:
			a.createTransport()
		}
	}
	switch a.state {
	case mtbConnected:
		return action.Result()
	case mtbFailed:
		return action.Error()
	default:
		return action.Nothing()
	}
}

func (a *modemTransportBuilderAction) advance(next mtbState) {
	a.state = next
	a.entered = false
	a.Signal()
}

// connectModem reuses an in-flight connect action on the access point when
// one exists, deduplicating concurrent channels racing to bring up the same
// modem.
func (a *modemTransportBuilderAction) connectModem() {
	connect := a.channel.accessPoint.Connect()
	a.connectSub = event.Combine(
		connect.OnResult(func() { a.advance(mtbTransportCreate) }),
		connect.OnError(func() { a.advance(mtbFailed) }),
	)
}

func (a *modemTransportBuilderAction) createTransport() {
	addr := a.channel.address
	proto := modem.TCP
	if addr.Protocol == UDP {
		proto = modem.UDP
	}
	a.transport = modem.NewTransport(a.channel.ctx, a.channel.accessPoint.Driver(),
		proto, addr.Host(), addr.Port, modemMaxPacketSize,
		a.channel.pollInterval, a.channel.pollTimeout)

	a.streamSub = a.transport.StreamUpdateEvent().Subscribe(func(info stream.StreamInfo) {
		switch info.LinkState {
		case stream.Linked:
			a.streamSub.Unsubscribe()
			a.advance(mtbConnected)
		case stream.LinkError:
			a.streamSub.Unsubscribe()
			a.advance(mtbFailed)
		}
	})
	a.transport.Connect()
	a.advance(mtbWaitConnected)
}
