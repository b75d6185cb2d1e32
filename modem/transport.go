// SPDX-License-Identifier: GPL-3.0-or-later

package modem

import (
	"errors"
	"time"

	"github.com/aethernetio/aethergo"
	"github.com/aethernetio/aethergo/action"
	"github.com/aethernetio/aethergo/event"
	"github.com/aethernetio/aethergo/stream"
)

// ErrLinkDown is returned by [*Transport.Send] once the transport has
// reported [stream.LinkError], so an in-flight [stream.WriteAction] fails
// promptly on its next tick instead of retrying forever against a modem
// connection that is known to be gone.
var ErrLinkDown = errors.New("modem: link down")

// Transport is the [stream.ByteIStream] built on a [*Driver] connection,
// grounded on
// original_source/aether/transport/modems/modem_transport.h's ModemTransport
// (itself built on ByteIStream, a SendQueuePoller-style queue manager and a
// polling or unsolicited-driven read action). Unlike [stream.SocketStream],
// a write here is not synchronously accepted into a kernel buffer — it is
// handed to the driver's operation queue and only actually leaves the
// serial port once the queue reaches it — so Transport reports a write as
// "accepted" at hand-off time, mirroring a socket's kernel-buffer send
// semantics rather than waiting for the modem's OK/ERROR response; a write
// that later fails on the wire is surfaced as a link error instead of
// failing the [stream.WriteAction] that already reported Result. This is a
// deliberate simplification recorded in DESIGN.md, not a silently dropped
// guarantee.
type Transport struct {
	ctx    action.Context
	driver *Driver

	protocol Protocol
	host     string
	port     uint16

	idx           ConnectionIndex
	maxPacketSize int

	queue     *stream.SendQueueManager
	info      stream.StreamInfo
	infoEvent event.Event[stream.StreamInfo]
	outData   event.Event[[]byte]

	current    *operationHandle
	currentSub event.Subscription

	pollInterval time.Duration
	pollTimeout  time.Duration
	poll         *readPoller
	unsolSub     event.Subscription
}

// operationHandle is an alias of [operation], the handle Driver.WritePacket
// returns; Transport uses it to subscribe to a write's terminal outcome. The
// alias exists purely for readability at the call site.
type operationHandle = operation

// NewTransport wires a not-yet-connected Transport over driver. Call
// Connect to start opening the network connection. pollInterval/pollTimeout
// are only used when driver's CommandSet has no UnsolicitedRecvPrefix.
func NewTransport(ctx action.Context, driver *Driver, protocol Protocol, host string, port uint16, maxPacketSize int, pollInterval, pollTimeout time.Duration) *Transport {
	t := &Transport{
		ctx:           ctx,
		driver:        driver,
		protocol:      protocol,
		host:          host,
		port:          port,
		idx:           InvalidConnectionIndex,
		maxPacketSize: maxPacketSize,
		pollInterval:  pollInterval,
		pollTimeout:   pollTimeout,
	}
	t.info = stream.StreamInfo{
		LinkState:     stream.Unlinked,
		IsReliable:    true,
		MaxPacketSize: uint32(maxPacketSize),
		RecPacketSize: uint32(maxPacketSize),
	}
	t.queue = stream.NewSendQueueManager(ctx, t)
	return t
}

// Connect opens the network connection and transitions to Linked or
// LinkError once the driver's OpenNetwork operation settles.
func (t *Transport) Connect() {
	op := t.driver.OpenNetwork(t.protocol, t.host, t.port)
	op.OnResult(func() {
		t.idx = op.Index()
		t.info.LinkState = stream.Linked
		t.info.IsWritable = true
		t.infoEvent.Emit(t.info)
		if t.driver.SupportsUnsolicited() {
			t.unsolSub = t.driver.UnsolicitedDataEvent().Subscribe(func(data []byte) { t.outData.Emit(data) })
			return
		}
		t.poll = newReadPoller(t.ctx, t.driver, t.idx, t.pollInterval, t.pollTimeout, &t.outData)
	})
	op.OnError(func() { t.onLinkError() })
}

// Write implements [stream.ByteIStream].
func (t *Transport) Write(data []byte) *stream.WriteAction {
	return t.queue.Push(data)
}

// StreamUpdateEvent implements [stream.ByteIStream].
func (t *Transport) StreamUpdateEvent() *event.Event[stream.StreamInfo] {
	return &t.infoEvent
}

// OutDataEvent implements [stream.ByteIStream].
func (t *Transport) OutDataEvent() *event.Event[[]byte] {
	return &t.outData
}

// Restream implements [stream.ByteIStream]: closes the open connection (if
// any) and transitions to LinkError; the caller is expected to call Connect
// again for a fresh one.
func (t *Transport) Restream() {
	if t.idx != InvalidConnectionIndex {
		idx := t.idx
		t.idx = InvalidConnectionIndex
		t.driver.CloseNetwork(idx)
	}
	if t.poll != nil {
		t.poll.Stop()
		t.poll = nil
	}
	t.unsolSub.Unsubscribe()
	t.onLinkError()
}

// Send implements [stream.Sender]: it hands data (capped at maxPacketSize)
// to the driver's write queue, accepting immediately, or reports
// [ErrLinkDown] once the link has failed, or asks the caller to wait (0,
// nil) while a previous chunk is still in the driver's queue.
func (t *Transport) Send(data []byte) (int, error) {
	if t.info.LinkState == stream.LinkError {
		return 0, ErrLinkDown
	}
	if t.current != nil || t.idx == InvalidConnectionIndex {
		return 0, nil
	}
	n := len(data)
	if n > t.maxPacketSize {
		n = t.maxPacketSize
	}
	chunk := append([]byte(nil), data[:n]...)
	op := t.driver.WritePacket(t.idx, chunk)
	t.current = op
	t.currentSub = event.Combine(
		op.OnResult(func() { t.clearCurrent(); t.queue.Retry() }),
		op.OnError(func() { t.clearCurrent(); t.onLinkError(); t.queue.Retry() }),
	)
	return n, nil
}

func (t *Transport) clearCurrent() {
	t.current = nil
	t.currentSub.Unsubscribe()
}

func (t *Transport) onLinkError() {
	if t.info.LinkState == stream.LinkError {
		return
	}
	t.info.LinkState = stream.LinkError
	t.info.IsWritable = false
	t.infoEvent.Emit(t.info)
}

// readPoller periodically issues Driver.ReadPacket and forwards any
// non-empty result to outData, for drivers whose CommandSet has no
// UnsolicitedRecvPrefix. Grounded on
// original_source/aether/transport/modems/send_queue_poller.h's
// SendQueuePoller Delay-loop shape, applied to the read side instead of the
// send side.
type readPoller struct {
	action.Action[readPoller, *readPoller]

	ctx      action.Context
	driver   *Driver
	idx      ConnectionIndex
	interval time.Duration
	timeout  time.Duration
	outData  *event.Event[[]byte]

	current *ReadPacketAction
	sub     event.Subscription
	stopped bool
}

func newReadPoller(ctx action.Context, driver *Driver, idx ConnectionIndex, interval, timeout time.Duration, outData *event.Event[[]byte]) *readPoller {
	p := &readPoller{ctx: ctx, driver: driver, idx: idx, interval: interval, timeout: timeout, outData: outData}
	p.Action = action.New[readPoller, *readPoller](ctx, p)
	return p
}

func (p *readPoller) Update(now aether.TimePoint) action.UpdateStatus {
	if p.stopped {
		return action.Stop()
	}
	if p.current == nil {
		p.current = p.driver.ReadPacket(p.idx, p.timeout)
		p.sub = event.Combine(
			p.current.OnResult(func() {
				if data := p.current.Data(); len(data) > 0 {
					p.outData.Emit(data)
				}
				p.current = nil
				p.Signal()
			}),
			p.current.OnError(func() {
				p.current = nil
				p.Signal()
			}),
		)
	}
	return action.Delay(now.Add(p.interval))
}

// Stop ends the poll loop; the in-flight read (if any) is left to finish on
// its own.
func (p *readPoller) Stop() {
	if p.stopped {
		return
	}
	p.stopped = true
	p.Signal()
}

// SupportsUnsolicited reports whether this driver was constructed with an
// UnsolicitedRecvPrefix and so drives reads via UnsolicitedDataEvent
// instead of polling.
func (d *Driver) SupportsUnsolicited() bool { return d.listener != nil }
