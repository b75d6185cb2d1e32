// SPDX-License-Identifier: GPL-3.0-or-later

package stream

import (
	"net/netip"

	"github.com/aethernetio/aethergo"
	"github.com/aethernetio/aethergo/action"
	"github.com/aethernetio/aethergo/event"
	"github.com/aethernetio/aethergo/socket"
)

// SocketStream is the [ByteIStream] built on a [*socket.Socket]: it owns the
// socket, a [SendQueueManager] for outbound writes and a [ReadAction] for
// inbound data, and republishes the socket's connection lifecycle as
// [StreamInfo] changes.
type SocketStream struct {
	action.Action[SocketStream, *SocketStream]

	sock  *socket.Socket
	queue *SendQueueManager
	read  *ReadAction

	info      StreamInfo
	infoEvent event.Event[StreamInfo]
	stopped   bool
}

// NewSocketStream wraps sock as a ByteIStream. maxPacketSize seeds both
// MaxPacketSize and RecPacketSize until a transport-specific negotiation (if
// any) updates them.
func NewSocketStream(ctx action.Context, sock *socket.Socket, maxPacketSize uint32) *SocketStream {
	s := &SocketStream{sock: sock}
	s.Action = action.New[SocketStream, *SocketStream](ctx, s)
	s.queue = NewSendQueueManager(ctx, sock)
	s.read = NewReadAction(ctx)
	s.info = StreamInfo{
		LinkState:     Unlinked,
		IsReliable:    true,
		MaxPacketSize: maxPacketSize,
		RecPacketSize: maxPacketSize,
	}

	sock.SetReadyToWrite(func() {
		s.queue.Retry()
		s.setWritable(true)
	})
	sock.SetRecvData(func(data []byte) { s.read.Push(data) })
	sock.SetError(func(error) { s.onLinkError() })

	return s
}

// Connect dials addr and transitions to Linked or LinkError once the
// underlying socket's own Connect completes.
func (s *SocketStream) Connect(addr netip.AddrPort) {
	s.sock.Connect(addr, func(err error) {
		if err != nil {
			s.onLinkError()
			return
		}
		s.info.LinkState = Linked
		s.info.IsWritable = true
		s.infoEvent.Emit(s.info)
	})
}

// Write implements [ByteIStream].
func (s *SocketStream) Write(data []byte) *WriteAction {
	return s.queue.Push(data)
}

// StreamUpdateEvent implements [ByteIStream].
func (s *SocketStream) StreamUpdateEvent() *event.Event[StreamInfo] {
	return &s.infoEvent
}

// OutDataEvent implements [ByteIStream].
func (s *SocketStream) OutDataEvent() *event.Event[[]byte] {
	return s.read.OutDataEvent()
}

// Restream implements [ByteIStream]: it disconnects the underlying socket
// immediately (reporting LinkError) and leaves reconnection to the caller,
// who is expected to call Connect again.
func (s *SocketStream) Restream() {
	s.sock.Disconnect()
	s.onLinkError()
}

func (s *SocketStream) onLinkError() {
	if s.info.LinkState == LinkError {
		return
	}
	s.info.LinkState = LinkError
	s.info.IsWritable = false
	s.infoEvent.Emit(s.info)
}

func (s *SocketStream) setWritable(w bool) {
	if s.info.IsWritable == w {
		return
	}
	s.info.IsWritable = w
	s.infoEvent.Emit(s.info)
}

// Update drains whatever the underlying socket's poller/dial goroutine left
// pending. SocketStream itself is long-lived infrastructure, not a
// terminating action, so it always reports Nothing; the queue and read
// actions it owns make their own progress as separately registered actions.
func (s *SocketStream) Update(aether.TimePoint) action.UpdateStatus {
	if s.stopped {
		return action.Stop()
	}
	s.sock.DispatchPending()
	return action.Nothing()
}

// Stop tears down outstanding writes and the inbound buffer, and
// disconnects the socket. SocketStream's own Action reports Stop in turn.
func (s *SocketStream) Stop() {
	if s.stopped {
		return
	}
	s.stopped = true
	s.queue.Stop()
	s.read.Stop()
	s.sock.Disconnect()
	s.Signal()
}
