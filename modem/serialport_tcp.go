// SPDX-License-Identifier: GPL-3.0-or-later

package modem

import (
	"io"
	"net"
	"sync/atomic"

	"github.com/aethernetio/aethergo/event"
)

// TCPSerialPort implements [at.SerialPort] over a [net.Conn], for testing
// the AT engine against a simulated modem and for modems exposed over a
// TCP-to-serial bridge. Grounded on the teacher's net.Conn-centric style
// throughout resolve/connect.go and resolve/observeconn.go; unlike those
// files this type owns a persistent read loop rather than a one-shot dial,
// since a serial port's ReadEvent must keep emitting for the connection's
// whole lifetime.
type TCPSerialPort struct {
	conn   net.Conn
	open   atomic.Bool
	read   event.Event[[]byte]
	closed chan struct{}
}

// NewTCPSerialPort spawns a background goroutine that reads from conn and
// emits every chunk read through ReadEvent, until conn is closed or a read
// error occurs. The goroutine is the only writer to the ReadEvent; emission
// happens on that goroutine, matching the poller's "callbacks run on a
// worker thread, do minimal work, call Trigger" discipline — ReadEvent
// subscribers (ultimately [at.Buffer.Feed]) must not block.
func NewTCPSerialPort(conn net.Conn) *TCPSerialPort {
	p := &TCPSerialPort{conn: conn, closed: make(chan struct{})}
	p.open.Store(true)
	go p.readLoop()
	return p
}

func (p *TCPSerialPort) readLoop() {
	buf := make([]byte, 4096)
	for {
		n, err := p.conn.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			p.read.Emit(chunk)
		}
		if err != nil {
			p.open.Store(false)
			close(p.closed)
			return
		}
	}
}

// IsOpen implements [at.SerialPort].
func (p *TCPSerialPort) IsOpen() bool { return p.open.Load() }

// Write implements [at.SerialPort].
func (p *TCPSerialPort) Write(data []byte) error {
	if !p.IsOpen() {
		return io.ErrClosedPipe
	}
	_, err := p.conn.Write(data)
	return err
}

// ReadEvent implements [at.SerialPort].
func (p *TCPSerialPort) ReadEvent() *event.Event[[]byte] { return &p.read }

// Done returns a channel closed once the read loop has exited, useful for
// tests that need to know the port has fully shut down.
func (p *TCPSerialPort) Done() <-chan struct{} { return p.closed }

// Close closes the underlying connection. Safe to call more than once.
func (p *TCPSerialPort) Close() error {
	if !p.open.CompareAndSwap(true, false) {
		return nil
	}
	return p.conn.Close()
}
