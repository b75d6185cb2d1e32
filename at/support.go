// SPDX-License-Identifier: GPL-3.0-or-later

package at

import (
	"errors"
	"strconv"

	"github.com/aethernetio/aethergo"
	"github.com/aethernetio/aethergo/action"
	"github.com/aethernetio/aethergo/event"
)

// SerialPort is the contract a modem's AT command channel is built on.
type SerialPort interface {
	// IsOpen reports whether the port currently accepts writes.
	IsOpen() bool

	// Write sends data without blocking the caller.
	Write(data []byte) error

	// ReadEvent emits each chunk of inbound data, in arrival order.
	ReadEvent() *event.Event[[]byte]
}

// ErrPortNotOpen is returned (wrapped in a failed [WriteAction]) when
// SendCommand is called on a closed port.
var ErrPortNotOpen = errors.New("at: serial port not open")

// WriteAction reports the outcome of one [Support.SendCommand] write: a
// single AT write either succeeds or fails outright, unlike
// [stream.WriteAction]'s incremental accumulation, so it always resolves on
// its first tick.
type WriteAction struct {
	action.Action[WriteAction, *WriteAction]
	err error
}

func newWriteAction(ctx action.Context, err error) *WriteAction {
	w := &WriteAction{err: err}
	w.Action = action.New[WriteAction, *WriteAction](ctx, w)
	return w
}

func (w *WriteAction) Update(aether.TimePoint) action.UpdateStatus {
	if w.err != nil {
		return action.Error()
	}
	return action.Result()
}

// Support wires a [SerialPort] to a [Buffer] and [Dispatcher] and is the
// entry point most AT command code uses: SendCommand for fire-and-forget
// writes, MakeRequest for a write plus expected responses.
type Support struct {
	ctx        action.Context
	serial     SerialPort
	Buffer     *Buffer
	Dispatcher *Dispatcher
}

// NewSupport wires serial's inbound data into a fresh [Buffer]/[Dispatcher]
// pair.
func NewSupport(ctx action.Context, serial SerialPort) *Support {
	buf := NewBuffer()
	s := &Support{ctx: ctx, serial: serial, Buffer: buf, Dispatcher: NewDispatcher(buf)}
	serial.ReadEvent().Subscribe(buf.Feed)
	return s
}

// SendCommand appends "\r\n" to command and writes it, returning an action
// that reports Result on a successful write or Error otherwise (including
// when the port is closed).
func (s *Support) SendCommand(command string) *WriteAction {
	if !s.serial.IsOpen() {
		return newWriteAction(s.ctx, ErrPortNotOpen)
	}
	data := make([]byte, 0, len(command)+2)
	data = append(data, command...)
	data = append(data, '\r', '\n')
	return newWriteAction(s.ctx, s.serial.Write(data))
}

// MakeRequest issues command via SendCommand and waits on waits. Returns nil
// if the port is closed, matching the original's empty-ActionPtr-on-closed-
// port behavior.
func (s *Support) MakeRequest(command string, waits ...Wait) *Request {
	if !s.serial.IsOpen() {
		return nil
	}
	send := func() action.StatusNotifier { return s.SendCommand(command) }
	return NewRequest(s.ctx, s.Dispatcher, send, waits)
}

// ListenForResponse registers a long-lived observer for expected; the
// returned [Listener] must be Closed when no longer needed.
func (s *Support) ListenForResponse(expected string, handler func(buf *Buffer, pos Iterator)) *Listener {
	return NewListener(s.Dispatcher, expected, handler)
}

// PinToString renders pin as a decimal string, or "" if it exceeds the
// four-digit range AT PIN fields accept.
func PinToString(pin uint16) string {
	const maxPin = 9999
	if pin > maxPin {
		return ""
	}
	return strconv.FormatUint(uint64(pin), 10)
}
