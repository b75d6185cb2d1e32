// SPDX-License-Identifier: GPL-3.0-or-later

package modem

import (
	"time"

	"github.com/aethernetio/aethergo"
	"github.com/aethernetio/aethergo/action"
	"github.com/aethernetio/aethergo/at"
	"github.com/aethernetio/aethergo/event"
	"github.com/aethernetio/aethergo/pipeline"
)

// Driver owns one serial port (through [at.Support]), one stoppable
// operation queue that serializes every AT sequence so initialization,
// connection opening, writes and reads never interleave on the wire, and a
// connection-index table. Grounded on
// original_source/aether/modems/imodem_driver.h's IModemDriver contract; the
// serialization queue is grounded on the same original's textual invariant
// ("All AT I/O for a single modem passes through operation_queue_") rather
// than a named original type, and reuses this module's own
// [pipeline.Queue].
type Driver struct {
	ctx           action.Context
	support       *at.Support
	cmds          CommandSet
	queue         *pipeline.Queue
	maxPacketSize int

	connections map[ConnectionIndex]struct{}

	listener         *at.Listener
	unsolicitedEvent event.Event[[]byte]
}

// NewDriver wires support and cmds into a Driver. maxPacketSize bounds
// WritePacket and is also used as the read-crate size cap for both polled
// and unsolicited reads.
func NewDriver(ctx action.Context, support *at.Support, cmds CommandSet, maxPacketSize int) *Driver {
	d := &Driver{
		ctx:           ctx,
		support:       support,
		cmds:          cmds,
		queue:         pipeline.NewQueue(ctx),
		maxPacketSize: maxPacketSize,
		connections:   make(map[ConnectionIndex]struct{}),
	}
	if cmds.UnsolicitedRecvPrefix != "" {
		d.listener = support.ListenForResponse(cmds.UnsolicitedRecvPrefix, d.onUnsolicited)
	}
	return d
}

// Close releases the unsolicited-receive listener, if one was registered.
func (d *Driver) Close() {
	if d.listener != nil {
		d.listener.Close()
	}
}

// UnsolicitedDataEvent emits the matched response line (prefix included)
// every time the modem reports unsolicited receive data, for drivers whose
// CommandSet sets UnsolicitedRecvPrefix. Routing a single unsolicited
// notification to the right ConnectionIndex is vendor-specific wire framing
// this module does not decode (see DESIGN.md); a [Transport] over a driver
// with more than one simultaneously open connection cannot rely on this
// event alone and must poll via ReadPacket instead.
func (d *Driver) UnsolicitedDataEvent() *event.Event[[]byte] {
	return &d.unsolicitedEvent
}

func (d *Driver) onUnsolicited(buf *at.Buffer, pos at.Iterator) {
	line := buf.GetCrate(d.maxPacketSize, 0, pos)
	d.unsolicitedEvent.Emit(line)
}

// operation is the handle every Driver method returns: it gates its inner
// [pipeline.StageAction] until the operation queue reaches its turn, then
// forwards that action's terminal outcome. This is the same
// started-bool-gate idiom [at.Request] uses for its own MakeRequest step,
// one level up.
type operation struct {
	action.Action[operation, *operation]

	ctx      action.Context
	build    func(ctx action.Context) pipeline.StageAction
	onResult func()

	started      bool
	inner        pipeline.StageAction
	sub          event.Subscription
	done, failed bool
}

func newOperation(ctx action.Context, build func(ctx action.Context) pipeline.StageAction, onResult func()) *operation {
	o := &operation{ctx: ctx, build: build, onResult: onResult}
	o.Action = action.New[operation, *operation](ctx, o)
	return o
}

func newFailedOperation(ctx action.Context) *operation {
	o := &operation{ctx: ctx, started: true, done: true, failed: true}
	o.Action = action.New[operation, *operation](ctx, o)
	return o
}

func (o *operation) begin() {
	if o.started {
		return
	}
	o.started = true
	o.inner = o.build(o.ctx)
	if o.inner == nil {
		o.failed = true
		o.done = true
		o.Signal()
		return
	}
	o.sub = event.Combine(
		o.inner.OnResult(func() {
			if o.onResult != nil {
				o.onResult()
			}
			o.done = true
			o.Signal()
		}),
		o.inner.OnError(func() {
			o.done = true
			o.failed = true
			o.Signal()
		}),
	)
}

func (o *operation) Update(aether.TimePoint) action.UpdateStatus {
	if !o.started {
		return action.Nothing()
	}
	if o.done {
		if o.failed {
			return action.Error()
		}
		return action.Result()
	}
	return action.Nothing()
}

// enqueue pushes build onto the operation queue and returns a handle that
// resolves once build's action (constructed only when the queue reaches
// it) reaches a terminal state.
func (d *Driver) enqueue(build func(ctx action.Context) pipeline.StageAction, onResult func()) *operation {
	op := newOperation(d.ctx, build, onResult)
	d.queue.Push(func(ctx action.Context) pipeline.StageAction {
		op.begin()
		return op
	})
	return op
}

// request issues step as a pipeline stage. A closed port makes MakeRequest
// return a nil *at.Request, which is passed on as an untyped nil so that the
// nil checks in operation.begin and the pipeline see the failure.
func (d *Driver) request(step Step) pipeline.StageAction {
	if r := d.support.MakeRequest(step.Command, step.Waits...); r != nil {
		return r
	}
	return nil
}

// Start runs cmds.Init as one serialized sequence occupying a single slot
// in the operation queue; any stage failing fails the whole Start.
func (d *Driver) Start() *operation {
	return d.enqueue(func(ctx action.Context) pipeline.StageAction {
		stages := make([]pipeline.Stage, len(d.cmds.Init))
		for i, step := range d.cmds.Init {
			step := step
			stages[i] = func(action.Context) pipeline.StageAction {
				return d.request(step)
			}
		}
		return pipeline.New(ctx, stages...)
	}, nil)
}

// OpenNetwork runs cmds.OpenNetwork(protocol, host, port) and, on success,
// allocates the next ConnectionIndex. Call Index after the operation
// reports Result.
type OpenNetworkAction struct {
	*operation
	index ConnectionIndex
}

// Index returns the allocated connection index. Only valid after
// OpenNetworkAction reports Result.
func (o *OpenNetworkAction) Index() ConnectionIndex { return o.index }

func (d *Driver) OpenNetwork(protocol Protocol, host string, port uint16) *OpenNetworkAction {
	act := &OpenNetworkAction{index: InvalidConnectionIndex}
	act.operation = d.enqueue(func(ctx action.Context) pipeline.StageAction {
		step := d.cmds.OpenNetwork(protocol, host, port)
		return d.request(step)
	}, func() {
		act.index = d.allocateIndex()
	})
	return act
}

// CloseNetwork runs cmds.CloseNetwork(idx) and, on success, frees idx for
// reuse.
func (d *Driver) CloseNetwork(idx ConnectionIndex) *operation {
	return d.enqueue(func(ctx action.Context) pipeline.StageAction {
		step := d.cmds.CloseNetwork(idx)
		return d.request(step)
	}, func() {
		d.freeIndex(idx)
	})
}

// WritePacket runs cmds.WritePacket(idx, data); data longer than the
// driver's maxPacketSize is rejected as Error without ever touching the
// wire.
func (d *Driver) WritePacket(idx ConnectionIndex, data []byte) *operation {
	if len(data) > d.maxPacketSize {
		return newFailedOperation(d.ctx)
	}
	return d.enqueue(func(ctx action.Context) pipeline.StageAction {
		step := d.cmds.WritePacket(idx, data)
		return d.request(step)
	}, nil)
}

// ReadPacketAction runs cmds.ReadPacket(idx) and captures the bytes of the
// line that satisfied the step's first wait.
type ReadPacketAction struct {
	action.Action[ReadPacketAction, *ReadPacketAction]

	driver  *Driver
	idx     ConnectionIndex
	timeout time.Duration

	started      bool
	req          *at.Request
	sub          event.Subscription
	done, failed bool
	data         []byte
}

// Data returns the bytes captured from the response, valid after Result.
func (a *ReadPacketAction) Data() []byte { return a.data }

func (d *Driver) ReadPacket(idx ConnectionIndex, timeout time.Duration) *ReadPacketAction {
	act := &ReadPacketAction{driver: d, idx: idx, timeout: timeout}
	act.Action = action.New[ReadPacketAction, *ReadPacketAction](d.ctx, act)
	d.queue.Push(func(ctx action.Context) pipeline.StageAction {
		act.begin()
		return act
	})
	return act
}

func (a *ReadPacketAction) begin() {
	if a.started {
		return
	}
	a.started = true
	step := a.driver.cmds.ReadPacket(a.idx)
	waits := make([]at.Wait, len(step.Waits))
	for i, w := range step.Waits {
		w := w
		if w.Timeout == 0 {
			w.Timeout = a.timeout
		}
		orig := w.Handler
		// Only the first wait captures response bytes: CommandSet.ReadPacket
		// names the data-bearing response (e.g. "+CRECV") first and any
		// trailing wait (typically a bare "OK") never carries the payload,
		// so wrapping every wait would let the last one to fire overwrite
		// the real data with whatever follows it in the buffer.
		capture := i == 0
		waits[i] = at.Wait{
			Expected: w.Expected,
			Timeout:  w.Timeout,
			Handler: func(buf *at.Buffer, pos at.Iterator) bool {
				if orig != nil && !orig(buf, pos) {
					return false
				}
				if capture {
					a.data = append(a.data[:0], buf.GetCrate(a.driver.maxPacketSize, 0, pos)...)
				}
				return true
			},
		}
	}
	a.req = a.driver.support.MakeRequest(step.Command, waits...)
	if a.req == nil {
		a.failed = true
		a.done = true
		a.Signal()
		return
	}
	a.sub = event.Combine(
		a.req.OnResult(func() { a.done = true; a.Signal() }),
		a.req.OnError(func() { a.done = true; a.failed = true; a.Signal() }),
	)
}

func (a *ReadPacketAction) Update(aether.TimePoint) action.UpdateStatus {
	if !a.started {
		return action.Nothing()
	}
	if a.done {
		if a.failed {
			return action.Error()
		}
		return action.Result()
	}
	return action.Nothing()
}

// allocateIndex hands out the lowest index not currently in the table, so
// an index freed by CloseNetwork is reused by the next OpenNetwork.
func (d *Driver) allocateIndex() ConnectionIndex {
	idx := ConnectionIndex(0)
	for {
		if _, used := d.connections[idx]; !used {
			break
		}
		idx++
	}
	d.connections[idx] = struct{}{}
	return idx
}

func (d *Driver) freeIndex(idx ConnectionIndex) {
	delete(d.connections, idx)
}
