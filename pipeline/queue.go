// SPDX-License-Identifier: GPL-3.0-or-later

package pipeline

import (
	"github.com/aethernetio/aethergo"
	"github.com/aethernetio/aethergo/action"
	"github.com/aethernetio/aethergo/event"
)

// Queue is a FIFO of [Stage] factories, run one at a time, that stages can
// push more work onto while the queue is alive (unlike [Pipeline], whose
// stage list is fixed at construction). Unlike Pipeline, a stage ending in
// Error does not stop the queue — the queue only cares that a stage
// finished, not how, and moves straight on to the next one. The queue only
// ever reports its own terminal Stop, and only once asked.
type Queue struct {
	action.Action[Queue, *Queue]

	ctx     action.Context
	pending []Stage
	running StageAction
	sub     event.Subscription
	stopped bool
}

// NewQueue constructs an empty [Queue]. Stages are added with [Queue.Push].
func NewQueue(ctx action.Context) *Queue {
	q := &Queue{ctx: ctx}
	q.Action = action.New[Queue, *Queue](ctx, q)
	return q
}

func (q *Queue) Update(aether.TimePoint) action.UpdateStatus {
	if q.stopped {
		return action.Stop()
	}
	return action.Nothing()
}

// Push appends a stage to the queue, starting it immediately if nothing is
// currently running.
func (q *Queue) Push(stage Stage) {
	q.pending = append(q.pending, stage)
	if q.running == nil {
		q.runNext()
	}
}

// runNext pulls stages off the front of the queue until one constructs
// successfully (a nil stage action is skipped, not treated as an error) or
// the queue runs dry.
func (q *Queue) runNext() {
	for len(q.pending) > 0 {
		stage := q.pending[0]
		q.pending = q.pending[1:]

		act := stage(q.ctx)
		if act == nil {
			continue
		}
		q.running = act
		q.sub = act.FinishedEvent().Subscribe(func(struct{}) { q.advance() })
		return
	}
	q.running = nil
}

func (q *Queue) advance() {
	q.running = nil
	q.runNext()
}

// Stop drops every queued stage that hasn't started yet, asks the currently
// running stage to stop if it supports that, and marks the queue itself
// stopped regardless of whether the running stage could actually be
// cancelled.
func (q *Queue) Stop() {
	q.pending = nil
	if q.running != nil {
		if s, ok := q.running.(action.Stoppable); ok {
			s.Stop()
		}
	}
	q.stopped = true
	q.Signal()
}
