// SPDX-License-Identifier: GPL-3.0-or-later

// Package pipeline runs ordered sequences of actions where each constituent
// action's concrete type is allowed to differ from its neighbours' — a
// connection handshake followed by a TLS upgrade followed by a protocol
// probe, say. The original expresses this with a compile-time heterogeneous
// tuple (Pipeline<TStages...>) and dispatches into it by index; Go has no
// type-safe heterogeneous variadic tuple, so stages here are type-erased
// behind the [Stage] factory signature instead, and stored in a plain slice.
// Nothing a [Pipeline] or [Queue] does needs a stage's concrete type once
// it's running — only its terminal event.
package pipeline

import (
	"github.com/aethernetio/aethergo"
	"github.com/aethernetio/aethergo/action"
	"github.com/aethernetio/aethergo/event"
)

// StageAction is what a stage's constructed action must support: the
// terminal-event surface every [action.Action] exposes regardless of its
// concrete embedding type. A stage factory is free to return any action type
// so long as it embeds action.Action[T, PT] (which satisfies this
// automatically), so [Pipeline] and [Queue] never need to know what kind of
// action each stage actually runs.
type StageAction interface {
	action.StatusNotifier
	FinishedEvent() *event.Event[struct{}]
}

// Stage constructs (and, by virtue of [action.New], registers) the action
// for one pipeline step. It is called lazily, only once the pipeline
// actually reaches that step — mirroring the original's StageRunner.Run,
// called the instant before the stage plays. A nil return means construction
// failed and the step should be treated as an error.
type Stage func(ctx action.Context) StageAction

// State is a [Pipeline]'s own lifecycle, independent of any single stage's.
type State uint8

const (
	StateStart State = iota
	StateRunning
	StateCompleted
	StateStopped
	StateFailed
)

// Pipeline runs a fixed, ordered sequence of [Stage] factories strictly in
// order: the next stage starts only once the current one reports Result.
// The first Error or Stop from any stage ends the whole pipeline with that
// same outcome.
type Pipeline struct {
	action.Action[Pipeline, *Pipeline]

	ctx    action.Context
	stages []Stage

	index  int
	state  State
	cur    StageAction
	curSub event.Subscription
}

// New constructs a [Pipeline] over stages, run in the given order.
func New(ctx action.Context, stages ...Stage) *Pipeline {
	p := &Pipeline{ctx: ctx, stages: stages}
	p.Action = action.New[Pipeline, *Pipeline](ctx, p)
	return p
}

// Index returns the index of the stage currently running (or last run).
func (p *Pipeline) Index() int { return p.index }

// Count returns the total number of stages.
func (p *Pipeline) Count() int { return len(p.stages) }

func (p *Pipeline) Update(aether.TimePoint) action.UpdateStatus {
	switch p.state {
	case StateStart:
		p.start()
	case StateCompleted:
		return action.Result()
	case StateStopped:
		return action.Stop()
	case StateFailed:
		return action.Error()
	}
	return action.Nothing()
}

func (p *Pipeline) start() {
	p.index = 0
	p.state = StateRunning
	p.runStage()
}

func (p *Pipeline) runStage() {
	stage := p.stages[p.index]
	act := stage(p.ctx)
	if act == nil {
		p.state = StateFailed
		p.Signal()
		return
	}
	p.cur = act
	p.curSub = event.Combine(
		act.OnResult(p.nextStage),
		act.OnError(p.fail),
		act.OnStop(p.stopped),
	)
}

func (p *Pipeline) nextStage() {
	p.index++
	if p.index == len(p.stages) {
		p.state = StateCompleted
		p.Signal()
		return
	}
	p.runStage()
}

func (p *Pipeline) fail() {
	p.state = StateFailed
	p.Signal()
}

func (p *Pipeline) stopped() {
	p.state = StateStopped
	p.Signal()
}

// Stop cancels the pipeline. If the currently running stage implements
// [action.Stoppable], it is asked to stop and the pipeline transitions once
// that stage reports its own Stop; otherwise there is nothing to ask, so the
// pipeline abandons the running stage's subscription and stops immediately.
func (p *Pipeline) Stop() {
	if p.state != StateRunning {
		p.state = StateStopped
		p.Signal()
		return
	}
	if s, ok := p.cur.(action.Stoppable); ok {
		s.Stop()
		return
	}
	p.curSub.Unsubscribe()
	p.state = StateStopped
	p.Signal()
}
