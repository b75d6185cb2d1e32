// SPDX-License-Identifier: GPL-3.0-or-later

// Package action implements the cooperative single-threaded action
// scheduler: every asynchronous operation in this module (DNS resolution,
// socket connect, AT command round trips, safe-stream retransmission) is
// modeled as an action that a [Processor] ticks to completion rather than as
// a goroutine, so the whole stack runs predictably on one thread.
package action

import "github.com/aethernetio/aethergo"

// Kind is the terminal or non-terminal outcome of one action tick.
type Kind uint8

const (
	// KindNothing means the action has no new state; the scheduler should
	// tick it again on the next pass.
	KindNothing Kind = iota

	// KindDelay means the action has nothing to do until DelayTo; the
	// scheduler may skip it until then.
	KindDelay

	// KindResult is the successful terminal state.
	KindResult

	// KindError is the failed terminal state.
	KindError

	// KindStop is the cancelled terminal state.
	KindStop
)

// UpdateStatus is what an action's Update method returns each tick. It is
// the only channel through which an action communicates progress to the
// scheduler.
type UpdateStatus struct {
	Kind    Kind
	DelayTo aether.TimePoint
}

// Nothing reports that the action has no new state this tick.
func Nothing() UpdateStatus {
	return UpdateStatus{Kind: KindNothing}
}

// Delay reports that the action need not be ticked again before to.
func Delay(to aether.TimePoint) UpdateStatus {
	return UpdateStatus{Kind: KindDelay, DelayTo: to}
}

// Result reports successful completion.
func Result() UpdateStatus {
	return UpdateStatus{Kind: KindResult}
}

// Error reports failed completion.
func Error() UpdateStatus {
	return UpdateStatus{Kind: KindError}
}

// Stop reports cancelled completion.
func Stop() UpdateStatus {
	return UpdateStatus{Kind: KindStop}
}

// MergeStatus combines several update statuses into the status the
// scheduler should treat the whole group as, in priority order Error >
// Stop > Result > Delay (earliest) > Nothing. Used by composite actions
// (e.g. a pipeline stage waiting on several sub-actions) to fold their
// children's statuses into one.
func MergeStatus(statuses ...UpdateStatus) UpdateStatus {
	for _, s := range statuses {
		if s.Kind == KindError {
			return Error()
		}
	}
	for _, s := range statuses {
		if s.Kind == KindStop {
			return Stop()
		}
	}
	for _, s := range statuses {
		if s.Kind == KindResult {
			return Result()
		}
	}
	var (
		haveDelay bool
		earliest  aether.TimePoint
	)
	for _, s := range statuses {
		if s.Kind != KindDelay {
			continue
		}
		if !haveDelay || s.DelayTo.Before(earliest) {
			earliest = s.DelayTo
			haveDelay = true
		}
	}
	if haveDelay {
		return Delay(earliest)
	}
	return Nothing()
}
