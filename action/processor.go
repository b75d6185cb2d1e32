// SPDX-License-Identifier: GPL-3.0-or-later

package action

import "github.com/aethernetio/aethergo"

// Processor ticks every registered action once per call to [*Processor.Update]
// and reports when it should be called again. It is the single point a host
// loop drives; everything else in this module reaches the scheduler only
// through a [Context] handed down from a Processor.
type Processor struct {
	registry Registry
	trigger  Trigger
}

// NewProcessor returns a new, empty [*Processor].
func NewProcessor() *Processor {
	return &Processor{trigger: *NewTrigger()}
}

// Registry returns the processor's action registry.
func (p *Processor) Registry() *Registry {
	return &p.registry
}

// Trigger returns the processor's wakeup signal.
func (p *Processor) Trigger() *Trigger {
	return &p.trigger
}

// Context returns the [Context] new actions should register through.
func (p *Processor) Context() Context {
	return Context{Registry: &p.registry, Trigger: &p.trigger}
}

// Update ticks every currently-registered action once and returns the
// earliest time the processor should be ticked again. A host loop typically
// calls Update, then sleeps (or blocks on [*Trigger.WaitUntil]) until the
// returned time or an earlier trigger signal, whichever comes first.
func (p *Processor) Update(now aether.TimePoint) aether.TimePoint {
	next := now
	for _, a := range p.registry.Snapshot() {
		newTime := a.Tick(now)
		next = selectNextUpdate(newTime, next, now)
	}
	p.registry.removeFinished()
	return next
}

// selectNextUpdate folds one action's requested next-tick time into the
// running minimum, matching the original's ActionProcessor::SelectNextUpdate:
// any time in the future beats "no preference" (old_time == current_time),
// and the earliest future time wins; if nothing asked for the future, stay
// at whichever of old/current is latest so the loop never schedules itself
// into the past.
func selectNextUpdate(newTime, oldTime, current aether.TimePoint) aether.TimePoint {
	if newTime.After(current) {
		if !oldTime.Equal(current) {
			if newTime.Before(oldTime) {
				return newTime
			}
			return oldTime
		}
		return newTime
	}
	if oldTime.After(current) {
		return oldTime
	}
	return current
}
