// SPDX-License-Identifier: GPL-3.0-or-later

package aether

import "time"

// TimePoint is a monotonic-safe instant, used throughout the action
// scheduler and the wait-timeout bookkeeping in the at and modem packages.
type TimePoint = time.Time

// Duration is an elapsed amount of time.
type Duration = time.Duration

// Clock abstracts [time.Now] so that schedulers and timeout logic can be
// driven by a fake clock in tests instead of real sleeps.
type Clock func() TimePoint

// SystemClock returns the wall-clock [Clock] backed by [time.Now].
func SystemClock() Clock {
	return time.Now
}
