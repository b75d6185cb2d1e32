// SPDX-License-Identifier: GPL-3.0-or-later

// Package util collects the small, dependency-free helpers the rest of this
// module reaches for repeatedly: a cancelable scope-exit guard, a
// changed-since-last-read state cell, and an ASCII numeric parser for AT
// command responses.
package util

// ScopeExit runs its callback once, normally via a deferred call to Run,
// unless Cancel is called first. Go has no destructors, so where the
// original uses a member whose destructor fires the cleanup, this module
// uses `defer util.Defer(fn).Run()` and calls Cancel when the cleanup turns
// out to be unnecessary (e.g. a setup function that succeeded and handed
// off ownership to something else).
type ScopeExit struct {
	fn func()
}

// Defer wraps fn in a [*ScopeExit].
func Defer(fn func()) *ScopeExit {
	return &ScopeExit{fn: fn}
}

// Run invokes the callback if it has not been canceled. Safe to call more
// than once; only the first call has any effect.
func (s *ScopeExit) Run() {
	if s.fn != nil {
		fn := s.fn
		s.fn = nil
		fn()
	}
}

// Cancel prevents Run from invoking the callback.
func (s *ScopeExit) Cancel() {
	s.fn = nil
}
