// SPDX-License-Identifier: GPL-3.0-or-later

// Package aether provides the foundation shared by every package in this
// module: a monotonic [Clock], a ring-relative byte offset type
// ([SSRingIndex]), an owned byte buffer ([DataBuffer]), structured logging
// ([SLogger]), error classification ([ErrClassifier]), span correlation IDs
// ([NewSpanID]), and the common [Config] used to wire all of the above into
// the action scheduler, socket, stream, AT, modem, safestream, transport
// and resolve packages.
//
// # Observability
//
// [SLogger] accepts any [log/slog]-compatible handler; the default is a
// no-op so library code never writes to stdout/stderr unless a caller opts
// in. [ErrClassifier] maps an error to a short label (e.g. "ETIMEDOUT") for
// structured telemetry; [NewConfig] wires it to the errclass package's
// platform-aware classifier by default.
//
// # Timeouts
//
// Every timeout in this module is expressed as an absolute [TimePoint]
// deadline rather than a relative [Duration]; relative durations are
// converted to deadlines at the point where a wait is armed. [Clock] exists
// so tests can supply a fake time source instead of sleeping.
package aether
