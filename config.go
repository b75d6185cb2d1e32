// SPDX-License-Identifier: GPL-3.0-or-later

package aether

import (
	"context"
	"net"
	"time"

	"github.com/aethernetio/aethergo/errclass"
)

// Dialer abstracts [*net.Dialer] for the resolve package's connect stage.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Config holds common configuration shared by every package in this module.
//
// Pass this to constructor functions to pre-wire dependencies. All fields
// have sensible defaults set by [NewConfig].
type Config struct {
	// Dialer is used by the resolve package's connect stage.
	//
	// Set by [NewConfig] to [*net.Dialer].
	Dialer Dialer

	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewConfig] to the errclass package's platform classifier.
	ErrClassifier ErrClassifier

	// Logger receives structured lifecycle and I/O events.
	//
	// Set by [NewConfig] to [DefaultSLogger].
	Logger SLogger

	// TimeNow returns the current time.
	//
	// Set by [NewConfig] to [time.Now].
	TimeNow func() time.Time

	// ATLineTimeout bounds how long an AT request waits for each expected
	// response line before the wait is considered timed out.
	//
	// Set by [NewConfig] to 5 seconds.
	ATLineTimeout time.Duration

	// ModemMTU is the maximum packet size a modem transport reports.
	//
	// Set by [NewConfig] to 1500.
	ModemMTU int

	// SafeStreamRingBits sizes the ring-index arithmetic used by the
	// safestream package's chunk bookkeeping (the ring wraps at 2^bits).
	//
	// Set by [NewConfig] to 16.
	SafeStreamRingBits uint
}

// NewConfig creates a [*Config] with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Dialer:             &net.Dialer{},
		ErrClassifier:      ErrClassifierFunc(errclass.New),
		Logger:             DefaultSLogger(),
		TimeNow:            time.Now,
		ATLineTimeout:      5 * time.Second,
		ModemMTU:           1500,
		SafeStreamRingBits: 16,
	}
}
