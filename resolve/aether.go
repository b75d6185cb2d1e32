// SPDX-License-Identifier: GPL-3.0-or-later

package resolve

import "github.com/aethernetio/aethergo"

// Config, ErrClassifier, SLogger and Unit live in the aether root package so
// that every other package in the module shares one definition. This package
// aliases them locally since the dial/handshake/DNS-exchange machinery below
// was written against the unqualified names.
type (
	Config        = aether.Config
	ErrClassifier = aether.ErrClassifier
	SLogger       = aether.SLogger
	Unit          = aether.Unit
)

var (
	NewConfig            = aether.NewConfig
	DefaultErrClassifier = aether.DefaultErrClassifier
	DefaultSLogger       = aether.DefaultSLogger
	NewSpanID            = aether.NewSpanID
)
