// SPDX-License-Identifier: GPL-3.0-or-later

package transport

import (
	"github.com/aethernetio/aethergo/action"
	"github.com/aethernetio/aethergo/event"
	"github.com/aethernetio/aethergo/modem"
	"github.com/aethernetio/aethergo/pipeline"
)

// ModemAccessPoint owns the single [*modem.Driver] shared by every
// [ModemChannel] dialing through this modem. Grounded on
// original_source/aether/access_points/modem_access_point.{h,cpp}.
type ModemAccessPoint struct {
	ctx    action.Context
	driver *modem.Driver

	connect    pipeline.StageAction
	connectSub event.Subscription
}

// NewModemAccessPoint wraps driver, the modem's serialized AT command
// engine, as an access point channels can share.
func NewModemAccessPoint(ctx action.Context, driver *modem.Driver) *ModemAccessPoint {
	return &ModemAccessPoint{ctx: ctx, driver: driver}
}

// Driver returns the underlying modem driver, e.g. for [ModemChannel] to
// build a [modem.Transport] on once connected.
func (ap *ModemAccessPoint) Driver() *modem.Driver { return ap.driver }

// Connect starts (or reuses) the modem's init sequence. Concurrent calls
// while one is already in flight share the same action, so two channels
// racing to bring up the same modem never issue the init sequence twice;
// the shared action is dropped from ap once it reaches a terminal state, so
// the next Connect call after that starts a fresh one. Grounded on
// ModemAccessPoint::Connect's "reuse connect action if it's in progress"
// comment.
func (ap *ModemAccessPoint) Connect() pipeline.StageAction {
	if ap.connect == nil {
		act := ap.driver.Start()
		ap.connect = act
		ap.connectSub = act.FinishedEvent().Subscribe(func(struct{}) {
			ap.connect = nil
		})
	}
	return ap.connect
}
