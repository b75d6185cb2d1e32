// SPDX-License-Identifier: GPL-3.0-or-later

package modem

import (
	"strings"
	"testing"
	"time"

	"github.com/aethernetio/aethergo/action"
	"github.com/aethernetio/aethergo/at"
	"github.com/aethernetio/aethergo/event"
)

// scriptedPort is an [at.SerialPort] that replies to each write with a fixed
// response line, keyed by a substring of the command (AT+CSEND=0,3 and
// AT+CSEND=0,5 both match on "AT+CSEND", so one entry covers every call
// shape a CommandSet step builds). Replies are fed back through ReadEvent
// synchronously, from inside Write, so a Request sees its responses before
// the write action for its command has reported Result.
type scriptedPort struct {
	open    bool
	read    event.Event[[]byte]
	replies map[string]string
	writes  []string
}

func newScriptedPort() *scriptedPort {
	return &scriptedPort{open: true, replies: make(map[string]string)}
}

func (p *scriptedPort) on(substr, response string) { p.replies[substr] = response }

func (p *scriptedPort) IsOpen() bool { return p.open }

func (p *scriptedPort) Write(data []byte) error {
	cmd := strings.TrimRight(string(data), "\r\n")
	p.writes = append(p.writes, cmd)
	for substr, resp := range p.replies {
		if strings.Contains(cmd, substr) {
			// Emit one line per Feed call: the dispatcher only examines one
			// newly-arrived window per call, so a multi-line reply (e.g.
			// "+CPIN: READY" then "OK") must arrive as separate events for
			// each wait to be observed in turn.
			for _, line := range strings.Split(resp, "\n") {
				p.read.Emit([]byte(line + "\r\n"))
			}
			break
		}
	}
	return nil
}

func (p *scriptedPort) ReadEvent() *event.Event[[]byte] { return &p.read }

func newDriverFixture(t *testing.T) (*action.Processor, *scriptedPort, *Driver) {
	t.Helper()
	ap := action.NewProcessor()
	port := newScriptedPort()
	support := at.NewSupport(ap.Context(), port)
	cmds := NewGenericCommandSet(time.Second)
	driver := NewDriver(ap.Context(), support, cmds, 64)
	return ap, port, driver
}

func pumpDriver(t *testing.T, ap *action.Processor, done func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	now := time.Now()
	for !done() {
		if time.Now().After(deadline) {
			t.Fatal("condition was not met before the deadline")
		}
		now = now.Add(10 * time.Millisecond)
		ap.Update(now)
	}
}

type statusOutcome struct {
	result, failed bool
}

func subscribeStatus(n action.StatusNotifier, o *statusOutcome) {
	n.OnResult(func() { o.result = true })
	n.OnError(func() { o.failed = true })
}
