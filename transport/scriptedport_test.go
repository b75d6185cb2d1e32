// SPDX-License-Identifier: GPL-3.0-or-later

package transport

import (
	"strings"
	"testing"
	"time"

	"github.com/aethernetio/aethergo/action"
	"github.com/aethernetio/aethergo/at"
	"github.com/aethernetio/aethergo/event"
	"github.com/aethernetio/aethergo/modem"
)

// scriptedPort is an [at.SerialPort] fake that replies to a command
// containing substr with a fixed response, mirroring modem package's own
// test fixture (unexported there, so reconstructed here against at's public
// SerialPort contract).
type scriptedPort struct {
	open    bool
	read    event.Event[[]byte]
	replies map[string]string
}

func newScriptedPort() *scriptedPort {
	return &scriptedPort{open: true, replies: make(map[string]string)}
}

func (p *scriptedPort) on(substr, response string) { p.replies[substr] = response }

func (p *scriptedPort) IsOpen() bool { return p.open }

func (p *scriptedPort) Write(data []byte) error {
	cmd := strings.TrimRight(string(data), "\r\n")
	for substr, resp := range p.replies {
		if strings.Contains(cmd, substr) {
			for _, line := range strings.Split(resp, "\n") {
				p.read.Emit([]byte(line + "\r\n"))
			}
			break
		}
	}
	return nil
}

func (p *scriptedPort) ReadEvent() *event.Event[[]byte] { return &p.read }

func newModemFixture(t *testing.T) (*action.Processor, *scriptedPort, *modem.Driver) {
	t.Helper()
	ap := action.NewProcessor()
	port := newScriptedPort()
	port.on("ATE0", "OK")
	port.on("AT+CMEE=1", "OK")
	port.on("AT+CPIN?", "+CPIN: READY\r\nOK")
	port.on("AT+CREG?", "+CREG: 0,1\r\nOK")
	port.on("AT+COPEN", "CONNECT\r\nOK")
	port.on("AT+CCLOSE", "OK")
	port.on("AT+CSEND", "OK")
	support := at.NewSupport(ap.Context(), port)
	cmds := modem.NewGenericCommandSet(time.Second)
	driver := modem.NewDriver(ap.Context(), support, cmds, 1024)
	return ap, port, driver
}

func pump(t *testing.T, ap *action.Processor, done func() bool) {
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
