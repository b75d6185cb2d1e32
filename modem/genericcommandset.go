// SPDX-License-Identifier: GPL-3.0-or-later

package modem

import (
	"fmt"
	"time"
)

// NewGenericCommandSet returns a [CommandSet] built from the AT/OK/ERROR
// vocabulary common to SIM7070, BG95 and Thingy91x (see
// original_source/aether/modems/{sim7070,bg95,thingy91x}_at_modem.{h,cpp}),
// without encoding any single vendor's exact command strings or response
// framing. It is enough to drive [Driver]'s tests end-to-end; a real
// backend supplies its own CommandSet built the same way. lineTimeout
// bounds every Wait's timeout.
func NewGenericCommandSet(lineTimeout time.Duration) CommandSet {
	ok := func(extra ...Wait) []Wait {
		waits := append([]Wait{}, extra...)
		waits = append(waits, Wait{Expected: "OK", Timeout: lineTimeout})
		return waits
	}

	return CommandSet{
		Init: []Step{
			{Command: "ATE0", Waits: ok()},
			{Command: "AT+CMEE=1", Waits: ok()},
			{Command: "AT+CPIN?", Waits: ok(Wait{Expected: "+CPIN", Timeout: lineTimeout})},
			{Command: "AT+CREG?", Waits: ok(Wait{Expected: "+CREG", Timeout: lineTimeout})},
		},
		OpenNetwork: func(protocol Protocol, host string, port uint16) Step {
			return Step{
				Command: fmt.Sprintf("AT+COPEN=%q,%q,%d", protocol, host, port),
				Waits:   ok(Wait{Expected: "CONNECT", Timeout: lineTimeout}),
			}
		},
		CloseNetwork: func(idx ConnectionIndex) Step {
			return Step{Command: fmt.Sprintf("AT+CCLOSE=%d", idx), Waits: ok()}
		},
		WritePacket: func(idx ConnectionIndex, data []byte) Step {
			return Step{Command: fmt.Sprintf("AT+CSEND=%d,%d", idx, len(data)), Waits: ok()}
		},
		ReadPacket: func(idx ConnectionIndex) Step {
			return Step{
				Command: fmt.Sprintf("AT+CRECV=%d", idx),
				Waits:   ok(Wait{Expected: "+CRECV", Timeout: lineTimeout}),
			}
		},
		// GenericCommandSet has no defined unsolicited-receive framing;
		// consumers poll via ReadPacket.
		UnsolicitedRecvPrefix: "",
	}
}
