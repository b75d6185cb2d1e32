// SPDX-License-Identifier: GPL-3.0-or-later

package resolve

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/miekg/dns"
)

// writeDNSMessageStream writes msg to w framed with the 2-byte length prefix
// that RFC 1035 section 4.2.2 mandates for DNS-over-TCP (and, by extension,
// DNS-over-TLS).
func writeDNSMessageStream(w io.Writer, msg *dns.Msg) ([]byte, error) {
	raw, err := msg.Pack()
	if err != nil {
		return nil, err
	}
	if len(raw) > 0xffff {
		return nil, fmt.Errorf("resolve: DNS message too large for stream framing: %d bytes", len(raw))
	}
	var prefix [2]byte
	binary.BigEndian.PutUint16(prefix[:], uint16(len(raw)))
	if _, err := w.Write(prefix[:]); err != nil {
		return raw, err
	}
	if _, err := w.Write(raw); err != nil {
		return raw, err
	}
	return raw, nil
}

// readDNSMessageStream reads one length-prefixed DNS message from r.
func readDNSMessageStream(r io.Reader) ([]byte, *dns.Msg, error) {
	var prefix [2]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, nil, err
	}
	size := binary.BigEndian.Uint16(prefix[:])
	raw := make([]byte, size)
	if _, err := io.ReadFull(r, raw); err != nil {
		return raw, nil, err
	}
	msg := new(dns.Msg)
	if err := msg.Unpack(raw); err != nil {
		return raw, nil, err
	}
	return raw, msg, nil
}

// maxUDPMessageSize is large enough for any EDNS0-sized UDP DNS response.
const maxUDPMessageSize = 4096
