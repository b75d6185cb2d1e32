// SPDX-License-Identifier: GPL-3.0-or-later

package resolve_test

import "github.com/miekg/dns"

// recordsA extracts the IPv4 addresses from a DNS response's answer section.
func recordsA(msg *dns.Msg) ([]string, error) {
	var addrs []string
	for _, rr := range msg.Answer {
		if a, ok := rr.(*dns.A); ok {
			addrs = append(addrs, a.A.String())
		}
	}
	return addrs, nil
}
