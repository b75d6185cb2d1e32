// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"strconv"
	"strings"
)

// Integer is any Go integer type FromChars can parse into.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// FromChars parses str as an integer of type T, in base 10 unless an
// explicit base is passed, returning (0, false) on failure instead of an
// error value — AT response parsing treats "didn't parse" as just another
// reason to fail the containing request, not something worth a distinct
// error type.
//
// Mirrors a quirk of the original: if the substring "0x" appears anywhere
// in str, everything up to and including it is skipped before parsing, but
// the base argument itself is not changed to 16 — a hex literal like
// "0x1A" only parses correctly when the caller also passes base 16.
func FromChars[T Integer](str string, base ...int) (T, bool) {
	b := 10
	if len(base) > 0 {
		b = base[0]
	}
	if idx := strings.Index(str, "0x"); idx >= 0 {
		str = str[idx+2:]
	}
	if n, err := strconv.ParseInt(str, b, 64); err == nil {
		return T(n), true
	}
	if u, err := strconv.ParseUint(str, b, 64); err == nil {
		return T(u), true
	}
	var zero T
	return zero, false
}
