// SPDX-License-Identifier: GPL-3.0-or-later

package at

import (
	"strings"

	"github.com/aethernetio/aethergo/util"
)

// ParseResponse locates cmd within response, then fills args in order from
// the comma-separated scalars following the "cmd: " prefix, returning the
// offset one past the last parsed field. Each element of args must be
// either *string (parsed as a double-quoted literal) or a pointer to an
// integer type [util.FromChars] accepts. Returns (0, false) if cmd is not
// found or any field fails to parse.
func ParseResponse(response []byte, cmd string, args ...any) (int, bool) {
	resp := string(response)
	start := strings.Index(resp, cmd)
	if start < 0 {
		return 0, false
	}
	start += len(cmd) + 2 // 2 for ": "

	end := start
	for _, arg := range args {
		if start >= len(resp) {
			return 0, false
		}
		rel := strings.IndexAny(resp[start:], ", \n\r")
		if rel < 0 {
			end = len(resp)
		} else {
			end = start + rel
		}
		if end <= start {
			return 0, false
		}
		if !parseArg(resp[start:end], arg) {
			return 0, false
		}
		start = end + 1
	}
	return end, true
}

func parseArg(s string, arg any) bool {
	switch v := arg.(type) {
	case *string:
		first := strings.IndexByte(s, '"')
		last := strings.LastIndexByte(s, '"')
		if first < 0 || last < 0 || last <= first {
			return false
		}
		*v = s[first+1 : last]
		return true
	case *int:
		return fromChars(s, v)
	case *int8:
		return fromChars(s, v)
	case *int16:
		return fromChars(s, v)
	case *int32:
		return fromChars(s, v)
	case *int64:
		return fromChars(s, v)
	case *uint:
		return fromChars(s, v)
	case *uint8:
		return fromChars(s, v)
	case *uint16:
		return fromChars(s, v)
	case *uint32:
		return fromChars(s, v)
	case *uint64:
		return fromChars(s, v)
	default:
		return false
	}
}

func fromChars[T util.Integer](s string, out *T) bool {
	v, ok := util.FromChars[T](s)
	if !ok {
		return false
	}
	*out = v
	return true
}
