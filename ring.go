// SPDX-License-Identifier: GPL-3.0-or-later

package aether

// SSRingIndex is a byte offset on the safe-stream send ring. Offsets grow
// without bound from the sender's perspective but are only ever compared
// relative to a rolling begin offset, so wraparound past the underlying
// uint32 range does not invert ordering — the same trick used to compare
// TCP sequence numbers mod 2^32.
type SSRingIndex uint32

// Sub returns the signed distance from j to i on the ring (i.e. i-j),
// correctly handling wraparound as long as the true distance fits in int32.
func (i SSRingIndex) Sub(j SSRingIndex) int32 {
	return int32(i - j)
}

// Before reports whether i precedes j relative to a common begin offset.
func (i SSRingIndex) Before(j, begin SSRingIndex) bool {
	return (i - begin).Sub(j - begin) < 0
}

// BeforeOrEqual reports whether i precedes or equals j relative to begin.
func (i SSRingIndex) BeforeOrEqual(j, begin SSRingIndex) bool {
	return i == j || i.Before(j, begin)
}

// Normalize re-bases i so that it is expressed relative to begin, i.e.
// returns i-begin as a ring index with begin at zero.
func (i SSRingIndex) Normalize(begin SSRingIndex) SSRingIndex {
	return i - begin
}
