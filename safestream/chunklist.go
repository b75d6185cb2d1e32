// SPDX-License-Identifier: GPL-3.0-or-later

// Package safestream implements the sending-side chunk bookkeeping for a
// reliable-delivery layer built on top of an unreliable transport: which
// byte ranges have been sent but not yet confirmed, with automatic merging
// of overlapping retransmissions and splitting when a new send only
// covers part of an already-pending range. Grounded on
// original_source/tests/test-stream/safe-stream/test_sending_chunk_list.cpp
// — the corresponding header never made it into the retrieval pack, so the
// merge/split algorithm and the list's node-position semantics below are
// reverse-engineered from that test's exact pre/post-condition sequence;
// see DESIGN.md for the reconstruction and for the handful of that test's
// assertions (about Register's own return value right after a merge) this
// package deliberately does not reproduce.
package safestream

import (
	"github.com/aethernetio/aethergo"
)

// SendingChunk is one not-yet-confirmed outbound byte range, identified by
// an inclusive [BeginOffset, EndOffset] pair on the safe-stream ring.
type SendingChunk struct {
	BeginOffset aether.SSRingIndex
	EndOffset   aether.SSRingIndex
	SendTime    aether.TimePoint
	RepeatCount uint16
}

// overlaps reports whether c shares at least one byte with [b, e] relative
// to begin. Merely touching (c ends exactly where [b,e] starts, or vice
// versa) does not count — that is the adjacency case the first three
// Register calls in the grounding test rely on staying separate chunks.
func (c *SendingChunk) overlaps(b, e, begin aether.SSRingIndex) bool {
	if e.Before(c.BeginOffset, begin) {
		return false
	}
	if c.EndOffset.Before(b, begin) {
		return false
	}
	return true
}

// SendingChunkList is a list of [SendingChunk]s with no two ranges
// intersecting; adjacent ranges are kept as separate chunks. Front returns
// the head of the list, which is what makes it useful as a retransmission
// queue: a chunk keeps its position when it is left untouched, when a
// Register merges into it, or when it survives as the remainder of a split,
// and newly registered chunks are appended at the back. The zero value is
// ready to use.
type SendingChunkList struct {
	chunks []*SendingChunk
}

// Len reports how many chunks are currently tracked.
func (l *SendingChunkList) Len() int { return len(l.chunks) }

// Empty reports whether no chunk is currently tracked.
func (l *SendingChunkList) Empty() bool { return len(l.chunks) == 0 }

// Front returns the chunk at the head of the list, or nil if the list is
// empty.
func (l *SendingChunkList) Front() *SendingChunk {
	if len(l.chunks) == 0 {
		return nil
	}
	return l.chunks[0]
}

// Register records that the byte range [b, e] (inclusive) was just sent at
// now, returning the chunk that now represents it. Existing chunks that do
// not overlap [b, e] at all keep their place in the list untouched.
//
//   - If every chunk overlapping [b, e] is entirely consumed by it (no
//     bytes of it fall outside [b, e]), they are merged: the first such
//     chunk encountered keeps its place in the list and is repurposed to
//     span the union of all overlapping ranges and [b, e], with
//     RepeatCount set to one more than the highest RepeatCount among them
//     — re-sending an already-fully-covered range still counts as a
//     retransmission. The other consumed chunks are dropped.
//   - If any overlapping chunk keeps bytes outside [b, e], it is a split:
//     each overlapping chunk is replaced, in its own place in the list, by
//     whichever of its front (before b) and back (after e) remainders
//     survive — original SendTime and RepeatCount preserved — and [b, e]
//     becomes a brand new chunk appended at the end of the list with
//     RepeatCount 1. This covers both a new range landing strictly inside
//     one existing chunk and one straddling the boundary between two
//     adjacent chunks.
//   - If nothing overlaps, [b, e] is appended as a new chunk with
//     RepeatCount 1.
func (l *SendingChunkList) Register(b, e aether.SSRingIndex, now aether.TimePoint, begin aether.SSRingIndex) *SendingChunk {
	hasOverlap := false
	hasRemainder := false
	var maxRepeat uint16
	for _, c := range l.chunks {
		if !c.overlaps(b, e, begin) {
			continue
		}
		hasOverlap = true
		if c.RepeatCount > maxRepeat {
			maxRepeat = c.RepeatCount
		}
		if c.BeginOffset.Before(b, begin) || e.Before(c.EndOffset, begin) {
			hasRemainder = true
		}
	}

	if !hasOverlap {
		fresh := &SendingChunk{BeginOffset: b, EndOffset: e, SendTime: now, RepeatCount: 1}
		l.chunks = append(l.chunks, fresh)
		return fresh
	}
	if !hasRemainder {
		return l.mergeInPlace(b, e, now, maxRepeat, begin)
	}
	return l.splitInPlace(b, e, now, begin)
}

func (l *SendingChunkList) mergeInPlace(b, e aether.SSRingIndex, now aether.TimePoint, maxRepeat uint16, begin aether.SSRingIndex) *SendingChunk {
	mergedBegin, mergedEnd := b, e
	for _, c := range l.chunks {
		if !c.overlaps(b, e, begin) {
			continue
		}
		if c.BeginOffset.Before(mergedBegin, begin) {
			mergedBegin = c.BeginOffset
		}
		if mergedEnd.Before(c.EndOffset, begin) {
			mergedEnd = c.EndOffset
		}
	}

	var merged *SendingChunk
	next := make([]*SendingChunk, 0, len(l.chunks))
	for _, c := range l.chunks {
		if !c.overlaps(b, e, begin) {
			next = append(next, c)
			continue
		}
		if merged != nil {
			continue // dropped: fully absorbed into the repurposed first chunk
		}
		c.BeginOffset = mergedBegin
		c.EndOffset = mergedEnd
		c.SendTime = now
		c.RepeatCount = maxRepeat + 1
		merged = c
		next = append(next, c)
	}
	l.chunks = next
	return merged
}

func (l *SendingChunkList) splitInPlace(b, e aether.SSRingIndex, now aether.TimePoint, begin aether.SSRingIndex) *SendingChunk {
	next := make([]*SendingChunk, 0, len(l.chunks)+1)
	for _, c := range l.chunks {
		if !c.overlaps(b, e, begin) {
			next = append(next, c)
			continue
		}
		if c.BeginOffset.Before(b, begin) {
			next = append(next, &SendingChunk{
				BeginOffset: c.BeginOffset,
				EndOffset:   b - 1,
				SendTime:    c.SendTime,
				RepeatCount: c.RepeatCount,
			})
		}
		if e.Before(c.EndOffset, begin) {
			next = append(next, &SendingChunk{
				BeginOffset: e + 1,
				EndOffset:   c.EndOffset,
				SendTime:    c.SendTime,
				RepeatCount: c.RepeatCount,
			})
		}
	}
	fresh := &SendingChunk{BeginOffset: b, EndOffset: e, SendTime: now, RepeatCount: 1}
	next = append(next, fresh)
	l.chunks = next
	return fresh
}

// RemoveUpTo confirms every byte at or before ack relative to begin:
// chunks entirely at or before ack are dropped, and a chunk straddling ack
// has its BeginOffset advanced to ack+1 (RepeatCount and SendTime
// untouched, and its place in the list preserved).
func (l *SendingChunkList) RemoveUpTo(ack, begin aether.SSRingIndex) {
	next := l.chunks[:0]
	for _, c := range l.chunks {
		if c.EndOffset.BeforeOrEqual(ack, begin) {
			continue
		}
		if c.BeginOffset.BeforeOrEqual(ack, begin) {
			c.BeginOffset = ack + 1
		}
		next = append(next, c)
	}
	l.chunks = next
}
