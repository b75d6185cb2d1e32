// SPDX-License-Identifier: GPL-3.0-or-later

package at

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferFeedSplitsCompleteLines(t *testing.T) {
	b := NewBuffer()
	var updates []Iterator
	b.UpdateEvent().Subscribe(func(it Iterator) { updates = append(updates, it) })

	b.Feed([]byte("OK\r\n+CREG: 2\r\n"))

	require.Equal(t, Iterator(0), b.Begin())
	require.Equal(t, Iterator(2), b.End())
	assert.Equal(t, []Iterator{0}, updates)
}

func TestBufferFeedKeepsIncompleteFragmentUntilCompleted(t *testing.T) {
	b := NewBuffer()
	b.Feed([]byte("OK\r\n+CRE"))
	assert.Equal(t, Iterator(1), b.End())

	b.Feed([]byte("G: 2\r\n"))
	assert.Equal(t, Iterator(2), b.End())
}

func TestBufferFindPattern(t *testing.T) {
	b := NewBuffer()
	b.Feed([]byte("AT\r\nOK\r\n+CREG: 2\r\n"))

	it := b.FindPattern("CREG", b.Begin())
	require.NotEqual(t, b.End(), it)
	assert.Equal(t, Iterator(2), it)

	none := b.FindPattern("NOPE", b.Begin())
	assert.Equal(t, b.End(), none)
}

func TestBufferGetCrateSpansLines(t *testing.T) {
	b := NewBuffer()
	b.Feed([]byte("abc\r\ndefgh\r\n"))

	crate := b.GetCrate(5, 1, b.Begin())
	assert.Equal(t, "bcdef", string(crate))
}

func TestBufferEraseDropsPrefix(t *testing.T) {
	b := NewBuffer()
	b.Feed([]byte("a\r\nb\r\nc\r\n"))

	pos := b.FindPattern("c", b.Begin())
	b.Erase(pos)

	assert.Equal(t, pos, b.Begin())
	assert.Equal(t, "c", string(b.GetCrate(1, 0, b.Begin())))
}
