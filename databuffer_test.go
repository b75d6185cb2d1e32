// SPDX-License-Identifier: GPL-3.0-or-later

package aether

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDataBufferClone(t *testing.T) {
	orig := DataBuffer("hello")
	clone := orig.Clone()
	assert.Equal(t, orig, clone)

	clone[0] = 'H'
	assert.Equal(t, DataBuffer("hello"), orig, "mutating the clone must not affect the original")
}

func TestDataBufferAppend(t *testing.T) {
	b := DataBuffer("foo").Append([]byte("bar"))
	assert.Equal(t, DataBuffer("foobar"), b)
}
