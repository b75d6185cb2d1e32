// SPDX-License-Identifier: GPL-3.0-or-later

package action

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerWaitUnblocksOnTrigger(t *testing.T) {
	tr := NewTrigger()
	done := make(chan struct{})
	go func() {
		tr.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Wait returned before Trigger was called")
	case <-time.After(20 * time.Millisecond):
	}

	tr.Trigger()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Trigger")
	}
}

func TestTriggerIsTriggeredConsumesSignal(t *testing.T) {
	tr := NewTrigger()
	assert.False(t, tr.IsTriggered())

	tr.Trigger()
	assert.True(t, tr.IsTriggered())
	assert.False(t, tr.IsTriggered())
}

func TestTriggerWaitUntilTimesOut(t *testing.T) {
	tr := NewTrigger()
	ok := tr.WaitUntil(time.Now().Add(10 * time.Millisecond))
	assert.False(t, ok)
}

func TestTriggerWaitUntilReturnsTrueOnSignal(t *testing.T) {
	tr := NewTrigger()
	tr.Trigger()
	ok := tr.WaitUntil(time.Now().Add(time.Second))
	assert.True(t, ok)
}

func TestTriggerMergeWakesBoth(t *testing.T) {
	left := NewTrigger()
	right := NewTrigger()
	Merge(left, right)

	leftDone := make(chan struct{})
	rightDone := make(chan struct{})
	go func() { left.Wait(); close(leftDone) }()
	go func() { right.Wait(); close(rightDone) }()

	right.Trigger()

	for _, ch := range []chan struct{}{leftDone, rightDone} {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatal("merged trigger did not wake both waiters")
		}
	}
}

func TestTriggerTriggerIsIdempotentWhileUnconsumed(t *testing.T) {
	tr := NewTrigger()
	tr.Trigger()
	tr.Trigger()
	require.True(t, tr.IsTriggered())
	assert.False(t, tr.IsTriggered())
}
