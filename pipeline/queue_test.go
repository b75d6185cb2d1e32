// SPDX-License-Identifier: GPL-3.0-or-later

package pipeline

import (
	"testing"
	"time"

	"github.com/aethernetio/aethergo"
	"github.com/aethernetio/aethergo/action"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bodyAction calls body on every tick until it returns something other than
// Nothing, mirroring the original's TestGenAction<TBody> test fixture.
type bodyAction struct {
	action.Action[bodyAction, *bodyAction]
	body func() action.UpdateStatus
}

func newBodyAction(ctx action.Context, body func() action.UpdateStatus) *bodyAction {
	a := &bodyAction{body: body}
	a.Action = action.New[bodyAction, *bodyAction](ctx, a)
	return a
}

func (a *bodyAction) Update(aether.TimePoint) action.UpdateStatus { return a.body() }

func bodyStage(body func() action.UpdateStatus) Stage {
	return func(ctx action.Context) StageAction { return newBodyAction(ctx, body) }
}

type queueOutcome struct {
	result, errored, stopped bool
}

func subscribeQueue(q *Queue, o *queueOutcome) {
	q.OnResult(func() { o.result = true })
	q.OnError(func() { o.errored = true })
	q.OnStop(func() { o.stopped = true })
}

func TestQueueEmptyNeverCompletes(t *testing.T) {
	ap := action.NewProcessor()
	q := NewQueue(ap.Context())
	var o queueOutcome
	subscribeQueue(q, &o)

	for i := 0; i < 10; i++ {
		ap.Update(time.Now())
	}

	assert.False(t, o.result)
	assert.False(t, o.errored)
	assert.False(t, o.stopped)
}

func TestQueueSingleStageExecutes(t *testing.T) {
	ap := action.NewProcessor()
	q := NewQueue(ap.Context())
	var o queueOutcome
	subscribeQueue(q, &o)

	ran := false
	q.Push(bodyStage(func() action.UpdateStatus {
		ran = true
		return action.Result()
	}))

	for i := 0; i < 10; i++ {
		ap.Update(time.Now())
	}

	assert.True(t, ran)
	assert.False(t, o.result)
	assert.False(t, o.errored)
	assert.False(t, o.stopped)
}

func TestQueueRunsStagesInFIFOOrder(t *testing.T) {
	ap := action.NewProcessor()
	q := NewQueue(ap.Context())

	var order []int
	for _, n := range []int{1, 2, 3} {
		n := n
		q.Push(bodyStage(func() action.UpdateStatus {
			order = append(order, n)
			return action.Result()
		}))
	}

	for i := 0; i < 30; i++ {
		ap.Update(time.Now())
	}

	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestQueueIsResilientToStageFailure(t *testing.T) {
	ap := action.NewProcessor()
	q := NewQueue(ap.Context())
	var o queueOutcome
	subscribeQueue(q, &o)

	successes := 0
	q.Push(bodyStage(func() action.UpdateStatus { successes++; return action.Result() }))
	q.Push(bodyStage(func() action.UpdateStatus { return action.Error() }))
	q.Push(bodyStage(func() action.UpdateStatus { successes++; return action.Result() }))

	for i := 0; i < 30; i++ {
		ap.Update(time.Now())
	}

	assert.Equal(t, 2, successes)
	assert.False(t, o.result)
	assert.False(t, o.errored)
	assert.False(t, o.stopped)
}

func TestQueueSkipsNilStage(t *testing.T) {
	ap := action.NewProcessor()
	q := NewQueue(ap.Context())

	successes := 0
	q.Push(bodyStage(func() action.UpdateStatus { successes++; return action.Result() }))
	q.Push(func(action.Context) StageAction { return nil })
	q.Push(bodyStage(func() action.UpdateStatus { successes++; return action.Result() }))

	for i := 0; i < 30; i++ {
		ap.Update(time.Now())
	}

	assert.Equal(t, 2, successes)
}

func TestQueueStopOnEmptyQueueStillReportsStop(t *testing.T) {
	ap := action.NewProcessor()
	q := NewQueue(ap.Context())
	var o queueOutcome
	subscribeQueue(q, &o)

	q.Stop()
	for i := 0; i < 10; i++ {
		ap.Update(time.Now())
	}

	assert.True(t, o.stopped)
	assert.False(t, o.result)
	assert.False(t, o.errored)
}

func TestQueueStopDropsQueuedStages(t *testing.T) {
	ap := action.NewProcessor()
	q := NewQueue(ap.Context())

	started := false
	completed := false
	q.Push(bodyStage(func() action.UpdateStatus {
		started = true
		return action.Nothing()
	}))
	q.Push(bodyStage(func() action.UpdateStatus {
		completed = true
		return action.Result()
	}))

	for i := 0; i < 5; i++ {
		ap.Update(time.Now())
	}
	require.True(t, started)
	require.False(t, completed)

	q.Stop()
	for i := 0; i < 10; i++ {
		ap.Update(time.Now())
	}

	assert.False(t, completed)
}

func TestQueueDynamicStageAddition(t *testing.T) {
	ap := action.NewProcessor()
	q := NewQueue(ap.Context())

	var order []int
	q.Push(bodyStage(func() action.UpdateStatus {
		order = append(order, 1)
		q.Push(bodyStage(func() action.UpdateStatus { order = append(order, 2); return action.Result() }))
		q.Push(bodyStage(func() action.UpdateStatus { order = append(order, 3); return action.Result() }))
		return action.Result()
	}))

	for i := 0; i < 30; i++ {
		ap.Update(time.Now())
	}

	assert.Equal(t, []int{1, 2, 3}, order)
}
