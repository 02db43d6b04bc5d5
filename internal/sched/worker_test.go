package sched

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorker_Lifecycle(t *testing.T) {
	rec := &recorder{}
	events := newOutbox(rec)
	task := mustTask(t, 1, time.Millisecond)

	w := newWorker(task, events)
	require.True(t, w.begin())
	assert.Equal(t, StatusRunning, task.Status())
	assert.False(t, w.begin(), "a task is claimed at most once")

	w.run(context.Background())
	assert.Equal(t, StatusCompleted, task.Status())

	require.True(t, events.close(time.Second))
	assert.Equal(t, []string{"STARTED", "COMPLETED"}, rec.eventsFor(task.ID()))
}

func TestWorker_InterruptWinsOverLateCompletion(t *testing.T) {
	rec := &recorder{}
	events := newOutbox(rec)
	task := mustTask(t, 1, time.Hour)

	w := newWorker(task, events)
	require.True(t, w.begin())
	require.True(t, w.interrupt())
	assert.Equal(t, StatusFailed, task.Status())

	// the work returning afterwards must not settle the task again
	assert.False(t, w.settle(nil))
	assert.False(t, w.settle(errors.New("late")))
	assert.ErrorIs(t, task.Err(), errShutdownTimeout)

	require.True(t, events.close(time.Second))
	assert.Equal(t, []string{"STARTED", "FAILED"}, rec.eventsFor(task.ID()))
}

func TestWorker_CancelledContextFails(t *testing.T) {
	task := mustTask(t, 1, time.Hour)
	w := newWorker(task, newOutbox(nil))
	require.True(t, w.begin())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.run(ctx)

	assert.Equal(t, StatusFailed, task.Status())
	assert.ErrorIs(t, task.Err(), context.Canceled)
	assert.ErrorIs(t, task.Err(), ErrExecutionFailure)
}
