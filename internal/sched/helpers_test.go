package sched

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"taskflow/internal/job"
)

// recorder is an EventLogger that keeps everything it receives.
type recorder struct {
	mu      sync.Mutex
	events  []recorded
	notices []string
}

type recorded struct {
	event string
	id    TaskID
}

func (r *recorder) TaskEvent(event string, id TaskID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recorded{event, id})
}

func (r *recorder) Notice(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, msg)
}

// eventsFor returns the event names recorded for id, in order.
func (r *recorder) eventsFor(id TaskID) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if e.id == id {
			out = append(out, e.event)
		}
	}
	return out
}

func (r *recorder) noticeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notices)
}

// panicLogger blows up on every call.
type panicLogger struct{}

func (panicLogger) TaskEvent(string, TaskID) { panic("task event") }
func (panicLogger) Notice(string) { panic("notice") }

// gate returns work that blocks until release is closed or ctx is done.
func gate(release <-chan struct{}) job.Work {
	return func(ctx context.Context) error {
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func mustTask(t *testing.T, priority int, cost time.Duration) *Task {
	t.Helper()
	task, err := NewTask(priority, cost)
	require.NoError(t, err)
	return task
}

func mustWorkTask(t *testing.T, priority int, work job.Work) *Task {
	t.Helper()
	task, err := NewTaskWithWork(priority, 0, work)
	require.NoError(t, err)
	return task
}

// waitStatus waits until task reaches want.
func waitStatus(t *testing.T, task *Task, want Status) {
	t.Helper()
	require.Eventually(t, func() bool { return task.Status() == want },
		2*time.Second, time.Millisecond, "task %d never reached %s (is %s)", task.ID(), want, task.Status())
}

// waitDrained waits until every queued event has reached the logger.
func waitDrained(t *testing.T, s *Scheduler) {
	t.Helper()
	select {
	case <-s.events.done:
	case <-time.After(2 * time.Second):
		t.Fatal("event outbox never drained")
	}
}
