package sched

import (
	"context"
	"fmt"
	"time"
)

// worker executes exactly one task and owns its lifecycle transitions.
type worker struct {
	task   *Task
	events *outbox
}

func newWorker(t *Task, events *outbox) *worker {
	return &worker{task: t, events: events}
}

// begin claims the task (PENDING -> RUNNING) and emits STARTED.
// It returns false if the task was not PENDING.
func (w *worker) begin() bool {
	if !w.task.start(time.Now()) {
		return false
	}
	w.events.task(EventStarted, w.task.id)
	return true
}

// run spends the task's work and settles it as COMPLETED or FAILED.
func (w *worker) run(ctx context.Context) {
	w.settle(w.execute(ctx))
}

// execute runs the work function, turning a panic into an error.
func (w *worker) execute(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.task.work(ctx)
}

// settle records the terminal state. If another party (a shutdown
// timeout) already settled the task it does nothing. The terminal event
// is queued under the task lock, so whoever observes the final status
// after taking that lock also finds its event queued.
func (w *worker) settle(cause error) bool {
	if cause == nil {
		return w.task.finish(StatusCompleted, time.Now(), nil, func() {
			w.events.task(EventCompleted, w.task.id)
		})
	}

	execErr := &ExecutionError{TaskID: w.task.id, Err: cause}
	return w.task.finish(StatusFailed, time.Now(), execErr, func() {
		w.events.task(EventFailed, w.task.id)
		w.events.notice(execErr.Error())
	})
}

// interrupt fails the task on behalf of the scheduler.
func (w *worker) interrupt() bool {
	return w.settle(errShutdownTimeout)
}
