package sched

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"taskflow/internal/job"
)

// TaskID uniquely identifies a task within the process.
type TaskID uint64

// lastTaskID holds the most recently issued id; the first task gets 1.
var lastTaskID atomic.Uint64

func nextTaskID() TaskID {
	return TaskID(lastTaskID.Add(1))
}

// Task represents one schedulable task unit.
// ID, priority and cost never change after construction.
type Task struct {
	id       TaskID
	priority int           // higher value runs first
	cost     time.Duration // time the task spends while RUNNING
	work     job.Work

	status atomic.Int32

	mu         sync.Mutex // guards the fields below
	startedAt  time.Time
	finishedAt time.Time
	err        error
}

// NewTask creates a PENDING task whose execution sleeps for cost.
func NewTask(priority int, cost time.Duration) (*Task, error) {
	return NewTaskWithWork(priority, cost, job.SleepWork(cost))
}

// NewTaskWithWork creates a PENDING task that runs work when dispatched.
// cost is still reported by Cost but work decides how long it takes.
func NewTaskWithWork(priority int, cost time.Duration, work job.Work) (*Task, error) {
	if cost < 0 {
		return nil, fmt.Errorf("%w: negative cost %s", ErrInvalidTaskParameters, cost)
	}
	if work == nil {
		return nil, fmt.Errorf("%w: nil work", ErrInvalidTaskParameters)
	}

	t := &Task{
		id:       nextTaskID(),
		priority: priority,
		cost:     cost,
		work:     work,
	}
	t.status.Store(int32(StatusPending))
	return t, nil
}

func (t *Task) ID() TaskID { return t.id }
func (t *Task) Priority() int { return t.priority }
func (t *Task) Cost() time.Duration { return t.cost }

// Status returns the current lifecycle state. Safe for concurrent use.
func (t *Task) Status() Status {
	return Status(t.status.Load())
}

// Err returns the ExecutionError of a FAILED task, nil otherwise.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// StartedAt returns when the task entered RUNNING, or the zero time.
func (t *Task) StartedAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.startedAt
}

// FinishedAt returns when the task reached a terminal state, or the zero time.
func (t *Task) FinishedAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.finishedAt
}

// Before reports whether t orders ahead of o. Equal priorities are
// equivalent here; the pending tree breaks ties by submission order.
func (t *Task) Before(o *Task) bool {
	return t.priority > o.priority
}

func (t *Task) String() string {
	return fmt.Sprintf("Task{id=%d, priority=%d, cost=%s, status=%s}",
		t.id, t.priority, t.cost, t.Status())
}

// start moves the task PENDING -> RUNNING. Only the first caller wins.
func (t *Task) start(at time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.status.CompareAndSwap(int32(StatusPending), int32(StatusRunning)) {
		return false
	}
	t.startedAt = at
	return true
}

// finish moves the task RUNNING -> to, recording err for FAILED.
// Only the first caller wins, so a task is settled exactly once. settled,
// if non-nil, runs for the winner before the task lock is released.
func (t *Task) finish(to Status, at time.Time, err error, settled func()) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.status.CompareAndSwap(int32(StatusRunning), int32(to)) {
		return false
	}
	t.finishedAt = at
	t.err = err
	if settled != nil {
		settled()
	}
	return true
}
