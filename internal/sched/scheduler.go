// internal/sched/scheduler.go

package sched

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/emirpasic/gods/trees/redblacktree"
)

// Scheduler dispatches submitted tasks to a fixed number of execution
// slots, highest priority first, ties in submission order.
type Scheduler struct {
	mu       sync.Mutex         // protects the fields below and index inserts
	capacity int                // number of concurrent slots, fixed at construction
	inFlight int                // slots currently occupied
	seq      uint64             // submission counter, the tie-break key
	pending  *redblacktree.Tree // pendingKey -> *Task
	running  map[TaskID]*worker // tasks occupying a slot
	closed   bool               // set once Shutdown begins; rejects submissions
	halted   bool               // set when a shutdown times out; stops dispatch
	drained  chan struct{}      // closed when a closed scheduler runs dry
	index    sync.Map           // TaskID -> *Task; every task ever submitted
	total    int                // number of entries in index

	ctx    context.Context // cancelled when a shutdown ends
	cancel context.CancelFunc

	events       *outbox
	shutdownOnce sync.Once
}

// Stats is a point-in-time view of the scheduler's bookkeeping.
type Stats struct {
	Pending  int
	InFlight int
	Capacity int
	Total    int
}

// New creates a scheduler with cfg.Capacity slots. Lifecycle events and
// notices go to events, which may be nil.
func New(cfg Config, events EventLogger) *Scheduler {
	capacity := cfg.Capacity
	if capacity < 1 {
		capacity = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		capacity: capacity,
		pending:  redblacktree.NewWith(cmp),
		running:  make(map[TaskID]*worker),
		ctx:      ctx,
		cancel:   cancel,
		events:   newOutbox(events),
	}
	s.events.notice("task scheduler initialized with %d slots", capacity)
	return s
}

// Submit records t, queues it and dispatches as many pending tasks as
// there are free slots. It never waits for task execution.
func (s *Scheduler) Submit(t *Task) error {
	if t == nil {
		return fmt.Errorf("%w: nil task", ErrInvalidTaskParameters)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSchedulerClosed
	}
	if _, dup := s.index.Load(t.id); dup {
		return fmt.Errorf("%w: task %d", ErrDuplicateTask, t.id)
	}
	if st := t.Status(); st != StatusPending {
		return fmt.Errorf("%w: task %d is %s", ErrInvalidTaskParameters, t.id, st)
	}

	s.enqueue(t)
	s.dispatch()
	return nil
}

// SubmitBatch queues all tasks under one lock acquisition and dispatches
// once, so they compete for free slots by priority. Either every task is
// queued or none is.
func (s *Scheduler) SubmitBatch(tasks ...*Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSchedulerClosed
	}

	seen := make(map[TaskID]struct{}, len(tasks))
	for _, t := range tasks {
		if t == nil {
			return fmt.Errorf("%w: nil task", ErrInvalidTaskParameters)
		}
		if _, dup := seen[t.id]; dup {
			return fmt.Errorf("%w: task %d", ErrDuplicateTask, t.id)
		}
		if _, dup := s.index.Load(t.id); dup {
			return fmt.Errorf("%w: task %d", ErrDuplicateTask, t.id)
		}
		if st := t.Status(); st != StatusPending {
			return fmt.Errorf("%w: task %d is %s", ErrInvalidTaskParameters, t.id, st)
		}
		seen[t.id] = struct{}{}
	}

	for _, t := range tasks {
		s.enqueue(t)
	}
	s.dispatch()
	return nil
}

// enqueue inserts t into the index and the pending tree. Caller holds s.mu.
func (s *Scheduler) enqueue(t *Task) {
	s.seq++
	s.pending.Put(pendingKey{priority: t.priority, seq: s.seq}, t)
	s.index.Store(t.id, t)
	s.total++
	s.events.task(EventAdded, t.id)
}

// Schedule builds a sleeping task from priority and cost and submits it.
func (s *Scheduler) Schedule(priority int, cost time.Duration) (TaskID, error) {
	t, err := NewTask(priority, cost)
	if err != nil {
		return 0, err
	}
	if err := s.Submit(t); err != nil {
		return 0, err
	}
	return t.id, nil
}

// Lookup returns the task with the given id, if it was ever submitted.
func (s *Scheduler) Lookup(id TaskID) (*Task, bool) {
	v, ok := s.index.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*Task), true
}

// PendingCount returns the number of queued tasks that are still PENDING.
func (s *Scheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingLocked()
}

// InFlight returns the number of occupied slots.
func (s *Scheduler) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Capacity returns the number of slots.
func (s *Scheduler) Capacity() int { return s.capacity }

// Closed reports whether Shutdown has begun.
func (s *Scheduler) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Stats returns pending, in-flight, capacity and total counts taken
// under a single lock acquisition.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Pending:  s.pendingLocked(),
		InFlight: s.inFlight,
		Capacity: s.capacity,
		Total:    s.total,
	}
}

func (s *Scheduler) pendingLocked() int {
	n := 0
	for _, v := range s.pending.Values() {
		if v.(*Task).Status() == StatusPending {
			n++
		}
	}
	return n
}

// dispatch fills free slots from the pending tree. Caller holds s.mu.
func (s *Scheduler) dispatch() {
	for !s.halted && s.inFlight < s.capacity {
		node := s.pending.Left()
		if node == nil {
			break
		}
		s.pending.Remove(node.Key)

		w := newWorker(node.Value.(*Task), s.events)
		if !w.begin() {
			// already claimed elsewhere; drop it
			continue
		}

		s.inFlight++
		s.running[w.task.id] = w
		go s.runWorker(w)
	}
	s.signalDrained()
}

// signalDrained closes s.drained once a closed scheduler has nothing
// running and nothing queued. Caller holds s.mu.
func (s *Scheduler) signalDrained() {
	if !s.closed || s.drained == nil || s.inFlight > 0 || !s.pending.Empty() {
		return
	}
	select {
	case <-s.drained:
	default:
		close(s.drained)
	}
}

func (s *Scheduler) runWorker(w *worker) {
	defer s.release(w)
	w.run(s.ctx)
}

// release frees w's slot and hands it to the next pending task.
func (s *Scheduler) release(w *worker) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.running, w.task.id)
	s.inFlight--
	s.dispatch()
}

// Shutdown stops accepting submissions and waits up to timeout for every
// submitted task to finish; queued tasks keep being dispatched meanwhile.
// When the timeout elapses dispatch stops, tasks still running are marked
// FAILED and their work is cancelled, and tasks never dispatched stay
// PENDING. Calling Shutdown again has no further effect.
func (s *Scheduler) Shutdown(timeout time.Duration) {
	s.shutdownOnce.Do(func() { s.shutdown(timeout) })
}

func (s *Scheduler) shutdown(timeout time.Duration) {
	deadline := time.Now().Add(timeout)

	s.mu.Lock()
	s.closed = true
	s.drained = make(chan struct{})
	s.signalDrained()
	drained := s.drained
	s.mu.Unlock()

	s.events.notice("shutting down task scheduler")

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-drained:
	case <-timer.C:
		s.mu.Lock()
		s.halted = true
		abandoned := s.pendingLocked()
		workers := make([]*worker, 0, len(s.running))
		for _, w := range s.running {
			workers = append(workers, w)
		}
		s.mu.Unlock()

		interrupted := 0
		for _, w := range workers {
			if w.interrupt() {
				interrupted++
			}
		}
		s.events.notice("shutdown timed out after %s, %d task(s) interrupted", timeout, interrupted)
		if abandoned > 0 {
			s.events.notice("%d pending task(s) left undispatched", abandoned)
		}
	}
	s.cancel()

	s.events.notice("task scheduler shut down")
	s.events.close(time.Until(deadline))
}

// pendingKey orders the pending tree: higher priority first, then
// earlier submission.
type pendingKey struct {
	priority int
	seq      uint64
}

// cmp implements the comparator for the pending red-black tree.
func cmp(a, b any) int {
	ka, kb := a.(pendingKey), b.(pendingKey)
	switch {
	case ka.priority > kb.priority:
		return -1
	case ka.priority < kb.priority:
		return 1
	case ka.seq < kb.seq:
		return -1
	case ka.seq > kb.seq:
		return 1
	default:
		return 0
	}
}
