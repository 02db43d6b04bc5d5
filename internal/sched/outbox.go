package sched

import (
	"fmt"
	"sync"
	"time"

	"github.com/emirpasic/gods/queues/linkedlistqueue"
)

// outbox queues events in emission order and hands them to an EventLogger
// from a single goroutine, so the scheduler never waits on logging.
type outbox struct {
	mu     sync.Mutex
	queue  *linkedlistqueue.Queue // of Event
	closed bool

	wake chan struct{}
	done chan struct{}
	sink EventLogger
}

func newOutbox(sink EventLogger) *outbox {
	if sink == nil {
		sink = NopEventLogger{}
	}
	o := &outbox{
		queue: linkedlistqueue.New(),
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
		sink:  sink,
	}
	go o.pump()
	return o
}

func (o *outbox) task(kind EventKind, id TaskID) {
	o.push(Event{Time: time.Now(), Kind: kind, TaskID: id})
}

func (o *outbox) notice(format string, args ...any) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	o.push(Event{Time: time.Now(), Kind: EventNotice, Message: msg})
}

func (o *outbox) push(ev Event) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.queue.Enqueue(ev)
	o.mu.Unlock()
	o.signal()
}

func (o *outbox) signal() {
	select {
	case o.wake <- struct{}{}:
	default:
	}
}

func (o *outbox) pump() {
	defer close(o.done)
	for {
		o.mu.Lock()
		v, ok := o.queue.Dequeue()
		closed := o.closed
		o.mu.Unlock()

		if ok {
			o.deliver(v.(Event))
			continue
		}
		if closed {
			return
		}
		<-o.wake
	}
}

// deliver drops anything the logger panics on.
func (o *outbox) deliver(ev Event) {
	defer func() { _ = recover() }()

	if ev.Kind == EventNotice {
		o.sink.Notice(ev.Message)
		return
	}
	o.sink.TaskEvent(ev.Kind.String(), ev.TaskID)
}

// close stops accepting events and waits up to d for queued ones to be
// delivered. It reports whether the queue drained in time.
func (o *outbox) close(d time.Duration) bool {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	o.signal()

	if d <= 0 {
		select {
		case <-o.done:
			return true
		default:
			return false
		}
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-o.done:
		return true
	case <-timer.C:
		return false
	}
}
