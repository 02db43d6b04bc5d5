// internal/sched/schedulerEvent.go

package sched

import (
	"time"
)

// EventKind represents the type of scheduler event
type EventKind int

const (
	EventAdded EventKind = iota
	EventStarted
	EventCompleted
	EventFailed
	EventNotice
)

// Event is emitted on every lifecycle transition and for general notices.
type Event struct {
	Time    time.Time
	Kind    EventKind
	TaskID  TaskID
	Message string // only set for EventNotice
}

func (ek EventKind) String() string {
	switch ek {
	case EventAdded:
		return "ADDED"
	case EventStarted:
		return "STARTED"
	case EventCompleted:
		return "COMPLETED"
	case EventFailed:
		return "FAILED"
	case EventNotice:
		return "NOTICE"
	default:
		return "UNKNOWN"
	}
}
