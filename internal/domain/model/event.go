package model

import (
	"time"

	"github.com/okian/scramble/internal/domain/session"
)

// EventType distinguishes pushed events.
type EventType string

const (
	EventState  EventType = "state"
	EventNotice EventType = "notice"
	EventClosed EventType = "closed"
)

// Event is pushed to subscribers of a session.
type Event struct {
	Type      EventType         `json:"type"`
	SessionID string            `json:"sessionId"`
	Snapshot  *session.Snapshot `json:"snapshot,omitempty"`
	Notice    *session.Notice   `json:"notice,omitempty"`
	At        time.Time         `json:"at"`
}

// StateEvent wraps a snapshot.
func StateEvent(id string, snap session.Snapshot) Event {
	return Event{Type: EventState, SessionID: id, Snapshot: &snap, At: time.Now()}
}

// NoticeEvent wraps a notice.
func NoticeEvent(id string, n session.Notice) Event {
	return Event{Type: EventNotice, SessionID: id, Notice: &n, At: time.Now()}
}

// ClosedEvent tells subscribers the session is gone.
func ClosedEvent(id string) Event {
	return Event{Type: EventClosed, SessionID: id, At: time.Now()}
}
