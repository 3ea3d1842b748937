package ports

import "time"

type EventKind string

const (
	EventCommand  EventKind = "command"
	EventVeto     EventKind = "veto"
	EventRollback EventKind = "rollback"
	EventTimeout  EventKind = "timeout"
	EventWarning  EventKind = "warning"
)

type Event struct {
	Kind     EventKind      `json:"kind"`
	Channel  string         `json:"channel,omitempty"`
	UserID   string         `json:"user_id,omitempty"`
	Username string         `json:"username,omitempty"`
	Name     string         `json:"name,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
	At       time.Time      `json:"at"`
}

type EventPublisher interface {
	Publish(ev Event)
}
