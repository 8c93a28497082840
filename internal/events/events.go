// Package events publishes domain events (progress updates, completions,
// reminders) for downstream consumers. Publishing is best effort: callers log
// failures and carry on.
package events

import (
	"context"
	"sync"
	"time"
)

// Event types. The NATS subject is "<prefix>.<type>".
const (
	TypeProgressUpdated = "progress.updated"
	TypeBookCompleted   = "book.completed"
	TypeReminderSent    = "reminder.sent"
	TypeScanCompleted   = "scan.completed"
)

// Event is one published fact.
type Event struct {
	Type       string    `json:"type"`
	UserID     string    `json:"userId,omitempty"`
	BookID     string    `json:"bookId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data,omitempty"`
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// Noop discards every event. Used when no broker is configured.
type Noop struct{}

// Publish does nothing.
func (Noop) Publish(context.Context, Event) error { return nil }

// Close does nothing.
func (Noop) Close() error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish appends evt.
func (r *Recorder) Publish(_ context.Context, evt Event) error {
	r.mu.Lock()
	r.events = append(r.events, evt)
	r.mu.Unlock()
	return nil
}

// Close does nothing.
func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType returns the recorded events with the given type.
func (r *Recorder) OfType(t string) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
