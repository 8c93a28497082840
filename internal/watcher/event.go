package watcher

import "time"

// EventType represents the type of file system event
type EventType int

const (
	// EventAdded is emitted when a watched file appears (after settling)
	EventAdded EventType = iota
	// EventModified is emitted when a watched file changes (after settling)
	EventModified
	// EventRemoved is emitted when a watched file is deleted or renamed away
	EventRemoved
)

// String returns the string representation of the event type
func (t EventType) String() string {
	switch t {
	case EventAdded:
		return "added"
	case EventModified:
		return "modified"
	case EventRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Event represents a change to a watched file
type Event struct {
	Type    EventType
	Path    string
	Size    int64
	ModTime time.Time
}
