package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventMessage carries a chat or system message posted to a room.
	EventMessage EventKind = iota
	// EventPresence carries the current member count of a room.
	EventPresence
	// EventTyping tells the room that a participant started or stopped typing.
	EventTyping
	// EventHistory delivers the room history to a client right after it joins.
	EventHistory
)

func (k EventKind) String() string {
	switch k {
	case EventMessage:
		return "message"
	case EventPresence:
		return "presence"
	case EventTyping:
		return "typing"
	case EventHistory:
		return "history"
	default:
		return "unknown"
	}
}

// Event is sent to clients to describe what happened in the system.
// A single Event value is shared by every recipient of a fan-out and must be
// treated as read-only.
type Event struct {
	Kind     EventKind
	Room     string
	Sender   string    // EventTyping
	Typing   bool      // EventTyping
	Count    int       // EventPresence
	Message  Message   // EventMessage
	Messages []Message // EventHistory
}
