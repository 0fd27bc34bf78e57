package core

import "time"

const (
	// SystemSender is the sender label of join/leave announcements.
	SystemSender = "System"
	// AnonymousName is used when a participant never supplied a display name.
	AnonymousName = "Anonymous"
)

// Message is the domain model for a chat message. Messages are never mutated
// after construction.
type Message struct {
	Room      string
	Sender    string
	Text      string
	CreatedAt time.Time
}

func displayName(name string) string {
	if name == "" {
		return AnonymousName
	}
	return name
}
