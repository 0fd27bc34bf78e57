package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoin moves the connection into a room, leaving the previous one.
	CommandJoin CommandKind = iota
	// CommandSend delivers a chat message to room participants.
	CommandSend
	// CommandTyping forwards a typing indicator to the rest of the room.
	CommandTyping
)

func (k CommandKind) String() string {
	switch k {
	case CommandJoin:
		return "join"
	case CommandSend:
		return "send"
	case CommandTyping:
		return "typing"
	default:
		return "unknown"
	}
}

// Command represents an action requested by a client.
type Command struct {
	Kind   CommandKind
	Room   string
	Name   string // display name, join only
	Text   string
	Typing bool
}
