package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeJoin   = "join"
	InboundTypeSend   = "send"
	InboundTypeTyping = "typing"

	OutboundTypeEvent = "event"

	EventNameMessage  = "message"
	EventNamePresence = "presence"
	EventNameTyping   = "typing"
	EventNameHistory  = "history"
)

// JoinData requests to join a specific room under a display name.
type JoinData struct {
	DisplayName string `json:"displayName"`
	Room        string `json:"room"`
}

// SendData is a chat message from the client.
type SendData struct {
	Text string `json:"text"`
	Room string `json:"room"`
}

// TypingData is the object form of a typing signal. The bare boolean form is
// accepted as well.
type TypingData struct {
	IsTyping bool `json:"isTyping"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
}

// Envelope is Outbound as read back by a client, with the payload left raw.
type Envelope struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// EventMessage is a chat or system message. Timestamp is ISO 8601.
type EventMessage struct {
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Room      string `json:"room"`
	Timestamp string `json:"timestamp"`
}

// EventPresence carries the number of members in a room.
type EventPresence struct {
	Count int    `json:"count"`
	Room  string `json:"room,omitempty"`
}

// EventTyping tells the room that someone started or stopped typing.
type EventTyping struct {
	Sender   string `json:"sender"`
	IsTyping bool   `json:"isTyping"`
	Room     string `json:"room"`
}

// EventHistory is sent to a client right after it joins a room.
type EventHistory struct {
	Room     string         `json:"room"`
	Messages []EventMessage `json:"messages"`
}
