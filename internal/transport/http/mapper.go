package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vovakirdan/wirechat-relay/internal/core"
	"github.com/vovakirdan/wirechat-relay/internal/proto"
)

// timestampLayout is ISO 8601 with millisecond precision.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// inboundToCommand decodes one client frame. Unknown kinds yield a nil
// command and no error; undecodable frames yield core.ErrMalformedEvent.
// Missing payload fields decode to their zero values.
func inboundToCommand(raw []byte) (*core.Command, error) {
	var inbound proto.Inbound
	if err := json.Unmarshal(raw, &inbound); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrMalformedEvent, err)
	}

	switch inbound.Type {
	case proto.InboundTypeJoin:
		var join proto.JoinData
		if err := decodeData(inbound.Data, &join); err != nil {
			return nil, err
		}
		return &core.Command{
			Kind: core.CommandJoin,
			Room: join.Room,
			Name: join.DisplayName,
		}, nil
	case proto.InboundTypeSend:
		var msg proto.SendData
		if err := decodeData(inbound.Data, &msg); err != nil {
			return nil, err
		}
		return &core.Command{
			Kind: core.CommandSend,
			Room: msg.Room,
			Text: msg.Text,
		}, nil
	case proto.InboundTypeTyping:
		typing, err := decodeTyping(inbound.Data)
		if err != nil {
			return nil, err
		}
		return &core.Command{Kind: core.CommandTyping, Typing: typing}, nil
	default:
		return nil, nil
	}
}

func decodeData(data json.RawMessage, v any) error {
	if isEmpty(data) {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", core.ErrMalformedEvent, err)
	}
	return nil
}

func decodeTyping(data json.RawMessage) (bool, error) {
	if isEmpty(data) {
		return false, nil
	}
	var flag bool
	if err := json.Unmarshal(data, &flag); err == nil {
		return flag, nil
	}
	var obj proto.TypingData
	if err := json.Unmarshal(data, &obj); err != nil {
		return false, fmt.Errorf("%w: typing payload: %v", core.ErrMalformedEvent, err)
	}
	return obj.IsTyping, nil
}

func isEmpty(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func messageFromCore(msg core.Message) proto.EventMessage {
	return proto.EventMessage{
		Sender:    msg.Sender,
		Text:      msg.Text,
		Room:      msg.Room,
		Timestamp: formatTime(msg.CreatedAt),
	}
}

func messagesFromCore(msgs []core.Message) []proto.EventMessage {
	out := make([]proto.EventMessage, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, messageFromCore(msg))
	}
	return out
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventMessage:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameMessage,
			Data:  messageFromCore(event.Message),
		}
	case core.EventPresence:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNamePresence,
			Data:  proto.EventPresence{Count: event.Count, Room: event.Room},
		}
	case core.EventTyping:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameTyping,
			Data: proto.EventTyping{
				Sender:   event.Sender,
				IsTyping: event.Typing,
				Room:     event.Room,
			},
		}
	case core.EventHistory:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameHistory,
			Data: proto.EventHistory{
				Room:     event.Room,
				Messages: messagesFromCore(event.Messages),
			},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}
