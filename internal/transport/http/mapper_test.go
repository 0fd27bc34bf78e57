package http

import (
	"errors"
	"testing"
	"time"

	"github.com/vovakirdan/wirechat-relay/internal/core"
	"github.com/vovakirdan/wirechat-relay/internal/proto"
)

func TestInboundToCommand(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *core.Command
	}{
		{
			name: "join",
			raw:  `{"type":"join","data":{"displayName":"Alice","room":"general"}}`,
			want: &core.Command{Kind: core.CommandJoin, Room: "general", Name: "Alice"},
		},
		{
			name: "send without text",
			raw:  `{"type":"send","data":{"room":"general"}}`,
			want: &core.Command{Kind: core.CommandSend, Room: "general"},
		},
		{
			name: "send without data",
			raw:  `{"type":"send"}`,
			want: &core.Command{Kind: core.CommandSend},
		},
		{
			name: "typing bool",
			raw:  `{"type":"typing","data":true}`,
			want: &core.Command{Kind: core.CommandTyping, Typing: true},
		},
		{
			name: "typing object",
			raw:  `{"type":"typing","data":{"isTyping":true}}`,
			want: &core.Command{Kind: core.CommandTyping, Typing: true},
		},
		{
			name: "unknown kind",
			raw:  `{"type":"dance","data":{}}`,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := inboundToCommand([]byte(tt.raw))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if (got == nil) != (tt.want == nil) || (got != nil && *got != *tt.want) {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestInboundToCommandMalformed(t *testing.T) {
	for _, raw := range []string{
		`{not json`,
		`{"type":"send","data":{"text":42}}`,
		`{"type":"typing","data":"yes"}`,
	} {
		if _, err := inboundToCommand([]byte(raw)); !errors.Is(err, core.ErrMalformedEvent) {
			t.Errorf("%s: expected malformed event error, got %v", raw, err)
		}
	}
}

func TestOutboundFromEvent(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	msg := core.Message{Room: "general", Sender: "Alice", Text: "hi", CreatedAt: ts}

	out := outboundFromEvent(&core.Event{Kind: core.EventMessage, Room: "general", Message: msg})
	if out.Event != proto.EventNameMessage {
		t.Fatalf("unexpected event name %q", out.Event)
	}
	data, ok := out.Data.(proto.EventMessage)
	if !ok || data.Sender != "Alice" || data.Timestamp != "2024-05-01T12:00:00.000Z" {
		t.Fatalf("unexpected data %+v", out.Data)
	}

	out = outboundFromEvent(&core.Event{Kind: core.EventPresence, Room: "general", Count: 2})
	if p, ok := out.Data.(proto.EventPresence); !ok || p.Count != 2 {
		t.Fatalf("unexpected presence %+v", out.Data)
	}

	out = outboundFromEvent(&core.Event{Kind: core.EventHistory, Room: "empty"})
	if h, ok := out.Data.(proto.EventHistory); !ok || h.Messages == nil || len(h.Messages) != 0 {
		t.Fatalf("history should carry an empty, non-nil list: %+v", out.Data)
	}
}
