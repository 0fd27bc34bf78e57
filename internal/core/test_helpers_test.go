package core

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// drain returns everything currently buffered in the outbox.
func drain(c *Client) []*Event {
	var out []*Event
	for {
		select {
		case ev, ok := <-c.Events:
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

func ofKind(events []*Event, kind EventKind) []*Event {
	var out []*Event
	for _, ev := range events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

func texts(events []*Event) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Message.Text)
	}
	return out
}

func newTestGateway(t *testing.T) (*Gateway, *Hub) {
	t.Helper()
	nop := zerolog.Nop()
	hub := NewHub(DefaultHistoryCapacity)
	return NewGateway(hub, 0, &nop, nil), hub
}

func connect(t *testing.T, g *Gateway, id, name, room string) *Client {
	t.Helper()
	c := NewClient(id, 256)
	if err := g.Accept(c, ""); err != nil {
		t.Fatalf("accept %s: %v", id, err)
	}
	if room != "" {
		g.Handle(id, Command{Kind: CommandJoin, Room: room, Name: name})
	}
	return c
}
