package core

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu   sync.Mutex
	got  map[string][]*Event
	fail map[string]bool
}

func newRecorder(failing ...string) *recorder {
	r := &recorder{got: make(map[string][]*Event), fail: make(map[string]bool)}
	for _, id := range failing {
		r.fail[id] = true
	}
	return r
}

func (r *recorder) Deliver(connID string, ev *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail[connID] {
		return ErrDeliveryFailure
	}
	r.got[connID] = append(r.got[connID], ev)
	return nil
}

func (r *recorder) events(connID string, kind EventKind) []*Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return ofKind(r.got[connID], kind)
}

func newTestEngine(t *testing.T, out Deliverer, debounce time.Duration, members ...string) (*Broadcaster, *Hub) {
	t.Helper()
	hub := NewHub(DefaultHistoryCapacity)
	for _, id := range members {
		require.NoError(t, hub.Register(id))
		require.NoError(t, hub.SetDisplayName(id, id))
		hub.Join("general", id)
	}
	nop := zerolog.Nop()
	return NewBroadcaster(hub, out, debounce, &nop, nil), hub
}

func TestBroadcaster_Failed_Delivery_Is_Isolated(t *testing.T) {
	req := require.New(t)
	out := newRecorder("b")
	engine, hub := newTestEngine(t, out, 0, "a", "b", "c")

	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return fixed }

	msg := engine.BroadcastMessage("general", "a", "hello")

	req.Equal(Message{Room: "general", Sender: "a", Text: "hello", CreatedAt: fixed}, msg)
	req.Len(out.events("a", EventMessage), 1)
	req.Len(out.events("c", EventMessage), 1)
	req.Empty(out.events("b", EventMessage))
	req.Len(hub.History("general"), 1)
}

func TestBroadcaster_Stale_Member_Is_Pruned(t *testing.T) {
	req := require.New(t)
	out := newRecorder()
	engine, hub := newTestEngine(t, out, 0, "a", "b")

	// Registry forgets b while the room still lists it.
	_, err := hub.Unregister("b")
	req.NoError(err)

	engine.BroadcastMessage("general", "a", "anyone?")

	req.Len(out.events("a", EventMessage), 1)
	req.Empty(out.events("b", EventMessage))
	req.NotContains(hub.Members("general"), "b")
}

func TestBroadcaster_Presence_Reports_Member_Count(t *testing.T) {
	req := require.New(t)
	out := newRecorder()
	engine, _ := newTestEngine(t, out, 0, "a", "b", "c")

	engine.BroadcastPresence("general")

	for _, id := range []string{"a", "b", "c"} {
		evs := out.events(id, EventPresence)
		req.Len(evs, 1)
		req.Equal(3, evs[0].Count)
	}
}

func TestBroadcaster_Typing_Debounce(t *testing.T) {
	req := require.New(t)
	out := newRecorder()
	engine, _ := newTestEngine(t, out, time.Second, "a", "b")

	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return clock }

	engine.BroadcastTyping("general", "a", true)
	clock = clock.Add(100 * time.Millisecond)
	engine.BroadcastTyping("general", "a", true) // suppressed
	engine.BroadcastTyping("general", "a", false)
	clock = clock.Add(2 * time.Second)
	engine.BroadcastTyping("general", "a", false)

	evs := out.events("b", EventTyping)
	req.Len(evs, 3)
	req.True(evs[0].Typing)
	req.False(evs[1].Typing)
	req.False(evs[2].Typing)
	req.Empty(out.events("a", EventTyping))

	engine.Forget("a")
	engine.BroadcastTyping("general", "a", false)
	req.Len(out.events("b", EventTyping), 4)
}

func TestBroadcaster_Admit_Unknown_Connection(t *testing.T) {
	out := newRecorder()
	engine, _ := newTestEngine(t, out, 0)

	_, err := engine.Admit("general", "ghost")
	require.ErrorIs(t, err, ErrUnknownConnection)
}

func TestBroadcaster_Admit_Pushes_History(t *testing.T) {
	req := require.New(t)
	out := newRecorder()
	engine, hub := newTestEngine(t, out, 0, "a")
	engine.BroadcastMessage("general", "a", "earlier")

	req.NoError(hub.Register("z"))
	prev, err := engine.Admit("general", "z")
	req.NoError(err)
	req.Empty(prev)

	hist := out.events("z", EventHistory)
	req.Len(hist, 1)
	req.Equal([]string{"earlier"}, []string{hist[0].Messages[0].Text})
	req.Contains(hub.Members("general"), "z")
}
