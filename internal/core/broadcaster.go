package core

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-relay/internal/metrics"
)

// Deliverer hands one event to one connection. Implementations must not block
// on network I/O; a connection that cannot take the event returns an error
// wrapping ErrDeliveryFailure.
type Deliverer interface {
	Deliver(connID string, ev *Event) error
}

type typingMark struct {
	room  string
	state bool
	at    time.Time
}

// Broadcaster fans room events out to every current member.
//
// For a given room, append, recipient snapshot and enqueue happen under the
// room's fan-out lock, so all members observe room events in the same order.
// A failed delivery affects only that recipient.
type Broadcaster struct {
	hub     *Hub
	out     Deliverer
	log     *zerolog.Logger
	metrics *metrics.Metrics

	debounce time.Duration
	now      func() time.Time

	typingMu sync.Mutex
	typing   map[string]typingMark
}

// NewBroadcaster builds an engine delivering through out. Identical typing
// signals from one connection within debounce are suppressed; zero disables
// suppression.
func NewBroadcaster(hub *Hub, out Deliverer, debounce time.Duration, logger *zerolog.Logger, m *metrics.Metrics) *Broadcaster {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Broadcaster{
		hub:      hub,
		out:      out,
		log:      logger,
		metrics:  m,
		debounce: debounce,
		now:      time.Now,
		typing:   make(map[string]typingMark),
	}
}

// AnnounceJoin posts "<name> joined the room" and refreshes presence.
func (b *Broadcaster) AnnounceJoin(room, name string) {
	b.publish(room, SystemSender, displayName(name)+" joined the room")
	b.BroadcastPresence(room)
}

// AnnounceLeave posts "<name> left the room" and refreshes presence. The
// departing connection is no longer a member and does not receive it.
func (b *Broadcaster) AnnounceLeave(room, name string) {
	b.publish(room, SystemSender, displayName(name)+" left the room")
	b.BroadcastPresence(room)
}

// BroadcastMessage stores a new message in the room and delivers it to every
// registered member. The stored message is returned.
func (b *Broadcaster) BroadcastMessage(room, sender, body string) Message {
	msg := b.publish(room, sender, body)
	b.metrics.MessageBroadcast()
	return msg
}

// BroadcastPresence delivers the room's member count to every member.
func (b *Broadcaster) BroadcastPresence(room string) {
	lock := b.hub.roomLock(room)
	lock.Lock()
	defer lock.Unlock()

	recipients, stale, count := b.hub.snapshot(room, "", nil)
	b.reportStale(room, stale)
	b.fanout(recipients, &Event{Kind: EventPresence, Room: room, Count: count})
}

// BroadcastTyping forwards a typing indicator to every member except the
// originating connection. It is never stored.
func (b *Broadcaster) BroadcastTyping(room, connID string, isTyping bool) {
	p, ok := b.hub.Lookup(connID)
	if !ok {
		b.log.Warn().Str("conn_id", connID).Str("room", room).Msg("typing from unregistered connection dropped")
		return
	}
	if !b.admitTyping(connID, room, isTyping) {
		b.log.Debug().Str("conn_id", connID).Str("room", room).Bool("typing", isTyping).Msg("typing debounced")
		return
	}

	lock := b.hub.roomLock(room)
	lock.Lock()
	defer lock.Unlock()

	recipients, stale, _ := b.hub.snapshot(room, connID, nil)
	b.reportStale(room, stale)
	b.fanout(recipients, &Event{
		Kind:   EventTyping,
		Room:   room,
		Sender: displayName(p.Name),
		Typing: isTyping,
	})
}

// Admit moves connID into room and pushes the room history to it. The
// history snapshot and the membership change are taken under the room's
// fan-out lock, so the joiner sees every later room event exactly once.
// It returns the room the connection left, if any.
func (b *Broadcaster) Admit(room, connID string) (string, error) {
	lock := b.hub.roomLock(room)
	lock.Lock()
	defer lock.Unlock()

	prev, history, err := b.hub.moveTo(connID, room)
	if err != nil {
		return "", err
	}
	if err := b.out.Deliver(connID, &Event{Kind: EventHistory, Room: room, Messages: history}); err != nil {
		b.deliveryFailed(connID, room, EventHistory, err)
	}
	return prev, nil
}

// Forget drops debounce state kept for a connection.
func (b *Broadcaster) Forget(connID string) {
	b.typingMu.Lock()
	defer b.typingMu.Unlock()
	delete(b.typing, connID)
}

func (b *Broadcaster) publish(room, sender, body string) Message {
	lock := b.hub.roomLock(room)
	lock.Lock()
	defer lock.Unlock()

	msg := Message{
		Room:      room,
		Sender:    sender,
		Text:      body,
		CreatedAt: b.now().UTC(),
	}
	recipients, stale, _ := b.hub.snapshot(room, "", func(s *RoomStore) {
		s.Append(room, msg)
	})
	b.reportStale(room, stale)
	b.fanout(recipients, &Event{Kind: EventMessage, Room: room, Message: msg})
	return msg
}

func (b *Broadcaster) fanout(recipients []string, ev *Event) {
	delivered := 0
	for _, id := range recipients {
		if err := b.out.Deliver(id, ev); err != nil {
			b.deliveryFailed(id, ev.Room, ev.Kind, err)
			continue
		}
		delivered++
	}
	b.metrics.Delivered(ev.Kind.String(), delivered)
}

func (b *Broadcaster) deliveryFailed(connID, room string, kind EventKind, err error) {
	b.metrics.DeliveryFailed(kind.String())
	b.log.Warn().
		Err(err).
		Str("conn_id", connID).
		Str("room", room).
		Str("event", kind.String()).
		Msg("delivery failed")
}

func (b *Broadcaster) reportStale(room string, stale []string) {
	for _, id := range stale {
		b.log.Warn().Str("conn_id", id).Str("room", room).Msg("stale room member pruned")
	}
}

func (b *Broadcaster) admitTyping(connID, room string, state bool) bool {
	b.typingMu.Lock()
	defer b.typingMu.Unlock()

	now := b.now()
	last, ok := b.typing[connID]
	if ok && last.room == room && last.state == state && now.Sub(last.at) < b.debounce {
		return false
	}
	b.typing[connID] = typingMark{room: room, state: state, at: now}
	return true
}
