package core

import (
	"errors"
	"sync"

	"github.com/samber/lo"
)

// Hub owns the session registry and the room store and serializes every
// access to them behind one mutex. Nothing under the lock blocks on I/O.
type Hub struct {
	mu       sync.Mutex
	registry *Registry
	rooms    *RoomStore

	// fanout orders deliveries per room; see roomLock.
	fanout map[string]*sync.Mutex
}

// NewHub creates a hub whose rooms keep historyCapacity messages.
func NewHub(historyCapacity int) *Hub {
	return &Hub{
		registry: NewRegistry(),
		rooms:    NewRoomStore(historyCapacity),
		fanout:   make(map[string]*sync.Mutex),
	}
}

// Register adds a fresh connection to the registry.
func (h *Hub) Register(connID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.registry.Register(connID)
}

// SetDisplayName updates the participant's display name.
func (h *Hub) SetDisplayName(connID, name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.registry.SetDisplayName(connID, name)
}

// Unregister removes the connection from the registry only. Room membership
// is left to Leave. It is kept for direct use; the gateway calls Disconnect.
func (h *Hub) Unregister(connID string) (Participant, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.registry.Unregister(connID)
}

// Disconnect unregisters the connection and drops it from its room in one
// step, so no snapshot can observe a member that is no longer registered.
func (h *Hub) Disconnect(connID string) (Participant, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, err := h.registry.Unregister(connID)
	if err != nil {
		return p, err
	}
	if p.Room != "" {
		h.rooms.Leave(connID, p.Room)
	}
	return p, nil
}

// Lookup returns the participant registered under connID.
func (h *Hub) Lookup(connID string) (Participant, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.registry.Lookup(connID)
}

// Count returns the number of live connections.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.registry.Count()
}

// Join, Leave and Append expose single room store operations for direct use.
// The gateway goes through the combined moveTo and snapshot steps instead, so
// that membership and history change together with fan-out.

// Join adds connID to the room's member set.
func (h *Hub) Join(room, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rooms.Join(room, connID)
}

// Leave removes connID from the room's member set.
func (h *Hub) Leave(connID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rooms.Leave(connID, room)
}

// Append stores msg in the room history.
func (h *Hub) Append(room string, msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rooms.Append(room, msg)
}

// History returns a point-in-time copy of the room history.
func (h *Hub) History(room string) []Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rooms.History(room)
}

// Members returns a point-in-time copy of the room membership.
func (h *Hub) Members(room string) map[string]struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rooms.Members(room)
}

// Rooms lists known rooms.
func (h *Hub) Rooms() []RoomInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rooms.Rooms()
}

// moveTo switches the connection into room, leaving its previous room, and
// returns the previous room together with the history the joiner should see.
func (h *Hub) moveTo(connID, room string) (prev string, history []Message, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.registry.Lookup(connID)
	if !ok {
		return "", nil, ErrUnknownConnection
	}
	if p.Room != "" && p.Room != room {
		h.rooms.Leave(connID, p.Room)
	}
	h.rooms.Join(room, connID)
	if err := h.registry.SetRoom(connID, room); err != nil {
		return "", nil, err
	}
	return p.Room, h.rooms.History(room), nil
}

// snapshot returns the registered members of room, minus except, after
// applying mutate under the same lock. Members missing from the registry are
// pruned from the room and reported as stale.
func (h *Hub) snapshot(room, except string, mutate func(*RoomStore)) (recipients, stale []string, count int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if mutate != nil {
		mutate(h.rooms)
	}

	members := lo.Keys(h.rooms.Members(room))
	stale = lo.Filter(members, func(id string, _ int) bool {
		return !h.registry.Contains(id)
	})
	for _, id := range stale {
		h.rooms.Leave(id, room)
	}
	recipients = lo.Filter(members, func(id string, _ int) bool {
		return id != except && h.registry.Contains(id)
	})
	return recipients, stale, h.rooms.MemberCount(room)
}

// roomLock returns the mutex that orders fan-out within one room. It is held
// while a room event is appended, snapshotted and enqueued, which gives
// per-room FIFO without serializing unrelated rooms.
func (h *Hub) roomLock(room string) *sync.Mutex {
	h.mu.Lock()
	defer h.mu.Unlock()

	l, ok := h.fanout[room]
	if !ok {
		l = &sync.Mutex{}
		h.fanout[room] = l
	}
	return l
}

// isUnknown reports whether err is the registry's unknown-connection error.
func isUnknown(err error) bool {
	return errors.Is(err, ErrUnknownConnection)
}
