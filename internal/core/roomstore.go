package core

import (
	"maps"
	"sort"
	"slices"
)

// DefaultHistoryCapacity is the number of messages a room keeps.
const DefaultHistoryCapacity = 100

// room groups connections subscribed to the same channel together with the
// tail of its message history.
type room struct {
	name    string
	history []Message
	members map[string]struct{}
}

// RoomInfo summarizes a room for listings.
type RoomInfo struct {
	Name    string
	Members int
	Stored  int
}

// RoomStore holds every room known to the process. Rooms are created on first
// use and live as long as the store.
// It is not safe for concurrent use on its own; Hub serializes access.
type RoomStore struct {
	capacity int
	rooms    map[string]*room
}

// NewRoomStore creates a store whose rooms retain at most capacity messages.
// A non-positive capacity selects DefaultHistoryCapacity.
func NewRoomStore(capacity int) *RoomStore {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &RoomStore{
		capacity: capacity,
		rooms:    make(map[string]*room),
	}
}

func (s *RoomStore) get(name string) *room {
	r, ok := s.rooms[name]
	if !ok {
		r = &room{
			name:    name,
			history: make([]Message, 0, s.capacity),
			members: make(map[string]struct{}),
		}
		s.rooms[name] = r
	}
	return r
}

// Join adds the connection to the room, creating the room if needed.
// Joining twice is a no-op.
func (s *RoomStore) Join(name, connID string) {
	s.get(name).members[connID] = struct{}{}
}

// Leave removes the connection from the room if it is a member.
func (s *RoomStore) Leave(connID, name string) {
	if r, ok := s.rooms[name]; ok {
		delete(r.members, connID)
	}
}

// Append adds msg to the room history, dropping the oldest entries once the
// capacity is exceeded.
func (s *RoomStore) Append(name string, msg Message) {
	r := s.get(name)
	r.history = append(r.history, msg)
	if over := len(r.history) - s.capacity; over > 0 {
		n := copy(r.history, r.history[over:])
		clear(r.history[n:])
		r.history = r.history[:n]
	}
}

// History returns a copy of the room history, oldest first.
func (s *RoomStore) History(name string) []Message {
	r, ok := s.rooms[name]
	if !ok {
		return []Message{}
	}
	return slices.Clone(r.history)
}

// Members returns a copy of the room membership.
func (s *RoomStore) Members(name string) map[string]struct{} {
	r, ok := s.rooms[name]
	if !ok {
		return map[string]struct{}{}
	}
	return maps.Clone(r.members)
}

// MemberCount returns the number of members without copying the set.
func (s *RoomStore) MemberCount(name string) int {
	if r, ok := s.rooms[name]; ok {
		return len(r.members)
	}
	return 0
}

// Rooms lists every known room sorted by name.
func (s *RoomStore) Rooms() []RoomInfo {
	out := make([]RoomInfo, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, RoomInfo{Name: r.name, Members: len(r.members), Stored: len(r.history)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
