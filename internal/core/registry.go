package core

import "fmt"

// Participant is the registry's view of one live connection.
type Participant struct {
	ConnID string
	Name   string
	Room   string
}

// Registry maps live connection ids to participants.
// It is not safe for concurrent use on its own; Hub serializes access.
type Registry struct {
	participants map[string]*Participant
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{participants: make(map[string]*Participant)}
}

// Register creates an entry with no display name and no room.
func (r *Registry) Register(connID string) error {
	if _, exists := r.participants[connID]; exists {
		return fmt.Errorf("register %s: %w", connID, ErrDuplicateConnection)
	}
	r.participants[connID] = &Participant{ConnID: connID}
	return nil
}

// SetDisplayName stores name as given. Defaulting empty names is the caller's job.
func (r *Registry) SetDisplayName(connID, name string) error {
	p, ok := r.participants[connID]
	if !ok {
		return fmt.Errorf("set display name %s: %w", connID, ErrUnknownConnection)
	}
	p.Name = name
	return nil
}

// SetRoom records the room the connection currently belongs to.
func (r *Registry) SetRoom(connID, room string) error {
	p, ok := r.participants[connID]
	if !ok {
		return fmt.Errorf("set room %s: %w", connID, ErrUnknownConnection)
	}
	p.Room = room
	return nil
}

// Unregister removes the entry and returns its last-known state.
func (r *Registry) Unregister(connID string) (Participant, error) {
	p, ok := r.participants[connID]
	if !ok {
		return Participant{}, fmt.Errorf("unregister %s: %w", connID, ErrUnknownConnection)
	}
	delete(r.participants, connID)
	return *p, nil
}

// Lookup returns a copy of the participant registered under connID.
func (r *Registry) Lookup(connID string) (Participant, bool) {
	p, ok := r.participants[connID]
	if !ok {
		return Participant{}, false
	}
	return *p, true
}

// Contains reports whether connID is registered.
func (r *Registry) Contains(connID string) bool {
	_, ok := r.participants[connID]
	return ok
}

// Count returns the number of registered connections.
func (r *Registry) Count() int {
	return len(r.participants)
}
