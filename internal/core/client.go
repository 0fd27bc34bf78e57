package core

import (
	"fmt"
	"sync"
)

// DefaultSendBuffer is the outbox size used when none is configured.
const DefaultSendBuffer = 32

// State is the lifecycle stage of a connection.
type State int

const (
	// StateConnected means registered but not in a room.
	StateConnected State = iota
	// StateJoined means the connection belongs to a room.
	StateJoined
	// StateClosed is terminal.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateJoined:
		return "joined"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Client is one live connection as seen by the core layer. Events is the
// bounded outbox drained by the transport's writer; it is closed when the
// connection reaches StateClosed.
type Client struct {
	ID     string
	Events chan *Event

	mu    sync.Mutex
	state State
}

// NewClient constructs a client with an outbox of the given size.
func NewClient(id string, buffer int) *Client {
	if buffer <= 0 {
		buffer = DefaultSendBuffer
	}
	return &Client{
		ID:     id,
		Events: make(chan *Event, buffer),
	}
}

// State returns the current lifecycle stage.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateClosed {
		c.state = s
	}
}

// enqueue never blocks: a full outbox drops the event.
func (c *Client) enqueue(ev *Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateClosed {
		return fmt.Errorf("%w: %w", ErrDeliveryFailure, ErrConnectionClosed)
	}
	select {
	case c.Events <- ev:
		return nil
	default:
		return fmt.Errorf("%w: outbox full", ErrDeliveryFailure)
	}
}

// close moves the client to StateClosed and closes its outbox once.
// It reports whether this call performed the transition.
func (c *Client) close() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateClosed {
		return false
	}
	c.state = StateClosed
	close(c.Events)
	return true
}
