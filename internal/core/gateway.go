package core

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-relay/internal/metrics"
)

// Gateway owns every live connection. It registers accepted connections,
// drives their state machine, dispatches decoded commands, and is the only
// component that enqueues events for a connection.
type Gateway struct {
	hub     *Hub
	engine  *Broadcaster
	log     *zerolog.Logger
	metrics *metrics.Metrics

	mu      sync.RWMutex
	clients map[string]*Client

	draining atomic.Bool
}

// NewGateway creates a gateway over hub. typingDebounce is passed to the
// broadcast engine.
func NewGateway(hub *Hub, typingDebounce time.Duration, logger *zerolog.Logger, m *metrics.Metrics) *Gateway {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	g := &Gateway{
		hub:     hub,
		log:     logger,
		metrics: m,
		clients: make(map[string]*Client),
	}
	g.engine = NewBroadcaster(hub, g, typingDebounce, logger, m)
	return g
}

// Engine returns the broadcast engine bound to this gateway.
func (g *Gateway) Engine() *Broadcaster {
	return g.engine
}

// Metrics returns the collectors the gateway reports to. It may be nil.
func (g *Gateway) Metrics() *metrics.Metrics {
	return g.metrics
}

// Accept registers a freshly accepted connection. name is the display name
// picked at connection time and may be empty.
func (g *Gateway) Accept(c *Client, name string) error {
	if g.draining.Load() {
		return ErrConnectionClosed
	}
	if err := g.hub.Register(c.ID); err != nil {
		return err
	}
	if name != "" {
		if err := g.hub.SetDisplayName(c.ID, name); err != nil {
			return err
		}
	}

	g.mu.Lock()
	g.clients[c.ID] = c
	g.mu.Unlock()

	g.metrics.ConnectionOpened()
	g.log.Info().Str("conn_id", c.ID).Int("connections", g.hub.Count()).Msg("connection accepted")
	return nil
}

// Deliver enqueues ev on the connection's outbox.
func (g *Gateway) Deliver(connID string, ev *Event) error {
	c := g.client(connID)
	if c == nil {
		return errors.Join(ErrDeliveryFailure, ErrUnknownConnection)
	}
	return c.enqueue(ev)
}

// Handle dispatches one decoded command. Commands for closed or unknown
// connections are dropped.
func (g *Gateway) Handle(connID string, cmd Command) {
	c := g.client(connID)
	if c == nil || c.State() == StateClosed {
		g.metrics.EventDropped("closed")
		g.log.Warn().Str("conn_id", connID).Str("command", cmd.Kind.String()).Msg("command for closed connection dropped")
		return
	}

	switch cmd.Kind {
	case CommandJoin:
		g.join(c, cmd)
	case CommandSend:
		g.send(c, cmd)
	case CommandTyping:
		g.typing(c, cmd)
	default:
		g.log.Warn().Str("conn_id", connID).Int("kind", int(cmd.Kind)).Msg("unknown command ignored")
	}
}

// Disconnect closes the connection, removes it from the registry and its
// room, and announces the departure. Repeated calls are no-ops.
func (g *Gateway) Disconnect(connID string) {
	g.mu.Lock()
	c, ok := g.clients[connID]
	delete(g.clients, connID)
	g.mu.Unlock()

	if !ok {
		g.log.Debug().Str("conn_id", connID).Msg("disconnect for unknown connection ignored")
		return
	}
	c.close()

	p, err := g.hub.Disconnect(connID)
	if err != nil {
		if !isUnknown(err) {
			g.log.Warn().Err(err).Str("conn_id", connID).Msg("disconnect")
		}
		return
	}
	g.engine.Forget(connID)
	g.metrics.ConnectionClosed()
	g.log.Info().
		Str("conn_id", connID).
		Str("room", p.Room).
		Int("connections", g.hub.Count()).
		Msg("connection closed")

	if p.Room != "" && !g.draining.Load() {
		g.engine.AnnounceLeave(p.Room, p.Name)
	}
}

// Shutdown closes every connection's outbox so the transport writers finish.
// Departures are not announced once shutdown has started.
func (g *Gateway) Shutdown() {
	g.draining.Store(true)

	g.mu.RLock()
	clients := make([]*Client, 0, len(g.clients))
	for _, c := range g.clients {
		clients = append(clients, c)
	}
	g.mu.RUnlock()

	for _, c := range clients {
		c.close()
	}
	g.log.Info().Int("connections", len(clients)).Msg("gateway drained")
}

func (g *Gateway) client(connID string) *Client {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.clients[connID]
}

func (g *Gateway) join(c *Client, cmd Command) {
	if cmd.Room == "" {
		g.metrics.EventDropped("no_room")
		g.log.Warn().Str("conn_id", c.ID).Msg("join without room dropped")
		return
	}
	p, ok := g.hub.Lookup(c.ID)
	if !ok {
		return
	}
	if p.Room == cmd.Room {
		g.log.Debug().Str("conn_id", c.ID).Str("room", cmd.Room).Msg("already in room")
		return
	}

	// The display name is fixed by the first join that supplies one.
	name := p.Name
	if name == "" {
		name = displayName(cmd.Name)
		if err := g.hub.SetDisplayName(c.ID, name); err != nil {
			return
		}
	}

	prev, err := g.engine.Admit(cmd.Room, c.ID)
	if err != nil {
		g.log.Warn().Err(err).Str("conn_id", c.ID).Str("room", cmd.Room).Msg("join failed")
		return
	}
	c.setState(StateJoined)
	g.log.Info().Str("conn_id", c.ID).Str("user", name).Str("room", cmd.Room).Str("prev_room", prev).Msg("joined room")

	if prev != "" {
		g.engine.Forget(c.ID)
		g.engine.AnnounceLeave(prev, name)
	}
	g.engine.AnnounceJoin(cmd.Room, name)
}

func (g *Gateway) send(c *Client, cmd Command) {
	p, ok := g.hub.Lookup(c.ID)
	if !ok {
		return
	}
	room := cmd.Room
	if room == "" {
		room = p.Room
	}
	if room == "" {
		g.metrics.EventDropped("not_joined")
		g.log.Warn().Str("conn_id", c.ID).Msg("send before join dropped")
		return
	}
	msg := g.engine.BroadcastMessage(room, displayName(p.Name), cmd.Text)
	g.log.Debug().Str("conn_id", c.ID).Str("room", room).Time("ts", msg.CreatedAt).Msg("message broadcast")
}

func (g *Gateway) typing(c *Client, cmd Command) {
	p, ok := g.hub.Lookup(c.ID)
	if !ok || p.Room == "" {
		g.metrics.EventDropped("not_joined")
		g.log.Warn().Str("conn_id", c.ID).Msg("typing before join dropped")
		return
	}
	g.engine.BroadcastTyping(p.Room, c.ID, cmd.Typing)
}
