package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-relay/internal/config"
	"github.com/vovakirdan/wirechat-relay/internal/core"
	"github.com/vovakirdan/wirechat-relay/internal/utils"
)

// WSHandler upgrades HTTP connections and bridges them to the gateway.
// Each connection gets one reader and one writer goroutine; the writer is
// the only code that writes to the socket.
type WSHandler struct {
	gateway *core.Gateway
	cfg     *config.Config
	log     *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(gateway *core.Gateway, cfg *config.Config, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{gateway: gateway, cfg: cfg, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	// Oversized frames are a transport error: the library closes with 1009.
	if h.cfg.MaxMessageBytes > 0 {
		conn.SetReadLimit(h.cfg.MaxMessageBytes)
	}

	query := r.URL.Query()
	client := core.NewClient(utils.NewID(), h.cfg.SendBuffer)
	if err := h.gateway.Accept(client, query.Get("name")); err != nil {
		h.log.Error().Err(err).Str("client_id", client.ID).Msg("register connection")
		conn.Close(websocket.StatusTryAgainLater, "connection refused")
		return
	}
	defer h.gateway.Disconnect(client.ID)

	// The page that opened the socket may preselect a room.
	if room := query.Get("room"); room != "" {
		h.gateway.Handle(client.ID, core.Command{Kind: core.CommandJoin, Room: room})
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("client_id", client.ID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	limiter := newRateLimiter(h.cfg.RateLimitPerMinute, rateWindow)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			h.log.Debug().Err(err).Str("client_id", client.ID).Msg("read ws inbound")
			return err
		}

		if !limiter.allow() {
			h.gateway.Metrics().EventDropped("rate_limited")
			h.log.Warn().Str("client_id", client.ID).Msg("rate limit exceeded, event dropped")
			continue
		}

		cmd, err := inboundToCommand(data)
		if err != nil {
			h.gateway.Metrics().MalformedEvent()
			h.log.Warn().Err(err).Str("client_id", client.ID).Msg("malformed inbound dropped")
			continue
		}
		if cmd == nil {
			h.log.Debug().Str("client_id", client.ID).Msg("unknown inbound type ignored")
			continue
		}
		h.gateway.Handle(client.ID, *cmd)
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			if err := h.write(ctx, conn, event); err != nil {
				h.log.Error().Err(err).Str("client_id", client.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) write(ctx context.Context, conn *websocket.Conn, event *core.Event) error {
	if h.cfg.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.WriteTimeout)
		defer cancel()
	}
	return wsjson.Write(ctx, conn, outboundFromEvent(event))
}
