package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-relay/internal/proto"
)

// newChatCmd is a terminal client for poking at a running relay.
func newChatCmd() *cobra.Command {
	var addr, name, room string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Join a room from the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd.Context(), addr, name, room)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "ws://localhost:8080/ws", "WebSocket address")
	cmd.Flags().StringVar(&name, "name", "cli-user", "display name")
	cmd.Flags().StringVar(&room, "room", "general", "room to join")
	return cmd
}

func runChat(parent context.Context, addr, name, room string) error {
	if parent == nil {
		parent = context.Background()
	}
	baseCtx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	if _, err := url.Parse(addr); err != nil {
		return fmt.Errorf("parse addr: %w", err)
	}

	conn, _, err := websocket.Dial(ctx, addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	if err := sendInbound(ctx, conn, proto.InboundTypeJoin, proto.JoinData{DisplayName: name, Room: room}); err != nil {
		return fmt.Errorf("join: %w", err)
	}

	fmt.Printf("Connected to %s as %s in room %s\n", addr, name, room)
	fmt.Println("Type messages and press Enter to send. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn, room)
	return nil
}

func sendInbound(ctx context.Context, conn *websocket.Conn, kind string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return wsjson.Write(ctx, conn, proto.Inbound{Type: kind, Data: payload})
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var env proto.Envelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			// Treat expected shutdowns quietly.
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			fmt.Fprintf(os.Stderr, "read error: %v\n", err)
			return
		}
		printEnvelope(env)
	}
}

func printEnvelope(env proto.Envelope) {
	switch env.Event {
	case proto.EventNameMessage:
		var evt proto.EventMessage
		if json.Unmarshal(env.Data, &evt) == nil {
			fmt.Printf("[%s] %s: %s\n", evt.Room, evt.Sender, evt.Text)
		}
	case proto.EventNamePresence:
		var evt proto.EventPresence
		if json.Unmarshal(env.Data, &evt) == nil {
			fmt.Printf("[%s] %d online\n", evt.Room, evt.Count)
		}
	case proto.EventNameTyping:
		var evt proto.EventTyping
		if json.Unmarshal(env.Data, &evt) == nil && evt.IsTyping {
			fmt.Printf("[%s] %s is typing...\n", evt.Room, evt.Sender)
		}
	case proto.EventNameHistory:
		var evt proto.EventHistory
		if json.Unmarshal(env.Data, &evt) == nil {
			for _, msg := range evt.Messages {
				fmt.Printf("[%s] (%s) %s: %s\n", evt.Room, msg.Timestamp, msg.Sender, msg.Text)
			}
		}
	default:
		fmt.Printf("event=%s data=%s\n", env.Event, env.Data)
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn, room string) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}
			if err := sendInbound(ctx, conn, proto.InboundTypeSend, proto.SendData{Room: room, Text: text}); err != nil {
				fmt.Fprintf(os.Stderr, "send error: %v\n", err)
				return
			}
		}
	}
}
