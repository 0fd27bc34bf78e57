package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-relay/internal/core"
)

// RoomHandlers provides the pull-side HTTP API over the hub's state.
type RoomHandlers struct {
	hub *core.Hub
	log *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(hub *core.Hub, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		hub: hub,
		log: logger,
	}
}

// RoomResponse represents a room in API responses.
type RoomResponse struct {
	Name     string `json:"name"`
	Members  int    `json:"members"`
	Messages int    `json:"messages"`
}

// StatsResponse reports process-wide counters.
type StatsResponse struct {
	Connections int `json:"connections"`
	Rooms       int `json:"rooms"`
}

// History returns the stored messages of a room, oldest first.
// An unknown room yields an empty array.
// GET /api/rooms/:room/history
func (h *RoomHandlers) History(c *gin.Context) {
	room := c.Param("room")
	messages := messagesFromCore(h.hub.History(room))

	h.log.Debug().Str("room", room).Int("count", len(messages)).Msg("history served")
	c.JSON(http.StatusOK, messages)
}

// ListRooms lists every room the process has seen.
// GET /api/rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	rooms := h.hub.Rooms()

	response := make([]RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		response = append(response, RoomResponse{
			Name:     room.Name,
			Members:  room.Members,
			Messages: room.Stored,
		})
	}

	h.log.Debug().Int("room_count", len(rooms)).Msg("rooms listed")
	c.JSON(http.StatusOK, response)
}

// Stats reports the live connection count.
// GET /api/stats
func (h *RoomHandlers) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, StatsResponse{
		Connections: h.hub.Count(),
		Rooms:       len(h.hub.Rooms()),
	})
}
