package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-relay/internal/config"
	"github.com/vovakirdan/wirechat-relay/internal/core"
)

// NewServer builds the HTTP server: the WebSocket endpoint, the history API
// and, when metricsHandler is non-nil, the Prometheus endpoint.
func NewServer(gateway *core.Gateway, hub *core.Hub, metricsHandler stdhttp.Handler, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", healthHandler)
	router.GET("/ws", gin.WrapH(NewWSHandler(gateway, cfg, logger)))

	rooms := NewRoomHandlers(hub, logger)
	api := router.Group("/api")
	{
		api.GET("/rooms", rooms.ListRooms)
		api.GET("/rooms/:room/history", rooms.History)
		api.GET("/stats", rooms.Stats)
	}

	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
