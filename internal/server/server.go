package server

import (
	"ctchen222/Cosmic-Tic-Tac-Toe/internal/api/controller"
	"ctchen222/Cosmic-Tic-Tac-Toe/internal/events"
	"ctchen222/Cosmic-Tic-Tac-Toe/internal/session"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("server")

const defaultPingInterval = 10 * time.Second

type Server struct {
	games          *session.Service
	bus            events.Bus
	gameController *controller.GameController
	upgrader       websocket.Upgrader
	pingInterval   time.Duration
}

// NewServer wires the HTTP and WebSocket endpoints. An empty allowedOrigins
// accepts every origin.
func NewServer(games *session.Service, bus events.Bus, gc *controller.GameController, allowedOrigins []string) *Server {
	return &Server{
		games:          games,
		bus:            bus,
		gameController: gc,
		pingInterval:   defaultPingInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowedOrigins) == 0 {
					return true
				}
				return slices.Contains(allowedOrigins, r.Header.Get("Origin"))
			},
		},
	}
}

func (s *Server) Engine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/games")
	{
		api.POST("", s.gameController.Create)
		api.GET("/:id", s.gameController.Get)
		api.POST("/:id/moves", s.gameController.Move)
		api.POST("/:id/reset", s.gameController.Reset)
		api.PUT("/:id/settings", s.gameController.Settings)
		api.DELETE("/:id", s.gameController.Delete)
	}

	r.GET("/ws/:id", s.handleWebSocket)
	return r
}
