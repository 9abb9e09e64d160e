package server

import (
	"context"
	"ctchen222/Cosmic-Tic-Tac-Toe/internal/api/controller"
	"ctchen222/Cosmic-Tic-Tac-Toe/internal/events"
	"ctchen222/Cosmic-Tic-Tac-Toe/internal/game"
	"ctchen222/Cosmic-Tic-Tac-Toe/internal/validator"
	"ctchen222/Cosmic-Tic-Tac-Toe/pkg/proto"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 16
)

// client is one WebSocket watching one game. Only writePump writes to conn.
type client struct {
	gameID string
	conn   *websocket.Conn
	send   chan *proto.ServerToClientMessage
	// since is the last change of the initial view; older updates are
	// skipped.
	since time.Time
}

// handleWebSocket upgrades the connection, streams every change of the game
// and forwards the commands the client sends to the game service.
func (s *Server) handleWebSocket(c *gin.Context) {
	gameID := c.Param("id")
	ctx, span := tracer.Start(c.Request.Context(), "server.handleWebSocket", trace.WithAttributes(
		attribute.String("http.url", c.Request.URL.String()),
		attribute.String("game.id", gameID),
	))
	defer span.End()

	// The subscription outlives the upgrade request.
	connCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()

	// Subscribe before reading the initial view so no change falls between
	// the two.
	updates, unsubscribe, err := s.bus.Subscribe(connCtx, gameID)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to subscribe to game", "game.id", gameID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to subscribe to game")
		controller.ErrorFor(err).Abort(c)
		return
	}
	defer unsubscribe()

	state, err := s.games.Get(ctx, gameID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Could not find game")
		controller.ErrorFor(err).Abort(c)
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to upgrade connection", "game.id", gameID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to upgrade connection")
		return
	}

	cl := &client{
		gameID: gameID,
		conn:   conn,
		send:   make(chan *proto.ServerToClientMessage, sendBufferSize),
		since:  state.UpdatedAt,
	}
	cl.send <- &proto.ServerToClientMessage{Type: proto.TypeUpdate, Game: proto.NewGameView(state)}

	slog.InfoContext(ctx, "Client connected", "game.id", gameID)
	go func() {
		s.writePump(connCtx, cl, updates)
		cancel()
	}()
	s.readPump(connCtx, cl)
	cancel()
	slog.InfoContext(ctx, "Client disconnected", "game.id", gameID)
}

// readPump handles client commands until the connection fails.
func (s *Server) readPump(ctx context.Context, cl *client) {
	defer cl.conn.Close()

	for {
		_, data, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.WarnContext(ctx, "Unexpected websocket close", "game.id", cl.gameID, "error", err)
			}
			return
		}
		if reason := s.handleMessage(ctx, cl.gameID, data); reason != "" {
			select {
			case cl.send <- &proto.ServerToClientMessage{Type: proto.TypeError, Reason: reason}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// handleMessage applies one command and returns the reason it was rejected,
// or "" on success. Successful commands reach the client through the bus.
func (s *Server) handleMessage(ctx context.Context, gameID string, data []byte) string {
	ctx, span := tracer.Start(ctx, "server.handleMessage", trace.WithAttributes(
		attribute.String("game.id", gameID),
	))
	defer span.End()

	var msg proto.ClientToServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Malformed message")
		return "malformed message"
	}
	span.SetAttributes(attribute.String("message.type", msg.Type))
	if err := validator.GetValidator().Struct(msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid message")
		return err.Error()
	}

	var err error
	switch msg.Type {
	case proto.TypeMove:
		_, err = s.games.Move(ctx, gameID, *msg.Position)
	case proto.TypeReset:
		_, err = s.games.Reset(ctx, gameID)
	case proto.TypeSettings:
		mode, difficulty := controller.ParseSettings(msg.Mode, msg.Difficulty)
		_, err = s.games.Configure(ctx, gameID, mode, difficulty)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Command rejected")
		return controller.ErrorFor(err).Extras
	}
	return ""
}

// writePump is the only writer of the connection: it forwards bus events and
// replies, and pings the client to keep the connection alive.
func (s *Server) writePump(ctx context.Context, cl *client, updates <-chan events.Event) {
	pingTicker := time.NewTicker(s.pingInterval)
	defer func() {
		pingTicker.Stop()
		cl.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			cl.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return

		case msg := <-cl.send:
			if err := cl.write(msg); err != nil {
				slog.WarnContext(ctx, "Failed to write to client", "game.id", cl.gameID, "error", err)
				return
			}

		case event, ok := <-updates:
			if !ok {
				return
			}
			state, err := event.State()
			if err != nil {
				slog.ErrorContext(ctx, "Failed to decode game event", "game.id", cl.gameID, "error", err)
				continue
			}
			if event.Type == events.TypeUpdate && state.UpdatedAt.Before(cl.since) {
				continue
			}
			msg := toClientMessage(event.Type, state)
			if err := cl.write(msg); err != nil {
				slog.WarnContext(ctx, "Failed to write to client", "game.id", cl.gameID, "error", err)
				return
			}
			if msg.Type == proto.TypeDeleted {
				cl.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "game deleted"), time.Now().Add(writeWait))
				return
			}

		case <-pingTicker.C:
			if err := cl.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				slog.WarnContext(ctx, "Failed to send ping to client, assuming disconnect", "game.id", cl.gameID, "error", err)
				return
			}
		}
	}
}

func (cl *client) write(msg *proto.ServerToClientMessage) error {
	cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return cl.conn.WriteJSON(msg)
}

func toClientMessage(eventType string, state *game.State) *proto.ServerToClientMessage {
	msgType := proto.TypeUpdate
	if eventType == events.TypeDeleted {
		msgType = proto.TypeDeleted
	}
	return &proto.ServerToClientMessage{Type: msgType, Game: proto.NewGameView(state)}
}
