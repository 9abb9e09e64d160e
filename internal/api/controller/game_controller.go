package controller

import (
	"ctchen222/Cosmic-Tic-Tac-Toe/internal/api/models"
	"ctchen222/Cosmic-Tic-Tac-Toe/internal/api/response"
	"ctchen222/Cosmic-Tic-Tac-Toe/internal/game"
	"ctchen222/Cosmic-Tic-Tac-Toe/internal/repository"
	"ctchen222/Cosmic-Tic-Tac-Toe/internal/session"
	"ctchen222/Cosmic-Tic-Tac-Toe/internal/validator"
	"ctchen222/Cosmic-Tic-Tac-Toe/pkg/proto"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GameController handles the REST endpoints of a game.
type GameController struct {
	games             *session.Service
	defaultDifficulty game.Difficulty
}

// NewGameController creates a new GameController. New AI games without an
// explicit difficulty get defaultDifficulty.
func NewGameController(games *session.Service, defaultDifficulty game.Difficulty) *GameController {
	return &GameController{
		games:             games,
		defaultDifficulty: defaultDifficulty,
	}
}

// Create handles POST /api/games. The body is optional.
func (gc *GameController) Create(c *gin.Context) {
	var req models.CreateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := validator.GetValidator().Struct(req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	mode := game.ModeAI
	if req.Mode != "" {
		mode, _ = game.ParseMode(req.Mode)
	}
	difficulty := gc.defaultDifficulty
	if req.Difficulty != "" {
		difficulty, _ = game.ParseDifficulty(req.Difficulty)
	}

	state, err := gc.games.Create(c.Request.Context(), mode, difficulty)
	if err != nil {
		abortWith(c, err)
		return
	}
	response.CreatedResponse(c, proto.NewGameView(state))
}

// Get handles GET /api/games/:id.
func (gc *GameController) Get(c *gin.Context) {
	state, err := gc.games.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWith(c, err)
		return
	}
	response.SuccessResponse(c, proto.NewGameView(state))
}

// Move handles POST /api/games/:id/moves. In AI mode the response already
// carries the computer's reply.
func (gc *GameController) Move(c *gin.Context) {
	var req models.MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := validator.GetValidator().Struct(req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	state, err := gc.games.Move(c.Request.Context(), c.Param("id"), *req.Position)
	if err != nil {
		abortWith(c, err)
		return
	}
	response.SuccessResponse(c, proto.NewGameView(state))
}

// Reset handles POST /api/games/:id/reset.
func (gc *GameController) Reset(c *gin.Context) {
	state, err := gc.games.Reset(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWith(c, err)
		return
	}
	response.SuccessResponse(c, proto.NewGameView(state))
}

// Settings handles PUT /api/games/:id/settings.
func (gc *GameController) Settings(c *gin.Context) {
	var req models.SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := validator.GetValidator().Struct(req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	mode, difficulty := ParseSettings(req.Mode, req.Difficulty)
	state, err := gc.games.Configure(c.Request.Context(), c.Param("id"), mode, difficulty)
	if err != nil {
		abortWith(c, err)
		return
	}
	response.SuccessResponse(c, proto.NewGameView(state))
}

// Delete handles DELETE /api/games/:id.
func (gc *GameController) Delete(c *gin.Context) {
	if err := gc.games.Delete(c.Request.Context(), c.Param("id")); err != nil {
		abortWith(c, err)
		return
	}
	response.SuccessResponseContent(c, "deleted")
}

// ParseSettings turns already validated settings strings into the optional
// values Configure expects. Empty strings become nil.
func ParseSettings(modeValue, difficultyValue string) (*game.Mode, *game.Difficulty) {
	var mode *game.Mode
	var difficulty *game.Difficulty
	if m, err := game.ParseMode(modeValue); err == nil && modeValue != "" {
		mode = &m
	}
	if d, err := game.ParseDifficulty(difficultyValue); err == nil && difficultyValue != "" {
		difficulty = &d
	}
	return mode, difficulty
}

// ErrorFor maps a domain error onto the API error it is reported as.
func ErrorFor(err error) response.Error {
	switch {
	case errors.Is(err, repository.ErrGameNotFound):
		return response.NewError(false, http.StatusNotFound, err.Error())
	case errors.Is(err, game.ErrInvalidMove):
		return response.NewError(false, http.StatusBadRequest, err.Error())
	case errors.Is(err, game.ErrCellOccupied),
		errors.Is(err, game.ErrGameOver),
		errors.Is(err, session.ErrBotThinking):
		return response.NewError(false, http.StatusConflict, err.Error())
	default:
		return response.NewError(false, http.StatusInternalServerError, "internal server error")
	}
}

func abortWith(c *gin.Context, err error) {
	apiErr := ErrorFor(err)
	if apiErr.Code == http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "Request failed", "path", c.FullPath(), "error", err)
	}
	apiErr.Abort(c)
}
