package proto

import "ctchen222/Cosmic-Tic-Tac-Toe/internal/game"

// Message types
const (
	TypeMove     = "move"
	TypeReset    = "reset"
	TypeSettings = "settings"
	TypeUpdate   = "update"
	TypeDeleted  = "deleted"
	TypeError    = "error"
)

// ClientToServerMessage represents a message from the client to the server.
type ClientToServerMessage struct {
	Type       string `json:"type" validate:"required,oneof=move reset settings"`
	Position   *int   `json:"position,omitempty" validate:"required_if=Type move,omitempty,min=0,max=8"`
	Mode       string `json:"mode,omitempty" validate:"omitempty,mode"`
	Difficulty string `json:"difficulty,omitempty" validate:"omitempty,difficulty"`
}

// ServerToClientMessage represents a message from the server to the client.
type ServerToClientMessage struct {
	Type   string    `json:"type" validate:"required"`
	Reason string    `json:"reason,omitempty"`
	Game   *GameView `json:"game,omitempty"`
}

// GameView is the client-facing shape of a game.
type GameView struct {
	ID          string            `json:"id"`
	Board       []game.PlayerMark `json:"board"`
	Next        game.PlayerMark   `json:"next"`
	Outcome     game.Outcome      `json:"outcome"`
	Winner      game.PlayerMark   `json:"winner,omitempty"`
	Line        []int             `json:"line,omitempty"`
	Mode        game.Mode         `json:"mode"`
	Difficulty  game.Difficulty   `json:"difficulty"`
	AwaitingBot bool              `json:"awaitingBot"`
	Round       int               `json:"round"`
}

// NewGameView builds the client view of a state, including the winning line
// when there is one.
func NewGameView(s *game.State) *GameView {
	view := &GameView{
		ID:          s.ID,
		Board:       s.Board.Slice(),
		Next:        s.Next,
		Outcome:     s.Outcome,
		Winner:      s.Outcome.Winner(),
		Mode:        s.Mode,
		Difficulty:  s.Difficulty,
		AwaitingBot: s.AwaitingBot,
		Round:       s.Round,
	}
	if line, ok := game.WinningLine(s.Board); ok {
		view.Line = line[:]
	}
	return view
}
