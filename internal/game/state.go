package game

import (
	"fmt"
	"strings"
	"time"
)

// Difficulty selects how the computer picks among its candidate moves.
type Difficulty string

// Mode selects who plays O.
type Mode string

const (
	Easy Difficulty = "easy"
	Hard Difficulty = "hard"

	ModeAI        Mode = "ai"
	ModeTwoPlayer Mode = "2p"
)

// ParseDifficulty accepts "easy" or "hard" in any case.
func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case Easy, Hard:
		return d, nil
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

// ParseMode accepts "ai" or "2p" in any case.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeAI, ModeTwoPlayer:
		return m, nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// State is the live game owned by whoever drives the turns.
type State struct {
	ID          string     `json:"id"`
	Board       Board      `json:"board"`
	Next        PlayerMark `json:"next"`
	Outcome     Outcome    `json:"outcome"`
	Mode        Mode       `json:"mode"`
	Difficulty  Difficulty `json:"difficulty"`
	AwaitingBot bool       `json:"awaitingBot"`
	Plies       int        `json:"plies"`
	Round       int        `json:"round"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// NewState returns an empty board with X to move.
func NewState(id string, mode Mode, difficulty Difficulty, now time.Time) *State {
	return &State{
		ID:         id,
		Board:      NewBoard(),
		Next:       PlayerX,
		Outcome:    InProgress,
		Mode:       mode,
		Difficulty: difficulty,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Move places the mark of the player to move, evaluates the board and
// hands the turn over.
func (s *State) Move(index int) error {
	if s.Outcome.IsOver() {
		return ErrGameOver
	}
	if err := s.Board.Place(index, s.Next); err != nil {
		return err
	}
	s.Plies++
	s.Outcome = Evaluate(s.Board)
	s.Next = s.Next.Opponent()
	return nil
}

// Reset clears the board for a new round, X first.
func (s *State) Reset() {
	s.Board = NewBoard()
	s.Next = PlayerX
	s.Outcome = InProgress
	s.AwaitingBot = false
	s.Plies = 0
	s.Round++
}

// BotToMove reports whether the computer owns the current turn.
func (s *State) BotToMove() bool {
	return s.Mode == ModeAI && !s.Outcome.IsOver() && s.Next == PlayerO
}

// Clone returns an independent copy.
func (s *State) Clone() *State {
	c := *s
	return &c
}
