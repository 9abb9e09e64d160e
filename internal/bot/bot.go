package bot

import (
	"context"
	"ctchen222/Cosmic-Tic-Tac-Toe/internal/game"
	"log/slog"
	"time"
)

// DefaultThinkTime is the pause before the computer answers a human move.
const DefaultThinkTime = 500 * time.Millisecond

// Player is the computer opponent. It always plays O and optimizes for O.
// It implements the session.MoveCalculator interface.
type Player struct {
	ThinkTime time.Duration
	searcher  *Searcher
}

// NewPlayer creates a computer player that pauses for thinkTime before each
// move. A nil searcher uses the package default.
func NewPlayer(thinkTime time.Duration, searcher *Searcher) *Player {
	if searcher == nil {
		searcher = defaultSearcher
	}
	return &Player{ThinkTime: thinkTime, searcher: searcher}
}

// NextMove waits for the think time, then searches the board. If ctx ends
// early the wait is cut short but the move is still computed, so a caller
// that already committed to a bot turn is never left without a reply.
// The second result is false when the board offers no move.
func (p *Player) NextMove(ctx context.Context, board game.Board, difficulty game.Difficulty) (int, bool) {
	if p.ThinkTime > 0 {
		slog.DebugContext(ctx, "Bot is thinking...", "think_time", p.ThinkTime, "difficulty", difficulty)
		timer := time.NewTimer(p.ThinkTime)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
		}
	}

	move, ok := p.searcher.SelectMove(board, true, difficulty)
	if !ok {
		return -1, false
	}
	return move.Index, true
}
