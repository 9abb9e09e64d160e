package bot

import (
	"ctchen222/Cosmic-Tic-Tac-Toe/internal/game"
	"math/rand/v2"
)

// Terminal scores are taken relative to the depth of the search root, so a
// quick win outscores a slow one and a slow loss outscores a quick one.
const (
	winScore  = 10
	drawScore = 0
)

// ScoredMove pairs a candidate cell with the score its continuation reached.
// Index is -1 for a terminal node, which has no move to offer.
type ScoredMove struct {
	Index int
	Score int
}

// Searcher runs the minimax search. The zero value is not usable; build one
// with NewSearcher.
type Searcher struct {
	intN func(n int) int
}

// SearcherOption configures a Searcher.
type SearcherOption func(*Searcher)

// WithRandom replaces the source used by Easy to pick among candidates.
// intN must return a value in [0, n).
func WithRandom(intN func(n int) int) SearcherOption {
	return func(s *Searcher) {
		s.intN = intN
	}
}

// NewSearcher creates a Searcher backed by math/rand/v2 unless overridden.
func NewSearcher(opts ...SearcherOption) *Searcher {
	s := &Searcher{intN: rand.IntN}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var defaultSearcher = NewSearcher()

// SelectMove picks the next move for the side given by maximizing: O when
// true, X when false. It reports false when the board offers no move.
func SelectMove(board game.Board, maximizing bool, difficulty game.Difficulty) (ScoredMove, bool) {
	return defaultSearcher.SelectMove(board, maximizing, difficulty)
}

// SelectMove is the package-level SelectMove on this searcher's random source.
func (s *Searcher) SelectMove(board game.Board, maximizing bool, difficulty game.Difficulty) (ScoredMove, bool) {
	best := s.minimax(board, maximizing, difficulty, 0)
	if best.Index < 0 {
		return ScoredMove{}, false
	}
	return best, true
}

func (s *Searcher) minimax(board game.Board, maximizing bool, difficulty game.Difficulty, depth int) ScoredMove {
	switch game.Evaluate(board) {
	case game.OWins:
		return ScoredMove{Index: -1, Score: winScore - depth}
	case game.XWins:
		return ScoredMove{Index: -1, Score: depth - winScore}
	case game.Draw:
		return ScoredMove{Index: -1, Score: drawScore}
	}

	mark := game.PlayerX
	if maximizing {
		mark = game.PlayerO
	}

	empty := board.EmptyCells()
	moves := make([]ScoredMove, 0, len(empty))
	for _, i := range empty {
		result := s.minimax(board.With(i, mark), !maximizing, difficulty, depth+1)
		moves = append(moves, ScoredMove{Index: i, Score: result.Score})
	}

	if difficulty == game.Easy {
		return moves[s.intN(len(moves))]
	}
	return pickBest(moves, maximizing)
}

// pickBest keeps the first strict maximum (or minimum) in scan order.
func pickBest(moves []ScoredMove, maximizing bool) ScoredMove {
	best := moves[0]
	for _, m := range moves[1:] {
		if maximizing && m.Score > best.Score || !maximizing && m.Score < best.Score {
			best = m
		}
	}
	return best
}
