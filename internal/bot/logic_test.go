package bot

import (
	"ctchen222/Cosmic-Tic-Tac-Toe/internal/game"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	x = game.PlayerX
	o = game.PlayerO
	n = game.None
)

func TestSelectMoveHard(t *testing.T) {
	tests := []struct {
		name       string
		board      game.Board
		maximizing bool
		wantIndex  int
		wantScore  int
	}{
		{
			name:       "O blocks X's immediate win",
			board:      game.Board{x, x, n, n, o, n, n, n, n},
			maximizing: true,
			wantIndex:  2,
			wantScore:  0,
		},
		{
			name:       "O takes the immediate win over blocking",
			board:      game.Board{x, x, n, o, o, n, n, n, x},
			maximizing: true,
			wantIndex:  5,
			wantScore:  9,
		},
		{
			name:       "X takes the immediate win when minimizing",
			board:      game.Board{x, x, n, o, o, n, n, n, n},
			maximizing: false,
			wantIndex:  2,
			wantScore:  -9,
		},
		{
			name:       "Last empty cell",
			board:      game.Board{x, o, x, x, o, o, o, x, n},
			maximizing: true,
			wantIndex:  8,
			wantScore:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			move, ok := SelectMove(tt.board, tt.maximizing, game.Hard)
			require.True(t, ok)
			assert.Equal(t, tt.wantIndex, move.Index)
			assert.Equal(t, tt.wantScore, move.Score)
		})
	}
}

func TestSelectMoveNoMove(t *testing.T) {
	tests := []struct {
		name  string
		board game.Board
	}{
		{name: "Full board (draw)", board: game.Board{x, o, x, x, o, o, o, x, x}},
		{name: "Full board (win)", board: game.Board{x, x, x, o, o, x, o, x, o}},
		{name: "Decided board with empty cells", board: game.Board{x, x, x, o, o, n, n, n, n}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, d := range []game.Difficulty{game.Easy, game.Hard} {
				_, ok := SelectMove(tt.board, true, d)
				assert.False(t, ok, "difficulty %s", d)
			}
		})
	}
}

func TestSelectMoveDoesNotMutate(t *testing.T) {
	board := game.Board{x, n, n, n, o, n, n, n, x}
	before := board
	_, ok := SelectMove(board, true, game.Hard)
	require.True(t, ok)
	assert.Equal(t, before, board)
}

func TestHardSelfPlayDraws(t *testing.T) {
	board := game.NewBoard()
	maximizing := false // X opens
	for !game.Evaluate(board).IsOver() {
		move, ok := SelectMove(board, maximizing, game.Hard)
		require.True(t, ok)
		require.Equal(t, n, board[move.Index])

		mark := x
		if maximizing {
			mark = o
		}
		board[move.Index] = mark
		maximizing = !maximizing
	}
	assert.Equal(t, game.Draw, game.Evaluate(board), "final board:\n%s", board)
}

func TestHardNeverLosesToRandomX(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 20; i++ {
		board := game.NewBoard()
		xToMove := true
		for !game.Evaluate(board).IsOver() {
			if xToMove {
				empty := board.EmptyCells()
				board[empty[rng.IntN(len(empty))]] = x
			} else {
				move, ok := SelectMove(board, true, game.Hard)
				require.True(t, ok)
				board[move.Index] = o
			}
			xToMove = !xToMove
		}
		assert.NotEqual(t, game.XWins, game.Evaluate(board), "game %d lost:\n%s", i, board)
	}
}

func TestSelectMoveEasy(t *testing.T) {
	t.Run("Only empty cells are returned and more than one is seen", func(t *testing.T) {
		board := game.Board{x, n, n, n, o, n, x, n, n}
		seen := map[int]bool{}
		for i := 0; i < 200; i++ {
			move, ok := SelectMove(board, true, game.Easy)
			require.True(t, ok)
			require.Equal(t, n, board[move.Index], "easy returned occupied cell %d", move.Index)
			seen[move.Index] = true
		}
		assert.Greater(t, len(seen), 1)
	})

	t.Run("Empty board", func(t *testing.T) {
		move, ok := SelectMove(game.NewBoard(), true, game.Easy)
		require.True(t, ok)
		assert.GreaterOrEqual(t, move.Index, game.CellMin)
		assert.LessOrEqual(t, move.Index, game.CellMax)
	})

	t.Run("Scores are ignored", func(t *testing.T) {
		// O could win at 5; a source that always picks the first candidate
		// plays 2 instead.
		s := NewSearcher(WithRandom(func(int) int { return 0 }))
		move, ok := s.SelectMove(game.Board{x, x, n, o, o, n, n, n, x}, true, game.Easy)
		require.True(t, ok)
		assert.Equal(t, 2, move.Index)
	})

	t.Run("Last candidate", func(t *testing.T) {
		s := NewSearcher(WithRandom(func(n int) int { return n - 1 }))
		move, ok := s.SelectMove(game.Board{x, n, n, n, o, n, n, n, n}, true, game.Easy)
		require.True(t, ok)
		assert.Equal(t, 8, move.Index)
	})
}

func TestPickBestKeepsFirst(t *testing.T) {
	moves := []ScoredMove{{Index: 1, Score: 0}, {Index: 3, Score: 5}, {Index: 6, Score: 5}, {Index: 7, Score: -2}, {Index: 8, Score: -2}}
	assert.Equal(t, ScoredMove{Index: 3, Score: 5}, pickBest(moves, true))
	assert.Equal(t, ScoredMove{Index: 7, Score: -2}, pickBest(moves, false))
}
