package game

import (
	"errors"
	"strings"
)

// PlayerMark represents the mark of a player (X, O) or an empty cell.
type PlayerMark string

const (
	// Player marks
	None    PlayerMark = ""
	PlayerX PlayerMark = "X"
	PlayerO PlayerMark = "O"

	// Board boundaries
	CellMin   = 0
	CellMax   = 8
	CellCount = 9
)

var (
	ErrGameOver     = errors.New("game already finished")
	ErrInvalidMove  = errors.New("invalid move")
	ErrCellOccupied = errors.New("cell already occupied")
)

// Opponent returns the other player's mark. None has no opponent.
func (m PlayerMark) Opponent() PlayerMark {
	switch m {
	case PlayerX:
		return PlayerO
	case PlayerO:
		return PlayerX
	}
	return None
}

// Board is a 3x3 grid stored row-major:
//
//	0 1 2
//	3 4 5
//	6 7 8
type Board [CellCount]PlayerMark

// NewBoard returns an empty board.
func NewBoard() Board {
	return Board{}
}

// EmptyCells lists the indices of empty cells in ascending order.
func (b Board) EmptyCells() []int {
	cells := make([]int, 0, CellCount)
	for i, cell := range b {
		if cell == None {
			cells = append(cells, i)
		}
	}
	return cells
}

// IsFull reports whether no empty cell remains.
func (b Board) IsFull() bool {
	for _, cell := range b {
		if cell == None {
			return false
		}
	}
	return true
}

// With returns a copy of the board with the given cell set to mark.
// The receiver is left untouched.
func (b Board) With(index int, mark PlayerMark) Board {
	b[index] = mark
	return b
}

// Place validates and applies a move in place.
func (b *Board) Place(index int, mark PlayerMark) error {
	if index < CellMin || index > CellMax {
		return ErrInvalidMove
	}
	if b[index] != None {
		return ErrCellOccupied
	}
	b[index] = mark
	return nil
}

// Slice converts the board to a dynamic slice, the shape used on the wire.
func (b Board) Slice() []PlayerMark {
	out := make([]PlayerMark, CellCount)
	copy(out, b[:])
	return out
}

// BoardFromSlice builds a board from a wire slice. Missing cells stay empty.
func BoardFromSlice(cells []PlayerMark) Board {
	var b Board
	copy(b[:], cells)
	return b
}

func (b Board) String() string {
	var sb strings.Builder
	for row := range 3 {
		if row > 0 {
			sb.WriteString("\n---+---+---\n")
		}
		for col := range 3 {
			if col > 0 {
				sb.WriteString("|")
			}
			mark := b[row*3+col]
			if mark == None {
				sb.WriteString("   ")
				continue
			}
			sb.WriteString(" " + string(mark) + " ")
		}
	}
	return sb.String()
}
