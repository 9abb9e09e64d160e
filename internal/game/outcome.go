package game

// Outcome is the result of evaluating a board.
type Outcome string

const (
	InProgress Outcome = ""
	XWins      Outcome = "X"
	OWins      Outcome = "O"
	Draw       Outcome = "Draw"
)

// WinningLines holds every index triple that wins the game: rows, columns,
// then diagonals.
var WinningLines = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// WinBy returns the outcome in which mark has won.
func WinBy(mark PlayerMark) Outcome {
	switch mark {
	case PlayerX:
		return XWins
	case PlayerO:
		return OWins
	}
	return InProgress
}

// Winner returns the winning mark, or None for a draw or a running game.
func (o Outcome) Winner() PlayerMark {
	switch o {
	case XWins:
		return PlayerX
	case OWins:
		return PlayerO
	}
	return None
}

// IsOver reports whether the outcome is terminal.
func (o Outcome) IsOver() bool {
	return o != InProgress
}

func (o Outcome) String() string {
	switch o {
	case InProgress:
		return "in progress"
	case Draw:
		return "draw"
	}
	return string(o) + " wins"
}

// Evaluate determines whether a player has won, the game is drawn, or play
// continues. A completed line takes precedence over a full board.
func Evaluate(b Board) Outcome {
	if line, ok := WinningLine(b); ok {
		return WinBy(b[line[0]])
	}
	if b.IsFull() {
		return Draw
	}
	return InProgress
}

// WinningLine returns the first completed line in table order.
func WinningLine(b Board) ([3]int, bool) {
	for _, line := range WinningLines {
		a := b[line[0]]
		if a != None && a == b[line[1]] && a == b[line[2]] {
			return line, true
		}
	}
	return [3]int{}, false
}
