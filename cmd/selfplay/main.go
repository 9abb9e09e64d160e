// Command selfplay pits the move selector against itself and prints how the
// games ended.
package main

import (
	"ctchen222/Cosmic-Tic-Tac-Toe/internal/bot"
	"ctchen222/Cosmic-Tic-Tac-Toe/internal/game"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"os"
	"time"

	flag "github.com/spf13/pflag"
)

type tally struct {
	XWins int
	OWins int
	Draws int
}

func (t *tally) add(o game.Outcome) {
	switch o {
	case game.XWins:
		t.XWins++
	case game.OWins:
		t.OWins++
	case game.Draw:
		t.Draws++
	}
}

// playGame plays one game to the end, X first. X minimizes, O maximizes.
func playGame(s *bot.Searcher, xDifficulty, oDifficulty game.Difficulty) (game.Board, game.Outcome) {
	state := game.NewState("", game.ModeTwoPlayer, oDifficulty, time.Time{})
	for !state.Outcome.IsOver() {
		maximizing := state.Next == game.PlayerO
		difficulty := xDifficulty
		if maximizing {
			difficulty = oDifficulty
		}
		move, ok := s.SelectMove(state.Board, maximizing, difficulty)
		if !ok {
			break
		}
		if err := state.Move(move.Index); err != nil {
			// SelectMove only offers empty cells of a live board.
			panic(err)
		}
	}
	return state.Board, state.Outcome
}

func run(w io.Writer, games int, xDifficulty, oDifficulty game.Difficulty, s *bot.Searcher, verbose bool) tally {
	var t tally
	for i := 0; i < games; i++ {
		board, outcome := playGame(s, xDifficulty, oDifficulty)
		t.add(outcome)
		if verbose {
			fmt.Fprintf(w, "game %d: %s\n%s\n\n", i+1, outcome, board)
		}
	}
	return t
}

func main() {
	games := flag.IntP("games", "n", 100, "number of games to play")
	xFlag := flag.StringP("x-difficulty", "x", string(game.Easy), "difficulty of X (easy or hard)")
	oFlag := flag.StringP("o-difficulty", "o", string(game.Hard), "difficulty of O (easy or hard)")
	seed := flag.Uint64("seed", 0, "seed for easy play; 0 picks a random seed")
	verbose := flag.BoolP("verbose", "v", false, "print every final board")
	flag.Parse()

	xDifficulty, err := game.ParseDifficulty(*xFlag)
	if err != nil {
		log.Fatalf("invalid --x-difficulty: %v", err)
	}
	oDifficulty, err := game.ParseDifficulty(*oFlag)
	if err != nil {
		log.Fatalf("invalid --o-difficulty: %v", err)
	}
	if *games < 1 {
		log.Fatalf("--games must be positive, got %d", *games)
	}

	searcher := bot.NewSearcher()
	if *seed != 0 {
		searcher = bot.NewSearcher(bot.WithRandom(rand.New(rand.NewPCG(*seed, *seed)).IntN))
	}

	t := run(os.Stdout, *games, xDifficulty, oDifficulty, searcher, *verbose)
	fmt.Printf("X (%s) vs O (%s), %d games\n", xDifficulty, oDifficulty, *games)
	fmt.Printf("  X wins: %d\n  O wins: %d\n  draws:  %d\n", t.XWins, t.OWins, t.Draws)
}
