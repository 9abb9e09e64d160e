package session

import (
	"ctchen222/Cosmic-Tic-Tac-Toe/internal/game"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type metrics struct {
	gamesCreated    metric.Int64Counter
	gamesFinished   metric.Int64Counter
	movesApplied    metric.Int64Counter
	botMoveDuration metric.Float64Histogram
}

func newMetrics() (*metrics, error) {
	meter := otel.Meter("session")

	gamesCreated, err := meter.Int64Counter("games.created",
		metric.WithDescription("Games started"))
	if err != nil {
		return nil, err
	}
	gamesFinished, err := meter.Int64Counter("games.finished",
		metric.WithDescription("Games that reached a win or a draw"))
	if err != nil {
		return nil, err
	}
	movesApplied, err := meter.Int64Counter("moves.applied",
		metric.WithDescription("Moves placed on a board"))
	if err != nil {
		return nil, err
	}
	botMoveDuration, err := meter.Float64Histogram("bot.move.duration",
		metric.WithDescription("Time the computer took to answer, think time included"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}

	return &metrics{
		gamesCreated:    gamesCreated,
		gamesFinished:   gamesFinished,
		movesApplied:    movesApplied,
		botMoveDuration: botMoveDuration,
	}, nil
}

func (m *metrics) modeAttr(mode game.Mode) metric.AddOption {
	return metric.WithAttributes(attribute.String("mode", string(mode)))
}

func (m *metrics) playerAttr(player game.PlayerMark) metric.AddOption {
	return metric.WithAttributes(attribute.String("player", string(player)))
}

func (m *metrics) outcomeAttr(outcome game.Outcome) metric.AddOption {
	return metric.WithAttributes(attribute.String("outcome", string(outcome)))
}

func (m *metrics) difficultyAttr(difficulty game.Difficulty) metric.RecordOption {
	return metric.WithAttributes(attribute.String("difficulty", string(difficulty)))
}
