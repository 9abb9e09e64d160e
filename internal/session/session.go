package session

import (
	"context"
	"ctchen222/Cosmic-Tic-Tac-Toe/internal/events"
	"ctchen222/Cosmic-Tic-Tac-Toe/internal/game"
	"ctchen222/Cosmic-Tic-Tac-Toe/internal/repository"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("session")

// ErrBotThinking is returned when a command arrives while the computer's
// reply is still pending.
var ErrBotThinking = errors.New("computer is thinking")

// BotReplyGrace is how long a pending computer reply may take beyond the
// think time before it is presumed lost and requested again.
const BotReplyGrace = 5 * time.Second

const defaultBotTimeout = 500*time.Millisecond + BotReplyGrace

// MoveCalculator defines an interface for an agent that can calculate the
// computer's move. It plays O.
type MoveCalculator interface {
	NextMove(ctx context.Context, board game.Board, difficulty game.Difficulty) (int, bool)
}

// Service drives games: it owns turn order, applies human moves, asks the
// computer for its reply in AI mode and publishes every change.
type Service struct {
	repo       repository.GameRepository
	bus        events.Bus
	calculator MoveCalculator
	metrics    *metrics

	// locks serializes commands per game within this process. Entries of
	// games that no longer exist are pruned on lookup.
	locks sync.Map

	// botTimeout is the age after which a pending computer reply is
	// considered lost.
	botTimeout time.Duration

	now   func() time.Time
	newID func() string
}

// Option configures a Service.
type Option func(*Service)

// WithBotTimeout sets how long a pending computer reply is waited for
// before the next command requests it again. Use the think time plus
// BotReplyGrace.
func WithBotTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.botTimeout = d
	}
}

// NewService creates a game service.
func NewService(repo repository.GameRepository, bus events.Bus, calculator MoveCalculator, opts ...Option) (*Service, error) {
	m, err := newMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to create session metrics: %w", err)
	}
	s := &Service{
		repo:       repo,
		bus:        bus,
		calculator: calculator,
		metrics:    m,
		botTimeout: defaultBotTimeout,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) lock(id string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// find loads a game and forgets the lock of a game that is gone, expired
// ones included.
func (s *Service) find(ctx context.Context, id string) (*game.State, error) {
	state, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrGameNotFound) {
		s.locks.Delete(id)
	}
	return state, err
}

// botPending reports whether a computer reply is in flight and not yet
// overdue.
func (s *Service) botPending(state *game.State) bool {
	return state.AwaitingBot && s.now().Sub(state.UpdatedAt) <= s.botTimeout
}

// Create starts a new game with an empty board and X to move.
func (s *Service) Create(ctx context.Context, mode game.Mode, difficulty game.Difficulty) (*game.State, error) {
	ctx, span := tracer.Start(ctx, "session.Create", trace.WithAttributes(
		attribute.String("game.mode", string(mode)),
		attribute.String("game.difficulty", string(difficulty)),
	))
	defer span.End()

	state := game.NewState(s.newID(), mode, difficulty, s.now())
	span.SetAttributes(attribute.String("game.id", state.ID))

	if err := s.repo.Create(ctx, state); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create game")
		return nil, err
	}
	s.metrics.gamesCreated.Add(ctx, 1, s.metrics.modeAttr(mode))
	s.publish(ctx, events.TypeUpdate, state)

	slog.InfoContext(ctx, "Game created", "game.id", state.ID, "game.mode", mode, "game.difficulty", difficulty)
	return state, nil
}

// Get returns the current state of a game.
func (s *Service) Get(ctx context.Context, id string) (*game.State, error) {
	ctx, span := tracer.Start(ctx, "session.Get", trace.WithAttributes(
		attribute.String("game.id", id),
	))
	defer span.End()

	state, err := s.find(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Could not find game")
		return nil, err
	}
	return state, nil
}

// Move applies the move of the player whose turn it is. In AI mode the
// computer's reply follows before Move returns, and the returned state
// includes it.
func (s *Service) Move(ctx context.Context, id string, index int) (*game.State, error) {
	ctx, span := tracer.Start(ctx, "session.Move", trace.WithAttributes(
		attribute.String("game.id", id),
		attribute.Int("move.index", index),
	))
	defer span.End()

	mu := s.lock(id)
	var state *game.State
	for recovered := false; ; recovered = true {
		mu.Lock()

		var err error
		state, err = s.find(ctx, id)
		if err != nil {
			mu.Unlock()
			span.RecordError(err)
			span.SetStatus(codes.Error, "Could not find game")
			return nil, err
		}
		if s.botPending(state) {
			mu.Unlock()
			span.SetStatus(codes.Error, "Move while computer is thinking")
			return nil, ErrBotThinking
		}
		if !state.BotToMove() {
			break
		}

		// The computer owes a move whose reply was lost. Request it again
		// once, then play the human move on top of it.
		if recovered {
			mu.Unlock()
			span.SetStatus(codes.Error, "Computer reply still missing")
			return nil, ErrBotThinking
		}
		slog.WarnContext(ctx, "Requesting lost computer move again", "game.id", id, "game.plies", state.Plies)
		span.AddEvent("bot.recover")
		state.AwaitingBot = true
		if err := s.commit(ctx, state, game.None); err != nil {
			mu.Unlock()
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to save recovered turn")
			return nil, err
		}
		mu.Unlock()
		if _, err := s.playBot(ctx, state); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to play recovered computer move")
			return nil, err
		}
	}

	player := state.Next
	if err := state.Move(index); err != nil {
		mu.Unlock()
		slog.WarnContext(ctx, "Invalid move", "game.id", id, "move.index", index, "error", err)
		span.SetAttributes(attribute.Bool("move.valid", false))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid move")
		return nil, err
	}
	span.SetAttributes(attribute.Bool("move.valid", true), attribute.String("move.player", string(player)))

	state.AwaitingBot = state.BotToMove()
	if err := s.commit(ctx, state, player); err != nil {
		mu.Unlock()
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to save move")
		return nil, err
	}
	mu.Unlock()

	if !state.AwaitingBot {
		return state, nil
	}
	return s.playBot(ctx, state)
}

// playBot asks the calculator for O's reply to pending and applies it,
// unless the game was reset or changed in the meantime.
func (s *Service) playBot(ctx context.Context, pending *game.State) (*game.State, error) {
	ctx, span := tracer.Start(ctx, "session.playBot", trace.WithAttributes(
		attribute.String("game.id", pending.ID),
		attribute.String("game.difficulty", string(pending.Difficulty)),
	))
	defer span.End()

	start := time.Now()
	index, ok := s.calculator.NextMove(ctx, pending.Board, pending.Difficulty)
	s.metrics.botMoveDuration.Record(ctx, float64(time.Since(start).Microseconds())/1000,
		s.metrics.difficultyAttr(pending.Difficulty))

	// The reply must land even if the caller went away, or the game would
	// stay blocked on AwaitingBot.
	ctx = context.WithoutCancel(ctx)

	mu := s.lock(pending.ID)
	mu.Lock()
	defer mu.Unlock()

	state, err := s.find(ctx, pending.ID)
	if errors.Is(err, repository.ErrGameNotFound) {
		// Deleted while thinking: the human move was accepted, nothing is
		// left to answer.
		slog.InfoContext(ctx, "Discarding computer move for deleted game", "game.id", pending.ID)
		span.SetAttributes(attribute.Bool("move.stale", true))
		pending.AwaitingBot = false
		return pending, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Could not find game")
		return nil, err
	}
	if !state.AwaitingBot || state.Round != pending.Round || state.Plies != pending.Plies {
		slog.InfoContext(ctx, "Discarding stale computer move", "game.id", state.ID, "move.index", index)
		span.SetAttributes(attribute.Bool("move.stale", true))
		return state, nil
	}

	state.AwaitingBot = false
	unanswered := state.Clone()
	mover := game.None
	if !ok {
		slog.ErrorContext(ctx, "Computer found no move", "game.id", state.ID, "board", state.Board.Slice())
		span.SetStatus(codes.Error, "Computer found no move")
	} else if err := state.Move(index); err != nil {
		slog.ErrorContext(ctx, "Computer chose an illegal move", "game.id", state.ID, "move.index", index, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Computer chose an illegal move")
	} else {
		mover = game.PlayerO
		span.SetAttributes(attribute.Int("move.index", index))
		slog.InfoContext(ctx, "Computer moved", "game.id", state.ID, "move.index", index, "game.outcome", state.Outcome.String())
	}

	if err := s.commit(ctx, state, mover); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to save computer move")
		// Clear the pending flag without the move so the next command asks
		// the computer again instead of waiting for the timeout.
		unanswered.UpdatedAt = s.now()
		if saveErr := s.repo.Save(ctx, unanswered); saveErr != nil {
			slog.ErrorContext(ctx, "Failed to clear pending computer move", "game.id", state.ID, "error", saveErr)
		}
		return nil, err
	}
	return state, nil
}

// Reset clears the board for a new round. A pending computer reply is
// discarded. Mode and difficulty are kept.
func (s *Service) Reset(ctx context.Context, id string) (*game.State, error) {
	ctx, span := tracer.Start(ctx, "session.Reset", trace.WithAttributes(
		attribute.String("game.id", id),
	))
	defer span.End()

	mu := s.lock(id)
	mu.Lock()
	defer mu.Unlock()

	state, err := s.find(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Could not find game")
		return nil, err
	}

	state.Reset()
	state.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, state); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to save reset")
		return nil, err
	}
	s.publish(ctx, events.TypeUpdate, state)

	slog.InfoContext(ctx, "Game reset", "game.id", id, "game.round", state.Round)
	return state, nil
}

// Configure changes the mode and/or difficulty; nil leaves a setting as is.
// The board is kept. If the computer now owns the turn it replies at once.
func (s *Service) Configure(ctx context.Context, id string, mode *game.Mode, difficulty *game.Difficulty) (*game.State, error) {
	ctx, span := tracer.Start(ctx, "session.Configure", trace.WithAttributes(
		attribute.String("game.id", id),
	))
	defer span.End()

	mu := s.lock(id)
	mu.Lock()

	state, err := s.find(ctx, id)
	if err != nil {
		mu.Unlock()
		span.RecordError(err)
		span.SetStatus(codes.Error, "Could not find game")
		return nil, err
	}
	if s.botPending(state) {
		mu.Unlock()
		span.SetStatus(codes.Error, "Configure while computer is thinking")
		return nil, ErrBotThinking
	}

	if mode != nil {
		state.Mode = *mode
	}
	if difficulty != nil {
		state.Difficulty = *difficulty
	}
	span.SetAttributes(
		attribute.String("game.mode", string(state.Mode)),
		attribute.String("game.difficulty", string(state.Difficulty)),
	)

	state.AwaitingBot = state.BotToMove()
	state.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, state); err != nil {
		mu.Unlock()
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to save settings")
		return nil, err
	}
	s.publish(ctx, events.TypeUpdate, state)
	mu.Unlock()

	slog.InfoContext(ctx, "Game settings changed", "game.id", id, "game.mode", state.Mode, "game.difficulty", state.Difficulty)
	if !state.AwaitingBot {
		return state, nil
	}
	return s.playBot(ctx, state)
}

// Delete removes a game and tells its subscribers.
func (s *Service) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "session.Delete", trace.WithAttributes(
		attribute.String("game.id", id),
	))
	defer span.End()

	mu := s.lock(id)
	mu.Lock()
	defer mu.Unlock()

	state, err := s.find(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Could not find game")
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete game")
		return err
	}
	s.publish(ctx, events.TypeDeleted, state)
	s.locks.Delete(id)

	slog.InfoContext(ctx, "Game deleted", "game.id", id)
	return nil
}

// commit saves a state after player moved and publishes it. player is None
// when no move was made.
func (s *Service) commit(ctx context.Context, state *game.State, player game.PlayerMark) error {
	state.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, state); err != nil {
		return err
	}
	if player != game.None {
		s.metrics.movesApplied.Add(ctx, 1, s.metrics.playerAttr(player))
	}
	if state.Outcome.IsOver() {
		s.metrics.gamesFinished.Add(ctx, 1, s.metrics.outcomeAttr(state.Outcome))
		slog.InfoContext(ctx, "Game finished", "game.id", state.ID, "game.outcome", state.Outcome.String())
	}
	s.publish(ctx, events.TypeUpdate, state)
	return nil
}

// publish failures are logged only: the state is already saved and the
// next update carries the full board.
func (s *Service) publish(ctx context.Context, eventType string, state *game.State) {
	if err := s.bus.Publish(ctx, eventType, state); err != nil {
		slog.ErrorContext(ctx, "Failed to publish game event", "game.id", state.ID, "event.type", eventType, "error", err)
	}
}
