package repository

//go:generate mockgen -source=game_repository.go -destination=mocks/mock_game_repository.go -package=mocks

import (
	"context"
	"ctchen222/Cosmic-Tic-Tac-Toe/internal/game"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("repository.game")

var ErrGameNotFound = errors.New("game not found")

// Hash fields of a stored game.
const (
	FieldBoard       = "board"
	FieldNext        = "next"
	FieldOutcome     = "outcome"
	FieldMode        = "mode"
	FieldDifficulty  = "difficulty"
	FieldAwaitingBot = "awaiting_bot"
	FieldPlies       = "plies"
	FieldRound       = "round"
	FieldCreatedAt   = "created_at"
	FieldUpdatedAt   = "updated_at"
)

// GameRepository defines the interface for live game storage.
type GameRepository interface {
	Create(ctx context.Context, state *game.State) error
	FindByID(ctx context.Context, id string) (*game.State, error)
	Save(ctx context.Context, state *game.State) error
	Delete(ctx context.Context, id string) error
}

type redisGameRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewGameRepository creates a new Redis-based GameRepository. Every write
// refreshes the key's expiry to ttl; zero keeps keys forever.
func NewGameRepository(rdb *redis.Client, ttl time.Duration) GameRepository {
	return &redisGameRepository{rdb: rdb, ttl: ttl}
}

func gameKey(id string) string {
	return fmt.Sprintf("game:%s", id)
}

// Create stores a new game. It fails if the id is already taken.
func (r *redisGameRepository) Create(ctx context.Context, state *game.State) error {
	ctx, span := tracer.Start(ctx, "GameRepository.Create", trace.WithAttributes(
		attribute.String("game.id", state.ID),
	))
	defer span.End()

	created, err := r.rdb.HSetNX(ctx, gameKey(state.ID), FieldCreatedAt, state.CreatedAt.Format(time.RFC3339Nano)).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to reserve game key")
		return fmt.Errorf("failed to create game in redis: %w", err)
	}
	if !created {
		err := fmt.Errorf("game %s already exists", state.ID)
		span.SetStatus(codes.Error, "Game already exists")
		return err
	}
	if err := r.write(ctx, state); err != nil {
		r.rdb.Del(ctx, gameKey(state.ID))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to write new game")
		return err
	}
	return nil
}

// Save overwrites the stored game.
func (r *redisGameRepository) Save(ctx context.Context, state *game.State) error {
	ctx, span := tracer.Start(ctx, "GameRepository.Save", trace.WithAttributes(
		attribute.String("game.id", state.ID),
	))
	defer span.End()

	if err := r.write(ctx, state); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to save game")
		return err
	}
	return nil
}

func (r *redisGameRepository) write(ctx context.Context, state *game.State) error {
	boardJSON, err := json.Marshal(state.Board)
	if err != nil {
		return fmt.Errorf("failed to marshal board: %w", err)
	}

	key := gameKey(state.ID)
	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, key,
		FieldBoard, boardJSON,
		FieldNext, string(state.Next),
		FieldOutcome, string(state.Outcome),
		FieldMode, string(state.Mode),
		FieldDifficulty, string(state.Difficulty),
		FieldAwaitingBot, strconv.FormatBool(state.AwaitingBot),
		FieldPlies, state.Plies,
		FieldRound, state.Round,
		FieldCreatedAt, state.CreatedAt.Format(time.RFC3339Nano),
		FieldUpdatedAt, state.UpdatedAt.Format(time.RFC3339Nano),
	)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write game to redis: %w", err)
	}
	return nil
}

// FindByID retrieves the current game state from Redis.
func (r *redisGameRepository) FindByID(ctx context.Context, id string) (*game.State, error) {
	ctx, span := tracer.Start(ctx, "GameRepository.FindByID", trace.WithAttributes(
		attribute.String("game.id", id),
	))
	defer span.End()

	data, err := r.rdb.HGetAll(ctx, gameKey(id)).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to read game")
		return nil, fmt.Errorf("failed to get game state from redis: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrGameNotFound
	}

	state, err := decodeState(id, data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Corrupt game hash")
		return nil, err
	}
	return state, nil
}

// Delete removes the game. Deleting a missing game is not an error.
func (r *redisGameRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "GameRepository.Delete", trace.WithAttributes(
		attribute.String("game.id", id),
	))
	defer span.End()

	if err := r.rdb.Del(ctx, gameKey(id)).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete game")
		return fmt.Errorf("failed to delete game from redis: %w", err)
	}
	return nil
}

func decodeState(id string, data map[string]string) (*game.State, error) {
	var board game.Board
	if err := json.Unmarshal([]byte(data[FieldBoard]), &board); err != nil {
		return nil, fmt.Errorf("failed to unmarshal board: %w", err)
	}
	plies, err := strconv.Atoi(data[FieldPlies])
	if err != nil {
		return nil, fmt.Errorf("invalid %s field: %w", FieldPlies, err)
	}
	round, err := strconv.Atoi(data[FieldRound])
	if err != nil {
		return nil, fmt.Errorf("invalid %s field: %w", FieldRound, err)
	}
	awaiting, err := strconv.ParseBool(data[FieldAwaitingBot])
	if err != nil {
		return nil, fmt.Errorf("invalid %s field: %w", FieldAwaitingBot, err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, data[FieldCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("invalid %s field: %w", FieldCreatedAt, err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, data[FieldUpdatedAt])
	if err != nil {
		return nil, fmt.Errorf("invalid %s field: %w", FieldUpdatedAt, err)
	}

	return &game.State{
		ID:          id,
		Board:       board,
		Next:        game.PlayerMark(data[FieldNext]),
		Outcome:     game.Outcome(data[FieldOutcome]),
		Mode:        game.Mode(data[FieldMode]),
		Difficulty:  game.Difficulty(data[FieldDifficulty]),
		AwaitingBot: awaiting,
		Plies:       plies,
		Round:       round,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}
