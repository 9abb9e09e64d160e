package repository

import (
	"context"
	"ctchen222/Cosmic-Tic-Tac-Toe/internal/game"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func sampleState(id string) *game.State {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	s := game.NewState(id, game.ModeAI, game.Hard, now)
	s.Board = game.Board{game.PlayerX, game.None, game.None, game.None, game.PlayerO, game.None, game.None, game.None, game.None}
	s.Plies = 2
	s.Round = 3
	s.AwaitingBot = true
	s.UpdatedAt = now.Add(time.Second)
	return s
}

// exerciseRepository runs the behaviour every GameRepository must share.
func exerciseRepository(t *testing.T, repo GameRepository) {
	ctx := context.Background()

	_, err := repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrGameNotFound)

	state := sampleState("g1")
	require.NoError(t, repo.Create(ctx, state))
	assert.Error(t, repo.Create(ctx, state), "duplicate create must fail")

	got, err := repo.FindByID(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, state.Board, got.Board)
	assert.Equal(t, state.Next, got.Next)
	assert.Equal(t, state.Outcome, got.Outcome)
	assert.Equal(t, state.Mode, got.Mode)
	assert.Equal(t, state.Difficulty, got.Difficulty)
	assert.Equal(t, state.AwaitingBot, got.AwaitingBot)
	assert.Equal(t, state.Plies, got.Plies)
	assert.Equal(t, state.Round, got.Round)
	assert.True(t, state.CreatedAt.Equal(got.CreatedAt))
	assert.True(t, state.UpdatedAt.Equal(got.UpdatedAt))

	got.AwaitingBot = false
	require.NoError(t, got.Move(8))
	require.NoError(t, repo.Save(ctx, got))

	again, err := repo.FindByID(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, game.PlayerX, again.Board[8])
	assert.Equal(t, game.PlayerO, again.Next)
	assert.False(t, again.AwaitingBot)

	require.NoError(t, repo.Delete(ctx, "g1"))
	_, err = repo.FindByID(ctx, "g1")
	assert.ErrorIs(t, err, ErrGameNotFound)
	assert.NoError(t, repo.Delete(ctx, "g1"))
}

func TestMemoryGameRepository(t *testing.T) {
	exerciseRepository(t, NewMemoryGameRepository(time.Hour))
}

func TestMemoryGameRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryGameRepository(0)
	require.NoError(t, repo.Create(ctx, sampleState("g1")))

	got, err := repo.FindByID(ctx, "g1")
	require.NoError(t, err)
	got.Board[0] = game.PlayerO

	again, err := repo.FindByID(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, game.PlayerX, again.Board[0])
}

func TestMemoryGameRepositoryExpiry(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryGameRepository(time.Minute).(*memoryGameRepository)
	now := time.Now()
	repo.now = func() time.Time { return now }

	require.NoError(t, repo.Create(ctx, sampleState("g1")))
	_, err := repo.FindByID(ctx, "g1")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = repo.FindByID(ctx, "g1")
	assert.ErrorIs(t, err, ErrGameNotFound)

	require.NoError(t, repo.Create(ctx, sampleState("g1")), "an expired id can be reused")

	require.NoError(t, repo.Save(ctx, sampleState("g2")))
	now = now.Add(2 * time.Minute)
	require.NoError(t, repo.Save(ctx, sampleState("g3")))
	assert.Len(t, repo.games, 1, "expired games are swept on save")
}

func TestRedisGameRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, container)
	if err != nil {
		t.Skipf("redis container unavailable: %v", err)
	}

	connStr, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(connStr)
	require.NoError(t, err)
	rdb := redis.NewClient(opts)
	t.Cleanup(func() { rdb.Close() })

	exerciseRepository(t, NewGameRepository(rdb, time.Hour))

	t.Run("TTL is applied", func(t *testing.T) {
		repo := NewGameRepository(rdb, time.Hour)
		require.NoError(t, repo.Create(ctx, sampleState("ttl")))
		ttl, err := rdb.TTL(ctx, gameKey("ttl")).Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
		assert.LessOrEqual(t, ttl, time.Hour)
	})

	t.Run("Corrupt hash", func(t *testing.T) {
		require.NoError(t, rdb.HSet(ctx, gameKey("bad"), FieldBoard, "not json").Err())
		_, err := NewGameRepository(rdb, 0).FindByID(ctx, "bad")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrGameNotFound)
	})
}
