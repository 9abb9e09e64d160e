package events

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

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for event")
	}
	return Event{}
}

func exerciseBus(t *testing.T, bus Bus) {
	ctx := context.Background()

	ch, cancel, err := bus.Subscribe(ctx, "g1")
	require.NoError(t, err)
	other, cancelOther, err := bus.Subscribe(ctx, "g2")
	require.NoError(t, err)
	defer cancelOther()

	state := game.NewState("g1", game.ModeAI, game.Hard, time.Now())
	require.NoError(t, state.Move(4))
	require.NoError(t, bus.Publish(ctx, TypeUpdate, state))

	ev := receive(t, ch)
	assert.Equal(t, TypeUpdate, ev.Type)
	got, err := ev.State()
	require.NoError(t, err)
	assert.Equal(t, "g1", got.ID)
	assert.Equal(t, game.PlayerX, got.Board[4])
	assert.Equal(t, game.PlayerO, got.Next)

	select {
	case ev := <-other:
		t.Errorf("Subscriber of another game received %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}

	cancel()
	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should be closed after cancel")
	case <-time.After(2 * time.Second):
		t.Fatal("Channel was not closed after cancel")
	}
}

func TestMemoryBus(t *testing.T) {
	exerciseBus(t, NewMemoryBus())
}

func TestMemoryBusDropsForSlowSubscriber(t *testing.T) {
	ctx := context.Background()
	bus := NewMemoryBus()
	ch, cancel, err := bus.Subscribe(ctx, "g1")
	require.NoError(t, err)
	defer cancel()

	state := game.NewState("g1", game.ModeTwoPlayer, game.Easy, time.Now())
	for i := 0; i < subscriberBuffer+5; i++ {
		require.NoError(t, bus.Publish(ctx, TypeUpdate, state))
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestEventStateRequiresState(t *testing.T) {
	_, err := Event{Type: TypeUpdate, Payload: []byte(`{}`)}.State()
	assert.Error(t, err)
	_, err = Event{Type: TypeUpdate, Payload: []byte(`nope`)}.State()
	assert.Error(t, err)
}

func TestRedisBus(t *testing.T) {
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

	exerciseBus(t, NewRedisBus(rdb))
}
