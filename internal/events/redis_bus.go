package events

import (
	"context"
	"ctchen222/Cosmic-Tic-Tac-Toe/internal/game"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("events")

type redisBus struct {
	rdb *redis.Client
}

// NewRedisBus creates a Bus on Redis Pub/Sub, so every server instance
// sharing the Redis sees every game's updates.
func NewRedisBus(rdb *redis.Client) Bus {
	return &redisBus{rdb: rdb}
}

func (b *redisBus) Publish(ctx context.Context, eventType string, state *game.State) error {
	ctx, span := tracer.Start(ctx, "events.Publish", trace.WithAttributes(
		attribute.String("game.id", state.ID),
		attribute.String("event.type", eventType),
	))
	defer span.End()

	event, err := NewEvent(eventType, state)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to build event")
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to marshal event")
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := b.rdb.Publish(ctx, GameChannel(state.ID), data).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to publish event")
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}
	return nil
}

func (b *redisBus) Subscribe(ctx context.Context, gameID string) (<-chan Event, func(), error) {
	channel := GameChannel(gameID)
	pubsub := b.rdb.Subscribe(ctx, channel)
	// Wait for the subscription confirmation so no publish is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	out := make(chan Event, subscriberBuffer)
	stop := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(stop)
			pubsub.Close()
		})
	}

	go func() {
		defer close(out)
		msgs := pubsub.Channel()
		for {
			select {
			case <-stop:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					slog.ErrorContext(ctx, "Could not unmarshal game event", "channel", channel, "error", err)
					continue
				}
				select {
				case out <- event:
				default:
					slog.WarnContext(ctx, "Dropping game event for slow subscriber", "game.id", gameID, "event.type", event.Type)
				}
			}
		}
	}()

	return out, cancel, nil
}
