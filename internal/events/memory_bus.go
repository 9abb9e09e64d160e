package events

import (
	"context"
	"ctchen222/Cosmic-Tic-Tac-Toe/internal/game"
	"log/slog"
	"sync"
)

const subscriberBuffer = 16

type memoryBus struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

// NewMemoryBus creates a process-local Bus. Slow subscribers miss events
// rather than block publishers; each update carries the full board.
func NewMemoryBus() Bus {
	return &memoryBus{subs: make(map[string]map[chan Event]struct{})}
}

func (b *memoryBus) Publish(ctx context.Context, eventType string, state *game.State) error {
	event, err := NewEvent(eventType, state)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[state.ID] {
		select {
		case ch <- event:
		default:
			slog.WarnContext(ctx, "Dropping game event for slow subscriber", "game.id", state.ID, "event.type", eventType)
		}
	}
	return nil
}

func (b *memoryBus) Subscribe(ctx context.Context, gameID string) (<-chan Event, func(), error) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	if b.subs[gameID] == nil {
		b.subs[gameID] = make(map[chan Event]struct{})
	}
	b.subs[gameID][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[gameID], ch)
			if len(b.subs[gameID]) == 0 {
				delete(b.subs, gameID)
			}
			close(ch)
		})
	}
	return ch, cancel, nil
}
