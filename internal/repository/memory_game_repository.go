package repository

import (
	"context"
	"ctchen222/Cosmic-Tic-Tac-Toe/internal/game"
	"fmt"
	"sync"
	"time"
)

type memoryEntry struct {
	state     *game.State
	expiresAt time.Time
}

type memoryGameRepository struct {
	mu    sync.RWMutex
	games map[string]memoryEntry
	ttl   time.Duration
	now   func() time.Time
}

// NewMemoryGameRepository creates a process-local GameRepository with the
// same expiry rules as the Redis one. Expired games are dropped lazily.
func NewMemoryGameRepository(ttl time.Duration) GameRepository {
	return &memoryGameRepository{
		games: make(map[string]memoryEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (r *memoryGameRepository) Create(ctx context.Context, state *game.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.lookupLocked(state.ID); ok {
		return fmt.Errorf("game %s already exists", state.ID)
	}
	r.storeLocked(state)
	return nil
}

func (r *memoryGameRepository) FindByID(ctx context.Context, id string) (*game.State, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.lookupLocked(id)
	if !ok {
		return nil, ErrGameNotFound
	}
	return entry.state.Clone(), nil
}

func (r *memoryGameRepository) Save(ctx context.Context, state *game.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.storeLocked(state)
	r.sweepLocked()
	return nil
}

func (r *memoryGameRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.games, id)
	return nil
}

func (r *memoryGameRepository) lookupLocked(id string) (memoryEntry, bool) {
	entry, ok := r.games[id]
	if !ok {
		return memoryEntry{}, false
	}
	if !entry.expiresAt.IsZero() && !r.now().Before(entry.expiresAt) {
		return memoryEntry{}, false
	}
	return entry, true
}

func (r *memoryGameRepository) storeLocked(state *game.State) {
	entry := memoryEntry{state: state.Clone()}
	if r.ttl > 0 {
		entry.expiresAt = r.now().Add(r.ttl)
	}
	r.games[state.ID] = entry
}

func (r *memoryGameRepository) sweepLocked() {
	now := r.now()
	for id, entry := range r.games {
		if !entry.expiresAt.IsZero() && !now.Before(entry.expiresAt) {
			delete(r.games, id)
		}
	}
}
