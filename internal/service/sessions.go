package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Sessions lazily creates one OrderStore per restaurant.
type Sessions struct {
	mu     sync.Mutex
	stores map[uuid.UUID]*OrderStore
	opts   Options
}

// NewSessions creates a registry whose stores share opts.
func NewSessions(opts Options) *Sessions {
	return &Sessions{
		stores: make(map[uuid.UUID]*OrderStore),
		opts:   opts,
	}
}

// Get returns the restaurant's store, hydrating it from the backend on first use.
// A failed hydration is not cached so the next call retries.
func (s *Sessions) Get(ctx context.Context, restaurantID uuid.UUID) (*OrderStore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if store, ok := s.stores[restaurantID]; ok {
		return store, nil
	}

	store := NewOrderStore(Session{RestaurantID: restaurantID}, s.opts)
	if b := s.opts.Backend; b != nil {
		orders, err := b.ListActiveOrders(ctx, restaurantID)
		if err != nil {
			return nil, fmt.Errorf("%w: list active orders: %w", ErrBackend, err)
		}
		online, err := b.GetOnline(ctx, restaurantID)
		if err != nil {
			return nil, fmt.Errorf("%w: get online: %w", ErrBackend, err)
		}
		store.Load(orders, online)
	}

	s.stores[restaurantID] = store
	return store, nil
}

// Len returns the number of open sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stores)
}

// ActiveCounts returns the number of active orders held by each open session.
func (s *Sessions) ActiveCounts() map[uuid.UUID]int {
	s.mu.Lock()
	stores := make(map[uuid.UUID]*OrderStore, len(s.stores))
	for rid, store := range s.stores {
		stores[rid] = store
	}
	s.mu.Unlock()

	counts := make(map[uuid.UUID]int, len(stores))
	for rid, store := range stores {
		counts[rid] = store.Len()
	}
	return counts
}
