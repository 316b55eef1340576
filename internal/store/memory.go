package store

import (
	"context"
	"sort"
	"sync"

	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/model"
)

// MemoryStore implements Store with in-memory storage.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[int64]model.Transaction
	nextID int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[int64]model.Transaction), nextID: 1}
}

func (s *MemoryStore) GetAll(_ context.Context) ([]model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Transaction, 0, len(s.byID))
	for _, t := range s.byID {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Insert(_ context.Context, rec model.Transaction) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.ID = s.nextID
	s.nextID++
	s.byID[rec.ID] = rec
	return rec.ID, nil
}

func (s *MemoryStore) Update(_ context.Context, rec model.Transaction) error {
	if !rec.HasID() {
		return ErrNoID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[rec.ID]; !ok {
		return ErrNotFound
	}
	s.byID[rec.ID] = rec
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID = make(map[int64]model.Transaction)
	s.nextID = 1
	return nil
}

func (s *MemoryStore) Close() error { return nil }
