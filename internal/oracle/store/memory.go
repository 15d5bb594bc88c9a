package store

import (
	"context"
	"sort"
	"sync"

	"impactx/internal/oracle/models"
	id "impactx/pkg/domain"
	"impactx/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded oracle registry. Readers get copies.
type InMemory struct {
	mu      sync.RWMutex
	oracles map[id.OracleID]*models.Oracle
}

func NewInMemory() *InMemory {
	return &InMemory{oracles: make(map[id.OracleID]*models.Oracle)}
}

func (s *InMemory) Create(_ context.Context, oracle *models.Oracle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.oracles[oracle.ID]; ok {
		return sentinel.ErrConflict
	}
	cp := *oracle
	s.oracles[oracle.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, oracleID id.OracleID) (*models.Oracle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.oracles[oracleID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

// List returns every oracle ordered by registration time, then id.
func (s *InMemory) List(_ context.Context) ([]*models.Oracle, error) {
	s.mu.RLock()
	out := make([]*models.Oracle, 0, len(s.oracles))
	for _, o := range s.oracles {
		cp := *o
		out = append(out, &cp)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].RegisteredAt.Equal(out[j].RegisteredAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].RegisteredAt.Before(out[j].RegisteredAt)
	})
	return out, nil
}

// Execute validates and mutates an oracle under the write lock.
// validate runs first; mutate only runs when validate succeeds.
func (s *InMemory) Execute(_ context.Context, oracleID id.OracleID, validate func(*models.Oracle) error, mutate func(*models.Oracle)) (*models.Oracle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.oracles[oracleID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(o); err != nil {
		return nil, err
	}
	mutate(o)
	cp := *o
	return &cp, nil
}
