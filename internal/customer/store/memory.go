package store

import (
	"context"
	"sort"
	"sync"

	"tienda/internal/customer/models"
	"tienda/pkg/platform/sentinel"
)

// InMemory is a map-backed customer store for unit tests and local runs.
type InMemory struct {
	mu        sync.RWMutex
	customers map[int64]models.Customer
	nextID    int64

	// referenced mirrors the sales foreign key so delete semantics match
	// the Postgres store in tests.
	referenced map[int64]bool
}

// NewInMemory constructs an empty in-memory customer store.
func NewInMemory() *InMemory {
	return &InMemory{
		customers:  make(map[int64]models.Customer),
		referenced: make(map[int64]bool),
		nextID:     1,
	}
}

func (s *InMemory) Create(_ context.Context, c *models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.nextID
	s.nextID++
	s.customers[c.ID] = *c
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id int64) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &c, nil
}

func (s *InMemory) List(_ context.Context) ([]*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemory) Update(_ context.Context, c *models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[c.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.customers[c.ID] = *c
	return nil
}

func (s *InMemory) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[id]; !ok {
		return sentinel.ErrNotFound
	}
	if s.referenced[id] {
		return sentinel.ErrConflict
	}
	delete(s.customers, id)
	return nil
}

// MarkReferenced records that a sale references the customer, so Delete
// returns a conflict like the Postgres foreign key would.
func (s *InMemory) MarkReferenced(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.referenced[id] = true
}
