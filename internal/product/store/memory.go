package store

import (
	"context"
	"sort"
	"sync"

	"tienda/internal/product/models"
	"tienda/pkg/platform/sentinel"
)

// InMemory is a map-backed product store for unit tests and local runs.
type InMemory struct {
	mu       sync.RWMutex
	products map[int64]models.Product
	nextID   int64

	referenced map[int64]bool
}

// NewInMemory constructs an empty in-memory product store.
func NewInMemory() *InMemory {
	return &InMemory{
		products:   make(map[int64]models.Product),
		referenced: make(map[int64]bool),
		nextID:     1,
	}
}

func (s *InMemory) Create(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.nextID
	s.nextID++
	s.products[p.ID] = *p
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id int64) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &p, nil
}

func (s *InMemory) List(_ context.Context) ([]*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Product, 0, len(s.products))
	for _, p := range s.products {
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemory) Update(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.products[p.ID] = *p
	return nil
}

func (s *InMemory) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return sentinel.ErrNotFound
	}
	if s.referenced[id] {
		return sentinel.ErrConflict
	}
	delete(s.products, id)
	return nil
}

// MarkReferenced records that a sale line references the product, so Delete
// returns a conflict like the Postgres foreign key would.
func (s *InMemory) MarkReferenced(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.referenced[id] = true
}
