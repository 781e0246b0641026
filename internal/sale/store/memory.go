package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"tienda/internal/sale/models"
	"tienda/pkg/platform/sentinel"
)

// InMemory holds products, customers, and the sale ledger in maps. It backs
// unit tests with the same all-or-nothing transaction semantics the Postgres
// store gets from SQL transactions: the runner snapshots state and restores
// it when the unit of work fails.
type InMemory struct {
	mu         sync.Mutex
	products   map[int64]models.CatalogProduct
	customers  map[int64]models.CustomerSummary
	sales      map[int64]models.Sale
	lines      map[int64][]models.SaleLine
	nextSaleID int64
	nextLineID int64
}

// NewInMemory constructs an empty in-memory sale store.
func NewInMemory() *InMemory {
	return &InMemory{
		products:   make(map[int64]models.CatalogProduct),
		customers:  make(map[int64]models.CustomerSummary),
		sales:      make(map[int64]models.Sale),
		lines:      make(map[int64][]models.SaleLine),
		nextSaleID: 1,
		nextLineID: 1,
	}
}

// SeedProduct registers a product with stock and price.
func (s *InMemory) SeedProduct(p models.CatalogProduct) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

// SeedCustomer registers a customer for join assembly in listings.
func (s *InMemory) SeedCustomer(c models.CustomerSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[c.ID] = c
}

// StockOf reports the current stock for assertions in tests.
func (s *InMemory) StockOf(productID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[productID].Quantity
}

// SaleCount reports how many sales have been committed.
func (s *InMemory) SaleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sales)
}

func (s *InMemory) FetchProducts(_ context.Context, ids []int64) (map[int64]models.CatalogProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	catalog := make(map[int64]models.CatalogProduct, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			catalog[id] = p
		}
	}
	return catalog, nil
}

func (s *InMemory) ListSales(_ context.Context, filter models.ListFilter) ([]*models.SaleWithDetails, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.SaleWithDetails, 0, len(s.sales))
	for _, sale := range s.sales {
		if filter.CustomerID != nil && sale.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.ProductID != nil && !s.saleHasProduct(sale.ID, *filter.ProductID) {
			continue
		}
		sd := &models.SaleWithDetails{Sale: sale, Customer: s.customers[sale.CustomerID]}
		sd.Lines = make([]models.LineWithProduct, 0, len(s.lines[sale.ID]))
		for _, line := range s.lines[sale.ID] {
			sd.Lines = append(sd.Lines, models.LineWithProduct{
				SaleLine:    line,
				ProductName: s.products[line.ProductID].Name,
			})
		}
		out = append(out, sd)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemory) saleHasProduct(saleID, productID int64) bool {
	for _, line := range s.lines[saleID] {
		if line.ProductID == productID {
			return true
		}
	}
	return false
}

// memoryTxStore exposes the mutation surface against the locked store.
type memoryTxStore struct {
	store *InMemory
}

func (t *memoryTxStore) InsertSale(_ context.Context, customerID int64, at time.Time, total decimal.Decimal) (*models.Sale, error) {
	s := t.store
	if _, ok := s.customers[customerID]; !ok {
		return nil, fmt.Errorf("insert sale: %w", sentinel.ErrNotFound)
	}
	sale := models.Sale{ID: s.nextSaleID, CustomerID: customerID, CreatedAt: at, Total: total}
	s.nextSaleID++
	s.sales[sale.ID] = sale
	return &sale, nil
}

func (t *memoryTxStore) InsertLines(_ context.Context, saleID int64, lines []models.PricedLine) error {
	s := t.store
	for _, line := range lines {
		s.lines[saleID] = append(s.lines[saleID], models.SaleLine{
			ID:        s.nextLineID,
			SaleID:    saleID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Subtotal:  line.Subtotal,
		})
		s.nextLineID++
	}
	return nil
}

func (t *memoryTxStore) DecrementStock(_ context.Context, productID, quantity int64) (int64, error) {
	s := t.store
	p, ok := s.products[productID]
	if !ok {
		return 0, fmt.Errorf("product %d: %w", productID, sentinel.ErrNotFound)
	}
	if p.Quantity < quantity {
		return p.Quantity, sentinel.ErrInsufficientStock
	}
	p.Quantity -= quantity
	s.products[productID] = p
	return 0, nil
}

// InMemoryTx runs a unit of work against the in-memory store with rollback
// on failure.
type InMemoryTx struct {
	store *InMemory
}

// NewInMemoryTx constructs the in-memory transaction runner.
func NewInMemoryTx(store *InMemory) *InMemoryTx {
	return &InMemoryTx{store: store}
}

// RunInTx executes fn against a tx-bound store view, restoring the previous
// state when fn fails so no partial mutation is observable.
func (r *InMemoryTx) RunInTx(ctx context.Context, fn func(store TxStore) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.snapshotLocked()
	if err := fn(&memoryTxStore{store: s}); err != nil {
		s.restoreLocked(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	products   map[int64]models.CatalogProduct
	sales      map[int64]models.Sale
	lines      map[int64][]models.SaleLine
	nextSaleID int64
	nextLineID int64
}

func (s *InMemory) snapshotLocked() memorySnapshot {
	snap := memorySnapshot{
		products:   make(map[int64]models.CatalogProduct, len(s.products)),
		sales:      make(map[int64]models.Sale, len(s.sales)),
		lines:      make(map[int64][]models.SaleLine, len(s.lines)),
		nextSaleID: s.nextSaleID,
		nextLineID: s.nextLineID,
	}
	for id, p := range s.products {
		snap.products[id] = p
	}
	for id, sale := range s.sales {
		snap.sales[id] = sale
	}
	for id, lines := range s.lines {
		snap.lines[id] = append([]models.SaleLine(nil), lines...)
	}
	return snap
}

func (s *InMemory) restoreLocked(snap memorySnapshot) {
	s.products = snap.products
	s.sales = snap.sales
	s.lines = snap.lines
	s.nextSaleID = snap.nextSaleID
	s.nextLineID = snap.nextLineID
}
