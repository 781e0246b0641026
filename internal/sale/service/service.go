package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	salemetrics "tienda/internal/sale/metrics"
	"tienda/internal/sale/models"
	"tienda/internal/sale/store"
	dErrors "tienda/pkg/domain-errors"
	"tienda/pkg/platform/sentinel"
	"tienda/pkg/requestcontext"
)

// CatalogStore fetches the price/stock snapshot used for validation and
// pricing. Reads go straight to the store, never through a cache: the
// snapshot must reflect committed stock.
type CatalogStore interface {
	FetchProducts(ctx context.Context, ids []int64) (map[int64]models.CatalogProduct, error)
}

// QueryStore serves the sale read paths.
type QueryStore interface {
	ListSales(ctx context.Context, filter models.ListFilter) ([]*models.SaleWithDetails, error)
}

// StoreTx runs a unit of work atomically: either every mutation in fn is
// persisted or none is.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(store store.TxStore) error) error
}

// CacheInvalidator is notified after a committed sale so cached product
// listings don't keep showing pre-sale stock. Optional.
type CacheInvalidator interface {
	Invalidate(ctx context.Context)
}

// Service orchestrates sale registration and serves sale queries. It is the
// only component allowed to create sales and the only stock writer besides
// direct product edits.
type Service struct {
	catalog CatalogStore
	queries QueryStore
	tx      StoreTx

	cache   CacheInvalidator
	logger  *slog.Logger
	metrics *salemetrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics enables sale metrics.
func WithMetrics(m *salemetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithCacheInvalidator wires the product list cache invalidation.
func WithCacheInvalidator(cache CacheInvalidator) Option {
	return func(s *Service) { s.cache = cache }
}

// New constructs a sale Service.
func New(catalog CatalogStore, queries QueryStore, tx StoreTx, opts ...Option) *Service {
	s := &Service{catalog: catalog, queries: queries, tx: tx}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterSale turns a cart into a durable sale, its lines, and decremented
// stock, all-or-nothing.
//
// Validation failures are side-effect free: the preconditions fail before
// any store access, and cart errors fail before the transaction starts.
// Inside the transaction the stock decrement is conditional on remaining
// stock, so two concurrent registrations of the same product cannot both
// commit past what is available, regardless of what the earlier snapshot
// said. Commit-time failures surface as *models.TransactionError so callers
// can tell a stale snapshot from a pre-check rejection.
//
// Registration is deliberately not idempotent: resubmitting an identical
// cart creates a second sale and decrements stock again.
func (s *Service) RegisterSale(ctx context.Context, customerID int64, cart []models.CartLine) (*models.Sale, error) {
	start := time.Now()

	if len(cart) == 0 {
		s.failure("empty_cart")
		return nil, dErrors.Wrap(models.ErrEmptyCart, dErrors.CodeValidation, "cart is empty")
	}
	if customerID <= 0 {
		s.failure("invalid_customer")
		return nil, dErrors.Wrap(models.ErrInvalidCustomer, dErrors.CodeValidation, "invalid customer")
	}

	catalog, err := s.catalog.FetchProducts(ctx, distinctProductIDs(cart))
	if err != nil {
		s.failure("store_unavailable")
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "catalog unavailable")
	}

	priced, err := PriceCart(cart, catalog)
	if err != nil {
		return nil, s.cartError(err)
	}

	var sale *models.Sale
	err = s.tx.RunInTx(ctx, func(store store.TxStore) error {
		now := requestcontext.Now(ctx)

		created, err := store.InsertSale(ctx, customerID, now, priced.Total)
		if err != nil {
			return err
		}
		if err := store.InsertLines(ctx, created.ID, priced.Lines); err != nil {
			return err
		}
		for _, line := range priced.Lines {
			available, err := store.DecrementStock(ctx, line.ProductID, line.Quantity)
			if err != nil {
				if errors.Is(err, sentinel.ErrInsufficientStock) {
					// Re-validated against current stock, not the stale snapshot.
					return &models.InsufficientStockError{
						ProductID: line.ProductID,
						Requested: line.Quantity,
						Available: available,
					}
				}
				return err
			}
		}
		sale = created
		return nil
	})
	if err != nil {
		return nil, s.transactionError(ctx, err)
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	s.log(ctx, "sale registered",
		"sale_id", sale.ID,
		"customer_id", customerID,
		"lines", len(priced.Lines),
		"total", priced.Total.StringFixed(2),
	)
	if s.metrics != nil {
		s.metrics.IncrementRegistered()
		s.metrics.ObserveRegisterSale(start)
	}
	return sale, nil
}

// List returns sales joined with customer and line/product data, filtered by
// the AND of any provided filters.
func (s *Service) List(ctx context.Context, filter models.ListFilter) ([]*models.SaleWithDetails, error) {
	if filter.CustomerID != nil && *filter.CustomerID <= 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "customer_id must be positive")
	}
	if filter.ProductID != nil && *filter.ProductID <= 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "product_id must be positive")
	}
	sales, err := s.queries.ListSales(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "sales store unavailable")
	}
	return sales, nil
}

// cartError translates a pre-check pricing failure. No store mutation has
// happened at this point.
func (s *Service) cartError(err error) error {
	var notFound *models.ProductNotFoundError
	if errors.As(err, &notFound) {
		s.failure("product_not_found")
		return dErrors.Wrap(err, dErrors.CodeNotFound, notFound.Error())
	}
	var insufficient *models.InsufficientStockError
	if errors.As(err, &insufficient) {
		s.failure("insufficient_stock")
		return dErrors.Wrap(err, dErrors.CodeConflict, insufficient.Error())
	}
	s.failure("pricing")
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to price cart")
}

// transactionError wraps a unit-of-work failure. Everything is already
// rolled back when this runs.
func (s *Service) transactionError(ctx context.Context, err error) error {
	txErr := &models.TransactionError{Cause: err}

	var insufficient *models.InsufficientStockError
	switch {
	case errors.As(err, &insufficient):
		s.failure("stock_race")
		s.log(ctx, "sale aborted: stock changed after snapshot",
			"product_id", insufficient.ProductID,
			"requested", insufficient.Requested,
			"available", insufficient.Available,
		)
		return dErrors.Wrap(txErr, dErrors.CodeConflict, "insufficient stock at commit time")
	case errors.Is(err, sentinel.ErrNotFound):
		s.failure("customer_not_found")
		return dErrors.Wrap(txErr, dErrors.CodeNotFound, "customer not found")
	default:
		s.failure("transaction")
		return dErrors.Wrap(txErr, dErrors.CodeInternal, "sale transaction failed")
	}
}

func (s *Service) failure(reason string) {
	if s.metrics != nil {
		s.metrics.IncrementFailure(reason)
	}
}

func (s *Service) log(ctx context.Context, msg string, args ...any) {
	if s.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		args = append(args, "request_id", requestID)
	}
	s.logger.InfoContext(ctx, msg, args...)
}

func distinctProductIDs(cart []models.CartLine) []int64 {
	seen := make(map[int64]struct{}, len(cart))
	ids := make([]int64, 0, len(cart))
	for _, line := range cart {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}
	return ids
}
