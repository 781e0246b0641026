package service

import (
	"context"
	"errors"
	"log/slog"

	"tienda/internal/product/models"
	dErrors "tienda/pkg/domain-errors"
	"tienda/pkg/platform/sentinel"
	"tienda/pkg/requestcontext"
)

// Store is the persistence port for products.
type Store interface {
	Create(ctx context.Context, p *models.Product) error
	FindByID(ctx context.Context, id int64) (*models.Product, error)
	List(ctx context.Context) ([]*models.Product, error)
	Update(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id int64) error
}

// ListCache is the optional read-through cache for List.
type ListCache interface {
	Get(ctx context.Context) ([]*models.Product, bool)
	Set(ctx context.Context, products []*models.Product)
	Invalidate(ctx context.Context)
}

// Service manages the product lifecycle.
type Service struct {
	products Store
	cache    ListCache
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithListCache enables the read-through product list cache.
func WithListCache(cache ListCache) Option {
	return func(s *Service) { s.cache = cache }
}

// New constructs a product Service.
func New(products Store, opts ...Option) *Service {
	s := &Service{products: products}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Create(ctx context.Context, in models.ProductInput) (*models.Product, error) {
	p, err := models.NewProduct(in, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create product")
	}
	s.invalidate(ctx)
	s.log(ctx, "product created", "product_id", p.ID)
	return p, nil
}

func (s *Service) List(ctx context.Context) ([]*models.Product, error) {
	if s.cache != nil {
		if products, ok := s.cache.Get(ctx); ok {
			return products, nil
		}
	}
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list products")
	}
	if s.cache != nil {
		s.cache.Set(ctx, products)
	}
	return products, nil
}

func (s *Service) Update(ctx context.Context, id int64, in models.ProductInput) (*models.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "product not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load product")
	}
	if err := p.Apply(in, requestcontext.Now(ctx)); err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}
	if err := s.products.Update(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "product not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update product")
	}
	s.invalidate(ctx)
	s.log(ctx, "product updated", "product_id", p.ID)
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.products.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "product not found")
		case errors.Is(err, sentinel.ErrConflict):
			return dErrors.New(dErrors.CodeConflict, "product appears in registered sales")
		default:
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete product")
		}
	}
	s.invalidate(ctx)
	s.log(ctx, "product deleted", "product_id", id)
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
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
