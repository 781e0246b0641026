package service

import (
	"context"
	"errors"
	"log/slog"

	"tienda/internal/customer/models"
	dErrors "tienda/pkg/domain-errors"
	"tienda/pkg/platform/sentinel"
	"tienda/pkg/requestcontext"
)

// Store is the persistence port for customers.
type Store interface {
	Create(ctx context.Context, c *models.Customer) error
	FindByID(ctx context.Context, id int64) (*models.Customer, error)
	List(ctx context.Context) ([]*models.Customer, error)
	Update(ctx context.Context, c *models.Customer) error
	Delete(ctx context.Context, id int64) error
}

// Service manages the customer lifecycle.
type Service struct {
	customers Store
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New constructs a customer Service.
func New(customers Store, opts ...Option) *Service {
	s := &Service{customers: customers}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Create(ctx context.Context, in models.CustomerInput) (*models.Customer, error) {
	c, err := models.NewCustomer(in, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}
	if err := s.customers.Create(ctx, c); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create customer")
	}
	s.log(ctx, "customer created", "customer_id", c.ID)
	return c, nil
}

func (s *Service) List(ctx context.Context) ([]*models.Customer, error) {
	customers, err := s.customers.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list customers")
	}
	return customers, nil
}

func (s *Service) Update(ctx context.Context, id int64, in models.CustomerInput) (*models.Customer, error) {
	c, err := s.customers.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "customer not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load customer")
	}
	if err := c.Apply(in, requestcontext.Now(ctx)); err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}
	if err := s.customers.Update(ctx, c); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "customer not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update customer")
	}
	s.log(ctx, "customer updated", "customer_id", c.ID)
	return c, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.customers.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "customer not found")
		case errors.Is(err, sentinel.ErrConflict):
			return dErrors.New(dErrors.CodeConflict, "customer has registered sales")
		default:
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete customer")
		}
	}
	s.log(ctx, "customer deleted", "customer_id", id)
	return nil
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
