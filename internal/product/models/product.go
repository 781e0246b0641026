package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	dErrors "tienda/pkg/domain-errors"
)

// Product is an inventory item.
//
// Invariants:
//   - Name and Description are non-empty
//   - Quantity >= 0 at all times; the sale orchestrator is the only writer
//     besides direct edits, and its decrement is conditional on remaining stock
//   - Price >= 0 with two fraction digits
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Quantity    int64           `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProductInput carries the mutable product fields for create and update.
type ProductInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Quantity    int64           `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// Normalize trims surrounding whitespace and settles the price to currency
// precision.
func (in *ProductInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Price = in.Price.Round(2)
}

// Validate enforces the product field invariants.
func (in *ProductInput) Validate() error {
	if in.Name == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "name cannot be empty")
	}
	if in.Description == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "description cannot be empty")
	}
	if in.Quantity < 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "quantity cannot be negative")
	}
	if in.Price.IsNegative() {
		return dErrors.New(dErrors.CodeInvariantViolation, "price cannot be negative")
	}
	return nil
}

// NewProduct constructs a Product from validated input.
func NewProduct(in ProductInput, now time.Time) (*Product, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return &Product{
		Name:        in.Name,
		Description: in.Description,
		Quantity:    in.Quantity,
		Price:       in.Price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Apply copies validated input onto an existing product.
func (p *Product) Apply(in ProductInput, now time.Time) error {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return err
	}
	p.Name = in.Name
	p.Description = in.Description
	p.Quantity = in.Quantity
	p.Price = in.Price
	p.UpdatedAt = now
	return nil
}
