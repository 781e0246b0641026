package models

import (
	"errors"
	"fmt"
)

// Cart-level precondition failures. The service rejects these before any
// store access happens.
var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrInvalidCustomer = errors.New("customer id must be positive")
)

// ProductNotFoundError reports a cart line whose product does not exist in
// the catalog snapshot.
type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

// Details exposes the offending product for the error envelope.
func (e *ProductNotFoundError) Details() map[string]any {
	return map[string]any{"product_id": e.ProductID}
}

// InsufficientStockError reports a cart line requesting more units than the
// product has. Available reflects the catalog snapshot for pre-check
// failures, or current stock for commit-time failures.
type InsufficientStockError struct {
	ProductID int64
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// Details exposes the stock shortfall for the error envelope.
func (e *InsufficientStockError) Details() map[string]any {
	return map[string]any{
		"product_id": e.ProductID,
		"requested":  e.Requested,
		"available":  e.Available,
	}
}

// TransactionError wraps a failure inside the atomic unit of work. It is
// distinct from pre-check validation failures so callers know the catalog
// snapshot was stale when the cause is insufficient stock.
type TransactionError struct {
	Cause error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("sale transaction failed: %v", e.Cause)
}

func (e *TransactionError) Unwrap() error {
	return e.Cause
}

// Details surfaces the cause's structured context when it has any.
func (e *TransactionError) Details() map[string]any {
	type detailer interface {
		Details() map[string]any
	}
	var d detailer
	if errors.As(e.Cause, &d) {
		return d.Details()
	}
	return nil
}
