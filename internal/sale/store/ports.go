package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"tienda/internal/sale/models"
)

// TxStore is the mutation surface available inside one unit of work. Both
// the Postgres transaction store and the in-memory store satisfy it.
type TxStore interface {
	InsertSale(ctx context.Context, customerID int64, at time.Time, total decimal.Decimal) (*models.Sale, error)
	InsertLines(ctx context.Context, saleID int64, lines []models.PricedLine) error
	// DecrementStock conditionally decrements stock; on insufficient stock it
	// returns sentinel.ErrInsufficientStock and the quantity still available.
	DecrementStock(ctx context.Context, productID, quantity int64) (available int64, err error)
}
