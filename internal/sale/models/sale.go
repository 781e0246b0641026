package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is the immutable header of a registered sale. Only the sale service
// creates sales; there is no update or delete path.
type Sale struct {
	ID         int64           `json:"id"`
	CustomerID int64           `json:"customer_id"`
	CreatedAt  time.Time       `json:"created_at"`
	Total      decimal.Decimal `json:"total"`
}

// SaleLine is one priced line of a sale. UnitPrice and Subtotal are snapshots
// taken at registration time; later product reprices do not affect them.
type SaleLine struct {
	ID        int64           `json:"id"`
	SaleID    int64           `json:"sale_id"`
	ProductID int64           `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// CartLine is one requested (product, quantity) pair, in cart order.
type CartLine struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

// CatalogProduct is the price/stock snapshot of one product, fetched once per
// registration attempt and used consistently through validation and pricing.
type CatalogProduct struct {
	ID       int64
	Name     string
	Price    decimal.Decimal
	Quantity int64
}

// PricedLine is a cart line after validation and pricing.
type PricedLine struct {
	ProductID int64
	Quantity  int64
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// PricedCart is the result of pricing a full cart against a catalog snapshot.
type PricedCart struct {
	Lines []PricedLine
	Total decimal.Decimal
}

// ListFilter narrows the sale listing. Nil fields impose no constraint;
// set fields combine with AND.
type ListFilter struct {
	CustomerID *int64
	ProductID  *int64
}

// CustomerSummary is the joined customer data returned with a sale.
type CustomerSummary struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// LineWithProduct is a sale line joined with its product's current name.
type LineWithProduct struct {
	SaleLine
	ProductName string `json:"product_name"`
}

// SaleWithDetails is a sale joined with its customer and lines for listings.
type SaleWithDetails struct {
	Sale
	Customer CustomerSummary   `json:"customer"`
	Lines    []LineWithProduct `json:"lines"`
}
