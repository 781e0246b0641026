package service

import (
	"github.com/shopspring/decimal"

	"tienda/internal/sale/models"
)

// PriceCart validates a cart against a catalog snapshot and prices it.
//
// Lines are checked in input order and the first failure wins; a failed cart
// produces no partial result. Pricing uses only the snapshot, so every line
// of one registration attempt sees the same price even if the product is
// repriced concurrently.
func PriceCart(cart []models.CartLine, catalog map[int64]models.CatalogProduct) (models.PricedCart, error) {
	lines := make([]models.PricedLine, 0, len(cart))
	total := decimal.Zero

	for _, line := range cart {
		product, ok := catalog[line.ProductID]
		if !ok {
			return models.PricedCart{}, &models.ProductNotFoundError{ProductID: line.ProductID}
		}
		if line.Quantity > product.Quantity {
			return models.PricedCart{}, &models.InsufficientStockError{
				ProductID: line.ProductID,
				Requested: line.Quantity,
				Available: product.Quantity,
			}
		}
		subtotal := product.Price.Mul(decimal.NewFromInt(line.Quantity)).Round(2)
		lines = append(lines, models.PricedLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
			Subtotal:  subtotal,
		})
		total = total.Add(subtotal)
	}

	return models.PricedCart{Lines: lines, Total: total}, nil
}
