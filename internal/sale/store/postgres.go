package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"tienda/internal/sale/models"
	"tienda/pkg/platform/sentinel"
)

// Postgres serves the sale read paths: the catalog snapshot used by the
// orchestrator and the joined sale listings. Mutations happen on PostgresTx
// inside a transaction.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed sale read store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// FetchProducts returns the price/stock snapshot for exactly the subset of
// the requested ids that exist. Callers detect missing products by absence
// from the map. No side effects.
func (s *Postgres) FetchProducts(ctx context.Context, ids []int64) (map[int64]models.CatalogProduct, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, price, quantity
		FROM products
		WHERE id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
	}
	defer rows.Close()

	catalog := make(map[int64]models.CatalogProduct, len(ids))
	for rows.Next() {
		var p models.CatalogProduct
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Quantity); err != nil {
			return nil, fmt.Errorf("scan product snapshot: %w", err)
		}
		catalog[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
	}
	return catalog, nil
}

// ListSales returns sales joined with their customer and lines, newest first.
// Filters combine with AND; nil filters impose no constraint.
func (s *Postgres) ListSales(ctx context.Context, filter models.ListFilter) ([]*models.SaleWithDetails, error) {
	query := `
		SELECT s.id, s.customer_id, s.created_at, s.total,
			c.first_name, c.last_name, c.email
		FROM sales s
		JOIN customers c ON c.id = s.customer_id
	`
	var (
		conds []string
		args  []any
	)
	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		conds = append(conds, fmt.Sprintf("s.customer_id = $%d", len(args)))
	}
	if filter.ProductID != nil {
		args = append(args, *filter.ProductID)
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM sale_lines sl WHERE sl.sale_id = s.id AND sl.product_id = $%d)", len(args)))
	}
	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY s.created_at DESC, s.id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	sales := make([]*models.SaleWithDetails, 0, 32)
	byID := make(map[int64]*models.SaleWithDetails)
	saleIDs := make([]int64, 0, 32)
	for rows.Next() {
		var sd models.SaleWithDetails
		err := rows.Scan(&sd.ID, &sd.CustomerID, &sd.CreatedAt, &sd.Total,
			&sd.Customer.FirstName, &sd.Customer.LastName, &sd.Customer.Email)
		if err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		sd.Customer.ID = sd.CustomerID
		sd.Lines = []models.LineWithProduct{}
		sales = append(sales, &sd)
		byID[sd.ID] = &sd
		saleIDs = append(saleIDs, sd.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	if len(sales) == 0 {
		return sales, nil
	}

	lineRows, err := s.db.QueryContext(ctx, `
		SELECT sl.id, sl.sale_id, sl.product_id, sl.quantity, sl.unit_price, sl.subtotal,
			p.name
		FROM sale_lines sl
		JOIN products p ON p.id = sl.product_id
		WHERE sl.sale_id = ANY($1)
		ORDER BY sl.id
	`, pq.Array(saleIDs))
	if err != nil {
		return nil, fmt.Errorf("list sale lines: %w", err)
	}
	defer lineRows.Close()

	for lineRows.Next() {
		var line models.LineWithProduct
		err := lineRows.Scan(&line.ID, &line.SaleID, &line.ProductID, &line.Quantity,
			&line.UnitPrice, &line.Subtotal, &line.ProductName)
		if err != nil {
			return nil, fmt.Errorf("scan sale line: %w", err)
		}
		if sd, ok := byID[line.SaleID]; ok {
			sd.Lines = append(sd.Lines, line)
		}
	}
	if err := lineRows.Err(); err != nil {
		return nil, fmt.Errorf("list sale lines: %w", err)
	}
	return sales, nil
}

// PostgresTx executes sale mutations against one SQL transaction. The
// transaction runner in cmd/server constructs it per unit of work.
type PostgresTx struct {
	tx *sql.Tx
}

// NewPostgresTx binds the sale mutation store to a transaction.
func NewPostgresTx(tx *sql.Tx) *PostgresTx {
	return &PostgresTx{tx: tx}
}

func (s *PostgresTx) InsertSale(ctx context.Context, customerID int64, at time.Time, total decimal.Decimal) (*models.Sale, error) {
	sale := &models.Sale{CustomerID: customerID, CreatedAt: at, Total: total}
	err := s.tx.QueryRowContext(ctx, `
		INSERT INTO sales (customer_id, created_at, total)
		VALUES ($1, $2, $3)
		RETURNING id
	`, customerID, at, total).Scan(&sale.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("insert sale: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("insert sale: %w", err)
	}
	return sale, nil
}

func (s *PostgresTx) InsertLines(ctx context.Context, saleID int64, lines []models.PricedLine) error {
	for _, line := range lines {
		_, err := s.tx.ExecContext(ctx, `
			INSERT INTO sale_lines (sale_id, product_id, quantity, unit_price, subtotal)
			VALUES ($1, $2, $3, $4, $5)
		`, saleID, line.ProductID, line.Quantity, line.UnitPrice, line.Subtotal)
		if err != nil {
			return fmt.Errorf("insert sale line for product %d: %w", line.ProductID, err)
		}
	}
	return nil
}

// DecrementStock decrements the product's quantity only when enough stock
// remains at commit time. The WHERE clause is the concurrency guard: two
// transactions racing over the same product serialize on the row lock, and
// the loser sees the already-decremented quantity. On insufficient stock it
// returns sentinel.ErrInsufficientStock along with the quantity still
// available.
func (s *PostgresTx) DecrementStock(ctx context.Context, productID, quantity int64) (int64, error) {
	res, err := s.tx.ExecContext(ctx, `
		UPDATE products
		SET quantity = quantity - $2, updated_at = now()
		WHERE id = $1 AND quantity >= $2
	`, productID, quantity)
	if err != nil {
		return 0, fmt.Errorf("decrement stock for product %d: %w", productID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("decrement stock for product %d: %w", productID, err)
	}
	if affected == 1 {
		return 0, nil
	}

	var available int64
	err = s.tx.QueryRowContext(ctx,
		`SELECT quantity FROM products WHERE id = $1`, productID).Scan(&available)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("product %d: %w", productID, sentinel.ErrNotFound)
		}
		return 0, fmt.Errorf("read stock for product %d: %w", productID, err)
	}
	return available, sentinel.ErrInsufficientStock
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}
