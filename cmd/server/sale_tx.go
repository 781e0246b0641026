package main

import (
	"context"
	"database/sql"
	"time"

	salestore "tienda/internal/sale/store"
	dErrors "tienda/pkg/domain-errors"
)

const defaultSaleTxTimeout = 5 * time.Second

// salePostgresTx runs sale units of work inside a SQL transaction. Rollback
// is deferred unconditionally; it is a no-op after a successful commit.
type salePostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newSalePostgresTx(db *sql.DB) *salePostgresTx {
	return &salePostgresTx{db: db}
}

func (t *salePostgresTx) RunInTx(ctx context.Context, fn func(store salestore.TxStore) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultSaleTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(salestore.NewPostgresTx(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	return nil
}
