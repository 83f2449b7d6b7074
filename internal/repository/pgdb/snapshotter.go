package pgdb

import (
	"context"

	"github.com/DRSN-tech/instrument-shop/pkg/e"
	"github.com/DRSN-tech/instrument-shop/pkg/tr"
	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
)

// Snapshotter выполняет чтения каталога в одной read-only транзакции repeatable read,
// чтобы фильтр по категории и список товаров видели одно и то же состояние базы.
type Snapshotter struct {
	db transaction.Transactional
}

func NewSnapshotter(db transaction.Transactional) *Snapshotter {
	return &Snapshotter{db: db}
}

func (s *Snapshotter) InSnapshot(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	const op = "Snapshotter.InSnapshot"

	opts := pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	}

	ctx, tx, err := transaction.NewTransaction(ctx, opts, s.db)
	if err != nil {
		return e.Wrap(op, err)
	}
	defer func() {
		if err != nil && tx.IsActive() {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(tr.WithTx(ctx, tx.Transaction())); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}
