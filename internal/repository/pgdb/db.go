package pgdb

import (
	"context"

	"github.com/DRSN-tech/instrument-shop/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/instrument-shop/pkg/tr"
	"github.com/jackc/pgx/v5"
)

// DB - минимальный набор методов пула, который нужен репозиториям.
// Ему удовлетворяют *pgxpool.Pool, pgx.Tx и pgxmock.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// querier возвращает транзакцию из контекста, если запрос идёт внутри снимка, иначе пул.
func querier(ctx context.Context, db DB) DB {
	if tx, err := tr.TxFromCtx(ctx); err == nil {
		return tx
	}
	return db
}

// CatalogStore объединяет репозитории категорий и товаров в одно хранилище каталога.
type CatalogStore struct {
	*CategoryRepo
	*ProductRepo
}

func NewCatalogStore(db DB) *CatalogStore {
	return &CatalogStore{
		CategoryRepo: NewCategoryRepo(db, &converter.CategoryConverterImpl{}),
		ProductRepo:  NewProductRepo(db, &converter.ProductConverterImpl{}),
	}
}
