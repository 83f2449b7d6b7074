package pgdb

import (
	"context"
	"errors"
	"testing"

	"github.com/DRSN-tech/instrument-shop/pkg/e"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	categoryCols = []string{"id", "name", "normalized_name"}
	productCols  = []string{"id", "name", "description", "price", "category_id"}
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})

	return mock
}

func TestCategoryRepo_FindCategoryByNormalizedName(t *testing.T) {
	mock := newMock(t)
	store := NewCatalogStore(mock)

	mock.ExpectQuery(`FROM categories\s+WHERE normalized_name = \$1`).
		WithArgs("powerTools").
		WillReturnRows(pgxmock.NewRows(categoryCols).AddRow(int64(1), "Электроинструмент", "powerTools"))

	category, err := store.FindCategoryByNormalizedName(context.Background(), "powerTools")
	require.NoError(t, err)
	require.NotNil(t, category)
	assert.Equal(t, int64(1), category.ID)
	assert.Equal(t, "powerTools", category.NormalizedName)
}

func TestCategoryRepo_FindCategoryByNormalizedName_Missing(t *testing.T) {
	mock := newMock(t)
	store := NewCatalogStore(mock)

	mock.ExpectQuery(`FROM categories\s+WHERE normalized_name = \$1`).
		WithArgs("gardenTools").
		WillReturnError(pgx.ErrNoRows)

	category, err := store.FindCategoryByNormalizedName(context.Background(), "gardenTools")
	require.NoError(t, err)
	assert.Nil(t, category)
}

func TestCategoryRepo_ListCategories(t *testing.T) {
	mock := newMock(t)
	store := NewCatalogStore(mock)

	mock.ExpectQuery(`FROM categories\s+ORDER BY id`).
		WillReturnRows(pgxmock.NewRows(categoryCols).
			AddRow(int64(1), "Электроинструмент", "powerTools").
			AddRow(int64(2), "Ручной инструмент", "handTools"))

	categories, err := store.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "handTools", categories[1].NormalizedName)
}

func TestProductRepo_ListProducts(t *testing.T) {
	mock := newMock(t)
	store := NewCatalogStore(mock)

	mock.ExpectQuery(`FROM products\s+ORDER BY id`).
		WillReturnRows(pgxmock.NewRows(productCols).
			AddRow(int64(1), "Дрель", "", "129.90", int64(1)).
			AddRow(int64(3), "Ножовка", "", "24.50", int64(2)))

	products, err := store.ListProducts(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.True(t, decimal.RequireFromString("129.90").Equal(products[0].Price))
	assert.Equal(t, int64(2), products[1].CategoryID)
}

func TestProductRepo_ListProductsByCategory(t *testing.T) {
	mock := newMock(t)
	store := NewCatalogStore(mock)
	categoryID := int64(2)

	mock.ExpectQuery(`FROM products\s+WHERE category_id = \$1`).
		WithArgs(categoryID).
		WillReturnRows(pgxmock.NewRows(productCols).AddRow(int64(3), "Ножовка", "", "24.50", int64(2)))

	products, err := store.ListProducts(context.Background(), &categoryID)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, int64(3), products[0].ID)
}

func TestProductRepo_ListProducts_BadPrice(t *testing.T) {
	mock := newMock(t)
	store := NewCatalogStore(mock)

	mock.ExpectQuery(`FROM products\s+ORDER BY id`).
		WillReturnRows(pgxmock.NewRows(productCols).AddRow(int64(1), "Дрель", "", "n/a", int64(1)))

	_, err := store.ListProducts(context.Background(), nil)
	require.Error(t, err)
}

func TestProductRepo_FindProductByID(t *testing.T) {
	mock := newMock(t)
	store := NewCatalogStore(mock)

	mock.ExpectQuery(`FROM products\s+WHERE id = \$1`).
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows(productCols).AddRow(int64(5), "Рулетка", "5 м", "8.75", int64(3)))
	mock.ExpectQuery(`FROM products\s+WHERE id = \$1`).
		WithArgs(int64(404)).
		WillReturnError(pgx.ErrNoRows)

	product, err := store.FindProductByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "Рулетка", product.Name)

	_, err = store.FindProductByID(context.Background(), 404)
	require.ErrorIs(t, err, e.ErrProductNotFound)
}

var snapshotOpts = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

func TestSnapshotter_CommitsReadOnlySnapshot(t *testing.T) {
	mock := newMock(t)
	store := NewCatalogStore(mock)
	snap := NewSnapshotter(mock)

	mock.ExpectBeginTx(snapshotOpts)
	mock.ExpectQuery(`FROM categories\s+WHERE normalized_name = \$1`).
		WithArgs("handTools").
		WillReturnRows(pgxmock.NewRows(categoryCols).AddRow(int64(2), "Ручной инструмент", "handTools"))
	mock.ExpectQuery(`FROM products\s+WHERE category_id = \$1`).
		WithArgs(int64(2)).
		WillReturnRows(pgxmock.NewRows(productCols).AddRow(int64(3), "Ножовка", "", "24.50", int64(2)))
	mock.ExpectCommit()

	err := snap.InSnapshot(context.Background(), func(ctx context.Context) error {
		category, err := store.FindCategoryByNormalizedName(ctx, "handTools")
		if err != nil {
			return err
		}
		products, err := store.ListProducts(ctx, &category.ID)
		if err != nil {
			return err
		}
		assert.Len(t, products, 1)
		return nil
	})
	require.NoError(t, err)
}

func TestSnapshotter_RollsBackOnError(t *testing.T) {
	mock := newMock(t)
	snap := NewSnapshotter(mock)
	boom := errors.New("boom")

	mock.ExpectBeginTx(snapshotOpts)
	mock.ExpectRollback()

	err := snap.InSnapshot(context.Background(), func(ctx context.Context) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
}
