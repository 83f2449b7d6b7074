package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DRSN-tech/instrument-shop/internal/domain"
	"github.com/DRSN-tech/instrument-shop/internal/repository/memory"
	"github.com/DRSN-tech/instrument-shop/internal/usecase"
	"github.com/DRSN-tech/instrument-shop/pkg/e"
	"github.com/DRSN-tech/instrument-shop/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fiveProducts() *memory.ProductRepo {
	categories := []domain.Category{
		{ID: 1, Name: "Power", NormalizedName: "powerTools"},
		{ID: 2, Name: "Hand", NormalizedName: "handTools"},
	}
	// Намеренно не по порядку: выдача должна быть упорядочена по id.
	products := []domain.Product{
		{ID: 4, Name: "p4", Price: decimal.NewFromInt(4), CategoryID: 2},
		{ID: 1, Name: "p1", Price: decimal.NewFromInt(1), CategoryID: 1},
		{ID: 5, Name: "p5", Price: decimal.NewFromInt(5), CategoryID: 1},
		{ID: 3, Name: "p3", Price: decimal.NewFromInt(3), CategoryID: 1},
		{ID: 2, Name: "p2", Price: decimal.NewFromInt(2), CategoryID: 2},
	}
	return memory.NewProductRepo(categories, products)
}

func newCatalog(store usecase.ProductStore, cache usecase.CategoryCache) *usecase.CatalogUseCase {
	return usecase.NewCatalogUC(store, nil, cache, logger.NewNop(), usecase.CatalogOptions{MaxPageSize: 100})
}

func ids(products []domain.Product) []int64 {
	res := make([]int64, 0, len(products))
	for _, p := range products {
		res = append(res, p.ID)
	}
	return res
}

func intPtr(v int) *int { return &v }

func TestCatalogQuery_Pagination(t *testing.T) {
	uc := newCatalog(fiveProducts(), nil)
	ctx := context.Background()

	tests := []struct {
		name      string
		page      int
		pageSize  *int
		wantIDs   []int64
		wantPage  int
		wantPages int
		wantSize  int
	}{
		{name: "size 2 gives 3 pages", page: 1, pageSize: intPtr(2), wantIDs: []int64{1, 2}, wantPage: 1, wantPages: 3, wantSize: 2},
		{name: "last partial page", page: 3, pageSize: intPtr(2), wantIDs: []int64{5}, wantPage: 3, wantPages: 3, wantSize: 2},
		{name: "size 3 page 2", page: 2, pageSize: intPtr(3), wantIDs: []int64{4, 5}, wantPage: 2, wantPages: 2, wantSize: 3},
		{name: "default size is 3", page: 1, pageSize: nil, wantIDs: []int64{1, 2, 3}, wantPage: 1, wantPages: 2, wantSize: 3},
		{name: "page above range is clamped", page: 10, pageSize: intPtr(2), wantIDs: []int64{5}, wantPage: 3, wantPages: 3, wantSize: 2},
		{name: "page zero becomes first", page: 0, pageSize: intPtr(2), wantIDs: []int64{1, 2}, wantPage: 1, wantPages: 3, wantSize: 2},
		{name: "negative page becomes first", page: -4, pageSize: intPtr(5), wantIDs: []int64{1, 2, 3, 4, 5}, wantPage: 1, wantPages: 1, wantSize: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := uc.Query(ctx, usecase.NewCatalogQueryReq("", tt.page, tt.pageSize))
			require.NoError(t, err)

			assert.Equal(t, tt.wantIDs, ids(page.Items))
			assert.Equal(t, tt.wantPage, page.CurrentPage)
			assert.Equal(t, tt.wantPages, page.TotalPages)
			assert.Equal(t, 5, page.TotalItems)
			assert.Equal(t, tt.wantSize, page.PageSize)
		})
	}
}

func TestCatalogQuery_CategoryFilter(t *testing.T) {
	uc := newCatalog(fiveProducts(), nil)
	ctx := context.Background()

	page, err := uc.Query(ctx, usecase.NewCatalogQueryReq("powerTools", 1, intPtr(2)))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, ids(page.Items))
	assert.Equal(t, 3, page.TotalItems)
	assert.Equal(t, 2, page.TotalPages)

	page, err = uc.Query(ctx, usecase.NewCatalogQueryReq("  handTools ", 1, nil))
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 4}, ids(page.Items))
}

func TestCatalogQuery_UnknownCategoryIsEmptyPage(t *testing.T) {
	uc := newCatalog(fiveProducts(), nil)

	page, err := uc.Query(context.Background(), usecase.NewCatalogQueryReq("gardenTools", 3, nil))
	require.NoError(t, err)

	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.Equal(t, 0, page.TotalItems)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, 1, page.CurrentPage)
}

func TestCatalogQuery_InvalidPageSize(t *testing.T) {
	uc := newCatalog(fiveProducts(), nil)
	ctx := context.Background()

	_, err := uc.Query(ctx, usecase.NewCatalogQueryReq("", 1, intPtr(0)))
	require.ErrorIs(t, err, e.ErrInvalidPageSize)

	_, err = uc.Query(ctx, usecase.NewCatalogQueryReq("", 1, intPtr(-1)))
	require.ErrorIs(t, err, e.ErrInvalidPageSize)
}

func TestCatalogQuery_PageSizeClampedToMax(t *testing.T) {
	uc := newCatalog(fiveProducts(), nil)

	page, err := uc.Query(context.Background(), usecase.NewCatalogQueryReq("", 1, intPtr(101)))
	require.NoError(t, err)
	assert.Equal(t, 100, page.PageSize)
	assert.Len(t, page.Items, 5)
	assert.Equal(t, 1, page.TotalPages)
}

func TestCatalogQuery_Deterministic(t *testing.T) {
	uc := newCatalog(fiveProducts(), nil)
	ctx := context.Background()

	first, err := uc.Query(ctx, usecase.NewCatalogQueryReq("", 2, intPtr(2)))
	require.NoError(t, err)
	second, err := uc.Query(ctx, usecase.NewCatalogQueryReq("", 2, intPtr(2)))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

type countingCache struct {
	data map[string]domain.Category
	gets int
	sets int
	err  error
}

func (c *countingCache) GetCategory(_ context.Context, name string) (*domain.Category, error) {
	c.gets++
	if c.err != nil {
		return nil, c.err
	}
	cat, ok := c.data[name]
	if !ok {
		return nil, nil
	}
	return &cat, nil
}

func (c *countingCache) SetCategory(_ context.Context, category *domain.Category) error {
	c.sets++
	if c.err != nil {
		return c.err
	}
	c.data[category.NormalizedName] = *category
	return nil
}

func TestCatalogQuery_CachesKnownCategories(t *testing.T) {
	cache := &countingCache{data: map[string]domain.Category{}}
	uc := newCatalog(fiveProducts(), cache)
	ctx := context.Background()

	for range 3 {
		page, err := uc.Query(ctx, usecase.NewCatalogQueryReq("handTools", 1, nil))
		require.NoError(t, err)
		assert.Equal(t, []int64{2, 4}, ids(page.Items))
	}
	assert.Equal(t, 3, cache.gets)
	assert.Equal(t, 1, cache.sets)

	_, err := uc.Query(ctx, usecase.NewCatalogQueryReq("unknown", 1, nil))
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)
}

func TestCatalogQuery_CacheFailureFallsBackToStore(t *testing.T) {
	cache := &countingCache{data: map[string]domain.Category{}, err: errors.New("redis down")}
	uc := newCatalog(fiveProducts(), cache)

	page, err := uc.Query(context.Background(), usecase.NewCatalogQueryReq("powerTools", 1, intPtr(10)))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 5}, ids(page.Items))
}

type recordingSnapshotter struct {
	calls int
}

func (s *recordingSnapshotter) InSnapshot(ctx context.Context, fn func(ctx context.Context) error) error {
	s.calls++
	return fn(ctx)
}

func TestCatalogQuery_RunsInSnapshot(t *testing.T) {
	snap := &recordingSnapshotter{}
	uc := usecase.NewCatalogUC(fiveProducts(), snap, nil, logger.NewNop(), usecase.CatalogOptions{})

	_, err := uc.Query(context.Background(), usecase.NewCatalogQueryReq("powerTools", 1, nil))
	require.NoError(t, err)
	assert.Equal(t, 1, snap.calls)
}

func TestCatalogListCategories(t *testing.T) {
	uc := newCatalog(memory.NewSeededProductRepo(), nil)

	categories, err := uc.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 4)
	assert.Equal(t, "powerTools", categories[0].NormalizedName)
}
