package usecase

import (
	"cmp"
	"context"
	"slices"

	"github.com/DRSN-tech/instrument-shop/internal/domain"
	"github.com/DRSN-tech/instrument-shop/pkg/e"
	"github.com/DRSN-tech/instrument-shop/pkg/logger"
)

// DefaultPageSize - размер страницы каталога, если он не передан и не задан в конфигурации.
const DefaultPageSize = 3

// CatalogUseCase строит страницы каталога с фильтром по категории.
type CatalogUseCase struct {
	store       ProductStore
	snapshotter Snapshotter
	cache       CategoryCache
	logger      logger.Logger
	opts        CatalogOptions
}

// NewCatalogUC создаёт usecase каталога. snapshotter и cache необязательны.
func NewCatalogUC(
	store ProductStore,
	snapshotter Snapshotter,
	cache CategoryCache,
	logger logger.Logger,
	opts CatalogOptions,
) *CatalogUseCase {
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = DefaultPageSize
	}

	return &CatalogUseCase{
		store:       store,
		snapshotter: snapshotter,
		cache:       cache,
		logger:      logger,
		opts:        opts,
	}
}

// Query возвращает детерминированную страницу товаров.
// Неизвестная категория даёт пустую страницу, а не ошибку; размер страницы больше максимума урезается.
func (c *CatalogUseCase) Query(ctx context.Context, req *CatalogQueryReq) (*domain.Page[domain.Product], error) {
	const op = "CatalogUseCase.Query"

	pageSize := c.opts.DefaultPageSize
	if req.PageSize != nil {
		pageSize = *req.PageSize
	}

	if pageSize <= 0 {
		return nil, e.Wrap(op, e.ErrInvalidPageSize)
	}
	if c.opts.MaxPageSize > 0 {
		pageSize = min(pageSize, c.opts.MaxPageSize)
	}

	var products []domain.Product
	err := c.inSnapshot(ctx, func(ctx context.Context) error {
		var categoryID *int64

		if key := domain.NormalizeCategoryKey(req.CategoryKey); key != "" {
			category, err := c.findCategory(ctx, key)
			if err != nil {
				return err
			}
			if category == nil {
				c.logger.Debugf("%s: unknown category %q, returning empty page", op, key)
				return nil
			}
			categoryID = &category.ID
		}

		var err error
		products, err = c.store.ListProducts(ctx, categoryID)
		return err
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	// Хранилище уже сортирует по id, но порядок страниц не должен от этого зависеть.
	slices.SortStableFunc(products, func(a, b domain.Product) int {
		return cmp.Compare(a.ID, b.ID)
	})

	page, err := domain.NewPage(products, req.Page, pageSize)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return page, nil
}

// ListCategories возвращает все категории каталога.
func (c *CatalogUseCase) ListCategories(ctx context.Context) ([]domain.Category, error) {
	const op = "CatalogUseCase.ListCategories"

	categories, err := c.store.ListCategories(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return categories, nil
}

// findCategory ищет категорию сначала в кэше, затем в хранилище.
// Соответствие имени и категории неизменно, поэтому кэшируются только найденные категории.
func (c *CatalogUseCase) findCategory(ctx context.Context, key string) (*domain.Category, error) {
	const op = "CatalogUseCase.findCategory"

	if c.cache != nil {
		cached, err := c.cache.GetCategory(ctx, key)
		if err != nil {
			c.logger.Warnf("Category cache lookup failed: %v", e.Wrap(op, err))
		} else if cached != nil {
			return cached, nil
		}
	}

	category, err := c.store.FindCategoryByNormalizedName(ctx, key)
	if err != nil {
		return nil, err
	}

	if category != nil && c.cache != nil {
		if err := c.cache.SetCategory(ctx, category); err != nil {
			c.logger.Warnf("Failed to cache category: %v", e.Wrap(op, err))
		}
	}

	return category, nil
}

func (c *CatalogUseCase) inSnapshot(ctx context.Context, fn func(ctx context.Context) error) error {
	if c.snapshotter == nil {
		return fn(ctx)
	}
	return c.snapshotter.InSnapshot(ctx, fn)
}
