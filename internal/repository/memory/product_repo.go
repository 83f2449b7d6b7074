package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/DRSN-tech/instrument-shop/internal/domain"
	"github.com/DRSN-tech/instrument-shop/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/shopspring/decimal"
)

// ProductRepo - каталог в памяти процесса. Используется при STORAGE=memory и в тестах.
type ProductRepo struct {
	mu         sync.RWMutex
	categories []domain.Category
	products   []domain.Product
}

// NewProductRepo создаёт каталог из готовых данных. Идентификаторы должны быть уже проставлены.
func NewProductRepo(categories []domain.Category, products []domain.Product) *ProductRepo {
	r := &ProductRepo{
		categories: slices.Clone(categories),
		products:   slices.Clone(products),
	}

	slices.SortFunc(r.categories, func(a, b domain.Category) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(r.products, func(a, b domain.Product) int { return cmp.Compare(a.ID, b.ID) })

	return r
}

// NewSeededProductRepo возвращает каталог с теми же данными, что и миграция 000002_seed.
func NewSeededProductRepo() *ProductRepo {
	return NewProductRepo(SeedCategories(), SeedProducts())
}

func (r *ProductRepo) FindCategoryByNormalizedName(ctx context.Context, name string) (*domain.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.categories {
		if c.NormalizedName == name {
			category := c
			return &category, nil
		}
	}

	return nil, nil
}

func (r *ProductRepo) ListCategories(ctx context.Context) ([]domain.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.categories), nil
}

func (r *ProductRepo) ListProducts(ctx context.Context, categoryID *int64) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	res := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		if categoryID != nil && p.CategoryID != *categoryID {
			continue
		}
		res = append(res, p)
	}

	return res, nil
}

func (r *ProductRepo) FindProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, found := slices.BinarySearchFunc(r.products, id, func(p domain.Product, id int64) int {
		return cmp.Compare(p.ID, id)
	})
	if !found {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
	}

	product := r.products[idx]
	return &product, nil
}

// SeedCategories - стартовые категории магазина.
func SeedCategories() []domain.Category {
	return []domain.Category{
		{ID: 1, Name: "Электроинструмент", NormalizedName: "powerTools"},
		{ID: 2, Name: "Ручной инструмент", NormalizedName: "handTools"},
		{ID: 3, Name: "Измерительный инструмент", NormalizedName: "measuringTools"},
		{ID: 4, Name: "Хозяйственный инвентарь", NormalizedName: "householdTools"},
	}
}

// SeedProducts - стартовый ассортимент.
func SeedProducts() []domain.Product {
	return []domain.Product{
		{ID: 1, Name: "Дрель ударная", Description: "Ударная дрель 750 Вт", Price: decimal.RequireFromString("129.90"), CategoryID: 1},
		{ID: 2, Name: "Шуруповёрт", Description: "Аккумуляторный шуруповёрт 18 В", Price: decimal.RequireFromString("159.00"), CategoryID: 1},
		{ID: 3, Name: "Ножовка", Description: "Ножовка по дереву 450 мм", Price: decimal.RequireFromString("24.50"), CategoryID: 2},
		{ID: 4, Name: "Молоток", Description: "Слесарный молоток 500 г", Price: decimal.RequireFromString("12.00"), CategoryID: 2},
		{ID: 5, Name: "Рулетка", Description: "Рулетка 5 м", Price: decimal.RequireFromString("8.75"), CategoryID: 3},
		{ID: 6, Name: "Уровень", Description: "Строительный уровень 60 см", Price: decimal.RequireFromString("19.90"), CategoryID: 3},
		{ID: 7, Name: "Стремянка", Description: "Алюминиевая стремянка, 5 ступеней", Price: decimal.RequireFromString("89.00"), CategoryID: 4},
		{ID: 8, Name: "Тачка садовая", Description: "Одноколёсная тачка 100 л", Price: decimal.RequireFromString("74.30"), CategoryID: 4},
	}
}
