package usecase

import (
	"context"

	"github.com/DRSN-tech/instrument-shop/internal/domain"
)

// ProductStore - read-only доступ к каталогу.
type ProductStore interface {
	// FindCategoryByNormalizedName возвращает (nil, nil), если категории нет.
	FindCategoryByNormalizedName(ctx context.Context, name string) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	// ListProducts возвращает товары категории (или все при categoryID == nil), упорядоченные по id.
	ListProducts(ctx context.Context, categoryID *int64) ([]domain.Product, error)
	// FindProductByID возвращает e.ErrProductNotFound, если товара нет.
	FindProductByID(ctx context.Context, id int64) (*domain.Product, error)
}

// Snapshotter выполняет fn на одном согласованном снимке хранилища.
type Snapshotter interface {
	InSnapshot(ctx context.Context, fn func(ctx context.Context) error) error
}

// SessionStore - key-value хранилище данных сессии.
type SessionStore interface {
	// Get возвращает (nil, nil), если значения нет.
	Get(ctx context.Context, sessionID string, key string) ([]byte, error)
	Set(ctx context.Context, sessionID string, key string, data []byte) error
}

// CategoryCache кэширует соответствие нормализованного имени и категории.
type CategoryCache interface {
	// GetCategory возвращает (nil, nil) при промахе.
	GetCategory(ctx context.Context, normalizedName string) (*domain.Category, error)
	SetCategory(ctx context.Context, category *domain.Category) error
}
