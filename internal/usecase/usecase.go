package usecase

import (
	"context"

	"github.com/DRSN-tech/instrument-shop/internal/domain"
)

type CatalogUC interface {
	Query(ctx context.Context, req *CatalogQueryReq) (*domain.Page[domain.Product], error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

type CartUC interface {
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)
	Add(ctx context.Context, req *AddToCartReq) (*domain.Cart, error)
	Remove(ctx context.Context, req *RemoveFromCartReq) (*domain.Cart, error)
	Decrease(ctx context.Context, req *DecreaseCartItemReq) (*domain.Cart, error)
	Clear(ctx context.Context, sessionID string) (*domain.Cart, error)
}
