package http

import (
	"github.com/DRSN-tech/instrument-shop/internal/domain"
)

type InstrumentDTO struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	CategoryID  int64  `json:"categoryId"`
}

type PageDTO struct {
	Items       []InstrumentDTO `json:"items"`
	CurrentPage int             `json:"currentPage"`
	TotalPages  int             `json:"totalPages"`
	TotalItems  int             `json:"totalItems"`
	PageSize    int             `json:"pageSize"`
}

type CategoryDTO struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	NormalizedName string `json:"normalizedName"`
}

type CartItemDTO struct {
	ProductID int64  `json:"productId"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
	Subtotal  string `json:"subtotal"`
}

type CartDTO struct {
	Items         []CartItemDTO `json:"items"`
	TotalQuantity int           `json:"totalQuantity"`
	Total         string        `json:"total"`
}

// addToCartRequest - параметры POST /cart/add/{id}.
type addToCartRequest struct {
	ProductID int64  `validate:"gt=0"`
	Quantity  int    `validate:"gte=0,lte=1000"` // 0 - количество по умолчанию (1)
	ReturnURL string `validate:"omitempty,max=2048"`
}

type decreaseCartItemRequest struct {
	ProductID int64 `validate:"gt=0"`
	Quantity  int   `validate:"gte=1,lte=1000"`
}

// MAPPERS

func toPageDTO(page *domain.Page[domain.Product]) *PageDTO {
	items := make([]InstrumentDTO, 0, len(page.Items))
	for _, p := range page.Items {
		items = append(items, InstrumentDTO{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price.StringFixed(2),
			CategoryID:  p.CategoryID,
		})
	}

	return &PageDTO{
		Items:       items,
		CurrentPage: page.CurrentPage,
		TotalPages:  page.TotalPages,
		TotalItems:  page.TotalItems,
		PageSize:    page.PageSize,
	}
}

func toCategoryDTOs(categories []domain.Category) []CategoryDTO {
	res := make([]CategoryDTO, 0, len(categories))
	for _, c := range categories {
		res = append(res, CategoryDTO{
			ID:             c.ID,
			Name:           c.Name,
			NormalizedName: c.NormalizedName,
		})
	}
	return res
}

func toCartDTO(cart *domain.Cart) *CartDTO {
	items := make([]CartItemDTO, 0, len(cart.Items))
	for _, it := range cart.Items {
		items = append(items, CartItemDTO{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price.StringFixed(2),
			Quantity:  it.Quantity,
			Subtotal:  it.Subtotal().StringFixed(2),
		})
	}

	return &CartDTO{
		Items:         items,
		TotalQuantity: cart.Count(),
		Total:         cart.Total().StringFixed(2),
	}
}
