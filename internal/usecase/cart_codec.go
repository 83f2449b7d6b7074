package usecase

import (
	"encoding/json"
	"fmt"

	"github.com/DRSN-tech/instrument-shop/internal/domain"
	"github.com/DRSN-tech/instrument-shop/pkg/e"
	"github.com/shopspring/decimal"
)

// cartFormatVersion - версия формата CartModel.
const cartFormatVersion = 1

// EncodeCart сериализует корзину для хранения в сессии. Цена пишется строкой, без потери точности.
func EncodeCart(cart *domain.Cart) ([]byte, error) {
	model := CartModel{
		Version: cartFormatVersion,
		Items:   make([]CartItemModel, 0, len(cart.Items)),
	}
	for _, it := range cart.Items {
		model.Items = append(model.Items, CartItemModel{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price.String(),
			Quantity:  it.Quantity,
		})
	}

	return json.Marshal(model)
}

// DecodeCart восстанавливает корзину из данных сессии.
func DecodeCart(data []byte) (*domain.Cart, error) {
	var model CartModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, e.WrapKind(e.ErrInvalidCartFormat, err)
	}

	if model.Version != cartFormatVersion {
		return nil, e.WrapKind(e.ErrInvalidCartFormat, fmt.Errorf("unsupported version %d", model.Version))
	}

	items := make([]domain.CartItem, 0, len(model.Items))
	for _, it := range model.Items {
		price, err := decimal.NewFromString(it.Price)
		if err != nil {
			return nil, e.WrapKind(e.ErrInvalidCartFormat, fmt.Errorf("product %d: %w", it.ProductID, err))
		}

		items = append(items, domain.CartItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     price,
			Quantity:  it.Quantity,
		})
	}

	return domain.NewCart(items), nil
}
