package domain

import "github.com/shopspring/decimal"

// Product описывает инструмент в каталоге. Ядро его только читает.
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	CategoryID  int64
}

func NewProduct(name string, description string, price decimal.Decimal, categoryID int64) *Product {
	return &Product{
		Name:        name,
		Description: description,
		Price:       price,
		CategoryID:  categoryID,
	}
}
