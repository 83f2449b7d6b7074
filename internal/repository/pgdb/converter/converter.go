package converter

import (
	"fmt"

	"github.com/DRSN-tech/instrument-shop/internal/domain"
	"github.com/shopspring/decimal"
)

// CategoryConverter преобразует сущности Category между domain и моделью PostgreSQL.
type CategoryConverter interface {
	ToModel(entity *domain.Category) *CategoryModel
	ToEntity(model *CategoryModel) *domain.Category
}

// ProductConverter преобразует сущности Product между domain и моделью PostgreSQL.
type ProductConverter interface {
	ToModel(entity *domain.Product) *ProductModel
	ToEntity(model *ProductModel) (*domain.Product, error)
}

type CategoryConverterImpl struct{}

func (c *CategoryConverterImpl) ToModel(entity *domain.Category) *CategoryModel {
	if entity == nil {
		return nil
	}
	return &CategoryModel{
		ID:             entity.ID,
		Name:           entity.Name,
		NormalizedName: entity.NormalizedName,
	}
}

func (c *CategoryConverterImpl) ToEntity(model *CategoryModel) *domain.Category {
	if model == nil {
		return nil
	}
	return &domain.Category{
		ID:             model.ID,
		Name:           model.Name,
		NormalizedName: model.NormalizedName,
	}
}

type ProductConverterImpl struct{}

func (c *ProductConverterImpl) ToModel(entity *domain.Product) *ProductModel {
	if entity == nil {
		return nil
	}
	return &ProductModel{
		ID:          entity.ID,
		Name:        entity.Name,
		Description: entity.Description,
		Price:       entity.Price.String(),
		CategoryID:  entity.CategoryID,
	}
}

// ToEntity разбирает цену из текстового представления numeric.
func (c *ProductConverterImpl) ToEntity(model *ProductModel) (*domain.Product, error) {
	if model == nil {
		return nil, nil
	}

	price, err := decimal.NewFromString(model.Price)
	if err != nil {
		return nil, fmt.Errorf("product %d: invalid price %q: %w", model.ID, model.Price, err)
	}

	return &domain.Product{
		ID:          model.ID,
		Name:        model.Name,
		Description: model.Description,
		Price:       price,
		CategoryID:  model.CategoryID,
	}, nil
}
