package converter

import "github.com/DRSN-tech/instrument-shop/internal/domain"

type CategoryConverter interface {
	ToRedisModel(entity *domain.Category) *CategoryRedisModel
	ToEntity(model *CategoryRedisModel) *domain.Category
}

type CategoryConverterImpl struct{}

func (c *CategoryConverterImpl) ToRedisModel(entity *domain.Category) *CategoryRedisModel {
	if entity == nil {
		return nil
	}
	return &CategoryRedisModel{
		ID:             entity.ID,
		Name:           entity.Name,
		NormalizedName: entity.NormalizedName,
	}
}

func (c *CategoryConverterImpl) ToEntity(model *CategoryRedisModel) *domain.Category {
	if model == nil {
		return nil
	}
	return &domain.Category{
		ID:             model.ID,
		Name:           model.Name,
		NormalizedName: model.NormalizedName,
	}
}
