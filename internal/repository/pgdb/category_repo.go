package pgdb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/instrument-shop/internal/domain"
	"github.com/DRSN-tech/instrument-shop/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/instrument-shop/pkg/e"
	"github.com/jackc/pgx/v5"
	"github.com/jimlawless/whereami"
)

// CategoryRepo реализует чтение категорий из PostgreSQL.
type CategoryRepo struct {
	db   DB
	conv converter.CategoryConverter
}

func NewCategoryRepo(db DB, conv converter.CategoryConverter) *CategoryRepo {
	return &CategoryRepo{db: db, conv: conv}
}

// FindCategoryByNormalizedName ищет категорию по уникальному normalized_name.
// Возвращает (nil, nil), если категории нет.
func (c *CategoryRepo) FindCategoryByNormalizedName(ctx context.Context, name string) (*domain.Category, error) {
	query := `
		SELECT id, name, normalized_name
		FROM categories
		WHERE normalized_name = $1;
	`

	var model converter.CategoryModel
	err := querier(ctx, c.db).QueryRow(ctx, query, name).
		Scan(&model.ID, &model.Name, &model.NormalizedName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return c.conv.ToEntity(&model), nil
}

// ListCategories возвращает все категории по возрастанию id.
func (c *CategoryRepo) ListCategories(ctx context.Context) ([]domain.Category, error) {
	query := `
		SELECT id, name, normalized_name
		FROM categories
		ORDER BY id;
	`

	rows, err := querier(ctx, c.db).Query(ctx, query)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.Category, 0)
	for rows.Next() {
		var model converter.CategoryModel
		if err := rows.Scan(&model.ID, &model.Name, &model.NormalizedName); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		result = append(result, *c.conv.ToEntity(&model))
	}
	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}
