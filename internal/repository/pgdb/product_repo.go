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

// ProductRepo реализует чтение товаров из PostgreSQL.
type ProductRepo struct {
	db   DB
	conv converter.ProductConverter
}

func NewProductRepo(db DB, conv converter.ProductConverter) *ProductRepo {
	return &ProductRepo{
		db:   db,
		conv: conv,
	}
}

// ListProducts возвращает товары категории или весь каталог при categoryID == nil.
// Порядок - по возрастанию id.
func (p *ProductRepo) ListProducts(ctx context.Context, categoryID *int64) ([]domain.Product, error) {
	var (
		rows pgx.Rows
		err  error
	)

	if categoryID == nil {
		query := `
			SELECT id, name, description, price::text, category_id
			FROM products
			ORDER BY id;
		`
		rows, err = querier(ctx, p.db).Query(ctx, query)
	} else {
		query := `
			SELECT id, name, description, price::text, category_id
			FROM products
			WHERE category_id = $1
			ORDER BY id;
		`
		rows, err = querier(ctx, p.db).Query(ctx, query, *categoryID)
	}
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.Product, 0)
	for rows.Next() {
		var model converter.ProductModel
		if err := rows.Scan(&model.ID, &model.Name, &model.Description, &model.Price, &model.CategoryID); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		product, err := p.conv.ToEntity(&model)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		result = append(result, *product)
	}
	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}

// FindProductByID возвращает товар по id или e.ErrProductNotFound.
func (p *ProductRepo) FindProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `
		SELECT id, name, description, price::text, category_id
		FROM products
		WHERE id = $1;
	`

	var model converter.ProductModel
	err := querier(ctx, p.db).QueryRow(ctx, query, id).
		Scan(&model.ID, &model.Name, &model.Description, &model.Price, &model.CategoryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	product, err := p.conv.ToEntity(&model)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return product, nil
}
