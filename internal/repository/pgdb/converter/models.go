package converter

// CategoryModel представляет запись таблицы categories в PostgreSQL.
type CategoryModel struct {
	ID             int64  `db:"id"`
	Name           string `db:"name"`
	NormalizedName string `db:"normalized_name"`
}

// ProductModel представляет запись таблицы products в PostgreSQL.
// Price читается как текст (price::text), чтобы не терять точность numeric.
type ProductModel struct {
	ID          int64  `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	Price       string `db:"price"`
	CategoryID  int64  `db:"category_id"`
}
