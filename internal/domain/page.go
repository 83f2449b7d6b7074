package domain

import "github.com/DRSN-tech/instrument-shop/pkg/e"

// Page - вычисляемая страница упорядоченного набора, не хранится.
type Page[T any] struct {
	Items       []T
	CurrentPage int // нумерация с 1
	TotalPages  int // не меньше 1, даже для пустого набора
	TotalItems  int
	PageSize    int
}

// NewPage нарезает уже упорядоченный набор all на страницы размера pageSize.
// Номер страницы вне диапазона [1, TotalPages] прижимается к ближайшей границе.
func NewPage[T any](all []T, page int, pageSize int) (*Page[T], error) {
	if pageSize <= 0 {
		return nil, e.ErrInvalidPageSize
	}

	total := len(all)
	totalPages := TotalPages(total, pageSize)

	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := min(start+pageSize, total)

	items := make([]T, 0, max(end-start, 0))
	if start < end {
		items = append(items, all[start:end]...)
	}

	return &Page[T]{
		Items:       items,
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalItems:  total,
		PageSize:    pageSize,
	}, nil
}

// TotalPages возвращает max(1, ceil(total/pageSize)). pageSize должен быть положительным.
func TotalPages(total int, pageSize int) int {
	pages := (total + pageSize - 1) / pageSize
	if pages < 1 {
		return 1
	}
	return pages
}
