package domain

import "strings"

// Category описывает категорию инструментов.
// NormalizedName уникален, не меняется после создания и используется как внешний ключ фильтра.
type Category struct {
	ID             int64
	Name           string
	NormalizedName string
}

func NewCategory(name string, normalizedName string) *Category {
	return &Category{
		Name:           name,
		NormalizedName: normalizedName,
	}
}

// NormalizeCategoryKey приводит ключ фильтра из запроса к виду, в котором он хранится.
func NormalizeCategoryKey(key string) string {
	return strings.TrimSpace(key)
}
