package converter

// CategoryRedisModel - категория в кэше, ключ category:<normalized_name>.
type CategoryRedisModel struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	NormalizedName string `json:"normalized_name"`
}
