package e

import "fmt"

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// 400 Bad Request
	ErrStatusBadRequest  = fmt.Errorf("bad request")
	ErrInvalidPageSize   = fmt.Errorf("page size must be positive")
	ErrInvalidPage       = fmt.Errorf("page must be an integer")
	ErrInvalidQuantity   = fmt.Errorf("quantity must be positive")
	ErrInvalidProductID  = fmt.Errorf("invalid product id")
	ErrInvalidProduct    = fmt.Errorf("invalid product")
	ErrEmptySessionID    = fmt.Errorf("session id is required")
	ErrInvalidReturnURL  = fmt.Errorf("return url must be a local path")
	ErrInvalidCartFormat = fmt.Errorf("invalid cart format")

	// 404 Not Found
	ErrProductNotFound = fmt.Errorf("product not found")

	// 409 Conflict
	ErrSessionBusy = fmt.Errorf("session is busy, try again")

	// 429 Too Many Requests
	ErrTooManyRequests = fmt.Errorf("too many requests")

	// 503 Service Unavailable
	ErrSessionStore = fmt.Errorf("session store unavailable")

	// 500 Internal Server Error
	ErrInternalServerError = fmt.Errorf("internal server error")

	// Конфигурация
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}

// WrapKind оборачивает ошибку в sentinel-категорию, сохраняя исходную цепочку.
func WrapKind(kind error, err error) error {
	return fmt.Errorf("%w: %w", kind, err)
}
