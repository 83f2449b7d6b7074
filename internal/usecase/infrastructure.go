package usecase

import "context"

// SessionLocker сериализует изменения корзины одной сессии.
type SessionLocker interface {
	// Lock блокирует сессию и возвращает функцию освобождения.
	Lock(ctx context.Context, sessionID string) (func(), error)
}

type CartEventPublisher interface {
	PublishCartEvent(ctx context.Context, event *CartEvent) error
}
