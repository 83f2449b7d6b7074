package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/DRSN-tech/instrument-shop/internal/domain"
	"github.com/DRSN-tech/instrument-shop/pkg/e"
	"github.com/DRSN-tech/instrument-shop/pkg/logger"
)

const defaultLockTimeout = 5 * time.Second

// CartUseCase - адаптер между корзиной и хранилищем сессий.
// Каждое изменение - это load -> mutate -> store под блокировкой сессии,
// поэтому параллельные запросы одной сессии не теряют изменения друг друга.
type CartUseCase struct {
	store     ProductStore
	sessions  SessionStore
	locker    SessionLocker
	publisher CartEventPublisher
	logger    logger.Logger
	opts      CartOptions
}

// NewCartUC создаёт usecase корзины. publisher может быть nil.
func NewCartUC(
	store ProductStore,
	sessions SessionStore,
	locker SessionLocker,
	publisher CartEventPublisher,
	logger logger.Logger,
	opts CartOptions,
) *CartUseCase {
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = defaultLockTimeout
	}

	return &CartUseCase{
		store:     store,
		sessions:  sessions,
		locker:    locker,
		publisher: publisher,
		logger:    logger,
		opts:      opts,
	}
}

// Get возвращает корзину сессии; если её ещё нет - пустую, без записи в хранилище.
func (c *CartUseCase) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	const op = "CartUseCase.Get"

	sid, err := validateSession(sessionID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	cart, err := c.load(ctx, sid)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return cart, nil
}

// Add добавляет товар в корзину. Неизвестный товар - e.ErrProductNotFound, корзина не меняется.
func (c *CartUseCase) Add(ctx context.Context, req *AddToCartReq) (*domain.Cart, error) {
	const op = "CartUseCase.Add"

	sid, err := validateSession(req.SessionID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if req.ProductID <= 0 {
		return nil, e.Wrap(op, e.ErrInvalidProductID)
	}

	qty := req.Quantity
	if qty == 0 {
		qty = 1
	}
	if qty < 0 {
		return nil, e.Wrap(op, e.ErrInvalidQuantity)
	}

	product, err := c.store.FindProductByID(ctx, req.ProductID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	cart, err := c.mutate(ctx, sid, func(cart *domain.Cart) error {
		return cart.Add(product, qty)
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	c.publish(ctx, NewCartEvent(CartItemAdded, sid, product.ID, qty, len(cart.Items)))
	return cart, nil
}

// Remove удаляет строку товара. Отсутствующий товар - не ошибка.
func (c *CartUseCase) Remove(ctx context.Context, req *RemoveFromCartReq) (*domain.Cart, error) {
	const op = "CartUseCase.Remove"

	sid, err := validateSession(req.SessionID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	var removed bool
	cart, err := c.mutate(ctx, sid, func(cart *domain.Cart) error {
		removed = cart.Remove(req.ProductID)
		return nil
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if removed {
		c.publish(ctx, NewCartEvent(CartItemRemoved, sid, req.ProductID, 0, len(cart.Items)))
	}
	return cart, nil
}

// Decrease уменьшает количество товара; строка, дошедшая до нуля, удаляется.
func (c *CartUseCase) Decrease(ctx context.Context, req *DecreaseCartItemReq) (*domain.Cart, error) {
	const op = "CartUseCase.Decrease"

	sid, err := validateSession(req.SessionID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if req.Quantity < 1 {
		return nil, e.Wrap(op, e.ErrInvalidQuantity)
	}

	var changed bool
	cart, err := c.mutate(ctx, sid, func(cart *domain.Cart) error {
		var err error
		changed, err = cart.Decrease(req.ProductID, req.Quantity)
		return err
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if changed {
		c.publish(ctx, NewCartEvent(CartItemDecreased, sid, req.ProductID, req.Quantity, len(cart.Items)))
	}
	return cart, nil
}

// Clear очищает корзину сессии.
func (c *CartUseCase) Clear(ctx context.Context, sessionID string) (*domain.Cart, error) {
	const op = "CartUseCase.Clear"

	sid, err := validateSession(sessionID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	cart, err := c.mutate(ctx, sid, func(cart *domain.Cart) error {
		cart.Clear()
		return nil
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	c.publish(ctx, NewCartEvent(CartCleared, sid, 0, 0, 0))
	return cart, nil
}

// mutate выполняет load -> fn -> store, удерживая блокировку сессии всё это время.
// Если fn вернула ошибку, корзина в хранилище не меняется.
func (c *CartUseCase) mutate(ctx context.Context, sessionID string, fn func(cart *domain.Cart) error) (*domain.Cart, error) {
	unlock, err := c.lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	cart, err := c.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := fn(cart); err != nil {
		return nil, err
	}

	if err := c.save(ctx, sessionID, cart); err != nil {
		return nil, err
	}

	return cart, nil
}

func (c *CartUseCase) lock(ctx context.Context, sessionID string) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, c.opts.LockTimeout)
	defer cancel()

	unlock, err := c.locker.Lock(lockCtx, sessionID)
	if err != nil {
		if errors.Is(err, e.ErrSessionStore) {
			return nil, err
		}
		// Истёк только таймаут ожидания блокировки, а не сам запрос.
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, e.ErrSessionBusy
		}
		return nil, err
	}

	return unlock, nil
}

// load читает корзину сессии. Отсутствие корзины даёт пустую корзину,
// повреждённые данные логируются и тоже заменяются пустой корзиной.
func (c *CartUseCase) load(ctx context.Context, sessionID string) (*domain.Cart, error) {
	data, err := c.sessions.Get(ctx, sessionID, domain.CartSessionKey)
	if err != nil {
		return nil, e.WrapKind(e.ErrSessionStore, err)
	}

	if data == nil {
		return domain.NewCart(nil), nil
	}

	cart, err := DecodeCart(data)
	if err != nil {
		c.logger.Warnf("Discarding unreadable cart for session %s: %v", sessionID, err)
		return domain.NewCart(nil), nil
	}

	return cart, nil
}

func (c *CartUseCase) save(ctx context.Context, sessionID string, cart *domain.Cart) error {
	data, err := EncodeCart(cart)
	if err != nil {
		return err
	}

	if err := c.sessions.Set(ctx, sessionID, domain.CartSessionKey, data); err != nil {
		return e.WrapKind(e.ErrSessionStore, err)
	}

	return nil
}

// publish отправляет событие; ошибка публикации не отменяет уже сохранённое изменение.
func (c *CartUseCase) publish(ctx context.Context, event *CartEvent) {
	if c.publisher == nil {
		return
	}

	if err := c.publisher.PublishCartEvent(ctx, event); err != nil {
		c.logger.Warnf("Failed to publish cart event %s: %v", event.Type, err)
	}
}

func validateSession(sessionID string) (string, error) {
	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return "", e.ErrEmptySessionID
	}
	return sid, nil
}
