package usecase

import (
	"time"

	"github.com/google/uuid"
)

// CATALOG USECASE

// CatalogQueryReq - запрос страницы каталога.
type CatalogQueryReq struct {
	CategoryKey string // нормализованное имя категории, пустая строка - без фильтра
	Page        int    // 1-based, значения < 1 приводятся к 1
	PageSize    *int   // nil - размер страницы по умолчанию
}

// CatalogOptions - параметры постраничной выдачи.
type CatalogOptions struct {
	DefaultPageSize int
	MaxPageSize     int
}

// CART USECASE

// AddToCartReq - запрос на добавление товара в корзину сессии.
type AddToCartReq struct {
	SessionID string
	ProductID int64
	Quantity  int
}

type RemoveFromCartReq struct {
	SessionID string
	ProductID int64
}

type DecreaseCartItemReq struct {
	SessionID string
	ProductID int64
	Quantity  int
}

// CartOptions - параметры адаптера сессионной корзины.
type CartOptions struct {
	LockTimeout time.Duration // сколько ждать блокировку сессии
}

// INFRASTRUCTURE

type CartEventType string

const (
	CartItemAdded     CartEventType = "cart.item_added"
	CartItemRemoved   CartEventType = "cart.item_removed"
	CartItemDecreased CartEventType = "cart.item_decreased"
	CartCleared       CartEventType = "cart.cleared"
)

// CartEvent - событие об изменении корзины для аналитики.
type CartEvent struct {
	EventID    string
	Type       CartEventType
	SessionID  string
	ProductID  int64
	Quantity   int
	CartItems  int
	OccurredAt time.Time
}

// STORAGE

// CartModel - сериализованное представление корзины в сессии.
type CartModel struct {
	Version int             `json:"version"`
	Items   []CartItemModel `json:"items"`
}

type CartItemModel struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
}

// MAPPERS

func NewCatalogQueryReq(categoryKey string, page int, pageSize *int) *CatalogQueryReq {
	return &CatalogQueryReq{
		CategoryKey: categoryKey,
		Page:        page,
		PageSize:    pageSize,
	}
}

func NewAddToCartReq(sessionID string, productID int64, quantity int) *AddToCartReq {
	return &AddToCartReq{
		SessionID: sessionID,
		ProductID: productID,
		Quantity:  quantity,
	}
}

func NewRemoveFromCartReq(sessionID string, productID int64) *RemoveFromCartReq {
	return &RemoveFromCartReq{
		SessionID: sessionID,
		ProductID: productID,
	}
}

func NewDecreaseCartItemReq(sessionID string, productID int64, quantity int) *DecreaseCartItemReq {
	return &DecreaseCartItemReq{
		SessionID: sessionID,
		ProductID: productID,
		Quantity:  quantity,
	}
}

func NewCartEvent(eventType CartEventType, sessionID string, productID int64, quantity int, cartItems int) *CartEvent {
	return &CartEvent{
		EventID:    uuid.NewString(),
		Type:       eventType,
		SessionID:  sessionID,
		ProductID:  productID,
		Quantity:   quantity,
		CartItems:  cartItems,
		OccurredAt: time.Now().UTC(),
	}
}
