package domain

import (
	"slices"

	"github.com/DRSN-tech/instrument-shop/pkg/e"
	"github.com/shopspring/decimal"
)

// CartSessionKey - ключ, под которым корзина лежит в сессии.
const CartSessionKey = "cart"

// CartItem - строка корзины. Name и Price - снимок товара на момент добавления.
type CartItem struct {
	ProductID int64
	Name      string
	Price     decimal.Decimal
	Quantity  int
}

// Subtotal возвращает Price * Quantity.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart - корзина одной сессии. Строки хранятся в порядке добавления.
// Инварианты: каждый ProductID встречается не больше одного раза, Quantity >= 1.
type Cart struct {
	Items []CartItem
}

// NewCart собирает корзину из сохранённых строк. Дубликаты сливаются в первую строку,
// строки с Quantity < 1 отбрасываются.
func NewCart(items []CartItem) *Cart {
	c := &Cart{Items: make([]CartItem, 0, len(items))}
	for _, it := range items {
		if it.Quantity < 1 {
			continue
		}
		if idx := c.indexOf(it.ProductID); idx >= 0 {
			c.Items[idx].Quantity += it.Quantity
			continue
		}
		c.Items = append(c.Items, it)
	}

	return c
}

// Add увеличивает количество товара в корзине или добавляет новую строку со снимком имени и цены.
// Цена уже лежащей строки не меняется, даже если в каталоге она изменилась.
func (c *Cart) Add(product *Product, qty int) error {
	if product == nil || product.ID <= 0 {
		return e.ErrInvalidProduct
	}
	if qty < 1 {
		return e.ErrInvalidQuantity
	}

	if idx := c.indexOf(product.ID); idx >= 0 {
		c.Items[idx].Quantity += qty
		return nil
	}

	c.Items = append(c.Items, CartItem{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Quantity:  qty,
	})

	return nil
}

// Remove удаляет строку товара. Отсутствующий товар - не ошибка; возвращает, была ли строка удалена.
func (c *Cart) Remove(productID int64) bool {
	idx := c.indexOf(productID)
	if idx < 0 {
		return false
	}

	c.Items = slices.Delete(c.Items, idx, idx+1)
	return true
}

// Decrease уменьшает количество товара на qty; строка, дошедшая до нуля, удаляется.
// Возвращает false, если товара в корзине не было.
func (c *Cart) Decrease(productID int64, qty int) (bool, error) {
	if qty < 1 {
		return false, e.ErrInvalidQuantity
	}

	idx := c.indexOf(productID)
	if idx < 0 {
		return false, nil
	}

	if c.Items[idx].Quantity <= qty {
		c.Items = slices.Delete(c.Items, idx, idx+1)
		return true, nil
	}

	c.Items[idx].Quantity -= qty
	return true, nil
}

// Clear очищает корзину.
func (c *Cart) Clear() {
	c.Items = c.Items[:0]
}

// Item возвращает строку товара, если она есть.
func (c *Cart) Item(productID int64) (CartItem, bool) {
	idx := c.indexOf(productID)
	if idx < 0 {
		return CartItem{}, false
	}
	return c.Items[idx], true
}

// Total пересчитывается при каждом чтении и не хранится.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// Count возвращает суммарное количество единиц товара.
func (c *Cart) Count() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *Cart) indexOf(productID int64) int {
	return slices.IndexFunc(c.Items, func(it CartItem) bool {
		return it.ProductID == productID
	})
}
