package domain

import (
	"errors"
	"time"
)

var (
	// ErrCartVisitorRequired - корзина без владельца.
	ErrCartVisitorRequired = errors.New("cart visitor_id is required")
	// ErrCartDuplicateLine - одна позиция встречается в корзине дважды.
	ErrCartDuplicateLine = errors.New("cart contains duplicate product line")
	// ErrCartTotalMismatch - итог корзины не совпадает с суммой позиций.
	ErrCartTotalMismatch = errors.New("cart total does not match items sum")
	// ErrItemQtyInvalid - количество в позиции должно быть больше нуля.
	ErrItemQtyInvalid = errors.New("item qty must be greater than zero")
	// ErrItemPriceInvalid - цена позиции не может быть отрицательной.
	ErrItemPriceInvalid = errors.New("item price must be non-negative")
)

// CartItem - строка корзины со снимком имени и цены на момент добавления.
type CartItem struct {
	ProductID  ProductID
	Name       string
	PriceMinor int64
	Qty        int32
}

// LineTotal возвращает стоимость строки.
func (i CartItem) LineTotal() int64 { return int64(i.Qty) * i.PriceMinor }

// Cart - корзина покупателя. TotalMinor всегда выводится из Items.
type Cart struct {
	ID         CartID
	VisitorID  VisitorID
	Items      []CartItem
	TotalMinor int64
	// Version - счётчик оптимистичной блокировки, увеличивается хранилищем при каждом сохранении.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewCart создаёт пустую корзину для покупателя.
func NewCart(visitorID VisitorID, now time.Time) Cart {
	return Cart{
		ID:        NewCartID(),
		VisitorID: visitorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Line возвращает строку корзины по товару.
func (c *Cart) Line(productID ProductID) (CartItem, bool) {
	if idx := c.indexOf(productID); idx >= 0 {
		return c.Items[idx], true
	}
	return CartItem{}, false
}

// MergeLine добавляет позицию или увеличивает количество существующей.
// Снимок цены и имени существующей строки не меняется.
func (c *Cart) MergeLine(item CartItem) {
	if idx := c.indexOf(item.ProductID); idx >= 0 {
		c.Items[idx].Qty += item.Qty
	} else {
		c.Items = append(c.Items, item)
	}
	c.Recalculate()
}

// SetQty заменяет количество в строке; qty == 0 удаляет строку.
// Возвращает false, если строки нет.
func (c *Cart) SetQty(productID ProductID, qty int32) bool {
	idx := c.indexOf(productID)
	if idx < 0 {
		return false
	}
	if qty == 0 {
		c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	} else {
		c.Items[idx].Qty = qty
	}
	c.Recalculate()
	return true
}

// RemoveLine удаляет строку, отсутствие строки не считается ошибкой.
func (c *Cart) RemoveLine(productID ProductID) {
	c.SetQty(productID, 0)
}

// Clear очищает корзину.
func (c *Cart) Clear() {
	c.Items = nil
	c.Recalculate()
}

// IsEmpty сообщает, что в корзине нет позиций.
func (c *Cart) IsEmpty() bool { return len(c.Items) == 0 }

// Recalculate пересчитывает итог как сумму price*qty по всем строкам.
func (c *Cart) Recalculate() {
	var total int64
	for _, item := range c.Items {
		total += item.LineTotal()
	}
	c.TotalMinor = total
}

// Clone возвращает глубокую копию корзины.
func (c Cart) Clone() Cart {
	if c.Items != nil {
		c.Items = append([]CartItem(nil), c.Items...)
	}
	return c
}

// ValidateInvariants проверяет инварианты корзины и возвращает список замечаний.
func (c *Cart) ValidateInvariants() []error {
	var errs []error

	if c.VisitorID == "" {
		errs = append(errs, ErrCartVisitorRequired)
	}

	seen := make(map[ProductID]struct{}, len(c.Items))
	var calc int64
	for _, item := range c.Items {
		if _, dup := seen[item.ProductID]; dup {
			errs = append(errs, ErrCartDuplicateLine)
		}
		seen[item.ProductID] = struct{}{}
		if item.Qty <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.PriceMinor < 0 {
			errs = append(errs, ErrItemPriceInvalid)
		}
		calc += item.LineTotal()
	}
	if calc != c.TotalMinor {
		errs = append(errs, ErrCartTotalMismatch)
	}

	return errs
}

func (c *Cart) indexOf(productID ProductID) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}
