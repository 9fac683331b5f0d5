package domain

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	minQuantity = decimal.NewFromInt(math.MinInt32)
	maxQuantity = decimal.NewFromInt(math.MaxInt32)
)

// ParseQuantity разбирает количество из текстового числа (JSON number).
// Дробные, нечисловые и не помещающиеся в int32 значения дают InvalidQuantityError.
// Знак не проверяется: это делают операции корзины.
func ParseQuantity(raw string) (int32, error) {
	text := strings.TrimSpace(raw)
	d, err := decimal.NewFromString(text)
	if err != nil || !d.Equal(d.Truncate(0)) || d.LessThan(minQuantity) || d.GreaterThan(maxQuantity) {
		if text == "" {
			text = `""`
		}
		return 0, &InvalidQuantityError{Raw: text}
	}
	return int32(d.IntPart()), nil
}
