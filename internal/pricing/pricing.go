// Package pricing считает итог оформления: доставка по фиксированной ставке и налог по плоской ставке.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// DefaultShippingMinor - фиксированная стоимость доставки ($9.99).
	DefaultShippingMinor int64 = 999
	// DefaultCurrency - единственная поддерживаемая валюта.
	DefaultCurrency = "USD"
)

// DefaultTaxRate - плоская ставка налога 8%.
var DefaultTaxRate = decimal.RequireFromString("0.08")

// Summary - разбивка стоимости корзины для экрана оформления.
type Summary struct {
	SubtotalMinor int64
	ShippingMinor int64
	TaxMinor      int64
	TotalMinor    int64
	Currency      string
}

// Calculator вычисляет Summary по сумме позиций.
type Calculator struct {
	ShippingMinor int64
	TaxRate       decimal.Decimal
	Currency      string
}

// NewCalculator создаёт калькулятор со ставками по умолчанию.
func NewCalculator() Calculator {
	return Calculator{
		ShippingMinor: DefaultShippingMinor,
		TaxRate:       DefaultTaxRate,
		Currency:      DefaultCurrency,
	}
}

// Summarize возвращает разбивку. Для пустой корзины доставка и налог не начисляются.
func (c Calculator) Summarize(subtotalMinor int64) Summary {
	s := Summary{SubtotalMinor: subtotalMinor, Currency: c.currency()}
	if subtotalMinor <= 0 {
		return s
	}

	// Округление половины от нуля: 0.5 цента идёт вверх.
	s.TaxMinor = decimal.NewFromInt(subtotalMinor).Mul(c.TaxRate).Round(0).IntPart()
	s.ShippingMinor = c.ShippingMinor
	s.TotalMinor = s.SubtotalMinor + s.ShippingMinor + s.TaxMinor
	return s
}

func (c Calculator) currency() string {
	if c.Currency == "" {
		return DefaultCurrency
	}
	return c.Currency
}

// Format печатает сумму в минимальных единицах как "$79.99".
func Format(amountMinor int64, currency string) string {
	amount := decimal.New(amountMinor, -2).StringFixed(2)
	switch currency {
	case "", "USD":
		if amountMinor < 0 {
			return "-$" + amount[1:]
		}
		return "$" + amount
	default:
		return fmt.Sprintf("%s %s", amount, currency)
	}
}

// ParseRate разбирает ставку налога из конфигурации ("0.08").
func ParseRate(raw string) (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse tax rate %q: %w", raw, err)
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return decimal.Decimal{}, fmt.Errorf("tax rate %s out of range [0, 1)", rate)
	}
	return rate, nil
}
