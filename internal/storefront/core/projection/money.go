package projection

import (
	"github.com/shopspring/decimal"
)

// CurrencySymbol prefixes every formatted amount.
const CurrencySymbol = "₹"

// AmountUnavailable is shown when the amount did not load. It is never "0.00".
const AmountUnavailable = "Amount unavailable"

// Money is a formatted amount that keeps "legitimately zero" apart from
// "failed to load".
type Money struct {
	Value   string `json:"value,omitempty"`
	Display string `json:"display"`
	Loaded  bool   `json:"loaded"`
}

// FormatMoney renders d with two decimals.
func FormatMoney(d decimal.Decimal) Money {
	v := d.StringFixed(2)
	return Money{Value: v, Display: CurrencySymbol + v, Loaded: true}
}

// FormatNullMoney renders an optional amount.
func FormatNullMoney(d decimal.NullDecimal) Money {
	if !d.Valid {
		return Money{Display: AmountUnavailable}
	}
	return FormatMoney(d.Decimal)
}
