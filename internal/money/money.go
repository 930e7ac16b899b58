// Package money normalizes user-supplied monetary amounts and renders them
// in Colombian peso format ($1.500,50).
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when an amount string is not a positive number.
var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount parses a user-typed monetary string into a 2-decimal amount.
// The comma decimal separator is accepted ("20,50" == "20.50"). Zero and
// negative values are rejected.
func ParseAmount(raw string) (decimal.Decimal, error) {
	normalized := strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))

	amount, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	if amount.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}
	return amount.Round(2), nil
}

// FormatCurrency renders an amount in COP display format: dot for thousands,
// comma for decimals, "$" prefix, sign only when negative.
func FormatCurrency(amount decimal.Decimal) string {
	quantized := amount.Round(2)

	negative := quantized.Sign() < 0
	if negative {
		quantized = quantized.Neg()
	}

	s := quantized.StringFixed(2)
	intPart, decPart, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(digit)
	}

	sign := ""
	if negative {
		sign = "-"
	}
	return fmt.Sprintf("%s$%s,%s", sign, b.String(), decPart)
}

// FormatAny renders an arbitrary value as currency for display. Values that
// are not numeric, and nil, fall back to $0,00 rather than failing; display
// paths must never crash on a missing value.
func FormatAny(v any) string {
	return FormatCurrency(coerceDecimal(v))
}

// IsNumeric reports whether v can be interpreted as a number for display.
func IsNumeric(v any) bool {
	if v == nil {
		return false
	}
	switch val := v.(type) {
	case int, int32, int64, float32, float64, decimal.Decimal:
		return true
	case string:
		_, err := decimal.NewFromString(strings.TrimSpace(val))
		return err == nil
	default:
		return false
	}
}

func coerceDecimal(v any) decimal.Decimal {
	switch val := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return val
	case int:
		return decimal.NewFromInt(int64(val))
	case int32:
		return decimal.NewFromInt(int64(val))
	case int64:
		return decimal.NewFromInt(val)
	case float32:
		return decimal.NewFromFloat(float64(val))
	case float64:
		return decimal.NewFromFloat(val)
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(val))
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}
