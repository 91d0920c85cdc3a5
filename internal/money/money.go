// Package money converts between decimal amount strings and int64 minor units.
// Balances and payment amounts are stored exclusively as minor units.
package money

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrTooManyDecimals = errors.New("amount has too many decimal places")
)

// ParseMinor parses a decimal string like "50000" or "123.45" into minor units.
func ParseMinor(input string) (int64, error) {
	value, err := decimal.NewFromString(input)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if value.Exponent() < -2 {
		return 0, ErrTooManyDecimals
	}
	return value.Shift(2).IntPart(), nil
}

func FormatMinor(value int64) string {
	negative := value < 0
	if negative {
		value = -value
	}
	formatted := fmt.Sprintf("%d.%02d", value/100, value%100)
	if negative {
		return "-" + formatted
	}
	return formatted
}

// ValueToInt64 coerces driver-level values (int64, []byte, string) to int64.
func ValueToInt64(value any) int64 {
	switch v := value.(type) {
	case nil:
		return 0
	case int64:
		return v
	case int32:
		return int64(v)
	case int:
		return int64(v)
	case []byte:
		parsed, _ := strconv.ParseInt(string(v), 10, 64)
		return parsed
	case string:
		parsed, _ := strconv.ParseInt(v, 10, 64)
		return parsed
	default:
		parsed, _ := strconv.ParseInt(fmt.Sprint(v), 10, 64)
		return parsed
	}
}
