package handlers

import (
	"errors"
	"strconv"

	"wallet/internal/money"
)

var errInvalidAmount = errors.New("invalid amount")

func parseAmountMinor(raw string) (int64, error) {
	amount, err := money.ParseMinor(raw)
	if err != nil || amount <= 0 {
		return 0, errInvalidAmount
	}
	return amount, nil
}

// parseBalanceMinor allows zero, for admin balance resets.
func parseBalanceMinor(raw string) (int64, error) {
	amount, err := money.ParseMinor(raw)
	if err != nil || amount < 0 {
		return 0, errInvalidAmount
	}
	return amount, nil
}

func parseInt(raw string, fallback int) int {
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
