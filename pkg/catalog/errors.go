package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrMerchantNotFound is returned for an unknown merchant id.
	ErrMerchantNotFound = errors.New("merchant not found")
	// ErrMerchantUnavailable is returned when a merchant is not issuing cards.
	ErrMerchantUnavailable = errors.New("merchant unavailable")
	// ErrAmountOutOfRange is returned when an amount is outside the merchant's range.
	ErrAmountOutOfRange = errors.New("amount out of range")
	// ErrInvalidProductURL is returned for product URLs that are not absolute http(s) URLs.
	ErrInvalidProductURL = errors.New("invalid product url")
	// ErrCardNotFound is returned for an unknown gift card id.
	ErrCardNotFound = errors.New("gift card not found")
	// ErrInvalidPlatform is returned for wallet platforms other than apple and google.
	ErrInvalidPlatform = errors.New("invalid wallet platform")
)

// AmountRangeError carries the allowed range for a rejected amount.
type AmountRangeError struct {
	MerchantID string
	Amount     float64
	Min        float64
	Max        float64
	Currency   string
}

func (e *AmountRangeError) Error() string {
	return fmt.Sprintf("amount %.2f %s for %s must be between %.2f and %.2f",
		e.Amount, e.Currency, e.MerchantID, e.Min, e.Max)
}

// Is makes errors.Is(err, ErrAmountOutOfRange) match.
func (e *AmountRangeError) Is(target error) bool {
	return target == ErrAmountOutOfRange
}
