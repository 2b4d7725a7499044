package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateExchangeRateRequest records a conversion rate effective from
// the given date until a newer rate supersedes it.
type CreateExchangeRateRequest struct {
	FromCurrencyCode string          `json:"fromCurrencyCode" binding:"required,len=3"`
	ToCurrencyCode   string          `json:"toCurrencyCode" binding:"required,len=3"`
	Rate             decimal.Decimal `json:"rate" binding:"required,gt=0"`
	DateEffective    time.Time       `json:"dateEffective" binding:"required"`
}
