package repositories

import (
	"context"
	"time"

	"github.com/finbooks/finbooks_backend/internal/core/domain"
)

// CurrencyRepository defines read operations for the currency reference table.
type CurrencyRepository interface {
	// FindCurrencyByCode retrieves a currency by its ISO code.
	FindCurrencyByCode(ctx context.Context, code string) (*domain.Currency, error)

	// ListCurrencies retrieves all supported currencies.
	ListCurrencies(ctx context.Context) ([]domain.Currency, error)
}

// ExchangeRateRepository defines operations for tenant exchange rates.
type ExchangeRateRepository interface {
	// SaveExchangeRate persists a new rate.
	SaveExchangeRate(ctx context.Context, rate domain.ExchangeRate) error

	// FindRate retrieves the latest rate effective on or before the given date
	// for a currency pair.
	FindRate(ctx context.Context, tenantID, fromCode, toCode string, on time.Time) (*domain.ExchangeRate, error)

	// ListExchangeRates lists a tenant's rates, newest effective first.
	ListExchangeRates(ctx context.Context, tenantID string) ([]domain.ExchangeRate, error)
}
