package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finbooks/finbooks_backend/internal/core/domain"
	"github.com/finbooks/finbooks_backend/internal/dto"
)

// CurrencySvcFacade reads the supported currency catalog.
type CurrencySvcFacade interface {
	GetCurrencyByCode(ctx context.Context, code string) (*domain.Currency, error)
	ListCurrencies(ctx context.Context) ([]domain.Currency, error)
}

// ExchangeRateSvcFacade manages tenant conversion rates. GetRate
// resolves the rate effective on the given date and fails when none
// has been recorded.
type ExchangeRateSvcFacade interface {
	CreateExchangeRate(ctx context.Context, tenantID string, req dto.CreateExchangeRateRequest, creatorUserID string) (*domain.ExchangeRate, error)
	ListExchangeRates(ctx context.Context, tenantID string, from string, to string) ([]domain.ExchangeRate, error)
	GetRate(ctx context.Context, tenantID string, from string, to string, on time.Time) (decimal.Decimal, error)
}
