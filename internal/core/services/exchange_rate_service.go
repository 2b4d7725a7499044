package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finbooks/finbooks_backend/internal/apperrors"
	"github.com/finbooks/finbooks_backend/internal/core/domain"
	portsrepo "github.com/finbooks/finbooks_backend/internal/core/ports/repositories"
	portssvc "github.com/finbooks/finbooks_backend/internal/core/ports/services"
	"github.com/finbooks/finbooks_backend/internal/dto"
	"github.com/finbooks/finbooks_backend/internal/middleware"
)

// exchangeRateService manages tenant conversion rates.
type exchangeRateService struct {
	exchangeRateRepo portsrepo.ExchangeRateRepository
	currencySvc      portssvc.CurrencySvcFacade
	auditRecorder    portssvc.AuditRecorder
}

// NewExchangeRateService creates a new ExchangeRateService.
func NewExchangeRateService(exchangeRateRepo portsrepo.ExchangeRateRepository, currencySvc portssvc.CurrencySvcFacade, auditRecorder portssvc.AuditRecorder) portssvc.ExchangeRateSvcFacade {
	return &exchangeRateService{
		exchangeRateRepo: exchangeRateRepo,
		currencySvc:      currencySvc,
		auditRecorder:    auditRecorder,
	}
}

var _ portssvc.ExchangeRateSvcFacade = (*exchangeRateService)(nil)

// CreateExchangeRate records a conversion rate effective from the given date.
func (s *exchangeRateService) CreateExchangeRate(ctx context.Context, tenantID string, req dto.CreateExchangeRateRequest, creatorUserID string) (*domain.ExchangeRate, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	start := time.Now()

	if req.FromCurrencyCode == req.ToCurrencyCode {
		return nil, fmt.Errorf("%w: source and target currency are the same", apperrors.ErrValidation)
	}
	if !req.Rate.IsPositive() {
		return nil, fmt.Errorf("%w: exchange rate must be positive", apperrors.ErrValidation)
	}
	if _, err := s.currencySvc.GetCurrencyByCode(ctx, req.FromCurrencyCode); err != nil {
		return nil, fmt.Errorf("%w: unknown currency %s", apperrors.ErrValidation, req.FromCurrencyCode)
	}
	if _, err := s.currencySvc.GetCurrencyByCode(ctx, req.ToCurrencyCode); err != nil {
		return nil, fmt.Errorf("%w: unknown currency %s", apperrors.ErrValidation, req.ToCurrencyCode)
	}

	now := time.Now().UTC()
	rate := domain.ExchangeRate{
		ExchangeRateID:   uuid.NewString(),
		TenantID:         tenantID,
		FromCurrencyCode: req.FromCurrencyCode,
		ToCurrencyCode:   req.ToCurrencyCode,
		Rate:             req.Rate,
		DateEffective:    req.DateEffective,
		AuditFields:      newAuditFields(creatorUserID, now),
	}

	err := s.exchangeRateRepo.SaveExchangeRate(ctx, rate)
	recordAudit(ctx, s.auditRecorder, tenantID, creatorUserID, domain.AuditCreate, entityExchangeRate, rate.ExchangeRateID, nil, start, err)
	if err != nil {
		logger.Error("Failed to save exchange rate", slog.String("error", err.Error()),
			slog.String("from", req.FromCurrencyCode), slog.String("to", req.ToCurrencyCode))
		return nil, fmt.Errorf("failed to save exchange rate: %w", err)
	}

	logger.Info("Exchange rate created", slog.String("from", req.FromCurrencyCode), slog.String("to", req.ToCurrencyCode), slog.String("rate", req.Rate.String()))
	return &rate, nil
}

// ListExchangeRates lists the tenant's rates, optionally narrowed to a pair.
func (s *exchangeRateService) ListExchangeRates(ctx context.Context, tenantID string, from string, to string) ([]domain.ExchangeRate, error) {
	rates, err := s.exchangeRateRepo.ListExchangeRates(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list exchange rates: %w", err)
	}
	if from == "" && to == "" {
		return rates, nil
	}
	filtered := rates[:0]
	for _, rate := range rates {
		if from != "" && rate.FromCurrencyCode != from {
			continue
		}
		if to != "" && rate.ToCurrencyCode != to {
			continue
		}
		filtered = append(filtered, rate)
	}
	return filtered, nil
}

// GetRate resolves the rate effective on the given date: the latest recorded
// rate with an effective date on or before it. Identity pairs are always 1.
func (s *exchangeRateService) GetRate(ctx context.Context, tenantID string, from string, to string, on time.Time) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	rate, err := s.exchangeRateRepo.FindRate(ctx, tenantID, from, to, on)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to find rate %s/%s: %w", from, to, err)
	}
	return rate.Rate, nil
}
