package services

import (
	"context"

	"github.com/finbooks/finbooks_backend/internal/core/domain"
	"github.com/finbooks/finbooks_backend/internal/dto"
)

// FiscalPeriodSvcFacade manages posting periods.
type FiscalPeriodSvcFacade interface {
	CreateFiscalPeriod(ctx context.Context, tenantID string, req dto.CreateFiscalPeriodRequest, creatorUserID string) (*domain.FiscalPeriod, error)
	ListFiscalPeriods(ctx context.Context, tenantID string) ([]domain.FiscalPeriod, error)
	CloseFiscalPeriod(ctx context.Context, tenantID string, periodID string, userID string) (*domain.FiscalPeriod, error)
}
