package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/finbooks/finbooks_backend/internal/apperrors"
	"github.com/finbooks/finbooks_backend/internal/core/domain"
	portsrepo "github.com/finbooks/finbooks_backend/internal/core/ports/repositories"
	portssvc "github.com/finbooks/finbooks_backend/internal/core/ports/services"
	"github.com/finbooks/finbooks_backend/internal/dto"
	"github.com/finbooks/finbooks_backend/internal/middleware"
)

// fiscalPeriodService manages the tenant's posting periods.
type fiscalPeriodService struct {
	fiscalPeriodRepo portsrepo.FiscalPeriodRepository
	auditRecorder    portssvc.AuditRecorder
}

// NewFiscalPeriodService creates a new FiscalPeriodService.
func NewFiscalPeriodService(fiscalPeriodRepo portsrepo.FiscalPeriodRepository, auditRecorder portssvc.AuditRecorder) portssvc.FiscalPeriodSvcFacade {
	return &fiscalPeriodService{
		fiscalPeriodRepo: fiscalPeriodRepo,
		auditRecorder:    auditRecorder,
	}
}

var _ portssvc.FiscalPeriodSvcFacade = (*fiscalPeriodService)(nil)

// CreateFiscalPeriod opens a new period. Ranges are inclusive and must not
// overlap an existing period of the tenant.
func (s *fiscalPeriodService) CreateFiscalPeriod(ctx context.Context, tenantID string, req dto.CreateFiscalPeriodRequest, creatorUserID string) (*domain.FiscalPeriod, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	start := time.Now()

	if req.EndDate.Before(req.StartDate) {
		return nil, fmt.Errorf("%w: period end date is before its start date", apperrors.ErrValidation)
	}

	existing, err := s.fiscalPeriodRepo.ListFiscalPeriods(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list fiscal periods: %w", err)
	}
	for _, other := range existing {
		if !req.EndDate.Before(other.StartDate) && !req.StartDate.After(other.EndDate) {
			return nil, fmt.Errorf("%w: period overlaps %s", apperrors.ErrValidation, other.Name)
		}
	}

	now := time.Now().UTC()
	period := domain.FiscalPeriod{
		PeriodID:    uuid.NewString(),
		TenantID:    tenantID,
		Name:        req.Name,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		IsClosed:    false,
		AuditFields: newAuditFields(creatorUserID, now),
	}

	err = s.fiscalPeriodRepo.SaveFiscalPeriod(ctx, period)
	recordAudit(ctx, s.auditRecorder, tenantID, creatorUserID, domain.AuditCreate, entityFiscalPeriod, period.PeriodID, nil, start, err)
	if err != nil {
		logger.Error("Failed to save fiscal period", slog.String("error", err.Error()), slog.String("name", req.Name))
		return nil, fmt.Errorf("failed to save fiscal period: %w", err)
	}

	logger.Info("Fiscal period created", slog.String("period_id", period.PeriodID), slog.String("name", period.Name))
	return &period, nil
}

// ListFiscalPeriods lists the tenant's periods ordered by start date.
func (s *fiscalPeriodService) ListFiscalPeriods(ctx context.Context, tenantID string) ([]domain.FiscalPeriod, error) {
	periods, err := s.fiscalPeriodRepo.ListFiscalPeriods(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list fiscal periods: %w", err)
	}
	return periods, nil
}

// CloseFiscalPeriod closes a period. Closing is one-way; postings dated inside
// a closed period are rejected from then on.
func (s *fiscalPeriodService) CloseFiscalPeriod(ctx context.Context, tenantID string, periodID string, userID string) (p *domain.FiscalPeriod, err error) {
	start := time.Now()
	defer func() {
		recordAudit(ctx, s.auditRecorder, tenantID, userID, domain.AuditClosePeriod, entityFiscalPeriod, periodID, nil, start, err)
	}()

	period, err := s.fiscalPeriodRepo.FindFiscalPeriodByID(ctx, tenantID, periodID)
	if err != nil {
		return nil, err
	}
	if period.IsClosed {
		err = fmt.Errorf("%w: period %s is already closed", apperrors.ErrConflict, period.Name)
		return nil, err
	}

	now := time.Now().UTC()
	if err = s.fiscalPeriodRepo.CloseFiscalPeriod(ctx, tenantID, periodID, userID, now); err != nil {
		return nil, err
	}
	period.IsClosed = true
	period.LastUpdatedAt = now
	period.LastUpdatedBy = userID
	return period, nil
}
