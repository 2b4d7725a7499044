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
	"github.com/finbooks/finbooks_backend/internal/utils/accounting"
	"github.com/finbooks/finbooks_backend/internal/utils/auditdiff"
)

const defaultListLimit = 20

// invoiceService drives invoices through the document lifecycle.
type invoiceService struct {
	invoiceRepo      portsrepo.InvoiceRepositoryWithTx
	fiscalPeriodRepo portsrepo.FiscalPeriodRepository
	tenantSvc        portssvc.TenantSvcFacade
	currencySvc      portssvc.CurrencySvcFacade
	exchangeRateSvc  portssvc.ExchangeRateSvcFacade
	auditRecorder    portssvc.AuditRecorder
	auditExclude     []string
	engine           *postingEngine
}

// NewInvoiceService creates a new InvoiceService.
func NewInvoiceService(
	invoiceRepo portsrepo.InvoiceRepositoryWithTx,
	fiscalPeriodRepo portsrepo.FiscalPeriodRepository,
	tenantSvc portssvc.TenantSvcFacade,
	currencySvc portssvc.CurrencySvcFacade,
	exchangeRateSvc portssvc.ExchangeRateSvcFacade,
	auditRecorder portssvc.AuditRecorder,
	auditExclude []string,
	engine *postingEngine,
) portssvc.InvoiceSvcFacade {
	return &invoiceService{
		invoiceRepo:      invoiceRepo,
		fiscalPeriodRepo: fiscalPeriodRepo,
		tenantSvc:        tenantSvc,
		currencySvc:      currencySvc,
		exchangeRateSvc:  exchangeRateSvc,
		auditRecorder:    auditRecorder,
		auditExclude:     auditExclude,
		engine:           engine,
	}
}

var _ portssvc.InvoiceSvcFacade = (*invoiceService)(nil)

// resolveRate returns the conversion rate from the document currency to the
// tenant base currency, frozen at the document date. Missing rates fail the
// operation up front rather than at posting time.
func (s *invoiceService) resolveRate(ctx context.Context, tenant domain.Tenant, currencyCode string, on time.Time) (decimal.Decimal, error) {
	if currencyCode == tenant.BaseCurrencyCode {
		return decimal.NewFromInt(1), nil
	}
	rate, err := s.exchangeRateSvc.GetRate(ctx, tenant.TenantID, currencyCode, tenant.BaseCurrencyCode, on)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: no exchange rate from %s to %s effective %s", apperrors.ErrValidation, currencyCode, tenant.BaseCurrencyCode, on.Format("2006-01-02"))
	}
	return rate, nil
}

// buildInvoiceLines validates and materializes the request lines with 1-based
// contiguous line numbers and computed totals.
func buildInvoiceLines(invoiceID string, reqLines []dto.CreateInvoiceLineRequest, precision int32) ([]domain.InvoiceLine, decimal.Decimal, error) {
	lines := make([]domain.InvoiceLine, len(reqLines))
	total := decimal.Zero
	for i, lr := range reqLines {
		if !lr.Quantity.IsPositive() {
			return nil, decimal.Zero, fmt.Errorf("%w: line %d quantity must be positive", apperrors.ErrValidation, i+1)
		}
		if lr.UnitPrice.IsNegative() {
			return nil, decimal.Zero, fmt.Errorf("%w: line %d unit price must not be negative", apperrors.ErrValidation, i+1)
		}
		if lr.TaxRate.IsNegative() {
			return nil, decimal.Zero, fmt.Errorf("%w: line %d tax rate must not be negative", apperrors.ErrValidation, i+1)
		}
		if lr.DiscountPercent.IsNegative() || lr.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
			return nil, decimal.Zero, fmt.Errorf("%w: line %d discount percent must be between 0 and 100", apperrors.ErrValidation, i+1)
		}
		line := domain.InvoiceLine{
			LineID:          uuid.NewString(),
			InvoiceID:       invoiceID,
			LineNumber:      i + 1,
			Description:     lr.Description,
			Quantity:        lr.Quantity,
			UnitPrice:       lr.UnitPrice,
			TaxRate:         lr.TaxRate,
			DiscountPercent: lr.DiscountPercent,
			AccountID:       lr.AccountID,
		}
		line.LineTotal = accounting.ComputeLineAmounts(line, precision).Total
		lines[i] = line
		total = total.Add(line.LineTotal)
	}
	return lines, total, nil
}

// computeBaseAmount converts an invoice's lines to the base currency the same
// way the posting engine does, so the header amount and the generated journal
// always agree.
func computeBaseAmount(lines []domain.InvoiceLine, rate decimal.Decimal, docPrecision, basePrecision int32) decimal.Decimal {
	base := decimal.Zero
	for _, line := range lines {
		amounts := accounting.ComputeLineAmounts(line, docPrecision)
		base = base.Add(accounting.ConvertToBase(amounts.Taxable, rate, basePrecision))
		base = base.Add(accounting.ConvertToBase(amounts.Tax, rate, basePrecision))
	}
	return base
}

// invoiceSnapshot captures the auditable header fields of an invoice.
func invoiceSnapshot(inv domain.Invoice, lineCount int) map[string]interface{} {
	return map[string]interface{}{
		"partyID":      inv.PartyID,
		"currencyCode": inv.CurrencyCode,
		"exchangeRate": inv.ExchangeRate.String(),
		"invoiceDate":  inv.InvoiceDate.Format("2006-01-02"),
		"totalAmount":  inv.TotalAmount.String(),
		"baseAmount":   inv.BaseAmount.String(),
		"lineCount":    lineCount,
	}
}

// CreateInvoice creates a draft invoice. The exchange rate and fiscal period
// are resolved once here and frozen on the document.
func (s *invoiceService) CreateInvoice(ctx context.Context, tenantID string, req dto.CreateInvoiceRequest, creatorUserID string) (*domain.Invoice, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	start := time.Now()

	tenant, err := s.tenantSvc.GetTenantByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	docCurrency, err := s.currencySvc.GetCurrencyByCode(ctx, req.CurrencyCode)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown currency %s", apperrors.ErrValidation, req.CurrencyCode)
	}
	baseCurrency, err := s.currencySvc.GetCurrencyByCode(ctx, tenant.BaseCurrencyCode)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base currency: %w", err)
	}
	rate, err := s.resolveRate(ctx, *tenant, req.CurrencyCode, req.InvoiceDate)
	if err != nil {
		return nil, err
	}
	period, err := s.fiscalPeriodRepo.FindFiscalPeriodForDate(ctx, tenantID, req.InvoiceDate)
	if err != nil {
		return nil, fmt.Errorf("%w: no fiscal period covers %s", apperrors.ErrValidation, req.InvoiceDate.Format("2006-01-02"))
	}

	now := time.Now().UTC()
	invoiceID := uuid.NewString()
	lines, total, err := buildInvoiceLines(invoiceID, req.Lines, docCurrency.Precision)
	if err != nil {
		return nil, err
	}

	invoice := domain.Invoice{
		InvoiceID:      invoiceID,
		TenantID:       tenantID,
		InvoiceType:    req.InvoiceType,
		PartyType:      req.PartyType,
		PartyID:        req.PartyID,
		CurrencyCode:   req.CurrencyCode,
		ExchangeRate:   rate,
		InvoiceDate:    req.InvoiceDate,
		Status:         domain.StatusDraft,
		TotalAmount:    total,
		BaseAmount:     computeBaseAmount(lines, rate, docCurrency.Precision, baseCurrency.Precision),
		PaidAmount:     decimal.Zero,
		BalanceAmount:  total,
		FiscalPeriodID: period.PeriodID,
		AuditFields:    newAuditFields(creatorUserID, now),
	}

	err = s.invoiceRepo.SaveInvoice(ctx, invoice, lines)
	recordAudit(ctx, s.auditRecorder, tenantID, creatorUserID, domain.AuditCreate, entityInvoice, invoiceID, nil, start, err)
	if err != nil {
		logger.Error("Failed to save invoice", slog.String("error", err.Error()), slog.String("tenant_id", tenantID))
		return nil, fmt.Errorf("failed to save invoice: %w", err)
	}

	logger.Info("Invoice created", slog.String("invoice_id", invoiceID), slog.String("invoice_type", string(req.InvoiceType)))
	invoice.Lines = lines
	return &invoice, nil
}

// GetInvoiceByID retrieves an invoice with its lines.
func (s *invoiceService) GetInvoiceByID(ctx context.Context, tenantID string, invoiceID string) (*domain.Invoice, error) {
	invoice, err := s.invoiceRepo.FindInvoiceByID(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to find invoice %s: %w", invoiceID, err)
	}
	lines, err := s.invoiceRepo.FindInvoiceLines(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice lines: %w", err)
	}
	invoice.Lines = lines
	return invoice, nil
}

// ListInvoices retrieves one page of the tenant's invoices.
func (s *invoiceService) ListInvoices(ctx context.Context, tenantID string, params dto.ListInvoicesParams) (*dto.ListInvoicesResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	filter := portsrepo.InvoiceListFilter{
		InvoiceType: params.InvoiceType,
		Status:      params.Status,
		PartyID:     params.PartyID,
	}
	invoices, nextToken, err := s.invoiceRepo.ListInvoices(ctx, tenantID, filter, limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	return &dto.ListInvoicesResponse{Invoices: invoices, NextToken: nextToken}, nil
}

// UpdateDraftInvoice replaces header fields and, when provided, the full line
// set of a draft invoice. Rate and fiscal period are re-resolved when the
// currency or date changes.
func (s *invoiceService) UpdateDraftInvoice(ctx context.Context, tenantID string, invoiceID string, req dto.UpdateInvoiceRequest, userID string) (*domain.Invoice, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	start := time.Now()

	current, err := s.GetInvoiceByID(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	if !domain.IsEditable(current.Status) {
		return nil, fmt.Errorf("%w: cannot modify a %s invoice", apperrors.ErrStateTransition, current.Status)
	}

	tenant, err := s.tenantSvc.GetTenantByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	updated := *current
	if req.PartyID != nil {
		updated.PartyID = *req.PartyID
	}
	if req.CurrencyCode != nil {
		updated.CurrencyCode = *req.CurrencyCode
	}
	if req.InvoiceDate != nil {
		updated.InvoiceDate = *req.InvoiceDate
	}

	docCurrency, err := s.currencySvc.GetCurrencyByCode(ctx, updated.CurrencyCode)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown currency %s", apperrors.ErrValidation, updated.CurrencyCode)
	}
	baseCurrency, err := s.currencySvc.GetCurrencyByCode(ctx, tenant.BaseCurrencyCode)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base currency: %w", err)
	}
	if req.CurrencyCode != nil || req.InvoiceDate != nil {
		updated.ExchangeRate, err = s.resolveRate(ctx, *tenant, updated.CurrencyCode, updated.InvoiceDate)
		if err != nil {
			return nil, err
		}
	}
	if req.InvoiceDate != nil {
		period, err := s.fiscalPeriodRepo.FindFiscalPeriodForDate(ctx, tenantID, updated.InvoiceDate)
		if err != nil {
			return nil, fmt.Errorf("%w: no fiscal period covers %s", apperrors.ErrValidation, updated.InvoiceDate.Format("2006-01-02"))
		}
		updated.FiscalPeriodID = period.PeriodID
	}

	now := time.Now().UTC()
	lines := current.Lines
	if req.Lines != nil {
		lines, _, err = buildInvoiceLines(invoiceID, req.Lines, docCurrency.Precision)
		if err != nil {
			return nil, err
		}
	}
	total := decimal.Zero
	for i := range lines {
		lines[i].LineTotal = accounting.ComputeLineAmounts(lines[i], docCurrency.Precision).Total
		total = total.Add(lines[i].LineTotal)
	}
	updated.TotalAmount = total
	updated.BaseAmount = computeBaseAmount(lines, updated.ExchangeRate, docCurrency.Precision, baseCurrency.Precision)
	updated.BalanceAmount = total
	updated.LastUpdatedAt = now
	updated.LastUpdatedBy = userID

	err = s.invoiceRepo.UpdateDraftInvoice(ctx, updated, lines)
	changes := auditdiff.Diff(invoiceSnapshot(*current, len(current.Lines)), invoiceSnapshot(updated, len(lines)), s.auditExclude)
	recordAudit(ctx, s.auditRecorder, tenantID, userID, domain.AuditUpdate, entityInvoice, invoiceID, changes, start, err)
	if err != nil {
		logger.Error("Failed to update draft invoice", slog.String("error", err.Error()), slog.String("invoice_id", invoiceID))
		return nil, fmt.Errorf("failed to update invoice: %w", err)
	}

	updated.Lines = lines
	return &updated, nil
}

// SubmitInvoice moves a draft invoice to SUBMITTED after revalidating it.
func (s *invoiceService) SubmitInvoice(ctx context.Context, tenantID string, invoiceID string, userID string) (inv *domain.Invoice, err error) {
	start := time.Now()
	defer func() {
		recordAudit(ctx, s.auditRecorder, tenantID, userID, domain.AuditSubmit, entityInvoice, invoiceID, nil, start, err)
	}()

	invoice, err := s.GetInvoiceByID(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	to, err := domain.NextStatus(invoice.Status, domain.ActionSubmit)
	if err != nil {
		return nil, err
	}
	if len(invoice.Lines) == 0 {
		err = fmt.Errorf("%w: invoice must have at least one line", apperrors.ErrValidation)
		return nil, err
	}
	if !invoice.TotalAmount.IsPositive() {
		err = fmt.Errorf("%w: invoice total must be positive", apperrors.ErrValidation)
		return nil, err
	}

	if err = s.invoiceRepo.UpdateInvoiceStatus(ctx, tenantID, invoiceID, invoice.Status, to, userID, time.Now().UTC()); err != nil {
		return nil, err
	}
	invoice.Status = to
	return invoice, nil
}

// ApproveInvoice moves a submitted invoice to APPROVED. Unless the tenant
// allows self-approval, the approver must differ from the creator.
func (s *invoiceService) ApproveInvoice(ctx context.Context, tenantID string, invoiceID string, userID string) (inv *domain.Invoice, err error) {
	start := time.Now()
	defer func() {
		recordAudit(ctx, s.auditRecorder, tenantID, userID, domain.AuditApprove, entityInvoice, invoiceID, nil, start, err)
	}()

	invoice, err := s.invoiceRepo.FindInvoiceByID(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	to, err := domain.NextStatus(invoice.Status, domain.ActionApprove)
	if err != nil {
		return nil, err
	}

	tenant, err := s.tenantSvc.GetTenantByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !tenant.AllowSelfApproval && invoice.CreatedBy == userID {
		err = fmt.Errorf("%w: creator cannot approve their own invoice", apperrors.ErrForbidden)
		return nil, err
	}

	if err = s.invoiceRepo.UpdateInvoiceStatus(ctx, tenantID, invoiceID, invoice.Status, to, userID, time.Now().UTC()); err != nil {
		return nil, err
	}
	invoice.Status = to
	return invoice, nil
}

// PostInvoice posts an approved invoice: inside one transaction it locks the
// invoice row, generates the balanced journal, applies account balance
// changes and marks the invoice POSTED. Concurrent posts of the same invoice
// serialize on the row lock; the loser observes the status change and fails.
func (s *invoiceService) PostInvoice(ctx context.Context, tenantID string, invoiceID string, userID string) (inv *domain.Invoice, err error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	start := time.Now()
	var changes map[string]domain.FieldChange
	defer func() {
		recordAudit(ctx, s.auditRecorder, tenantID, userID, domain.AuditPost, entityInvoice, invoiceID, changes, start, err)
	}()

	tenant, err := s.tenantSvc.GetTenantByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	baseCurrency, err := s.currencySvc.GetCurrencyByCode(ctx, tenant.BaseCurrencyCode)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base currency: %w", err)
	}

	tx, err := s.invoiceRepo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin posting transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = s.invoiceRepo.Rollback(ctx, tx)
		}
	}()

	invoice, err := s.invoiceRepo.FindInvoiceByIDForUpdate(ctx, tx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	if _, err = domain.NextStatus(invoice.Status, domain.ActionPost); err != nil {
		if invoice.Status == domain.StatusPosted || domain.IsSettled(invoice.Status) {
			err = fmt.Errorf("%w: invoice %s is already posted", apperrors.ErrConflict, invoiceID)
		}
		return nil, err
	}
	docCurrency, err := s.currencySvc.GetCurrencyByCode(ctx, invoice.CurrencyCode)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve invoice currency: %w", err)
	}

	period, err := s.fiscalPeriodRepo.FindFiscalPeriodByID(ctx, tenantID, invoice.FiscalPeriodID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve fiscal period: %w", err)
	}
	if period.IsClosed {
		err = fmt.Errorf("%w: period %s", apperrors.ErrPeriodClosed, period.Name)
		return nil, err
	}

	lines, err := s.invoiceRepo.FindInvoiceLines(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice lines: %w", err)
	}

	now := time.Now().UTC()
	journal, journalLines, err := s.engine.BuildInvoiceJournal(ctx, *tenant, *invoice, lines, docCurrency.Precision, baseCurrency.Precision, period.PeriodID, userID, now)
	if err != nil {
		return nil, err
	}
	if err = s.engine.ApplyJournalInTx(ctx, tx, tenantID, journal, journalLines, userID, now); err != nil {
		return nil, err
	}
	if err = s.invoiceRepo.MarkInvoicePostedInTx(ctx, tx, invoiceID, journal.JournalID, userID, now); err != nil {
		return nil, err
	}
	if err = s.invoiceRepo.Commit(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to commit posting transaction: %w", err)
	}
	committed = true

	changes = statusChange(invoice.Status, domain.StatusPosted)
	changes["journalID"] = domain.FieldChange{From: nil, To: journal.JournalID}

	logger.Info("Invoice posted",
		slog.String("invoice_id", invoiceID),
		slog.String("journal_id", journal.JournalID),
		slog.String("base_amount", journal.Amount.String()),
	)

	invoice.Status = domain.StatusPosted
	invoice.JournalID = &journal.JournalID
	invoice.Lines = lines
	return invoice, nil
}

// CancelInvoice cancels a draft or submitted invoice.
func (s *invoiceService) CancelInvoice(ctx context.Context, tenantID string, invoiceID string, userID string) (inv *domain.Invoice, err error) {
	start := time.Now()
	defer func() {
		recordAudit(ctx, s.auditRecorder, tenantID, userID, domain.AuditCancel, entityInvoice, invoiceID, nil, start, err)
	}()

	invoice, err := s.invoiceRepo.FindInvoiceByID(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	to, err := domain.NextStatus(invoice.Status, domain.ActionCancel)
	if err != nil {
		return nil, err
	}
	if err = s.invoiceRepo.UpdateInvoiceStatus(ctx, tenantID, invoiceID, invoice.Status, to, userID, time.Now().UTC()); err != nil {
		return nil, err
	}
	invoice.Status = to
	return invoice, nil
}
