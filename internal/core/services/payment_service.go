package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/finbooks/finbooks_backend/internal/apperrors"
	"github.com/finbooks/finbooks_backend/internal/core/domain"
	portsrepo "github.com/finbooks/finbooks_backend/internal/core/ports/repositories"
	portssvc "github.com/finbooks/finbooks_backend/internal/core/ports/services"
	"github.com/finbooks/finbooks_backend/internal/dto"
	"github.com/finbooks/finbooks_backend/internal/middleware"
)

// paymentService drives payments through the document lifecycle and settles
// invoices through allocations.
type paymentService struct {
	paymentRepo      portsrepo.PaymentRepositoryWithTx
	invoiceRepo      portsrepo.InvoiceRepositoryFacade
	fiscalPeriodRepo portsrepo.FiscalPeriodRepository
	tenantSvc        portssvc.TenantSvcFacade
	currencySvc      portssvc.CurrencySvcFacade
	exchangeRateSvc  portssvc.ExchangeRateSvcFacade
	auditRecorder    portssvc.AuditRecorder
	engine           *postingEngine
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	paymentRepo portsrepo.PaymentRepositoryWithTx,
	invoiceRepo portsrepo.InvoiceRepositoryFacade,
	fiscalPeriodRepo portsrepo.FiscalPeriodRepository,
	tenantSvc portssvc.TenantSvcFacade,
	currencySvc portssvc.CurrencySvcFacade,
	exchangeRateSvc portssvc.ExchangeRateSvcFacade,
	auditRecorder portssvc.AuditRecorder,
	engine *postingEngine,
) portssvc.PaymentSvcFacade {
	return &paymentService{
		paymentRepo:      paymentRepo,
		invoiceRepo:      invoiceRepo,
		fiscalPeriodRepo: fiscalPeriodRepo,
		tenantSvc:        tenantSvc,
		currencySvc:      currencySvc,
		exchangeRateSvc:  exchangeRateSvc,
		auditRecorder:    auditRecorder,
		engine:           engine,
	}
}

var _ portssvc.PaymentSvcFacade = (*paymentService)(nil)

// CreatePayment creates a draft payment. The exchange rate is resolved once
// here and frozen. Allocations supplied at creation are validated and applied
// against locked invoice rows in one transaction.
func (s *paymentService) CreatePayment(ctx context.Context, tenantID string, req dto.CreatePaymentRequest, creatorUserID string) (*domain.Payment, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	start := time.Now()

	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: payment amount must be positive", apperrors.ErrValidation)
	}
	tenant, err := s.tenantSvc.GetTenantByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if _, err := s.currencySvc.GetCurrencyByCode(ctx, req.CurrencyCode); err != nil {
		return nil, fmt.Errorf("%w: unknown currency %s", apperrors.ErrValidation, req.CurrencyCode)
	}

	rate := decimal.NewFromInt(1)
	if req.CurrencyCode != tenant.BaseCurrencyCode {
		rate, err = s.exchangeRateSvc.GetRate(ctx, tenantID, req.CurrencyCode, tenant.BaseCurrencyCode, req.PaymentDate)
		if err != nil {
			return nil, fmt.Errorf("%w: no exchange rate from %s to %s effective %s", apperrors.ErrValidation, req.CurrencyCode, tenant.BaseCurrencyCode, req.PaymentDate.Format("2006-01-02"))
		}
	}
	if _, err := s.fiscalPeriodRepo.FindFiscalPeriodForDate(ctx, tenantID, req.PaymentDate); err != nil {
		return nil, fmt.Errorf("%w: no fiscal period covers %s", apperrors.ErrValidation, req.PaymentDate.Format("2006-01-02"))
	}

	now := time.Now().UTC()
	payment := domain.Payment{
		PaymentID:    uuid.NewString(),
		TenantID:     tenantID,
		PaymentType:  req.PaymentType,
		PartyType:    req.PartyType,
		PartyID:      req.PartyID,
		Amount:       req.Amount,
		CurrencyCode: req.CurrencyCode,
		ExchangeRate: rate,
		PaymentDate:  req.PaymentDate,
		Status:       domain.StatusDraft,
		AuditFields:  newAuditFields(creatorUserID, now),
	}

	err = s.paymentRepo.SavePayment(ctx, payment)
	recordAudit(ctx, s.auditRecorder, tenantID, creatorUserID, domain.AuditCreate, entityPayment, payment.PaymentID, nil, start, err)
	if err != nil {
		logger.Error("Failed to save payment", slog.String("error", err.Error()), slog.String("tenant_id", tenantID))
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}

	for _, alloc := range req.Allocations {
		if _, err := s.AllocatePayment(ctx, tenantID, payment.PaymentID, alloc, creatorUserID); err != nil {
			return nil, err
		}
	}

	logger.Info("Payment created", slog.String("payment_id", payment.PaymentID), slog.String("payment_type", string(req.PaymentType)))
	return s.GetPaymentByID(ctx, tenantID, payment.PaymentID)
}

// GetPaymentByID retrieves a payment with its allocations.
func (s *paymentService) GetPaymentByID(ctx context.Context, tenantID string, paymentID string) (*domain.Payment, error) {
	payment, err := s.paymentRepo.FindPaymentByID(ctx, tenantID, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to find payment %s: %w", paymentID, err)
	}
	allocations, err := s.paymentRepo.FindAllocationsByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load allocations: %w", err)
	}
	payment.Allocations = allocations
	return payment, nil
}

// ListPayments retrieves one page of the tenant's payments.
func (s *paymentService) ListPayments(ctx context.Context, tenantID string, params dto.ListPaymentsParams) (*dto.ListPaymentsResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	filter := portsrepo.PaymentListFilter{
		PaymentType: params.PaymentType,
		Status:      params.Status,
		PartyID:     params.PartyID,
	}
	payments, nextToken, err := s.paymentRepo.ListPayments(ctx, tenantID, filter, limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return &dto.ListPaymentsResponse{Payments: payments, NextToken: nextToken}, nil
}

// AllocatePayment reserves part of the payment against an open invoice. Both
// the payment and the invoice rows are locked so concurrent allocations of the
// same balance serialize; the loser sees the other payment's pending
// allocations and fails.
func (s *paymentService) AllocatePayment(ctx context.Context, tenantID string, paymentID string, req dto.AllocationRequest, userID string) (p *domain.Payment, err error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	start := time.Now()
	defer func() {
		recordAudit(ctx, s.auditRecorder, tenantID, userID, domain.AuditAllocate, entityPayment, paymentID, map[string]domain.FieldChange{
			"invoiceID": {From: nil, To: req.InvoiceID},
			"amount":    {From: nil, To: req.Amount.String()},
		}, start, err)
	}()

	if !req.Amount.IsPositive() {
		err = fmt.Errorf("%w: allocation amount must be positive", apperrors.ErrValidation)
		return nil, err
	}

	tx, err := s.paymentRepo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin allocation transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = s.paymentRepo.Rollback(ctx, tx)
		}
	}()

	payment, err := s.paymentRepo.FindPaymentByIDForUpdate(ctx, tx, tenantID, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status == domain.StatusPosted || payment.Status == domain.StatusCancelled {
		err = fmt.Errorf("%w: cannot allocate a %s payment", apperrors.ErrStateTransition, payment.Status)
		return nil, err
	}

	invoice, err := s.invoiceRepo.FindInvoiceByIDForUpdate(ctx, tx, tenantID, req.InvoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.Status != domain.StatusPosted && invoice.Status != domain.StatusPartial {
		err = fmt.Errorf("%w: invoice %s has no open balance to allocate against", apperrors.ErrValidation, req.InvoiceID)
		return nil, err
	}
	if invoice.CurrencyCode != payment.CurrencyCode {
		err = fmt.Errorf("%w: payment currency %s does not match invoice currency %s", apperrors.ErrValidation, payment.CurrencyCode, invoice.CurrencyCode)
		return nil, err
	}
	// Pending allocations from other payments claim part of the balance too;
	// summing them under the invoice row lock serializes the check against
	// concurrent allocations.
	pendingAllocated, err := s.paymentRepo.SumPendingAllocationsForInvoiceInTx(ctx, tx, req.InvoiceID)
	if err != nil {
		return nil, err
	}
	if pendingAllocated.Add(req.Amount).GreaterThan(invoice.BalanceAmount) {
		err = fmt.Errorf("%w: %s plus pending allocations %s exceeds invoice balance %s", apperrors.ErrOverAllocation, req.Amount.String(), pendingAllocated.String(), invoice.BalanceAmount.String())
		return nil, err
	}

	allocations, err := s.paymentRepo.FindAllocationsByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load allocations: %w", err)
	}
	allocated := decimal.Zero
	for _, a := range allocations {
		if a.InvoiceID == req.InvoiceID {
			err = fmt.Errorf("%w: payment already has an allocation for invoice %s", apperrors.ErrDuplicate, req.InvoiceID)
			return nil, err
		}
		allocated = allocated.Add(a.Amount)
	}
	if allocated.Add(req.Amount).GreaterThan(payment.Amount) {
		err = fmt.Errorf("%w: allocations %s would exceed payment amount %s", apperrors.ErrOverAllocation, allocated.Add(req.Amount).String(), payment.Amount.String())
		return nil, err
	}

	now := time.Now().UTC()
	allocation := domain.PaymentAllocation{
		AllocationID: uuid.NewString(),
		PaymentID:    paymentID,
		InvoiceID:    req.InvoiceID,
		Amount:       req.Amount,
		AuditFields:  newAuditFields(userID, now),
	}
	if err = s.paymentRepo.SaveAllocationInTx(ctx, tx, allocation); err != nil {
		return nil, fmt.Errorf("failed to save allocation: %w", err)
	}
	if err = s.paymentRepo.Commit(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to commit allocation transaction: %w", err)
	}
	committed = true

	logger.Info("Payment allocated",
		slog.String("payment_id", paymentID),
		slog.String("invoice_id", req.InvoiceID),
		slog.String("amount", req.Amount.String()),
	)

	payment.Allocations = append(allocations, allocation)
	return payment, nil
}

// SubmitPayment moves a draft payment to SUBMITTED.
func (s *paymentService) SubmitPayment(ctx context.Context, tenantID string, paymentID string, userID string) (p *domain.Payment, err error) {
	start := time.Now()
	defer func() {
		recordAudit(ctx, s.auditRecorder, tenantID, userID, domain.AuditSubmit, entityPayment, paymentID, nil, start, err)
	}()
	return s.transition(ctx, tenantID, paymentID, domain.ActionSubmit, userID)
}

// ApprovePayment moves a submitted payment to APPROVED. Unless the tenant
// allows self-approval, the approver must differ from the creator.
func (s *paymentService) ApprovePayment(ctx context.Context, tenantID string, paymentID string, userID string) (p *domain.Payment, err error) {
	start := time.Now()
	defer func() {
		recordAudit(ctx, s.auditRecorder, tenantID, userID, domain.AuditApprove, entityPayment, paymentID, nil, start, err)
	}()

	payment, err := s.paymentRepo.FindPaymentByID(ctx, tenantID, paymentID)
	if err != nil {
		return nil, err
	}
	tenant, err := s.tenantSvc.GetTenantByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !tenant.AllowSelfApproval && payment.CreatedBy == userID {
		err = fmt.Errorf("%w: creator cannot approve their own payment", apperrors.ErrForbidden)
		return nil, err
	}
	return s.transition(ctx, tenantID, paymentID, domain.ActionApprove, userID)
}

// CancelPayment cancels a draft or submitted payment.
func (s *paymentService) CancelPayment(ctx context.Context, tenantID string, paymentID string, userID string) (p *domain.Payment, err error) {
	start := time.Now()
	defer func() {
		recordAudit(ctx, s.auditRecorder, tenantID, userID, domain.AuditCancel, entityPayment, paymentID, nil, start, err)
	}()
	return s.transition(ctx, tenantID, paymentID, domain.ActionCancel, userID)
}

// transition applies a non-posting lifecycle action with an optimistic guard.
func (s *paymentService) transition(ctx context.Context, tenantID, paymentID string, action domain.DocumentAction, userID string) (*domain.Payment, error) {
	payment, err := s.paymentRepo.FindPaymentByID(ctx, tenantID, paymentID)
	if err != nil {
		return nil, err
	}
	to, err := domain.NextStatus(payment.Status, action)
	if err != nil {
		return nil, err
	}
	if err := s.paymentRepo.UpdatePaymentStatus(ctx, tenantID, paymentID, payment.Status, to, userID, time.Now().UTC()); err != nil {
		return nil, err
	}
	payment.Status = to
	return payment, nil
}

// PostPayment posts an approved payment: inside one transaction it locks the
// payment and every allocated invoice, verifies the allocations cover the
// payment exactly, writes the journal, applies account balances and settles
// the invoices.
func (s *paymentService) PostPayment(ctx context.Context, tenantID string, paymentID string, userID string) (p *domain.Payment, err error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	start := time.Now()
	var changes map[string]domain.FieldChange
	defer func() {
		recordAudit(ctx, s.auditRecorder, tenantID, userID, domain.AuditPost, entityPayment, paymentID, changes, start, err)
	}()

	tenant, err := s.tenantSvc.GetTenantByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	baseCurrency, err := s.currencySvc.GetCurrencyByCode(ctx, tenant.BaseCurrencyCode)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base currency: %w", err)
	}

	tx, err := s.paymentRepo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin posting transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = s.paymentRepo.Rollback(ctx, tx)
		}
	}()

	payment, err := s.paymentRepo.FindPaymentByIDForUpdate(ctx, tx, tenantID, paymentID)
	if err != nil {
		return nil, err
	}
	if _, err = domain.NextStatus(payment.Status, domain.ActionPost); err != nil {
		if payment.Status == domain.StatusPosted {
			err = fmt.Errorf("%w: payment %s is already posted", apperrors.ErrConflict, paymentID)
		}
		return nil, err
	}

	period, err := s.fiscalPeriodRepo.FindFiscalPeriodForDate(ctx, tenantID, payment.PaymentDate)
	if err != nil {
		return nil, fmt.Errorf("%w: no fiscal period covers %s", apperrors.ErrValidation, payment.PaymentDate.Format("2006-01-02"))
	}
	if period.IsClosed {
		err = fmt.Errorf("%w: period %s", apperrors.ErrPeriodClosed, period.Name)
		return nil, err
	}

	allocations, err := s.paymentRepo.FindAllocationsByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load allocations: %w", err)
	}
	allocated := decimal.Zero
	for _, a := range allocations {
		allocated = allocated.Add(a.Amount)
	}
	if !allocated.Equal(payment.Amount) {
		err = fmt.Errorf("%w: allocated %s, payment amount %s", apperrors.ErrAllocationMismatch, allocated.String(), payment.Amount.String())
		return nil, err
	}

	now := time.Now().UTC()
	journal, journalLines, err := s.engine.BuildPaymentJournal(ctx, *tenant, *payment, baseCurrency.Precision, period.PeriodID, userID, now)
	if err != nil {
		return nil, err
	}
	if err = s.engine.ApplyJournalInTx(ctx, tx, tenantID, journal, journalLines, userID, now); err != nil {
		return nil, err
	}
	if err = s.paymentRepo.MarkPaymentPostedInTx(ctx, tx, paymentID, journal.JournalID, userID, now); err != nil {
		return nil, err
	}

	// consistent lock order avoids deadlocks between overlapping posts
	sort.Slice(allocations, func(i, j int) bool { return allocations[i].InvoiceID < allocations[j].InvoiceID })
	for _, allocation := range allocations {
		if err = s.settleInvoiceInTx(ctx, tx, tenantID, allocation, userID, now); err != nil {
			return nil, err
		}
	}

	if err = s.paymentRepo.Commit(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to commit posting transaction: %w", err)
	}
	committed = true

	changes = statusChange(payment.Status, domain.StatusPosted)
	changes["journalID"] = domain.FieldChange{From: nil, To: journal.JournalID}

	logger.Info("Payment posted",
		slog.String("payment_id", paymentID),
		slog.String("journal_id", journal.JournalID),
		slog.Int("settled_invoices", len(allocations)),
	)

	payment.Status = domain.StatusPosted
	payment.JournalID = &journal.JournalID
	payment.Allocations = allocations
	return payment, nil
}

// settleInvoiceInTx applies one allocation to its locked invoice: paid amount
// grows, balance shrinks, and the status derives from the remaining balance.
func (s *paymentService) settleInvoiceInTx(ctx context.Context, tx pgx.Tx, tenantID string, allocation domain.PaymentAllocation, userID string, now time.Time) error {
	invoice, err := s.invoiceRepo.FindInvoiceByIDForUpdate(ctx, tx, tenantID, allocation.InvoiceID)
	if err != nil {
		return err
	}
	if invoice.Status != domain.StatusPosted && invoice.Status != domain.StatusPartial {
		return fmt.Errorf("%w: invoice %s is not open for settlement", apperrors.ErrConflict, allocation.InvoiceID)
	}
	if allocation.Amount.GreaterThan(invoice.BalanceAmount) {
		return fmt.Errorf("%w: allocation %s exceeds remaining balance %s of invoice %s", apperrors.ErrOverAllocation, allocation.Amount.String(), invoice.BalanceAmount.String(), allocation.InvoiceID)
	}

	paid := invoice.PaidAmount.Add(allocation.Amount)
	balance := invoice.TotalAmount.Sub(paid)
	status := domain.StatusPartial
	if balance.IsZero() {
		status = domain.StatusPaid
	}
	return s.invoiceRepo.UpdateInvoiceBalanceInTx(ctx, tx, allocation.InvoiceID, paid, balance, status, userID, now)
}
