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
)

// journalService manages manual journals and reversals.
type journalService struct {
	journalRepo      portsrepo.JournalRepositoryWithTx
	accountRepo      portsrepo.AccountRepositoryFacade
	fiscalPeriodRepo portsrepo.FiscalPeriodRepository
	tenantSvc        portssvc.TenantSvcFacade
	currencySvc      portssvc.CurrencySvcFacade
	auditRecorder    portssvc.AuditRecorder
	engine           *postingEngine
}

// NewJournalService creates a new JournalService.
func NewJournalService(
	journalRepo portsrepo.JournalRepositoryWithTx,
	accountRepo portsrepo.AccountRepositoryFacade,
	fiscalPeriodRepo portsrepo.FiscalPeriodRepository,
	tenantSvc portssvc.TenantSvcFacade,
	currencySvc portssvc.CurrencySvcFacade,
	auditRecorder portssvc.AuditRecorder,
	engine *postingEngine,
) portssvc.JournalSvcFacade {
	return &journalService{
		journalRepo:      journalRepo,
		accountRepo:      accountRepo,
		fiscalPeriodRepo: fiscalPeriodRepo,
		tenantSvc:        tenantSvc,
		currencySvc:      currencySvc,
		auditRecorder:    auditRecorder,
		engine:           engine,
	}
}

var _ portssvc.JournalSvcFacade = (*journalService)(nil)

// CreateManualJournal creates a draft manual journal after validating the
// double-entry invariant and every referenced account.
func (s *journalService) CreateManualJournal(ctx context.Context, tenantID string, req dto.CreateJournalRequest, creatorUserID string) (*domain.Journal, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	start := time.Now()

	tenant, err := s.tenantSvc.GetTenantByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if req.CurrencyCode != tenant.BaseCurrencyCode {
		return nil, fmt.Errorf("%w: manual journals must use the tenant base currency %s", apperrors.ErrValidation, tenant.BaseCurrencyCode)
	}
	currency, err := s.currencySvc.GetCurrencyByCode(ctx, req.CurrencyCode)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown currency %s", apperrors.ErrValidation, req.CurrencyCode)
	}
	period, err := s.fiscalPeriodRepo.FindFiscalPeriodForDate(ctx, tenantID, req.TransactionDate)
	if err != nil {
		return nil, fmt.Errorf("%w: no fiscal period covers %s", apperrors.ErrValidation, req.TransactionDate.Format("2006-01-02"))
	}

	now := time.Now().UTC()
	journalID := uuid.NewString()
	audit := newAuditFields(creatorUserID, now)
	lines := make([]domain.JournalLine, len(req.Lines))
	accountIDs := make([]string, 0, len(req.Lines))
	accountSet := make(map[string]bool)
	for i, lr := range req.Lines {
		lines[i] = domain.JournalLine{
			LineID:       uuid.NewString(),
			JournalID:    journalID,
			AccountID:    lr.AccountID,
			Debit:        lr.Debit,
			Credit:       lr.Credit,
			CostCenterID: lr.CostCenterID,
			Description:  lr.Description,
			AuditFields:  audit,
		}
		if !accountSet[lr.AccountID] {
			accountSet[lr.AccountID] = true
			accountIDs = append(accountIDs, lr.AccountID)
		}
	}
	if len(accountIDs) < 2 {
		return nil, fmt.Errorf("%w: journal must affect at least two different accounts", apperrors.ErrValidation)
	}
	if err := accounting.ValidateLinesBalance(lines, currency.Precision); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, tenantID, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}
	for _, id := range accountIDs {
		account, found := accounts[id]
		if !found {
			return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, id)
		}
		if !account.IsActive {
			return nil, fmt.Errorf("%w: account %s is inactive", apperrors.ErrValidation, account.Code)
		}
		if !account.IsPostingAllowed {
			return nil, fmt.Errorf("%w: account %s does not accept postings", apperrors.ErrValidation, account.Code)
		}
	}

	debitTotal := decimal.Zero
	for _, line := range lines {
		debitTotal = debitTotal.Add(line.Debit)
	}
	journal := domain.Journal{
		JournalID:       journalID,
		TenantID:        tenantID,
		SourceType:      domain.SourceManual,
		TransactionDate: req.TransactionDate,
		Description:     req.Description,
		CurrencyCode:    req.CurrencyCode,
		Status:          domain.StatusDraft,
		FiscalPeriodID:  period.PeriodID,
		Amount:          debitTotal,
		AuditFields:     audit,
	}

	err = s.journalRepo.SaveDraftJournal(ctx, journal, lines)
	recordAudit(ctx, s.auditRecorder, tenantID, creatorUserID, domain.AuditCreate, entityJournal, journalID, nil, start, err)
	if err != nil {
		logger.Error("Failed to save journal", slog.String("error", err.Error()), slog.String("tenant_id", tenantID))
		return nil, fmt.Errorf("failed to save journal: %w", err)
	}

	logger.Info("Manual journal created", slog.String("journal_id", journalID), slog.String("amount", debitTotal.String()))
	journal.Lines = lines
	return &journal, nil
}

// GetJournalByID retrieves a journal with its lines.
func (s *journalService) GetJournalByID(ctx context.Context, tenantID string, journalID string) (*domain.Journal, error) {
	journal, err := s.journalRepo.FindJournalByID(ctx, tenantID, journalID)
	if err != nil {
		return nil, fmt.Errorf("failed to find journal %s: %w", journalID, err)
	}
	lines, err := s.journalRepo.FindJournalLines(ctx, journalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load journal lines: %w", err)
	}
	journal.Lines = lines
	return journal, nil
}

// ListJournals retrieves one page of the tenant's journals.
func (s *journalService) ListJournals(ctx context.Context, tenantID string, params dto.ListJournalsParams) (*dto.ListJournalsResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	filter := portsrepo.JournalListFilter{
		SourceType: params.SourceType,
		Status:     params.Status,
	}
	journals, nextToken, err := s.journalRepo.ListJournals(ctx, tenantID, filter, limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list journals: %w", err)
	}
	return &dto.ListJournalsResponse{Journals: journals, NextToken: nextToken}, nil
}

// SubmitJournal moves a draft manual journal to SUBMITTED.
func (s *journalService) SubmitJournal(ctx context.Context, tenantID string, journalID string, userID string) (j *domain.Journal, err error) {
	start := time.Now()
	defer func() {
		recordAudit(ctx, s.auditRecorder, tenantID, userID, domain.AuditSubmit, entityJournal, journalID, nil, start, err)
	}()
	return s.transition(ctx, tenantID, journalID, domain.ActionSubmit, userID)
}

// ApproveJournal moves a submitted manual journal to APPROVED. Unless the
// tenant allows self-approval, the approver must differ from the creator.
func (s *journalService) ApproveJournal(ctx context.Context, tenantID string, journalID string, userID string) (j *domain.Journal, err error) {
	start := time.Now()
	defer func() {
		recordAudit(ctx, s.auditRecorder, tenantID, userID, domain.AuditApprove, entityJournal, journalID, nil, start, err)
	}()

	journal, err := s.journalRepo.FindJournalByID(ctx, tenantID, journalID)
	if err != nil {
		return nil, err
	}
	tenant, err := s.tenantSvc.GetTenantByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !tenant.AllowSelfApproval && journal.CreatedBy == userID {
		err = fmt.Errorf("%w: creator cannot approve their own journal", apperrors.ErrForbidden)
		return nil, err
	}
	return s.transition(ctx, tenantID, journalID, domain.ActionApprove, userID)
}

// CancelJournal cancels a draft or submitted manual journal.
func (s *journalService) CancelJournal(ctx context.Context, tenantID string, journalID string, userID string) (j *domain.Journal, err error) {
	start := time.Now()
	defer func() {
		recordAudit(ctx, s.auditRecorder, tenantID, userID, domain.AuditCancel, entityJournal, journalID, nil, start, err)
	}()
	return s.transition(ctx, tenantID, journalID, domain.ActionCancel, userID)
}

func (s *journalService) transition(ctx context.Context, tenantID, journalID string, action domain.DocumentAction, userID string) (*domain.Journal, error) {
	journal, err := s.journalRepo.FindJournalByID(ctx, tenantID, journalID)
	if err != nil {
		return nil, err
	}
	if journal.SourceType != domain.SourceManual {
		return nil, fmt.Errorf("%w: %s journals are managed by their source document", apperrors.ErrStateTransition, journal.SourceType)
	}
	to, err := domain.NextStatus(journal.Status, action)
	if err != nil {
		return nil, err
	}
	if err := s.journalRepo.UpdateJournalStatus(ctx, tenantID, journalID, journal.Status, to, userID, time.Now().UTC()); err != nil {
		return nil, err
	}
	journal.Status = to
	return journal, nil
}

// PostJournal posts an approved manual journal: it locks the journal row,
// revalidates the balance and applies the lines to account balances in one
// transaction.
func (s *journalService) PostJournal(ctx context.Context, tenantID string, journalID string, userID string) (j *domain.Journal, err error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	start := time.Now()
	var changes map[string]domain.FieldChange
	defer func() {
		recordAudit(ctx, s.auditRecorder, tenantID, userID, domain.AuditPost, entityJournal, journalID, changes, start, err)
	}()

	tx, err := s.journalRepo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin posting transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = s.journalRepo.Rollback(ctx, tx)
		}
	}()

	journal, err := s.journalRepo.FindJournalByIDForUpdate(ctx, tx, tenantID, journalID)
	if err != nil {
		return nil, err
	}
	if journal.SourceType != domain.SourceManual {
		err = fmt.Errorf("%w: %s journals are posted by their source document", apperrors.ErrStateTransition, journal.SourceType)
		return nil, err
	}
	if _, err = domain.NextStatus(journal.Status, domain.ActionPost); err != nil {
		if journal.Status == domain.StatusPosted {
			err = fmt.Errorf("%w: journal %s is already posted", apperrors.ErrConflict, journalID)
		}
		return nil, err
	}

	period, err := s.fiscalPeriodRepo.FindFiscalPeriodByID(ctx, tenantID, journal.FiscalPeriodID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve fiscal period: %w", err)
	}
	if period.IsClosed {
		err = fmt.Errorf("%w: period %s", apperrors.ErrPeriodClosed, period.Name)
		return nil, err
	}

	currency, err := s.currencySvc.GetCurrencyByCode(ctx, journal.CurrencyCode)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve journal currency: %w", err)
	}
	lines, err := s.journalRepo.FindJournalLines(ctx, journalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load journal lines: %w", err)
	}
	if err = accounting.ValidateLinesBalance(lines, currency.Precision); err != nil {
		err = fmt.Errorf("%w: journal %s: %v", apperrors.ErrPostingImbalance, journalID, err)
		return nil, err
	}

	now := time.Now().UTC()
	if err = s.engine.ApplyBalancesInTx(ctx, tx, tenantID, lines, userID, now); err != nil {
		return nil, err
	}
	if err = s.journalRepo.MarkJournalPostedInTx(ctx, tx, journalID, userID, now); err != nil {
		return nil, err
	}
	if err = s.journalRepo.Commit(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to commit posting transaction: %w", err)
	}
	committed = true

	changes = statusChange(journal.Status, domain.StatusPosted)
	logger.Info("Journal posted", slog.String("journal_id", journalID), slog.String("amount", journal.Amount.String()))

	journal.Status = domain.StatusPosted
	journal.Lines = lines
	return journal, nil
}

// ReverseJournal creates and posts a mirror journal for a posted journal and
// links it to the original. The original stays POSTED; a journal can be
// reversed only once.
func (s *journalService) ReverseJournal(ctx context.Context, tenantID string, journalID string, userID string) (j *domain.Journal, err error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	start := time.Now()
	var changes map[string]domain.FieldChange
	defer func() {
		recordAudit(ctx, s.auditRecorder, tenantID, userID, domain.AuditReverse, entityJournal, journalID, changes, start, err)
	}()

	tx, err := s.journalRepo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin reversal transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = s.journalRepo.Rollback(ctx, tx)
		}
	}()

	original, err := s.journalRepo.FindJournalByIDForUpdate(ctx, tx, tenantID, journalID)
	if err != nil {
		return nil, err
	}
	if original.Status != domain.StatusPosted {
		err = fmt.Errorf("%w: only posted journals can be reversed, journal %s is %s", apperrors.ErrStateTransition, journalID, original.Status)
		return nil, err
	}
	if original.ReversingJournalID != nil {
		err = fmt.Errorf("%w: journal %s is already reversed by %s", apperrors.ErrConflict, journalID, *original.ReversingJournalID)
		return nil, err
	}

	now := time.Now().UTC()
	period, err := s.fiscalPeriodRepo.FindFiscalPeriodForDate(ctx, tenantID, now)
	if err != nil {
		return nil, fmt.Errorf("%w: no fiscal period covers %s", apperrors.ErrValidation, now.Format("2006-01-02"))
	}
	if period.IsClosed {
		err = fmt.Errorf("%w: period %s", apperrors.ErrPeriodClosed, period.Name)
		return nil, err
	}

	originalLines, err := s.journalRepo.FindJournalLines(ctx, journalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load journal lines: %w", err)
	}

	reversing, reversingLines := s.engine.BuildReversingJournal(*original, originalLines, period.PeriodID, now, userID, now)
	if err = s.engine.ApplyJournalInTx(ctx, tx, tenantID, reversing, reversingLines, userID, now); err != nil {
		return nil, err
	}
	if err = s.journalRepo.UpdateJournalReversalLinksInTx(ctx, tx, journalID, reversing.JournalID, userID, now); err != nil {
		return nil, err
	}
	if err = s.journalRepo.Commit(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to commit reversal transaction: %w", err)
	}
	committed = true

	changes = map[string]domain.FieldChange{
		"reversingJournalID": {From: nil, To: reversing.JournalID},
	}
	logger.Info("Journal reversed", slog.String("journal_id", journalID), slog.String("reversing_journal_id", reversing.JournalID))

	reversing.Lines = reversingLines
	return &reversing, nil
}

// ListAccountLedger retrieves one page of posted journal lines for an account.
func (s *journalService) ListAccountLedger(ctx context.Context, tenantID string, accountID string, params dto.ListAccountLedgerParams) (*dto.ListAccountLedgerResponse, error) {
	if _, err := s.accountRepo.FindAccountByID(ctx, tenantID, accountID); err != nil {
		return nil, err
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	lines, nextToken, err := s.journalRepo.ListLinesByAccount(ctx, tenantID, accountID, limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list account ledger: %w", err)
	}
	return &dto.ListAccountLedgerResponse{Lines: lines, NextToken: nextToken}, nil
}
