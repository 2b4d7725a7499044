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
	"github.com/finbooks/finbooks_backend/internal/utils/auditdiff"
)

// accountService manages the tenant's chart of accounts.
type accountService struct {
	accountRepo   portsrepo.AccountRepositoryFacade
	currencySvc   portssvc.CurrencySvcFacade
	auditRecorder portssvc.AuditRecorder
	auditExclude  []string
}

// NewAccountService creates a new AccountService. Fields named in
// auditExclude are left out of the audit trail diffs this service records.
func NewAccountService(accountRepo portsrepo.AccountRepositoryFacade, currencySvc portssvc.CurrencySvcFacade, auditRecorder portssvc.AuditRecorder, auditExclude []string) portssvc.AccountSvcFacade {
	return &accountService{
		accountRepo:   accountRepo,
		currencySvc:   currencySvc,
		auditRecorder: auditRecorder,
		auditExclude:  auditExclude,
	}
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

func accountSnapshot(account domain.Account) map[string]interface{} {
	return map[string]interface{}{
		"name":             account.Name,
		"description":      account.Description,
		"accountType":      string(account.AccountType),
		"balanceType":      string(account.BalanceType),
		"isPostingAllowed": account.IsPostingAllowed,
		"isActive":         account.IsActive,
	}
}

// CreateAccount creates a new ledger account. The balance type defaults to
// the normal side of the account type when not supplied.
func (s *accountService) CreateAccount(ctx context.Context, tenantID string, req dto.CreateAccountRequest, creatorUserID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	start := time.Now()

	if _, err := s.currencySvc.GetCurrencyByCode(ctx, req.CurrencyCode); err != nil {
		return nil, fmt.Errorf("%w: unknown currency %s", apperrors.ErrValidation, req.CurrencyCode)
	}
	if req.ParentAccountID != nil {
		if _, err := s.accountRepo.FindAccountByID(ctx, tenantID, *req.ParentAccountID); err != nil {
			return nil, fmt.Errorf("%w: parent account %s", apperrors.ErrNotFound, *req.ParentAccountID)
		}
	}

	balanceType := domain.NormalBalanceType(req.AccountType)
	if req.BalanceType != nil {
		balanceType = *req.BalanceType
	}

	now := time.Now().UTC()
	account := domain.Account{
		AccountID:        uuid.NewString(),
		TenantID:         tenantID,
		Code:             req.Code,
		Name:             req.Name,
		AccountType:      req.AccountType,
		BalanceType:      balanceType,
		CurrencyCode:     req.CurrencyCode,
		ParentAccountID:  req.ParentAccountID,
		SystemCode:       req.SystemCode,
		Description:      req.Description,
		IsPostingAllowed: req.IsPostingAllowed,
		IsActive:         true,
		Balance:          decimal.Zero,
		AuditFields:      newAuditFields(creatorUserID, now),
	}

	err := s.accountRepo.SaveAccount(ctx, account)
	recordAudit(ctx, s.auditRecorder, tenantID, creatorUserID, domain.AuditCreate, entityAccount, account.AccountID, nil, start, err)
	if err != nil {
		logger.Error("Failed to save account", slog.String("error", err.Error()), slog.String("code", req.Code))
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	logger.Info("Account created", slog.String("account_id", account.AccountID), slog.String("code", account.Code))
	return &account, nil
}

// GetAccountByID retrieves an account within a tenant.
func (s *accountService) GetAccountByID(ctx context.Context, tenantID string, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, tenantID, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to find account %s: %w", accountID, err)
	}
	return account, nil
}

// ListAccounts lists the tenant's chart of accounts.
func (s *accountService) ListAccounts(ctx context.Context, tenantID string, params dto.ListAccountsParams) ([]domain.Account, error) {
	accounts, err := s.accountRepo.ListAccounts(ctx, tenantID, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	filtered := accounts[:0]
	for _, account := range accounts {
		if params.AccountType != nil && account.AccountType != *params.AccountType {
			continue
		}
		if params.ActiveOnly && !account.IsActive {
			continue
		}
		filtered = append(filtered, account)
	}
	return filtered, nil
}

// UpdateAccount updates account attributes. AccountType and BalanceType may
// only change while no journal line references the account.
func (s *accountService) UpdateAccount(ctx context.Context, tenantID string, accountID string, req dto.UpdateAccountRequest, userID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	start := time.Now()

	current, err := s.accountRepo.FindAccountByID(ctx, tenantID, accountID)
	if err != nil {
		return nil, err
	}

	updated := *current
	if req.Name != nil {
		updated.Name = *req.Name
	}
	if req.Description != nil {
		updated.Description = *req.Description
	}
	if req.IsPostingAllowed != nil {
		updated.IsPostingAllowed = *req.IsPostingAllowed
	}
	if req.AccountType != nil {
		updated.AccountType = *req.AccountType
	}
	if req.BalanceType != nil {
		updated.BalanceType = *req.BalanceType
	}

	if updated.AccountType != current.AccountType || updated.BalanceType != current.BalanceType {
		referenced, err := s.accountRepo.HasJournalLines(ctx, accountID)
		if err != nil {
			return nil, fmt.Errorf("failed to check journal references: %w", err)
		}
		if referenced {
			return nil, fmt.Errorf("%w: account %s is referenced by journal lines, its type is immutable", apperrors.ErrValidation, current.Code)
		}
	}

	now := time.Now().UTC()
	updated.LastUpdatedAt = now
	updated.LastUpdatedBy = userID

	err = s.accountRepo.UpdateAccount(ctx, updated)
	changes := auditdiff.Diff(accountSnapshot(*current), accountSnapshot(updated), s.auditExclude)
	recordAudit(ctx, s.auditRecorder, tenantID, userID, domain.AuditUpdate, entityAccount, accountID, changes, start, err)
	if err != nil {
		logger.Error("Failed to update account", slog.String("error", err.Error()), slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to update account: %w", err)
	}
	return &updated, nil
}

// DeactivateAccount marks an account inactive. Control accounts and accounts
// carrying a balance stay active.
func (s *accountService) DeactivateAccount(ctx context.Context, tenantID string, accountID string, userID string) (err error) {
	start := time.Now()
	defer func() {
		recordAudit(ctx, s.auditRecorder, tenantID, userID, domain.AuditDeactivate, entityAccount, accountID, nil, start, err)
	}()

	account, err := s.accountRepo.FindAccountByID(ctx, tenantID, accountID)
	if err != nil {
		return err
	}
	if account.SystemCode != nil {
		err = fmt.Errorf("%w: system account %s cannot be deactivated", apperrors.ErrValidation, account.Code)
		return err
	}
	if !account.Balance.IsZero() {
		err = fmt.Errorf("%w: account %s carries a balance of %s", apperrors.ErrValidation, account.Code, account.Balance.String())
		return err
	}
	err = s.accountRepo.DeactivateAccount(ctx, tenantID, accountID, userID, time.Now().UTC())
	return err
}
