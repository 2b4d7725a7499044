package services

import (
	"context"

	"github.com/finbooks/finbooks_backend/internal/core/domain"
	"github.com/finbooks/finbooks_backend/internal/dto"
)

// JournalSvcFacade manages manual journals and reversals. Journals
// generated from invoices and payments are posted by their source
// services and are read-only here.
type JournalSvcFacade interface {
	CreateManualJournal(ctx context.Context, tenantID string, req dto.CreateJournalRequest, creatorUserID string) (*domain.Journal, error)
	GetJournalByID(ctx context.Context, tenantID string, journalID string) (*domain.Journal, error)
	ListJournals(ctx context.Context, tenantID string, params dto.ListJournalsParams) (*dto.ListJournalsResponse, error)
	SubmitJournal(ctx context.Context, tenantID string, journalID string, userID string) (*domain.Journal, error)
	ApproveJournal(ctx context.Context, tenantID string, journalID string, userID string) (*domain.Journal, error)
	PostJournal(ctx context.Context, tenantID string, journalID string, userID string) (*domain.Journal, error)
	CancelJournal(ctx context.Context, tenantID string, journalID string, userID string) (*domain.Journal, error)
	ReverseJournal(ctx context.Context, tenantID string, journalID string, userID string) (*domain.Journal, error)
	ListAccountLedger(ctx context.Context, tenantID string, accountID string, params dto.ListAccountLedgerParams) (*dto.ListAccountLedgerResponse, error)
}
