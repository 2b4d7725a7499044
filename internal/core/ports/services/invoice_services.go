package services

import (
	"context"

	"github.com/finbooks/finbooks_backend/internal/core/domain"
	"github.com/finbooks/finbooks_backend/internal/dto"
)

// InvoiceSvcFacade drives invoices through their lifecycle. Post
// generates the balanced journal and applies it to account balances
// atomically.
type InvoiceSvcFacade interface {
	CreateInvoice(ctx context.Context, tenantID string, req dto.CreateInvoiceRequest, creatorUserID string) (*domain.Invoice, error)
	GetInvoiceByID(ctx context.Context, tenantID string, invoiceID string) (*domain.Invoice, error)
	ListInvoices(ctx context.Context, tenantID string, params dto.ListInvoicesParams) (*dto.ListInvoicesResponse, error)
	UpdateDraftInvoice(ctx context.Context, tenantID string, invoiceID string, req dto.UpdateInvoiceRequest, userID string) (*domain.Invoice, error)
	SubmitInvoice(ctx context.Context, tenantID string, invoiceID string, userID string) (*domain.Invoice, error)
	ApproveInvoice(ctx context.Context, tenantID string, invoiceID string, userID string) (*domain.Invoice, error)
	PostInvoice(ctx context.Context, tenantID string, invoiceID string, userID string) (*domain.Invoice, error)
	CancelInvoice(ctx context.Context, tenantID string, invoiceID string, userID string) (*domain.Invoice, error)
}
