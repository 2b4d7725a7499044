package services

import (
	"context"

	"github.com/finbooks/finbooks_backend/internal/core/domain"
	"github.com/finbooks/finbooks_backend/internal/dto"
)

// PaymentSvcFacade drives payments through their lifecycle. Allocate
// reserves part of the payment against an open invoice; Post writes
// the journal and settles the allocated invoices.
type PaymentSvcFacade interface {
	CreatePayment(ctx context.Context, tenantID string, req dto.CreatePaymentRequest, creatorUserID string) (*domain.Payment, error)
	GetPaymentByID(ctx context.Context, tenantID string, paymentID string) (*domain.Payment, error)
	ListPayments(ctx context.Context, tenantID string, params dto.ListPaymentsParams) (*dto.ListPaymentsResponse, error)
	AllocatePayment(ctx context.Context, tenantID string, paymentID string, req dto.AllocationRequest, userID string) (*domain.Payment, error)
	SubmitPayment(ctx context.Context, tenantID string, paymentID string, userID string) (*domain.Payment, error)
	ApprovePayment(ctx context.Context, tenantID string, paymentID string, userID string) (*domain.Payment, error)
	PostPayment(ctx context.Context, tenantID string, paymentID string, userID string) (*domain.Payment, error)
	CancelPayment(ctx context.Context, tenantID string, paymentID string, userID string) (*domain.Payment, error)
}
