package services

import (
	"context"

	"github.com/finbooks/finbooks_backend/internal/core/domain"
	"github.com/finbooks/finbooks_backend/internal/dto"
)

// AuthSvcFacade provisions tenants and authenticates users.
type AuthSvcFacade interface {
	Register(ctx context.Context, req dto.RegisterRequest) (*dto.LoginResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	GetUserByID(ctx context.Context, tenantID string, userID string) (*domain.User, error)
}

// TenantSvcFacade reads tenant settings.
type TenantSvcFacade interface {
	GetTenantByID(ctx context.Context, tenantID string) (*domain.Tenant, error)
}
