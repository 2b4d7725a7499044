package repositories

import (
	"context"

	"github.com/finbooks/finbooks_backend/internal/core/domain"
)

// TenantRepository defines operations for tenant data.
type TenantRepository interface {
	// SaveTenant persists a new tenant.
	SaveTenant(ctx context.Context, tenant domain.Tenant) error

	// FindTenantByID retrieves a tenant.
	FindTenantByID(ctx context.Context, tenantID string) (*domain.Tenant, error)
}

// UserRepository defines operations for user data.
type UserRepository interface {
	// SaveUser persists a new user.
	SaveUser(ctx context.Context, user domain.User) error

	// FindUserByID retrieves a user by ID.
	FindUserByID(ctx context.Context, userID string) (*domain.User, error)

	// FindUserByEmail retrieves a user by email for authentication.
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
}
