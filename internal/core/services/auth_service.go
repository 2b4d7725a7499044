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
	"github.com/finbooks/finbooks_backend/internal/utils"
)

// AuthConfig carries the token-issuing parameters of the auth service.
type AuthConfig struct {
	JWTSecret   string
	TokenExpiry time.Duration
	Issuer      string
}

// authService provisions tenants and authenticates users.
type authService struct {
	tenantRepo  portsrepo.TenantRepository
	userRepo    portsrepo.UserRepository
	currencySvc portssvc.CurrencySvcFacade
	cfg         AuthConfig
}

// NewAuthService creates a new AuthService.
func NewAuthService(tenantRepo portsrepo.TenantRepository, userRepo portsrepo.UserRepository, currencySvc portssvc.CurrencySvcFacade, cfg AuthConfig) portssvc.AuthSvcFacade {
	return &authService{
		tenantRepo:  tenantRepo,
		userRepo:    userRepo,
		currencySvc: currencySvc,
		cfg:         cfg,
	}
}

var _ portssvc.AuthSvcFacade = (*authService)(nil)

// Register provisions a tenant with its first user and returns a login token.
// Self-approval defaults to off; a single-user tenant flips it on explicitly.
func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.LoginResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.currencySvc.GetCurrencyByCode(ctx, req.BaseCurrencyCode); err != nil {
		return nil, fmt.Errorf("%w: unknown currency %s", apperrors.ErrValidation, req.BaseCurrencyCode)
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	tenant := domain.Tenant{
		TenantID:          uuid.NewString(),
		Name:              req.TenantName,
		BaseCurrencyCode:  req.BaseCurrencyCode,
		AllowSelfApproval: false,
		IsActive:          true,
	}
	user := domain.User{
		UserID:       uuid.NewString(),
		TenantID:     tenant.TenantID,
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		IsActive:     true,
	}
	tenant.AuditFields = newAuditFields(user.UserID, now)
	user.AuditFields = newAuditFields(user.UserID, now)

	if err := s.tenantRepo.SaveTenant(ctx, tenant); err != nil {
		logger.Error("Failed to save tenant", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save tenant: %w", err)
	}
	if err := s.userRepo.SaveUser(ctx, user); err != nil {
		logger.Error("Failed to save user", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	token, err := utils.GenerateJWT(user.UserID, tenant.TenantID, s.cfg.JWTSecret, s.cfg.TokenExpiry, s.cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	logger.Info("Tenant registered", slog.String("tenant_id", tenant.TenantID), slog.String("user_id", user.UserID))
	return &dto.LoginResponse{Token: token, UserID: user.UserID, TenantID: tenant.TenantID}, nil
}

// Login authenticates a user by email and password.
func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	user, err := s.userRepo.FindUserByEmail(ctx, req.Email)
	if err != nil {
		// Same failure mode for unknown email and bad password
		return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrForbidden)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: user is inactive", apperrors.ErrForbidden)
	}
	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		logger.Warn("Failed login attempt", slog.String("user_id", user.UserID))
		return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrForbidden)
	}

	token, err := utils.GenerateJWT(user.UserID, user.TenantID, s.cfg.JWTSecret, s.cfg.TokenExpiry, s.cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &dto.LoginResponse{Token: token, UserID: user.UserID, TenantID: user.TenantID}, nil
}

// GetUserByID retrieves a user, hiding users of other tenants.
func (s *authService) GetUserByID(ctx context.Context, tenantID string, userID string) (*domain.User, error) {
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.TenantID != tenantID {
		return nil, apperrors.ErrNotFound
	}
	return user, nil
}

// tenantService reads tenant settings.
type tenantService struct {
	tenantRepo portsrepo.TenantRepository
}

// NewTenantService creates a new TenantService.
func NewTenantService(tenantRepo portsrepo.TenantRepository) portssvc.TenantSvcFacade {
	return &tenantService{tenantRepo: tenantRepo}
}

var _ portssvc.TenantSvcFacade = (*tenantService)(nil)

// GetTenantByID retrieves a tenant.
func (s *tenantService) GetTenantByID(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	tenant, err := s.tenantRepo.FindTenantByID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to find tenant %s: %w", tenantID, err)
	}
	if !tenant.IsActive {
		return nil, fmt.Errorf("%w: tenant is inactive", apperrors.ErrForbidden)
	}
	return tenant, nil
}
