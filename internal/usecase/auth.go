package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/user/onboardflow/internal/domain"
	"github.com/user/onboardflow/internal/pkg/token"
)

// AuthUseCase handles founder signup and login, issuing session JWTs.
type AuthUseCase struct {
	tenants    domain.TenantRepository
	logger     *slog.Logger
	jwtSecret  string
	sessionTTL time.Duration
	now        func() time.Time
}

// NewAuthUseCase creates a new auth use case.
func NewAuthUseCase(tenants domain.TenantRepository, logger *slog.Logger, jwtSecret string, sessionTTL time.Duration) *AuthUseCase {
	return &AuthUseCase{
		tenants:    tenants,
		logger:     logger,
		jwtSecret:  jwtSecret,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

// Signup creates the tenant row for a new founder account and returns a
// session token. Signing up an email that already has a tenant fails.
func (uc *AuthUseCase) Signup(ctx context.Context, email, password, name string) (*domain.Tenant, string, error) {
	if email == "" || password == "" {
		return nil, "", domain.ErrUnauthorized
	}

	if _, err := uc.tenants.GetByEmail(ctx, email); err == nil {
		return nil, "", fmt.Errorf("signup for %s: %w", email, domain.ErrDuplicateUser)
	} else if !errors.Is(err, domain.ErrTenantNotFound) {
		return nil, "", fmt.Errorf("looking up tenant: %w", err)
	}

	hash, err := token.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("hashing password: %w", err)
	}
	apiKey, err := NewAPIKey()
	if err != nil {
		return nil, "", err
	}

	if name == "" {
		name = "Founder"
	}
	tenant := &domain.Tenant{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		APIKey:       apiKey,
		PasswordHash: hash,
		CreatedAt:    uc.now().UTC(),
	}
	if err := uc.tenants.Create(ctx, tenant); err != nil {
		uc.logger.Error("failed to create tenant", "error", err, "email", email)
		return nil, "", fmt.Errorf("creating tenant: %w", err)
	}

	t, err := token.Generate(email, uc.jwtSecret, uc.sessionTTL)
	if err != nil {
		return nil, "", fmt.Errorf("issuing session token: %w", err)
	}
	uc.logger.Info("tenant created", "tenant_id", tenant.ID)
	return tenant, t, nil
}

// Login verifies the founder's password and returns a session token.
func (uc *AuthUseCase) Login(ctx context.Context, email, password string) (string, error) {
	tenant, err := uc.tenants.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrTenantNotFound) {
		return "", domain.ErrUnauthorized
	} else if err != nil {
		return "", fmt.Errorf("looking up tenant: %w", err)
	}

	if err := token.CheckPassword(tenant.PasswordHash, password); err != nil {
		uc.logger.Warn("failed login attempt", "email", email)
		return "", domain.ErrUnauthorized
	}

	return token.Generate(email, uc.jwtSecret, uc.sessionTTL)
}
