package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/user/onboardflow/internal/domain"
)

// BillingUseCase applies verified payment events to tenant accounts.
type BillingUseCase struct {
	tenants domain.TenantRepository
	logger  *slog.Logger
}

// NewBillingUseCase creates a new billing use case.
func NewBillingUseCase(tenants domain.TenantRepository, logger *slog.Logger) *BillingUseCase {
	return &BillingUseCase{tenants: tenants, logger: logger}
}

// HandleCheckoutCompleted unlocks the account matching the checkout email:
// hasAccess flips on, the Stripe customer id is recorded, and a license key
// is minted. A checkout for an unknown email is logged and dropped, since the
// webhook must still be acknowledged.
func (uc *BillingUseCase) HandleCheckoutCompleted(ctx context.Context, email, stripeCustomerID string) error {
	if email == "" {
		return nil
	}

	tenant, err := uc.tenants.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrTenantNotFound) {
		uc.logger.Warn("checkout completed for unknown tenant", "email", email)
		return nil
	} else if err != nil {
		return fmt.Errorf("looking up tenant: %w", err)
	}

	licenseKey := uuid.NewString()
	if err := uc.tenants.UpdateAccess(ctx, tenant.ID, true, stripeCustomerID, licenseKey); err != nil {
		uc.logger.Error("failed to unlock tenant", "error", err, "tenant_id", tenant.ID)
		return fmt.Errorf("unlocking tenant: %w", err)
	}

	uc.logger.Info("tenant unlocked after checkout", "tenant_id", tenant.ID)
	return nil
}
