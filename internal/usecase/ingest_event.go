package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/user/onboardflow/internal/adapter/metrics"
	"github.com/user/onboardflow/internal/domain"
)

// IngestEventUseCase handles the identify/track ingestion paths that mutate
// end-user progress. The nudge engine only consumes the resulting state.
type IngestEventUseCase struct {
	users   domain.EndUserRepository
	logger  *slog.Logger
	metrics *metrics.EngineMetrics
	now     func() time.Time
}

// NewIngestEventUseCase creates a new ingestion use case. metrics may be nil.
func NewIngestEventUseCase(users domain.EndUserRepository, logger *slog.Logger, m *metrics.EngineMetrics) *IngestEventUseCase {
	return &IngestEventUseCase{
		users:   users,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

// Identify finds or creates the end user for (tenant, email) and optionally
// records an event. The email doubles as the external id on this path.
func (uc *IngestEventUseCase) Identify(ctx context.Context, tenant *domain.Tenant, email, event string) (*domain.EndUser, error) {
	user, err := uc.users.GetByExternalID(ctx, tenant.ID, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		now := uc.now().UTC()
		user = &domain.EndUser{
			ID:         uuid.New(),
			TenantID:   tenant.ID,
			ExternalID: email,
			Email:      email,
			CreatedAt:  now,
			LastSeenAt: now,
		}
		if err := uc.users.Create(ctx, user); err != nil {
			uc.logger.Error("failed to create end user", "error", err, "tenant_id", tenant.ID)
			return nil, fmt.Errorf("creating end user: %w", err)
		}
		uc.logger.Debug("end user created", "tenant_id", tenant.ID, "external_id", email)
	} else if err != nil {
		return nil, fmt.Errorf("looking up end user: %w", err)
	}

	if event != "" {
		if err := uc.users.AddCompletedStep(ctx, user.ID, domain.EventName(event), uc.now().UTC()); err != nil {
			uc.logger.Error("failed to record event", "error", err, "user_id", user.ID, "event", event)
			return nil, fmt.Errorf("recording event: %w", err)
		}
		user.CompletedSteps = user.CompletedSteps.Add(domain.EventName(event))
	}

	if uc.metrics != nil {
		uc.metrics.EventsIngested.WithLabelValues("identify").Inc()
	}
	return user, nil
}

// Track records a step completion for an already-identified user. Unknown
// users are an error; callers must identify first.
func (uc *IngestEventUseCase) Track(ctx context.Context, tenant *domain.Tenant, externalID, stepID string) error {
	user, err := uc.users.GetByExternalID(ctx, tenant.ID, externalID)
	if err != nil {
		return err
	}

	if err := uc.users.AddCompletedStep(ctx, user.ID, domain.EventName(stepID), uc.now().UTC()); err != nil {
		uc.logger.Error("failed to record step", "error", err, "user_id", user.ID, "step", stepID)
		return fmt.Errorf("recording step: %w", err)
	}

	if uc.metrics != nil {
		uc.metrics.EventsIngested.WithLabelValues("track").Inc()
	}
	return nil
}
