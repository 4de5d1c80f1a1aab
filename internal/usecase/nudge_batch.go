package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/user/onboardflow/internal/domain"
)

// ManualNudgeUseCase runs the operator-triggered bulk nudge for one tenant
// and one explicit target step. It ignores the tenant's automation gate and
// all time-since-signup thresholds, and never records de-duplication tags:
// an operator may re-nudge the same cohort repeatedly.
type ManualNudgeUseCase struct {
	users      domain.EndUserRepository
	dispatcher *Dispatcher
	logger     *slog.Logger
}

// NewManualNudgeUseCase creates a new manual nudge use case.
func NewManualNudgeUseCase(users domain.EndUserRepository, dispatcher *Dispatcher, logger *slog.Logger) *ManualNudgeUseCase {
	return &ManualNudgeUseCase{
		users:      users,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Run evaluates the manual rule across the tenant's full user list and
// dispatches to everyone eligible. It returns the number of emails sent.
//
// An unset goal event name for the target step fails the whole batch with
// domain.ErrStepNotConfigured before any user is evaluated. No eligible
// users is a zero-count success, not an error.
func (uc *ManualNudgeUseCase) Run(ctx context.Context, tenant *domain.Tenant, targetStep string) (int, error) {
	step := domain.ParseNudgeStep(targetStep)
	if step == domain.NudgeStepNone {
		return 0, domain.ErrStepNotConfigured
	}

	cfg, err := ResolveStepConfig(tenant, step)
	if err != nil {
		return 0, err
	}

	users, err := uc.users.ListByTenant(ctx, tenant.ID)
	if err != nil {
		uc.logger.Error("failed to list end users", "error", err, "tenant_id", tenant.ID)
		return 0, fmt.Errorf("listing users: %w", err)
	}

	var batch []Candidate
	for _, u := range users {
		if !EvaluateManual(cfg, &u) {
			continue
		}
		batch = append(batch, Candidate{
			User: u,
			Selection: domain.Selection{
				Step:    cfg.Step,
				Subject: cfg.Subject,
				Body:    cfg.Body,
				// No tag: manual nudges are not recorded against the
				// de-duplication set.
			},
		})
	}
	if len(batch) == 0 {
		return 0, nil
	}

	res := uc.dispatcher.Dispatch(ctx, tenant, batch, "manual")
	uc.logger.Info("manual nudge batch finished",
		"tenant_id", tenant.ID,
		"target_step", step.String(),
		"candidates", len(batch),
		"sent", res.Sent,
	)
	return res.Sent, nil
}
