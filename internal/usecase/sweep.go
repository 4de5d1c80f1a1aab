package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/user/onboardflow/internal/adapter/metrics"
	"github.com/user/onboardflow/internal/domain"
)

// TenantSweep is the per-tenant breakdown of a sweep run.
type TenantSweep struct {
	TenantID   uuid.UUID `json:"tenant_id"`
	Candidates int       `json:"candidates"`
	Sent       int       `json:"sent"`
}

// SweepResult summarizes one full sweep invocation.
type SweepResult struct {
	TenantsScanned  int           `json:"tenants_scanned"`
	CandidatesFound int           `json:"candidates_found"`
	EmailsSent      int           `json:"emails_sent"`
	PerTenant       []TenantSweep `json:"per_tenant,omitempty"`
}

// SweepUseCase scans every automation-enabled tenant's users, evaluates the
// scheduled-sweep rule, and hands per-tenant batches to the dispatcher.
//
// There is no persisted watermark: every invocation re-scans the full user
// list, and the tag set recorded by the dispatcher is what makes repeated
// runs converge. Two overlapping invocations can still race on the same user
// between read and write; the store's conditional tag append suppresses the
// second write but not the second send.
type SweepUseCase struct {
	tenants    domain.TenantRepository
	users      domain.EndUserRepository
	dispatcher *Dispatcher
	logger     *slog.Logger
	metrics    *metrics.EngineMetrics
	now        func() time.Time
}

// NewSweepUseCase creates a new sweep use case. metrics may be nil.
func NewSweepUseCase(tenants domain.TenantRepository, users domain.EndUserRepository, dispatcher *Dispatcher, logger *slog.Logger, m *metrics.EngineMetrics) *SweepUseCase {
	return &SweepUseCase{
		tenants:    tenants,
		users:      users,
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    m,
		now:        time.Now,
	}
}

// Run executes one sweep pass. A failed tenant or user list fetch is fatal to
// the whole run; everything after that point is isolated per user by the
// dispatcher.
func (uc *SweepUseCase) Run(ctx context.Context, opts SweepOptions) (SweepResult, error) {
	started := uc.now()
	var res SweepResult

	tenants, err := uc.tenants.ListAutomationEnabled(ctx)
	if err != nil {
		uc.logger.Error("failed to list automation-enabled tenants", "error", err)
		return res, fmt.Errorf("listing tenants: %w", err)
	}

	uc.logger.Info("sweep started", "tenants", len(tenants))

	for i := range tenants {
		tenant := &tenants[i]
		res.TenantsScanned++

		users, err := uc.fetchUsers(ctx, tenant, opts)
		if err != nil {
			uc.logger.Error("failed to list end users", "error", err, "tenant_id", tenant.ID)
			return res, fmt.Errorf("listing users for tenant %s: %w", tenant.ID, err)
		}

		now := uc.now().UTC()
		var batch []Candidate
		for _, u := range users {
			sel := EvaluateSweep(tenant, &u, now, opts)
			if sel.None() {
				continue
			}
			batch = append(batch, Candidate{User: u, Selection: sel})
		}
		if len(batch) == 0 {
			continue
		}

		dr := uc.dispatcher.Dispatch(ctx, tenant, batch, "sweep")
		res.CandidatesFound += len(batch)
		res.EmailsSent += dr.Sent
		res.PerTenant = append(res.PerTenant, TenantSweep{
			TenantID:   tenant.ID,
			Candidates: len(batch),
			Sent:       dr.Sent,
		})
	}

	if uc.metrics != nil {
		uc.metrics.SweepRuns.Inc()
		uc.metrics.SweepDuration.Set(uc.now().Sub(started).Seconds())
	}
	uc.logger.Info("sweep finished",
		"tenants", res.TenantsScanned,
		"candidates", res.CandidatesFound,
		"emails_sent", res.EmailsSent,
	)
	return res, nil
}

// fetchUsers narrows the scan with the never-emailed query when the rule
// variant asks for it; the evaluator still re-checks every gate.
func (uc *SweepUseCase) fetchUsers(ctx context.Context, tenant *domain.Tenant, opts SweepOptions) ([]domain.EndUser, error) {
	if opts.RequireNeverEmailed {
		cutoff := uc.now().UTC().Add(-opts.Step1Delay)
		return uc.users.ListNeverEmailed(ctx, tenant.ID, cutoff)
	}
	return uc.users.ListByTenant(ctx, tenant.ID)
}
