package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/user/onboardflow/internal/domain"
	"github.com/user/onboardflow/internal/domain/mocks"
)

func TestAnalyticsUseCase_Build(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tenant := testTenant()
	emailed := now.Add(-time.Hour)

	users := &mocks.MockEndUserRepository{Users: []domain.EndUser{
		{ID: uuid.New(), TenantID: tenant.ID, Email: "a@x.co", CreatedAt: now,
			CompletedSteps: domain.StepSet{"connect_repo", "invite_teammate"}},
		{ID: uuid.New(), TenantID: tenant.ID, Email: "b@x.co", CreatedAt: now,
			CompletedSteps: domain.StepSet{"connect_repo"}, LastEmailedAt: &emailed},
		{ID: uuid.New(), TenantID: tenant.ID, Email: "c@x.co", CreatedAt: now.AddDate(0, 0, -1)},
		{ID: uuid.New(), TenantID: tenant.ID, Email: "d@x.co", CreatedAt: now.AddDate(0, 0, -40)},
	}}

	uc := NewAnalyticsUseCase(users)
	uc.now = func() time.Time { return now }

	a, err := uc.Build(context.Background(), tenant)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if a.TotalUsers != 4 || a.ActiveUsers != 2 {
		t.Errorf("unexpected totals: %+v", a)
	}

	// Signup, step1, step2, step3 — all steps configured on the test tenant.
	if len(a.FunnelData) != 4 {
		t.Fatalf("expected 4 funnel stages, got %d", len(a.FunnelData))
	}
	if a.FunnelData[1].Count != 2 || a.FunnelData[1].Percent != 50 {
		t.Errorf("unexpected step-1 stage: %+v", a.FunnelData[1])
	}
	if a.FunnelData[2].Count != 1 {
		t.Errorf("unexpected step-2 stage: %+v", a.FunnelData[2])
	}

	if a.Recovery.Recovered != 1 || a.Recovery.Organic != 1 {
		t.Errorf("unexpected recovery split: %+v", a.Recovery)
	}

	if len(a.TrendData) != 30 {
		t.Fatalf("expected 30 trend points, got %d", len(a.TrendData))
	}
	today := a.TrendData[len(a.TrendData)-1]
	if today.Signups != 2 || today.Activations != 2 {
		t.Errorf("unexpected today's trend point: %+v", today)
	}
	yesterday := a.TrendData[len(a.TrendData)-2]
	if yesterday.Signups != 1 || yesterday.Activations != 0 {
		t.Errorf("unexpected yesterday's trend point: %+v", yesterday)
	}

	if len(a.UserMatrix) != 4 {
		t.Errorf("expected 4 matrix rows, got %d", len(a.UserMatrix))
	}
	if a.UserMatrix[0].Step2 == nil || !*a.UserMatrix[0].Step2 {
		t.Errorf("expected step 2 checked for first user: %+v", a.UserMatrix[0])
	}
}

func TestAnalyticsUseCase_UndefinedStepsOmitted(t *testing.T) {
	tenant := testTenant()
	tenant.Step2 = ""
	tenant.Step3 = ""
	users := &mocks.MockEndUserRepository{Users: []domain.EndUser{
		{ID: uuid.New(), TenantID: tenant.ID, Email: "a@x.co"},
	}}

	a, err := NewAnalyticsUseCase(users).Build(context.Background(), tenant)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(a.FunnelData) != 2 {
		t.Errorf("expected only signup and step-1 stages, got %d", len(a.FunnelData))
	}
	if a.UserMatrix[0].Step2 != nil || a.UserMatrix[0].Step3 != nil {
		t.Error("undefined steps must be nil in the matrix")
	}
}
