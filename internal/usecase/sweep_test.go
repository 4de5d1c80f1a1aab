package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/user/onboardflow/internal/domain"
	"github.com/user/onboardflow/internal/domain/mocks"
)

func newSweep(tenants *mocks.MockTenantRepository, users *mocks.MockEndUserRepository, mailer *mocks.MockMailer) *SweepUseCase {
	logger := discardLogger()
	d := NewDispatcher(users, mailer, logger, nil, testFrom)
	return NewSweepUseCase(tenants, users, d, logger, nil)
}

func TestSweepUseCase_Run(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Two Hour Old Stalled User Gets Step 1 Nudge", func(t *testing.T) {
		tenant := testTenant()
		user := domain.EndUser{
			ID:         uuid.New(),
			TenantID:   tenant.ID,
			ExternalID: "alice",
			Email:      "alice@example.com",
			CreatedAt:  now.Add(-2 * time.Hour),
		}
		tenants := &mocks.MockTenantRepository{Tenants: []domain.Tenant{*tenant}}
		users := &mocks.MockEndUserRepository{Users: []domain.EndUser{user}}
		mailer := &mocks.MockMailer{}
		uc := newSweep(tenants, users, mailer)
		uc.now = func() time.Time { return now }

		res, err := uc.Run(context.Background(), DefaultSweepOptions())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.EmailsSent != 1 || res.CandidatesFound != 1 {
			t.Errorf("unexpected result: %+v", res)
		}
		if len(users.NudgeMarks) != 1 || users.NudgeMarks[0].Tag != domain.TagNudgeStep1 {
			t.Fatalf("expected one nudge_step1 mark, got %+v", users.NudgeMarks)
		}
		if users.Users[0].LastEmailedAt == nil {
			t.Error("expected last_emailed_at to be set")
		}
	})

	t.Run("Step 2 Unset Means No Nudge After Step 1", func(t *testing.T) {
		tenant := testTenant()
		tenant.Step2 = ""
		user := domain.EndUser{
			ID:             uuid.New(),
			TenantID:       tenant.ID,
			Email:          "alice@example.com",
			CompletedSteps: domain.StepSet{"connect_repo"},
			CreatedAt:      now.Add(-48 * time.Hour),
		}
		tenants := &mocks.MockTenantRepository{Tenants: []domain.Tenant{*tenant}}
		users := &mocks.MockEndUserRepository{Users: []domain.EndUser{user}}
		mailer := &mocks.MockMailer{}
		uc := newSweep(tenants, users, mailer)
		uc.now = func() time.Time { return now }

		res, err := uc.Run(context.Background(), DefaultSweepOptions())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.EmailsSent != 0 || res.CandidatesFound != 0 {
			t.Errorf("expected empty sweep, got %+v", res)
		}
	})

	t.Run("Second Run Is Idempotent", func(t *testing.T) {
		tenant := testTenant()
		user := domain.EndUser{
			ID:        uuid.New(),
			TenantID:  tenant.ID,
			Email:     "alice@example.com",
			CreatedAt: now.Add(-2 * time.Hour),
		}
		tenants := &mocks.MockTenantRepository{Tenants: []domain.Tenant{*tenant}}
		users := &mocks.MockEndUserRepository{Users: []domain.EndUser{user}}
		mailer := &mocks.MockMailer{}
		uc := newSweep(tenants, users, mailer)
		uc.now = func() time.Time { return now }

		first, err := uc.Run(context.Background(), DefaultSweepOptions())
		if err != nil {
			t.Fatalf("first run: %v", err)
		}
		second, err := uc.Run(context.Background(), DefaultSweepOptions())
		if err != nil {
			t.Fatalf("second run: %v", err)
		}

		if first.EmailsSent != 1 {
			t.Errorf("expected 1 email on first run, got %d", first.EmailsSent)
		}
		if second.EmailsSent != 0 || second.CandidatesFound != 0 {
			t.Errorf("expected no-op second run, got %+v", second)
		}
	})

	t.Run("Skips Tenants With Automation Disabled", func(t *testing.T) {
		tenant := testTenant()
		tenant.AutomationEnabled = false
		user := domain.EndUser{
			ID:        uuid.New(),
			TenantID:  tenant.ID,
			Email:     "alice@example.com",
			CreatedAt: now.Add(-2 * time.Hour),
		}
		tenants := &mocks.MockTenantRepository{Tenants: []domain.Tenant{*tenant}}
		users := &mocks.MockEndUserRepository{Users: []domain.EndUser{user}}
		mailer := &mocks.MockMailer{}
		uc := newSweep(tenants, users, mailer)
		uc.now = func() time.Time { return now }

		res, err := uc.Run(context.Background(), DefaultSweepOptions())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.TenantsScanned != 0 || res.EmailsSent != 0 {
			t.Errorf("disabled tenant must not be swept: %+v", res)
		}
	})

	t.Run("Tenant List Fetch Failure Is Fatal", func(t *testing.T) {
		tenants := &mocks.MockTenantRepository{ListErr: errors.New("connection refused")}
		users := &mocks.MockEndUserRepository{}
		uc := newSweep(tenants, users, &mocks.MockMailer{})

		if _, err := uc.Run(context.Background(), DefaultSweepOptions()); err == nil {
			t.Fatal("expected an error, got nil")
		}
	})

	t.Run("Per Tenant Breakdown", func(t *testing.T) {
		t1 := testTenant()
		t2 := testTenant()
		t2.ID = uuid.New()
		t2.Email = "other@example.com"
		mkUser := func(tid uuid.UUID, email string) domain.EndUser {
			return domain.EndUser{ID: uuid.New(), TenantID: tid, Email: email, CreatedAt: now.Add(-3 * time.Hour)}
		}
		tenants := &mocks.MockTenantRepository{Tenants: []domain.Tenant{*t1, *t2}}
		users := &mocks.MockEndUserRepository{Users: []domain.EndUser{
			mkUser(t1.ID, "a@x.co"), mkUser(t1.ID, "b@x.co"), mkUser(t2.ID, "c@y.co"),
		}}
		mailer := &mocks.MockMailer{}
		uc := newSweep(tenants, users, mailer)
		uc.now = func() time.Time { return now }

		res, err := uc.Run(context.Background(), DefaultSweepOptions())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.EmailsSent != 3 || len(res.PerTenant) != 2 {
			t.Errorf("unexpected result: %+v", res)
		}
	})
}

func TestSweepUseCase_StallOnlyVariant(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tenant := testTenant()
	emailed := now.Add(-time.Hour)

	users := &mocks.MockEndUserRepository{Users: []domain.EndUser{
		{ID: uuid.New(), TenantID: tenant.ID, Email: "stalled@x.co", CreatedAt: now.Add(-10 * time.Minute)},
		{ID: uuid.New(), TenantID: tenant.ID, Email: "fresh@x.co", CreatedAt: now.Add(-10 * time.Second)},
		{ID: uuid.New(), TenantID: tenant.ID, Email: "already@x.co", CreatedAt: now.Add(-10 * time.Minute), LastEmailedAt: &emailed},
		{ID: uuid.New(), TenantID: tenant.ID, Email: "done@x.co", CreatedAt: now.Add(-10 * time.Minute),
			CompletedSteps: domain.StepSet{"connect_repo"}},
	}}
	tenants := &mocks.MockTenantRepository{Tenants: []domain.Tenant{*tenant}}
	mailer := &mocks.MockMailer{}
	uc := newSweep(tenants, users, mailer)
	uc.now = func() time.Time { return now }

	res, err := uc.Run(context.Background(), StallOnlySweepOptions(time.Minute))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.EmailsSent != 1 {
		t.Fatalf("expected exactly the stalled user to be nudged, got %d", res.EmailsSent)
	}
	if mailer.Sent[0].To != "stalled@x.co" {
		t.Errorf("wrong recipient: %s", mailer.Sent[0].To)
	}
}
