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

func newManualNudge(users *mocks.MockEndUserRepository, mailer *mocks.MockMailer) *ManualNudgeUseCase {
	logger := discardLogger()
	d := NewDispatcher(users, mailer, logger, nil, testFrom)
	return NewManualNudgeUseCase(users, d, logger)
}

func TestManualNudgeUseCase_Run(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Unconfigured Step Fails Before Any Send", func(t *testing.T) {
		tenant := testTenant()
		tenant.Step2 = ""
		users := &mocks.MockEndUserRepository{Users: []domain.EndUser{
			{ID: uuid.New(), TenantID: tenant.ID, Email: "a@x.co", CompletedSteps: domain.StepSet{"connect_repo"}},
		}}
		mailer := &mocks.MockMailer{}
		uc := newManualNudge(users, mailer)

		count, err := uc.Run(context.Background(), tenant, "step2")
		if !errors.Is(err, domain.ErrStepNotConfigured) {
			t.Fatalf("expected ErrStepNotConfigured, got %v", err)
		}
		if count != 0 || len(mailer.Sent) != 0 {
			t.Errorf("expected zero sends, got count=%d sent=%d", count, len(mailer.Sent))
		}
	})

	t.Run("Unknown Target Step Fails", func(t *testing.T) {
		uc := newManualNudge(&mocks.MockEndUserRepository{}, &mocks.MockMailer{})
		if _, err := uc.Run(context.Background(), testTenant(), "step9"); !errors.Is(err, domain.ErrStepNotConfigured) {
			t.Errorf("expected ErrStepNotConfigured, got %v", err)
		}
	})

	t.Run("No Eligible Users Is Zero Count Success", func(t *testing.T) {
		tenant := testTenant()
		users := &mocks.MockEndUserRepository{Users: []domain.EndUser{
			{ID: uuid.New(), TenantID: tenant.ID, Email: "a@x.co",
				CompletedSteps: domain.StepSet{"connect_repo", "invite_teammate"}},
		}}
		uc := newManualNudge(users, &mocks.MockMailer{})

		count, err := uc.Run(context.Background(), tenant, "step2")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if count != 0 {
			t.Errorf("expected count 0, got %d", count)
		}
	})

	t.Run("Filters On Goal And Prerequisite", func(t *testing.T) {
		tenant := testTenant()
		users := &mocks.MockEndUserRepository{Users: []domain.EndUser{
			// Eligible: prerequisite done, goal undone.
			{ID: uuid.New(), TenantID: tenant.ID, Email: "eligible@x.co",
				CompletedSteps: domain.StepSet{"connect_repo"}, CreatedAt: now},
			// Ineligible: prerequisite missing.
			{ID: uuid.New(), TenantID: tenant.ID, Email: "early@x.co", CreatedAt: now},
			// Ineligible: goal already done.
			{ID: uuid.New(), TenantID: tenant.ID, Email: "done@x.co",
				CompletedSteps: domain.StepSet{"connect_repo", "invite_teammate"}, CreatedAt: now},
		}}
		mailer := &mocks.MockMailer{}
		uc := newManualNudge(users, mailer)

		count, err := uc.Run(context.Background(), tenant, "step2")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if count != 1 || len(mailer.Sent) != 1 || mailer.Sent[0].To != "eligible@x.co" {
			t.Errorf("expected a single send to eligible@x.co, got count=%d sent=%+v", count, mailer.Sent)
		}
	})

	t.Run("Re-Running Nudges The Same Cohort Again", func(t *testing.T) {
		tenant := testTenant()
		users := &mocks.MockEndUserRepository{Users: []domain.EndUser{
			{ID: uuid.New(), TenantID: tenant.ID, Email: "a@x.co",
				CompletedSteps: domain.StepSet{"connect_repo"}, CreatedAt: now},
		}}
		mailer := &mocks.MockMailer{}
		uc := newManualNudge(users, mailer)

		for i := 1; i <= 2; i++ {
			count, err := uc.Run(context.Background(), tenant, "step2")
			if err != nil {
				t.Fatalf("run %d: %v", i, err)
			}
			if count != 1 {
				t.Fatalf("run %d: expected count 1, got %d", i, count)
			}
		}
		if len(users.NudgeMarks) != 0 {
			t.Error("manual runs must never record tags")
		}
		if len(users.Touches) != 2 {
			t.Errorf("expected 2 timestamp touches, got %d", len(users.Touches))
		}
	})

	t.Run("User List Fetch Failure Is Fatal", func(t *testing.T) {
		users := &mocks.MockEndUserRepository{ListErr: errors.New("db down")}
		uc := newManualNudge(users, &mocks.MockMailer{})
		if _, err := uc.Run(context.Background(), testTenant(), "step1"); err == nil {
			t.Fatal("expected an error, got nil")
		}
	})
}
