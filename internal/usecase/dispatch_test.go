package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/user/onboardflow/internal/domain"
	"github.com/user/onboardflow/internal/domain/mocks"
)

const testFrom = "OnboardFlow <onboarding@resend.dev>"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func selection(step domain.NudgeStep, subject, body string) domain.Selection {
	return domain.Selection{Step: step, Subject: subject, Body: body, Tag: step.Tag()}
}

func TestDispatcher_TemplateSubstitution(t *testing.T) {
	userRepo := &mocks.MockEndUserRepository{}
	mailer := &mocks.MockMailer{}
	d := NewDispatcher(userRepo, mailer, discardLogger(), nil, testFrom)

	user := domain.EndUser{ID: uuid.New(), Email: "alice@example.com"}
	batch := []Candidate{{
		User:      user,
		Selection: selection(domain.NudgeStep1, "Quick question...", "Hi {{name}}, finish your setup."),
	}}

	res := d.Dispatch(context.Background(), testTenant(), batch, "sweep")

	if res.Sent != 1 {
		t.Fatalf("expected 1 sent, got %d", res.Sent)
	}
	if got := mailer.Sent[0].Body; got != "Hi alice, finish your setup." {
		t.Errorf("unexpected rendered body: %q", got)
	}
	if mailer.Sent[0].From != testFrom {
		t.Errorf("unexpected from address: %q", mailer.Sent[0].From)
	}
}

func TestDispatcher_SkipsUsersWithoutEmail(t *testing.T) {
	userRepo := &mocks.MockEndUserRepository{}
	mailer := &mocks.MockMailer{}
	d := NewDispatcher(userRepo, mailer, discardLogger(), nil, testFrom)

	batch := []Candidate{{
		User:      domain.EndUser{ID: uuid.New()},
		Selection: selection(domain.NudgeStep1, "s", "b"),
	}}

	res := d.Dispatch(context.Background(), testTenant(), batch, "sweep")

	if res.Skipped != 1 || res.Attempted != 0 || res.Sent != 0 {
		t.Errorf("expected pure skip, got %+v", res)
	}
	if len(mailer.Sent) != 0 {
		t.Errorf("expected no sends, got %d", len(mailer.Sent))
	}
	if len(userRepo.NudgeMarks) != 0 {
		t.Errorf("skipped user must not be marked")
	}
}

func TestDispatcher_IsolatesPerUserFailures(t *testing.T) {
	userRepo := &mocks.MockEndUserRepository{}
	mailer := &mocks.MockMailer{
		FailFor: map[string]error{"user3@example.com": errors.New("smtp unavailable")},
	}
	d := NewDispatcher(userRepo, mailer, discardLogger(), nil, testFrom)

	var batch []Candidate
	var failedID uuid.UUID
	for i := 1; i <= 5; i++ {
		u := domain.EndUser{ID: uuid.New(), Email: fmt.Sprintf("user%d@example.com", i)}
		if i == 3 {
			failedID = u.ID
		}
		batch = append(batch, Candidate{User: u, Selection: selection(domain.NudgeStep1, "s", "b")})
	}

	res := d.Dispatch(context.Background(), testTenant(), batch, "sweep")

	if res.Sent != 4 {
		t.Errorf("expected 4 successful sends, got %d", res.Sent)
	}
	if res.Failed != 1 {
		t.Errorf("expected 1 failure, got %d", res.Failed)
	}
	if res.Attempted != 5 {
		t.Errorf("expected 5 attempted, got %d", res.Attempted)
	}
	for _, mark := range userRepo.NudgeMarks {
		if mark.UserID == failedID {
			t.Error("failed user must stay unmarked")
		}
	}
	if len(userRepo.NudgeMarks) != 4 {
		t.Errorf("expected 4 marks, got %d", len(userRepo.NudgeMarks))
	}
}

func TestDispatcher_CommitPoint(t *testing.T) {
	t.Run("Sweep Selection Records Tag And Timestamp", func(t *testing.T) {
		userRepo := &mocks.MockEndUserRepository{}
		mailer := &mocks.MockMailer{}
		d := NewDispatcher(userRepo, mailer, discardLogger(), nil, testFrom)
		dispatchTime := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		d.now = func() time.Time { return dispatchTime }

		u := domain.EndUser{ID: uuid.New(), Email: "a@b.co"}
		d.Dispatch(context.Background(), testTenant(), []Candidate{
			{User: u, Selection: selection(domain.NudgeStep2, "s", "b")},
		}, "sweep")

		if len(userRepo.NudgeMarks) != 1 {
			t.Fatalf("expected 1 mark, got %d", len(userRepo.NudgeMarks))
		}
		mark := userRepo.NudgeMarks[0]
		if mark.Tag != domain.TagNudgeStep2 || !mark.At.Equal(dispatchTime) {
			t.Errorf("unexpected mark: %+v", mark)
		}
		if len(userRepo.Touches) != 0 {
			t.Error("sweep selection must not use the tag-less path")
		}
	})

	t.Run("Manual Selection Only Touches Timestamp", func(t *testing.T) {
		userRepo := &mocks.MockEndUserRepository{}
		mailer := &mocks.MockMailer{}
		d := NewDispatcher(userRepo, mailer, discardLogger(), nil, testFrom)

		u := domain.EndUser{ID: uuid.New(), Email: "a@b.co"}
		d.Dispatch(context.Background(), testTenant(), []Candidate{
			{User: u, Selection: domain.Selection{Step: domain.NudgeStep1, Subject: "s", Body: "b"}},
		}, "manual")

		if len(userRepo.NudgeMarks) != 0 {
			t.Error("manual selection must not record a tag")
		}
		if len(userRepo.Touches) != 1 {
			t.Errorf("expected 1 touch, got %d", len(userRepo.Touches))
		}
	})

	t.Run("Persist Failure Leaves User Unmarked But Continues", func(t *testing.T) {
		userRepo := &mocks.MockEndUserRepository{MarkErr: errors.New("db write failed")}
		mailer := &mocks.MockMailer{}
		d := NewDispatcher(userRepo, mailer, discardLogger(), nil, testFrom)

		batch := []Candidate{
			{User: domain.EndUser{ID: uuid.New(), Email: "a@b.co"}, Selection: selection(domain.NudgeStep1, "s", "b")},
			{User: domain.EndUser{ID: uuid.New(), Email: "c@d.co"}, Selection: selection(domain.NudgeStep1, "s", "b")},
		}
		res := d.Dispatch(context.Background(), testTenant(), batch, "sweep")

		if res.Sent != 0 || res.Failed != 2 {
			t.Errorf("expected 0 sent / 2 failed, got %+v", res)
		}
		// Emails did go out; only the bookkeeping failed.
		if len(mailer.Sent) != 2 {
			t.Errorf("expected 2 emails through the mailer, got %d", len(mailer.Sent))
		}
	})
}
