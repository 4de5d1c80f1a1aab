package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/user/onboardflow/internal/usecase"
)

// MockSweeper is a mock implementation of the sweep use case.
type MockSweeper struct {
	RunFunc func(ctx context.Context, opts usecase.SweepOptions) (usecase.SweepResult, error)
}

func (m *MockSweeper) Run(ctx context.Context, opts usecase.SweepOptions) (usecase.SweepResult, error) {
	return m.RunFunc(ctx, opts)
}

func TestCronHandler_Sweep(t *testing.T) {
	var gotOpts usecase.SweepOptions
	sweeper := &MockSweeper{
		RunFunc: func(ctx context.Context, opts usecase.SweepOptions) (usecase.SweepResult, error) {
			gotOpts = opts
			return usecase.SweepResult{TenantsScanned: 2, CandidatesFound: 5, EmailsSent: 4}, nil
		},
	}
	h := NewCronHandler(sweeper, discardLogger(), usecase.SweepOptions{
		Step1Delay:     time.Hour,
		LaterStepDelay: 24 * time.Hour,
	}, time.Minute)

	rec := httptest.NewRecorder()
	h.Sweep(rec, httptest.NewRequest(http.MethodGet, "/api/cron/sweep", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Success         bool `json:"success"`
		EmailsSent      int  `json:"emailsSent"`
		CandidatesFound int  `json:"candidatesFound"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !resp.Success || resp.EmailsSent != 4 || resp.CandidatesFound != 5 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if gotOpts.Step1Delay != time.Hour || gotOpts.RequireNeverEmailed {
		t.Errorf("expected full-sweep options, got %+v", gotOpts)
	}
}

func TestCronHandler_ProcessStalls(t *testing.T) {
	var gotOpts usecase.SweepOptions
	sweeper := &MockSweeper{
		RunFunc: func(ctx context.Context, opts usecase.SweepOptions) (usecase.SweepResult, error) {
			gotOpts = opts
			return usecase.SweepResult{EmailsSent: 2, CandidatesFound: 2}, nil
		},
	}
	h := NewCronHandler(sweeper, discardLogger(), usecase.DefaultSweepOptions(), time.Minute)

	rec := httptest.NewRecorder()
	h.ProcessStalls(rec, httptest.NewRequest(http.MethodGet, "/api/cron/process-stalls", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Success bool `json:"success"`
		Count   int  `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !resp.Success || resp.Count != 2 {
		t.Errorf("unexpected response: %+v", resp)
	}

	if !gotOpts.RequireNeverEmailed || gotOpts.Step1Delay != time.Minute {
		t.Errorf("expected stall-only options, got %+v", gotOpts)
	}
}

func TestCronHandler_SweepError(t *testing.T) {
	sweeper := &MockSweeper{
		RunFunc: func(ctx context.Context, opts usecase.SweepOptions) (usecase.SweepResult, error) {
			return usecase.SweepResult{}, errors.New("database unavailable")
		},
	}
	h := NewCronHandler(sweeper, discardLogger(), usecase.DefaultSweepOptions(), time.Minute)

	rec := httptest.NewRecorder()
	h.Sweep(rec, httptest.NewRequest(http.MethodGet, "/api/cron/sweep", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}
