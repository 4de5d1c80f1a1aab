package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/user/onboardflow/internal/adapter/api/middleware"
	"github.com/user/onboardflow/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func authedRequest(method, target, body string) *http.Request {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	tenant := &domain.Tenant{ID: uuid.New(), Email: "founder@acme.dev"}
	return r.WithContext(middleware.WithTenant(r.Context(), tenant))
}

// MockNudgeRunner is a mock implementation of the manual nudge use case.
type MockNudgeRunner struct {
	RunFunc func(ctx context.Context, tenant *domain.Tenant, targetStep string) (int, error)
}

func (m *MockNudgeRunner) Run(ctx context.Context, tenant *domain.Tenant, targetStep string) (int, error) {
	return m.RunFunc(ctx, tenant, targetStep)
}

func TestNudgeHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		runCount       int
		runErr         error
		expectedStatus int
		expectedCount  int
	}{
		{
			name:           "Successful Batch",
			body:           `{"targetStep":"step2"}`,
			runCount:       3,
			expectedStatus: http.StatusOK,
			expectedCount:  3,
		},
		{
			name:           "Zero Eligible Users",
			body:           `{"targetStep":"step3"}`,
			runCount:       0,
			expectedStatus: http.StatusOK,
			expectedCount:  0,
		},
		{
			name:           "Unconfigured Step",
			body:           `{"targetStep":"step2"}`,
			runErr:         domain.ErrStepNotConfigured,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Invalid Body",
			body:           `{"targetStep":`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &MockNudgeRunner{
				RunFunc: func(ctx context.Context, tenant *domain.Tenant, targetStep string) (int, error) {
					return tt.runCount, tt.runErr
				},
			}
			h := NewNudgeHandler(runner, discardLogger())

			rec := httptest.NewRecorder()
			h.Nudge(rec, authedRequest(http.MethodPost, "/api/v1/nudge", tt.body))

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, rec.Code)
			}
			if tt.expectedStatus == http.StatusOK {
				var resp struct {
					Success bool `json:"success"`
					Count   int  `json:"count"`
				}
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("decoding response: %v", err)
				}
				if !resp.Success || resp.Count != tt.expectedCount {
					t.Errorf("unexpected response: %+v", resp)
				}
			}
		})
	}
}

func TestNudgeHandlerRequiresTenant(t *testing.T) {
	h := NewNudgeHandler(&MockNudgeRunner{}, discardLogger())

	rec := httptest.NewRecorder()
	h.Nudge(rec, httptest.NewRequest(http.MethodPost, "/api/v1/nudge", strings.NewReader(`{}`)))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without tenant in context, got %d", rec.Code)
	}
}
