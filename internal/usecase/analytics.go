package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/user/onboardflow/internal/domain"
)

const (
	trendDays  = 30
	matrixRows = 20
)

// FunnelStage is one bar of the activation funnel.
type FunnelStage struct {
	Step    string `json:"step"`
	Count   int    `json:"count"`
	Percent int    `json:"percent"`
}

// TrendPoint is one day of the signup/activation trend.
type TrendPoint struct {
	Date        string `json:"date"`
	Signups     int    `json:"signups"`
	Activations int    `json:"activations"`
}

// RecoveryData splits activated users into nudge-recovered and organic.
type RecoveryData struct {
	Recovered int `json:"recovered"`
	Organic   int `json:"organic"`
}

// MatrixRow is one end user's progress through the configured steps. Step2
// and Step3 are nil when the tenant has not defined those steps.
type MatrixRow struct {
	Email    string    `json:"email"`
	Step1    bool      `json:"step1"`
	Step2    *bool     `json:"step2"`
	Step3    *bool     `json:"step3"`
	LastSeen time.Time `json:"last_seen"`
}

// Analytics is the dashboard payload for one tenant.
type Analytics struct {
	TotalUsers  int           `json:"total_users"`
	ActiveUsers int           `json:"active_users"`
	FunnelData  []FunnelStage `json:"funnel_data"`
	TrendData   []TrendPoint  `json:"trend_data"`
	Recovery    RecoveryData  `json:"recovery_data"`
	UserMatrix  []MatrixRow   `json:"user_matrix"`
}

// AnalyticsUseCase computes funnel metrics over a tenant's user population.
type AnalyticsUseCase struct {
	users domain.EndUserRepository
	now   func() time.Time
}

// NewAnalyticsUseCase creates a new analytics use case.
func NewAnalyticsUseCase(users domain.EndUserRepository) *AnalyticsUseCase {
	return &AnalyticsUseCase{users: users, now: time.Now}
}

// Build assembles the dashboard metrics for one tenant.
func (uc *AnalyticsUseCase) Build(ctx context.Context, tenant *domain.Tenant) (*Analytics, error) {
	users, err := uc.users.ListByTenant(ctx, tenant.ID)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	step1 := tenant.Step1Event()
	step2 := tenant.Step2Event()
	step3 := tenant.Step3Event()

	total := len(users)
	var c1, c2, c3, recovered int
	for _, u := range users {
		if u.CompletedSteps.Contains(step1) {
			c1++
			if u.LastEmailedAt != nil {
				recovered++
			}
		}
		if step2 != "" && u.CompletedSteps.Contains(step2) {
			c2++
		}
		if step3 != "" && u.CompletedSteps.Contains(step3) {
			c3++
		}
	}

	a := &Analytics{
		TotalUsers:  total,
		ActiveUsers: c1,
		Recovery:    RecoveryData{Recovered: recovered, Organic: c1 - recovered},
	}

	a.FunnelData = []FunnelStage{
		{Step: "Signup", Count: total, Percent: 100},
		{Step: "Step 1", Count: c1, Percent: pct(c1, total)},
	}
	if step2 != "" {
		a.FunnelData = append(a.FunnelData, FunnelStage{Step: "Step 2", Count: c2, Percent: pct(c2, total)})
	}
	if step3 != "" {
		a.FunnelData = append(a.FunnelData, FunnelStage{Step: "Step 3", Count: c3, Percent: pct(c3, total)})
	}

	now := uc.now().UTC()
	for i := trendDays - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		var signups, activations int
		for _, u := range users {
			if !sameDay(u.CreatedAt, day) {
				continue
			}
			signups++
			if u.CompletedSteps.Contains(step1) {
				activations++
			}
		}
		a.TrendData = append(a.TrendData, TrendPoint{
			Date:        day.Format("Jan 02"),
			Signups:     signups,
			Activations: activations,
		})
	}

	limit := len(users)
	if limit > matrixRows {
		limit = matrixRows
	}
	for _, u := range users[:limit] {
		row := MatrixRow{
			Email:    u.Email,
			Step1:    u.CompletedSteps.Contains(step1),
			LastSeen: u.LastSeenAt,
		}
		if step2 != "" {
			done := u.CompletedSteps.Contains(step2)
			row.Step2 = &done
		}
		if step3 != "" {
			done := u.CompletedSteps.Contains(step3)
			row.Step3 = &done
		}
		a.UserMatrix = append(a.UserMatrix, row)
	}

	return a, nil
}

func pct(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
