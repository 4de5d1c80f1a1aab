package usecase

import (
	"time"

	"github.com/user/onboardflow/internal/domain"
)

// Fallback email content used when a founder has not customized a step's
// email. Sweep and manual nudges historically shipped with slightly different
// copy; both sets are kept.
const (
	defaultSweepSubject1 = "Complete your setup"
	defaultSweepBody1    = "Hey, you need to connect your repo!"
	defaultSweepSubject2 = "Keep going"
	defaultSweepBody2    = "Invite your team now."
	defaultSweepSubject3 = "Almost there"
	defaultSweepBody3    = "Upgrade to Pro."

	defaultManualSubject1 = "Complete your setup"
	defaultManualBody1    = "Hey {{name}}, you need to connect your repo!"
	defaultManualSubject2 = "Keep going!"
	defaultManualBody2    = "Hey {{name}}, great start. Now invite a teammate."
	defaultManualSubject3 = "Almost there!"
	defaultManualBody3    = "Hey {{name}}, upgrade to pro now."
)

// SweepOptions parameterizes the scheduled-sweep rule so the degenerate
// stuck-at-step-1 cron variant (shorter threshold, single rule, never-emailed
// filter) runs through the same code path as the full sweep.
type SweepOptions struct {
	// Step1Delay is the minimum account age before the step-1 nudge fires.
	Step1Delay time.Duration
	// LaterStepDelay is the minimum account age before the step-2 and
	// step-3 nudges fire.
	LaterStepDelay time.Duration
	// Rules lists the active rules. Nil means all three.
	Rules []domain.NudgeStep
	// RequireNeverEmailed restricts selection to users that have never
	// received any email.
	RequireNeverEmailed bool
}

// DefaultSweepOptions returns the production sweep rule set: all three rules,
// 1 hour for step 1 and 24 hours for the later steps.
func DefaultSweepOptions() SweepOptions {
	return SweepOptions{
		Step1Delay:     time.Hour,
		LaterStepDelay: 24 * time.Hour,
	}
}

// StallOnlySweepOptions returns the cron variant that only catches users
// stuck at step 1: a single rule, a short threshold, and a never-emailed
// filter in place of the tag guard.
func StallOnlySweepOptions(threshold time.Duration) SweepOptions {
	return SweepOptions{
		Step1Delay:          threshold,
		Rules:               []domain.NudgeStep{domain.NudgeStep1},
		RequireNeverEmailed: true,
	}
}

func (o SweepOptions) ruleActive(step domain.NudgeStep) bool {
	if o.Rules == nil {
		return true
	}
	for _, r := range o.Rules {
		if r == step {
			return true
		}
	}
	return false
}

// EvaluateSweep applies the scheduled-sweep rule to one end user. The three
// rules are mutually exclusive and evaluated in fixed priority order, step 1
// first, so at most one nudge is ever selected per user per pass.
//
// The age gates compare against the account's creation time, not the time a
// step was completed: a 30-day-old account that finished step 1 yesterday is
// immediately eligible for the step-2 nudge.
func EvaluateSweep(t *domain.Tenant, u *domain.EndUser, now time.Time, opts SweepOptions) domain.Selection {
	if opts.RequireNeverEmailed && u.LastEmailedAt != nil {
		return domain.Selection{}
	}

	age := now.Sub(u.CreatedAt)
	step1 := t.Step1Event()
	step2 := t.Step2Event()
	step3 := t.Step3Event()
	done := u.CompletedSteps
	received := u.AutomationsReceived

	switch {
	case opts.ruleActive(domain.NudgeStep1) &&
		!done.Contains(step1) &&
		age > opts.Step1Delay &&
		!received.Contains(domain.TagNudgeStep1):
		return domain.Selection{
			Step:    domain.NudgeStep1,
			Subject: fallback(t.EmailSubject, defaultSweepSubject1),
			Body:    fallback(t.EmailBody, defaultSweepBody1),
			Tag:     domain.TagNudgeStep1,
		}

	case opts.ruleActive(domain.NudgeStep2) &&
		done.Contains(step1) &&
		step2 != "" && !done.Contains(step2) &&
		age > opts.LaterStepDelay &&
		!received.Contains(domain.TagNudgeStep2):
		return domain.Selection{
			Step:    domain.NudgeStep2,
			Subject: fallback(t.EmailSubject2, defaultSweepSubject2),
			Body:    fallback(t.EmailBody2, defaultSweepBody2),
			Tag:     domain.TagNudgeStep2,
		}

	case opts.ruleActive(domain.NudgeStep3) &&
		step2 != "" && done.Contains(step2) &&
		step3 != "" && !done.Contains(step3) &&
		age > opts.LaterStepDelay &&
		!received.Contains(domain.TagNudgeStep3):
		return domain.Selection{
			Step:    domain.NudgeStep3,
			Subject: fallback(t.EmailSubject3, defaultSweepSubject3),
			Body:    fallback(t.EmailBody3, defaultSweepBody3),
			Tag:     domain.TagNudgeStep3,
		}
	}

	return domain.Selection{}
}

// StepConfig is the resolved campaign configuration for a manual nudge: the
// goal event the cohort has not reached, the prerequisite they must have
// reached, and the email content to send.
type StepConfig struct {
	Step         domain.NudgeStep
	Goal         domain.EventName
	Prerequisite domain.EventName
	Subject      string
	Body         string
}

// ResolveStepConfig maps a target step onto the tenant's funnel settings.
// It returns domain.ErrStepNotConfigured when the goal event name for the
// requested step is unset, before any user is evaluated.
func ResolveStepConfig(t *domain.Tenant, step domain.NudgeStep) (StepConfig, error) {
	cfg := StepConfig{Step: step}

	switch step {
	case domain.NudgeStep1:
		cfg.Goal = t.Step1Event()
		cfg.Subject = fallback(t.EmailSubject, defaultManualSubject1)
		cfg.Body = fallback(t.EmailBody, defaultManualBody1)
	case domain.NudgeStep2:
		cfg.Goal = t.Step2Event()
		cfg.Prerequisite = t.Step1Event()
		cfg.Subject = fallback(t.EmailSubject2, defaultManualSubject2)
		cfg.Body = fallback(t.EmailBody2, defaultManualBody2)
	case domain.NudgeStep3:
		cfg.Goal = t.Step3Event()
		cfg.Prerequisite = t.Step2Event()
		cfg.Subject = fallback(t.EmailSubject3, defaultManualSubject3)
		cfg.Body = fallback(t.EmailBody3, defaultManualBody3)
	}

	if cfg.Goal == "" {
		return StepConfig{}, domain.ErrStepNotConfigured
	}
	return cfg, nil
}

// EvaluateManual applies the manual/bulk rule to one end user: the goal must
// be undone and the prerequisite (when present) done. It never consults the
// tag set or any timestamp, so an operator may re-nudge the same cohort.
func EvaluateManual(cfg StepConfig, u *domain.EndUser) bool {
	if u.CompletedSteps.Contains(cfg.Goal) {
		return false
	}
	if cfg.Prerequisite != "" && !u.CompletedSteps.Contains(cfg.Prerequisite) {
		return false
	}
	return true
}

func fallback(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
