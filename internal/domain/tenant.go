package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultActivationStep is the event name assumed for step 1 when a founder
// has not configured one yet.
const DefaultActivationStep EventName = "connect_repo"

// Tenant represents a founder account. Each tenant owns a funnel configuration
// (up to three named lifecycle steps, each with an email) and a population of
// end users tracked by external id.
type Tenant struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	APIKey       string    `json:"-"`
	PasswordHash string    `json:"-"`

	// License / billing state, flipped by the payment webhook.
	HasAccess        bool   `json:"has_access"`
	LicenseKey       string `json:"license_key,omitempty"`
	StripeCustomerID string `json:"-"`

	// AutomationEnabled gates the scheduled sweep only. The manual trigger
	// ignores it.
	AutomationEnabled bool `json:"automation_enabled"`

	// Funnel configuration. An empty event name means the step is undefined
	// and is skipped entirely during evaluation.
	ActivationStep string `json:"activation_step"`
	EmailSubject   string `json:"email_subject"`
	EmailBody      string `json:"email_body"`

	Step2         string `json:"step2"`
	EmailSubject2 string `json:"email_subject2"`
	EmailBody2    string `json:"email_body2"`

	Step3         string `json:"step3"`
	EmailSubject3 string `json:"email_subject3"`
	EmailBody3    string `json:"email_body3"`

	CreatedAt time.Time `json:"created_at"`
}

// Step1Event returns the step-1 goal event, falling back to the default when
// the founder has not configured one. Steps 2 and 3 have no such fallback;
// unset means undefined.
func (t *Tenant) Step1Event() EventName {
	if t.ActivationStep == "" {
		return DefaultActivationStep
	}
	return EventName(t.ActivationStep)
}

// Step2Event returns the step-2 goal event, or "" when the step is undefined.
func (t *Tenant) Step2Event() EventName { return EventName(t.Step2) }

// Step3Event returns the step-3 goal event, or "" when the step is undefined.
func (t *Tenant) Step3Event() EventName { return EventName(t.Step3) }
