package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventName is a symbolic milestone a tenant defines (e.g. "connect_repo").
type EventName string

// StepSet is the set of event names an end user has triggered. Append-only,
// order-irrelevant, duplicates suppressed.
type StepSet []EventName

// Contains reports whether the set holds the given event name.
func (s StepSet) Contains(e EventName) bool {
	for _, v := range s {
		if v == e {
			return true
		}
	}
	return false
}

// Add returns the set with the event appended, suppressing duplicates.
func (s StepSet) Add(e EventName) StepSet {
	if s.Contains(e) {
		return s
	}
	return append(s, e)
}

// Strings converts the set for the storage boundary.
func (s StepSet) Strings() []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[i] = string(v)
	}
	return out
}

// StepSetFromStrings validates raw storage values into a StepSet, dropping
// empties and duplicates.
func StepSetFromStrings(raw []string) StepSet {
	var out StepSet
	for _, v := range raw {
		if v == "" {
			continue
		}
		out = out.Add(EventName(v))
	}
	return out
}

// EndUser is one of a tenant's own customers, tracked by external id.
type EndUser struct {
	ID         uuid.UUID `json:"id"`
	TenantID   uuid.UUID `json:"tenant_id"`
	ExternalID string    `json:"external_id"`
	Email      string    `json:"email,omitempty"`

	CompletedSteps      StepSet `json:"completed_steps"`
	AutomationsReceived TagSet  `json:"automations_received"`

	// LastEmailedAt is the time of the most recent nudge of any kind, nil if
	// the user has never been emailed.
	LastEmailedAt *time.Time `json:"last_emailed_at,omitempty"`

	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// EmailLocalPart returns the text before the "@" of the user's email, used for
// {{name}} template substitution. Empty when the user has no email.
func (u *EndUser) EmailLocalPart() string {
	for i := 0; i < len(u.Email); i++ {
		if u.Email[i] == '@' {
			return u.Email[:i]
		}
	}
	return u.Email
}
