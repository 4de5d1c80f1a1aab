package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TenantRepository defines the interface for tenant persistence.
// This abstracts away the specific implementations (PostgreSQL, or the
// Redis read-through cache wrapped around it).
type TenantRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	GetByEmail(ctx context.Context, email string) (*Tenant, error)

	// GetByAPIKey resolves a tenant from an ingestion API key. This is the
	// hot path; implementations may cache.
	GetByAPIKey(ctx context.Context, key string) (*Tenant, error)

	// ListAutomationEnabled returns every tenant with the sweep gate on, in
	// a stable storage-defined order.
	ListAutomationEnabled(ctx context.Context) ([]Tenant, error)

	Create(ctx context.Context, t *Tenant) error

	// UpdateSettings persists the funnel configuration and automation gate.
	UpdateSettings(ctx context.Context, t *Tenant) error

	// UpdateAccess flips the billing unlock after a verified payment.
	UpdateAccess(ctx context.Context, id uuid.UUID, hasAccess bool, stripeCustomerID, licenseKey string) error

	RotateAPIKey(ctx context.Context, id uuid.UUID, newKey string) error
}

// EndUserRepository defines the interface for end-user progress persistence.
type EndUserRepository interface {
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]EndUser, error)

	// ListNeverEmailed returns a tenant's users created before the given
	// time that have never received any nudge. Used by the stuck-at-step-1
	// cron variant.
	ListNeverEmailed(ctx context.Context, tenantID uuid.UUID, createdBefore time.Time) ([]EndUser, error)

	GetByExternalID(ctx context.Context, tenantID uuid.UUID, externalID string) (*EndUser, error)

	Create(ctx context.Context, u *EndUser) error

	// AddCompletedStep appends the event to the user's progress set if
	// absent and bumps last_seen_at either way.
	AddCompletedStep(ctx context.Context, userID uuid.UUID, step EventName, seenAt time.Time) error

	// MarkNudged records a sweep nudge: it appends the tag only if absent
	// (conditional update, to narrow the overlapping-sweep race) and sets
	// last_emailed_at.
	MarkNudged(ctx context.Context, userID uuid.UUID, tag NudgeTag, at time.Time) error

	// TouchEmailed sets last_emailed_at without recording a tag. Used by
	// manual nudges, which are deliberately re-sendable.
	TouchEmailed(ctx context.Context, userID uuid.UUID, at time.Time) error
}

// Mailer defines the interface for the outbound email collaborator.
// Send failures must be returned, never panic, so the dispatcher can isolate
// them per user.
type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}
