package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/user/onboardflow/internal/domain"
)

const endUserColumns = `id, tenant_id, external_id, email,
	completed_steps, automations_received, last_emailed_at, created_at, last_seen_at`

// EndUserRepository implements domain.EndUserRepository using PostgreSQL.
// Progress and tag sets are stored as text[] columns and validated into
// domain sets on scan.
type EndUserRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewEndUserRepository creates a new PostgreSQL end-user repository.
func NewEndUserRepository(db *sql.DB, logger *slog.Logger) *EndUserRepository {
	return &EndUserRepository{db: db, logger: logger}
}

func scanEndUser(row interface{ Scan(...any) error }) (*domain.EndUser, error) {
	var u domain.EndUser
	var email sql.NullString
	var steps, tags pq.StringArray
	var lastEmailedAt sql.NullTime
	err := row.Scan(
		&u.ID, &u.TenantID, &u.ExternalID, &email,
		&steps, &tags, &lastEmailedAt, &u.CreatedAt, &u.LastSeenAt,
	)
	if err != nil {
		return nil, err
	}
	u.Email = email.String
	u.CompletedSteps = domain.StepSetFromStrings(steps)
	u.AutomationsReceived = domain.TagSetFromStrings(tags)
	if lastEmailedAt.Valid {
		t := lastEmailedAt.Time
		u.LastEmailedAt = &t
	}
	return &u, nil
}

func (r *EndUserRepository) list(ctx context.Context, query string, args ...any) ([]domain.EndUser, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing end users: %w", err)
	}
	defer rows.Close()

	var out []domain.EndUser
	for rows.Next() {
		u, err := scanEndUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning end user: %w", err)
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (r *EndUserRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]domain.EndUser, error) {
	query := `SELECT ` + endUserColumns + ` FROM end_users WHERE tenant_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, tenantID)
}

func (r *EndUserRepository) ListNeverEmailed(ctx context.Context, tenantID uuid.UUID, createdBefore time.Time) ([]domain.EndUser, error) {
	query := `SELECT ` + endUserColumns + ` FROM end_users
		WHERE tenant_id = $1 AND last_emailed_at IS NULL AND created_at < $2`
	return r.list(ctx, query, tenantID, createdBefore)
}

func (r *EndUserRepository) GetByExternalID(ctx context.Context, tenantID uuid.UUID, externalID string) (*domain.EndUser, error) {
	query := `SELECT ` + endUserColumns + ` FROM end_users WHERE tenant_id = $1 AND external_id = $2`
	u, err := scanEndUser(r.db.QueryRowContext(ctx, query, tenantID, externalID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying end user: %w", err)
	}
	return u, nil
}

func (r *EndUserRepository) Create(ctx context.Context, u *domain.EndUser) error {
	query := `
		INSERT INTO end_users (id, tenant_id, external_id, email, completed_steps, automations_received, created_at, last_seen_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8)
		ON CONFLICT (tenant_id, external_id) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query,
		u.ID, u.TenantID, u.ExternalID, u.Email,
		pq.Array(u.CompletedSteps.Strings()), pq.Array(u.AutomationsReceived.Strings()),
		u.CreatedAt, u.LastSeenAt,
	)
	if err != nil {
		return fmt.Errorf("inserting end user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrDuplicateUser
	}
	return nil
}

// AddCompletedStep appends the event only when absent but bumps last_seen_at
// on every ingestion.
func (r *EndUserRepository) AddCompletedStep(ctx context.Context, userID uuid.UUID, step domain.EventName, seenAt time.Time) error {
	query := `
		UPDATE end_users SET
			completed_steps = CASE
				WHEN $2 = ANY(completed_steps) THEN completed_steps
				ELSE array_append(completed_steps, $2)
			END,
			last_seen_at = $3
		WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, userID, string(step), seenAt)
	if err != nil {
		return fmt.Errorf("recording step: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// MarkNudged appends the tag and stamps last_emailed_at in one conditional
// statement. The tag-presence guard in the WHERE clause makes the append
// atomic with respect to a concurrently racing sweep: the loser's update
// matches zero rows instead of duplicating the tag.
func (r *EndUserRepository) MarkNudged(ctx context.Context, userID uuid.UUID, tag domain.NudgeTag, at time.Time) error {
	query := `
		UPDATE end_users SET
			automations_received = array_append(automations_received, $2),
			last_emailed_at = $3
		WHERE id = $1 AND NOT ($2 = ANY(automations_received))`
	res, err := r.db.ExecContext(ctx, query, userID, string(tag), at)
	if err != nil {
		return fmt.Errorf("marking nudged: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Tag already present: a concurrent run won the race. The winner
		// stamped last_emailed_at, so there is nothing left to record.
		r.logger.Warn("nudge tag already recorded, skipping", "user_id", userID, "tag", string(tag))
	}
	return nil
}

func (r *EndUserRepository) TouchEmailed(ctx context.Context, userID uuid.UUID, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE end_users SET last_emailed_at = $2 WHERE id = $1`, userID, at)
	if err != nil {
		return fmt.Errorf("stamping last_emailed_at: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
