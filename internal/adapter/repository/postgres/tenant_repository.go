package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/user/onboardflow/internal/domain"
)

const tenantColumns = `id, email, name, api_key, password_hash, has_access,
	license_key, stripe_customer_id, automation_enabled,
	activation_step, email_subject, email_body,
	step2, email_subject2, email_body2,
	step3, email_subject3, email_body3,
	created_at`

// TenantRepository implements domain.TenantRepository using PostgreSQL.
type TenantRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewTenantRepository creates a new PostgreSQL tenant repository.
func NewTenantRepository(db *sql.DB, logger *slog.Logger) *TenantRepository {
	return &TenantRepository{db: db, logger: logger}
}

func scanTenant(row interface{ Scan(...any) error }) (*domain.Tenant, error) {
	var t domain.Tenant
	var licenseKey, stripeCustomerID sql.NullString
	err := row.Scan(
		&t.ID, &t.Email, &t.Name, &t.APIKey, &t.PasswordHash, &t.HasAccess,
		&licenseKey, &stripeCustomerID, &t.AutomationEnabled,
		&t.ActivationStep, &t.EmailSubject, &t.EmailBody,
		&t.Step2, &t.EmailSubject2, &t.EmailBody2,
		&t.Step3, &t.EmailSubject3, &t.EmailBody3,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.LicenseKey = licenseKey.String
	t.StripeCustomerID = stripeCustomerID.String
	return &t, nil
}

func (r *TenantRepository) getBy(ctx context.Context, where string, arg any) (*domain.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE ` + where
	t, err := scanTenant(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying tenant: %w", err)
	}
	return t, nil
}

func (r *TenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	return r.getBy(ctx, "id = $1", id)
}

func (r *TenantRepository) GetByEmail(ctx context.Context, email string) (*domain.Tenant, error) {
	return r.getBy(ctx, "email = $1", email)
}

func (r *TenantRepository) GetByAPIKey(ctx context.Context, key string) (*domain.Tenant, error) {
	return r.getBy(ctx, "api_key = $1", key)
}

// ListAutomationEnabled returns sweep-eligible tenants ordered by creation
// time so successive sweeps see a stable order.
func (r *TenantRepository) ListAutomationEnabled(ctx context.Context) ([]domain.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE automation_enabled = true ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing tenants: %w", err)
	}
	defer rows.Close()

	var out []domain.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning tenant: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (r *TenantRepository) Create(ctx context.Context, t *domain.Tenant) error {
	query := `
		INSERT INTO tenants (id, email, name, api_key, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query, t.ID, t.Email, t.Name, t.APIKey, t.PasswordHash, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting tenant: %w", err)
	}
	return nil
}

func (r *TenantRepository) UpdateSettings(ctx context.Context, t *domain.Tenant) error {
	query := `
		UPDATE tenants SET
			automation_enabled = $2,
			activation_step = $3, email_subject = $4, email_body = $5,
			step2 = $6, email_subject2 = $7, email_body2 = $8,
			step3 = $9, email_subject3 = $10, email_body3 = $11
		WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, t.ID,
		t.AutomationEnabled,
		t.ActivationStep, t.EmailSubject, t.EmailBody,
		t.Step2, t.EmailSubject2, t.EmailBody2,
		t.Step3, t.EmailSubject3, t.EmailBody3,
	)
	if err != nil {
		return fmt.Errorf("updating settings: %w", err)
	}
	return checkAffected(res)
}

func (r *TenantRepository) UpdateAccess(ctx context.Context, id uuid.UUID, hasAccess bool, stripeCustomerID, licenseKey string) error {
	query := `UPDATE tenants SET has_access = $2, stripe_customer_id = $3, license_key = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, hasAccess, stripeCustomerID, licenseKey)
	if err != nil {
		return fmt.Errorf("updating access: %w", err)
	}
	return checkAffected(res)
}

func (r *TenantRepository) RotateAPIKey(ctx context.Context, id uuid.UUID, newKey string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE tenants SET api_key = $2 WHERE id = $1`, id, newKey)
	if err != nil {
		return fmt.Errorf("rotating api key: %w", err)
	}
	return checkAffected(res)
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrTenantNotFound
	}
	return nil
}
