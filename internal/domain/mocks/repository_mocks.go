package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/user/onboardflow/internal/domain"
)

// MockTenantRepository is a mock implementation of domain.TenantRepository for testing.
type MockTenantRepository struct {
	mu              sync.Mutex
	Tenants         []domain.Tenant
	CreatedTenants  []domain.Tenant
	UpdatedSettings []domain.Tenant
	AccessUpdates   []uuid.UUID
	RotatedKeys     map[uuid.UUID]string
	ListErr         error
	GetErr          error
	CreateErr       error
	UpdateErr       error
}

func (m *MockTenantRepository) find(match func(t *domain.Tenant) bool) (*domain.Tenant, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	for i := range m.Tenants {
		if match(&m.Tenants[i]) {
			t := m.Tenants[i]
			return &t, nil
		}
	}
	return nil, domain.ErrTenantNotFound
}

func (m *MockTenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(func(t *domain.Tenant) bool { return t.ID == id })
}

func (m *MockTenantRepository) GetByEmail(ctx context.Context, email string) (*domain.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(func(t *domain.Tenant) bool { return t.Email == email })
}

func (m *MockTenantRepository) GetByAPIKey(ctx context.Context, key string) (*domain.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(func(t *domain.Tenant) bool { return t.APIKey == key })
}

func (m *MockTenantRepository) ListAutomationEnabled(ctx context.Context) ([]domain.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var out []domain.Tenant
	for _, t := range m.Tenants {
		if t.AutomationEnabled {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *MockTenantRepository) Create(ctx context.Context, t *domain.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.Tenants = append(m.Tenants, *t)
	m.CreatedTenants = append(m.CreatedTenants, *t)
	return nil
}

func (m *MockTenantRepository) UpdateSettings(ctx context.Context, t *domain.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	for i := range m.Tenants {
		if m.Tenants[i].ID == t.ID {
			m.Tenants[i] = *t
		}
	}
	m.UpdatedSettings = append(m.UpdatedSettings, *t)
	return nil
}

func (m *MockTenantRepository) UpdateAccess(ctx context.Context, id uuid.UUID, hasAccess bool, stripeCustomerID, licenseKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	for i := range m.Tenants {
		if m.Tenants[i].ID == id {
			m.Tenants[i].HasAccess = hasAccess
			m.Tenants[i].StripeCustomerID = stripeCustomerID
			m.Tenants[i].LicenseKey = licenseKey
		}
	}
	m.AccessUpdates = append(m.AccessUpdates, id)
	return nil
}

func (m *MockTenantRepository) RotateAPIKey(ctx context.Context, id uuid.UUID, newKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	if m.RotatedKeys == nil {
		m.RotatedKeys = make(map[uuid.UUID]string)
	}
	m.RotatedKeys[id] = newKey
	for i := range m.Tenants {
		if m.Tenants[i].ID == id {
			m.Tenants[i].APIKey = newKey
		}
	}
	return nil
}

// MockEndUserRepository is a mock implementation of domain.EndUserRepository for testing.
type MockEndUserRepository struct {
	mu           sync.Mutex
	Users        []domain.EndUser
	CreatedUsers []domain.EndUser
	NudgeMarks   []NudgeMark
	Touches      []uuid.UUID
	StepAdds     []StepAdd
	ListErr      error
	GetErr       error
	CreateErr    error
	MarkErr      error
	TouchErr     error
}

// NudgeMark records one MarkNudged call.
type NudgeMark struct {
	UserID uuid.UUID
	Tag    domain.NudgeTag
	At     time.Time
}

// StepAdd records one AddCompletedStep call.
type StepAdd struct {
	UserID uuid.UUID
	Step   domain.EventName
}

func (m *MockEndUserRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]domain.EndUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var out []domain.EndUser
	for _, u := range m.Users {
		if u.TenantID == tenantID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *MockEndUserRepository) ListNeverEmailed(ctx context.Context, tenantID uuid.UUID, createdBefore time.Time) ([]domain.EndUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var out []domain.EndUser
	for _, u := range m.Users {
		if u.TenantID == tenantID && u.LastEmailedAt == nil && u.CreatedAt.Before(createdBefore) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *MockEndUserRepository) GetByExternalID(ctx context.Context, tenantID uuid.UUID, externalID string) (*domain.EndUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	for i := range m.Users {
		if m.Users[i].TenantID == tenantID && m.Users[i].ExternalID == externalID {
			u := m.Users[i]
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockEndUserRepository) Create(ctx context.Context, u *domain.EndUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.Users = append(m.Users, *u)
	m.CreatedUsers = append(m.CreatedUsers, *u)
	return nil
}

func (m *MockEndUserRepository) AddCompletedStep(ctx context.Context, userID uuid.UUID, step domain.EventName, seenAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Users {
		if m.Users[i].ID == userID {
			m.Users[i].CompletedSteps = m.Users[i].CompletedSteps.Add(step)
			m.Users[i].LastSeenAt = seenAt
		}
	}
	m.StepAdds = append(m.StepAdds, StepAdd{UserID: userID, Step: step})
	return nil
}

func (m *MockEndUserRepository) MarkNudged(ctx context.Context, userID uuid.UUID, tag domain.NudgeTag, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MarkErr != nil {
		return m.MarkErr
	}
	for i := range m.Users {
		if m.Users[i].ID == userID && !m.Users[i].AutomationsReceived.Contains(tag) {
			m.Users[i].AutomationsReceived = append(m.Users[i].AutomationsReceived, tag)
			at := at
			m.Users[i].LastEmailedAt = &at
		}
	}
	m.NudgeMarks = append(m.NudgeMarks, NudgeMark{UserID: userID, Tag: tag, At: at})
	return nil
}

func (m *MockEndUserRepository) TouchEmailed(ctx context.Context, userID uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.TouchErr != nil {
		return m.TouchErr
	}
	for i := range m.Users {
		if m.Users[i].ID == userID {
			at := at
			m.Users[i].LastEmailedAt = &at
		}
	}
	m.Touches = append(m.Touches, userID)
	return nil
}

// SentEmail records one Mailer.Send call.
type SentEmail struct {
	From    string
	To      string
	Subject string
	Body    string
}

// MockMailer is a mock implementation of domain.Mailer for testing.
// FailFor maps recipient addresses to errors returned instead of sending.
type MockMailer struct {
	mu      sync.Mutex
	Sent    []SentEmail
	SendErr error
	FailFor map[string]error
}

func (m *MockMailer) Send(ctx context.Context, from, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return m.SendErr
	}
	if err, ok := m.FailFor[to]; ok {
		return err
	}
	m.Sent = append(m.Sent, SentEmail{From: from, To: to, Subject: subject, Body: body})
	return nil
}
