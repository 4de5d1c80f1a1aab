package domain

import "errors"

var (
	// ErrStepNotConfigured is returned when a manual nudge targets a step
	// whose goal event name is unset in the tenant's settings.
	ErrStepNotConfigured = errors.New("step is not configured in settings")

	// ErrTenantNotFound is returned when no tenant matches the lookup.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrUserNotFound is returned when no end user matches the lookup.
	ErrUserNotFound = errors.New("end user not found")

	// ErrDuplicateUser is returned when creating an end user whose
	// (tenant, external id) pair already exists.
	ErrDuplicateUser = errors.New("end user already exists")

	// ErrUnauthorized is returned for missing or invalid credentials.
	ErrUnauthorized = errors.New("unauthorized")
)
