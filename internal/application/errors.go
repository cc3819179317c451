package application

import "errors"

var (
	// ErrNotFound is returned when a referenced service, address or request
	// does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrForbidden is returned when the acting principal does not own the
	// target request and is not an administrator.
	ErrForbidden = errors.New("application: forbidden")
	// ErrInvalidTiming is returned when the submission clock has passed the
	// cutoff for the candidate date.
	ErrInvalidTiming = errors.New("application: past submission cutoff")
	// ErrInvalidWeekday is returned when the candidate date's weekday does
	// not match the chosen service day.
	ErrInvalidWeekday = errors.New("application: weekday mismatch")
	// ErrInvalidSpan is returned when a recurring end date is missing,
	// earlier than the request date, or more than three months out.
	ErrInvalidSpan = errors.New("application: invalid recurring span")
	// ErrConflict is returned when a duplicate request already exists for
	// the (user, service, date) key.
	ErrConflict = errors.New("application: duplicate request")
	// ErrGenerationMismatch is returned when a series shift produced a
	// different number of dates than rows being replaced. It signals a
	// broken internal invariant and is never retried.
	ErrGenerationMismatch = errors.New("application: series regeneration mismatch")

	// ErrInvalidCredentials is returned when authentication fails.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrAccountDisabled is returned when the account cannot sign in.
	ErrAccountDisabled = errors.New("application: account disabled")
	// ErrSessionExpired is returned when a session token has expired.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned when a session token was revoked.
	ErrSessionRevoked = errors.New("application: session revoked")
)

// ValidationError captures field level validation issues that callers can
// surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
