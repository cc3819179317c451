package persistence

import (
	"context"
	"time"
)

// UserRepository exposes CRUD operations for member accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// AddressRepository exposes CRUD operations for saved addresses.
type AddressRepository interface {
	CreateAddress(ctx context.Context, address Address) error
	GetAddress(ctx context.Context, id string) (Address, error)
	ListAddressesForUser(ctx context.Context, userID string) ([]Address, error)
	AddressExists(ctx context.Context, userID, addressID string) (bool, error)
}

// ServiceRepository stores service definitions and their weekday references.
type ServiceRepository interface {
	CreateServiceDefinition(ctx context.Context, definition ServiceDefinition, days []ServiceDay) error
	UpdateServiceDefinition(ctx context.Context, definition ServiceDefinition) error
	GetServiceDefinition(ctx context.Context, id string) (ServiceDefinition, error)
	ListServiceDefinitions(ctx context.Context, activeOnly bool) ([]ServiceDefinition, error)
	GetServiceDay(ctx context.Context, id string) (ServiceDay, error)
	ListServiceDays(ctx context.Context, serviceDefinitionID string) ([]ServiceDay, error)
}

// RequestRepository stores transport requests and their series groupings.
// CreateSeries and UpdateRequests are atomic: either every row is written or
// none is.
type RequestRepository interface {
	CreateRequest(ctx context.Context, request TransportRequest) error
	CreateSeries(ctx context.Context, series PickupSeries, requests []TransportRequest) error
	GetRequest(ctx context.Context, id string) (TransportRequest, error)
	UpdateRequest(ctx context.Context, request TransportRequest) error
	UpdateRequests(ctx context.Context, requests []TransportRequest) error
	ListRequests(ctx context.Context, filter RequestFilter) ([]TransportRequest, error)
	// ListSeriesFrom returns the members of a series whose request date is on
	// or after from, ordered ascending by date.
	ListSeriesFrom(ctx context.Context, seriesID string, from time.Time) ([]TransportRequest, error)
	// HasActiveRequest reports whether a non-cancelled request exists for the
	// (user, service definition, date) key, ignoring the given request IDs.
	HasActiveRequest(ctx context.Context, userID, serviceDefinitionID string, date time.Time, excludeIDs []string) (bool, error)
	// ExpirePastRequests marks pending requests dated before the reference
	// date as expired and reports how many rows changed.
	ExpirePastRequests(ctx context.Context, before time.Time) (int64, error)
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) error
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) error
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}
