// Package testfixtures supplies deterministic clocks, identifier generators
// and domain builders shared by tests across packages.
package testfixtures

import (
	"time"

	"github.com/Olawill/church-transport-application-sub001/internal/persistence"
)

// ReferenceTime is the shared anchor instant for deterministic tests:
// Monday 2024-01-01 08:00 UTC, two hours before a 10:00 service.
func ReferenceTime() time.Time {
	return time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC)
}

// ReferenceDate is ReferenceTime truncated to midnight UTC.
func ReferenceDate() time.Time {
	return time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
}

// UserOption mutates a user fixture before it is returned.
type UserOption func(*persistence.User)

// NewUser builds a member account with sane defaults.
func NewUser(id string, opts ...UserOption) persistence.User {
	user := persistence.User{
		ID:           id,
		Email:        id + "@example.org",
		DisplayName:  "Member " + id,
		PasswordHash: "$argon2id$test",
		CreatedAt:    ReferenceTime(),
		UpdatedAt:    ReferenceTime(),
	}
	for _, opt := range opts {
		opt(&user)
	}
	return user
}

// AsAdmin marks the user fixture as an administrator.
func AsAdmin() UserOption {
	return func(user *persistence.User) { user.IsAdmin = true }
}

// NewAddress builds a saved address owned by userID.
func NewAddress(id, userID string) persistence.Address {
	return persistence.Address{
		ID:         id,
		UserID:     userID,
		Label:      "Home",
		Street:     "12 Chapel Lane",
		City:       "Hamilton",
		Province:   "ON",
		PostalCode: "L8P 1A1",
		CreatedAt:  ReferenceTime(),
		UpdatedAt:  ReferenceTime(),
	}
}

// ServiceDefinitionOption mutates a service definition fixture.
type ServiceDefinitionOption func(*persistence.ServiceDefinition)

// NewServiceDefinition builds an active weekly service at 10:00.
func NewServiceDefinition(id string, opts ...ServiceDefinitionOption) persistence.ServiceDefinition {
	definition := persistence.ServiceDefinition{
		ID:        id,
		Name:      "Sunday Worship",
		Category:  persistence.CategoryRecurring,
		TimeOfDay: "10:00",
		Ordinal:   "NEXT",
		Active:    true,
		CreatedAt: ReferenceTime(),
		UpdatedAt: ReferenceTime(),
	}
	for _, opt := range opts {
		opt(&definition)
	}
	return definition
}

// WithMonthlyStep turns the definition into an every-N-months service.
func WithMonthlyStep(stepMonths int, ordinal string) ServiceDefinitionOption {
	return func(definition *persistence.ServiceDefinition) {
		definition.StepMonths = stepMonths
		definition.Ordinal = ordinal
	}
}

// NewServiceDay builds a weekday reference for a definition.
func NewServiceDay(id, definitionID string, weekday time.Weekday) persistence.ServiceDay {
	return persistence.ServiceDay{
		ID:                  id,
		ServiceDefinitionID: definitionID,
		Weekday:             weekday,
		CreatedAt:           ReferenceTime(),
	}
}

// RequestOption mutates a transport request fixture.
type RequestOption func(*persistence.TransportRequest)

// NewRequest builds a pending pickup request on the reference date.
func NewRequest(id, userID, definitionID, dayID, addressID string, opts ...RequestOption) persistence.TransportRequest {
	request := persistence.TransportRequest{
		ID:                  id,
		UserID:              userID,
		ServiceDefinitionID: definitionID,
		ServiceDayID:        dayID,
		RequestDate:         ReferenceDate(),
		AddressID:           addressID,
		Pickup:              true,
		GroupSize:           1,
		Status:              persistence.StatusPending,
		CreatedAt:           ReferenceTime(),
		UpdatedAt:           ReferenceTime(),
	}
	for _, opt := range opts {
		opt(&request)
	}
	return request
}

// OnDate moves the request fixture to the given date.
func OnDate(date time.Time) RequestOption {
	return func(request *persistence.TransportRequest) { request.RequestDate = date }
}

// InSeries links the request fixture to a series.
func InSeries(seriesID string) RequestOption {
	return func(request *persistence.TransportRequest) { request.SeriesID = &seriesID }
}

// WithStatus overrides the request fixture status.
func WithStatus(status persistence.RequestStatus) RequestOption {
	return func(request *persistence.TransportRequest) { request.Status = status }
}

// NewSeries builds a pickup series grouping row.
func NewSeries(id string) persistence.PickupSeries {
	return persistence.PickupSeries{ID: id, CreatedAt: ReferenceTime()}
}
