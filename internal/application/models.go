package application

import (
	"time"

	"github.com/Olawill/church-transport-application-sub001/internal/persistence"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// Request is the application view of one booked transport occurrence.
type Request = persistence.TransportRequest

// Series is the application view of a pickup series grouping.
type Series = persistence.PickupSeries

// ServiceDefinition is the application view of a church service definition.
type ServiceDefinition = persistence.ServiceDefinition

// ServiceDay is the application view of a service weekday reference.
type ServiceDay = persistence.ServiceDay

// RequestInput captures caller provided transport request fields.
type RequestInput struct {
	// UserID is the member the request is for. Empty means the principal.
	UserID              string
	ServiceDefinitionID string
	ServiceDayID        string
	RequestDate         time.Time
	AddressID           string
	Pickup              bool
	Dropoff             bool
	GroupSize           int
	Notes               string
	// Recurring books a whole weekly series through RecurrenceEndDate.
	Recurring         bool
	RecurrenceEndDate *time.Time
}

// CreateRequestParams wraps the data required to create a request or series.
type CreateRequestParams struct {
	Principal Principal
	Input     RequestInput
}

// UpdateRequestParams wraps the data required to update a request. When
// UpdateSeries is set and the target belongs to a series, the change applies
// to every series row dated at or after the target's original date.
type UpdateRequestParams struct {
	Principal    Principal
	RequestID    string
	UpdateSeries bool
	Input        RequestInput
}

// ListRequestsParams narrows request listings.
type ListRequestsParams struct {
	Principal Principal
	UserID    string
	SeriesID  string
	From      *time.Time
	To        *time.Time
}

// ServiceDefinitionInput captures administrator provided service fields.
type ServiceDefinitionInput struct {
	Name       string
	Category   persistence.ServiceCategory
	TimeOfDay  string
	StepMonths int
	Ordinal    string
	Weekdays   []time.Weekday
	StartDate  *time.Time
	EndDate    *time.Time
}

// User represents a member account exposed by the application services.
type User struct {
	ID          string
	Email       string
	DisplayName string
	IsAdmin     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Session represents an authenticated session issued to a user.
type Session = persistence.Session

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful authentication.
type AuthenticateResult struct {
	User    User
	Session Session
}
