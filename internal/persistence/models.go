package persistence

import "time"

// User represents a congregation member or administrator account.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	IsAdmin      bool
	Disabled     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Address represents a saved pickup or drop-off location owned by a user.
type Address struct {
	ID         string
	UserID     string
	Label      string
	Street     string
	City       string
	Province   string
	PostalCode string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ServiceCategory classifies how a service definition repeats.
type ServiceCategory string

const (
	CategoryRecurring        ServiceCategory = "RECURRING"
	CategoryOnetimeOneDay    ServiceCategory = "ONETIME_ONEDAY"
	CategoryOnetimeMultiDay  ServiceCategory = "ONETIME_MULTIDAY"
	CategoryFrequentMultiDay ServiceCategory = "FREQUENT_MULTIDAY"
)

// ServiceDefinition represents an administrator-created church service that
// members request transportation to. Archived definitions are retained with
// Active false rather than deleted.
type ServiceDefinition struct {
	ID         string
	Name       string
	Category   ServiceCategory
	TimeOfDay  string // HH:MM, local church time
	StepMonths int    // 0 = day granular
	Ordinal    string // recurrence ordinal name, NEXT when day granular
	Active     bool
	ArchivedAt *time.Time
	StartDate  *time.Time
	EndDate    *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ServiceDay represents one weekday on which a service definition runs.
type ServiceDay struct {
	ID                  string
	ServiceDefinitionID string
	Weekday             time.Weekday
	CreatedAt           time.Time
}

// PickupSeries groups the requests generated from one recurring submission.
// It carries no state of its own; requests cascade with it.
type PickupSeries struct {
	ID        string
	CreatedAt time.Time
}

// RequestStatus tracks the lifecycle of a transport request.
type RequestStatus string

const (
	StatusPending   RequestStatus = "PENDING"
	StatusAccepted  RequestStatus = "ACCEPTED"
	StatusCompleted RequestStatus = "COMPLETED"
	StatusCancelled RequestStatus = "CANCELLED"
	StatusExpired   RequestStatus = "EXPIRED"
)

// TransportRequest represents one booked occurrence: a member's pickup and/or
// drop-off for a concrete service date. RequestDate is a calendar date; the
// time of day lives on the service definition.
type TransportRequest struct {
	ID                  string
	UserID              string
	ServiceDefinitionID string
	ServiceDayID        string
	SeriesID            *string
	RequestDate         time.Time
	AddressID           string
	Pickup              bool
	Dropoff             bool
	GroupSize           int
	Notes               *string
	Status              RequestStatus
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// RequestFilter narrows transport request queries.
type RequestFilter struct {
	UserID              string
	ServiceDefinitionID string
	SeriesID            string
	From                *time.Time
	To                  *time.Time
	Statuses            []RequestStatus
}
