package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Olawill/church-transport-application-sub001/internal/persistence"
	"github.com/Olawill/church-transport-application-sub001/internal/recurrence"
)

// ServiceRepository captures the persistence interactions needed by the
// service catalog. CreateServiceDefinition writes the definition and its
// weekdays atomically.
type ServiceRepository interface {
	CreateServiceDefinition(ctx context.Context, definition ServiceDefinition, days []ServiceDay) error
	UpdateServiceDefinition(ctx context.Context, definition ServiceDefinition) error
	GetServiceDefinition(ctx context.Context, id string) (ServiceDefinition, error)
	ListServiceDefinitions(ctx context.Context, activeOnly bool) ([]ServiceDefinition, error)
	GetServiceDay(ctx context.Context, id string) (ServiceDay, error)
	ListServiceDays(ctx context.Context, serviceDefinitionID string) ([]ServiceDay, error)
}

// reactivationCooldown is how long an archived service stays locked before an
// administrator may activate it again.
const reactivationCooldown = 24 * time.Hour

// ServiceCatalogService manages administrator-maintained service definitions
// and their weekdays. All mutations require an administrator principal.
type ServiceCatalogService struct {
	services    ServiceRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewServiceCatalogService wires dependencies for catalog operations.
func NewServiceCatalogService(services ServiceRepository, idGenerator func() string, now func() time.Time) *ServiceCatalogService {
	return NewServiceCatalogServiceWithLogger(services, idGenerator, now, nil)
}

// NewServiceCatalogServiceWithLogger constructs a ServiceCatalogService with a
// specified logger.
func NewServiceCatalogServiceWithLogger(services ServiceRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ServiceCatalogService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ServiceCatalogService{
		services:    services,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *ServiceCatalogService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ServiceCatalogService", operation, attrs...)
}

// CreateServiceDefinition registers a new service and its weekdays.
func (s *ServiceCatalogService) CreateServiceDefinition(ctx context.Context, principal Principal, input ServiceDefinitionInput) (ServiceDefinition, []ServiceDay, error) {
	if s == nil || s.services == nil {
		return ServiceDefinition{}, nil, fmt.Errorf("service repository not configured")
	}
	if !principal.IsAdmin {
		return ServiceDefinition{}, nil, fmt.Errorf("%w: catalog changes require an administrator", ErrForbidden)
	}
	if vErr := validateDefinitionInput(input); vErr.HasErrors() {
		return ServiceDefinition{}, nil, vErr
	}

	now := s.now()
	definition := ServiceDefinition{
		ID:         s.idGenerator(),
		Name:       strings.TrimSpace(input.Name),
		Category:   input.Category,
		TimeOfDay:  input.TimeOfDay,
		StepMonths: input.StepMonths,
		Ordinal:    normalizeOrdinal(input),
		Active:     true,
		StartDate:  input.StartDate,
		EndDate:    input.EndDate,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	days := make([]ServiceDay, 0, len(input.Weekdays))
	for _, weekday := range sortedWeekdays(input.Weekdays) {
		days = append(days, ServiceDay{
			ID:                  s.idGenerator(),
			ServiceDefinitionID: definition.ID,
			Weekday:             weekday,
			CreatedAt:           now,
		})
	}

	if err := s.services.CreateServiceDefinition(ctx, definition, days); err != nil {
		return ServiceDefinition{}, nil, mapRequestRepoError(err)
	}

	s.loggerWith(ctx, "CreateServiceDefinition", "service_id", definition.ID).
		InfoContext(ctx, "service definition created", "name", definition.Name, "weekdays", len(days))
	return definition, days, nil
}

// UpdateServiceDefinition replaces the mutable fields of an existing service.
// Weekdays are fixed after creation; members may hold requests against them.
func (s *ServiceCatalogService) UpdateServiceDefinition(ctx context.Context, principal Principal, id string, input ServiceDefinitionInput) (ServiceDefinition, error) {
	if s == nil || s.services == nil {
		return ServiceDefinition{}, fmt.Errorf("service repository not configured")
	}
	if !principal.IsAdmin {
		return ServiceDefinition{}, fmt.Errorf("%w: catalog changes require an administrator", ErrForbidden)
	}
	if vErr := validateDefinitionInput(input); vErr.HasErrors() {
		return ServiceDefinition{}, vErr
	}

	definition, err := s.services.GetServiceDefinition(ctx, id)
	if err != nil {
		return ServiceDefinition{}, mapRequestRepoError(err)
	}

	definition.Name = strings.TrimSpace(input.Name)
	definition.Category = input.Category
	definition.TimeOfDay = input.TimeOfDay
	definition.StepMonths = input.StepMonths
	definition.Ordinal = normalizeOrdinal(input)
	definition.StartDate = input.StartDate
	definition.EndDate = input.EndDate
	definition.UpdatedAt = s.now()

	if err := s.services.UpdateServiceDefinition(ctx, definition); err != nil {
		return ServiceDefinition{}, mapRequestRepoError(err)
	}
	return definition, nil
}

// GetServiceDefinition retrieves one service definition with its weekdays.
func (s *ServiceCatalogService) GetServiceDefinition(ctx context.Context, id string) (ServiceDefinition, []ServiceDay, error) {
	if s == nil || s.services == nil {
		return ServiceDefinition{}, nil, fmt.Errorf("service repository not configured")
	}

	definition, err := s.services.GetServiceDefinition(ctx, id)
	if err != nil {
		return ServiceDefinition{}, nil, mapRequestRepoError(err)
	}
	days, err := s.services.ListServiceDays(ctx, definition.ID)
	if err != nil {
		return ServiceDefinition{}, nil, mapRequestRepoError(err)
	}
	return definition, days, nil
}

// ListServiceDefinitions enumerates the catalog. Members see active services
// only; administrators may include archived entries.
func (s *ServiceCatalogService) ListServiceDefinitions(ctx context.Context, principal Principal, includeArchived bool) ([]ServiceDefinition, error) {
	if s == nil || s.services == nil {
		return nil, fmt.Errorf("service repository not configured")
	}

	activeOnly := !includeArchived || !principal.IsAdmin
	definitions, err := s.services.ListServiceDefinitions(ctx, activeOnly)
	if err != nil {
		return nil, mapRequestRepoError(err)
	}
	return definitions, nil
}

// ArchiveServiceDefinition retires a service without deleting it. Existing
// requests against the service are unaffected.
func (s *ServiceCatalogService) ArchiveServiceDefinition(ctx context.Context, principal Principal, id string) (ServiceDefinition, error) {
	if s == nil || s.services == nil {
		return ServiceDefinition{}, fmt.Errorf("service repository not configured")
	}
	if !principal.IsAdmin {
		return ServiceDefinition{}, fmt.Errorf("%w: catalog changes require an administrator", ErrForbidden)
	}

	definition, err := s.services.GetServiceDefinition(ctx, id)
	if err != nil {
		return ServiceDefinition{}, mapRequestRepoError(err)
	}
	if !definition.Active {
		return definition, nil
	}

	now := s.now()
	definition.Active = false
	definition.ArchivedAt = &now
	definition.UpdatedAt = now

	if err := s.services.UpdateServiceDefinition(ctx, definition); err != nil {
		return ServiceDefinition{}, mapRequestRepoError(err)
	}
	s.loggerWith(ctx, "ArchiveServiceDefinition", "service_id", id).
		InfoContext(ctx, "service definition archived")
	return definition, nil
}

// ActivateServiceDefinition restores an archived service. A freshly archived
// service stays locked for a cooldown window so accidental archive and
// reactivate churn does not whipsaw members' bookings.
func (s *ServiceCatalogService) ActivateServiceDefinition(ctx context.Context, principal Principal, id string) (ServiceDefinition, error) {
	if s == nil || s.services == nil {
		return ServiceDefinition{}, fmt.Errorf("service repository not configured")
	}
	if !principal.IsAdmin {
		return ServiceDefinition{}, fmt.Errorf("%w: catalog changes require an administrator", ErrForbidden)
	}

	definition, err := s.services.GetServiceDefinition(ctx, id)
	if err != nil {
		return ServiceDefinition{}, mapRequestRepoError(err)
	}
	if definition.Active {
		return definition, nil
	}

	now := s.now()
	if definition.ArchivedAt != nil {
		if remaining := reactivationCooldown - now.Sub(*definition.ArchivedAt); remaining > 0 {
			return ServiceDefinition{}, fmt.Errorf("%w: service may be activated again in %s", ErrConflict, remaining.Round(time.Minute))
		}
	}

	definition.Active = true
	definition.ArchivedAt = nil
	definition.UpdatedAt = now

	if err := s.services.UpdateServiceDefinition(ctx, definition); err != nil {
		return ServiceDefinition{}, mapRequestRepoError(err)
	}
	s.loggerWith(ctx, "ActivateServiceDefinition", "service_id", id).
		InfoContext(ctx, "service definition activated")
	return definition, nil
}

func validateDefinitionInput(input ServiceDefinitionInput) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	switch input.Category {
	case persistence.CategoryRecurring, persistence.CategoryOnetimeOneDay,
		persistence.CategoryOnetimeMultiDay, persistence.CategoryFrequentMultiDay:
	default:
		vErr.add("category", "unknown service category")
	}
	if _, err := time.Parse("15:04", input.TimeOfDay); err != nil {
		vErr.add("time_of_day", "time of day must be HH:MM")
	}
	if input.StepMonths < 0 {
		vErr.add("step_months", "month step cannot be negative")
	}
	if input.StepMonths > 0 {
		if _, err := recurrence.ParseOrdinal(input.Ordinal); err != nil {
			vErr.add("ordinal", "unknown recurrence ordinal")
		}
	}
	if len(input.Weekdays) == 0 {
		vErr.add("weekdays", "at least one weekday is required")
	}
	seen := map[time.Weekday]bool{}
	for _, weekday := range input.Weekdays {
		if weekday < time.Sunday || weekday > time.Saturday {
			vErr.add("weekdays", "weekday out of range")
			break
		}
		if seen[weekday] {
			vErr.add("weekdays", "duplicate weekday")
			break
		}
		seen[weekday] = true
	}
	if input.StartDate != nil && input.EndDate != nil && input.EndDate.Before(*input.StartDate) {
		vErr.add("end_date", "end date precedes start date")
	}
	return vErr
}

func normalizeOrdinal(input ServiceDefinitionInput) string {
	if input.StepMonths == 0 {
		return recurrence.OrdinalNext.String()
	}
	ordinal, err := recurrence.ParseOrdinal(input.Ordinal)
	if err != nil {
		return recurrence.OrdinalNext.String()
	}
	return ordinal.String()
}

func sortedWeekdays(weekdays []time.Weekday) []time.Weekday {
	out := append([]time.Weekday(nil), weekdays...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
