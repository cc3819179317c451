package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Olawill/church-transport-application-sub001/internal/persistence"
)

type serviceRepoStub struct {
	definition  ServiceDefinition
	days        []ServiceDay
	getErr      error
	created     *ServiceDefinition
	createdDays []ServiceDay
	updated     *ServiceDefinition
	writeErr    error
	list        []ServiceDefinition
	activeOnly  bool
}

func (s *serviceRepoStub) CreateServiceDefinition(ctx context.Context, definition ServiceDefinition, days []ServiceDay) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.created = &definition
	s.createdDays = days
	return nil
}

func (s *serviceRepoStub) UpdateServiceDefinition(ctx context.Context, definition ServiceDefinition) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.updated = &definition
	return nil
}

func (s *serviceRepoStub) GetServiceDefinition(ctx context.Context, id string) (ServiceDefinition, error) {
	if s.getErr != nil {
		return ServiceDefinition{}, s.getErr
	}
	return s.definition, nil
}

func (s *serviceRepoStub) ListServiceDefinitions(ctx context.Context, activeOnly bool) ([]ServiceDefinition, error) {
	s.activeOnly = activeOnly
	return s.list, nil
}

func (s *serviceRepoStub) GetServiceDay(ctx context.Context, id string) (ServiceDay, error) {
	if len(s.days) == 0 {
		return ServiceDay{}, persistence.ErrNotFound
	}
	return s.days[0], nil
}

func (s *serviceRepoStub) ListServiceDays(ctx context.Context, serviceDefinitionID string) ([]ServiceDay, error) {
	return s.days, nil
}

func catalogClock() time.Time {
	return time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
}

func validDefinitionInput() ServiceDefinitionInput {
	return ServiceDefinitionInput{
		Name:      "Sunday Worship",
		Category:  persistence.CategoryRecurring,
		TimeOfDay: "10:00",
		Weekdays:  []time.Weekday{time.Sunday},
	}
}

func TestServiceCatalogService_CreateServiceDefinition(t *testing.T) {
	t.Parallel()

	repo := &serviceRepoStub{}
	svc := NewServiceCatalogService(repo, sequentialIDs("svc"), catalogClock)

	input := validDefinitionInput()
	input.Weekdays = []time.Weekday{time.Wednesday, time.Sunday}

	definition, days, err := svc.CreateServiceDefinition(context.Background(), Principal{UserID: "admin-1", IsAdmin: true}, input)
	if err != nil {
		t.Fatalf("CreateServiceDefinition returned error: %v", err)
	}
	if !definition.Active {
		t.Fatalf("new definitions must start active")
	}
	if definition.Ordinal != "NEXT" {
		t.Fatalf("day granular definitions carry the NEXT ordinal, got %q", definition.Ordinal)
	}
	if len(days) != 2 || days[0].Weekday != time.Sunday || days[1].Weekday != time.Wednesday {
		t.Fatalf("weekdays not sorted: %+v", days)
	}
	if repo.created == nil || len(repo.createdDays) != 2 {
		t.Fatalf("definition and days must be persisted together")
	}
}

func TestServiceCatalogService_CreateRequiresAdmin(t *testing.T) {
	t.Parallel()

	svc := NewServiceCatalogService(&serviceRepoStub{}, sequentialIDs("svc"), catalogClock)

	_, _, err := svc.CreateServiceDefinition(context.Background(), Principal{UserID: "user-1"}, validDefinitionInput())
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestServiceCatalogService_CreateValidatesInput(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*ServiceDefinitionInput)
		field  string
	}{
		{"missing name", func(in *ServiceDefinitionInput) { in.Name = " " }, "name"},
		{"bad category", func(in *ServiceDefinitionInput) { in.Category = "WEEKLY" }, "category"},
		{"bad time", func(in *ServiceDefinitionInput) { in.TimeOfDay = "25:99" }, "time_of_day"},
		{"no weekdays", func(in *ServiceDefinitionInput) { in.Weekdays = nil }, "weekdays"},
		{"duplicate weekday", func(in *ServiceDefinitionInput) { in.Weekdays = []time.Weekday{time.Sunday, time.Sunday} }, "weekdays"},
		{"bad ordinal", func(in *ServiceDefinitionInput) { in.StepMonths = 1; in.Ordinal = "FIFTH" }, "ordinal"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := NewServiceCatalogService(&serviceRepoStub{}, sequentialIDs("svc"), catalogClock)
			input := validDefinitionInput()
			tc.mutate(&input)

			_, _, err := svc.CreateServiceDefinition(context.Background(), Principal{IsAdmin: true}, input)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := vErr.FieldErrors[tc.field]; !ok {
				t.Fatalf("expected field error for %s, got %v", tc.field, vErr.FieldErrors)
			}
		})
	}
}

func TestServiceCatalogService_ArchiveAndActivate(t *testing.T) {
	t.Parallel()

	repo := &serviceRepoStub{definition: ServiceDefinition{ID: "svc-1", Name: "Bible Study", Active: true}}
	svc := NewServiceCatalogService(repo, sequentialIDs("svc"), catalogClock)
	admin := Principal{UserID: "admin-1", IsAdmin: true}

	archived, err := svc.ArchiveServiceDefinition(context.Background(), admin, "svc-1")
	if err != nil {
		t.Fatalf("ArchiveServiceDefinition returned error: %v", err)
	}
	if archived.Active || archived.ArchivedAt == nil {
		t.Fatalf("archive must clear Active and stamp ArchivedAt: %+v", archived)
	}

	// Within the cooldown window activation is refused.
	repo.definition = archived
	_, err = svc.ActivateServiceDefinition(context.Background(), admin, "svc-1")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict inside cooldown, got %v", err)
	}

	// Once the cooldown has elapsed activation succeeds.
	past := catalogClock().Add(-25 * time.Hour)
	repo.definition.ArchivedAt = &past
	activated, err := svc.ActivateServiceDefinition(context.Background(), admin, "svc-1")
	if err != nil {
		t.Fatalf("ActivateServiceDefinition returned error: %v", err)
	}
	if !activated.Active || activated.ArchivedAt != nil {
		t.Fatalf("activation must restore Active and clear ArchivedAt: %+v", activated)
	}
}

func TestServiceCatalogService_ListScopesArchived(t *testing.T) {
	t.Parallel()

	repo := &serviceRepoStub{}
	svc := NewServiceCatalogService(repo, sequentialIDs("svc"), catalogClock)

	if _, err := svc.ListServiceDefinitions(context.Background(), Principal{UserID: "user-1"}, true); err != nil {
		t.Fatalf("ListServiceDefinitions returned error: %v", err)
	}
	if !repo.activeOnly {
		t.Fatalf("members must only see active services")
	}

	if _, err := svc.ListServiceDefinitions(context.Background(), Principal{IsAdmin: true}, true); err != nil {
		t.Fatalf("ListServiceDefinitions returned error: %v", err)
	}
	if repo.activeOnly {
		t.Fatalf("administrators may include archived services")
	}
}
