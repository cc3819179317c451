package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Olawill/church-transport-application-sub001/internal/persistence"
	"github.com/Olawill/church-transport-application-sub001/internal/testfixtures"
)

func TestServiceRepository_RoundTrip(t *testing.T) {
	t.Parallel()

	h := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	definition := testfixtures.NewServiceDefinition("svc-1", testfixtures.WithMonthlyStep(2, "FIRST"))
	days := []persistence.ServiceDay{
		testfixtures.NewServiceDay("day-1", "svc-1", time.Sunday),
		testfixtures.NewServiceDay("day-2", "svc-1", time.Wednesday),
	}
	if err := h.Services.CreateServiceDefinition(ctx, definition, days); err != nil {
		t.Fatalf("CreateServiceDefinition returned error: %v", err)
	}

	got, err := h.Services.GetServiceDefinition(ctx, "svc-1")
	if err != nil {
		t.Fatalf("GetServiceDefinition returned error: %v", err)
	}
	if got.StepMonths != 2 || got.Ordinal != "FIRST" || !got.Active {
		t.Fatalf("unexpected definition: %+v", got)
	}

	listed, err := h.Services.ListServiceDays(ctx, "svc-1")
	if err != nil {
		t.Fatalf("ListServiceDays returned error: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 weekdays, got %d", len(listed))
	}

	day, err := h.Services.GetServiceDay(ctx, "day-2")
	if err != nil {
		t.Fatalf("GetServiceDay returned error: %v", err)
	}
	if day.Weekday != time.Wednesday {
		t.Fatalf("unexpected weekday: %s", day.Weekday)
	}
}

func TestServiceRepository_DuplicateWeekday(t *testing.T) {
	t.Parallel()

	h := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	definition := testfixtures.NewServiceDefinition("svc-1")
	days := []persistence.ServiceDay{
		testfixtures.NewServiceDay("day-1", "svc-1", time.Sunday),
		testfixtures.NewServiceDay("day-2", "svc-1", time.Sunday),
	}

	err := h.Services.CreateServiceDefinition(ctx, definition, days)
	if !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	// The definition row must have been rolled back with the failed days.
	if _, err := h.Services.GetServiceDefinition(ctx, "svc-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after rollback, got %v", err)
	}
}

func TestServiceRepository_ArchiveFiltering(t *testing.T) {
	t.Parallel()

	h := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	active := testfixtures.NewServiceDefinition("svc-1")
	if err := h.Services.CreateServiceDefinition(ctx, active, []persistence.ServiceDay{testfixtures.NewServiceDay("day-1", "svc-1", time.Sunday)}); err != nil {
		t.Fatalf("CreateServiceDefinition returned error: %v", err)
	}

	archivedAt := testfixtures.ReferenceTime()
	archived := testfixtures.NewServiceDefinition("svc-2")
	archived.Name = "Retired Service"
	if err := h.Services.CreateServiceDefinition(ctx, archived, []persistence.ServiceDay{testfixtures.NewServiceDay("day-2", "svc-2", time.Monday)}); err != nil {
		t.Fatalf("CreateServiceDefinition returned error: %v", err)
	}
	archived.Active = false
	archived.ArchivedAt = &archivedAt
	if err := h.Services.UpdateServiceDefinition(ctx, archived); err != nil {
		t.Fatalf("UpdateServiceDefinition returned error: %v", err)
	}

	activeOnly, err := h.Services.ListServiceDefinitions(ctx, true)
	if err != nil {
		t.Fatalf("ListServiceDefinitions returned error: %v", err)
	}
	if len(activeOnly) != 1 || activeOnly[0].ID != "svc-1" {
		t.Fatalf("active filter not applied: %+v", activeOnly)
	}

	all, err := h.Services.ListServiceDefinitions(ctx, false)
	if err != nil {
		t.Fatalf("ListServiceDefinitions returned error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected both definitions, got %d", len(all))
	}
}
