package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Olawill/church-transport-application-sub001/internal/persistence"
)

type requestRepoStub struct {
	request        Request
	getErr         error
	seriesRows     []Request
	seriesErr      error
	active         map[string]bool
	activeErr      error
	activeExcludes [][]string
	created        []Request
	createdSeries  *Series
	createErr      error
	updatedSingle  *Request
	updatedBatch   []Request
	updateErr      error
	list           []Request
	listFilter     persistence.RequestFilter
	expired        int64
	expireBefore   time.Time
}

func (r *requestRepoStub) CreateRequest(ctx context.Context, request Request) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.created = append(r.created, request)
	return nil
}

func (r *requestRepoStub) CreateSeries(ctx context.Context, series Series, requests []Request) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.createdSeries = &series
	r.created = append(r.created, requests...)
	return nil
}

func (r *requestRepoStub) GetRequest(ctx context.Context, id string) (Request, error) {
	if r.getErr != nil {
		return Request{}, r.getErr
	}
	return r.request, nil
}

func (r *requestRepoStub) UpdateRequest(ctx context.Context, request Request) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.updatedSingle = &request
	return nil
}

func (r *requestRepoStub) UpdateRequests(ctx context.Context, requests []Request) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.updatedBatch = append([]Request(nil), requests...)
	return nil
}

func (r *requestRepoStub) ListRequests(ctx context.Context, filter persistence.RequestFilter) ([]Request, error) {
	r.listFilter = filter
	return r.list, nil
}

func (r *requestRepoStub) ListSeriesFrom(ctx context.Context, seriesID string, from time.Time) ([]Request, error) {
	if r.seriesErr != nil {
		return nil, r.seriesErr
	}
	return r.seriesRows, nil
}

func (r *requestRepoStub) HasActiveRequest(ctx context.Context, userID, serviceDefinitionID string, date time.Time, excludeIDs []string) (bool, error) {
	if r.activeErr != nil {
		return false, r.activeErr
	}
	r.activeExcludes = append(r.activeExcludes, excludeIDs)
	return r.active[date.Format("2006-01-02")], nil
}

func (r *requestRepoStub) ExpirePastRequests(ctx context.Context, before time.Time) (int64, error) {
	r.expireBefore = before
	return r.expired, nil
}

type catalogStub struct {
	definition ServiceDefinition
	day        ServiceDay
	defErr     error
	dayErr     error
}

func (c *catalogStub) GetServiceDefinition(ctx context.Context, id string) (ServiceDefinition, error) {
	if c.defErr != nil {
		return ServiceDefinition{}, c.defErr
	}
	return c.definition, nil
}

func (c *catalogStub) GetServiceDay(ctx context.Context, id string) (ServiceDay, error) {
	if c.dayErr != nil {
		return ServiceDay{}, c.dayErr
	}
	return c.day, nil
}

type addressBookStub struct {
	exists bool
	err    error
}

func (a *addressBookStub) AddressExists(ctx context.Context, userID, addressID string) (bool, error) {
	if a.err != nil {
		return false, a.err
	}
	return a.exists, nil
}

type trackerStub struct {
	events []Event
	err    error
}

func (t *trackerStub) Track(ctx context.Context, event Event) error {
	if t.err != nil {
		return t.err
	}
	t.events = append(t.events, event)
	return nil
}

func sundayService() (ServiceDefinition, ServiceDay) {
	definition := ServiceDefinition{
		ID:        "svc-1",
		Name:      "Sunday Worship",
		Category:  persistence.CategoryRecurring,
		TimeOfDay: "10:00",
		Active:    true,
	}
	day := ServiceDay{ID: "day-1", ServiceDefinitionID: "svc-1", Weekday: time.Monday}
	return definition, day
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// Monday 2024-01-01, two hours before the 10:00 service.
func mondayMorning() time.Time {
	return time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC)
}

func newRequestService(repo *requestRepoStub, catalog *catalogStub, tracker Tracker) *RequestService {
	return NewRequestService(repo, catalog, &addressBookStub{exists: true}, tracker, sequentialIDs("id"), mondayMorning, time.Hour)
}

func baseInput() RequestInput {
	return RequestInput{
		ServiceDefinitionID: "svc-1",
		ServiceDayID:        "day-1",
		RequestDate:         time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		AddressID:           "addr-1",
		Pickup:              true,
		Dropoff:             true,
		GroupSize:           2,
		Notes:               "wheelchair space",
	}
}

func TestRequestService_CreateRequest_Single(t *testing.T) {
	t.Parallel()

	definition, day := sundayService()
	repo := &requestRepoStub{}
	tracker := &trackerStub{}
	svc := newRequestService(repo, &catalogStub{definition: definition, day: day}, tracker)

	created, err := svc.CreateRequest(context.Background(), CreateRequestParams{
		Principal: Principal{UserID: "user-1"},
		Input:     baseInput(),
	})
	if err != nil {
		t.Fatalf("CreateRequest returned error: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("expected 1 created request, got %d", len(created))
	}

	got := created[0]
	if got.UserID != "user-1" || got.ServiceDefinitionID != "svc-1" || got.ServiceDayID != "day-1" {
		t.Fatalf("unexpected request identity fields: %+v", got)
	}
	if got.Status != persistence.StatusPending {
		t.Fatalf("expected PENDING status, got %s", got.Status)
	}
	if got.SeriesID != nil {
		t.Fatalf("single request should not carry a series id")
	}
	if got.Notes == nil || *got.Notes != "wheelchair space" {
		t.Fatalf("notes not carried through: %v", got.Notes)
	}
	if len(tracker.events) != 1 || tracker.events[0].Name != EventRequestCreated {
		t.Fatalf("expected one created event, got %+v", tracker.events)
	}
}

func TestRequestService_CreateRequest_ForbiddenForOtherMember(t *testing.T) {
	t.Parallel()

	definition, day := sundayService()
	svc := newRequestService(&requestRepoStub{}, &catalogStub{definition: definition, day: day}, nil)

	input := baseInput()
	input.UserID = "user-2"

	_, err := svc.CreateRequest(context.Background(), CreateRequestParams{
		Principal: Principal{UserID: "user-1"},
		Input:     input,
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestRequestService_CreateRequest_AdminForOtherMember(t *testing.T) {
	t.Parallel()

	definition, day := sundayService()
	repo := &requestRepoStub{}
	svc := newRequestService(repo, &catalogStub{definition: definition, day: day}, nil)

	input := baseInput()
	input.UserID = "user-2"

	created, err := svc.CreateRequest(context.Background(), CreateRequestParams{
		Principal: Principal{UserID: "admin-1", IsAdmin: true},
		Input:     input,
	})
	if err != nil {
		t.Fatalf("CreateRequest returned error: %v", err)
	}
	if created[0].UserID != "user-2" {
		t.Fatalf("expected request owned by user-2, got %s", created[0].UserID)
	}
}

func TestRequestService_CreateRequest_DuplicateDate(t *testing.T) {
	t.Parallel()

	definition, day := sundayService()
	repo := &requestRepoStub{active: map[string]bool{"2024-01-01": true}}
	svc := newRequestService(repo, &catalogStub{definition: definition, day: day}, nil)

	_, err := svc.CreateRequest(context.Background(), CreateRequestParams{
		Principal: Principal{UserID: "user-1"},
		Input:     baseInput(),
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if len(repo.created) != 0 {
		t.Fatalf("no rows should be written on conflict, got %d", len(repo.created))
	}
}

func TestRequestService_CreateRequest_CutoffPassed(t *testing.T) {
	t.Parallel()

	definition, day := sundayService()
	// 09:30, inside the one hour cutoff before the 10:00 service.
	lateClock := func() time.Time {
		return time.Date(2024, time.January, 1, 9, 30, 0, 0, time.UTC)
	}
	svc := NewRequestService(&requestRepoStub{}, &catalogStub{definition: definition, day: day}, &addressBookStub{exists: true}, nil, sequentialIDs("id"), lateClock, time.Hour)

	_, err := svc.CreateRequest(context.Background(), CreateRequestParams{
		Principal: Principal{UserID: "user-1"},
		Input:     baseInput(),
	})
	if !errors.Is(err, ErrInvalidTiming) {
		t.Fatalf("expected ErrInvalidTiming, got %v", err)
	}
}

func TestRequestService_CreateRequest_WrongWeekday(t *testing.T) {
	t.Parallel()

	definition, day := sundayService()
	svc := newRequestService(&requestRepoStub{}, &catalogStub{definition: definition, day: day}, nil)

	input := baseInput()
	input.RequestDate = time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC) // Tuesday

	_, err := svc.CreateRequest(context.Background(), CreateRequestParams{
		Principal: Principal{UserID: "user-1"},
		Input:     input,
	})
	if !errors.Is(err, ErrInvalidWeekday) {
		t.Fatalf("expected ErrInvalidWeekday, got %v", err)
	}
}

func TestRequestService_CreateRequest_InactiveService(t *testing.T) {
	t.Parallel()

	definition, day := sundayService()
	definition.Active = false
	svc := newRequestService(&requestRepoStub{}, &catalogStub{definition: definition, day: day}, nil)

	_, err := svc.CreateRequest(context.Background(), CreateRequestParams{
		Principal: Principal{UserID: "user-1"},
		Input:     baseInput(),
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for inactive service, got %v", err)
	}
}

func TestRequestService_CreateRequest_MissingFields(t *testing.T) {
	t.Parallel()

	definition, day := sundayService()
	svc := newRequestService(&requestRepoStub{}, &catalogStub{definition: definition, day: day}, nil)

	input := baseInput()
	input.AddressID = ""
	input.GroupSize = 0
	input.Pickup = false
	input.Dropoff = false

	_, err := svc.CreateRequest(context.Background(), CreateRequestParams{
		Principal: Principal{UserID: "user-1"},
		Input:     input,
	})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"address_id", "group_size", "pickup"} {
		if _, ok := vErr.FieldErrors[field]; !ok {
			t.Fatalf("expected field error for %s, got %v", field, vErr.FieldErrors)
		}
	}
}

func TestRequestService_CreateRequest_WeeklySeries(t *testing.T) {
	t.Parallel()

	definition, day := sundayService()
	repo := &requestRepoStub{}
	tracker := &trackerStub{}
	svc := newRequestService(repo, &catalogStub{definition: definition, day: day}, tracker)

	end := time.Date(2024, time.February, 26, 0, 0, 0, 0, time.UTC)
	input := baseInput()
	input.Recurring = true
	input.RecurrenceEndDate = &end

	created, err := svc.CreateRequest(context.Background(), CreateRequestParams{
		Principal: Principal{UserID: "user-1"},
		Input:     input,
	})
	if err != nil {
		t.Fatalf("CreateRequest returned error: %v", err)
	}
	// Mondays from Jan 1 through Feb 26 inclusive.
	if len(created) != 9 {
		t.Fatalf("expected 9 occurrences, got %d", len(created))
	}
	if repo.createdSeries == nil {
		t.Fatalf("series row was not created")
	}
	for i, request := range created {
		if request.SeriesID == nil || *request.SeriesID != repo.createdSeries.ID {
			t.Fatalf("occurrence %d not linked to series: %+v", i, request.SeriesID)
		}
		if request.RequestDate.Weekday() != time.Monday {
			t.Fatalf("occurrence %d falls on %s", i, request.RequestDate.Weekday())
		}
	}
	first, last := created[0].RequestDate, created[len(created)-1].RequestDate
	if first.Format("2006-01-02") != "2024-01-01" || last.Format("2006-01-02") != "2024-02-26" {
		t.Fatalf("unexpected series bounds %s .. %s", first, last)
	}
	if len(tracker.events) != 1 || len(tracker.events[0].RequestIDs) != 9 {
		t.Fatalf("expected one event covering 9 requests, got %+v", tracker.events)
	}
}

func TestRequestService_CreateRequest_SeriesDuplicateMidway(t *testing.T) {
	t.Parallel()

	definition, day := sundayService()
	repo := &requestRepoStub{active: map[string]bool{"2024-01-15": true}}
	svc := newRequestService(repo, &catalogStub{definition: definition, day: day}, nil)

	end := time.Date(2024, time.February, 26, 0, 0, 0, 0, time.UTC)
	input := baseInput()
	input.Recurring = true
	input.RecurrenceEndDate = &end

	_, err := svc.CreateRequest(context.Background(), CreateRequestParams{
		Principal: Principal{UserID: "user-1"},
		Input:     input,
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if len(repo.created) != 0 || repo.createdSeries != nil {
		t.Fatalf("no rows should be written when any occurrence conflicts")
	}
}

func TestRequestService_CreateRequest_SpanTooLong(t *testing.T) {
	t.Parallel()

	definition, day := sundayService()
	svc := newRequestService(&requestRepoStub{}, &catalogStub{definition: definition, day: day}, nil)

	end := time.Date(2024, time.April, 2, 0, 0, 0, 0, time.UTC)
	input := baseInput()
	input.Recurring = true
	input.RecurrenceEndDate = &end

	_, err := svc.CreateRequest(context.Background(), CreateRequestParams{
		Principal: Principal{UserID: "user-1"},
		Input:     input,
	})
	if !errors.Is(err, ErrInvalidSpan) {
		t.Fatalf("expected ErrInvalidSpan, got %v", err)
	}
}

func seriesFixture(userID string, count int) (string, []Request) {
	seriesID := "series-1"
	rows := make([]Request, 0, count)
	for i := 0; i < count; i++ {
		date := time.Date(2024, time.January, 1+7*i, 0, 0, 0, 0, time.UTC)
		id := seriesID
		rows = append(rows, Request{
			ID:                  fmt.Sprintf("req-%d", i+1),
			UserID:              userID,
			ServiceDefinitionID: "svc-1",
			ServiceDayID:        "day-1",
			SeriesID:            &id,
			RequestDate:         date,
			AddressID:           "addr-1",
			Pickup:              true,
			GroupSize:           1,
			Status:              persistence.StatusPending,
		})
	}
	return seriesID, rows
}

func TestRequestService_UpdateRequest_SingleExcludesSelf(t *testing.T) {
	t.Parallel()

	definition, day := sundayService()
	_, rows := seriesFixture("user-1", 1)
	repo := &requestRepoStub{request: rows[0]}
	svc := newRequestService(repo, &catalogStub{definition: definition, day: day}, nil)

	input := baseInput()
	input.GroupSize = 4

	updated, err := svc.UpdateRequest(context.Background(), UpdateRequestParams{
		Principal: Principal{UserID: "user-1"},
		RequestID: "req-1",
		Input:     input,
	})
	if err != nil {
		t.Fatalf("UpdateRequest returned error: %v", err)
	}
	if updated[0].GroupSize != 4 {
		t.Fatalf("group size not updated: %d", updated[0].GroupSize)
	}
	if len(repo.activeExcludes) != 1 || len(repo.activeExcludes[0]) != 1 || repo.activeExcludes[0][0] != "req-1" {
		t.Fatalf("duplicate check must exclude the edited row, got %v", repo.activeExcludes)
	}
	if repo.updatedSingle == nil {
		t.Fatalf("single update was not persisted")
	}
}

func TestRequestService_UpdateRequest_Forbidden(t *testing.T) {
	t.Parallel()

	definition, day := sundayService()
	_, rows := seriesFixture("user-2", 1)
	repo := &requestRepoStub{request: rows[0]}
	svc := newRequestService(repo, &catalogStub{definition: definition, day: day}, nil)

	_, err := svc.UpdateRequest(context.Background(), UpdateRequestParams{
		Principal: Principal{UserID: "user-1"},
		RequestID: "req-1",
		Input:     baseInput(),
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestRequestService_UpdateRequest_SeriesAnchorUnchanged(t *testing.T) {
	t.Parallel()

	definition, day := sundayService()
	_, rows := seriesFixture("user-1", 4)
	repo := &requestRepoStub{request: rows[0], seriesRows: rows}
	svc := newRequestService(repo, &catalogStub{definition: definition, day: day}, nil)

	input := baseInput()
	input.GroupSize = 3
	input.Notes = "side entrance"

	updated, err := svc.UpdateRequest(context.Background(), UpdateRequestParams{
		Principal:    Principal{UserID: "user-1"},
		RequestID:    "req-1",
		UpdateSeries: true,
		Input:        input,
	})
	if err != nil {
		t.Fatalf("UpdateRequest returned error: %v", err)
	}
	if len(updated) != 4 {
		t.Fatalf("expected 4 updated rows, got %d", len(updated))
	}
	for i, row := range updated {
		if !row.RequestDate.Equal(rows[i].RequestDate) {
			t.Fatalf("row %d date moved on anchor-unchanged edit: %s", i, row.RequestDate)
		}
		if row.GroupSize != 3 || row.Notes == nil || *row.Notes != "side entrance" {
			t.Fatalf("row %d fields not updated: %+v", i, row)
		}
	}
	// No duplicate detection is needed when dates are untouched.
	if len(repo.activeExcludes) != 0 {
		t.Fatalf("unexpected duplicate checks: %v", repo.activeExcludes)
	}
}

func TestRequestService_UpdateRequest_SeriesAnchorMoved(t *testing.T) {
	t.Parallel()

	definition, day := sundayService()
	_, rows := seriesFixture("user-1", 4)
	repo := &requestRepoStub{request: rows[0], seriesRows: rows}
	svc := newRequestService(repo, &catalogStub{definition: definition, day: day}, nil)

	// Shift the whole series one week later.
	input := baseInput()
	input.RequestDate = time.Date(2024, time.January, 8, 0, 0, 0, 0, time.UTC)

	updated, err := svc.UpdateRequest(context.Background(), UpdateRequestParams{
		Principal:    Principal{UserID: "user-1"},
		RequestID:    "req-1",
		UpdateSeries: true,
		Input:        input,
	})
	if err != nil {
		t.Fatalf("UpdateRequest returned error: %v", err)
	}
	if len(updated) != 4 {
		t.Fatalf("expected 4 updated rows, got %d", len(updated))
	}
	want := []string{"2024-01-08", "2024-01-15", "2024-01-22", "2024-01-29"}
	for i, row := range updated {
		if got := row.RequestDate.Format("2006-01-02"); got != want[i] {
			t.Fatalf("row %d: expected %s, got %s", i, want[i], got)
		}
		if row.ID != rows[i].ID {
			t.Fatalf("row identity must be preserved, got %s", row.ID)
		}
	}
	// Every duplicate probe must exclude the whole batch.
	for _, exclude := range repo.activeExcludes {
		if len(exclude) != 4 {
			t.Fatalf("duplicate check excluded %d ids, expected 4", len(exclude))
		}
	}
}

func TestRequestService_UpdateRequest_SeriesConflictWritesNothing(t *testing.T) {
	t.Parallel()

	definition, day := sundayService()
	_, rows := seriesFixture("user-1", 4)
	repo := &requestRepoStub{
		request:    rows[0],
		seriesRows: rows,
		active:     map[string]bool{"2024-01-22": true},
	}
	svc := newRequestService(repo, &catalogStub{definition: definition, day: day}, nil)

	input := baseInput()
	input.RequestDate = time.Date(2024, time.January, 8, 0, 0, 0, 0, time.UTC)

	_, err := svc.UpdateRequest(context.Background(), UpdateRequestParams{
		Principal:    Principal{UserID: "user-1"},
		RequestID:    "req-1",
		UpdateSeries: true,
		Input:        input,
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if repo.updatedBatch != nil || repo.updatedSingle != nil {
		t.Fatalf("no rows may be written when any target date conflicts")
	}
}

func TestRequestService_UpdateRequest_GenerationShortfall(t *testing.T) {
	t.Parallel()

	definition, day := sundayService()
	// Far more weekly rows than the generator's iteration bound can cover.
	_, rows := seriesFixture("user-1", 1500)
	repo := &requestRepoStub{request: rows[0], seriesRows: rows}
	svc := newRequestService(repo, &catalogStub{definition: definition, day: day}, nil)

	input := baseInput()
	input.RequestDate = time.Date(2024, time.January, 8, 0, 0, 0, 0, time.UTC)

	_, err := svc.UpdateRequest(context.Background(), UpdateRequestParams{
		Principal:    Principal{UserID: "user-1"},
		RequestID:    "req-1",
		UpdateSeries: true,
		Input:        input,
	})
	if !errors.Is(err, ErrGenerationMismatch) {
		t.Fatalf("expected ErrGenerationMismatch, got %v", err)
	}
	if repo.updatedBatch != nil {
		t.Fatalf("no rows may be written on a generation shortfall")
	}
}

func TestRequestService_CancelRequest_Series(t *testing.T) {
	t.Parallel()

	_, rows := seriesFixture("user-1", 3)
	repo := &requestRepoStub{request: rows[0], seriesRows: rows}
	tracker := &trackerStub{}
	svc := newRequestService(repo, &catalogStub{}, tracker)

	cancelled, err := svc.CancelRequest(context.Background(), Principal{UserID: "user-1"}, "req-1", true)
	if err != nil {
		t.Fatalf("CancelRequest returned error: %v", err)
	}
	if len(cancelled) != 3 {
		t.Fatalf("expected 3 cancelled rows, got %d", len(cancelled))
	}
	for _, row := range cancelled {
		if row.Status != persistence.StatusCancelled {
			t.Fatalf("row %s not cancelled: %s", row.ID, row.Status)
		}
	}
	if len(tracker.events) != 1 || tracker.events[0].Name != EventRequestCancelled {
		t.Fatalf("expected one cancelled event, got %+v", tracker.events)
	}
}

func TestRequestService_CancelRequest_SingleLeavesSeries(t *testing.T) {
	t.Parallel()

	_, rows := seriesFixture("user-1", 3)
	repo := &requestRepoStub{request: rows[0], seriesRows: rows}
	svc := newRequestService(repo, &catalogStub{}, nil)

	cancelled, err := svc.CancelRequest(context.Background(), Principal{UserID: "user-1"}, "req-1", false)
	if err != nil {
		t.Fatalf("CancelRequest returned error: %v", err)
	}
	if len(cancelled) != 1 {
		t.Fatalf("expected 1 cancelled row, got %d", len(cancelled))
	}
}

func TestRequestService_GetRequest_Forbidden(t *testing.T) {
	t.Parallel()

	_, rows := seriesFixture("user-2", 1)
	repo := &requestRepoStub{request: rows[0]}
	svc := newRequestService(repo, &catalogStub{}, nil)

	_, err := svc.GetRequest(context.Background(), Principal{UserID: "user-1"}, "req-1")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestRequestService_ListRequests_MemberScopedToSelf(t *testing.T) {
	t.Parallel()

	repo := &requestRepoStub{}
	svc := newRequestService(repo, &catalogStub{}, nil)

	_, err := svc.ListRequests(context.Background(), ListRequestsParams{
		Principal: Principal{UserID: "user-1"},
		UserID:    "user-2",
	})
	if err != nil {
		t.Fatalf("ListRequests returned error: %v", err)
	}
	if repo.listFilter.UserID != "user-1" {
		t.Fatalf("member listing must be scoped to the caller, got %q", repo.listFilter.UserID)
	}
}

func TestRequestService_ListRequests_AdminMayFilterByUser(t *testing.T) {
	t.Parallel()

	repo := &requestRepoStub{}
	svc := newRequestService(repo, &catalogStub{}, nil)

	_, err := svc.ListRequests(context.Background(), ListRequestsParams{
		Principal: Principal{UserID: "admin-1", IsAdmin: true},
		UserID:    "user-2",
	})
	if err != nil {
		t.Fatalf("ListRequests returned error: %v", err)
	}
	if repo.listFilter.UserID != "user-2" {
		t.Fatalf("admin filter not honored, got %q", repo.listFilter.UserID)
	}
}

func TestRequestService_ExpirePastRequests(t *testing.T) {
	t.Parallel()

	repo := &requestRepoStub{expired: 5}
	svc := newRequestService(repo, &catalogStub{}, nil)

	expired, err := svc.ExpirePastRequests(context.Background())
	if err != nil {
		t.Fatalf("ExpirePastRequests returned error: %v", err)
	}
	if expired != 5 {
		t.Fatalf("expected 5 expired rows, got %d", expired)
	}
	if repo.expireBefore.Format("2006-01-02") != "2024-01-01" {
		t.Fatalf("expiry boundary should be midnight today, got %s", repo.expireBefore)
	}
}

func TestRequestService_RepoErrorMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   error
		want error
	}{
		{"not found", persistence.ErrNotFound, ErrNotFound},
		{"duplicate", persistence.ErrDuplicate, ErrConflict},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := mapRequestRepoError(tc.in); !errors.Is(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
