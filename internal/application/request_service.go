package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Olawill/church-transport-application-sub001/internal/persistence"
	"github.com/Olawill/church-transport-application-sub001/internal/recurrence"
	"github.com/Olawill/church-transport-application-sub001/internal/validate"
)

// RequestRepository captures the persistence interactions needed by the
// request lifecycle. CreateSeries and UpdateRequests are atomic.
type RequestRepository interface {
	CreateRequest(ctx context.Context, request Request) error
	CreateSeries(ctx context.Context, series Series, requests []Request) error
	GetRequest(ctx context.Context, id string) (Request, error)
	UpdateRequest(ctx context.Context, request Request) error
	UpdateRequests(ctx context.Context, requests []Request) error
	ListRequests(ctx context.Context, filter persistence.RequestFilter) ([]Request, error)
	ListSeriesFrom(ctx context.Context, seriesID string, from time.Time) ([]Request, error)
	HasActiveRequest(ctx context.Context, userID, serviceDefinitionID string, date time.Time, excludeIDs []string) (bool, error)
	ExpirePastRequests(ctx context.Context, before time.Time) (int64, error)
}

// ServiceCatalog exposes service definition lookups.
type ServiceCatalog interface {
	GetServiceDefinition(ctx context.Context, id string) (ServiceDefinition, error)
	GetServiceDay(ctx context.Context, id string) (ServiceDay, error)
}

// AddressBook exposes saved address lookups.
type AddressBook interface {
	AddressExists(ctx context.Context, userID, addressID string) (bool, error)
}

// RequestService orchestrates validation, occurrence generation and
// persistence for transport request operations. Every multi-row mutation is
// all-or-nothing: the first failing check aborts before any write, and the
// repository's batch operations commit atomically.
type RequestService struct {
	requests    RequestRepository
	catalog     ServiceCatalog
	addresses   AddressBook
	tracker     Tracker
	idGenerator func() string
	now         func() time.Time
	cutoff      time.Duration
	logger      *slog.Logger
}

// NewRequestService wires dependencies for request lifecycle operations.
func NewRequestService(requests RequestRepository, catalog ServiceCatalog, addresses AddressBook, tracker Tracker, idGenerator func() string, now func() time.Time, cutoff time.Duration) *RequestService {
	return NewRequestServiceWithLogger(requests, catalog, addresses, tracker, idGenerator, now, cutoff, nil)
}

// NewRequestServiceWithLogger constructs a RequestService with a specified logger.
func NewRequestServiceWithLogger(requests RequestRepository, catalog ServiceCatalog, addresses AddressBook, tracker Tracker, idGenerator func() string, now func() time.Time, cutoff time.Duration, logger *slog.Logger) *RequestService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if cutoff <= 0 {
		cutoff = validate.DefaultCutoff
	}
	return &RequestService{
		requests:    requests,
		catalog:     catalog,
		addresses:   addresses,
		tracker:     tracker,
		idGenerator: idGenerator,
		now:         now,
		cutoff:      cutoff,
		logger:      defaultLogger(logger),
	}
}

func (s *RequestService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RequestService", operation, attrs...)
}

// CreateRequest books one occurrence, or a whole series when the input is
// recurring. Returns every created row.
func (s *RequestService) CreateRequest(ctx context.Context, params CreateRequestParams) ([]Request, error) {
	if s == nil || s.requests == nil {
		return nil, fmt.Errorf("request repository not configured")
	}

	input := params.Input
	principal := params.Principal

	userID := input.UserID
	if userID == "" {
		userID = principal.UserID
	}
	if userID != principal.UserID && !principal.IsAdmin {
		return nil, fmt.Errorf("%w: cannot create requests for another member", ErrForbidden)
	}

	if vErr := validateRequestShape(input); vErr.HasErrors() {
		return nil, vErr
	}

	definition, day, err := s.resolveService(ctx, input.ServiceDefinitionID, input.ServiceDayID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureAddress(ctx, userID, input.AddressID); err != nil {
		return nil, err
	}
	if err := s.runChecks(definition, day, input); err != nil {
		return nil, err
	}

	duplicate, err := s.requests.HasActiveRequest(ctx, userID, definition.ID, input.RequestDate, nil)
	if err != nil {
		return nil, mapRequestRepoError(err)
	}
	if duplicate {
		return nil, fmt.Errorf("%w: a request for %s already exists", ErrConflict, input.RequestDate.Format("2006-01-02"))
	}

	logger := s.loggerWith(ctx, "CreateRequest", "user_id", userID, "service_id", definition.ID)

	var created []Request
	if input.Recurring {
		created, err = s.createSeries(ctx, userID, definition, day, input)
	} else {
		created, err = s.createSingle(ctx, userID, definition, day, input)
	}
	if err != nil {
		logger.ErrorContext(ctx, "request creation failed", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}

	logger.InfoContext(ctx, "request created", "rows", len(created))
	fireEvent(ctx, s.tracker, logger, Event{
		Name:       EventRequestCreated,
		UserID:     userID,
		RequestIDs: requestIDs(created),
		SeriesID:   created[0].SeriesID,
		OccurredAt: s.now(),
	})
	return created, nil
}

func (s *RequestService) createSingle(ctx context.Context, userID string, definition ServiceDefinition, day ServiceDay, input RequestInput) ([]Request, error) {
	request := s.buildRequest(userID, definition, day, input, recurrence.DateOnly(input.RequestDate), nil)
	if err := s.requests.CreateRequest(ctx, request); err != nil {
		return nil, mapRequestRepoError(err)
	}
	return []Request{request}, nil
}

// createSeries expands the weekly walk from the request date through the
// recurring end date and books every occurrence under one new series id.
func (s *RequestService) createSeries(ctx context.Context, userID string, definition ServiceDefinition, day ServiceDay, input RequestInput) ([]Request, error) {
	dates := recurrence.ExpandUntil(recurrence.Daily(day.Weekday), input.RequestDate, *input.RecurrenceEndDate)
	if len(dates) == 0 {
		return nil, fmt.Errorf("%w: recurrence produced no occurrences", ErrGenerationMismatch)
	}

	// The anchor date was already duplicate-checked; the remaining dates
	// must be clear as well before anything is written.
	for _, date := range dates[1:] {
		duplicate, err := s.requests.HasActiveRequest(ctx, userID, definition.ID, date, nil)
		if err != nil {
			return nil, mapRequestRepoError(err)
		}
		if duplicate {
			return nil, fmt.Errorf("%w: a request for %s already exists", ErrConflict, date.Format("2006-01-02"))
		}
	}

	series := Series{ID: s.idGenerator(), CreatedAt: s.now()}
	requests := make([]Request, 0, len(dates))
	for _, date := range dates {
		requests = append(requests, s.buildRequest(userID, definition, day, input, date, &series.ID))
	}

	if err := s.requests.CreateSeries(ctx, series, requests); err != nil {
		return nil, mapRequestRepoError(err)
	}
	return requests, nil
}

// UpdateRequest mutates one occurrence, or a whole series from the target's
// original date forward when updateSeries is set. Returns every updated row.
func (s *RequestService) UpdateRequest(ctx context.Context, params UpdateRequestParams) ([]Request, error) {
	if s == nil || s.requests == nil {
		return nil, fmt.Errorf("request repository not configured")
	}

	existing, err := s.requests.GetRequest(ctx, params.RequestID)
	if err != nil {
		return nil, mapRequestRepoError(err)
	}

	principal := params.Principal
	if existing.UserID != principal.UserID && !principal.IsAdmin {
		return nil, fmt.Errorf("%w: request belongs to another member", ErrForbidden)
	}

	input := params.Input
	if vErr := validateRequestShape(input); vErr.HasErrors() {
		return nil, vErr
	}

	definition, day, err := s.resolveService(ctx, input.ServiceDefinitionID, input.ServiceDayID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureAddress(ctx, existing.UserID, input.AddressID); err != nil {
		return nil, err
	}
	if err := s.runChecks(definition, day, input); err != nil {
		return nil, err
	}

	logger := s.loggerWith(ctx, "UpdateRequest", "request_id", existing.ID, "user_id", existing.UserID)

	var updated []Request
	if params.UpdateSeries && existing.SeriesID != nil {
		updated, err = s.updateSeries(ctx, existing, definition, day, input)
	} else {
		updated, err = s.updateSingle(ctx, existing, definition, day, input)
	}
	if err != nil {
		logger.ErrorContext(ctx, "request update failed", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}

	logger.InfoContext(ctx, "request updated", "rows", len(updated))
	fireEvent(ctx, s.tracker, logger, Event{
		Name:       EventRequestUpdated,
		UserID:     existing.UserID,
		RequestIDs: requestIDs(updated),
		SeriesID:   existing.SeriesID,
		OccurredAt: s.now(),
	})
	return updated, nil
}

func (s *RequestService) updateSingle(ctx context.Context, existing Request, definition ServiceDefinition, day ServiceDay, input RequestInput) ([]Request, error) {
	newDate := recurrence.DateOnly(input.RequestDate)

	duplicate, err := s.requests.HasActiveRequest(ctx, existing.UserID, definition.ID, newDate, []string{existing.ID})
	if err != nil {
		return nil, mapRequestRepoError(err)
	}
	if duplicate {
		return nil, fmt.Errorf("%w: a request for %s already exists", ErrConflict, newDate.Format("2006-01-02"))
	}

	// Series membership never changes on a single-occurrence edit.
	updated := existing
	updated.ServiceDefinitionID = definition.ID
	updated.ServiceDayID = day.ID
	updated.RequestDate = newDate
	applyMutableFields(&updated, input)
	updated.UpdatedAt = s.now()

	if err := s.requests.UpdateRequest(ctx, updated); err != nil {
		return nil, mapRequestRepoError(err)
	}
	return []Request{updated}, nil
}

// updateSeries applies an edit to every series row dated at or after the
// edited occurrence's original date. When the (service, date) anchor is
// unchanged only non-date fields move; when the anchor moves, replacement
// dates are regenerated from the new anchor and every row must clear
// duplicate detection before any write happens.
func (s *RequestService) updateSeries(ctx context.Context, existing Request, definition ServiceDefinition, day ServiceDay, input RequestInput) ([]Request, error) {
	rows, err := s.requests.ListSeriesFrom(ctx, *existing.SeriesID, existing.RequestDate)
	if err != nil {
		return nil, mapRequestRepoError(err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: series %s has no rows from %s", ErrNotFound, *existing.SeriesID, existing.RequestDate.Format("2006-01-02"))
	}

	anchorUnchanged := existing.ServiceDefinitionID == definition.ID &&
		recurrence.SameDate(existing.RequestDate, input.RequestDate)

	now := s.now()
	if anchorUnchanged {
		for i := range rows {
			applyMutableFields(&rows[i], input)
			rows[i].UpdatedAt = now
		}
		if err := s.requests.UpdateRequests(ctx, rows); err != nil {
			return nil, mapRequestRepoError(err)
		}
		return rows, nil
	}

	dates := recurrence.ExpandCount(recurrence.Daily(day.Weekday), input.RequestDate, len(rows))
	if len(dates) != len(rows) {
		return nil, fmt.Errorf("%w: need %d dates, generated %d", ErrGenerationMismatch, len(rows), len(dates))
	}

	excludeIDs := make([]string, len(rows))
	for i, row := range rows {
		excludeIDs[i] = row.ID
	}
	for _, date := range dates {
		duplicate, err := s.requests.HasActiveRequest(ctx, existing.UserID, definition.ID, date, excludeIDs)
		if err != nil {
			return nil, mapRequestRepoError(err)
		}
		if duplicate {
			return nil, fmt.Errorf("%w: a request for %s already exists", ErrConflict, date.Format("2006-01-02"))
		}
	}

	for i := range rows {
		rows[i].ServiceDefinitionID = definition.ID
		rows[i].ServiceDayID = day.ID
		rows[i].RequestDate = dates[i]
		applyMutableFields(&rows[i], input)
		rows[i].UpdatedAt = now
	}
	if err := s.requests.UpdateRequests(ctx, rows); err != nil {
		return nil, mapRequestRepoError(err)
	}
	return rows, nil
}

// CancelRequest transitions a request to cancelled. When cancelSeries is set
// and the target belongs to a series, every row from the target's date
// forward is cancelled with it.
func (s *RequestService) CancelRequest(ctx context.Context, principal Principal, requestID string, cancelSeries bool) ([]Request, error) {
	if s == nil || s.requests == nil {
		return nil, fmt.Errorf("request repository not configured")
	}

	existing, err := s.requests.GetRequest(ctx, requestID)
	if err != nil {
		return nil, mapRequestRepoError(err)
	}
	if existing.UserID != principal.UserID && !principal.IsAdmin {
		return nil, fmt.Errorf("%w: request belongs to another member", ErrForbidden)
	}

	rows := []Request{existing}
	if cancelSeries && existing.SeriesID != nil {
		rows, err = s.requests.ListSeriesFrom(ctx, *existing.SeriesID, existing.RequestDate)
		if err != nil {
			return nil, mapRequestRepoError(err)
		}
	}

	now := s.now()
	for i := range rows {
		rows[i].Status = persistence.StatusCancelled
		rows[i].UpdatedAt = now
	}
	if err := s.requests.UpdateRequests(ctx, rows); err != nil {
		return nil, mapRequestRepoError(err)
	}

	logger := s.loggerWith(ctx, "CancelRequest", "request_id", requestID)
	logger.InfoContext(ctx, "request cancelled", "rows", len(rows))
	fireEvent(ctx, s.tracker, logger, Event{
		Name:       EventRequestCancelled,
		UserID:     existing.UserID,
		RequestIDs: requestIDs(rows),
		SeriesID:   existing.SeriesID,
		OccurredAt: now,
	})
	return rows, nil
}

// GetRequest retrieves one request visible to the principal.
func (s *RequestService) GetRequest(ctx context.Context, principal Principal, requestID string) (Request, error) {
	if s == nil || s.requests == nil {
		return Request{}, fmt.Errorf("request repository not configured")
	}

	request, err := s.requests.GetRequest(ctx, requestID)
	if err != nil {
		return Request{}, mapRequestRepoError(err)
	}
	if request.UserID != principal.UserID && !principal.IsAdmin {
		return Request{}, fmt.Errorf("%w: request belongs to another member", ErrForbidden)
	}
	return request, nil
}

// ListRequests enumerates requests visible to the principal.
func (s *RequestService) ListRequests(ctx context.Context, params ListRequestsParams) ([]Request, error) {
	if s == nil || s.requests == nil {
		return nil, fmt.Errorf("request repository not configured")
	}

	userID := params.UserID
	if !params.Principal.IsAdmin {
		userID = params.Principal.UserID
	}

	requests, err := s.requests.ListRequests(ctx, persistence.RequestFilter{
		UserID:   userID,
		SeriesID: params.SeriesID,
		From:     params.From,
		To:       params.To,
	})
	if err != nil {
		return nil, mapRequestRepoError(err)
	}
	return requests, nil
}

// ExpirePastRequests marks pending requests dated before today as expired.
// Intended to run from a background maintenance job.
func (s *RequestService) ExpirePastRequests(ctx context.Context) (int64, error) {
	if s == nil || s.requests == nil {
		return 0, fmt.Errorf("request repository not configured")
	}

	today := recurrence.DateOnly(s.now())
	expired, err := s.requests.ExpirePastRequests(ctx, today)
	if err != nil {
		return 0, mapRequestRepoError(err)
	}
	if expired > 0 {
		s.loggerWith(ctx, "ExpirePastRequests").InfoContext(ctx, "expired stale requests", "rows", expired)
	}
	return expired, nil
}

func (s *RequestService) resolveService(ctx context.Context, definitionID, dayID string) (ServiceDefinition, ServiceDay, error) {
	if s.catalog == nil {
		return ServiceDefinition{}, ServiceDay{}, fmt.Errorf("service catalog not configured")
	}

	definition, err := s.catalog.GetServiceDefinition(ctx, definitionID)
	if err != nil {
		return ServiceDefinition{}, ServiceDay{}, mapRequestRepoError(err)
	}
	if !definition.Active {
		return ServiceDefinition{}, ServiceDay{}, fmt.Errorf("%w: service %q is not active", ErrNotFound, definition.Name)
	}

	day, err := s.catalog.GetServiceDay(ctx, dayID)
	if err != nil {
		return ServiceDefinition{}, ServiceDay{}, mapRequestRepoError(err)
	}
	if day.ServiceDefinitionID != definition.ID {
		vErr := &ValidationError{}
		vErr.add("service_day_id", "service day does not belong to the chosen service")
		return ServiceDefinition{}, ServiceDay{}, vErr
	}
	return definition, day, nil
}

func (s *RequestService) ensureAddress(ctx context.Context, userID, addressID string) error {
	if s.addresses == nil {
		return nil
	}
	exists, err := s.addresses.AddressExists(ctx, userID, addressID)
	if err != nil {
		return mapRequestRepoError(err)
	}
	if !exists {
		return fmt.Errorf("%w: address %s", ErrNotFound, addressID)
	}
	return nil
}

// runChecks applies the pure booking validators against the caller's clock.
func (s *RequestService) runChecks(definition ServiceDefinition, day ServiceDay, input RequestInput) error {
	if res := validate.Weekday(day.Weekday, input.RequestDate); !res.OK {
		return fmt.Errorf("%w: %s", ErrInvalidWeekday, res.Reason)
	}
	if res := validate.Timing(definition.TimeOfDay, input.RequestDate, s.now(), s.cutoff); !res.OK {
		return fmt.Errorf("%w: %s", ErrInvalidTiming, res.Reason)
	}
	if res := validate.RecurringSpan(input.Recurring, input.RequestDate, input.RecurrenceEndDate); !res.OK {
		return fmt.Errorf("%w: %s", ErrInvalidSpan, res.Reason)
	}
	if input.Recurring && definition.Category != persistence.CategoryRecurring {
		vErr := &ValidationError{}
		vErr.add("recurring", "recurring requests require a recurring service")
		return vErr
	}
	return nil
}

func (s *RequestService) buildRequest(userID string, definition ServiceDefinition, day ServiceDay, input RequestInput, date time.Time, seriesID *string) Request {
	now := s.now()
	request := Request{
		ID:                  s.idGenerator(),
		UserID:              userID,
		ServiceDefinitionID: definition.ID,
		ServiceDayID:        day.ID,
		SeriesID:            seriesID,
		RequestDate:         date,
		AddressID:           input.AddressID,
		Pickup:              input.Pickup,
		Dropoff:             input.Dropoff,
		GroupSize:           input.GroupSize,
		Status:              persistence.StatusPending,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if notes := strings.TrimSpace(input.Notes); notes != "" {
		request.Notes = &notes
	}
	return request
}

// applyMutableFields copies the non-date fields a series edit may change.
func applyMutableFields(request *Request, input RequestInput) {
	request.AddressID = input.AddressID
	request.Pickup = input.Pickup
	request.Dropoff = input.Dropoff
	request.GroupSize = input.GroupSize
	if notes := strings.TrimSpace(input.Notes); notes != "" {
		request.Notes = &notes
	} else {
		request.Notes = nil
	}
}

func validateRequestShape(input RequestInput) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.ServiceDefinitionID) == "" {
		vErr.add("service_definition_id", "service is required")
	}
	if strings.TrimSpace(input.ServiceDayID) == "" {
		vErr.add("service_day_id", "service day is required")
	}
	if strings.TrimSpace(input.AddressID) == "" {
		vErr.add("address_id", "address is required")
	}
	if input.RequestDate.IsZero() {
		vErr.add("request_date", "request date is required")
	}
	if input.GroupSize < 1 {
		vErr.add("group_size", "group size must be at least one")
	}
	if !input.Pickup && !input.Dropoff {
		vErr.add("pickup", "at least one of pickup or drop-off is required")
	}
	return vErr
}

func mapRequestRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		vErr := &ValidationError{}
		vErr.add("input", "related records are missing")
		return vErr
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("input", "input violates storage constraints")
		return vErr
	}
	return err
}
