package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Olawill/church-transport-application-sub001/internal/persistence"
)

// dateLayout is the storage format for request dates. Dates are stored
// without a time component so comparisons never shift across zones.
const dateLayout = "2006-01-02"

// RequestRepository implements persistence.RequestRepository using SQLite.
type RequestRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewRequestRepository creates a new SQLite transport request repository.
func NewRequestRepository(pool *ConnectionPool) *RequestRepository {
	return &RequestRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const requestColumns = `id, user_id, service_definition_id, service_day_id, series_id,
	request_date, address_id, pickup, dropoff, group_size, notes, status, created_at, updated_at`

// CreateRequest inserts a single transport request.
func (r *RequestRepository) CreateRequest(ctx context.Context, request persistence.TransportRequest) error {
	if request.ID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		return r.insertRequest(tx, request)
	})
}

// CreateSeries inserts the series row and every generated request in one
// transaction. A failure on any row leaves nothing behind.
func (r *RequestRepository) CreateSeries(ctx context.Context, series persistence.PickupSeries, requests []persistence.TransportRequest) error {
	if series.ID == "" || len(requests) == 0 {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := r.helper.ExecTx(tx,
			`INSERT INTO pickup_series (id, created_at) VALUES (?, ?)`,
			series.ID, series.CreatedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return r.mapper.MapError(err)
		}

		for _, request := range requests {
			if err := r.insertRequest(tx, request); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetRequest retrieves a transport request by ID.
func (r *RequestRepository) GetRequest(ctx context.Context, id string) (persistence.TransportRequest, error) {
	row := r.helper.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM transport_requests WHERE id = ?`, id)
	return r.scanRequest(row)
}

// UpdateRequest updates a single transport request in place.
func (r *RequestRepository) UpdateRequest(ctx context.Context, request persistence.TransportRequest) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		return r.updateRequestTx(tx, request)
	})
}

// UpdateRequests applies a batch of row updates atomically. Any constraint
// violation or missing row aborts the whole batch.
//
// The rows are updated one statement at a time and SQLite enforces
// idx_requests_active_key per statement, not at commit. A series shifted
// forward lands row N on the date row N+1 still holds, so the batch first
// parks every row's date on a per-row placeholder and then writes the final
// values. Collisions with rows outside the batch still abort.
func (r *RequestRepository) UpdateRequests(ctx context.Context, requests []persistence.TransportRequest) error {
	if len(requests) == 0 {
		return nil
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if len(requests) > 1 {
			if err := r.parkRequestDates(tx, requests); err != nil {
				return err
			}
		}
		for _, request := range requests {
			if err := r.updateRequestTx(tx, request); err != nil {
				return err
			}
		}
		return nil
	})
}

// parkRequestDates moves each batch row's date to a value no other row can
// hold. Real dates are stored as YYYY-MM-DD, so an id-derived placeholder
// never collides with them or with another placeholder.
func (r *RequestRepository) parkRequestDates(tx *sql.Tx, requests []persistence.TransportRequest) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(requests)), ",")
	args := make([]any, 0, len(requests))
	for _, request := range requests {
		args = append(args, request.ID)
	}

	_, err := r.helper.ExecTx(tx,
		`UPDATE transport_requests SET request_date = 'moving:' || id WHERE id IN (`+placeholders+`)`,
		args...)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// ListRequests enumerates requests matching the filter, ordered by date.
func (r *RequestRepository) ListRequests(ctx context.Context, filter persistence.RequestFilter) ([]persistence.TransportRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM transport_requests WHERE 1=1`
	args := make([]any, 0, 6)

	if filter.UserID != "" {
		query += ` AND user_id = ?`
		args = append(args, filter.UserID)
	}
	if filter.ServiceDefinitionID != "" {
		query += ` AND service_definition_id = ?`
		args = append(args, filter.ServiceDefinitionID)
	}
	if filter.SeriesID != "" {
		query += ` AND series_id = ?`
		args = append(args, filter.SeriesID)
	}
	if filter.From != nil {
		query += ` AND request_date >= ?`
		args = append(args, filter.From.Format(dateLayout))
	}
	if filter.To != nil {
		query += ` AND request_date <= ?`
		args = append(args, filter.To.Format(dateLayout))
	}
	if len(filter.Statuses) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(filter.Statuses)), ",")
		query += ` AND status IN (` + placeholders + `)`
		for _, status := range filter.Statuses {
			args = append(args, string(status))
		}
	}
	query += ` ORDER BY request_date ASC, id ASC`

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	return r.collectRequests(rows)
}

// ListSeriesFrom returns series members dated on or after from, ascending.
func (r *RequestRepository) ListSeriesFrom(ctx context.Context, seriesID string, from time.Time) ([]persistence.TransportRequest, error) {
	rows, err := r.helper.Query(ctx,
		`SELECT `+requestColumns+` FROM transport_requests
		 WHERE series_id = ? AND request_date >= ?
		 ORDER BY request_date ASC, id ASC`,
		seriesID, from.Format(dateLayout))
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	return r.collectRequests(rows)
}

// HasActiveRequest reports whether a non-cancelled request exists for the
// (user, service, date) key, ignoring the given request IDs.
func (r *RequestRepository) HasActiveRequest(ctx context.Context, userID, serviceDefinitionID string, date time.Time, excludeIDs []string) (bool, error) {
	query := `SELECT COUNT(1) FROM transport_requests
		WHERE user_id = ? AND service_definition_id = ? AND request_date = ? AND status <> ?`
	args := []any{userID, serviceDefinitionID, date.Format(dateLayout), string(persistence.StatusCancelled)}

	if len(excludeIDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(excludeIDs)), ",")
		query += ` AND id NOT IN (` + placeholders + `)`
		for _, id := range excludeIDs {
			args = append(args, id)
		}
	}

	var count int
	if err := r.helper.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return false, r.mapper.MapError(err)
	}
	return count > 0, nil
}

// ExpirePastRequests marks pending requests dated before the reference date
// as expired.
func (r *RequestRepository) ExpirePastRequests(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.helper.Exec(ctx,
		`UPDATE transport_requests
		 SET status = ?, updated_at = ?
		 WHERE status = ? AND request_date < ?`,
		string(persistence.StatusExpired),
		time.Now().UTC().Format(time.RFC3339),
		string(persistence.StatusPending),
		before.Format(dateLayout),
	)
	if err != nil {
		return 0, r.mapper.MapError(err)
	}
	return result.RowsAffected()
}

func (r *RequestRepository) insertRequest(tx *sql.Tx, request persistence.TransportRequest) error {
	_, err := r.helper.ExecTx(tx,
		`INSERT INTO transport_requests (`+requestColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		request.ID,
		request.UserID,
		request.ServiceDefinitionID,
		request.ServiceDayID,
		nullableString(request.SeriesID),
		request.RequestDate.Format(dateLayout),
		request.AddressID,
		boolToInt(request.Pickup),
		boolToInt(request.Dropoff),
		request.GroupSize,
		nullableString(request.Notes),
		string(request.Status),
		request.CreatedAt.UTC().Format(time.RFC3339),
		request.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

func (r *RequestRepository) updateRequestTx(tx *sql.Tx, request persistence.TransportRequest) error {
	result, err := r.helper.ExecTx(tx,
		`UPDATE transport_requests
		 SET service_definition_id = ?, service_day_id = ?, request_date = ?, address_id = ?,
		     pickup = ?, dropoff = ?, group_size = ?, notes = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		request.ServiceDefinitionID,
		request.ServiceDayID,
		request.RequestDate.Format(dateLayout),
		request.AddressID,
		boolToInt(request.Pickup),
		boolToInt(request.Dropoff),
		request.GroupSize,
		nullableString(request.Notes),
		string(request.Status),
		request.UpdatedAt.UTC().Format(time.RFC3339),
		request.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func (r *RequestRepository) scanRequest(row *sql.Row) (persistence.TransportRequest, error) {
	var (
		request               persistence.TransportRequest
		seriesID, notes       sql.NullString
		pickup, dropoff       int
		requestDate           string
		createdAt, updatedAt  string
		status                string
	)

	err := row.Scan(
		&request.ID, &request.UserID, &request.ServiceDefinitionID, &request.ServiceDayID,
		&seriesID, &requestDate, &request.AddressID, &pickup, &dropoff,
		&request.GroupSize, &notes, &status, &createdAt, &updatedAt,
	)
	if err != nil {
		return persistence.TransportRequest{}, r.mapper.MapError(err)
	}

	return r.hydrateRequest(request, seriesID, notes, pickup, dropoff, requestDate, status, createdAt, updatedAt)
}

func (r *RequestRepository) collectRequests(rows *sql.Rows) ([]persistence.TransportRequest, error) {
	requests := make([]persistence.TransportRequest, 0)
	for rows.Next() {
		var (
			request              persistence.TransportRequest
			seriesID, notes      sql.NullString
			pickup, dropoff      int
			requestDate          string
			createdAt, updatedAt string
			status               string
		)
		err := rows.Scan(
			&request.ID, &request.UserID, &request.ServiceDefinitionID, &request.ServiceDayID,
			&seriesID, &requestDate, &request.AddressID, &pickup, &dropoff,
			&request.GroupSize, &notes, &status, &createdAt, &updatedAt,
		)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}

		hydrated, err := r.hydrateRequest(request, seriesID, notes, pickup, dropoff, requestDate, status, createdAt, updatedAt)
		if err != nil {
			return nil, err
		}
		requests = append(requests, hydrated)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return requests, nil
}

func (r *RequestRepository) hydrateRequest(
	request persistence.TransportRequest,
	seriesID, notes sql.NullString,
	pickup, dropoff int,
	requestDate, status, createdAt, updatedAt string,
) (persistence.TransportRequest, error) {
	if seriesID.Valid {
		request.SeriesID = &seriesID.String
	}
	if notes.Valid {
		request.Notes = &notes.String
	}
	request.Pickup = pickup != 0
	request.Dropoff = dropoff != 0
	request.Status = persistence.RequestStatus(status)

	var err error
	if request.RequestDate, err = time.ParseInLocation(dateLayout, requestDate, time.UTC); err != nil {
		return persistence.TransportRequest{}, fmt.Errorf("failed to parse request_date: %w", err)
	}
	if request.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return persistence.TransportRequest{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if request.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return persistence.TransportRequest{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return request, nil
}

func nullableString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
