package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Olawill/church-transport-application-sub001/internal/persistence"
)

// ServiceRepository implements persistence.ServiceRepository using SQLite.
type ServiceRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewServiceRepository creates a new SQLite service repository.
func NewServiceRepository(pool *ConnectionPool) *ServiceRepository {
	return &ServiceRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const definitionColumns = `id, name, category, time_of_day, step_months, ordinal,
	active, archived_at, start_date, end_date, created_at, updated_at`

// CreateServiceDefinition inserts a definition and its weekday references in
// one transaction.
func (r *ServiceRepository) CreateServiceDefinition(ctx context.Context, definition persistence.ServiceDefinition, days []persistence.ServiceDay) error {
	if definition.ID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := r.helper.ExecTx(tx,
			`INSERT INTO service_definitions (`+definitionColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			definition.ID,
			definition.Name,
			string(definition.Category),
			definition.TimeOfDay,
			definition.StepMonths,
			definition.Ordinal,
			boolToInt(definition.Active),
			nullableTimestamp(definition.ArchivedAt),
			nullableDate(definition.StartDate),
			nullableDate(definition.EndDate),
			definition.CreatedAt.UTC().Format(time.RFC3339),
			definition.UpdatedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return r.mapper.MapError(err)
		}

		for _, day := range days {
			_, err := r.helper.ExecTx(tx,
				`INSERT INTO service_days (id, service_definition_id, weekday, created_at)
				 VALUES (?, ?, ?, ?)`,
				day.ID, definition.ID, int(day.Weekday), day.CreatedAt.UTC().Format(time.RFC3339),
			)
			if err != nil {
				return r.mapper.MapError(err)
			}
		}
		return nil
	})
}

// UpdateServiceDefinition updates a definition's mutable fields.
func (r *ServiceRepository) UpdateServiceDefinition(ctx context.Context, definition persistence.ServiceDefinition) error {
	result, err := r.helper.Exec(ctx,
		`UPDATE service_definitions
		 SET name = ?, category = ?, time_of_day = ?, step_months = ?, ordinal = ?,
		     active = ?, archived_at = ?, start_date = ?, end_date = ?, updated_at = ?
		 WHERE id = ?`,
		definition.Name,
		string(definition.Category),
		definition.TimeOfDay,
		definition.StepMonths,
		definition.Ordinal,
		boolToInt(definition.Active),
		nullableTimestamp(definition.ArchivedAt),
		nullableDate(definition.StartDate),
		nullableDate(definition.EndDate),
		definition.UpdatedAt.UTC().Format(time.RFC3339),
		definition.ID,
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

// GetServiceDefinition retrieves a definition by ID.
func (r *ServiceRepository) GetServiceDefinition(ctx context.Context, id string) (persistence.ServiceDefinition, error) {
	row := r.helper.QueryRow(ctx,
		`SELECT `+definitionColumns+` FROM service_definitions WHERE id = ?`, id)
	return r.scanDefinition(row.Scan)
}

// ListServiceDefinitions enumerates definitions, optionally active only.
func (r *ServiceRepository) ListServiceDefinitions(ctx context.Context, activeOnly bool) ([]persistence.ServiceDefinition, error) {
	query := `SELECT ` + definitionColumns + ` FROM service_definitions`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY name ASC, id ASC`

	rows, err := r.helper.Query(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	definitions := make([]persistence.ServiceDefinition, 0)
	for rows.Next() {
		definition, err := r.scanDefinition(rows.Scan)
		if err != nil {
			return nil, err
		}
		definitions = append(definitions, definition)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return definitions, nil
}

// GetServiceDay retrieves a weekday reference by ID.
func (r *ServiceRepository) GetServiceDay(ctx context.Context, id string) (persistence.ServiceDay, error) {
	var (
		day       persistence.ServiceDay
		weekday   int
		createdAt string
	)
	err := r.helper.QueryRow(ctx,
		`SELECT id, service_definition_id, weekday, created_at FROM service_days WHERE id = ?`, id).
		Scan(&day.ID, &day.ServiceDefinitionID, &weekday, &createdAt)
	if err != nil {
		return persistence.ServiceDay{}, r.mapper.MapError(err)
	}

	day.Weekday = time.Weekday(weekday)
	if day.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return persistence.ServiceDay{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return day, nil
}

// ListServiceDays enumerates the weekday references of a definition.
func (r *ServiceRepository) ListServiceDays(ctx context.Context, serviceDefinitionID string) ([]persistence.ServiceDay, error) {
	rows, err := r.helper.Query(ctx,
		`SELECT id, service_definition_id, weekday, created_at
		 FROM service_days WHERE service_definition_id = ? ORDER BY weekday ASC`,
		serviceDefinitionID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	days := make([]persistence.ServiceDay, 0)
	for rows.Next() {
		var (
			day       persistence.ServiceDay
			weekday   int
			createdAt string
		)
		if err := rows.Scan(&day.ID, &day.ServiceDefinitionID, &weekday, &createdAt); err != nil {
			return nil, r.mapper.MapError(err)
		}
		day.Weekday = time.Weekday(weekday)
		if day.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		days = append(days, day)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return days, nil
}

func (r *ServiceRepository) scanDefinition(scan func(dest ...any) error) (persistence.ServiceDefinition, error) {
	var (
		definition           persistence.ServiceDefinition
		category             string
		active               int
		archivedAt           sql.NullString
		startDate, endDate   sql.NullString
		createdAt, updatedAt string
	)

	err := scan(
		&definition.ID, &definition.Name, &category, &definition.TimeOfDay,
		&definition.StepMonths, &definition.Ordinal, &active, &archivedAt,
		&startDate, &endDate, &createdAt, &updatedAt,
	)
	if err != nil {
		return persistence.ServiceDefinition{}, r.mapper.MapError(err)
	}

	definition.Category = persistence.ServiceCategory(category)
	definition.Active = active != 0

	if archivedAt.Valid {
		parsed, err := time.Parse(time.RFC3339, archivedAt.String)
		if err != nil {
			return persistence.ServiceDefinition{}, fmt.Errorf("failed to parse archived_at: %w", err)
		}
		definition.ArchivedAt = &parsed
	}
	if startDate.Valid {
		parsed, err := time.ParseInLocation(dateLayout, startDate.String, time.UTC)
		if err != nil {
			return persistence.ServiceDefinition{}, fmt.Errorf("failed to parse start_date: %w", err)
		}
		definition.StartDate = &parsed
	}
	if endDate.Valid {
		parsed, err := time.ParseInLocation(dateLayout, endDate.String, time.UTC)
		if err != nil {
			return persistence.ServiceDefinition{}, fmt.Errorf("failed to parse end_date: %w", err)
		}
		definition.EndDate = &parsed
	}
	if definition.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return persistence.ServiceDefinition{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if definition.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return persistence.ServiceDefinition{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return definition, nil
}

func nullableTimestamp(value *time.Time) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: value.UTC().Format(time.RFC3339), Valid: true}
}

func nullableDate(value *time.Time) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: value.Format(dateLayout), Valid: true}
}
