package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Olawill/church-transport-application-sub001/internal/persistence"
)

// UserRepository implements persistence.UserRepository using SQLite.
type UserRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const userColumns = `id, email, display_name, password_hash, is_admin, disabled, created_at, updated_at`

// CreateUser inserts a new user.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.helper.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		strings.ToLower(strings.TrimSpace(user.Email)),
		user.DisplayName,
		user.PasswordHash,
		boolToInt(user.IsAdmin),
		boolToInt(user.Disabled),
		user.CreatedAt.UTC().Format(time.RFC3339),
		user.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return r.mapper.MapError(err)
}

// UpdateUser updates an existing user.
func (r *UserRepository) UpdateUser(ctx context.Context, user persistence.User) error {
	result, err := r.helper.Exec(ctx,
		`UPDATE users
		 SET email = ?, display_name = ?, password_hash = ?, is_admin = ?, disabled = ?, updated_at = ?
		 WHERE id = ?`,
		strings.ToLower(strings.TrimSpace(user.Email)),
		user.DisplayName,
		user.PasswordHash,
		boolToInt(user.IsAdmin),
		boolToInt(user.Disabled),
		user.UpdatedAt.UTC().Format(time.RFC3339),
		user.ID,
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

// GetUser retrieves a user by ID.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	return r.scanUser(r.helper.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id).Scan)
}

// GetUserByEmail retrieves a user by email address.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	return r.scanUser(r.helper.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(email))).Scan)
}

// ListUsers enumerates all users.
func (r *UserRepository) ListUsers(ctx context.Context) ([]persistence.User, error) {
	rows, err := r.helper.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY display_name ASC, id ASC`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	users := make([]persistence.User, 0)
	for rows.Next() {
		user, err := r.scanUser(rows.Scan)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return users, nil
}

func (r *UserRepository) scanUser(scan func(dest ...any) error) (persistence.User, error) {
	var (
		user                 persistence.User
		isAdmin, disabled    int
		createdAt, updatedAt string
	)
	err := scan(&user.ID, &user.Email, &user.DisplayName, &user.PasswordHash,
		&isAdmin, &disabled, &createdAt, &updatedAt)
	if err != nil {
		return persistence.User{}, r.mapper.MapError(err)
	}

	user.IsAdmin = isAdmin != 0
	user.Disabled = disabled != 0
	if user.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return persistence.User{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if user.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return persistence.User{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return user, nil
}

// AddressRepository implements persistence.AddressRepository using SQLite.
type AddressRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewAddressRepository creates a new SQLite address repository.
func NewAddressRepository(pool *ConnectionPool) *AddressRepository {
	return &AddressRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const addressColumns = `id, user_id, label, street, city, province, postal_code, created_at, updated_at`

// CreateAddress inserts a new saved address.
func (r *AddressRepository) CreateAddress(ctx context.Context, address persistence.Address) error {
	if address.ID == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.helper.Exec(ctx,
		`INSERT INTO addresses (`+addressColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		address.ID,
		address.UserID,
		address.Label,
		address.Street,
		address.City,
		address.Province,
		address.PostalCode,
		address.CreatedAt.UTC().Format(time.RFC3339),
		address.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return r.mapper.MapError(err)
}

// GetAddress retrieves an address by ID.
func (r *AddressRepository) GetAddress(ctx context.Context, id string) (persistence.Address, error) {
	return r.scanAddress(r.helper.QueryRow(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE id = ?`, id).Scan)
}

// ListAddressesForUser enumerates a user's saved addresses.
func (r *AddressRepository) ListAddressesForUser(ctx context.Context, userID string) ([]persistence.Address, error) {
	rows, err := r.helper.Query(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE user_id = ? ORDER BY label ASC, id ASC`,
		userID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	addresses := make([]persistence.Address, 0)
	for rows.Next() {
		address, err := r.scanAddress(rows.Scan)
		if err != nil {
			return nil, err
		}
		addresses = append(addresses, address)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return addresses, nil
}

// AddressExists reports whether the user owns the given address.
func (r *AddressRepository) AddressExists(ctx context.Context, userID, addressID string) (bool, error) {
	var count int
	err := r.helper.QueryRow(ctx,
		`SELECT COUNT(1) FROM addresses WHERE id = ? AND user_id = ?`,
		addressID, userID).Scan(&count)
	if err != nil {
		return false, r.mapper.MapError(err)
	}
	return count > 0, nil
}

func (r *AddressRepository) scanAddress(scan func(dest ...any) error) (persistence.Address, error) {
	var (
		address              persistence.Address
		createdAt, updatedAt string
	)
	err := scan(&address.ID, &address.UserID, &address.Label, &address.Street,
		&address.City, &address.Province, &address.PostalCode, &createdAt, &updatedAt)
	if err != nil {
		return persistence.Address{}, r.mapper.MapError(err)
	}

	if address.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return persistence.Address{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if address.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return persistence.Address{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return address, nil
}
