package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/idia-astro/ilifudb/internal/db"
	"github.com/idia-astro/ilifudb/internal/domain"
)

const userColumns = `id, enabled, username, email, password, public_key, first_name, last_name,
		contact_number, institution, created, last_updated`

// SQLUserRepo implements UserRepo over SQLite or PostgreSQL.
type SQLUserRepo struct {
	db db.DBTX
}

// NewSQLUserRepo creates a new SQLUserRepo.
func NewSQLUserRepo(conn db.DBTX) *SQLUserRepo {
	return &SQLUserRepo{db: conn}
}

func (r *SQLUserRepo) Create(ctx context.Context, u *domain.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = nowUTC()
	}
	query := `INSERT INTO ilifu_user (enabled, username, email, password, public_key, first_name,
		last_name, contact_number, institution, created, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		u.Enabled,
		u.Username,
		u.Email,
		nullableStringToValue(u.PasswordHash),
		nullableStringToValue(u.PublicKey),
		u.FirstName,
		u.LastName,
		nullableStringToValue(u.ContactNumber),
		u.Institution,
		formatTimestamp(u.CreatedAt),
		nullableTimeToString(u.LastUpdated),
	).Scan(&u.ID)
	if err != nil {
		return mapWriteError(fmt.Sprintf("inserting user %q", u.Username), err)
	}
	return nil
}

func (r *SQLUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM ilifu_user WHERE id = ?`
	return scanSingleUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM ilifu_user WHERE username = ?`
	u, err := scanSingleUser(r.db.QueryRowContext(ctx, query, username))
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	return u, err
}

func (r *SQLUserRepo) List(ctx context.Context, includeDisabled bool) ([]*domain.User, error) {
	if includeDisabled {
		return queryUsers(ctx, r.db, `SELECT `+userColumns+` FROM ilifu_user ORDER BY username`)
	}
	return queryUsers(ctx, r.db, `SELECT `+userColumns+` FROM ilifu_user WHERE enabled = ? ORDER BY username`, true)
}

func (r *SQLUserRepo) Update(ctx context.Context, u *domain.User) error {
	now := nowUTC()
	query := `UPDATE ilifu_user SET enabled = ?, username = ?, email = ?, password = ?, public_key = ?,
		first_name = ?, last_name = ?, contact_number = ?, institution = ?, last_updated = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		u.Enabled,
		u.Username,
		u.Email,
		nullableStringToValue(u.PasswordHash),
		nullableStringToValue(u.PublicKey),
		u.FirstName,
		u.LastName,
		nullableStringToValue(u.ContactNumber),
		u.Institution,
		formatTimestamp(now),
		u.ID,
	)
	if err != nil {
		return mapWriteError(fmt.Sprintf("updating user %q", u.Username), err)
	}
	if err := expectOneRow(res, "user", u.ID); err != nil {
		return err
	}
	u.LastUpdated = &now
	return nil
}

func (r *SQLUserRepo) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	query := `UPDATE ilifu_user SET enabled = ?, last_updated = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, enabled, formatTimestamp(nowUTC()), id)
	if err != nil {
		return fmt.Errorf("setting user enabled: %w", err)
	}
	return expectOneRow(res, "user", id)
}

func (r *SQLUserRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ilifu_user WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return expectOneRow(res, "user", id)
}

func queryUsers(ctx context.Context, conn db.DBTX, query string, args ...any) ([]*domain.User, error) {
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		u, err := scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}
	return users, nil
}

func scanSingleUser(row *sql.Row) (*domain.User, error) {
	u, err := scanUserRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", ErrNotFound)
		}
		return nil, err
	}
	return u, nil
}

func scanUserRow(row rowScanner) (*domain.User, error) {
	var u domain.User
	var password, publicKey, contact, lastUpdated sql.NullString
	var createdStr string

	err := row.Scan(
		&u.ID, &u.Enabled, &u.Username, &u.Email, &password, &publicKey,
		&u.FirstName, &u.LastName, &contact, &u.Institution, &createdStr, &lastUpdated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning user row: %w", err)
	}

	u.PasswordHash = stringPtr(password)
	u.PublicKey = stringPtr(publicKey)
	u.ContactNumber = stringPtr(contact)
	u.CreatedAt, err = parseTimestamp(createdStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created: %w", err)
	}
	u.LastUpdated = parseNullableTime(lastUpdated)
	return &u, nil
}
