// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nazca360/nazca360/internal/metrics"
	"github.com/nazca360/nazca360/internal/models"
)

// User errors
var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("an account with this email already exists")
)

// CreateUser inserts a new account. Emails are expected to arrive already
// normalized (trimmed, lowercased) from the auth layer; the unique index on
// users(email) backs the one-account-per-email rule.
func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.UpdatedAt = user.CreatedAt
	if user.Provider == "" {
		user.Provider = models.ProviderLocal
	}
	if user.Plan == "" {
		user.Plan = models.PlanBasic
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}

	query := `INSERT INTO users (
		id, email, full_name, password_hash, picture, provider,
		plan, role, is_verified, last_login_at, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := db.conn.ExecContext(ctx, query,
		user.ID, user.Email, user.FullName, nullString(user.PasswordHash), nullString(user.Picture), user.Provider,
		user.Plan, user.Role, user.IsVerified, user.LastLoginAt, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user by ID.
func (db *DB) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := userSelectColumns + ` FROM users WHERE id = ?`

	row := db.conn.QueryRowContext(ctx, query, id)
	return scanUserRow(row.Scan)
}

// GetUserByEmail retrieves a user by email. This runs on every password
// login, so it goes through the prepared statement cache.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := userSelectColumns + ` FROM users WHERE email = ?`

	stmt, err := db.stmt(ctx, query)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	row := stmt.QueryRowContext(ctx, email)
	user, err := scanUserRow(row.Scan)

	queryErr := err
	if errors.Is(queryErr, ErrUserNotFound) {
		// A missing account is an answer, not a query failure.
		queryErr = nil
	}
	metrics.RecordDBQuery("select", "users", time.Since(start), queryErr)

	return user, err
}

// ListUsers retrieves users ordered by registration date, newest first.
func (db *DB) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := userSelectColumns + ` FROM users ORDER BY created_at DESC, id LIMIT ? OFFSET ?`

	rows, err := db.conn.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		user, err := scanUserRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// CountUsers returns the total number of accounts.
func (db *DB) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// UpdateUserProfile updates the mutable profile fields. Google sign-ins
// refresh full_name and picture from the ID token on every login.
func (db *DB) UpdateUserProfile(ctx context.Context, id uuid.UUID, fullName, picture string) error {
	query := `UPDATE users SET full_name = ?, picture = ?, updated_at = ? WHERE id = ?`
	return db.execUserUpdate(ctx, query, fullName, nullString(picture), time.Now().UTC(), id)
}

// UpdateUserRole assigns a new authorization role.
func (db *DB) UpdateUserRole(ctx context.Context, id uuid.UUID, role string) error {
	query := `UPDATE users SET role = ?, updated_at = ? WHERE id = ?`
	return db.execUserUpdate(ctx, query, role, time.Now().UTC(), id)
}

// UpdateUserPlan moves the account to a new plan tier. Payment finalization
// upgrades to premium; the subscription-expiry sweep downgrades back to basic.
func (db *DB) UpdateUserPlan(ctx context.Context, id uuid.UUID, plan string) error {
	query := `UPDATE users SET plan = ?, updated_at = ? WHERE id = ?`
	return db.execUserUpdate(ctx, query, plan, time.Now().UTC(), id)
}

// UpdateUserPassword replaces the stored bcrypt hash.
func (db *DB) UpdateUserPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`
	return db.execUserUpdate(ctx, query, passwordHash, time.Now().UTC(), id)
}

// MarkUserVerified flips the email verification flag.
func (db *DB) MarkUserVerified(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE users SET is_verified = TRUE, updated_at = ? WHERE id = ?`
	return db.execUserUpdate(ctx, query, time.Now().UTC(), id)
}

// TouchLastLogin stamps the last successful login time.
func (db *DB) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE users SET last_login_at = ?, updated_at = ? WHERE id = ?`
	return db.execUserUpdate(ctx, query, at.UTC(), time.Now().UTC(), id)
}

// execUserUpdate runs an UPDATE against users and maps zero affected rows
// to ErrUserNotFound.
func (db *DB) execUserUpdate(ctx context.Context, query string, args ...any) error {
	result, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// userSelectColumns is the shared column list for user scans.
const userSelectColumns = `SELECT
	id, email, full_name, password_hash, picture, provider,
	plan, role, is_verified, last_login_at, created_at, updated_at`

// scanUserRow scans one user row via the given Scan function, which lets
// *sql.Row and *sql.Rows share the same mapping.
func scanUserRow(scan func(dest ...any) error) (*models.User, error) {
	var user models.User
	var passwordHash, picture sql.NullString
	var lastLoginAt sql.NullTime

	err := scan(
		&user.ID, &user.Email, &user.FullName, &passwordHash, &picture, &user.Provider,
		&user.Plan, &user.Role, &user.IsVerified, &lastLoginAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	if passwordHash.Valid {
		user.PasswordHash = passwordHash.String
	}
	if picture.Valid {
		user.Picture = picture.String
	}
	if lastLoginAt.Valid {
		user.LastLoginAt = &lastLoginAt.Time
	}

	return &user, nil
}

// nullString maps "" to NULL so optional text columns stay NULL instead of
// storing empty strings.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
