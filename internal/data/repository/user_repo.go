package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"user-management/internal/data/entity"
	"user-management/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const (
	pgUniqueViolation = "23505"

	emailUniqueIndex = "users_email_lower_key"
	phoneUniqueIndex = "users_phone_number_key"
)

const userColumns = `id, username, email, phone_number, first_name, last_name, dob,
		       display_name, password_hash, is_enabled, is_deleted, created_at, updated_at, deleted_at`

type userRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewUserRepository(db database.PgxIface, log *zap.Logger) UserRepository {
	return &userRepository{
		db:  db,
		log: log,
	}
}

// Create inserts a new user record and assigns its ID.
func (ur *userRepository) Create(ctx context.Context, user *entity.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	user.UpdatedAt = user.CreatedAt

	query := `
		INSERT INTO users (id, username, email, phone_number, first_name, last_name, dob,
		                   display_name, password_hash, is_enabled, is_deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := ur.db.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PhoneNumber,
		user.FirstName,
		user.LastName,
		user.DOB,
		user.DisplayName,
		user.PasswordHash,
		user.IsEnabled,
		user.IsDeleted,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if dup := duplicateError(err); dup != nil {
			return dup
		}
		ur.log.Error("Failed to create user",
			zap.Error(err),
			zap.String("email", user.Email),
			zap.String("username", user.Username),
		)
		return fmt.Errorf("create user %s: %w", user.Email, err)
	}

	return nil
}

func (ur *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`

	user, err := scanUser(ur.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		ur.log.Error("Failed to find user by ID",
			zap.Error(err),
			zap.String("user_id", id.String()),
		)
		return nil, fmt.Errorf("find user by ID %s: %w", id.String(), err)
	}

	return user, nil
}

// FindByEmail matches case-insensitively. An active match wins over a
// soft-deleted one.
func (ur *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		WHERE LOWER(email) = LOWER($1)
		ORDER BY is_deleted ASC, created_at DESC
		LIMIT 1
	`

	user, err := scanUser(ur.db.QueryRow(ctx, query, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		ur.log.Error("Failed to find user by email",
			zap.Error(err),
			zap.String("email", email),
		)
		return nil, fmt.Errorf("find user by email %s: %w", email, err)
	}

	return user, nil
}

func (ur *userRepository) FindByPhoneNumber(ctx context.Context, phone string) (*entity.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		WHERE phone_number = $1
		ORDER BY is_deleted ASC, created_at DESC
		LIMIT 1
	`

	user, err := scanUser(ur.db.QueryRow(ctx, query, phone))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		ur.log.Error("Failed to find user by phone number",
			zap.Error(err),
			zap.String("phone_number", phone),
		)
		return nil, fmt.Errorf("find user by phone number %s: %w", phone, err)
	}

	return user, nil
}

// FindAll retrieves a page of users that are not soft-deleted, newest first.
func (ur *userRepository) FindAll(ctx context.Context, limit, offset int) ([]*entity.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		WHERE is_deleted = FALSE
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := ur.db.Query(ctx, query, limit, offset)
	if err != nil {
		ur.log.Error("Failed to get all users",
			zap.Error(err),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find all users limit %d offset %d: %w", limit, offset, err)
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			ur.log.Error("Failed to scan user row", zap.Error(err))
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		ur.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate users rows: %w", err)
	}

	return users, nil
}

func (ur *userRepository) CountAll(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM users WHERE is_deleted = FALSE`

	var count int64
	if err := ur.db.QueryRow(ctx, query).Scan(&count); err != nil {
		ur.log.Error("Database error counting users", zap.Error(err))
		return 0, fmt.Errorf("count all users: %w", err)
	}

	return count, nil
}

// Update writes only the fields set in the patch. Soft-deleted rows are never
// modified. It reports whether a row was changed.
func (ur *userRepository) Update(ctx context.Context, id uuid.UUID, fields entity.UserUpdate) (bool, error) {
	if fields.IsEmpty() {
		return false, nil
	}

	query, args := buildUpdate(id, fields, time.Now())

	result, err := ur.db.Exec(ctx, query, args...)
	if err != nil {
		if dup := duplicateError(err); dup != nil {
			return false, dup
		}
		ur.log.Error("Failed to update user",
			zap.Error(err),
			zap.String("user_id", id.String()),
		)
		return false, fmt.Errorf("update user %s: %w", id.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

// Delete soft-deletes a user: the row is kept, flagged removed and disabled.
func (ur *userRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE users
		SET is_deleted = TRUE, is_enabled = FALSE, deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND is_deleted = FALSE
	`

	result, err := ur.db.Exec(ctx, query, id)
	if err != nil {
		ur.log.Error("Failed to delete user",
			zap.Error(err),
			zap.String("id", id.String()),
		)
		return false, fmt.Errorf("delete user %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return false, nil
	}

	ur.log.Info("User soft-deleted", zap.String("id", id.String()))
	return true, nil
}

// HardDelete physically removes the row, soft-deleted or not.
func (ur *userRepository) HardDelete(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := ur.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		ur.log.Error("Failed to purge user",
			zap.Error(err),
			zap.String("id", id.String()),
		)
		return false, fmt.Errorf("purge user %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return false, nil
	}

	ur.log.Info("User purged", zap.String("id", id.String()))
	return true, nil
}

// ==================== HELPERS ====================

// buildUpdate renders the SET list in a fixed column order. $1 is always the id.
func buildUpdate(id uuid.UUID, fields entity.UserUpdate, now time.Time) (string, []any) {
	sets := make([]string, 0, 8)
	args := []any{id}

	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if fields.Username != nil {
		set("username", *fields.Username)
	}
	if fields.FirstName != nil {
		set("first_name", *fields.FirstName)
	}
	if fields.LastName != nil {
		set("last_name", *fields.LastName)
	}
	if fields.DisplayName != nil {
		set("display_name", emptyAsNull(fields.DisplayName))
	}
	if fields.PhoneNumber != nil {
		set("phone_number", emptyAsNull(fields.PhoneNumber))
	}
	if fields.DOB != nil {
		var dob *time.Time
		if !fields.DOB.IsZero() {
			dob = fields.DOB
		}
		set("dob", dob)
	}
	if fields.IsEnabled != nil {
		set("is_enabled", *fields.IsEnabled)
	}
	set("updated_at", now)

	query := "UPDATE users SET " + strings.Join(sets, ", ") + " WHERE id = $1 AND is_deleted = FALSE"
	return query, args
}

func emptyAsNull(s *string) *string {
	if *s == "" {
		return nil
	}
	return s
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var user entity.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PhoneNumber,
		&user.FirstName,
		&user.LastName,
		&user.DOB,
		&user.DisplayName,
		&user.PasswordHash,
		&user.IsEnabled,
		&user.IsDeleted,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// duplicateError maps a unique-constraint violation to ErrDuplicateEmail or
// ErrDuplicatePhone, and returns nil for anything else.
func duplicateError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return nil
	}
	switch pgErr.ConstraintName {
	case emailUniqueIndex:
		return fmt.Errorf("%w: %s", ErrDuplicateEmail, pgErr.Detail)
	case phoneUniqueIndex:
		return fmt.Errorf("%w: %s", ErrDuplicatePhone, pgErr.Detail)
	}
	return nil
}
