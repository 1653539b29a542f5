package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"user-management/internal/data/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var userColumnNames = []string{
	"id", "username", "email", "phone_number", "first_name", "last_name", "dob",
	"display_name", "password_hash", "is_enabled", "is_deleted", "created_at", "updated_at", "deleted_at",
}

func setupMock(t *testing.T) (pgxmock.PgxPoolIface, UserRepository) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create pgx mock")
	t.Cleanup(mock.Close)

	return mock, NewUserRepository(mock, zap.NewNop())
}

func strPtr(s string) *string { return &s }

func userRow(rows *pgxmock.Rows, u *entity.User) *pgxmock.Rows {
	return rows.AddRow(
		u.ID, u.Username, u.Email, u.PhoneNumber, u.FirstName, u.LastName, u.DOB,
		u.DisplayName, u.PasswordHash, u.IsEnabled, u.IsDeleted, u.CreatedAt, u.UpdatedAt, u.DeletedAt,
	)
}

func sampleUser() *entity.User {
	created := time.Date(2026, time.January, 2, 3, 4, 5, 0, time.UTC)
	return &entity.User{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: created,
			UpdatedAt: created,
			DeletedAt: (*time.Time)(nil),
		},
		Username:     "jdoe",
		Email:        "john@example.com",
		PhoneNumber:  strPtr("+8801711223344"),
		FirstName:    "John",
		LastName:     "Doe",
		DOB:          (*time.Time)(nil),
		DisplayName:  (*string)(nil),
		PasswordHash: "$2a$12$hash",
		IsEnabled:    true,
	}
}

func TestUserRepository_Create(t *testing.T) {
	t.Run("assigns id and timestamps", func(t *testing.T) {
		mock, repo := setupMock(t)

		user := sampleUser()
		user.ID = uuid.Nil
		user.CreatedAt = time.Time{}

		mock.ExpectExec("INSERT INTO users").
			WithArgs(
				pgxmock.AnyArg(), "jdoe", "john@example.com", user.PhoneNumber, "John", "Doe", user.DOB,
				user.DisplayName, "$2a$12$hash", true, false, pgxmock.AnyArg(), pgxmock.AnyArg(),
			).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := repo.Create(context.Background(), user)

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, user.ID, "ID is not set")
		assert.False(t, user.CreatedAt.IsZero(), "CreatedAt is not set")
		assert.Equal(t, user.CreatedAt, user.UpdatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate email", func(t *testing.T) {
		mock, repo := setupMock(t)

		mock.ExpectExec("INSERT INTO users").
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_lower_key"})

		err := repo.Create(context.Background(), sampleUser())

		assert.ErrorIs(t, err, ErrDuplicateEmail)
	})

	t.Run("duplicate phone", func(t *testing.T) {
		mock, repo := setupMock(t)

		mock.ExpectExec("INSERT INTO users").
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_phone_number_key"})

		err := repo.Create(context.Background(), sampleUser())

		assert.ErrorIs(t, err, ErrDuplicatePhone)
	})

	t.Run("driver failure is wrapped", func(t *testing.T) {
		mock, repo := setupMock(t)
		dbErr := errors.New("connection reset")

		mock.ExpectExec("INSERT INTO users").WillReturnError(dbErr)

		err := repo.Create(context.Background(), sampleUser())

		assert.ErrorIs(t, err, dbErr)
		assert.False(t, errors.Is(err, ErrDuplicateEmail))
	})
}

func TestUserRepository_FindByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		mock, repo := setupMock(t)
		want := sampleUser()

		mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).
			WithArgs(want.ID).
			WillReturnRows(userRow(pgxmock.NewRows(userColumnNames), want))

		got, err := repo.FindByID(context.Background(), want.ID)

		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, "john@example.com", got.Email)
		assert.Equal(t, "+8801711223344", *got.PhoneNumber)
		assert.True(t, got.IsEnabled)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("absent returns nil, nil", func(t *testing.T) {
		mock, repo := setupMock(t)
		id := uuid.New()

		mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).
			WithArgs(id).
			WillReturnRows(pgxmock.NewRows(userColumnNames))

		got, err := repo.FindByID(context.Background(), id)

		assert.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestUserRepository_FindByEmail(t *testing.T) {
	t.Run("case-insensitive and includes soft-deleted", func(t *testing.T) {
		mock, repo := setupMock(t)
		deleted := sampleUser()
		deleted.IsDeleted = true
		deleted.IsEnabled = false

		mock.ExpectQuery(regexp.QuoteMeta("WHERE LOWER(email) = LOWER($1)")).
			WithArgs("JOHN@example.com").
			WillReturnRows(userRow(pgxmock.NewRows(userColumnNames), deleted))

		got, err := repo.FindByEmail(context.Background(), "JOHN@example.com")

		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, got.IsDeleted)
	})

	t.Run("query failure", func(t *testing.T) {
		mock, repo := setupMock(t)
		dbErr := errors.New("timeout")

		mock.ExpectQuery(regexp.QuoteMeta("WHERE LOWER(email) = LOWER($1)")).WillReturnError(dbErr)

		got, err := repo.FindByEmail(context.Background(), "a@b.com")

		assert.ErrorIs(t, err, dbErr)
		assert.Nil(t, got)
	})
}

func TestUserRepository_FindByPhoneNumber(t *testing.T) {
	mock, repo := setupMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE phone_number = $1")).
		WithArgs("+8801711223344").
		WillReturnRows(pgxmock.NewRows(userColumnNames))

	got, err := repo.FindByPhoneNumber(context.Background(), "+8801711223344")

	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindAllAndCount(t *testing.T) {
	mock, repo := setupMock(t)
	a, b := sampleUser(), sampleUser()

	rows := pgxmock.NewRows(userColumnNames)
	userRow(rows, a)
	userRow(rows, b)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE is_deleted = FALSE")).
		WithArgs(10, 20).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE is_deleted = FALSE")).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(42)))

	users, err := repo.FindAll(context.Background(), 10, 20)
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, a.ID, users[0].ID)
	assert.Equal(t, b.ID, users[1].ID)

	total, err := repo.CountAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), total)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildUpdate(t *testing.T) {
	id := uuid.New()
	now := time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC)

	t.Run("only provided fields are written", func(t *testing.T) {
		query, args := buildUpdate(id, entity.UserUpdate{FirstName: strPtr("Jane")}, now)

		assert.Equal(t, "UPDATE users SET first_name = $2, updated_at = $3 WHERE id = $1 AND is_deleted = FALSE", query)
		assert.Equal(t, []any{id, "Jane", now}, args)
	})

	t.Run("empty phone and zero dob clear the columns", func(t *testing.T) {
		zero := time.Time{}
		query, args := buildUpdate(id, entity.UserUpdate{PhoneNumber: strPtr(""), DOB: &zero}, now)

		assert.Equal(t, "UPDATE users SET phone_number = $2, dob = $3, updated_at = $4 WHERE id = $1 AND is_deleted = FALSE", query)
		require.Len(t, args, 4)
		assert.Nil(t, args[1])
		assert.Nil(t, args[2])
	})

	t.Run("empty display name clears the column", func(t *testing.T) {
		query, args := buildUpdate(id, entity.UserUpdate{DisplayName: strPtr("")}, now)

		assert.Equal(t, "UPDATE users SET display_name = $2, updated_at = $3 WHERE id = $1 AND is_deleted = FALSE", query)
		assert.Nil(t, args[1])
	})

	t.Run("status toggle", func(t *testing.T) {
		disabled := false
		query, args := buildUpdate(id, entity.UserUpdate{IsEnabled: &disabled}, now)

		assert.Contains(t, query, "is_enabled = $2")
		assert.Equal(t, false, args[1])
	})
}

func TestUserRepository_Update(t *testing.T) {
	t.Run("modified", func(t *testing.T) {
		mock, repo := setupMock(t)
		id := uuid.New()

		mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET last_name = $2, updated_at = $3")).
			WithArgs(id, "Smith", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		ok, err := repo.Update(context.Background(), id, entity.UserUpdate{LastName: strPtr("Smith")})

		require.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no row matched", func(t *testing.T) {
		mock, repo := setupMock(t)

		mock.ExpectExec("UPDATE users SET").WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		ok, err := repo.Update(context.Background(), uuid.New(), entity.UserUpdate{LastName: strPtr("Smith")})

		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("empty patch skips the store", func(t *testing.T) {
		mock, repo := setupMock(t)

		ok, err := repo.Update(context.Background(), uuid.New(), entity.UserUpdate{})

		require.NoError(t, err)
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("phone taken by another row", func(t *testing.T) {
		mock, repo := setupMock(t)

		mock.ExpectExec("UPDATE users SET").
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_phone_number_key"})

		_, err := repo.Update(context.Background(), uuid.New(), entity.UserUpdate{PhoneNumber: strPtr("+8801711223344")})

		assert.ErrorIs(t, err, ErrDuplicatePhone)
	})
}

func TestUserRepository_Delete(t *testing.T) {
	t.Run("soft delete", func(t *testing.T) {
		mock, repo := setupMock(t)
		id := uuid.New()

		mock.ExpectExec(regexp.QuoteMeta("SET is_deleted = TRUE, is_enabled = FALSE")).
			WithArgs(id).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		ok, err := repo.Delete(context.Background(), id)

		require.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already removed", func(t *testing.T) {
		mock, repo := setupMock(t)

		mock.ExpectExec(regexp.QuoteMeta("SET is_deleted = TRUE")).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		ok, err := repo.Delete(context.Background(), uuid.New())

		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("hard delete", func(t *testing.T) {
		mock, repo := setupMock(t)
		id := uuid.New()

		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = $1")).
			WithArgs(id).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		ok, err := repo.HardDelete(context.Background(), id)

		require.NoError(t, err)
		assert.True(t, ok)
	})
}
