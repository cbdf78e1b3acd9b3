package user

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userCols = []string{"id", "username", "email", "password_hash", "is_staff", "created_at"}

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewRepository(conn), mock
}

func TestRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`INSERT INTO users \(username, email, password_hash, is_staff\)`).
			WithArgs("ana", "ana@example.com", "hash", false).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1, time.Now()))

		u := &User{Username: "ana", Email: "ana@example.com", PasswordHash: "hash"}
		require.NoError(t, repo.Create(ctx, u))
		assert.Equal(t, uint(1), u.ID)
	})

	t.Run("Duplicates", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`INSERT INTO users`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: constraintEmail})
		mock.ExpectQuery(`INSERT INTO users`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: constraintUsername})

		assert.ErrorIs(t, repo.Create(ctx, &User{}), ErrEmailExists)
		assert.ErrorIs(t, repo.Create(ctx, &User{}), ErrUsernameExists)
	})
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`SELECT .* FROM users WHERE id = \$1`).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 3)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRepository_List(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`FROM users WHERE 1=1 AND username ILIKE \$1 AND LOWER\(email\) = LOWER\(\$2\) ORDER BY id LIMIT \$3 OFFSET \$4`).
		WithArgs("%an%", "ANA@example.com", int32(20), int32(0)).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(1, "ana", "ana@example.com", "hash", false, time.Now()))

	users, err := repo.List(context.Background(), ListFilter{Username: "an", Email: "ANA@example.com"})
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
