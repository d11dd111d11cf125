package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/secondbrain/internal/model"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })

	return sqlx.NewDb(raw, "sqlmock"), mock
}

func TestUserRepository_PostgresUniqueViolation(t *testing.T) {
	database, mock := newMockDB(t)
	repo := NewUserRepository(database)

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := repo.Create(context.Background(), seedUserValue("dup@example.com"))
	assert.ErrorIs(t, err, ErrDuplicateEmail)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContentRepository_ByIDStorageFailure(t *testing.T) {
	database, mock := newMockDB(t)
	repo := NewContentRepository(database)
	boom := errors.New("connection reset")

	mock.ExpectQuery(`SELECT .* FROM contents c WHERE c.id`).WithArgs("c1").WillReturnError(boom)

	_, err := repo.ByID(context.Background(), "c1")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrContentNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContentRepository_UpdateRollsBackOnTagFailure(t *testing.T) {
	database, mock := newMockDB(t)
	repo := NewContentRepository(database)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE contents SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM content_tags`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.Update(context.Background(), &model.Content{ID: "c1", Type: model.ContentTypeDocument, Title: "t"}, []string{"t1"}, true)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContentRepository_ListCountFailure(t *testing.T) {
	database, mock := newMockDB(t)
	repo := NewContentRepository(database)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM contents`).WillReturnError(errors.New("timeout"))

	_, _, err := repo.List(context.Background(), ContentFilter{ViewerID: "u1", Limit: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count contents")
	require.NoError(t, mock.ExpectationsWereMet())
}
