package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userCols = []string{"id", "name", "email", "created_at"}

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })
	return sqlx.NewDb(raw, "sqlmock"), mock
}

func TestStoreGet(t *testing.T) {
	db, mock := newMock(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(selectUser)).WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(7, "Ada", "ada@example.com", now))
	mock.ExpectQuery(regexp.QuoteMeta(selectUser)).WithArgs(int64(8)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(selectUser)).WithArgs(int64(9)).
		WillReturnError(errors.New("conn reset"))

	s := NewStore(db)
	u, err := s.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, User{ID: 7, Name: "Ada", Email: "ada@example.com", CreatedAt: now}, *u)

	_, err = s.Get(context.Background(), 8)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Get(context.Background(), 9)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreCreateAndDelete(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now().UTC().Truncate(time.Second)

	mock.ExpectExec(regexp.QuoteMeta(insertUser)).WithArgs("Bob", "bob@example.com").
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectQuery(regexp.QuoteMeta(selectUser)).WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(3, "Bob", "bob@example.com", now))
	mock.ExpectExec(regexp.QuoteMeta(deleteUser)).WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(deleteUser)).WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	s := NewStore(db)
	u, err := s.Create(context.Background(), "Bob", "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(3), u.ID)

	require.NoError(t, s.Delete(context.Background(), 3))
	assert.ErrorIs(t, s.Delete(context.Background(), 3), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreList(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now().UTC().Truncate(time.Second)

	mock.ExpectQuery(regexp.QuoteMeta(selectUsers)).WithArgs(2, 0).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(1, "A", "a@example.com", now).
			AddRow(2, "B", "b@example.com", now))
	mock.ExpectQuery(regexp.QuoteMeta(selectUsers)).WithArgs(2, 10).
		WillReturnRows(sqlmock.NewRows(userCols))

	s := NewStore(db)
	got, err := s.List(context.Background(), 2, 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.List(context.Background(), 2, 10)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBoundedInt(t *testing.T) {
	n, err := boundedInt("25", 1, maxLimit)
	require.NoError(t, err)
	assert.Equal(t, 25, n)

	_, err = boundedInt("0", 1, maxLimit)
	assert.Error(t, err)
	_, err = boundedInt("x", 0, -1)
	assert.Error(t, err)
	n, err = boundedInt("100000", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, 100000, n)
}
