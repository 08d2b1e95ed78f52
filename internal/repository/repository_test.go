package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 4, 1, 8, 30, 0, 0, time.UTC)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func TestMapError(t *testing.T) {
	assert.Nil(t, mapError(nil))
	assert.ErrorIs(t, mapError(sql.ErrNoRows), ErrNotFound)
	assert.ErrorIs(t, mapError(&pq.Error{Code: "23505", Constraint: "users_username_key"}), ErrDuplicate)
	assert.ErrorIs(t, mapError(&pq.Error{Code: "23503"}), ErrInvalidReference)

	other := &pq.Error{Code: "42P01"}
	assert.Equal(t, error(other), mapError(other))

	plain := errors.New("connection reset")
	assert.Equal(t, plain, mapError(plain))
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db, mock := newMock(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := withTx(context.Background(), db, func(*sqlx.Tx) error { return boom })
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxCommits(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectCommit()

	require.NoError(t, withTx(context.Background(), db, func(*sqlx.Tx) error { return nil }))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUniqueIDs(t *testing.T) {
	assert.Nil(t, uniqueIDs(nil))
	assert.Equal(t, []int{1, 2, 5}, uniqueIDs([]int{5, 1, 2, 5, 1}))
}
