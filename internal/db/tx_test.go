package db

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	rawDB, mockDB, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { rawDB.Close() })
	return sqlx.NewDb(rawDB, "sqlmock"), mockDB
}

func TestWithTx_Commits(t *testing.T) {
	db, mockDB := newMockDB(t)

	mockDB.ExpectBegin()
	mockDB.ExpectCommit()

	calls := 0
	err := WithTx(context.Background(), db, func(tx *sqlx.Tx) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	require.NoError(t, mockDB.ExpectationsWereMet())
}

func TestWithTx_BusinessErrorRollsBackWithoutRetry(t *testing.T) {
	db, mockDB := newMockDB(t)
	errBusiness := errors.New("capacity full")

	mockDB.ExpectBegin()
	mockDB.ExpectRollback()

	calls := 0
	err := WithTx(context.Background(), db, func(tx *sqlx.Tx) error {
		calls++
		return errBusiness
	})

	assert.ErrorIs(t, err, errBusiness)
	assert.Equal(t, 1, calls)
	require.NoError(t, mockDB.ExpectationsWereMet())
}

func TestWithTx_SerializationFailureIsReplayed(t *testing.T) {
	db, mockDB := newMockDB(t)

	mockDB.ExpectBegin()
	mockDB.ExpectRollback()
	mockDB.ExpectBegin()
	mockDB.ExpectCommit()

	calls := 0
	err := WithTx(context.Background(), db, func(tx *sqlx.Tx) error {
		calls++
		if calls == 1 {
			return &pq.Error{Code: "40001"}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.NoError(t, mockDB.ExpectationsWereMet())
}

func TestWithTx_GivesUpAfterMaxAttempts(t *testing.T) {
	db, mockDB := newMockDB(t)

	for i := 0; i < txAttempts; i++ {
		mockDB.ExpectBegin()
		mockDB.ExpectRollback()
	}

	calls := 0
	err := WithTx(context.Background(), db, func(tx *sqlx.Tx) error {
		calls++
		return &pq.Error{Code: "40P01"}
	})

	require.Error(t, err)
	var pqErr *pq.Error
	require.True(t, errors.As(err, &pqErr))
	assert.Equal(t, txAttempts, calls)
	require.NoError(t, mockDB.ExpectationsWereMet())
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(&pq.Error{Code: "40001"}))
	assert.True(t, isRetryable(&pq.Error{Code: "40P01"}))
	assert.False(t, isRetryable(&pq.Error{Code: "23505"}))
	assert.False(t, isRetryable(errors.New("not a pq error")))
	assert.False(t, isRetryable(nil))
}
