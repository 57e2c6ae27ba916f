package store

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db, mock
}

func TestWithTx_Commits(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM daily_snapshots").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	err := WithTx(context.Background(), db, func(tx *sql.Tx) error {
		_, err := tx.Exec("DELETE FROM daily_snapshots")
		return err
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := WithTx(context.Background(), db, func(tx *sql.Tx) error {
		return boom
	})

	assert.Equal(t, boom, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.PanicsWithValue(t, "kaboom", func() {
		_ = WithTx(context.Background(), db, func(tx *sql.Tx) error {
			panic("kaboom")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_BeginFails(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin().WillReturnError(errors.New("locked"))

	called := false
	err := WithTx(context.Background(), db, func(tx *sql.Tx) error {
		called = true
		return nil
	})

	assert.Error(t, err)
	assert.False(t, called)
}

func TestWithTx_CommitFails(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("disk full"))

	err := WithTx(context.Background(), db, func(tx *sql.Tx) error { return nil })

	assert.ErrorContains(t, err, "disk full")
}

func TestSQLiteStore_UpsertFailurePropagates(t *testing.T) {
	db, mock := newMockDB(t)
	s := &sqliteStore{db: db}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO daily_snapshots")).
		WithArgs("2025-10-07", sqlmock.AnyArg()).
		WillReturnError(errors.New("database is locked"))
	mock.ExpectRollback()

	err := s.Upsert(context.Background(), "2025-10-07", snapshot("a", 1))

	assert.ErrorContains(t, err, "database is locked")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_UpsertUsesOnConflict(t *testing.T) {
	db, mock := newMockDB(t)
	s := &sqliteStore{db: db}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT(snapshot_date) DO UPDATE SET payload=excluded.payload")).
		WithArgs("2025-10-07", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, s.Upsert(context.Background(), "2025-10-07", snapshot("a", 1)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_ListQueryFailure(t *testing.T) {
	db, mock := newMockDB(t)
	s := &sqliteStore{db: db}

	mock.ExpectQuery("SELECT snapshot_date, payload FROM daily_snapshots").
		WillReturnError(errors.New("no such table"))

	_, err := s.List(context.Background(), 0)
	assert.ErrorContains(t, err, "no such table")
}

func TestSQLiteStore_ListLimit(t *testing.T) {
	db, mock := newMockDB(t)
	s := &sqliteStore{db: db}

	rows := sqlmock.NewRows([]string{"snapshot_date", "payload"}).
		AddRow("2025-10-07", `{"full_name":"a","daily_metrics":[],"activity_groups":{}}`)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY snapshot_date DESC LIMIT ?")).
		WithArgs(1).
		WillReturnRows(rows)

	snaps, err := s.List(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "2025-10-07", snaps[0].Date)
	assert.Equal(t, "a", snaps[0].FullName)
}
