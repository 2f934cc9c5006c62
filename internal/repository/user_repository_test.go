package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestIncrementRewardsTx_UsesAtomicIncrement(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectBegin()
	// The increment must happen in SQL, never as load-modify-store, so
	// concurrent intake transactions cannot lose an update.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET rewards = rewards + ? WHERE id=?")).
		WithArgs(53, 9).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, repo.IncrementRewardsTx(context.Background(), tx, 9, 53))
	require.NoError(t, tx.Commit())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementRewardsTx_UnknownUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET rewards = rewards + ? WHERE id=?")).
		WithArgs(5, 404).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	assert.ErrorIs(t, repo.IncrementRewardsTx(context.Background(), tx, 404, 5), sql.ErrNoRows)
	require.NoError(t, tx.Rollback())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBalanceTx_ReadsInsideTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT rewards FROM users WHERE id=?")).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"rewards"}).AddRow(93))
	mock.ExpectCommit()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	balance, err := repo.BalanceTx(context.Background(), tx, 9)
	require.NoError(t, err)
	assert.Equal(t, uint64(93), balance)
	require.NoError(t, tx.Commit())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_AdminIsProtected(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT role FROM users WHERE id=? FOR UPDATE")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("admin"))
	mock.ExpectRollback()

	assert.ErrorIs(t, repo.Delete(context.Background(), 1), ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_CascadesDependentRows(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT role FROM users WHERE id=? FOR UPDATE")).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("normal_user"))
	// Children go first, the user row last, all in one transaction.
	for _, table := range []string{"otp_verifications", "rewards", "waste_data", "refresh_tokens"} {
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM "+table+" WHERE user_id=?")).
			WithArgs(9).
			WillReturnResult(sqlmock.NewResult(0, 2))
	}
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id=?")).
		WithArgs(9).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), 9))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_UnknownUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT role FROM users WHERE id=? FOR UPDATE")).
		WithArgs(404).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	assert.ErrorIs(t, repo.Delete(context.Background(), 404), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
