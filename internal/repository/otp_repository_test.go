package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecosort/waste-bank/internal/model"
)

func TestClassify_FreshCode(t *testing.T) {
	now := time.Now().UTC()
	o := model.OTPVerification{ExpiresAt: now.Add(5 * time.Minute)}
	assert.NoError(t, Classify(o, now))
}

func TestClassify_Expired(t *testing.T) {
	now := time.Now().UTC()
	o := model.OTPVerification{ExpiresAt: now.Add(-time.Minute)}
	assert.ErrorIs(t, Classify(o, now), ErrOTPExpired)
}

func TestClassify_UsedBeatsExpired(t *testing.T) {
	// A code that is both consumed and past its window reports as used.
	now := time.Now().UTC()
	o := model.OTPVerification{IsUsed: true, ExpiresAt: now.Add(-time.Minute)}
	assert.ErrorIs(t, Classify(o, now), ErrOTPUsed)
}

func TestClassify_UsedFresh(t *testing.T) {
	now := time.Now().UTC()
	o := model.OTPVerification{IsUsed: true, ExpiresAt: now.Add(5 * time.Minute)}
	assert.ErrorIs(t, Classify(o, now), ErrOTPUsed)
}

func TestInvalidateActiveTx_MarksOnlyUnusedRows(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOTPRepo(db)

	mock.ExpectBegin()
	// Invalidation is a single guarded statement so a racing verify can
	// never observe two simultaneously valid codes.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE otp_verifications SET is_used=1 WHERE user_id=? AND is_used=0")).
		WithArgs(9).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, repo.InvalidateActiveTx(context.Background(), tx, 9))
	require.NoError(t, tx.Commit())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeTx_Winner(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOTPRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE otp_verifications SET is_used=1 WHERE id=? AND is_used=0")).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, repo.ConsumeTx(context.Background(), tx, 5))
	require.NoError(t, tx.Commit())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeTx_RaceLoser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOTPRepo(db)

	mock.ExpectBegin()
	// The guarded WHERE clause means the loser of two concurrent
	// verifications sees zero affected rows.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE otp_verifications SET is_used=1 WHERE id=? AND is_used=0")).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	assert.ErrorIs(t, repo.ConsumeTx(context.Background(), tx, 5), ErrOTPUsed)
	require.NoError(t, tx.Rollback())

	assert.NoError(t, mock.ExpectationsWereMet())
}
