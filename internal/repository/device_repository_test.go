package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const selectDeviceSQL = "SELECT id,device_id,api_key,is_active,created_at FROM devices WHERE device_id=? LIMIT 1"

func deviceRow(id int64, deviceID, apiKey string, active bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "device_id", "api_key", "is_active", "created_at"}).
		AddRow(id, deviceID, apiKey, active, time.Now().UTC())
}

func TestDeviceCreate_DuplicateLeavesExistingUntouched(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDeviceRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO devices (device_id, api_key, is_active) VALUES (?,?,1)")).
		WithArgs("SCANNER-001", "DEV_NEWKEY").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'SCANNER-001' for key 'devices.device_id'"))

	_, err := repo.Create(context.Background(), "SCANNER-001", "DEV_NEWKEY")
	assert.ErrorIs(t, err, ErrDeviceExists)
	// No further statement ran, so the stored credential was neither
	// replaced nor read back for disclosure.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceAuthorize_UnknownDevice(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDeviceRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(selectDeviceSQL)).
		WithArgs("GHOST").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Authorize(context.Background(), "GHOST", "DEV_KEY")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestDeviceAuthorize_WrongKey(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDeviceRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(selectDeviceSQL)).
		WithArgs("SCANNER-001").
		WillReturnRows(deviceRow(1, "SCANNER-001", "DEV_RIGHT", true))

	_, err := repo.Authorize(context.Background(), "SCANNER-001", "DEV_WRONG")
	assert.ErrorIs(t, err, ErrDeviceUnauthorized)
}

func TestDeviceAuthorize_InactiveDevice(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDeviceRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(selectDeviceSQL)).
		WithArgs("SCANNER-001").
		WillReturnRows(deviceRow(1, "SCANNER-001", "DEV_RIGHT", false))

	// A correct key on a deactivated device is forbidden, not unauthorized.
	_, err := repo.Authorize(context.Background(), "SCANNER-001", "DEV_RIGHT")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestDeviceDeactivate_NeverReactivates(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDeviceRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE devices SET is_active=0 WHERE device_id=?")).
		WithArgs("SCANNER-001").
		WillReturnResult(sqlmock.NewResult(0, 0)) // already inactive
	mock.ExpectQuery(regexp.QuoteMeta(selectDeviceSQL)).
		WithArgs("SCANNER-001").
		WillReturnRows(deviceRow(1, "SCANNER-001", "DEV_KEY", false))

	d, err := repo.Deactivate(context.Background(), "SCANNER-001")
	require.NoError(t, err)
	assert.False(t, d.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}
