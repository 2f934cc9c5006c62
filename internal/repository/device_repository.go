package repository

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"strings"

	"github.com/ecosort/waste-bank/internal/model"
)

// DeviceRepo owns the 'devices' table: registration, the one-way
// deactivation switch and the credential check performed before every
// waste upload.
type DeviceRepo struct{ DB *sql.DB }

func NewDeviceRepo(db *sql.DB) *DeviceRepo { return &DeviceRepo{DB: db} }

var (
	// ErrDeviceExists is returned when registering a device_id that is
	// already taken.  Registration is never treated as idempotent; the
	// existing device's key must not be disclosed or replaced.
	ErrDeviceExists = errors.New("device already registered")
	// ErrDeviceUnauthorized is returned when the presented API key does not
	// match the stored one.
	ErrDeviceUnauthorized = errors.New("invalid device credentials")
)

const deviceCols = "id,device_id,api_key,is_active,created_at"

// Create registers a new device with the given external identifier and API
// key and returns the stored row.  A duplicate device_id surfaces as
// ErrDeviceExists and leaves the existing row untouched.
func (r *DeviceRepo) Create(ctx context.Context, deviceID, apiKey string) (model.Device, error) {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO devices (device_id, api_key, is_active) VALUES (?,?,1)",
		deviceID, apiKey)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return model.Device{}, ErrDeviceExists
		}
		return model.Device{}, err
	}
	return r.GetByDeviceID(ctx, deviceID)
}

// GetByDeviceID fetches a device by its external identifier.
func (r *DeviceRepo) GetByDeviceID(ctx context.Context, deviceID string) (model.Device, error) {
	var d model.Device
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+deviceCols+" FROM devices WHERE device_id=? LIMIT 1", deviceID).
		Scan(&d.ID, &d.DeviceID, &d.APIKey, &d.IsActive, &d.CreatedAt)
	return d, err
}

// Deactivate turns a device off and returns its updated state.  The update
// is tolerated on an already-inactive device but can never flip a device
// back on.  An unknown device_id surfaces as sql.ErrNoRows.
func (r *DeviceRepo) Deactivate(ctx context.Context, deviceID string) (model.Device, error) {
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE devices SET is_active=0 WHERE device_id=?", deviceID); err != nil {
		return model.Device{}, err
	}
	return r.GetByDeviceID(ctx, deviceID)
}

// Authorize validates a device's credentials ahead of an upload.  It
// returns sql.ErrNoRows for an unknown device, ErrDeviceUnauthorized for a
// key mismatch and ErrForbidden for a correct key on a deactivated device.
// The key comparison is constant time.
func (r *DeviceRepo) Authorize(ctx context.Context, deviceID, apiKey string) (model.Device, error) {
	d, err := r.GetByDeviceID(ctx, deviceID)
	if err != nil {
		return model.Device{}, err
	}
	if subtle.ConstantTimeCompare([]byte(d.APIKey), []byte(apiKey)) != 1 {
		return model.Device{}, ErrDeviceUnauthorized
	}
	if !d.IsActive {
		return model.Device{}, ErrForbidden
	}
	return d, nil
}

// ListAll returns every registered device, newest first.
func (r *DeviceRepo) ListAll(ctx context.Context) ([]model.Device, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+deviceCols+" FROM devices ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	devices := make([]model.Device, 0)
	for rows.Next() {
		var d model.Device
		if err := rows.Scan(&d.ID, &d.DeviceID, &d.APIKey, &d.IsActive, &d.CreatedAt); err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

// Count returns the number of registered devices.
func (r *DeviceRepo) Count(ctx context.Context) (uint64, error) {
	var n uint64
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM devices").Scan(&n)
	return n, err
}
