package model

import "time"

// Device describes a field scanning endpoint registered in the `devices`
// table.  Devices authenticate waste uploads with the API key issued at
// registration; the key is returned exactly once in the registration
// response and is not retrievable afterwards.
//
// Fields:
//  ID        – primary key identifier.
//  DeviceID  – externally chosen unique identifier (e.g. "SCANNER-001").
//  APIKey    – opaque credential proving the device's authenticity.
//  IsActive  – whether the device may submit uploads.  Deactivation is
//              terminal; there is no reactivation path.
//  CreatedAt – registration timestamp.
type Device struct {
	ID        uint64    // devices.id
	DeviceID  string    // devices.device_id
	APIKey    string    // devices.api_key
	IsActive  bool      // devices.is_active
	CreatedAt time.Time // devices.created_at
}
