package model

import "time"

// WasteRecord is one intake event from a scanning device, stored in the
// `waste_data` table.  Records are immutable once written and are only
// removed when their owning user is deleted.  The device reference is weak:
// a record outlives a later-deactivated device.
//
// Fields:
//  ID               – primary key identifier.
//  UserID           – user whose QR code was scanned.
//  DeviceID         – numeric id of the submitting device.
//  OrganicWeight    – organic waste in kg (>= 0).
//  RecyclableWeight – recyclable waste in kg (>= 0).
//  HazardousWeight  – hazardous waste in kg (>= 0).
//  CreatedAt        – server-assigned submission timestamp.
type WasteRecord struct {
	ID               uint64    // waste_data.id
	UserID           uint64    // waste_data.user_id
	DeviceID         uint64    // waste_data.device_id
	OrganicWeight    float64   // waste_data.organic_weight
	RecyclableWeight float64   // waste_data.recyclable_weight
	HazardousWeight  float64   // waste_data.hazardous_weight
	CreatedAt        time.Time // waste_data.created_at
}
