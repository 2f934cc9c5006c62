// Package queue defines message payloads exchanged over the message broker.
package queue

// OTPEmailEvent is published after an OTP record has been committed.  The
// delivery worker consumes it and sends (or logs) the verification email.
// Keeping delivery out of the issuing transaction means a slow or failing
// mail server can never hold a database transaction open or roll back an
// already-issued code.
type OTPEmailEvent struct {
	UserID    uint64 `json:"user_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Code      string `json:"code"`
	ExpiresAt string `json:"expires_at"`
	IssuedAt  string `json:"issued_at"`
}

// WasteRecordedEvent is published when an intake transaction commits.  It
// carries enough information for downstream consumers to log, notify or
// feed analytics without querying the primary database.
type WasteRecordedEvent struct {
	WasteID          uint64  `json:"waste_id"`
	UserID           uint64  `json:"user_id"`
	DeviceID         string  `json:"device_id"`
	OrganicWeight    float64 `json:"organic_weight"`
	RecyclableWeight float64 `json:"recyclable_weight"`
	HazardousWeight  float64 `json:"hazardous_weight"`
	PointsAwarded    uint64  `json:"points_awarded"`
	RecordedAt       string  `json:"recorded_at"`
}
