package model

import "time"

// OTPVerification represents one email verification attempt stored in the
// `otp_verifications` table.  At most one record per user may be unused and
// unexpired at any time: issuing a new code marks every prior unused record
// as used in the same transaction that inserts the fresh one.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the verification attempt.
//  Email     – address the code was sent to, denormalized at issuance time.
//  Code      – the 4-digit numeric passcode.
//  IsUsed    – set once on successful verification or on supersession.
//  ExpiresAt – absolute expiry; checked lazily at verification time.
//  CreatedAt – when the code was issued.
type OTPVerification struct {
	ID        uint64    // otp_verifications.id
	UserID    uint64    // otp_verifications.user_id
	Email     string    // otp_verifications.email
	Code      string    // otp_verifications.otp_code
	IsUsed    bool      // otp_verifications.is_used
	ExpiresAt time.Time // otp_verifications.expires_at
	CreatedAt time.Time // otp_verifications.created_at
}

// Expired reports whether the code is past its expiry at the given instant.
func (o OTPVerification) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}
