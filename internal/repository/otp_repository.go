package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ecosort/waste-bank/internal/model"
)

// OTPRepo owns the 'otp_verifications' table.  Issuance and verification
// are multi-statement units; the handler opens the transaction and calls
// the *Tx methods so that invalidation, insertion and the user's
// verification flip commit or abort together.
type OTPRepo struct{ db *sql.DB }

func NewOTPRepo(db *sql.DB) *OTPRepo { return &OTPRepo{db: db} }

// DB exposes the underlying handle so handlers can begin transactions that
// span the OTP and user repositories.
func (r *OTPRepo) DB() *sql.DB { return r.db }

var (
	// ErrOTPUsed is returned when the submitted code was already consumed,
	// either by a successful verification or by a newer issuance
	// superseding it.
	ErrOTPUsed = errors.New("otp already used")
	// ErrOTPExpired is returned when the code matches but its validity
	// window has passed.
	ErrOTPExpired = errors.New("otp expired")
	// ErrOTPInvalid is returned when no record matches the submitted code.
	ErrOTPInvalid = errors.New("invalid otp code")
)

const otpCols = "id,user_id,email,otp_code,is_used,expires_at,created_at"

// InvalidateActiveTx marks every unused code owned by the user as used.
// Called in the same transaction as CreateTx so a racing verification can
// never observe two simultaneously valid codes.
func (r *OTPRepo) InvalidateActiveTx(ctx context.Context, tx *sql.Tx, userID uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE otp_verifications SET is_used=1 WHERE user_id=? AND is_used=0", userID)
	return err
}

// CreateTx inserts a fresh verification record and populates its ID.
func (r *OTPRepo) CreateTx(ctx context.Context, tx *sql.Tx, rec *model.OTPVerification) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO otp_verifications (user_id, email, otp_code, is_used, expires_at) VALUES (?,?,?,0,?)",
		rec.UserID, rec.Email, rec.Code, rec.ExpiresAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = uint64(id)
	return nil
}

// FindLatestByCode returns the most recent record matching user, email and
// code.  sql.ErrNoRows means the code never existed for this user; the
// caller distinguishes used and expired states from the returned record.
func (r *OTPRepo) FindLatestByCode(ctx context.Context, userID uint64, email, code string) (model.OTPVerification, error) {
	var (
		o    model.OTPVerification
		used bool
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT "+otpCols+" FROM otp_verifications WHERE user_id=? AND email=? AND otp_code=? ORDER BY id DESC LIMIT 1",
		userID, email, code).
		Scan(&o.ID, &o.UserID, &o.Email, &o.Code, &used, &o.ExpiresAt, &o.CreatedAt)
	if err != nil {
		return model.OTPVerification{}, err
	}
	o.IsUsed = used
	return o, nil
}

// ConsumeTx marks a specific record as used inside an existing transaction.
// The guarded WHERE clause makes consumption race-safe: when two
// verifications race for the same code, exactly one sees an affected row
// and the loser gets ErrOTPUsed.
func (r *OTPRepo) ConsumeTx(ctx context.Context, tx *sql.Tx, otpID uint64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE otp_verifications SET is_used=1 WHERE id=? AND is_used=0", otpID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrOTPUsed
	}
	return nil
}

// Classify maps a found-but-unusable record to the error the caller should
// surface: used beats expired, matching the order the states were entered.
func Classify(o model.OTPVerification, now time.Time) error {
	if o.IsUsed {
		return ErrOTPUsed
	}
	if o.Expired(now) {
		return ErrOTPExpired
	}
	return nil
}
