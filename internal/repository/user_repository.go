package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/ecosort/waste-bank/internal/model"
	"github.com/ecosort/waste-bank/internal/utils"
)

// UserRepo owns the 'users' table: account creation, lookups by the three
// unique keys (email, phone, QR code), verification flips and the atomic
// reward-balance increment used by the intake transaction.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var (
	// ErrEmailExists is returned when the email unique index rejects an insert.
	ErrEmailExists = errors.New("email already exists")
	// ErrPhoneExists is returned when the phone unique index rejects an insert.
	ErrPhoneExists = errors.New("phone already exists")
)

const userCols = "id,name,email,phone_no,password_hash,role,qr_code,rewards,is_email_verified,created_at,updated_at"

// Create inserts a new user and returns the stored row.  Email is
// normalized to lower case.  A QR code is generated iff the role is
// normal_user; buyers and admins never carry one.  Admin rows are created
// already verified.  Duplicate email/phone surface as ErrEmailExists /
// ErrPhoneExists; a QR collision is retried with a fresh code.
func (r *UserRepo) Create(ctx context.Context, name, email, phone, password string, role model.Role, cost int) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return model.User{}, err
	}
	verified := role == model.RoleAdmin
	for attempt := 0; ; attempt++ {
		var qr interface{}
		if role == model.RoleNormalUser {
			qr = utils.GenerateQRCode()
		}
		res, err := r.DB.ExecContext(ctx,
			"INSERT INTO users (name, email, phone_no, password_hash, role, qr_code, rewards, is_email_verified) VALUES (?,?,?,?,?,?,0,?)",
			name, email, phone, hash, string(role), qr, verified)
		if err != nil {
			msg := strings.ToLower(err.Error())
			if strings.Contains(msg, "1062") {
				switch {
				case strings.Contains(msg, "email"):
					return model.User{}, ErrEmailExists
				case strings.Contains(msg, "phone"):
					return model.User{}, ErrPhoneExists
				case strings.Contains(msg, "qr_code") && attempt < 3:
					continue // collision on the generated code, try another
				}
			}
			return model.User{}, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return model.User{}, err
		}
		return r.GetByID(ctx, uint64(id))
	}
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE id=? LIMIT 1", id))
}

// GetByQRCode resolves the user a scanning device saw.  Returns
// sql.ErrNoRows when no account owns the code.
func (r *UserRepo) GetByQRCode(ctx context.Context, qr string) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE qr_code=? LIMIT 1", strings.TrimSpace(qr)))
}

// MarkVerifiedTx flips is_email_verified inside an existing transaction.
// The statement is a no-op when the flag is already set, which makes
// re-verification idempotent at the user level.
func (r *UserRepo) MarkVerifiedTx(ctx context.Context, tx *sql.Tx, userID uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE users SET is_email_verified=1 WHERE id=?", userID)
	return err
}

// IncrementRewardsTx adds delta points to the user's balance inside an
// existing transaction.  The increment happens in SQL, never as a
// load-modify-store in Go, so concurrent intake transactions for the same
// user can never lose an update.
func (r *UserRepo) IncrementRewardsTx(ctx context.Context, tx *sql.Tx, userID, delta uint64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE users SET rewards = rewards + ? WHERE id=?", delta, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// BalanceTx reads the reward balance inside an existing transaction.  The
// intake handler calls it after IncrementRewardsTx so the response carries
// the balance the commit produces rather than a stale pre-transaction read.
func (r *UserRepo) BalanceTx(ctx context.Context, tx *sql.Tx, userID uint64) (uint64, error) {
	var n uint64
	err := tx.QueryRowContext(ctx,
		"SELECT rewards FROM users WHERE id=?", userID).Scan(&n)
	return n, err
}

// Delete removes a non-admin user together with every dependent row (OTP
// records, waste records, reward entries, refresh tokens) in one
// transaction.  Deleting an admin fails with ErrConflict; an unknown id
// fails with sql.ErrNoRows.  Waste records reference devices only weakly,
// so devices are untouched.
func (r *UserRepo) Delete(ctx context.Context, userID uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	var role string
	if err := tx.QueryRowContext(ctx,
		"SELECT role FROM users WHERE id=? FOR UPDATE", userID).Scan(&role); err != nil {
		return err
	}
	if model.Role(role) == model.RoleAdmin {
		return ErrConflict
	}
	for _, q := range []string{
		"DELETE FROM otp_verifications WHERE user_id=?",
		"DELETE FROM rewards WHERE user_id=?",
		"DELETE FROM waste_data WHERE user_id=?",
		"DELETE FROM refresh_tokens WHERE user_id=?",
		"DELETE FROM users WHERE id=?",
	} {
		if _, err := tx.ExecContext(ctx, q, userID); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ListAll returns every user ordered by creation time descending.
func (r *UserRepo) ListAll(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userCols+" FROM users ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := make([]model.User, 0)
	for rows.Next() {
		u, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CountByRole returns the number of accounts carrying the given role.
func (r *UserRepo) CountByRole(ctx context.Context, role model.Role) (uint64, error) {
	var n uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE role=?", string(role)).Scan(&n)
	return n, err
}

type rowScanner interface{ Scan(dest ...interface{}) error }

func (r *UserRepo) scanOne(row *sql.Row) (model.User, error) { return r.scanRow(row) }

func (r *UserRepo) scanRow(s rowScanner) (model.User, error) {
	var (
		u    model.User
		role string
		qr   sql.NullString
	)
	err := s.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &role,
		&qr, &u.Rewards, &u.IsEmailVerified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	u.Role = model.Role(role)
	if qr.Valid {
		code := qr.String
		u.QRCode = &code
	}
	return u, nil
}
