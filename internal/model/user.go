package model

import "time"

// Role enumerates the closed set of account roles.  Gating logic switches
// over these constants rather than comparing free-form strings, so an
// unknown role can never slip through a permission check.
type Role string

const (
	RoleNormalUser Role = "normal_user" // owns a QR code, submits waste, earns rewards
	RoleBuyer      Role = "buyer"       // read-only access to recyclable aggregates
	RoleAdmin      Role = "admin"       // full user/device management, cannot be deleted
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleNormalUser, RoleBuyer, RoleAdmin:
		return true
	}
	return false
}

// CanRegister reports whether accounts with this role may self-register.
// Admin accounts are provisioned out of band and are never created through
// the public registration endpoint.
func (r Role) CanRegister() bool {
	return r == RoleNormalUser || r == RoleBuyer
}

// User represents an application user record as stored in the `users`
// table.  Each field corresponds to a column in the database.  The json
// tags are omitted here because these structs are primarily used internally
// by the repository layer; handlers define separate response types with
// appropriate JSON tags.
//
// Fields:
//  ID              – primary key identifier of the user.
//  Name            – display name.
//  Email           – unique email address.
//  Phone           – unique phone number.
//  PasswordHash    – bcrypt hashed password.
//  Role            – account role (normal_user, buyer, admin).
//  QRCode          – unique scan token; set iff the role is normal_user.
//  Rewards         – running reward-point balance; always equals the sum of
//                    the user's reward ledger entries.
//  IsEmailVerified – whether the address passed OTP verification.  Flips
//                    exactly once; admin accounts are created verified.
//  CreatedAt       – timestamp of creation.
//  UpdatedAt       – timestamp of last update.
type User struct {
	ID              uint64    // users.id
	Name            string    // users.name
	Email           string    // users.email
	Phone           string    // users.phone_no
	PasswordHash    string    // users.password_hash
	Role            Role      // users.role
	QRCode          *string   // users.qr_code (nullable; nil for buyer/admin)
	Rewards         uint64    // users.rewards
	IsEmailVerified bool      // users.is_email_verified
	CreatedAt       time.Time // users.created_at
	UpdatedAt       time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each refresh
// token belongs to a user and contains metadata for expiry and revocation.
// The plain token is not stored; only its SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
