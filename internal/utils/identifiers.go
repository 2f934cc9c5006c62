package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// GenerateQRCode returns a fresh scan token for a normal_user account in
// the form "USER_XXXXXXXX" where X is an upper-case hex digit.  The token
// is what scanning devices submit to resolve a user's identity, so it must
// be unique; the users.qr_code column carries a unique index and callers
// retry on the (vanishingly unlikely) collision.
func GenerateQRCode() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "USER_" + id[:8]
}

// GenerateDeviceKey returns a fresh API key for a scanning device in the
// form "DEV_" followed by 32 upper-case hex digits.  The key is shown once
// in the registration response and never again.
func GenerateDeviceKey() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "DEV_" + id
}

// GenerateOTPCode returns a fixed-width 4-digit numeric passcode in the
// range 1000-9999, drawn from crypto/rand.
func GenerateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", n.Int64()+1000), nil
}
