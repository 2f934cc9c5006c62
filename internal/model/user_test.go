package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleNormalUser.Valid())
	assert.True(t, RoleBuyer.Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("").Valid())
	assert.False(t, Role("superuser").Valid())
	assert.False(t, Role("ADMIN").Valid())
}

func TestRole_CanRegister(t *testing.T) {
	assert.True(t, RoleNormalUser.CanRegister())
	assert.True(t, RoleBuyer.CanRegister())
	assert.False(t, RoleAdmin.CanRegister())
	assert.False(t, Role("superuser").CanRegister())
}

func TestOTPVerification_Expired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	o := OTPVerification{ExpiresAt: now.Add(10 * time.Minute)}

	assert.False(t, o.Expired(now))
	assert.False(t, o.Expired(now.Add(10*time.Minute-time.Second)))
	// Expiry is inclusive at the boundary instant.
	assert.True(t, o.Expired(now.Add(10*time.Minute)))
	assert.True(t, o.Expired(now.Add(time.Hour)))
}
