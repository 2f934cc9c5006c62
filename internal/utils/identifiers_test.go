package utils

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateQRCode_Format(t *testing.T) {
	code := GenerateQRCode()

	require.True(t, strings.HasPrefix(code, "USER_"), "got %q", code)
	suffix := strings.TrimPrefix(code, "USER_")
	assert.Len(t, suffix, 8)
	assert.Equal(t, strings.ToUpper(suffix), suffix)
	for _, r := range suffix {
		assert.Contains(t, "0123456789ABCDEF", string(r))
	}
}

func TestGenerateQRCode_Unique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		code := GenerateQRCode()
		assert.False(t, seen[code], "duplicate %q", code)
		seen[code] = true
	}
}

func TestGenerateDeviceKey_Format(t *testing.T) {
	key := GenerateDeviceKey()

	require.True(t, strings.HasPrefix(key, "DEV_"), "got %q", key)
	suffix := strings.TrimPrefix(key, "DEV_")
	assert.Len(t, suffix, 32)
	assert.Equal(t, strings.ToUpper(suffix), suffix)
}

func TestGenerateOTPCode_Range(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := GenerateOTPCode()
		require.NoError(t, err)
		require.Len(t, code, 4)
		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 1000)
		assert.LessOrEqual(t, n, 9999)
	}
}
