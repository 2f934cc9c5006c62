package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecosort/waste-bank/internal/model"
	"github.com/ecosort/waste-bank/internal/utils"
)

const testSecret = "unit-test-secret"

func runJWT(t *testing.T, authHeader string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var captured echo.Context
	h := JWTAuth(testSecret)(func(c echo.Context) error {
		captured = c
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return rec, captured
}

func TestJWTAuth_MissingHeader(t *testing.T) {
	rec, captured := runJWT(t, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, captured)
}

func TestJWTAuth_MalformedToken(t *testing.T) {
	rec, captured := runJWT(t, "Bearer not.a.jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, captured)
}

func TestJWTAuth_WrongSecret(t *testing.T) {
	at, err := utils.NewAccessToken("another-secret", 7, model.RoleBuyer, "b@x.test", 5)
	require.NoError(t, err)

	rec, captured := runJWT(t, "Bearer "+at.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, captured)
}

func TestJWTAuth_ValidTokenSetsClaims(t *testing.T) {
	at, err := utils.NewAccessToken(testSecret, 7, model.RoleBuyer, "b@x.test", 5)
	require.NoError(t, err)

	rec, captured := runJWT(t, "Bearer "+at.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)

	assert.Equal(t, float64(7), captured.Get("user_id"))
	assert.Equal(t, "buyer", captured.Get("role"))
	assert.Equal(t, "b@x.test", captured.Get("email"))
}
