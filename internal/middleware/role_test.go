package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecosort/waste-bank/internal/model"
)

func runRole(t *testing.T, role interface{}, allowed ...model.Role) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != nil {
		c.Set("role", role)
	}
	h := RequireRole(allowed...)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return rec
}

func TestRequireRole_Allows(t *testing.T) {
	rec := runRole(t, "admin", model.RoleAdmin)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRole_AllowsAnyListed(t *testing.T) {
	rec := runRole(t, "buyer", model.RoleBuyer, model.RoleAdmin)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRole_RejectsOtherRole(t *testing.T) {
	rec := runRole(t, "normal_user", model.RoleAdmin)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRole_RejectsUnknownRole(t *testing.T) {
	rec := runRole(t, "superuser", model.RoleAdmin, model.RoleBuyer, model.RoleNormalUser)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRole_RejectsMissingRole(t *testing.T) {
	rec := runRole(t, nil, model.RoleAdmin)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
