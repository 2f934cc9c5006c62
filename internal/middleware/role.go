package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ecosort/waste-bank/internal/model"
)

// RequireRole returns a middleware that enforces that the authenticated
// user carries one of the specified roles.  Roles come from the closed
// model.Role set, so a typo in a route registration fails to compile
// instead of silently never matching.  It assumes JWTAuth has already
// stored the "role" claim in the context; a missing or unknown role is
// rejected with 403.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			v := c.Get("role")
			s, ok := v.(string)
			if !ok {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			role := model.Role(s)
			if !role.Valid() || !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
