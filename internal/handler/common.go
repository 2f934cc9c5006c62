package handler

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
)

// errNoIdentity is returned by getUserID when the context carries no
// usable subject claim.
var errNoIdentity = errors.New("no authenticated user in context")

// getUserID extracts the authenticated user's ID from the context, where
// JWTAuth stored the token's subject claim.  JWT numeric claims decode as
// float64; string subjects are parsed for tolerance of other issuers.
func getUserID(c echo.Context) (uint64, error) {
	switch v := c.Get("user_id").(type) {
	case float64:
		return uint64(v), nil
	case string:
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			return id, nil
		}
	}
	return 0, errNoIdentity
}
