package middleware

// identity.go holds helpers shared across middleware files for pulling the
// authenticated identity out of the Echo context.

import (
	"github.com/labstack/echo/v4"
)

// currentUserID returns the authenticated user's ID, or "anon" for
// unauthenticated requests.  JWTAuth stores the ID under "user_id".
func currentUserID(c echo.Context) string {
	if v := c.Get("user_id"); v != nil {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return "anon"
}
