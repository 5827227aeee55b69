package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireRole lets a request through only when the role claim stored by
// JWTAuth is one of roles.  Verified actions credit points, so denials are
// logged with the token subject.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(ctxRole).(string)
			if _, ok := allowed[role]; !ok {
				c.Logger().Warnf("role: %s denied %s %s (role=%q)", subject(c), c.Request().Method, c.Path(), role)
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
