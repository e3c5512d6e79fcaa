package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/findmytutor/findmytutor/core"
	"github.com/findmytutor/findmytutor/core/admin"
)

// adminGate guards mutating endpoints with a valid admin JWT.
// It lets every request through when conf.Server.EnforceAdminAuth is off.
func adminGate(conf *core.Config, jwtConfig middleware.JWTConfig) echo.MiddlewareFunc {
	if !conf.Server.EnforceAdminAuth {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	jwt := middleware.JWTWithConfig(jwtConfig)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return jwt(adminMiddleware(next))
	}
}

func adminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context claims")
		}
		if claims.Role == admin.Role {
			return next(ctx)
		}
		return errHttpForbidden
	}
}
