package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinic-api/internal/api/handler"
	"github.com/clinicore/clinic-api/internal/core/domain"
)

// RBAC admits only principals whose role is in allowedRoles. It must run
// after Auth.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := append([]domain.Role(nil), allowedRoles...)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, err := handler.PrincipalFrom(c)
			if err != nil {
				return err
			}
			if !domain.RoleAllowed(allowed, p.Role) {
				return echo.NewHTTPError(http.StatusForbidden, "access forbidden")
			}
			return next(c)
		}
	}
}
