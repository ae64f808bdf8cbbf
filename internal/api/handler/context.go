package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinic-api/internal/core/domain"
)

const principalKey = "principal"

// SetPrincipal stores the verified principal for downstream handlers.
func SetPrincipal(c echo.Context, p domain.Principal) {
	c.Set(principalKey, p)
}

// PrincipalFrom extracts the principal injected by the Auth middleware and
// fails fast when the middleware did not run:
//   - a missing value means the route is not behind Auth.
//   - an empty clinic id makes the token unusable for tenant-scoped work.
func PrincipalFrom(c echo.Context) (domain.Principal, error) {
	p, ok := c.Get(principalKey).(domain.Principal)
	if !ok || p.SubjectID == "" {
		return domain.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	if p.ClinicID == "" {
		return domain.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "token missing clinic identity")
	}
	return p, nil
}
