package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/clinicore/clinic-api/internal/core/domain"
)

func TestHTTPErrorHandler_StatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
		body string
	}{
		{domain.ErrDuplicateEmail, http.StatusBadRequest, `{"error":"email already registered"}`},
		{domain.ErrInvalidToken, http.StatusBadRequest, `{"error":"invalid invitation token"}`},
		{domain.ErrInvitationAlreadyUsed, http.StatusBadRequest, `{"error":"invitation already used"}`},
		{domain.ErrInvitationExpired, http.StatusForbidden, `{"error":"invitation expired"}`},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized, `{"error":"invalid credentials"}`},
		{domain.ErrUnauthenticated, http.StatusUnauthorized, `{"error":"unauthenticated"}`},
		{domain.ErrForbidden, http.StatusForbidden, `{"error":"access forbidden"}`},
		{domain.ErrInvalidRole, http.StatusBadRequest, `{"error":"invalid role"}`},
		{fmt.Errorf("%w: password must be at least 8 characters", domain.ErrValidation), http.StatusBadRequest, `{"error":"password must be at least 8 characters"}`},
		{echo.NewHTTPError(http.StatusUnauthorized, "invalid token"), http.StatusUnauthorized, `{"error":"invalid token"}`},
		{errors.New("pq: connection reset by peer"), http.StatusInternalServerError, `{"error":"internal server error"}`},
	}

	h := NewHTTPErrorHandler(zerolog.Nop())
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			h(tc.err, c)

			assert.Equal(t, tc.code, rec.Code)
			assert.JSONEq(t, tc.body, rec.Body.String())
		})
	}
}

func TestHTTPErrorHandler_WrappedDomainError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/invitations/accept", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewHTTPErrorHandler(zerolog.Nop())(fmt.Errorf("accept invitation: %w", domain.ErrInvitationExpired), c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
