package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinic-api/internal/api/handler"
	"github.com/clinicore/clinic-api/internal/core/domain"
	"github.com/clinicore/clinic-api/internal/pkg/security"
)

var testSigner = security.NewJWTSigner("secret", time.Hour)

func runAuth(t *testing.T, header string, next echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := Auth(testSigner)(next)(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func mustNotReach(t *testing.T) echo.HandlerFunc {
	return func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	want := domain.Principal{
		SubjectID: "user_1",
		ClinicID:  "clinic_1",
		Role:      domain.RoleAdmin,
		Email:     "admin@x.com",
		FullName:  "Admin",
	}
	tok, err := testSigner.Sign(want)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	called := false
	rec := runAuth(t, "Bearer "+tok.Token, func(c echo.Context) error {
		called = true
		got, err := handler.PrincipalFrom(c)
		if err != nil {
			t.Fatalf("principal not set: %v", err)
		}
		if got != want {
			t.Fatalf("unexpected principal: %+v", got)
		}
		return c.NoContent(http.StatusOK)
	})

	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	if rec := runAuth(t, "", mustNotReach(t)); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_InvalidHeaderFormat(t *testing.T) {
	if rec := runAuth(t, "Token abc", mustNotReach(t)); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	if rec := runAuth(t, "Bearer not-a-token", mustNotReach(t)); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	past := security.NewJWTSigner("secret", time.Hour, security.WithClock(func() time.Time {
		return time.Now().Add(-2 * time.Hour)
	}))
	tok, err := past.Sign(domain.Principal{SubjectID: "u", ClinicID: "c", Role: domain.RoleOwner})
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if rec := runAuth(t, "Bearer "+tok.Token, mustNotReach(t)); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_ForeignSignature(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":       "user_1",
		"clinic_id": "clinic_1",
		"role":      "OWNER",
		"iss":       security.DefaultIssuer,
		"exp":       time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("another-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if rec := runAuth(t, "Bearer "+signed, mustNotReach(t)); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
