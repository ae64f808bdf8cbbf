package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinic-api/internal/core/domain"
	"github.com/clinicore/clinic-api/internal/core/ports"
)

type stubAuthService struct {
	signupFn  func(ctx context.Context, in ports.SignupInput) (*ports.AuthResult, error)
	loginFn   func(ctx context.Context, email, password string) (*ports.AuthResult, error)
	inviteFn  func(ctx context.Context, in ports.InviteStaffInput) (*ports.InvitationResult, error)
	acceptFn  func(ctx context.Context, in ports.AcceptInvitationInput) (*ports.AuthResult, error)
	previewFn func(ctx context.Context, token string) (*ports.InvitationPreview, error)
	meFn      func(ctx context.Context, p domain.Principal) (*domain.User, error)
}

func (s *stubAuthService) Signup(ctx context.Context, in ports.SignupInput) (*ports.AuthResult, error) {
	return s.signupFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) InviteStaff(ctx context.Context, in ports.InviteStaffInput) (*ports.InvitationResult, error) {
	return s.inviteFn(ctx, in)
}

func (s *stubAuthService) AcceptInvitation(ctx context.Context, in ports.AcceptInvitationInput) (*ports.AuthResult, error) {
	return s.acceptFn(ctx, in)
}

func (s *stubAuthService) PreviewInvitation(ctx context.Context, token string) (*ports.InvitationPreview, error) {
	return s.previewFn(ctx, token)
}

func (s *stubAuthService) Me(ctx context.Context, p domain.Principal) (*domain.User, error) {
	return s.meFn(ctx, p)
}

var ownerPrincipal = domain.Principal{
	SubjectID: "user_1",
	ClinicID:  "clinic_1",
	Role:      domain.RoleOwner,
	Email:     "owner@x.com",
	FullName:  "Owner",
}

func newTestContext(method, target, body string) (*echo.Echo, echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e, e.NewContext(req, rec), rec
}

func expectHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	if he.Code != code {
		t.Fatalf("expected %d, got %d (%v)", code, he.Code, he.Message)
	}
}

func TestAuthHandler_Signup_Success(t *testing.T) {
	stub := &stubAuthService{
		signupFn: func(ctx context.Context, in ports.SignupInput) (*ports.AuthResult, error) {
			if in.ClinicName != "Demo Clinic" || in.OwnerEmail != "owner@x.com" || in.OwnerName != "Owner" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &ports.AuthResult{AccessToken: "tok", ExpiresAt: time.Now().Add(time.Hour), User: ownerPrincipal}, nil
		},
	}
	h := NewAuthHandler(stub)

	_, c, rec := newTestContext(http.MethodPost, "/auth/signup",
		`{"clinic_name":"Demo Clinic","owner_email":"owner@x.com","owner_name":"Owner","password":"password1"}`)

	if err := h.Signup(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["access_token"] != "tok" || resp["token_type"] != "Bearer" {
		t.Fatalf("unexpected token payload: %+v", resp)
	}
	user, ok := resp["user"].(map[string]any)
	if !ok || user["role"] != "OWNER" || user["clinic_id"] != "clinic_1" || user["id"] != "user_1" {
		t.Fatalf("unexpected user payload: %+v", resp["user"])
	}
}

func TestAuthHandler_Signup_ValidationFailure(t *testing.T) {
	stub := &stubAuthService{
		signupFn: func(ctx context.Context, in ports.SignupInput) (*ports.AuthResult, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewAuthHandler(stub)

	_, c, _ := newTestContext(http.MethodPost, "/auth/signup",
		`{"clinic_name":"Demo","owner_email":"not-an-email","owner_name":"Owner","password":"short"}`)

	err := h.Signup(c)
	expectHTTPError(t, err, http.StatusBadRequest)
	msg := err.(*echo.HTTPError).Message.(string)
	if !strings.Contains(msg, "owner_email must be a valid email") || !strings.Contains(msg, "password must be at least 8") {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestAuthHandler_Signup_DuplicateEmail(t *testing.T) {
	stub := &stubAuthService{
		signupFn: func(ctx context.Context, in ports.SignupInput) (*ports.AuthResult, error) {
			return nil, domain.ErrDuplicateEmail
		},
	}
	h := NewAuthHandler(stub)

	_, c, _ := newTestContext(http.MethodPost, "/auth/signup",
		`{"clinic_name":"Demo","owner_email":"owner@x.com","owner_name":"Owner","password":"password1"}`)

	if err := h.Signup(c); !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (*ports.AuthResult, error) {
			if email != "owner@x.com" || password != "password1" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return &ports.AuthResult{AccessToken: "tok", User: ownerPrincipal}, nil
		},
	}
	h := NewAuthHandler(stub)

	_, c, rec := newTestContext(http.MethodPost, "/auth/login", `{"email":"owner@x.com","password":"password1"}`)

	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (*ports.AuthResult, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	h := NewAuthHandler(stub)

	_, c, _ := newTestContext(http.MethodPost, "/auth/login", `{"email":"owner@x.com","password":"bad"}`)

	if err := h.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthHandler_Login_EmptyFieldsReachService(t *testing.T) {
	called := false
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (*ports.AuthResult, error) {
			called = true
			if email != "" || password != "" {
				t.Fatalf("unexpected args: %q %q", email, password)
			}
			return nil, domain.ErrInvalidCredentials
		},
	}
	h := NewAuthHandler(stub)

	_, c, _ := newTestContext(http.MethodPost, "/auth/login", `{"email":"","password":""}`)

	if err := h.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if !called {
		t.Fatal("service was not called")
	}
}

func TestAuthHandler_Login_InvalidPayload(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (*ports.AuthResult, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewAuthHandler(stub)

	_, c, _ := newTestContext(http.MethodPost, "/auth/login", "{")

	expectHTTPError(t, h.Login(c), http.StatusBadRequest)
}

func TestAuthHandler_InviteStaff_UsesSessionTenant(t *testing.T) {
	expires := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	stub := &stubAuthService{
		inviteFn: func(ctx context.Context, in ports.InviteStaffInput) (*ports.InvitationResult, error) {
			if in.ClinicID != "clinic_1" || in.CreatorID != "user_1" {
				t.Fatalf("tenant must come from the session: %+v", in)
			}
			if in.Email != "staff@x.com" || in.Role != "ADMIN" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &ports.InvitationResult{InvitationID: "inv_1", Token: "t0k3n", ExpiresAt: expires}, nil
		},
	}
	h := NewAuthHandler(stub)

	_, c, rec := newTestContext(http.MethodPost, "/auth/invitations",
		`{"email":"staff@x.com","role":"ADMIN","clinic_id":"someone-elses"}`)
	SetPrincipal(c, ownerPrincipal)

	if err := h.InviteStaff(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["invitation_id"] != "inv_1" || resp["token"] != "t0k3n" || resp["expires_at"] != "2026-03-04T09:00:00Z" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestAuthHandler_InviteStaff_NoPrincipal(t *testing.T) {
	stub := &stubAuthService{
		inviteFn: func(ctx context.Context, in ports.InviteStaffInput) (*ports.InvitationResult, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewAuthHandler(stub)

	_, c, _ := newTestContext(http.MethodPost, "/auth/invitations", `{"email":"staff@x.com","role":"ADMIN"}`)

	expectHTTPError(t, h.InviteStaff(c), http.StatusUnauthorized)
}

func TestAuthHandler_AcceptInvitation_Errors(t *testing.T) {
	for _, want := range []error{
		domain.ErrInvalidToken,
		domain.ErrInvitationAlreadyUsed,
		domain.ErrInvitationExpired,
	} {
		stub := &stubAuthService{
			acceptFn: func(ctx context.Context, in ports.AcceptInvitationInput) (*ports.AuthResult, error) {
				return nil, want
			},
		}
		h := NewAuthHandler(stub)

		_, c, _ := newTestContext(http.MethodPost, "/auth/invitations/accept",
			`{"token":"abc","full_name":"Staff","password":"password1"}`)

		if err := h.AcceptInvitation(c); !errors.Is(err, want) {
			t.Fatalf("expected %v, got %v", want, err)
		}
	}
}

func TestAuthHandler_AcceptInvitation_Success(t *testing.T) {
	stub := &stubAuthService{
		acceptFn: func(ctx context.Context, in ports.AcceptInvitationInput) (*ports.AuthResult, error) {
			if in.Token != "abc" || in.FullName != "Staff Name" {
				t.Fatalf("unexpected input: %+v", in)
			}
			p := ownerPrincipal
			p.Role = domain.RoleAdmin
			return &ports.AuthResult{AccessToken: "tok", User: p}, nil
		},
	}
	h := NewAuthHandler(stub)

	_, c, rec := newTestContext(http.MethodPost, "/auth/invitations/accept",
		`{"token":"abc","full_name":"Staff Name","password":"password1"}`)

	if err := h.AcceptInvitation(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestAuthHandler_PreviewInvitation(t *testing.T) {
	stub := &stubAuthService{
		previewFn: func(ctx context.Context, token string) (*ports.InvitationPreview, error) {
			if token != "abc" {
				t.Fatalf("unexpected token %q", token)
			}
			return &ports.InvitationPreview{Email: "staff@x.com", Role: domain.RoleNurse, ClinicName: "Demo Clinic"}, nil
		},
	}
	h := NewAuthHandler(stub)

	_, c, rec := newTestContext(http.MethodGet, "/auth/invitations/abc", "")
	c.SetParamNames("token")
	c.SetParamValues("abc")

	if err := h.PreviewInvitation(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"clinic_name":"Demo Clinic"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestAuthHandler_Me(t *testing.T) {
	stub := &stubAuthService{
		meFn: func(ctx context.Context, p domain.Principal) (*domain.User, error) {
			return &domain.User{ID: p.SubjectID, ClinicID: p.ClinicID, Email: p.Email, Role: p.Role, PasswordHash: "$2a$secret"}, nil
		},
	}
	h := NewAuthHandler(stub)

	_, c, rec := newTestContext(http.MethodGet, "/auth/me", "")
	SetPrincipal(c, ownerPrincipal)

	if err := h.Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if strings.Contains(rec.Body.String(), "secret") {
		t.Fatalf("password hash leaked: %s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"id":"user_1"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}
