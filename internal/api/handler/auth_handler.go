package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinic-api/internal/api/metrics"
	"github.com/clinicore/clinic-api/internal/core/domain"
	"github.com/clinicore/clinic-api/internal/core/ports"
)

// AuthHandler handles HTTP requests for signup, login and staff invitations.
type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Signup creates a clinic and its owner account.
//
// @Summary      Sign up a new clinic
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "Clinic and owner details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := bindAndValidate(c, &req); err != nil {
		metrics.SignupsTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		return err
	}

	res, err := h.authService.Signup(c.Request().Context(), ports.SignupInput{
		ClinicName: req.ClinicName,
		OwnerEmail: req.OwnerEmail,
		OwnerName:  req.OwnerName,
		Password:   req.Password,
		Timezone:   req.Timezone,
		Locale:     req.Locale,
	})
	metrics.SignupsTotal.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toAuthResponse(res))
}

// Login authenticates a user and returns a session token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		metrics.LoginsTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	metrics.LoginsTotal.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toAuthResponse(res))
}

// InviteStaff issues a single-use invitation into the caller's clinic.
//
// @Summary      Invite a staff member
// @Tags         invitations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      inviteStaffRequest  true  "Invitee email and role"
// @Success      201   {object}  invitationResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /auth/invitations [post]
func (h *AuthHandler) InviteStaff(c echo.Context) error {
	p, err := PrincipalFrom(c)
	if err != nil {
		return err
	}

	var req inviteStaffRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.InviteStaff(c.Request().Context(), ports.InviteStaffInput{
		ClinicID:  p.ClinicID,
		CreatorID: p.SubjectID,
		Email:     req.Email,
		Role:      req.Role,
	})
	if err != nil {
		return err
	}
	if role, perr := domain.ParseRole(req.Role); perr == nil {
		metrics.InvitationsIssuedTotal.WithLabelValues(string(role)).Inc()
	}

	return c.JSON(http.StatusCreated, invitationResponse{
		InvitationID: res.InvitationID,
		Token:        res.Token,
		ExpiresAt:    formatTime(res.ExpiresAt),
	})
}

// PreviewInvitation shows what an invitation grants without consuming it.
//
// @Summary      Preview an invitation
// @Tags         invitations
// @Produce      json
// @Param        token  path      string  true  "Invitation token"
// @Success      200    {object}  invitationPreviewResponse
// @Failure      400    {object}  map[string]string
// @Failure      403    {object}  map[string]string
// @Router       /auth/invitations/{token} [get]
func (h *AuthHandler) PreviewInvitation(c echo.Context) error {
	preview, err := h.authService.PreviewInvitation(c.Request().Context(), c.Param("token"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, invitationPreviewResponse{
		Email:      preview.Email,
		Role:       preview.Role,
		ClinicName: preview.ClinicName,
		ExpiresAt:  formatTime(preview.ExpiresAt),
	})
}

// AcceptInvitation registers the invitee and opens a session.
//
// @Summary      Accept an invitation
// @Tags         invitations
// @Accept       json
// @Produce      json
// @Param        body  body      acceptInvitationRequest  true  "Token and invitee details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /auth/invitations/accept [post]
func (h *AuthHandler) AcceptInvitation(c echo.Context) error {
	var req acceptInvitationRequest
	if err := bindAndValidate(c, &req); err != nil {
		metrics.InvitationsAcceptedTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		return err
	}

	res, err := h.authService.AcceptInvitation(c.Request().Context(), ports.AcceptInvitationInput{
		Token:    req.Token,
		FullName: req.FullName,
		Password: req.Password,
	})
	metrics.InvitationsAcceptedTotal.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toAuthResponse(res))
}

// Me returns the authenticated user.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  meResponse
// @Failure      401  {object}  map[string]string
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	p, err := PrincipalFrom(c)
	if err != nil {
		return err
	}

	user, err := h.authService.Me(c.Request().Context(), p)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toMeResponse(user))
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if c.Echo().Validator == nil {
		return nil
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// outcome maps a service error to a metric result label.
func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, domain.ErrDuplicateEmail):
		return "duplicate_email"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, domain.ErrInvitationAlreadyUsed):
		return "already_used"
	case errors.Is(err, domain.ErrInvitationExpired):
		return "expired"
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidRole):
		return metrics.ResultInvalid
	default:
		return metrics.ResultError
	}
}
