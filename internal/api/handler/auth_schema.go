package handler

import (
	"time"

	"github.com/clinicore/clinic-api/internal/core/domain"
	"github.com/clinicore/clinic-api/internal/core/ports"
)

// --- Request types ---

type signupRequest struct {
	ClinicName string `json:"clinic_name" validate:"required,max=200"`
	OwnerEmail string `json:"owner_email" validate:"required,email"`
	OwnerName  string `json:"owner_name"  validate:"required,max=200"`
	Password   string `json:"password"    validate:"required,min=8"`
	Timezone   string `json:"timezone,omitempty" validate:"omitempty,max=64"`
	Locale     string `json:"locale,omitempty"   validate:"omitempty,max=16"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type inviteStaffRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role"  validate:"required"`
}

type acceptInvitationRequest struct {
	Token    string `json:"token"     validate:"required"`
	FullName string `json:"full_name" validate:"required,max=200"`
	Password string `json:"password"  validate:"required,min=8"`
}

// --- Response types ---

type authResponse struct {
	AccessToken string           `json:"access_token"`
	TokenType   string           `json:"token_type"`
	ExpiresAt   string           `json:"expires_at"`
	User        domain.Principal `json:"user"`
}

type invitationResponse struct {
	InvitationID string `json:"invitation_id"`
	Token        string `json:"token"`
	ExpiresAt    string `json:"expires_at"`
}

type invitationPreviewResponse struct {
	Email      string      `json:"email"`
	Role       domain.Role `json:"role"`
	ClinicName string      `json:"clinic_name"`
	ExpiresAt  string      `json:"expires_at"`
}

type meResponse struct {
	ID        string      `json:"id"`
	ClinicID  string      `json:"clinic_id"`
	Email     string      `json:"email"`
	FullName  string      `json:"full_name"`
	Role      domain.Role `json:"role"`
	CreatedAt string      `json:"created_at"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func toAuthResponse(r *ports.AuthResult) authResponse {
	return authResponse{
		AccessToken: r.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   formatTime(r.ExpiresAt),
		User:        r.User,
	}
}

func toMeResponse(u *domain.User) meResponse {
	return meResponse{
		ID:        u.ID,
		ClinicID:  u.ClinicID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		CreatedAt: formatTime(u.CreatedAt),
	}
}
