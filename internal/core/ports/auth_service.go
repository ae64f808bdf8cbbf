package ports

import (
	"context"
	"time"

	"github.com/clinicore/clinic-api/internal/core/domain"
)

// SignupInput carries the data for creating a clinic and its owner.
type SignupInput struct {
	ClinicName string
	OwnerEmail string
	OwnerName  string
	Password   string
	Timezone   string // optional
	Locale     string // optional
}

// InviteStaffInput carries an invitation request. ClinicID and CreatorID come
// from the caller's own session, never from the request body.
type InviteStaffInput struct {
	ClinicID  string
	CreatorID string
	Email     string
	Role      string
}

// AcceptInvitationInput carries the invitee's registration data.
type AcceptInvitationInput struct {
	Token    string
	FullName string
	Password string
}

// AuthResult is returned by every operation that opens a session.
type AuthResult struct {
	AccessToken string
	ExpiresAt   time.Time
	User        domain.Principal
}

// InvitationResult is returned to the inviter.
type InvitationResult struct {
	InvitationID string
	Token        string
	ExpiresAt    time.Time
}

// InvitationPreview is what an invitee may see before accepting.
type InvitationPreview struct {
	Email      string
	Role       domain.Role
	ClinicName string
	ExpiresAt  time.Time
}

// AuthService is the authentication and tenant-invitation core.
type AuthService interface {
	Signup(ctx context.Context, in SignupInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	InviteStaff(ctx context.Context, in InviteStaffInput) (*InvitationResult, error)
	AcceptInvitation(ctx context.Context, in AcceptInvitationInput) (*AuthResult, error)
	PreviewInvitation(ctx context.Context, token string) (*InvitationPreview, error)
	Me(ctx context.Context, p domain.Principal) (*domain.User, error)
}
