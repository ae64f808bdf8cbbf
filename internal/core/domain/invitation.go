package domain

import "time"

// StaffInvitation is a single-use onboarding credential. Only the SHA-256
// hash of the token is persisted.
type StaffInvitation struct {
	ID         string     `json:"id"`
	ClinicID   string     `json:"clinic_id"`
	Email      string     `json:"email"`
	Role       Role       `json:"role"`
	TokenHash  string     `json:"-"`
	CreatedBy  string     `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
}

// IsAccepted reports whether the invitation has already been consumed.
func (i *StaffInvitation) IsAccepted() bool {
	return i.AcceptedAt != nil
}

// IsExpiredAt reports whether the invitation is unusable at now.
// Acceptance must happen strictly before ExpiresAt.
func (i *StaffInvitation) IsExpiredAt(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// Check classifies the invitation's usability at now. Already-used takes
// precedence over expiry.
func (i *StaffInvitation) Check(now time.Time) error {
	if i.IsAccepted() {
		return ErrInvitationAlreadyUsed
	}
	if i.IsExpiredAt(now) {
		return ErrInvitationExpired
	}
	return nil
}
