package domain

import (
	"strings"
	"time"
)

// Role is a staff role within a clinic.
type Role string

const (
	RoleOwner        Role = "OWNER"
	RoleAdmin        Role = "ADMIN"
	RoleDoctor       Role = "DOCTOR"
	RoleNurse        Role = "NURSE"
	RoleReceptionist Role = "RECEPTIONIST"
	RoleAccountant   Role = "ACCOUNTANT"
)

var allRoles = []Role{RoleOwner, RoleAdmin, RoleDoctor, RoleNurse, RoleReceptionist, RoleAccountant}

// InvitableRoles lists the roles an invitation may assign. OWNER is only
// ever created by signup.
var InvitableRoles = []Role{RoleAdmin, RoleDoctor, RoleNurse, RoleReceptionist, RoleAccountant}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	for _, known := range allRoles {
		if r == known {
			return true
		}
	}
	return false
}

// Invitable reports whether r may be assigned through an invitation.
func (r Role) Invitable() bool {
	for _, known := range InvitableRoles {
		if r == known {
			return true
		}
	}
	return false
}

// ParseRole converts s into a Role, ignoring case and surrounding spaces.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

// RoleAllowed reports whether role is a member of allowed.
func RoleAllowed(allowed []Role, role Role) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// User is a clinic staff member. Email is unique across all clinics.
type User struct {
	ID           string    `json:"id"`
	ClinicID     string    `json:"clinic_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	Role         Role      `json:"role"`
	InvitationID *string   `json:"invitation_id,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NormalizeEmail trims and lower-cases an email address. All lookups and the
// uniqueness constraint operate on the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
