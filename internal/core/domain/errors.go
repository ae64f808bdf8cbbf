package domain

import "errors"

var (
	ErrDuplicateEmail        = errors.New("email already registered")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrInvalidToken          = errors.New("invalid invitation token")
	ErrInvitationAlreadyUsed = errors.New("invitation already used")
	ErrInvitationExpired     = errors.New("invitation expired")
	ErrUnauthenticated       = errors.New("unauthenticated")
	ErrForbidden             = errors.New("access forbidden")
	ErrUserNotFound          = errors.New("user not found")
	ErrClinicNotFound        = errors.New("clinic not found")
	ErrInvalidRole           = errors.New("invalid role")
	ErrValidation            = errors.New("validation failed")
)
