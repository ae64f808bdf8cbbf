package ports

import (
	"time"

	"github.com/clinicore/clinic-api/internal/core/domain"
)

// PasswordHasher produces and checks salted one-way password hashes.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Verify reports whether password matches hash. A malformed hash is a
	// mismatch, never a panic.
	Verify(hash, password string) bool
}

// SessionToken is a signed, time-bounded session credential.
type SessionToken struct {
	Token     string
	ExpiresAt time.Time
}

// TokenSigner issues and verifies session credentials.
type TokenSigner interface {
	Sign(p domain.Principal) (SessionToken, error)
	// Verify returns domain.ErrUnauthenticated for any token that is
	// malformed, badly signed or expired.
	Verify(token string) (domain.Principal, error)
}

// InvitationTokenGenerator produces unguessable invitation tokens and the
// digest under which they are stored.
type InvitationTokenGenerator interface {
	Generate() (string, error)
	Hash(token string) string
}
