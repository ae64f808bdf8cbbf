package security

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/core/domain"
	"github.com/clinicore/clinic-api/internal/core/ports"
)

const (
	DefaultSessionTTL = time.Hour
	DefaultIssuer     = "clinic-api"
)

// sessionClaims is the wire form of a domain.Principal.
type sessionClaims struct {
	ClinicID string `json:"clinic_id"`
	Role     string `json:"role"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	jwt.RegisteredClaims
}

// JWTSigner issues and verifies HS256 session tokens. There is no server-side
// session state: expiry is the only lifetime bound.
type JWTSigner struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// SignerOption customises a JWTSigner.
type SignerOption func(*JWTSigner)

// WithIssuer overrides DefaultIssuer.
func WithIssuer(issuer string) SignerOption {
	return func(s *JWTSigner) {
		if issuer != "" {
			s.issuer = issuer
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) SignerOption {
	return func(s *JWTSigner) { s.now = now }
}

// NewJWTSigner returns a signer for secret. A non-positive ttl falls back to
// DefaultSessionTTL.
func NewJWTSigner(secret string, ttl time.Duration, opts ...SignerOption) *JWTSigner {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	s := &JWTSigner{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: DefaultIssuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *JWTSigner) Sign(p domain.Principal) (ports.SessionToken, error) {
	now := s.now().UTC()
	exp := now.Add(s.ttl)

	claims := sessionClaims{
		ClinicID: p.ClinicID,
		Role:     string(p.Role),
		Email:    p.Email,
		Name:     p.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.SubjectID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return ports.SessionToken{}, fmt.Errorf("sign session token: %w", err)
	}
	return ports.SessionToken{Token: signed, ExpiresAt: exp}, nil
}

func (s *JWTSigner) Verify(token string) (domain.Principal, error) {
	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return domain.Principal{}, domain.ErrUnauthenticated
	}

	role := domain.Role(claims.Role)
	if claims.Subject == "" || claims.ClinicID == "" || !role.Valid() {
		return domain.Principal{}, domain.ErrUnauthenticated
	}

	return domain.Principal{
		SubjectID: claims.Subject,
		ClinicID:  claims.ClinicID,
		Role:      role,
		Email:     claims.Email,
		FullName:  claims.Name,
	}, nil
}
