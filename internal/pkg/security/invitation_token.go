package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// InvitationTokenBytes is the amount of CSPRNG output per token: 384 bits,
// which base64url-encodes to exactly 64 characters.
const InvitationTokenBytes = 48

// InvitationTokens implements ports.InvitationTokenGenerator.
type InvitationTokens struct{}

func NewInvitationTokens() *InvitationTokens {
	return &InvitationTokens{}
}

// Generate returns a fresh URL-safe token.
func (InvitationTokens) Generate() (string, error) {
	buf := make([]byte, InvitationTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate invitation token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Hash returns the hex SHA-256 digest under which token is stored.
func (InvitationTokens) Hash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
