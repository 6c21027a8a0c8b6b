package token

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// New returns an opaque single-use token for consent invitations. Only the
// bcrypt hash is ever stored; the plaintext goes to the invitee once.
func New() string {
	return uuid.NewString() + uuid.NewString()
}

func Hash(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func Verify(hash, plain string) bool {
	if strings.TrimSpace(hash) == "" || strings.TrimSpace(plain) == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
