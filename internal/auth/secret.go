package auth

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	SchemePlain  = "plain"
	SchemeBcrypt = "bcrypt"
)

// SecretVerifier prepares secrets for storage and checks candidates against
// the stored form.
type SecretVerifier interface {
	Prepare(secret string) (string, error)
	Matches(stored, candidate string) bool
}

// NewSecretVerifier returns the verifier for scheme.
func NewSecretVerifier(scheme string) (SecretVerifier, error) {
	switch scheme {
	case SchemePlain, "":
		return PlainSecrets{}, nil
	case SchemeBcrypt:
		return BcryptSecrets{Cost: bcrypt.DefaultCost}, nil
	}
	return nil, fmt.Errorf("unknown secret scheme %q", scheme)
}

// PlainSecrets stores secrets as given and compares by exact match.
type PlainSecrets struct{}

func (PlainSecrets) Prepare(secret string) (string, error) { return secret, nil }

func (PlainSecrets) Matches(stored, candidate string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) == 1
}

// BcryptSecrets stores bcrypt hashes.
type BcryptSecrets struct {
	Cost int
}

func (b BcryptSecrets) Prepare(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), b.Cost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(hash), nil
}

func (BcryptSecrets) Matches(stored, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(candidate)) == nil
}
