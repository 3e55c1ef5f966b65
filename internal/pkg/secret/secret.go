package secret

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Cost is the bcrypt work factor used for every secret in the system.
const Cost = 10

// Hash produces a salted one-way hash of a secret. The same function covers
// passwords and verification codes so neither is ever stored in plaintext.
func Hash(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), Cost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(h), nil
}

// Compare checks a candidate secret against a stored hash. bcrypt's comparison
// does not short-circuit on secret content. Returns false for any mismatch or
// malformed hash; only unexpected engine failures produce an error.
func Compare(candidate, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword),
		errors.Is(err, bcrypt.ErrHashTooShort):
		return false, nil
	default:
		return false, fmt.Errorf("compare secret: %w", err)
	}
}
