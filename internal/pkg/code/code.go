package code

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// New generates a random 6-digit verification code in [100000, 999999].
// The leading digit is never zero so the code survives any client that
// round-trips it through an integer.
func New() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
