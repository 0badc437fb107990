package otp

import (
	"crypto/rand"
	"math/big"
	"strconv"
)

// Codes span [100000, 999999]: always six digits, never zero-padded.
const (
	codeMin  = 100000
	codeSpan = 900000
)

// NewCode generates a uniformly random 6-digit numeric verification code.
func NewCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+codeMin, 10), nil
}
