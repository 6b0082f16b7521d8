package otp

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
)

// Codec defines the contract for one-time passcode operations.
type Codec interface {
	// Generate creates a new random passcode.
	Generate() (string, error)
	// Digest returns the stored form of a passcode.
	Digest(code string) string
	// Verify checks whether a passcode matches a stored digest.
	Verify(digest, code string) bool
}

const codeLength = 6

var codeSpace = big.NewInt(1_000_000)

// SHA256Codec implements Codec using 6-digit numeric passcodes hashed with
// SHA-256. Plaintext codes are never stored, only hex-encoded digests.
type SHA256Codec struct{}

// NewSHA256Codec constructs a SHA256Codec.
func NewSHA256Codec() *SHA256Codec {
	return &SHA256Codec{}
}

// Generate draws a code uniformly from 000000 through 999999 using a
// cryptographic source. Leading zeros are preserved.
func (c *SHA256Codec) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("generate passcode: %w", err)
	}

	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Digest returns the hex-encoded SHA-256 of the code.
func (c *SHA256Codec) Digest(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// Verify checks code against digest in constant time. A code that is not
// exactly six ASCII digits fails verification without being hashed.
func (c *SHA256Codec) Verify(digest, code string) bool {
	if !ValidFormat(code) {
		return false
	}

	actual := c.Digest(code)
	return subtle.ConstantTimeCompare([]byte(digest), []byte(actual)) == 1
}

// ValidFormat reports whether code is exactly six ASCII digits.
func ValidFormat(code string) bool {
	if len(code) != codeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
