package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

const (
	// VerificationTokenBytes is the entropy for public verification codes.
	// 16 bytes (128 bits) renders as 32 hex characters.
	VerificationTokenBytes = 16

	// SuffixTokenBytes is the entropy for short random suffixes
	SuffixTokenBytes = 3
)

// GenerateToken returns a hex-encoded cryptographically random token
func GenerateToken(numBytes int) (string, error) {
	buf := make([]byte, numBytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// GenerateVerificationCode returns a high-entropy token suitable for
// unauthenticated public lookup
func GenerateVerificationCode() (string, error) {
	return GenerateToken(VerificationTokenBytes)
}

// GenerateSuffix returns a short random suffix for human-readable
// identifiers where a separate uniqueness constraint backstops collisions
func GenerateSuffix() (string, error) {
	return GenerateToken(SuffixTokenBytes)
}
