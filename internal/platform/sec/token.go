// Copyright (c) 2026 TalentX. All rights reserved.
// Author: platform@talentx.app

package sec

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// # Opaque Tokens

// GenerateSecureToken returns a hex-encoded random token with byteLength bytes
// of entropy. Used for refresh tokens and password reset tokens.
func GenerateSecureToken(byteLength int) (string, error) {
	tokenBytes := make([]byte, byteLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("sec: failed to generate secure token: %w", err)
	}
	return hex.EncodeToString(tokenBytes), nil
}

// HashToken returns the hex-encoded SHA-256 digest of a token. Opaque tokens
// are stored hashed so a database leak does not leak usable credentials.
func HashToken(token string) string {
	digest := sha256.Sum256([]byte(token))
	return hex.EncodeToString(digest[:])
}

// # One-Time Codes

// GenerateNumericCode returns a random code of the given number of decimal
// digits. Each digit is drawn uniformly via crypto/rand, so short codes carry
// no modulo bias.
func GenerateNumericCode(digits int) (string, error) {
	var builder strings.Builder
	builder.Grow(digits)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("sec: failed to generate numeric code: %w", err)
		}
		builder.WriteByte(byte('0' + n.Int64()))
	}
	return builder.String(), nil
}

// backupCodeAlphabet deliberately omits ambiguous characters (0/O, 1/I/L).
const backupCodeAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

/*
GenerateBackupCodes returns count single-use recovery codes in XXXX-XXXX form.

The plain-text codes are shown to the user exactly once; callers must hash
them before storage.

Parameters:
  - count: how many codes to generate.

Returns:
  - []string: the plain-text codes.
  - error: if the random source fails.
*/
func GenerateBackupCodes(count int) ([]string, error) {
	alphabetSize := big.NewInt(int64(len(backupCodeAlphabet)))
	codes := make([]string, 0, count)
	for i := 0; i < count; i++ {
		var builder strings.Builder
		builder.Grow(9)
		for j := 0; j < 8; j++ {
			if j == 4 {
				builder.WriteByte('-')
			}
			n, err := rand.Int(rand.Reader, alphabetSize)
			if err != nil {
				return nil, fmt.Errorf("sec: failed to generate backup code: %w", err)
			}
			builder.WriteByte(backupCodeAlphabet[n.Int64()])
		}
		codes = append(codes, builder.String())
	}
	return codes, nil
}
