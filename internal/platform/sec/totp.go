// Copyright (c) 2026 TalentX. All rights reserved.
// Author: platform@talentx.app

package sec

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"net/url"
	"time"
)

// # Time-Based One-Time Passwords (RFC 6238)

const (
	totpDigits     = 6
	totpPeriod     = 30 * time.Second
	totpSecretSize = 20

	// totpSkewSteps accepts one 30-second step on either side of the current
	// one, tolerating clock drift between server and authenticator app.
	totpSkewSteps = 1
)

// base32NoPadding matches what authenticator apps expect in otpauth URIs.
var base32NoPadding = base32.StdEncoding.WithPadding(base32.NoPadding)

// GenerateTotpSecret returns a fresh base32-encoded 160-bit shared secret.
func GenerateTotpSecret() (string, error) {
	secretBytes := make([]byte, totpSecretSize)
	if _, err := rand.Read(secretBytes); err != nil {
		return "", fmt.Errorf("sec: failed to generate totp secret: %w", err)
	}
	return base32NoPadding.EncodeToString(secretBytes), nil
}

/*
BuildTotpProvisionURI builds the otpauth:// URI that authenticator apps scan
to enroll an account.

Parameters:
  - issuer: the service name shown in the app.
  - accountName: the user identifier, typically their email.
  - secret: the base32 shared secret from [GenerateTotpSecret].

Returns:
  - string: the otpauth://totp/... URI.
*/
func BuildTotpProvisionURI(issuer, accountName, secret string) string {
	label := url.PathEscape(issuer + ":" + accountName)
	values := url.Values{}
	values.Set("secret", secret)
	values.Set("issuer", issuer)
	values.Set("algorithm", "SHA1")
	values.Set("digits", fmt.Sprintf("%d", totpDigits))
	values.Set("period", fmt.Sprintf("%d", int(totpPeriod.Seconds())))
	return "otpauth://totp/" + label + "?" + values.Encode()
}

/*
VerifyTotpCode checks a 6-digit code against the shared secret, accepting the
current 30-second step plus one step of skew on either side.

The comparison is constant-time so response timing leaks nothing about how
close a guess came.

Parameters:
  - secret: the base32 shared secret stored on the user record.
  - code: the 6-digit code the user submitted.
  - at: the reference time, normally time.Now().

Returns:
  - bool: true if the code matches any accepted step.
  - error: if the secret is not valid base32.
*/
func VerifyTotpCode(secret, code string, at time.Time) (bool, error) {
	if len(code) != totpDigits {
		return false, nil
	}
	secretBytes, err := base32NoPadding.DecodeString(secret)
	if err != nil {
		return false, fmt.Errorf("sec: failed to decode totp secret: %w", err)
	}

	currentStep := at.Unix() / int64(totpPeriod.Seconds())
	matched := false
	for offset := int64(-totpSkewSteps); offset <= totpSkewSteps; offset++ {
		expected := hotpCode(secretBytes, uint64(currentStep+offset))
		if subtle.ConstantTimeCompare([]byte(expected), []byte(code)) == 1 {
			matched = true
		}
	}
	return matched, nil
}

// hotpCode computes the RFC 4226 HMAC-SHA1 truncated code for one counter
// value, zero-padded to totpDigits.
func hotpCode(secret []byte, counter uint64) string {
	var counterBytes [8]byte
	binary.BigEndian.PutUint64(counterBytes[:], counter)

	mac := hmac.New(sha1.New, secret)
	mac.Write(counterBytes[:])
	digest := mac.Sum(nil)

	offset := digest[len(digest)-1] & 0x0f
	truncated := binary.BigEndian.Uint32(digest[offset:offset+4]) & 0x7fffffff
	return fmt.Sprintf("%06d", truncated%1000000)
}
