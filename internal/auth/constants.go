// Copyright (c) 2026 TalentX. All rights reserved.
// Author: platform@talentx.app

package auth

import "time"

// # Authentication Constraints

const (
	// AccessTokenTTL is the duration a JWT access token remains valid.
	// Medium-lived: the stateless token is the only credential most clients
	// hold between refreshes.
	AccessTokenTTL = 7 * 24 * time.Hour

	// RefreshTokenTTL is the duration a refresh token remains valid.
	// Long-lived (30 days) to provide a good user experience.
	RefreshTokenTTL = 30 * 24 * time.Hour

	// RefreshTokenLength is the byte length of the random secure token.
	RefreshTokenLength = 32

	// ResetTokenTTL is the duration a password reset token remains valid.
	// Short-lived (1 hour) for security.
	ResetTokenTTL = 1 * time.Hour

	// ResetTokenLength is the byte length of the random password reset token.
	ResetTokenLength = 32

	// SessionTokenLength is the byte length of the opaque device-session token.
	SessionTokenLength = 32

	// MfaChallengeTTL bounds the window between a password login that needs a
	// second factor and the verification call completing it.
	MfaChallengeTTL = 10 * time.Minute
)

// # One-Time Codes

const (
	// OtpDigits is the length of every numeric one-time code.
	OtpDigits = 6

	// OtpTTL is how long a code stays redeemable after issuance.
	OtpTTL = 10 * time.Minute

	// OtpMaxAttempts is the verification ceiling. Reaching it consumes the
	// code so it can never be brute-forced further.
	OtpMaxAttempts = 5

	// OtpRequestLimit is the number of codes one (email, type) pair may
	// request per throttle window.
	OtpRequestLimit = 3

	// OtpRequestWindow is the throttle window for OTP issuance.
	OtpRequestWindow = 15 * time.Minute
)

// # Reset Throttling

const (
	// ResetRequestLimit is the number of reset emails one address may request
	// per throttle window.
	ResetRequestLimit = 3

	// ResetRequestWindow is the throttle window for reset-token issuance.
	ResetRequestWindow = 15 * time.Minute
)

// # Password Policy

const (
	// PasswordMinLength is the minimum accepted password length.
	PasswordMinLength = 8

	// PasswordHistoryLimit is how many prior hashes are checked for reuse,
	// in addition to the current one.
	PasswordHistoryLimit = 3

	// PasswordSymbols is the allowed special-character set. A password must
	// contain at least one of these.
	PasswordSymbols = "@$!%*?&"
)

// # Login-Attempt Lockout

const (
	// LockoutMaxFailures is the consecutive-failure ceiling before an account
	// locks.
	LockoutMaxFailures = 5

	// LockoutWindow is the rolling window in which failures are counted.
	LockoutWindow = 15 * time.Minute

	// LockoutDuration is how long the lock holds, counted from the most
	// recent failure in the triggering window.
	LockoutDuration = 15 * time.Minute

	// AttemptRetention is how long audit rows are kept before the cleanup
	// job prunes them.
	AttemptRetention = 90 * 24 * time.Hour
)

// # Multi-Factor

const (
	// BackupCodeCount is how many single-use recovery codes MFA enrollment
	// hands out.
	BackupCodeCount = 10
)

// # Maintenance

const (
	// JanitorInterval is how often the background cleanup sweep runs.
	JanitorInterval = 1 * time.Hour
)

// publicEmailDomains are consumer mail providers. Registrations from these
// domains never share a tenant: each signup gets a uniquified synthetic
// domain so strangers on gmail.com do not land in one organization.
var publicEmailDomains = map[string]bool{
	"gmail.com":      true,
	"yahoo.com":      true,
	"hotmail.com":    true,
	"outlook.com":    true,
	"aol.com":        true,
	"icloud.com":     true,
	"protonmail.com": true,
	"proton.me":      true,
	"mail.com":       true,
	"gmx.com":        true,
	"zoho.com":       true,
	"yandex.com":     true,
	"live.com":       true,
	"msn.com":        true,
}
