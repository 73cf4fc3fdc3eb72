// Copyright (c) 2026 TalentX. All rights reserved.
// Author: platform@talentx.app

/*
Package auth implements the identity, credential, and session lifecycle layer.

It defines the core domain entities (User, Tenant, tokens, sessions) and the
logic for password, OTP, and MFA authentication, login-attempt lockout, and
token issuance with rotation.

# Architecture

This layer is the "Truth" of the system. Entities defined here have no external
dependencies and encapsulate all business rules related to user identity.
Every entity is scoped to a Tenant — the isolation boundary for one customer
organization.
*/
package auth

import (
	"time"

	"github.com/talentxhq/talentx-api/internal/platform/sec"
)

// # Statuses & Types

// UserStatus is the lifecycle state of an account.
type UserStatus string

const (
	StatusPending   UserStatus = "PENDING"
	StatusActive    UserStatus = "ACTIVE"
	StatusInactive  UserStatus = "INACTIVE"
	StatusSuspended UserStatus = "SUSPENDED"
)

// TenantStatus is the lifecycle state of a tenant.
type TenantStatus string

const (
	TenantActive    TenantStatus = "ACTIVE"
	TenantSuspended TenantStatus = "SUSPENDED"
)

// OtpType distinguishes the flows a one-time code can serve.
type OtpType string

const (
	OtpLogin         OtpType = "LOGIN"
	OtpEmailVerify   OtpType = "EMAIL_VERIFY"
	OtpPasswordReset OtpType = "PASSWORD_RESET"
)

// IsValid reports whether the type is a known OTP flow.
func (otpType OtpType) IsValid() bool {
	switch otpType {
	case OtpLogin, OtpEmailVerify, OtpPasswordReset:
		return true
	}
	return false
}

// # Domain Entities

// User represents a tenant-scoped account. Email uniqueness is scoped to
// (email, tenantID), never global — the same address may exist in two tenants.
type User struct {
	ID           string       `json:"id"`
	TenantID     string       `json:"tenantId"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"` // Empty for passwordless (OTP-only) accounts. Omitted from JSON for security.
	FirstName    string       `json:"firstName"`
	LastName     string       `json:"lastName"`
	Role         sec.UserRole `json:"role"`
	CustomRoleID string       `json:"-"` // Empty unless a tenant-defined role is assigned.
	Status       UserStatus   `json:"status"`

	MfaEnabled     bool     `json:"mfaEnabled"`
	MfaSecret      string   `json:"-"` // Base32 TOTP secret. Omitted from JSON for security.
	MfaBackupCodes []string `json:"-"` // Bcrypt hashes of unused recovery codes.

	CustomPermissions     []string   `json:"-"` // Overrides role permissions entirely when non-empty.
	RequirePasswordChange bool       `json:"requirePasswordChange"`
	TempPasswordExpiresAt *time.Time `json:"-"`
	LastLoginAt           *time.Time `json:"lastLoginAt,omitempty"`
	LastActiveAt          *time.Time `json:"lastActiveAt,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

// Tenant is the isolation boundary for one customer organization.
type Tenant struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Domain    string       `json:"domain"`
	Status    TenantStatus `json:"status"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// RefreshToken is a long-lived opaque credential. Single-use: every exchange
// deletes the consumed row and issues a replacement.
type RefreshToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	TokenHash string    `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// OtpCode is a single-use numeric code keyed by (email, tenantID, type).
// It may exist before the account does: LOGIN codes auto-provision users on
// first successful verification.
type OtpCode struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	TenantID  string     `json:"tenantId,omitempty"` // Empty when the tenant is not yet resolved.
	CodeHash  string     `json:"-"`
	Type      OtpType    `json:"type"`
	Attempts  int        `json:"attempts"`
	UsedAt    *time.Time `json:"usedAt,omitempty"`
	ExpiresAt time.Time  `json:"expiresAt"`
	CreatedAt time.Time  `json:"createdAt"`
}

// PasswordResetToken is a single-use token with a 1-hour expiry. At most one
// active token per user; requesting a new one invalidates the prior.
type PasswordResetToken struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	TokenHash string     `json:"-"`
	IsUsed    bool       `json:"isUsed"`
	UsedAt    *time.Time `json:"usedAt,omitempty"`
	ExpiresAt time.Time  `json:"expiresAt"`
	CreatedAt time.Time  `json:"createdAt"`
}

// PasswordHistoryEntry is one prior password hash, kept to block reuse.
type PasswordHistoryEntry struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserSession is a device session used for idle-timeout tracking and
// multi-device visibility, orthogonal to the JWT/refresh-token pair.
type UserSession struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	TokenHash    string    `json:"-"`
	IPAddress    string    `json:"ipAddress"`
	UserAgent    string    `json:"userAgent"`
	LastActiveAt time.Time `json:"lastActiveAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
	CreatedAt    time.Time `json:"createdAt"`
}

// LoginAttempt is one append-only audit row. Never mutated; only pruned by
// the retention job.
type LoginAttempt struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	TenantID      string    `json:"tenantId,omitempty"`
	IPAddress     string    `json:"ipAddress"`
	UserAgent     string    `json:"userAgent"`
	Successful    bool      `json:"successful"`
	FailureReason string    `json:"failureReason,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// CustomRole is a tenant-defined role carrying its own permission list. It is
// the middle tier of permission resolution: below user overrides, above the
// static role table.
type CustomRole struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenantId"`
	Name        string    `json:"name"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"createdAt"`
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldFirstName       = "firstName"
	FieldLastName        = "lastName"
	FieldTenantID        = "tenantId"
	FieldRole            = "role"
	FieldToken           = "token"
	FieldCode            = "code"
	FieldOtpType         = "type"
	FieldCurrentPassword = "currentPassword"
	FieldNewPassword     = "newPassword"
	FieldRefreshToken    = "refreshToken"
	FieldSessionToken    = "sessionToken"
	FieldMessage         = "message"
)
