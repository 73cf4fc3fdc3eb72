// Copyright (c) 2026 TalentX. All rights reserved.
// Author: platform@talentx.app

package auth

import (
	"context"
	"time"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByEmail returns the account with the given email inside one tenant.
		Email uniqueness is scoped to (email, tenantID), so the pair is the
		only safe lookup key.

		Parameters:
		  - context: context.Context
		  - email: string
		  - tenantID: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByEmail(context context.Context, email, tenantID string) (*User, error)

	/*
		FindFirstByEmail returns the newest account matching the email across
		ALL tenants.

		This is the documented weak point of tenantless login: when the same
		email exists in two tenants the match is arbitrary. Callers must
		prefer FindByEmail whenever a tenant is known.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: First matching entity
		  - error: Database retrieval failures
	*/
	FindFirstByEmail(context context.Context, email string) (*User, error)

	/*
		Create persists a brand-new user account.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, user *User) error

	/*
		Update persists the mutable account fields (status, MFA state, custom
		permissions, password-change flags).

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: Persistence failures
	*/
	Update(context context.Context, user *User) error

	/*
		UpdateLastLogin stamps a successful authentication on the account.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - at: time.Time

		Returns:
		  - error: Persistence failures
	*/
	UpdateLastLogin(context context.Context, userID string, at time.Time) error
}

// # Tenant Data Access

// TenantRepository defines the data access contract for tenants.
type TenantRepository interface {

	/*
		FindByID returns one tenant.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *Tenant: Hydrated entity
		  - error: apperr.NotFound or database failures
	*/
	FindByID(context context.Context, id string) (*Tenant, error)

	/*
		FindByDomain returns the tenant owning the given email domain.

		Parameters:
		  - context: context.Context
		  - domain: string

		Returns:
		  - *Tenant: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByDomain(context context.Context, domain string) (*Tenant, error)

	/*
		Create persists a brand-new tenant.

		Parameters:
		  - context: context.Context
		  - tenant: *Tenant

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, tenant *Tenant) error
}

// CustomRoleRepository resolves tenant-defined roles for permission layering.
type CustomRoleRepository interface {

	/*
		FindByID returns one custom role definition.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *CustomRole: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByID(context context.Context, id string) (*CustomRole, error)
}

// # Token Data Access

// RefreshTokenRepository defines the contract for opaque refresh tokens.
type RefreshTokenRepository interface {

	/*
		Create persists a freshly issued refresh token.

		Parameters:
		  - context: context.Context
		  - token: *RefreshToken

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, token *RefreshToken) error

	/*
		Consume atomically deletes and returns the unexpired token matching
		the hash. The delete is the rotation serialization point: of two
		concurrent exchanges for the same token, exactly one receives the row
		and the other gets NotFound.

		Parameters:
		  - context: context.Context
		  - tokenHash: string

		Returns:
		  - *RefreshToken: The consumed token
		  - error: apperr.Unauthorized if absent, expired, or already consumed
	*/
	Consume(context context.Context, tokenHash string) (*RefreshToken, error)

	/*
		DeleteAllForUser removes every refresh token of one user (global
		sign-out).

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Persistence failures
	*/
	DeleteAllForUser(context context.Context, userID string) error

	/*
		DeleteExpired removes tokens past their expiry.

		Parameters:
		  - context: context.Context

		Returns:
		  - int64: Rows removed
		  - error: Cleanup failures
	*/
	DeleteExpired(context context.Context) (int64, error)
}

// ResetTokenRepository defines the contract for single-use password reset tokens.
type ResetTokenRepository interface {

	/*
		InvalidateActive marks all unused reset tokens of a user as used, so
		at most one token is ever redeemable.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Persistence failures
	*/
	InvalidateActive(context context.Context, userID string) error

	/*
		Create persists a freshly issued reset token.

		Parameters:
		  - context: context.Context
		  - token: *PasswordResetToken

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, token *PasswordResetToken) error

	/*
		FindByTokenHash returns the token row regardless of its used or
		expired state, so the caller can report "expired" and "already used"
		as distinct errors.

		Parameters:
		  - context: context.Context
		  - tokenHash: string

		Returns:
		  - *PasswordResetToken: Hydrated entity
		  - error: apperr.NotFound or database failures
	*/
	FindByTokenHash(context context.Context, tokenHash string) (*PasswordResetToken, error)
}

// PasswordHistoryRepository defines the contract for the append-only hash history.
type PasswordHistoryRepository interface {

	/*
		ListRecent returns the newest history entries for a user.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - limit: int

		Returns:
		  - []PasswordHistoryEntry: Newest first
		  - error: Database retrieval failures
	*/
	ListRecent(context context.Context, userID string, limit int) ([]PasswordHistoryEntry, error)
}

// PasswordWriter applies the password-change fan-out (new hash, history append,
// reset-token consumption, refresh-token and session invalidation) as one
// atomic unit, so a crash mid-sequence cannot leave a changed password
// coexisting with still-valid old sessions.
type PasswordWriter interface {

	/*
		ApplyPasswordChange performs the full credential rotation in a single
		transaction.

		Parameters:
		  - context: context.Context
		  - change: PasswordChange

		Returns:
		  - error: Persistence failures; nothing is applied on error
	*/
	ApplyPasswordChange(context context.Context, change PasswordChange) error
}

// PasswordChange describes one atomic credential rotation.
type PasswordChange struct {
	UserID          string
	NewPasswordHash string
	HistoryEntryID  string // ID for the appended history row.
	OldPasswordHash string // Hash being retired into history; empty skips the append.
	ResetTokenID    string // Reset token to mark used; empty when not a reset flow.
	RevokeSessions  bool   // Also delete all refresh tokens and device sessions.
}

// # One-Time Code Data Access

// OtpRepository defines the contract for single-use numeric codes.
type OtpRepository interface {

	/*
		InvalidatePrior marks every unused code of the same (email, tenantID,
		type) as used, enforcing the at-most-one-active invariant.

		Parameters:
		  - context: context.Context
		  - email: string
		  - tenantID: string (empty matches codes without a tenant)
		  - otpType: OtpType

		Returns:
		  - error: Persistence failures
	*/
	InvalidatePrior(context context.Context, email, tenantID string, otpType OtpType) error

	/*
		Create persists a freshly issued code.

		Parameters:
		  - context: context.Context
		  - code: *OtpCode

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, code *OtpCode) error

	/*
		FindNewestUnused returns the latest unused code for (email, tenantID,
		type), regardless of the submitted code value.

		Parameters:
		  - context: context.Context
		  - email: string
		  - tenantID: string
		  - otpType: OtpType

		Returns:
		  - *OtpCode: Hydrated entity
		  - error: apperr.NotFound or database failures
	*/
	FindNewestUnused(context context.Context, email, tenantID string, otpType OtpType) (*OtpCode, error)

	/*
		FindUnusedByCode returns the latest unused code matching the hash,
		for the tenantless verification path.

		Parameters:
		  - context: context.Context
		  - email: string
		  - codeHash: string
		  - otpType: OtpType

		Returns:
		  - *OtpCode: Hydrated entity
		  - error: apperr.NotFound or database failures
	*/
	FindUnusedByCode(context context.Context, email, codeHash string, otpType OtpType) (*OtpCode, error)

	/*
		IncrementAttempts bumps the failed-attempt counter.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - int: The counter value after the increment
		  - error: Persistence failures
	*/
	IncrementAttempts(context context.Context, id string) (int, error)

	/*
		MarkUsed consumes the code.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - error: Persistence failures
	*/
	MarkUsed(context context.Context, id string) error

	/*
		DeleteExpired removes codes past their expiry.

		Parameters:
		  - context: context.Context

		Returns:
		  - int64: Rows removed
		  - error: Cleanup failures
	*/
	DeleteExpired(context context.Context) (int64, error)
}

// # Session Data Access

// SessionRepository defines the contract for device sessions.
type SessionRepository interface {

	/*
		Create persists a new device session.

		Parameters:
		  - context: context.Context
		  - session: *UserSession

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, session *UserSession) error

	/*
		FindByTokenHash returns the session for an opaque token. Expiry is NOT
		filtered here — the service decides how stale sessions are reported.

		Parameters:
		  - context: context.Context
		  - tokenHash: string

		Returns:
		  - *UserSession: Hydrated entity
		  - error: apperr.NotFound or database failures
	*/
	FindByTokenHash(context context.Context, tokenHash string) (*UserSession, error)

	/*
		Touch slides a session forward: updates lastActiveAt and expiresAt.

		Parameters:
		  - context: context.Context
		  - sessionID: string
		  - lastActiveAt: time.Time
		  - expiresAt: time.Time

		Returns:
		  - error: Persistence failures
	*/
	Touch(context context.Context, sessionID string, lastActiveAt, expiresAt time.Time) error

	/*
		ListByUser enumerates the live (unexpired) sessions of one user,
		newest activity first.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - []UserSession: Hydrated entities
		  - error: Database retrieval failures
	*/
	ListByUser(context context.Context, userID string) ([]UserSession, error)

	/*
		Delete removes one session, owner-checked: the row is only deleted
		when it belongs to userID, preventing cross-account termination.

		Parameters:
		  - context: context.Context
		  - sessionID: string
		  - userID: string

		Returns:
		  - error: apperr.NotFound when no owned row matched
	*/
	Delete(context context.Context, sessionID, userID string) error

	/*
		DeleteAllForUser removes every session of one user, optionally
		sparing the caller's current token.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - exceptTokenHash: string (empty spares nothing)

		Returns:
		  - int64: Rows removed
		  - error: Persistence failures
	*/
	DeleteAllForUser(context context.Context, userID, exceptTokenHash string) (int64, error)

	/*
		DeleteExpired removes sessions past their expiry.

		Parameters:
		  - context: context.Context

		Returns:
		  - int64: Rows removed
		  - error: Cleanup failures
	*/
	DeleteExpired(context context.Context) (int64, error)
}

// # Login-Attempt Data Access

// AttemptRepository defines the contract for the append-only login audit log.
type AttemptRepository interface {

	/*
		Record appends one attempt row.

		Parameters:
		  - context: context.Context
		  - attempt: *LoginAttempt

		Returns:
		  - error: Persistence failures
	*/
	Record(context context.Context, attempt *LoginAttempt) error

	/*
		ListSince returns the attempts for (email, tenantID) newer than the
		cutoff, newest first.

		Parameters:
		  - context: context.Context
		  - email: string
		  - tenantID: string
		  - since: time.Time

		Returns:
		  - []LoginAttempt: Newest first
		  - error: Database retrieval failures
	*/
	ListSince(context context.Context, email, tenantID string, since time.Time) ([]LoginAttempt, error)

	/*
		ListRecent returns the newest attempts for (email, tenantID) with no
		time bound, for security UI.

		Parameters:
		  - context: context.Context
		  - email: string
		  - tenantID: string
		  - limit: int

		Returns:
		  - []LoginAttempt: Newest first
		  - error: Database retrieval failures
	*/
	ListRecent(context context.Context, email, tenantID string, limit int) ([]LoginAttempt, error)

	/*
		DeleteOlderThan prunes audit rows past the retention horizon.

		Parameters:
		  - context: context.Context
		  - cutoff: time.Time

		Returns:
		  - int64: Rows removed
		  - error: Cleanup failures
	*/
	DeleteOlderThan(context context.Context, cutoff time.Time) (int64, error)
}

// # Volatile Data Access

// ThrottleRepository counts requests per key inside a fixed window. Backed by
// Redis INCR+EXPIRE.
type ThrottleRepository interface {

	/*
		Increment bumps the counter for a key, starting the window on first
		touch.

		Parameters:
		  - context: context.Context
		  - key: string
		  - window: time.Duration

		Returns:
		  - int64: The counter value after the increment
		  - error: Connectivity failures
	*/
	Increment(context context.Context, key string, window time.Duration) (int64, error)
}
