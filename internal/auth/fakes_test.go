// Copyright (c) 2026 TalentX. All rights reserved.
// Author: platform@talentx.app

// In-memory repository fakes for the auth package tests. Each fake mirrors the
// error contract of its PostgreSQL counterpart (same apperr types on misses)
// and is mutex-guarded so concurrency tests can hammer it from goroutines.
package auth

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/talentxhq/talentx-api/internal/platform/apperr"
	"github.com/talentxhq/talentx-api/internal/platform/sec"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// # User & Tenant Fakes

type memoryUserRepository struct {
	mu    sync.Mutex
	users map[string]*User
}

func newMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{users: make(map[string]*User)}
}

func cloneUser(user *User) *User {
	clone := *user
	clone.MfaBackupCodes = append([]string(nil), user.MfaBackupCodes...)
	clone.CustomPermissions = append([]string(nil), user.CustomPermissions...)
	return &clone
}

func (repository *memoryUserRepository) FindByID(_ context.Context, id string) (*User, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if user, ok := repository.users[id]; ok {
		return cloneUser(user), nil
	}
	return nil, apperr.NotFound("User not found")
}

func (repository *memoryUserRepository) FindByEmail(_ context.Context, email, tenantID string) (*User, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	for _, user := range repository.users {
		if user.Email == email && user.TenantID == tenantID {
			return cloneUser(user), nil
		}
	}
	return nil, apperr.NotFound("User not found with this email")
}

func (repository *memoryUserRepository) FindFirstByEmail(_ context.Context, email string) (*User, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	var newest *User
	for _, user := range repository.users {
		if user.Email != email {
			continue
		}
		if newest == nil || user.CreatedAt.After(newest.CreatedAt) {
			newest = user
		}
	}
	if newest == nil {
		return nil, apperr.NotFound("User not found with this email")
	}
	return cloneUser(newest), nil
}

func (repository *memoryUserRepository) Create(_ context.Context, user *User) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	user.UpdatedAt = user.CreatedAt
	repository.users[user.ID] = cloneUser(user)
	return nil
}

func (repository *memoryUserRepository) Update(_ context.Context, user *User) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if _, ok := repository.users[user.ID]; !ok {
		return apperr.NotFound("User not found")
	}
	user.UpdatedAt = time.Now()
	repository.users[user.ID] = cloneUser(user)
	return nil
}

func (repository *memoryUserRepository) UpdateLastLogin(_ context.Context, userID string, at time.Time) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	user, ok := repository.users[userID]
	if !ok {
		return apperr.NotFound("User not found")
	}
	user.LastLoginAt = &at
	user.LastActiveAt = &at
	return nil
}

type memoryTenantRepository struct {
	mu      sync.Mutex
	tenants map[string]*Tenant
}

func newMemoryTenantRepository() *memoryTenantRepository {
	return &memoryTenantRepository{tenants: make(map[string]*Tenant)}
}

func (repository *memoryTenantRepository) FindByID(_ context.Context, id string) (*Tenant, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if tenant, ok := repository.tenants[id]; ok {
		clone := *tenant
		return &clone, nil
	}
	return nil, apperr.NotFound("Tenant")
}

func (repository *memoryTenantRepository) FindByDomain(_ context.Context, domain string) (*Tenant, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	for _, tenant := range repository.tenants {
		if tenant.Domain == domain {
			clone := *tenant
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("Tenant not found for this domain")
}

func (repository *memoryTenantRepository) Create(_ context.Context, tenant *Tenant) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if tenant.CreatedAt.IsZero() {
		tenant.CreatedAt = time.Now()
	}
	clone := *tenant
	repository.tenants[tenant.ID] = &clone
	return nil
}

type memoryCustomRoleRepository struct {
	mu    sync.Mutex
	roles map[string]*CustomRole
}

func newMemoryCustomRoleRepository() *memoryCustomRoleRepository {
	return &memoryCustomRoleRepository{roles: make(map[string]*CustomRole)}
}

func (repository *memoryCustomRoleRepository) FindByID(_ context.Context, id string) (*CustomRole, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if role, ok := repository.roles[id]; ok {
		clone := *role
		clone.Permissions = append([]string(nil), role.Permissions...)
		return &clone, nil
	}
	return nil, apperr.NotFound("Custom role not found")
}

// # Token Fakes

type memoryRefreshTokenRepository struct {
	mu     sync.Mutex
	tokens map[string]*RefreshToken // keyed by token hash
}

func newMemoryRefreshTokenRepository() *memoryRefreshTokenRepository {
	return &memoryRefreshTokenRepository{tokens: make(map[string]*RefreshToken)}
}

func (repository *memoryRefreshTokenRepository) Create(_ context.Context, token *RefreshToken) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}
	clone := *token
	repository.tokens[token.TokenHash] = &clone
	return nil
}

func (repository *memoryRefreshTokenRepository) Consume(_ context.Context, tokenHash string) (*RefreshToken, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	token, ok := repository.tokens[tokenHash]
	if !ok || time.Now().After(token.ExpiresAt) {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}
	delete(repository.tokens, tokenHash)
	return token, nil
}

func (repository *memoryRefreshTokenRepository) DeleteAllForUser(_ context.Context, userID string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	for hash, token := range repository.tokens {
		if token.UserID == userID {
			delete(repository.tokens, hash)
		}
	}
	return nil
}

func (repository *memoryRefreshTokenRepository) DeleteExpired(_ context.Context) (int64, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	var removed int64
	now := time.Now()
	for hash, token := range repository.tokens {
		if now.After(token.ExpiresAt) {
			delete(repository.tokens, hash)
			removed++
		}
	}
	return removed, nil
}

func (repository *memoryRefreshTokenRepository) count() int {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	return len(repository.tokens)
}

type memoryResetTokenRepository struct {
	mu     sync.Mutex
	tokens map[string]*PasswordResetToken // keyed by ID
}

func newMemoryResetTokenRepository() *memoryResetTokenRepository {
	return &memoryResetTokenRepository{tokens: make(map[string]*PasswordResetToken)}
}

func (repository *memoryResetTokenRepository) InvalidateActive(_ context.Context, userID string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	now := time.Now()
	for _, token := range repository.tokens {
		if token.UserID == userID && !token.IsUsed {
			token.IsUsed = true
			token.UsedAt = &now
		}
	}
	return nil
}

func (repository *memoryResetTokenRepository) Create(_ context.Context, token *PasswordResetToken) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}
	clone := *token
	repository.tokens[token.ID] = &clone
	return nil
}

func (repository *memoryResetTokenRepository) FindByTokenHash(_ context.Context, tokenHash string) (*PasswordResetToken, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	for _, token := range repository.tokens {
		if token.TokenHash == tokenHash {
			clone := *token
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("Reset token not found")
}

func (repository *memoryResetTokenRepository) markUsed(id string) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if token, ok := repository.tokens[id]; ok {
		now := time.Now()
		token.IsUsed = true
		token.UsedAt = &now
	}
}

type memoryPasswordHistoryRepository struct {
	mu      sync.Mutex
	entries []PasswordHistoryEntry
}

func newMemoryPasswordHistoryRepository() *memoryPasswordHistoryRepository {
	return &memoryPasswordHistoryRepository{}
}

func (repository *memoryPasswordHistoryRepository) ListRecent(_ context.Context, userID string, limit int) ([]PasswordHistoryEntry, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	var matched []PasswordHistoryEntry
	for _, entry := range repository.entries {
		if entry.UserID == userID {
			matched = append(matched, entry)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (repository *memoryPasswordHistoryRepository) append(entry PasswordHistoryEntry) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	repository.entries = append(repository.entries, entry)
}

// memoryPasswordWriter replays the fan-out of the transactional writer against
// the sibling fakes: hash swap, history append, token burn, revocations.
type memoryPasswordWriter struct {
	users    *memoryUserRepository
	history  *memoryPasswordHistoryRepository
	resets   *memoryResetTokenRepository
	refresh  *memoryRefreshTokenRepository
	sessions *memorySessionRepository
}

func (writer *memoryPasswordWriter) ApplyPasswordChange(context context.Context, change PasswordChange) error {
	writer.users.mu.Lock()
	user, ok := writer.users.users[change.UserID]
	if !ok {
		writer.users.mu.Unlock()
		return apperr.NotFound("User not found")
	}
	user.PasswordHash = change.NewPasswordHash
	user.RequirePasswordChange = false
	user.TempPasswordExpiresAt = nil
	writer.users.mu.Unlock()

	if change.OldPasswordHash != "" {
		writer.history.append(PasswordHistoryEntry{
			ID:           change.HistoryEntryID,
			UserID:       change.UserID,
			PasswordHash: change.OldPasswordHash,
		})
	}
	if change.ResetTokenID != "" {
		writer.resets.markUsed(change.ResetTokenID)
	}
	if change.RevokeSessions {
		_ = writer.refresh.DeleteAllForUser(context, change.UserID)
		_, _ = writer.sessions.DeleteAllForUser(context, change.UserID, "")
	}
	return nil
}

// # OTP Fake

type memoryOtpRepository struct {
	mu    sync.Mutex
	codes []*OtpCode
}

func newMemoryOtpRepository() *memoryOtpRepository {
	return &memoryOtpRepository{}
}

func (repository *memoryOtpRepository) InvalidatePrior(_ context.Context, email, tenantID string, otpType OtpType) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	now := time.Now()
	for _, code := range repository.codes {
		if code.Email == email && code.TenantID == tenantID && code.Type == otpType && code.UsedAt == nil {
			code.UsedAt = &now
		}
	}
	return nil
}

func (repository *memoryOtpRepository) Create(_ context.Context, code *OtpCode) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if code.CreatedAt.IsZero() {
		code.CreatedAt = time.Now()
	}
	clone := *code
	repository.codes = append(repository.codes, &clone)
	return nil
}

func (repository *memoryOtpRepository) FindNewestUnused(_ context.Context, email, tenantID string, otpType OtpType) (*OtpCode, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	var newest *OtpCode
	for _, code := range repository.codes {
		if code.Email != email || code.TenantID != tenantID || code.Type != otpType || code.UsedAt != nil {
			continue
		}
		if newest == nil || code.CreatedAt.After(newest.CreatedAt) {
			newest = code
		}
	}
	if newest == nil {
		return nil, apperr.NotFound("No valid OTP found")
	}
	clone := *newest
	return &clone, nil
}

func (repository *memoryOtpRepository) FindUnusedByCode(_ context.Context, email, codeHash string, otpType OtpType) (*OtpCode, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	var newest *OtpCode
	for _, code := range repository.codes {
		if code.Email != email || code.CodeHash != codeHash || code.Type != otpType || code.UsedAt != nil {
			continue
		}
		if newest == nil || code.CreatedAt.After(newest.CreatedAt) {
			newest = code
		}
	}
	if newest == nil {
		return nil, apperr.NotFound("No valid OTP found")
	}
	clone := *newest
	return &clone, nil
}

func (repository *memoryOtpRepository) IncrementAttempts(_ context.Context, id string) (int, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	for _, code := range repository.codes {
		if code.ID == id {
			code.Attempts++
			return code.Attempts, nil
		}
	}
	return 0, apperr.NotFound("No valid OTP found")
}

func (repository *memoryOtpRepository) MarkUsed(_ context.Context, id string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	for _, code := range repository.codes {
		if code.ID == id {
			now := time.Now()
			code.UsedAt = &now
			return nil
		}
	}
	return apperr.NotFound("No valid OTP found")
}

func (repository *memoryOtpRepository) DeleteExpired(_ context.Context) (int64, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	now := time.Now()
	var kept []*OtpCode
	var removed int64
	for _, code := range repository.codes {
		if now.After(code.ExpiresAt) {
			removed++
			continue
		}
		kept = append(kept, code)
	}
	repository.codes = kept
	return removed, nil
}

// # Session Fake

type memorySessionRepository struct {
	mu       sync.Mutex
	sessions map[string]*UserSession
}

func newMemorySessionRepository() *memorySessionRepository {
	return &memorySessionRepository{sessions: make(map[string]*UserSession)}
}

func (repository *memorySessionRepository) Create(_ context.Context, session *UserSession) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	clone := *session
	repository.sessions[session.ID] = &clone
	return nil
}

func (repository *memorySessionRepository) FindByTokenHash(_ context.Context, tokenHash string) (*UserSession, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	for _, session := range repository.sessions {
		if session.TokenHash == tokenHash {
			clone := *session
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("Session not found")
}

func (repository *memorySessionRepository) Touch(_ context.Context, sessionID string, lastActiveAt, expiresAt time.Time) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	session, ok := repository.sessions[sessionID]
	if !ok {
		return apperr.NotFound("Session not found")
	}
	session.LastActiveAt = lastActiveAt
	session.ExpiresAt = expiresAt
	return nil
}

func (repository *memorySessionRepository) ListByUser(_ context.Context, userID string) ([]UserSession, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	now := time.Now()
	var matched []UserSession
	for _, session := range repository.sessions {
		if session.UserID == userID && session.ExpiresAt.After(now) {
			matched = append(matched, *session)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].LastActiveAt.After(matched[j].LastActiveAt) })
	return matched, nil
}

func (repository *memorySessionRepository) Delete(_ context.Context, sessionID, userID string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	session, ok := repository.sessions[sessionID]
	if !ok || session.UserID != userID {
		return apperr.NotFound("Session not found")
	}
	delete(repository.sessions, sessionID)
	return nil
}

func (repository *memorySessionRepository) DeleteAllForUser(_ context.Context, userID, exceptTokenHash string) (int64, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	var removed int64
	for id, session := range repository.sessions {
		if session.UserID != userID {
			continue
		}
		if exceptTokenHash != "" && session.TokenHash == exceptTokenHash {
			continue
		}
		delete(repository.sessions, id)
		removed++
	}
	return removed, nil
}

func (repository *memorySessionRepository) DeleteExpired(_ context.Context) (int64, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	now := time.Now()
	var removed int64
	for id, session := range repository.sessions {
		if now.After(session.ExpiresAt) {
			delete(repository.sessions, id)
			removed++
		}
	}
	return removed, nil
}

func (repository *memorySessionRepository) count() int {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	return len(repository.sessions)
}

// # Login-Attempt Fake

type memoryAttemptRepository struct {
	mu       sync.Mutex
	attempts []LoginAttempt
}

func newMemoryAttemptRepository() *memoryAttemptRepository {
	return &memoryAttemptRepository{}
}

func (repository *memoryAttemptRepository) Record(_ context.Context, attempt *LoginAttempt) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now()
	}
	repository.attempts = append(repository.attempts, *attempt)
	return nil
}

func (repository *memoryAttemptRepository) ListSince(_ context.Context, email, tenantID string, since time.Time) ([]LoginAttempt, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	var matched []LoginAttempt
	for _, attempt := range repository.attempts {
		if attempt.Email == email && attempt.TenantID == tenantID && attempt.CreatedAt.After(since) {
			matched = append(matched, attempt)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return matched, nil
}

func (repository *memoryAttemptRepository) ListRecent(_ context.Context, email, tenantID string, limit int) ([]LoginAttempt, error) {
	matched, _ := repository.ListSince(context.Background(), email, tenantID, time.Time{})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (repository *memoryAttemptRepository) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	var kept []LoginAttempt
	var removed int64
	for _, attempt := range repository.attempts {
		if attempt.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, attempt)
	}
	repository.attempts = kept
	return removed, nil
}

// # Volatile Fakes

type memoryThrottle struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newMemoryThrottle() *memoryThrottle {
	return &memoryThrottle{counts: make(map[string]int64)}
}

func (throttle *memoryThrottle) Increment(_ context.Context, key string, _ time.Duration) (int64, error) {
	throttle.mu.Lock()
	defer throttle.mu.Unlock()
	throttle.counts[key]++
	return throttle.counts[key], nil
}

// recordingMailer captures dispatched mail on buffered channels so tests can
// wait on the fire-and-forget send goroutines without sleeping.
type recordingMailer struct {
	otpCodes   chan string
	resetLinks chan string
	invites    chan string
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{
		otpCodes:   make(chan string, 16),
		resetLinks: make(chan string, 16),
		invites:    make(chan string, 16),
	}
}

func (mailer *recordingMailer) SendOtpEmail(_ context.Context, _, code, _ string) error {
	mailer.otpCodes <- code
	return nil
}

func (mailer *recordingMailer) SendPasswordResetEmail(_ context.Context, _, resetURL string) error {
	mailer.resetLinks <- resetURL
	return nil
}

func (mailer *recordingMailer) SendInvitationEmail(_ context.Context, email, _, _ string) error {
	mailer.invites <- email
	return nil
}

// fakeSigner implements AccessTokenSigner without real cryptography: tokens
// are opaque handles into an in-memory claims map, expiring by wall clock.
type fakeSigner struct {
	mu     sync.Mutex
	serial int
	issued map[string]fakeSignedToken
}

type fakeSignedToken struct {
	claims    sec.AuthClaims
	expiresAt time.Time
}

func newFakeSigner() *fakeSigner {
	return &fakeSigner{issued: make(map[string]fakeSignedToken)}
}

func (signer *fakeSigner) GenerateAccessToken(claims sec.AuthClaims, timeToLive time.Duration) (string, error) {
	signer.mu.Lock()
	defer signer.mu.Unlock()
	signer.serial++
	token := fmt.Sprintf("signed-%d", signer.serial)
	signer.issued[token] = fakeSignedToken{claims: claims, expiresAt: time.Now().Add(timeToLive)}
	return token, nil
}

func (signer *fakeSigner) VerifyToken(tokenString string) (*sec.AuthClaims, error) {
	signer.mu.Lock()
	defer signer.mu.Unlock()
	issued, ok := signer.issued[tokenString]
	if !ok || time.Now().After(issued.expiresAt) {
		return nil, apperr.Unauthorized("Invalid or expired token")
	}
	claims := issued.claims
	return &claims, nil
}
