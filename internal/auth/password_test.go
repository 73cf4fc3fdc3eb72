// Copyright (c) 2026 TalentX. All rights reserved.
// Author: platform@talentx.app

package auth

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentxhq/talentx-api/internal/platform/apperr"
	"github.com/talentxhq/talentx-api/internal/platform/sec"
	"github.com/talentxhq/talentx-api/pkg/uuid"
)

/*
TestValidatePasswordStrength verifies every policy rule fires independently and
that a weak password reports ALL its violations at once, not just the first.
*/
func TestValidatePasswordStrength(t *testing.T) {
	testCases := []struct {
		name       string
		password   string
		violations int
	}{
		{"acceptable", "Str0ng&Pass", 0},
		{"too short", "S0r!t", 1},
		{"missing lowercase", "UPPER123!", 1},
		{"missing uppercase", "lower123!", 1},
		{"missing digit", "NoDigits!", 1},
		{"missing symbol", "NoSymbol123", 1},
		{"symbol outside allowed set", "NoSymbol123#", 1},
		{"everything wrong at once", "zzzzzzzz", 3},
		{"short and empty of classes", "z", 4},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			violations := ValidatePasswordStrength(testCase.password)
			assert.Len(t, violations, testCase.violations)
		})
	}
}

func TestValidatePasswordStrength_ReportsEveryRule(t *testing.T) {
	violations := ValidatePasswordStrength("")
	require.Len(t, violations, 5)
	joined := strings.Join(violations, "\n")
	assert.Contains(t, joined, "at least 8 characters")
	assert.Contains(t, joined, "lowercase")
	assert.Contains(t, joined, "uppercase")
	assert.Contains(t, joined, "number")
	assert.Contains(t, joined, "special character")
}

// # Fixture

type passwordFixture struct {
	service  *PasswordService
	users    *memoryUserRepository
	history  *memoryPasswordHistoryRepository
	resets   *memoryResetTokenRepository
	refresh  *memoryRefreshTokenRepository
	sessions *memorySessionRepository
	throttle *memoryThrottle
	mailer   *recordingMailer
	hasher   *sec.Hasher
}

func newPasswordFixture() *passwordFixture {
	fixture := &passwordFixture{
		users:    newMemoryUserRepository(),
		history:  newMemoryPasswordHistoryRepository(),
		resets:   newMemoryResetTokenRepository(),
		refresh:  newMemoryRefreshTokenRepository(),
		sessions: newMemorySessionRepository(),
		throttle: newMemoryThrottle(),
		mailer:   newRecordingMailer(),
		hasher:   sec.NewHasher(4),
	}
	writer := &memoryPasswordWriter{
		users:    fixture.users,
		history:  fixture.history,
		resets:   fixture.resets,
		refresh:  fixture.refresh,
		sessions: fixture.sessions,
	}
	fixture.service = NewPasswordService(
		fixture.users, fixture.history, fixture.resets, writer,
		fixture.throttle, fixture.mailer, fixture.hasher,
		"https://app.talentx.test", testLogger())
	return fixture
}

func (fixture *passwordFixture) seedUser(t *testing.T, password string) *User {
	t.Helper()
	hash, err := fixture.hasher.Hash(password)
	require.NoError(t, err)
	user := &User{
		ID:           uuid.New(),
		TenantID:     uuid.New(),
		Email:        "casey@acme.io",
		PasswordHash: hash,
		FirstName:    "Casey",
		LastName:     "Reed",
		Role:         sec.RoleRecruiter,
		Status:       StatusActive,
	}
	require.NoError(t, fixture.users.Create(context.Background(), user))
	return user
}

func (fixture *passwordFixture) seedResetToken(t *testing.T, userID, rawToken string, expiresAt time.Time) *PasswordResetToken {
	t.Helper()
	token := &PasswordResetToken{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: sec.HashToken(rawToken),
		ExpiresAt: expiresAt,
	}
	require.NoError(t, fixture.resets.Create(context.Background(), token))
	return token
}

func requireStatus(t *testing.T, err error, httpStatus int) *apperr.AppError {
	t.Helper()
	appError := apperr.As(err)
	require.NotNil(t, appError, "expected an AppError, got %v", err)
	require.Equal(t, httpStatus, appError.HTTPStatus, "message: %s", appError.Message)
	return appError
}

// # Reuse Check

func TestPasswordService_IsReused(t *testing.T) {
	fixture := newPasswordFixture()
	ctx := context.Background()
	user := fixture.seedUser(t, "Current1&pass")

	retiredHash, err := fixture.hasher.Hash("Retired2&pass")
	require.NoError(t, err)
	fixture.history.append(PasswordHistoryEntry{ID: uuid.New(), UserID: user.ID, PasswordHash: retiredHash})

	reused, err := fixture.service.IsReused(ctx, user, "Current1&pass")
	require.NoError(t, err)
	assert.True(t, reused, "current password counts as reuse")

	reused, err = fixture.service.IsReused(ctx, user, "Retired2&pass")
	require.NoError(t, err)
	assert.True(t, reused, "history password counts as reuse")

	reused, err = fixture.service.IsReused(ctx, user, "Fresh3&password")
	require.NoError(t, err)
	assert.False(t, reused)
}

/*
TestPasswordService_IsReused_HistoryWindow verifies only the newest
PasswordHistoryLimit retired hashes are consulted: a password older than the
window becomes reusable again.
*/
func TestPasswordService_IsReused_HistoryWindow(t *testing.T) {
	fixture := newPasswordFixture()
	ctx := context.Background()
	user := fixture.seedUser(t, "Current1&pass")

	base := time.Now().Add(-time.Hour)
	for index := 0; index < PasswordHistoryLimit+1; index++ {
		hash, err := fixture.hasher.Hash("Old&pass" + string(rune('0'+index)))
		require.NoError(t, err)
		fixture.history.append(PasswordHistoryEntry{
			ID:           uuid.New(),
			UserID:       user.ID,
			PasswordHash: hash,
			CreatedAt:    base.Add(time.Duration(index) * time.Minute),
		})
	}

	// Oldest entry fell off the window.
	reused, err := fixture.service.IsReused(ctx, user, "Old&pass0")
	require.NoError(t, err)
	assert.False(t, reused)

	reused, err = fixture.service.IsReused(ctx, user, "Old&pass3")
	require.NoError(t, err)
	assert.True(t, reused)
}

// # Forgot Password

func TestForgotPassword_UnknownEmailSucceedsSilently(t *testing.T) {
	fixture := newPasswordFixture()

	err := fixture.service.ForgotPassword(context.Background(), "nobody@acme.io", "")
	require.NoError(t, err, "unknown addresses must be indistinguishable from known ones")

	select {
	case link := <-fixture.mailer.resetLinks:
		t.Fatalf("no email expected for unknown account, got %s", link)
	default:
	}
}

func TestForgotPassword_IssuesRedeemableToken(t *testing.T) {
	fixture := newPasswordFixture()
	ctx := context.Background()
	fixture.seedUser(t, "Current1&pass")

	require.NoError(t, fixture.service.ForgotPassword(ctx, "casey@acme.io", ""))

	var resetURL string
	select {
	case resetURL = <-fixture.mailer.resetLinks:
	case <-time.After(2 * time.Second):
		t.Fatal("reset email never dispatched")
	}

	rawToken := resetURL[strings.Index(resetURL, "token=")+len("token="):]
	require.NotEmpty(t, rawToken)

	require.NoError(t, fixture.service.ResetPassword(ctx, rawToken, "Brand9&newpass"))
}

func TestForgotPassword_InvalidatesPriorToken(t *testing.T) {
	fixture := newPasswordFixture()
	ctx := context.Background()
	user := fixture.seedUser(t, "Current1&pass")
	fixture.seedResetToken(t, user.ID, "first-token", time.Now().Add(ResetTokenTTL))

	require.NoError(t, fixture.service.ForgotPassword(ctx, "casey@acme.io", ""))

	err := fixture.service.ResetPassword(ctx, "first-token", "Brand9&newpass")
	appError := requireStatus(t, err, http.StatusBadRequest)
	assert.Contains(t, appError.Message, "already been used")
}

func TestForgotPassword_Throttled(t *testing.T) {
	fixture := newPasswordFixture()
	ctx := context.Background()
	fixture.seedUser(t, "Current1&pass")

	for request := 0; request < ResetRequestLimit; request++ {
		require.NoError(t, fixture.service.ForgotPassword(ctx, "casey@acme.io", ""))
	}

	err := fixture.service.ForgotPassword(ctx, "casey@acme.io", "")
	requireStatus(t, err, http.StatusTooManyRequests)
}

// # Reset Password

func TestResetPassword_UnknownToken(t *testing.T) {
	fixture := newPasswordFixture()

	err := fixture.service.ResetPassword(context.Background(), "never-issued", "Brand9&newpass")
	requireStatus(t, err, http.StatusUnauthorized)
}

func TestResetPassword_ExpiredToken(t *testing.T) {
	fixture := newPasswordFixture()
	user := fixture.seedUser(t, "Current1&pass")
	fixture.seedResetToken(t, user.ID, "stale-token", time.Now().Add(-time.Minute))

	err := fixture.service.ResetPassword(context.Background(), "stale-token", "Brand9&newpass")
	appError := requireStatus(t, err, http.StatusBadRequest)
	assert.Contains(t, appError.Message, "expired")
}

func TestResetPassword_AlreadyUsedToken(t *testing.T) {
	fixture := newPasswordFixture()
	ctx := context.Background()
	user := fixture.seedUser(t, "Current1&pass")
	fixture.seedResetToken(t, user.ID, "once-token", time.Now().Add(ResetTokenTTL))

	require.NoError(t, fixture.service.ResetPassword(ctx, "once-token", "Brand9&newpass"))

	// Single use: the second redemption reports the distinct already-used error.
	err := fixture.service.ResetPassword(ctx, "once-token", "Another7?pass")
	appError := requireStatus(t, err, http.StatusBadRequest)
	assert.Contains(t, appError.Message, "already been used")
}

func TestResetPassword_WeakPassword(t *testing.T) {
	fixture := newPasswordFixture()
	user := fixture.seedUser(t, "Current1&pass")
	fixture.seedResetToken(t, user.ID, "reset-token", time.Now().Add(ResetTokenTTL))

	err := fixture.service.ResetPassword(context.Background(), "reset-token", "weak")
	appError := requireStatus(t, err, http.StatusBadRequest)
	assert.NotEmpty(t, appError.Details, "policy violations carried as field errors")
}

func TestResetPassword_RejectsReuse(t *testing.T) {
	fixture := newPasswordFixture()
	user := fixture.seedUser(t, "Current1&pass")
	fixture.seedResetToken(t, user.ID, "reset-token", time.Now().Add(ResetTokenTTL))

	err := fixture.service.ResetPassword(context.Background(), "reset-token", "Current1&pass")
	appError := requireStatus(t, err, http.StatusBadRequest)
	assert.Contains(t, appError.Message, "last 3 passwords")
}

/*
TestResetPassword_RevokesEverything verifies the reset fan-out: new hash in
place, old hash retired into history, and every refresh token and device
session of the user revoked.
*/
func TestResetPassword_RevokesEverything(t *testing.T) {
	fixture := newPasswordFixture()
	ctx := context.Background()
	user := fixture.seedUser(t, "Current1&pass")
	fixture.seedResetToken(t, user.ID, "reset-token", time.Now().Add(ResetTokenTTL))

	require.NoError(t, fixture.refresh.Create(ctx, &RefreshToken{
		ID: uuid.New(), UserID: user.ID, TokenHash: sec.HashToken("some-refresh"),
		ExpiresAt: time.Now().Add(RefreshTokenTTL),
	}))
	require.NoError(t, fixture.sessions.Create(ctx, &UserSession{
		ID: uuid.New(), UserID: user.ID, TokenHash: sec.HashToken("some-session"),
		LastActiveAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour),
	}))

	require.NoError(t, fixture.service.ResetPassword(ctx, "reset-token", "Brand9&newpass"))

	updated, err := fixture.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, sec.CheckPasswordHash("Brand9&newpass", updated.PasswordHash))

	entries, err := fixture.history.ListRecent(ctx, user.ID, PasswordHistoryLimit)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, sec.CheckPasswordHash("Current1&pass", entries[0].PasswordHash))

	assert.Zero(t, fixture.refresh.count(), "refresh tokens revoked")
	assert.Zero(t, fixture.sessions.count(), "sessions revoked")
}

// # Change Password

func TestChangePassword_WrongCurrent(t *testing.T) {
	fixture := newPasswordFixture()
	user := fixture.seedUser(t, "Current1&pass")

	err := fixture.service.ChangePassword(context.Background(), user.ID, "Not2&thepass", "Brand9&newpass")
	appError := requireStatus(t, err, http.StatusUnauthorized)
	assert.Contains(t, appError.Message, "Current password is incorrect")
}

func TestChangePassword_KeepsSessionsAlive(t *testing.T) {
	fixture := newPasswordFixture()
	ctx := context.Background()
	user := fixture.seedUser(t, "Current1&pass")

	require.NoError(t, fixture.sessions.Create(ctx, &UserSession{
		ID: uuid.New(), UserID: user.ID, TokenHash: sec.HashToken("some-session"),
		LastActiveAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour),
	}))

	require.NoError(t, fixture.service.ChangePassword(ctx, user.ID, "Current1&pass", "Brand9&newpass"))

	updated, err := fixture.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, sec.CheckPasswordHash("Brand9&newpass", updated.PasswordHash))
	assert.Equal(t, 1, fixture.sessions.count(), "change keeps existing sessions")
}

func TestChangePassword_RejectsReuseOfHistory(t *testing.T) {
	fixture := newPasswordFixture()
	ctx := context.Background()
	user := fixture.seedUser(t, "Current1&pass")

	require.NoError(t, fixture.service.ChangePassword(ctx, user.ID, "Current1&pass", "Brand9&newpass"))

	// The retired password is now in history and cannot come back.
	err := fixture.service.ChangePassword(ctx, user.ID, "Brand9&newpass", "Current1&pass")
	requireStatus(t, err, http.StatusBadRequest)
}
