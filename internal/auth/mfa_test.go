// Copyright (c) 2026 TalentX. All rights reserved.
// Author: platform@talentx.app

package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentxhq/talentx-api/internal/platform/sec"
	"github.com/talentxhq/talentx-api/pkg/uuid"
)

// totpNow computes the current RFC 6238 code for a base32 secret, so tests can
// play the role of the authenticator app.
func totpNow(t *testing.T, secret string) string {
	t.Helper()
	secretBytes, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(secret)
	require.NoError(t, err)

	var counterBytes [8]byte
	binary.BigEndian.PutUint64(counterBytes[:], uint64(time.Now().Unix()/30))
	mac := hmac.New(sha1.New, secretBytes)
	mac.Write(counterBytes[:])
	digest := mac.Sum(nil)
	offset := digest[len(digest)-1] & 0x0f
	truncated := binary.BigEndian.Uint32(digest[offset:offset+4]) & 0x7fffffff
	return fmt.Sprintf("%06d", truncated%1000000)
}

type mfaFixture struct {
	service *MfaService
	users   *memoryUserRepository
	hasher  *sec.Hasher
}

func newMfaFixture() *mfaFixture {
	fixture := &mfaFixture{
		users:  newMemoryUserRepository(),
		hasher: sec.NewHasher(4),
	}
	fixture.service = NewMfaService(fixture.users, fixture.hasher, false, testLogger())
	return fixture
}

func (fixture *mfaFixture) seedUser(t *testing.T, password string) *User {
	t.Helper()
	user := &User{
		ID:       uuid.New(),
		TenantID: uuid.New(),
		Email:    "casey@acme.io",
		Role:     sec.RoleRecruiter,
		Status:   StatusActive,
	}
	if password != "" {
		hash, err := fixture.hasher.Hash(password)
		require.NoError(t, err)
		user.PasswordHash = hash
	}
	require.NoError(t, fixture.users.Create(context.Background(), user))
	return user
}

// enroll walks the full two-phase enrollment and returns the secret and the
// plaintext backup codes.
func (fixture *mfaFixture) enroll(t *testing.T, userID string) (string, []string) {
	t.Helper()
	ctx := context.Background()
	setup, err := fixture.service.InitiateSetup(ctx, userID)
	require.NoError(t, err)
	backupCodes, err := fixture.service.ConfirmSetup(ctx, userID, totpNow(t, setup.Secret))
	require.NoError(t, err)
	return setup.Secret, backupCodes
}

// # Enrollment

/*
TestMfaInitiateSetup verifies the pending state: the secret is stored on the
account but MfaEnabled stays false until possession is proven.
*/
func TestMfaInitiateSetup(t *testing.T) {
	fixture := newMfaFixture()
	ctx := context.Background()
	user := fixture.seedUser(t, "Current1&pass")

	setup, err := fixture.service.InitiateSetup(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, setup.Secret)
	assert.Contains(t, setup.OtpauthURL, "otpauth://totp/")
	assert.Contains(t, setup.OtpauthURL, "secret="+setup.Secret)
	assert.True(t, strings.HasPrefix(setup.QRCode, "data:image/png;base64,"))

	stored, err := fixture.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, setup.Secret, stored.MfaSecret)
	assert.False(t, stored.MfaEnabled, "not enforced until confirmed")
}

func TestMfaInitiateSetup_ReplacesPendingSecret(t *testing.T) {
	fixture := newMfaFixture()
	ctx := context.Background()
	user := fixture.seedUser(t, "Current1&pass")

	first, err := fixture.service.InitiateSetup(ctx, user.ID)
	require.NoError(t, err)
	second, err := fixture.service.InitiateSetup(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.Secret, second.Secret)

	// Only the latest pending secret confirms.
	_, err = fixture.service.ConfirmSetup(ctx, user.ID, totpNow(t, second.Secret))
	require.NoError(t, err)
}

func TestMfaConfirmSetup(t *testing.T) {
	fixture := newMfaFixture()
	ctx := context.Background()
	user := fixture.seedUser(t, "Current1&pass")

	_, err := fixture.service.ConfirmSetup(ctx, user.ID, "123456")
	requireStatus(t, err, http.StatusBadRequest) // nothing initiated

	setup, err := fixture.service.InitiateSetup(ctx, user.ID)
	require.NoError(t, err)

	_, err = fixture.service.ConfirmSetup(ctx, user.ID, wrongCode(totpNow(t, setup.Secret)))
	requireStatus(t, err, http.StatusUnauthorized)

	backupCodes, err := fixture.service.ConfirmSetup(ctx, user.ID, totpNow(t, setup.Secret))
	require.NoError(t, err)
	assert.Len(t, backupCodes, BackupCodeCount)

	status, err := fixture.service.Status(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, status.Enabled)
	assert.Equal(t, BackupCodeCount, status.BackupCodesRemaining)

	// Re-enrolling an enabled account conflicts.
	_, err = fixture.service.InitiateSetup(ctx, user.ID)
	requireStatus(t, err, http.StatusConflict)
}

// # Verification

func TestMfaVerify_Totp(t *testing.T) {
	fixture := newMfaFixture()
	ctx := context.Background()
	user := fixture.seedUser(t, "Current1&pass")
	secret, _ := fixture.enroll(t, user.ID)

	accepted, err := fixture.service.Verify(ctx, user.ID, totpNow(t, secret))
	require.NoError(t, err)
	assert.True(t, accepted)

	accepted, err = fixture.service.Verify(ctx, user.ID, wrongCode(totpNow(t, secret)))
	require.NoError(t, err)
	assert.False(t, accepted)
}

func TestMfaVerify_NotEnabled(t *testing.T) {
	fixture := newMfaFixture()
	user := fixture.seedUser(t, "Current1&pass")

	_, err := fixture.service.Verify(context.Background(), user.ID, "123456")
	requireStatus(t, err, http.StatusBadRequest)
}

/*
TestMfaVerify_BackupCodeConsumed verifies the recovery fallback: a backup code
is accepted once, removed from the pool, and never replayable.
*/
func TestMfaVerify_BackupCodeConsumed(t *testing.T) {
	fixture := newMfaFixture()
	ctx := context.Background()
	user := fixture.seedUser(t, "Current1&pass")
	_, backupCodes := fixture.enroll(t, user.ID)

	accepted, err := fixture.service.Verify(ctx, user.ID, backupCodes[0])
	require.NoError(t, err)
	assert.True(t, accepted)

	status, err := fixture.service.Status(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, BackupCodeCount-1, status.BackupCodesRemaining)

	accepted, err = fixture.service.Verify(ctx, user.ID, backupCodes[0])
	require.NoError(t, err)
	assert.False(t, accepted, "a consumed backup code must not replay")
}

// # Disable

func TestMfaDisable(t *testing.T) {
	fixture := newMfaFixture()
	ctx := context.Background()
	user := fixture.seedUser(t, "Current1&pass")
	secret, _ := fixture.enroll(t, user.ID)

	err := fixture.service.Disable(ctx, user.ID, "Not2&thepass", totpNow(t, secret))
	requireStatus(t, err, http.StatusUnauthorized)

	err = fixture.service.Disable(ctx, user.ID, "Current1&pass", wrongCode(totpNow(t, secret)))
	requireStatus(t, err, http.StatusUnauthorized)

	require.NoError(t, fixture.service.Disable(ctx, user.ID, "Current1&pass", totpNow(t, secret)))

	stored, err := fixture.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, stored.MfaEnabled)
	assert.Empty(t, stored.MfaSecret)
	assert.Empty(t, stored.MfaBackupCodes)
}

func TestMfaDisable_WithBackupCode(t *testing.T) {
	fixture := newMfaFixture()
	ctx := context.Background()
	user := fixture.seedUser(t, "Current1&pass")
	_, backupCodes := fixture.enroll(t, user.ID)

	require.NoError(t, fixture.service.Disable(ctx, user.ID, "Current1&pass", backupCodes[0]))

	status, err := fixture.service.Status(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, status.Enabled)
	assert.Zero(t, status.BackupCodesRemaining)
}

// # Enforcement

func TestIsMfaRequired(t *testing.T) {
	fixture := newMfaFixture()

	assert.False(t, fixture.service.IsMfaRequired(&User{Role: sec.RoleRecruiter}))
	assert.True(t, fixture.service.IsMfaRequired(&User{Role: sec.RoleRecruiter, MfaEnabled: true}))
	assert.True(t, fixture.service.IsMfaRequired(&User{Role: sec.RoleVendor}), "vendors are always challenged")

	enforced := NewMfaService(fixture.users, fixture.hasher, true, testLogger())
	assert.True(t, enforced.IsMfaRequired(&User{Role: sec.RoleRecruiter}), "global switch challenges everyone")
}
