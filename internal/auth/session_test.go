// Copyright (c) 2026 TalentX. All rights reserved.
// Author: platform@talentx.app

package auth

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentxhq/talentx-api/internal/platform/sec"
	"github.com/talentxhq/talentx-api/pkg/uuid"
)

type sessionFixture struct {
	service  *SessionService
	sessions *memorySessionRepository
	users    *memoryUserRepository
}

func newSessionFixture() *sessionFixture {
	fixture := &sessionFixture{
		sessions: newMemorySessionRepository(),
		users:    newMemoryUserRepository(),
	}
	fixture.service = NewSessionService(fixture.sessions, fixture.users)
	return fixture
}

func (fixture *sessionFixture) seedUser(t *testing.T, role sec.UserRole) *User {
	t.Helper()
	user := &User{
		ID:       uuid.New(),
		TenantID: uuid.New(),
		Email:    "casey@acme.io",
		Role:     role,
		Status:   StatusActive,
	}
	require.NoError(t, fixture.users.Create(context.Background(), user))
	return user
}

// # Creation & Validation

/*
TestCreateSession_RoleTimeouts verifies the role-based idle timeout: admins get
a short session, candidates keep a week-long one.
*/
func TestCreateSession_RoleTimeouts(t *testing.T) {
	fixture := newSessionFixture()
	ctx := context.Background()

	admin := fixture.seedUser(t, sec.RoleAdmin)
	adminSession, err := fixture.service.CreateSession(ctx, admin, "go-test", "10.0.0.1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), adminSession.ExpiresAt, 5*time.Second)

	candidate := fixture.seedUser(t, sec.RoleCandidate)
	candidateSession, err := fixture.service.CreateSession(ctx, candidate, "go-test", "10.0.0.1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), candidateSession.ExpiresAt, 5*time.Second)
}

func TestValidateSession(t *testing.T) {
	fixture := newSessionFixture()
	ctx := context.Background()
	user := fixture.seedUser(t, sec.RoleRecruiter)

	created, err := fixture.service.CreateSession(ctx, user, "go-test", "10.0.0.1")
	require.NoError(t, err)

	validation, err := fixture.service.ValidateSession(ctx, created.SessionToken)
	require.NoError(t, err)
	assert.True(t, validation.Valid)
	assert.Equal(t, user.ID, validation.UserID)
	require.NotNil(t, validation.WarningThreshold)
	assert.Equal(t, created.ExpiresAt.Add(-sec.SessionWarningLead), *validation.WarningThreshold)
}

/*
TestValidateSession_FailsClosed verifies unknown and expired tokens both come
back as Valid=false with no error, leaking nothing about which case it was.
*/
func TestValidateSession_FailsClosed(t *testing.T) {
	fixture := newSessionFixture()
	ctx := context.Background()

	validation, err := fixture.service.ValidateSession(ctx, "never-issued")
	require.NoError(t, err)
	assert.False(t, validation.Valid)
	assert.Empty(t, validation.UserID)

	require.NoError(t, fixture.sessions.Create(ctx, &UserSession{
		ID: uuid.New(), UserID: uuid.New(), TokenHash: sec.HashToken("stale-session"),
		LastActiveAt: time.Now().Add(-2 * time.Hour), ExpiresAt: time.Now().Add(-time.Hour),
	}))

	validation, err = fixture.service.ValidateSession(ctx, "stale-session")
	require.NoError(t, err)
	assert.False(t, validation.Valid)
}

// # Sliding Expiry

/*
TestRefreshSession_Slides verifies session refresh is an idle timeout, not an
absolute cap: the expiry moves to now + the role timeout and the token itself
is not rotated.
*/
func TestRefreshSession_Slides(t *testing.T) {
	fixture := newSessionFixture()
	ctx := context.Background()
	user := fixture.seedUser(t, sec.RoleRecruiter)

	// A session deep into its window, 1 minute from expiring.
	require.NoError(t, fixture.sessions.Create(ctx, &UserSession{
		ID: uuid.New(), UserID: user.ID, TokenHash: sec.HashToken("live-session"),
		LastActiveAt: time.Now().Add(-59 * time.Minute), ExpiresAt: time.Now().Add(time.Minute),
	}))

	refreshed, err := fixture.service.RefreshSession(ctx, "live-session")
	require.NoError(t, err)
	assert.Equal(t, "live-session", refreshed.SessionToken, "token is not rotated")
	assert.WithinDuration(t, time.Now().Add(user.Role.SessionTimeout()), refreshed.ExpiresAt, 5*time.Second)

	validation, err := fixture.service.ValidateSession(ctx, "live-session")
	require.NoError(t, err)
	assert.True(t, validation.Valid)
	assert.WithinDuration(t, refreshed.ExpiresAt, *validation.ExpiresAt, time.Second)
}

func TestRefreshSession_ExpiredOrUnknown(t *testing.T) {
	fixture := newSessionFixture()
	ctx := context.Background()
	user := fixture.seedUser(t, sec.RoleRecruiter)

	_, err := fixture.service.RefreshSession(ctx, "never-issued")
	requireStatus(t, err, http.StatusUnauthorized)

	require.NoError(t, fixture.sessions.Create(ctx, &UserSession{
		ID: uuid.New(), UserID: user.ID, TokenHash: sec.HashToken("stale-session"),
		LastActiveAt: time.Now().Add(-2 * time.Hour), ExpiresAt: time.Now().Add(-time.Hour),
	}))

	_, err = fixture.service.RefreshSession(ctx, "stale-session")
	requireStatus(t, err, http.StatusUnauthorized)
}

// # Device Management

func TestGetUserSessions_FlagsCurrent(t *testing.T) {
	fixture := newSessionFixture()
	ctx := context.Background()
	user := fixture.seedUser(t, sec.RoleRecruiter)

	laptop, err := fixture.service.CreateSession(ctx, user, "laptop", "10.0.0.1")
	require.NoError(t, err)
	_, err = fixture.service.CreateSession(ctx, user, "phone", "10.0.0.2")
	require.NoError(t, err)

	infos, err := fixture.service.GetUserSessions(ctx, user.ID, laptop.SessionToken)
	require.NoError(t, err)
	require.Len(t, infos, 2)

	currentCount := 0
	for _, info := range infos {
		if info.IsCurrent {
			currentCount++
			assert.Equal(t, "laptop", info.UserAgent)
		}
	}
	assert.Equal(t, 1, currentCount)
}

func TestTerminateSession_OwnerChecked(t *testing.T) {
	fixture := newSessionFixture()
	ctx := context.Background()
	owner := fixture.seedUser(t, sec.RoleRecruiter)
	stranger := fixture.seedUser(t, sec.RoleRecruiter)

	_, err := fixture.service.CreateSession(ctx, owner, "laptop", "10.0.0.1")
	require.NoError(t, err)
	infos, err := fixture.service.GetUserSessions(ctx, owner.ID, "")
	require.NoError(t, err)
	require.Len(t, infos, 1)
	sessionID := infos[0].ID

	err = fixture.service.TerminateSession(ctx, sessionID, stranger.ID)
	requireStatus(t, err, http.StatusNotFound)
	assert.Equal(t, 1, fixture.sessions.count(), "cross-account termination rejected")

	require.NoError(t, fixture.service.TerminateSession(ctx, sessionID, owner.ID))
	assert.Zero(t, fixture.sessions.count())
}

func TestTerminateAllSessions_SparesCurrent(t *testing.T) {
	fixture := newSessionFixture()
	ctx := context.Background()
	user := fixture.seedUser(t, sec.RoleRecruiter)

	current, err := fixture.service.CreateSession(ctx, user, "laptop", "10.0.0.1")
	require.NoError(t, err)
	_, err = fixture.service.CreateSession(ctx, user, "phone", "10.0.0.2")
	require.NoError(t, err)
	_, err = fixture.service.CreateSession(ctx, user, "tablet", "10.0.0.3")
	require.NoError(t, err)

	removed, err := fixture.service.TerminateAllSessions(ctx, user.ID, current.SessionToken)
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	validation, err := fixture.service.ValidateSession(ctx, current.SessionToken)
	require.NoError(t, err)
	assert.True(t, validation.Valid, "caller's own session survives")
}

func TestGetSessionTimeout(t *testing.T) {
	fixture := newSessionFixture()

	info := fixture.service.GetSessionTimeout(sec.RoleAdmin)
	assert.Equal(t, 30, info.TimeoutMinutes)
	assert.Equal(t, 2, info.WarningMinutes)

	info = fixture.service.GetSessionTimeout(sec.RoleCandidate)
	assert.Equal(t, int((7 * 24 * time.Hour).Minutes()), info.TimeoutMinutes)
}
