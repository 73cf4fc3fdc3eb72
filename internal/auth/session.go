// Copyright (c) 2026 TalentX. All rights reserved.
// Author: platform@talentx.app

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/talentxhq/talentx-api/internal/platform/apperr"
	"github.com/talentxhq/talentx-api/internal/platform/sec"
	"github.com/talentxhq/talentx-api/pkg/uuid"
)

// # Types

// NewSession is the result of session creation: the raw opaque token is only
// ever returned here, never stored or logged.
type NewSession struct {
	SessionToken string    `json:"sessionToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// SessionValidation is the fail-closed result of a session check.
type SessionValidation struct {
	Valid            bool       `json:"valid"`
	UserID           string     `json:"userId,omitempty"`
	ExpiresAt        *time.Time `json:"expiresAt,omitempty"`
	WarningThreshold *time.Time `json:"warningThreshold,omitempty"` // When clients should prompt "session expiring soon".
}

// SessionInfo describes one live device session for management UI.
type SessionInfo struct {
	ID           string    `json:"id"`
	IPAddress    string    `json:"ipAddress"`
	UserAgent    string    `json:"userAgent"`
	IsCurrent    bool      `json:"isCurrent"`
	LastActiveAt time.Time `json:"lastActiveAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
	CreatedAt    time.Time `json:"createdAt"`
}

// SessionTimeoutInfo exposes the role-based timeout for client countdown UI.
type SessionTimeoutInfo struct {
	TimeoutMinutes int `json:"timeoutMinutes"`
	WarningMinutes int `json:"warningMinutes"`
}

// # Session Manager

// SessionService manages opaque device sessions, orthogonal to the JWT and
// refresh-token pair. Sessions carry a role-based sliding idle timeout: short
// for privileged roles, a week for candidates.
type SessionService struct {
	sessionRepository SessionRepository
	userRepository    UserRepository
}

// NewSessionService constructs a new [SessionService] with necessary dependencies.
func NewSessionService(sessionRepo SessionRepository, userRepo UserRepository) *SessionService {
	return &SessionService{
		sessionRepository: sessionRepo,
		userRepository:    userRepo,
	}
}

/*
CreateSession issues an opaque session token with a role-based idle timeout.

Parameters:
  - context: context.Context
  - user: *User
  - userAgent: string
  - ipAddress: string

Returns:
  - *NewSession: Raw token and expiry
  - error: Persistence failures
*/
func (service *SessionService) CreateSession(context context.Context, user *User, userAgent, ipAddress string) (*NewSession, error) {

	rawToken, err := sec.GenerateSecureToken(SessionTokenLength)
	if err != nil {
		return nil, fmt.Errorf("session_token_generate_failed: %w", err)
	}

	now := time.Now()
	expiresAt := now.Add(user.Role.SessionTimeout())

	session := &UserSession{
		ID:           uuid.New(),
		UserID:       user.ID,
		TokenHash:    sec.HashToken(rawToken),
		IPAddress:    ipAddress,
		UserAgent:    userAgent,
		LastActiveAt: now,
		ExpiresAt:    expiresAt,
	}
	if err := service.sessionRepository.Create(context, session); err != nil {
		return nil, fmt.Errorf("session_create_failed: %w", err)
	}

	return &NewSession{SessionToken: rawToken, ExpiresAt: expiresAt}, nil
}

/*
ValidateSession checks an opaque token and fails closed: unknown tokens and
expired sessions both yield Valid=false rather than an error, so the transport
layer can answer the probe without leaking why it failed.

Parameters:
  - context: context.Context
  - rawToken: string

Returns:
  - *SessionValidation: Valid flag plus expiry and warning threshold when live
  - error: Database failures only, never a validation verdict
*/
func (service *SessionService) ValidateSession(context context.Context, rawToken string) (*SessionValidation, error) {

	session, err := service.sessionRepository.FindByTokenHash(context, sec.HashToken(rawToken))
	if err != nil {
		if apperr.IsAppError(err) {
			return &SessionValidation{Valid: false}, nil
		}
		return nil, fmt.Errorf("session_validate_failed: %w", err)
	}

	if time.Now().After(session.ExpiresAt) {
		return &SessionValidation{Valid: false}, nil
	}

	warningThreshold := session.ExpiresAt.Add(-sec.SessionWarningLead)
	return &SessionValidation{
		Valid:            true,
		UserID:           session.UserID,
		ExpiresAt:        &session.ExpiresAt,
		WarningThreshold: &warningThreshold,
	}, nil
}

/*
RefreshSession slides the expiry forward to now + the role timeout — an idle
timeout, not an absolute cap. The user's lastActiveAt is stamped as a side
effect for presence display.

Parameters:
  - context: context.Context
  - rawToken: string

Returns:
  - *NewSession: The same token with its new expiry (token is not rotated)
  - error: Unauthorized on unknown or expired sessions
*/
func (service *SessionService) RefreshSession(context context.Context, rawToken string) (*NewSession, error) {

	session, err := service.sessionRepository.FindByTokenHash(context, sec.HashToken(rawToken))
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired session")
	}

	now := time.Now()
	if now.After(session.ExpiresAt) {
		return nil, apperr.Unauthorized("Invalid or expired session")
	}

	user, err := service.userRepository.FindByID(context, session.UserID)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired session")
	}

	expiresAt := now.Add(user.Role.SessionTimeout())
	if err := service.sessionRepository.Touch(context, session.ID, now, expiresAt); err != nil {
		return nil, fmt.Errorf("session_touch_failed: %w", err)
	}

	return &NewSession{SessionToken: rawToken, ExpiresAt: expiresAt}, nil
}

/*
GetUserSessions enumerates the live sessions of one user for device-management
UI, flagging the one matching the caller's current token.

Parameters:
  - context: context.Context
  - userID: string
  - currentRawToken: string (empty flags nothing)

Returns:
  - []SessionInfo: Newest activity first
  - error: Database retrieval failures
*/
func (service *SessionService) GetUserSessions(context context.Context, userID, currentRawToken string) ([]SessionInfo, error) {

	sessions, err := service.sessionRepository.ListByUser(context, userID)
	if err != nil {
		return nil, fmt.Errorf("session_list_failed: %w", err)
	}

	currentHash := ""
	if currentRawToken != "" {
		currentHash = sec.HashToken(currentRawToken)
	}

	infos := make([]SessionInfo, 0, len(sessions))
	for _, session := range sessions {
		infos = append(infos, SessionInfo{
			ID:           session.ID,
			IPAddress:    session.IPAddress,
			UserAgent:    session.UserAgent,
			IsCurrent:    currentHash != "" && session.TokenHash == currentHash,
			LastActiveAt: session.LastActiveAt,
			ExpiresAt:    session.ExpiresAt,
			CreatedAt:    session.CreatedAt,
		})
	}

	return infos, nil
}

/*
TerminateSession deletes one session, owner-checked so one account can never
terminate another's session by guessing IDs.

Parameters:
  - context: context.Context
  - sessionID: string
  - userID: string

Returns:
  - error: apperr.NotFound when the session does not exist or is not owned
*/
func (service *SessionService) TerminateSession(context context.Context, sessionID, userID string) error {
	return service.sessionRepository.Delete(context, sessionID, userID)
}

/*
TerminateAllSessions bulk-deletes a user's sessions, optionally sparing the
caller's current one ("log out other devices").

Parameters:
  - context: context.Context
  - userID: string
  - exceptRawToken: string (empty spares nothing)

Returns:
  - int64: Sessions removed
  - error: Persistence failures
*/
func (service *SessionService) TerminateAllSessions(context context.Context, userID, exceptRawToken string) (int64, error) {

	exceptHash := ""
	if exceptRawToken != "" {
		exceptHash = sec.HashToken(exceptRawToken)
	}

	removed, err := service.sessionRepository.DeleteAllForUser(context, userID, exceptHash)
	if err != nil {
		return 0, fmt.Errorf("session_terminate_all_failed: %w", err)
	}
	return removed, nil
}

/*
GetSessionTimeout is a pure lookup of the role-based timeout, exposed so
clients can configure their countdown UI without hardcoding policy.

Parameters:
  - role: sec.UserRole

Returns:
  - SessionTimeoutInfo: Timeout and warning lead in minutes
*/
func (service *SessionService) GetSessionTimeout(role sec.UserRole) SessionTimeoutInfo {
	return SessionTimeoutInfo{
		TimeoutMinutes: int(role.SessionTimeout().Minutes()),
		WarningMinutes: int(sec.SessionWarningLead.Minutes()),
	}
}
