// Copyright (c) 2026 TalentX. All rights reserved.
// Author: platform@talentx.app

// This file implements the device-session and login-attempt repositories
// using PostgreSQL.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/talentxhq/talentx-api/internal/platform/apperr"
)

// # Session Repository

// PostgresSessionRepository implements SessionRepository using pgx.
type PostgresSessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new PostgreSQL implementation of SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{pool: pool}
}

const sessionColumns = `id, userid, tokenhash, ipaddress, useragent, lastactiveat, expiresat, createdat`

func scanSession(row pgx.Row) (*UserSession, error) {
	session := &UserSession{}
	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.TokenHash,
		&session.IPAddress,
		&session.UserAgent,
		&session.LastActiveAt,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return session, nil
}

/*
Create persists a new device session.

Parameters:
  - context: context.Context
  - session: *UserSession

Returns:
  - error: Storage failures
*/
func (repository *PostgresSessionRepository) Create(context context.Context, session *UserSession) error {
	const query = `
		INSERT INTO auth.usersession (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}

	_, err := repository.pool.Exec(context, query,
		session.ID,
		session.UserID,
		session.TokenHash,
		session.IPAddress,
		session.UserAgent,
		session.LastActiveAt,
		session.ExpiresAt,
		session.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_session_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindByTokenHash returns the session for an opaque token without filtering
expiry — staleness is the service's call.

Parameters:
  - context: context.Context
  - tokenHash: string

Returns:
  - *UserSession: Hydrated entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresSessionRepository) FindByTokenHash(context context.Context, tokenHash string) (*UserSession, error) {
	const query = `SELECT ` + sessionColumns + ` FROM auth.usersession WHERE tokenhash = $1`

	session, err := scanSession(repository.pool.QueryRow(context, query, tokenHash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Session not found")
		}
		return nil, fmt.Errorf("postgres_session_repo_find_failed: %w", err)
	}

	return session, nil
}

/*
Touch slides a session forward.

Parameters:
  - context: context.Context
  - sessionID: string
  - lastActiveAt: time.Time
  - expiresAt: time.Time

Returns:
  - error: Persistence failures
*/
func (repository *PostgresSessionRepository) Touch(context context.Context, sessionID string, lastActiveAt, expiresAt time.Time) error {
	const query = `UPDATE auth.usersession SET lastactiveat = $2, expiresat = $3 WHERE id = $1`

	_, err := repository.pool.Exec(context, query, sessionID, lastActiveAt, expiresAt)
	if err != nil {
		return fmt.Errorf("postgres_session_repo_touch_failed: %w", err)
	}

	return nil
}

/*
ListByUser enumerates the live sessions of one user, newest activity first.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - []UserSession: Hydrated entities
  - error: Database retrieval failures
*/
func (repository *PostgresSessionRepository) ListByUser(context context.Context, userID string) ([]UserSession, error) {
	const query = `
		SELECT ` + sessionColumns + `
		FROM auth.usersession
		WHERE userid = $1 AND expiresat > NOW()
		ORDER BY lastactiveat DESC`

	rows, err := repository.pool.Query(context, query, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres_session_repo_list_failed: %w", err)
	}
	defer rows.Close()

	var sessions []UserSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres_session_repo_scan_failed: %w", err)
		}
		sessions = append(sessions, *session)
	}

	return sessions, rows.Err()
}

/*
Delete removes one session, owner-checked.

Parameters:
  - context: context.Context
  - sessionID: string
  - userID: string

Returns:
  - error: apperr.NotFound when no owned row matched
*/
func (repository *PostgresSessionRepository) Delete(context context.Context, sessionID, userID string) error {
	const query = `DELETE FROM auth.usersession WHERE id = $1 AND userid = $2`

	tag, err := repository.pool.Exec(context, query, sessionID, userID)
	if err != nil {
		return fmt.Errorf("postgres_session_repo_delete_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Session not found")
	}

	return nil
}

/*
DeleteAllForUser removes every session of one user, optionally sparing the
caller's current token.

Parameters:
  - context: context.Context
  - userID: string
  - exceptTokenHash: string (empty spares nothing)

Returns:
  - int64: Rows removed
  - error: Deletion failures
*/
func (repository *PostgresSessionRepository) DeleteAllForUser(context context.Context, userID, exceptTokenHash string) (int64, error) {
	const query = `DELETE FROM auth.usersession WHERE userid = $1 AND ($2 = '' OR tokenhash != $2)`

	tag, err := repository.pool.Exec(context, query, userID, exceptTokenHash)
	if err != nil {
		return 0, fmt.Errorf("postgres_session_repo_delete_all_failed: %w", err)
	}

	return tag.RowsAffected(), nil
}

/*
DeleteExpired permanently removes all sessions past their expiration.

Parameters:
  - context: context.Context

Returns:
  - int64: Rows removed
  - error: Cleanup failures
*/
func (repository *PostgresSessionRepository) DeleteExpired(context context.Context) (int64, error) {
	const query = `DELETE FROM auth.usersession WHERE expiresat <= NOW()`

	tag, err := repository.pool.Exec(context, query)
	if err != nil {
		return 0, fmt.Errorf("postgres_session_repo_delete_expired_failed: %w", err)
	}

	return tag.RowsAffected(), nil
}

// # Login-Attempt Repository

// PostgresAttemptRepository implements AttemptRepository using pgx.
type PostgresAttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new PostgreSQL implementation of AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *PostgresAttemptRepository {
	return &PostgresAttemptRepository{pool: pool}
}

const attemptColumns = `id, email, tenantid, ipaddress, useragent, successful, failurereason, createdat`

func scanAttempt(row pgx.Row) (*LoginAttempt, error) {
	attempt := &LoginAttempt{}
	var tenantID, failureReason *string
	err := row.Scan(
		&attempt.ID,
		&attempt.Email,
		&tenantID,
		&attempt.IPAddress,
		&attempt.UserAgent,
		&attempt.Successful,
		&failureReason,
		&attempt.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if tenantID != nil {
		attempt.TenantID = *tenantID
	}
	if failureReason != nil {
		attempt.FailureReason = *failureReason
	}
	return attempt, nil
}

/*
Record appends one attempt row. Rows are immutable once written.

Parameters:
  - context: context.Context
  - attempt: *LoginAttempt

Returns:
  - error: Storage failures
*/
func (repository *PostgresAttemptRepository) Record(context context.Context, attempt *LoginAttempt) error {
	const query = `
		INSERT INTO auth.loginattempt (` + attemptColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now()
	}

	_, err := repository.pool.Exec(context, query,
		attempt.ID,
		attempt.Email,
		nullable(attempt.TenantID),
		attempt.IPAddress,
		attempt.UserAgent,
		attempt.Successful,
		nullable(attempt.FailureReason),
		attempt.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_attempt_repo_record_failed: %w", err)
	}

	return nil
}

/*
ListSince returns the attempts for (email, tenantID) newer than the cutoff,
newest first.

Parameters:
  - context: context.Context
  - email: string
  - tenantID: string
  - since: time.Time

Returns:
  - []LoginAttempt: Newest first
  - error: Database retrieval failures
*/
func (repository *PostgresAttemptRepository) ListSince(context context.Context, email, tenantID string, since time.Time) ([]LoginAttempt, error) {
	const query = `
		SELECT ` + attemptColumns + `
		FROM auth.loginattempt
		WHERE email = $1 AND tenantid IS NOT DISTINCT FROM $2 AND createdat > $3
		ORDER BY createdat DESC`

	rows, err := repository.pool.Query(context, query, email, nullable(tenantID), since)
	if err != nil {
		return nil, fmt.Errorf("postgres_attempt_repo_list_since_failed: %w", err)
	}
	defer rows.Close()

	return collectAttempts(rows)
}

/*
ListRecent returns the newest attempts for (email, tenantID) with no time bound.

Parameters:
  - context: context.Context
  - email: string
  - tenantID: string
  - limit: int

Returns:
  - []LoginAttempt: Newest first
  - error: Database retrieval failures
*/
func (repository *PostgresAttemptRepository) ListRecent(context context.Context, email, tenantID string, limit int) ([]LoginAttempt, error) {
	const query = `
		SELECT ` + attemptColumns + `
		FROM auth.loginattempt
		WHERE email = $1 AND tenantid IS NOT DISTINCT FROM $2
		ORDER BY createdat DESC
		LIMIT $3`

	rows, err := repository.pool.Query(context, query, email, nullable(tenantID), limit)
	if err != nil {
		return nil, fmt.Errorf("postgres_attempt_repo_list_recent_failed: %w", err)
	}
	defer rows.Close()

	return collectAttempts(rows)
}

func collectAttempts(rows pgx.Rows) ([]LoginAttempt, error) {
	var attempts []LoginAttempt
	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres_attempt_repo_scan_failed: %w", err)
		}
		attempts = append(attempts, *attempt)
	}
	return attempts, rows.Err()
}

/*
DeleteOlderThan prunes audit rows past the retention horizon.

Parameters:
  - context: context.Context
  - cutoff: time.Time

Returns:
  - int64: Rows removed
  - error: Cleanup failures
*/
func (repository *PostgresAttemptRepository) DeleteOlderThan(context context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM auth.loginattempt WHERE createdat < $1`

	tag, err := repository.pool.Exec(context, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres_attempt_repo_prune_failed: %w", err)
	}

	return tag.RowsAffected(), nil
}
