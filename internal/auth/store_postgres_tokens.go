// Copyright (c) 2026 TalentX. All rights reserved.
// Author: platform@talentx.app

// This file implements the refresh-token, reset-token, and password-history
// repositories, plus the atomic password-change writer, using PostgreSQL.
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

// # Refresh Token Repository

// PostgresRefreshTokenRepository implements RefreshTokenRepository using pgx.
type PostgresRefreshTokenRepository struct {
	pool *pgxpool.Pool
}

// NewRefreshTokenRepository creates a new PostgreSQL implementation of RefreshTokenRepository.
func NewRefreshTokenRepository(pool *pgxpool.Pool) *PostgresRefreshTokenRepository {
	return &PostgresRefreshTokenRepository{pool: pool}
}

/*
Create persists a freshly issued refresh token.

Parameters:
  - context: context.Context
  - token: *RefreshToken

Returns:
  - error: Storage failures
*/
func (repository *PostgresRefreshTokenRepository) Create(context context.Context, token *RefreshToken) error {
	const query = `
		INSERT INTO auth.refreshtoken (id, userid, tokenhash, expiresat, createdat)
		VALUES ($1, $2, $3, $4, $5)`

	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}

	_, err := repository.pool.Exec(context, query,
		token.ID,
		token.UserID,
		token.TokenHash,
		token.ExpiresAt,
		token.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_refresh_token_repo_create_failed: %w", err)
	}

	return nil
}

/*
Consume atomically deletes and returns the unexpired token matching the hash.

The single DELETE ... RETURNING statement is the rotation serialization point:
two concurrent exchanges race on the row, the database hands it to exactly one
of them, and the loser sees no rows.

Parameters:
  - context: context.Context
  - tokenHash: string

Returns:
  - *RefreshToken: The consumed token
  - error: apperr.NotFound if absent, expired, or already consumed
*/
func (repository *PostgresRefreshTokenRepository) Consume(context context.Context, tokenHash string) (*RefreshToken, error) {
	const query = `
		DELETE FROM auth.refreshtoken
		WHERE tokenhash = $1 AND expiresat > NOW()
		RETURNING id, userid, tokenhash, expiresat, createdat`

	token := &RefreshToken{}
	err := repository.pool.QueryRow(context, query, tokenHash).Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.ExpiresAt,
		&token.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.Unauthorized("Invalid or expired refresh token")
		}
		return nil, fmt.Errorf("postgres_refresh_token_repo_consume_failed: %w", err)
	}

	return token, nil
}

/*
DeleteAllForUser removes every refresh token of one user.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Deletion failures
*/
func (repository *PostgresRefreshTokenRepository) DeleteAllForUser(context context.Context, userID string) error {
	const query = `DELETE FROM auth.refreshtoken WHERE userid = $1`

	_, err := repository.pool.Exec(context, query, userID)
	if err != nil {
		return fmt.Errorf("postgres_refresh_token_repo_delete_all_failed: %w", err)
	}

	return nil
}

/*
DeleteExpired removes tokens past their expiry.

Parameters:
  - context: context.Context

Returns:
  - int64: Rows removed
  - error: Cleanup failures
*/
func (repository *PostgresRefreshTokenRepository) DeleteExpired(context context.Context) (int64, error) {
	const query = `DELETE FROM auth.refreshtoken WHERE expiresat <= NOW()`

	tag, err := repository.pool.Exec(context, query)
	if err != nil {
		return 0, fmt.Errorf("postgres_refresh_token_repo_delete_expired_failed: %w", err)
	}

	return tag.RowsAffected(), nil
}

// # Reset Token Repository

// PostgresResetTokenRepository implements ResetTokenRepository using pgx.
type PostgresResetTokenRepository struct {
	pool *pgxpool.Pool
}

// NewResetTokenRepository creates a new PostgreSQL implementation of ResetTokenRepository.
func NewResetTokenRepository(pool *pgxpool.Pool) *PostgresResetTokenRepository {
	return &PostgresResetTokenRepository{pool: pool}
}

/*
InvalidateActive marks all unused reset tokens of a user as used.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Persistence failures
*/
func (repository *PostgresResetTokenRepository) InvalidateActive(context context.Context, userID string) error {
	const query = `
		UPDATE auth.passwordresettoken
		SET isused = TRUE, usedat = NOW()
		WHERE userid = $1 AND isused = FALSE`

	_, err := repository.pool.Exec(context, query, userID)
	if err != nil {
		return fmt.Errorf("postgres_reset_token_repo_invalidate_failed: %w", err)
	}

	return nil
}

/*
Create persists a freshly issued reset token.

Parameters:
  - context: context.Context
  - token: *PasswordResetToken

Returns:
  - error: Storage failures
*/
func (repository *PostgresResetTokenRepository) Create(context context.Context, token *PasswordResetToken) error {
	const query = `
		INSERT INTO auth.passwordresettoken (id, userid, tokenhash, isused, usedat, expiresat, createdat)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}

	_, err := repository.pool.Exec(context, query,
		token.ID,
		token.UserID,
		token.TokenHash,
		token.IsUsed,
		token.UsedAt,
		token.ExpiresAt,
		token.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_reset_token_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindByTokenHash returns the token row regardless of used/expired state.

Parameters:
  - context: context.Context
  - tokenHash: string

Returns:
  - *PasswordResetToken: Hydrated entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresResetTokenRepository) FindByTokenHash(context context.Context, tokenHash string) (*PasswordResetToken, error) {
	const query = `
		SELECT id, userid, tokenhash, isused, usedat, expiresat, createdat
		FROM auth.passwordresettoken
		WHERE tokenhash = $1`

	token := &PasswordResetToken{}
	err := repository.pool.QueryRow(context, query, tokenHash).Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.IsUsed,
		&token.UsedAt,
		&token.ExpiresAt,
		&token.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Reset token not found")
		}
		return nil, fmt.Errorf("postgres_reset_token_repo_find_failed: %w", err)
	}

	return token, nil
}

// # Password History Repository

// PostgresPasswordHistoryRepository implements PasswordHistoryRepository using pgx.
type PostgresPasswordHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewPasswordHistoryRepository creates a new PostgreSQL implementation of PasswordHistoryRepository.
func NewPasswordHistoryRepository(pool *pgxpool.Pool) *PostgresPasswordHistoryRepository {
	return &PostgresPasswordHistoryRepository{pool: pool}
}

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
func (repository *PostgresPasswordHistoryRepository) ListRecent(context context.Context, userID string, limit int) ([]PasswordHistoryEntry, error) {
	const query = `
		SELECT id, userid, passwordhash, createdat
		FROM auth.passwordhistory
		WHERE userid = $1
		ORDER BY createdat DESC
		LIMIT $2`

	rows, err := repository.pool.Query(context, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres_password_history_repo_list_failed: %w", err)
	}
	defer rows.Close()

	var entries []PasswordHistoryEntry
	for rows.Next() {
		var entry PasswordHistoryEntry
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.PasswordHash, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres_password_history_repo_scan_failed: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// # Atomic Password Writer

// PostgresPasswordWriter implements PasswordWriter with a pgx transaction.
type PostgresPasswordWriter struct {
	pool *pgxpool.Pool
}

// NewPasswordWriter creates a new PostgreSQL implementation of PasswordWriter.
func NewPasswordWriter(pool *pgxpool.Pool) *PostgresPasswordWriter {
	return &PostgresPasswordWriter{pool: pool}
}

/*
ApplyPasswordChange performs the full credential rotation in one transaction:
password update, history append, reset-token consumption, and (optionally)
refresh-token and session invalidation. Either all of it lands or none does.

Parameters:
  - context: context.Context
  - change: PasswordChange

Returns:
  - error: Transaction failures; nothing is applied on error
*/
func (writer *PostgresPasswordWriter) ApplyPasswordChange(context context.Context, change PasswordChange) error {
	transaction, err := writer.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_password_writer_begin_failed: %w", err)
	}
	defer func() { _ = transaction.Rollback(context) }()

	const updateQuery = `
		UPDATE auth.account
		SET passwordhash = $2, requirepasswordchange = FALSE,
		    temppasswordexpiresat = NULL, updatedat = NOW()
		WHERE id = $1`
	if _, err := transaction.Exec(context, updateQuery, change.UserID, change.NewPasswordHash); err != nil {
		return fmt.Errorf("postgres_password_writer_update_failed: %w", err)
	}

	if change.OldPasswordHash != "" {
		const historyQuery = `
			INSERT INTO auth.passwordhistory (id, userid, passwordhash, createdat)
			VALUES ($1, $2, $3, NOW())`
		if _, err := transaction.Exec(context, historyQuery, change.HistoryEntryID, change.UserID, change.OldPasswordHash); err != nil {
			return fmt.Errorf("postgres_password_writer_history_failed: %w", err)
		}
	}

	if change.ResetTokenID != "" {
		const consumeQuery = `
			UPDATE auth.passwordresettoken
			SET isused = TRUE, usedat = NOW()
			WHERE id = $1`
		if _, err := transaction.Exec(context, consumeQuery, change.ResetTokenID); err != nil {
			return fmt.Errorf("postgres_password_writer_consume_token_failed: %w", err)
		}
	}

	if change.RevokeSessions {
		if _, err := transaction.Exec(context, `DELETE FROM auth.refreshtoken WHERE userid = $1`, change.UserID); err != nil {
			return fmt.Errorf("postgres_password_writer_revoke_refresh_failed: %w", err)
		}
		if _, err := transaction.Exec(context, `DELETE FROM auth.usersession WHERE userid = $1`, change.UserID); err != nil {
			return fmt.Errorf("postgres_password_writer_revoke_sessions_failed: %w", err)
		}
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres_password_writer_commit_failed: %w", err)
	}

	return nil
}
