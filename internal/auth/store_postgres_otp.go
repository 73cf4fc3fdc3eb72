// Copyright (c) 2026 TalentX. All rights reserved.
// Author: platform@talentx.app

// This file implements the one-time-code repository using PostgreSQL.
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

// PostgresOtpRepository implements OtpRepository using pgx.
type PostgresOtpRepository struct {
	pool *pgxpool.Pool
}

// NewOtpRepository creates a new PostgreSQL implementation of OtpRepository.
func NewOtpRepository(pool *pgxpool.Pool) *PostgresOtpRepository {
	return &PostgresOtpRepository{pool: pool}
}

const otpColumns = `id, email, tenantid, codehash, otptype, attempts, usedat, expiresat, createdat`

func scanOtp(row pgx.Row) (*OtpCode, error) {
	code := &OtpCode{}
	var tenantID *string
	err := row.Scan(
		&code.ID,
		&code.Email,
		&tenantID,
		&code.CodeHash,
		&code.Type,
		&code.Attempts,
		&code.UsedAt,
		&code.ExpiresAt,
		&code.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if tenantID != nil {
		code.TenantID = *tenantID
	}
	return code, nil
}

/*
InvalidatePrior marks every unused code of the same (email, tenantID, type) as
used, enforcing the at-most-one-active invariant before a new code is issued.

Parameters:
  - context: context.Context
  - email: string
  - tenantID: string (empty matches codes without a tenant)
  - otpType: OtpType

Returns:
  - error: Persistence failures
*/
func (repository *PostgresOtpRepository) InvalidatePrior(context context.Context, email, tenantID string, otpType OtpType) error {
	const query = `
		UPDATE auth.otpcode
		SET usedat = NOW()
		WHERE email = $1 AND tenantid IS NOT DISTINCT FROM $2 AND otptype = $3 AND usedat IS NULL`

	_, err := repository.pool.Exec(context, query, email, nullable(tenantID), otpType)
	if err != nil {
		return fmt.Errorf("postgres_otp_repo_invalidate_prior_failed: %w", err)
	}

	return nil
}

/*
Create persists a freshly issued code.

Parameters:
  - context: context.Context
  - code: *OtpCode

Returns:
  - error: Storage failures
*/
func (repository *PostgresOtpRepository) Create(context context.Context, code *OtpCode) error {
	const query = `
		INSERT INTO auth.otpcode (` + otpColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	if code.CreatedAt.IsZero() {
		code.CreatedAt = time.Now()
	}

	_, err := repository.pool.Exec(context, query,
		code.ID,
		code.Email,
		nullable(code.TenantID),
		code.CodeHash,
		code.Type,
		code.Attempts,
		code.UsedAt,
		code.ExpiresAt,
		code.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_otp_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindNewestUnused returns the latest unused code for (email, tenantID, type).

Parameters:
  - context: context.Context
  - email: string
  - tenantID: string
  - otpType: OtpType

Returns:
  - *OtpCode: Hydrated entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresOtpRepository) FindNewestUnused(context context.Context, email, tenantID string, otpType OtpType) (*OtpCode, error) {
	const query = `
		SELECT ` + otpColumns + `
		FROM auth.otpcode
		WHERE email = $1 AND tenantid IS NOT DISTINCT FROM $2 AND otptype = $3 AND usedat IS NULL
		ORDER BY createdat DESC
		LIMIT 1`

	code, err := scanOtp(repository.pool.QueryRow(context, query, email, nullable(tenantID), otpType))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("No valid OTP found")
		}
		return nil, fmt.Errorf("postgres_otp_repo_find_newest_failed: %w", err)
	}

	return code, nil
}

/*
FindUnusedByCode returns the latest unused code matching the hash, for the
tenantless verification path.

Parameters:
  - context: context.Context
  - email: string
  - codeHash: string
  - otpType: OtpType

Returns:
  - *OtpCode: Hydrated entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresOtpRepository) FindUnusedByCode(context context.Context, email, codeHash string, otpType OtpType) (*OtpCode, error) {
	const query = `
		SELECT ` + otpColumns + `
		FROM auth.otpcode
		WHERE email = $1 AND codehash = $2 AND otptype = $3 AND usedat IS NULL
		ORDER BY createdat DESC
		LIMIT 1`

	code, err := scanOtp(repository.pool.QueryRow(context, query, email, codeHash, otpType))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("No valid OTP found")
		}
		return nil, fmt.Errorf("postgres_otp_repo_find_by_code_failed: %w", err)
	}

	return code, nil
}

/*
IncrementAttempts bumps the failed-attempt counter and returns the new value.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - int: Counter value after the increment
  - error: Persistence failures
*/
func (repository *PostgresOtpRepository) IncrementAttempts(context context.Context, id string) (int, error) {
	const query = `
		UPDATE auth.otpcode
		SET attempts = attempts + 1
		WHERE id = $1
		RETURNING attempts`

	var attempts int
	if err := repository.pool.QueryRow(context, query, id).Scan(&attempts); err != nil {
		return 0, fmt.Errorf("postgres_otp_repo_increment_failed: %w", err)
	}

	return attempts, nil
}

/*
MarkUsed consumes the code.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: Persistence failures
*/
func (repository *PostgresOtpRepository) MarkUsed(context context.Context, id string) error {
	const query = `UPDATE auth.otpcode SET usedat = NOW() WHERE id = $1`

	_, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return fmt.Errorf("postgres_otp_repo_mark_used_failed: %w", err)
	}

	return nil
}

/*
DeleteExpired removes codes past their expiry.

Parameters:
  - context: context.Context

Returns:
  - int64: Rows removed
  - error: Cleanup failures
*/
func (repository *PostgresOtpRepository) DeleteExpired(context context.Context) (int64, error) {
	const query = `DELETE FROM auth.otpcode WHERE expiresat <= NOW()`

	tag, err := repository.pool.Exec(context, query)
	if err != nil {
		return 0, fmt.Errorf("postgres_otp_repo_delete_expired_failed: %w", err)
	}

	return tag.RowsAffected(), nil
}
