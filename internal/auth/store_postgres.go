// Copyright (c) 2026 TalentX. All rights reserved.
// Author: platform@talentx.app

// This file implements the account and tenant repositories using PostgreSQL.
//
// # Architecture
//
// Repositories are strictly separated from domain logic. They implement
// domain-defined interfaces (e.g., [UserRepository]) using the
// [pgxpool.Pool] connection manager.
//
// # Error Mapping
//
// Storage-specific errors (like pgx.ErrNoRows) are mapped to domain-friendly
// [apperr.AppError] types to avoid leaking storage implementation details.
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

// # User Repository

// PostgresUserRepository implements the UserRepository interface using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const userColumns = `
	id, tenantid, email, passwordhash, firstname, lastname, role, customroleid,
	status, mfaenabled, mfasecret, mfabackupcodes, custompermissions,
	requirepasswordchange, temppasswordexpiresat, lastloginat, lastactiveat,
	createdat, updatedat`

// scanUser hydrates one account row, translating nullable columns into the
// zero values the domain entity uses.
func scanUser(row pgx.Row) (*User, error) {
	user := &User{}
	var passwordHash, mfaSecret, customRoleID *string
	var customPermissions []string
	err := row.Scan(
		&user.ID,
		&user.TenantID,
		&user.Email,
		&passwordHash,
		&user.FirstName,
		&user.LastName,
		&user.Role,
		&customRoleID,
		&user.Status,
		&user.MfaEnabled,
		&mfaSecret,
		&user.MfaBackupCodes,
		&customPermissions,
		&user.RequirePasswordChange,
		&user.TempPasswordExpiresAt,
		&user.LastLoginAt,
		&user.LastActiveAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if passwordHash != nil {
		user.PasswordHash = *passwordHash
	}
	if mfaSecret != nil {
		user.MfaSecret = *mfaSecret
	}
	if customRoleID != nil {
		user.CustomRoleID = *customRoleID
	}
	user.CustomPermissions = customPermissions

	return user, nil
}

// nullable maps an empty string to SQL NULL.
func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

/*
Create persists a new account record into the auth.account table.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: Database constraint violations or connectivity errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO auth.account (` + userColumns + `
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.TenantID,
		user.Email,
		nullable(user.PasswordHash),
		user.FirstName,
		user.LastName,
		user.Role,
		nullable(user.CustomRoleID),
		user.Status,
		user.MfaEnabled,
		nullable(user.MfaSecret),
		user.MfaBackupCodes,
		user.CustomPermissions,
		user.RequirePasswordChange,
		user.TempPasswordExpiresAt,
		user.LastLoginAt,
		user.LastActiveAt,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_user_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindByID retrieves an account by its primary key.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	const query = `SELECT ` + userColumns + ` FROM auth.account WHERE id = $1`

	user, err := scanUser(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_id_failed: %w", err)
	}

	return user, nil
}

/*
FindByEmail retrieves an account by (email, tenantID), the scoped uniqueness key.

Parameters:
  - context: context.Context
  - email: string
  - tenantID: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email, tenantID string) (*User, error) {
	const query = `SELECT ` + userColumns + ` FROM auth.account WHERE email = $1 AND tenantid = $2`

	user, err := scanUser(repository.pool.QueryRow(context, query, email, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User not found with this email")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_email_failed: %w", err)
	}

	return user, nil
}

/*
FindFirstByEmail retrieves the newest account matching the email across all
tenants. See the interface doc for why this lookup is a documented weak point.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: First matching entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindFirstByEmail(context context.Context, email string) (*User, error) {
	const query = `SELECT ` + userColumns + ` FROM auth.account WHERE email = $1 ORDER BY createdat DESC LIMIT 1`

	user, err := scanUser(repository.pool.QueryRow(context, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User not found with this email")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_first_by_email_failed: %w", err)
	}

	return user, nil
}

/*
Update persists the mutable account fields.

Parameters:
  - context: context.Context
  - user: *User

Returns:
  - error: Update failures
*/
func (repository *PostgresUserRepository) Update(context context.Context, user *User) error {
	const query = `
		UPDATE auth.account
		SET firstname = $2, lastname = $3, role = $4, customroleid = $5,
		    status = $6, mfaenabled = $7, mfasecret = $8, mfabackupcodes = $9,
		    custompermissions = $10, requirepasswordchange = $11,
		    temppasswordexpiresat = $12, lastactiveat = $13, updatedat = $14
		WHERE id = $1`

	user.UpdatedAt = time.Now()
	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Role,
		nullable(user.CustomRoleID),
		user.Status,
		user.MfaEnabled,
		nullable(user.MfaSecret),
		user.MfaBackupCodes,
		user.CustomPermissions,
		user.RequirePasswordChange,
		user.TempPasswordExpiresAt,
		user.LastActiveAt,
		user.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_user_repo_update_failed: %w", err)
	}

	return nil
}

/*
UpdateLastLogin stamps a successful authentication on the account.

Parameters:
  - context: context.Context
  - userID: string
  - at: time.Time

Returns:
  - error: Execution errors
*/
func (repository *PostgresUserRepository) UpdateLastLogin(context context.Context, userID string, at time.Time) error {
	const query = `UPDATE auth.account SET lastloginat = $2, lastactiveat = $2, updatedat = $3 WHERE id = $1`

	_, err := repository.pool.Exec(context, query, userID, at, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_update_last_login_failed: %w", err)
	}

	return nil
}

// # Tenant Repository

// PostgresTenantRepository implements the TenantRepository interface using pgx.
type PostgresTenantRepository struct {
	pool *pgxpool.Pool
}

// NewTenantRepository creates a new PostgreSQL implementation of TenantRepository.
func NewTenantRepository(pool *pgxpool.Pool) *PostgresTenantRepository {
	return &PostgresTenantRepository{pool: pool}
}

/*
FindByID retrieves a single tenant by its unique identifier.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *Tenant: Hydrated entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresTenantRepository) FindByID(context context.Context, id string) (*Tenant, error) {
	const query = `
		SELECT id, name, domain, status, createdat, updatedat
		FROM tenants.tenant
		WHERE id = $1`

	tenant := &Tenant{}
	err := repository.pool.QueryRow(context, query, id).Scan(
		&tenant.ID,
		&tenant.Name,
		&tenant.Domain,
		&tenant.Status,
		&tenant.CreatedAt,
		&tenant.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Tenant")
		}
		return nil, fmt.Errorf("postgres_tenant_repo_find_by_id_failed: %w", err)
	}

	return tenant, nil
}

/*
FindByDomain retrieves the tenant owning the given email domain.

Parameters:
  - context: context.Context
  - domain: string

Returns:
  - *Tenant: Hydrated entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresTenantRepository) FindByDomain(context context.Context, domain string) (*Tenant, error) {
	const query = `
		SELECT id, name, domain, status, createdat, updatedat
		FROM tenants.tenant
		WHERE domain = $1`

	tenant := &Tenant{}
	err := repository.pool.QueryRow(context, query, domain).Scan(
		&tenant.ID,
		&tenant.Name,
		&tenant.Domain,
		&tenant.Status,
		&tenant.CreatedAt,
		&tenant.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Tenant not found for this domain")
		}
		return nil, fmt.Errorf("postgres_tenant_repo_find_by_domain_failed: %w", err)
	}

	return tenant, nil
}

/*
Create persists a new tenant record.

Parameters:
  - context: context.Context
  - tenant: *Tenant

Returns:
  - error: Constraint violations or connectivity errors
*/
func (repository *PostgresTenantRepository) Create(context context.Context, tenant *Tenant) error {
	const query = `
		INSERT INTO tenants.tenant (id, name, domain, status, createdat, updatedat)
		VALUES ($1, $2, $3, $4, $5, $6)`

	now := time.Now()
	if tenant.CreatedAt.IsZero() {
		tenant.CreatedAt = now
	}
	tenant.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		tenant.ID,
		tenant.Name,
		tenant.Domain,
		tenant.Status,
		tenant.CreatedAt,
		tenant.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_tenant_repo_create_failed: %w", err)
	}

	return nil
}

// # Custom Role Repository

// PostgresCustomRoleRepository implements CustomRoleRepository using pgx.
type PostgresCustomRoleRepository struct {
	pool *pgxpool.Pool
}

// NewCustomRoleRepository creates a new PostgreSQL implementation of CustomRoleRepository.
func NewCustomRoleRepository(pool *pgxpool.Pool) *PostgresCustomRoleRepository {
	return &PostgresCustomRoleRepository{pool: pool}
}

/*
FindByID retrieves one custom role definition.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *CustomRole: Hydrated entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresCustomRoleRepository) FindByID(context context.Context, id string) (*CustomRole, error) {
	const query = `
		SELECT id, tenantid, name, permissions, createdat
		FROM tenants.customrole
		WHERE id = $1`

	role := &CustomRole{}
	err := repository.pool.QueryRow(context, query, id).Scan(
		&role.ID,
		&role.TenantID,
		&role.Name,
		&role.Permissions,
		&role.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Custom role not found")
		}
		return nil, fmt.Errorf("postgres_custom_role_repo_find_failed: %w", err)
	}

	return role, nil
}
