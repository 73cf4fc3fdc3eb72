// Copyright (c) 2026 TalentX. All rights reserved.
// Author: platform@talentx.app

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/talentxhq/talentx-api/internal/platform/apperr"
	"github.com/talentxhq/talentx-api/internal/platform/sec"
	"github.com/talentxhq/talentx-api/pkg/uuid"
)

// # Contracts & Types

// AccessTokenSigner defines the contract for minting and verifying signed
// access tokens. Satisfied by [sec.TokenService].
type AccessTokenSigner interface {
	GenerateAccessToken(claims sec.AuthClaims, timeToLive time.Duration) (string, error)
	VerifyToken(tokenString string) (*sec.AuthClaims, error)
}

// AuthTokens is a freshly minted access/refresh token pair.
type AuthTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenIssuer mints stateless access tokens and persisted, single-use refresh
// tokens. Refresh tokens rotate: every exchange deletes the consumed row and
// issues a replacement.
type TokenIssuer struct {
	userRepository       UserRepository
	customRoleRepository CustomRoleRepository
	refreshRepository    RefreshTokenRepository
	signer               AccessTokenSigner
	logger               *slog.Logger
}

// NewTokenIssuer constructs a new [TokenIssuer] with necessary dependencies.
func NewTokenIssuer(
	userRepo UserRepository,
	customRoleRepo CustomRoleRepository,
	refreshRepo RefreshTokenRepository,
	signer AccessTokenSigner,
	logger *slog.Logger,
) *TokenIssuer {
	return &TokenIssuer{
		userRepository:       userRepo,
		customRoleRepository: customRoleRepo,
		refreshRepository:    refreshRepo,
		signer:               signer,
		logger:               logger,
	}
}

// # Permission Resolution

/*
ResolvePermissions computes the effective permission list for a user.

Precedence is a three-tier fallback and a core authorization contract:

 1. User-level custom permission overrides, when non-empty, win outright.
 2. Permissions attached to an assigned custom role definition.
 3. The static role table is the floor.

Parameters:
  - context: context.Context
  - user: *User

Returns:
  - []string: Effective permissions
  - error: Custom role retrieval failures
*/
func (issuer *TokenIssuer) ResolvePermissions(context context.Context, user *User) ([]string, error) {

	// Tier 1: explicit per-user overrides replace everything.
	if len(user.CustomPermissions) > 0 {
		permissions := make([]string, len(user.CustomPermissions))
		copy(permissions, user.CustomPermissions)
		return permissions, nil
	}

	// Tier 2: tenant-defined custom role.
	if user.CustomRoleID != "" {
		customRole, err := issuer.customRoleRepository.FindByID(context, user.CustomRoleID)
		if err == nil && len(customRole.Permissions) > 0 {
			permissions := make([]string, len(customRole.Permissions))
			copy(permissions, customRole.Permissions)
			return permissions, nil
		}
		// A dangling custom role assignment falls back to the static table
		// rather than locking the user out.
		issuer.logger.WarnContext(context, "custom role lookup failed, using role defaults",
			"user_id", user.ID, "custom_role_id", user.CustomRoleID)
	}

	// Tier 3: static role table.
	return user.Role.Permissions(), nil
}

// # Token Minting

/*
GenerateTokens mints a fresh access/refresh pair for a user.

The access token is stateless and carries the resolved permission list, so
permission changes only take effect on the next issuance. The refresh token is
an opaque random value persisted by hash with a 30-day expiry.

Parameters:
  - context: context.Context
  - user: *User

Returns:
  - *AuthTokens: The minted pair
  - error: Signing or persistence failures
*/
func (issuer *TokenIssuer) GenerateTokens(context context.Context, user *User) (*AuthTokens, error) {

	permissions, err := issuer.ResolvePermissions(context, user)
	if err != nil {
		return nil, fmt.Errorf("token_resolve_permissions_failed: %w", err)
	}

	claims := sec.AuthClaims{
		UserID:      user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Role:        user.Role,
		TenantID:    user.TenantID,
		Permissions: permissions,
	}

	accessToken, err := issuer.signer.GenerateAccessToken(claims, AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("token_sign_failed: %w", err)
	}

	rawRefresh, err := sec.GenerateSecureToken(RefreshTokenLength)
	if err != nil {
		return nil, fmt.Errorf("token_refresh_generate_failed: %w", err)
	}

	refreshToken := &RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: sec.HashToken(rawRefresh),
		ExpiresAt: time.Now().Add(RefreshTokenTTL),
	}
	if err := issuer.refreshRepository.Create(context, refreshToken); err != nil {
		return nil, fmt.Errorf("token_refresh_store_failed: %w", err)
	}

	return &AuthTokens{AccessToken: accessToken, RefreshToken: rawRefresh}, nil
}

/*
RefreshTokens rotates a refresh token into a fresh pair.

The consume is an atomic delete: of two concurrent exchanges for the same
token, exactly one wins and the loser receives Unauthorized — replay
protection hinges on the delete being the serialization point.

Parameters:
  - context: context.Context
  - rawRefresh: string

Returns:
  - *AuthTokens: A fresh pair bound to the same user
  - error: Unauthorized on missing, expired, or already-consumed tokens
*/
func (issuer *TokenIssuer) RefreshTokens(context context.Context, rawRefresh string) (*AuthTokens, error) {

	consumed, err := issuer.refreshRepository.Consume(context, sec.HashToken(rawRefresh))
	if err != nil {
		if apperr.IsAppError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("token_refresh_consume_failed: %w", err)
	}

	user, err := issuer.userRepository.FindByID(context, consumed.UserID)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	return issuer.GenerateTokens(context, user)
}

// # MFA Challenge Tokens

/*
GenerateChallengeToken mints a short-lived signed token used only to carry
identity between a password login that requires MFA and the follow-up
verification call. It is not an access token: no session or refresh token
exists yet, and its lifetime is just long enough to type a code.

Parameters:
  - context: context.Context
  - user: *User

Returns:
  - string: Signed challenge token
  - error: Signing failures
*/
func (issuer *TokenIssuer) GenerateChallengeToken(context context.Context, user *User) (string, error) {

	permissions, err := issuer.ResolvePermissions(context, user)
	if err != nil {
		return "", fmt.Errorf("token_resolve_permissions_failed: %w", err)
	}

	claims := sec.AuthClaims{
		UserID:      user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Role:        user.Role,
		TenantID:    user.TenantID,
		Permissions: permissions,
	}

	token, err := issuer.signer.GenerateAccessToken(claims, MfaChallengeTTL)
	if err != nil {
		return "", fmt.Errorf("token_challenge_sign_failed: %w", err)
	}
	return token, nil
}

// VerifyChallengeToken verifies a challenge token through the full signature
// check. Token internals are never parsed by hand elsewhere.
func (issuer *TokenIssuer) VerifyChallengeToken(tokenString string) (*sec.AuthClaims, error) {
	return issuer.signer.VerifyToken(tokenString)
}
