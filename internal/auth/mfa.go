// Copyright (c) 2026 TalentX. All rights reserved.
// Author: platform@talentx.app

package auth

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/skip2/go-qrcode"

	"github.com/talentxhq/talentx-api/internal/platform/apperr"
	"github.com/talentxhq/talentx-api/internal/platform/constants"
	"github.com/talentxhq/talentx-api/internal/platform/sec"
)

// # Types

// MfaSetup is the enrollment material handed to the user during setup. The
// secret is pending at this point: it is stored on the account but MFA is not
// enforced until the user proves possession via ConfirmSetup.
type MfaSetup struct {
	Secret     string `json:"secret"`
	OtpauthURL string `json:"otpauthUrl"`
	QRCode     string `json:"qrCode"` // PNG data URL for direct <img> embedding.
}

// MfaStatus reports whether MFA is enabled and how many backup codes remain.
type MfaStatus struct {
	Enabled              bool `json:"enabled"`
	BackupCodesRemaining int  `json:"backupCodesRemaining"`
}

// # MFA Service

// MfaService implements TOTP enrollment, verification, and recovery codes.
//
// Enrollment is two-phase: InitiateSetup stores a pending secret, and only a
// successful ConfirmSetup flips MfaEnabled — a secret the user never loaded
// into an authenticator must not lock them out.
type MfaService struct {
	userRepository   UserRepository
	hasher           *sec.Hasher
	globallyEnforced bool
	logger           *slog.Logger
}

// NewMfaService constructs a new [MfaService] with necessary dependencies.
func NewMfaService(userRepo UserRepository, hasher *sec.Hasher, globallyEnforced bool, logger *slog.Logger) *MfaService {
	return &MfaService{
		userRepository:   userRepo,
		hasher:           hasher,
		globallyEnforced: globallyEnforced,
		logger:           logger,
	}
}

/*
InitiateSetup generates a pending TOTP secret and the provisioning material
for authenticator apps.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *MfaSetup: Secret, otpauth URI, and QR code data URL
  - error: Conflict when MFA is already enabled; storage failures
*/
func (service *MfaService) InitiateSetup(context context.Context, userID string) (*MfaSetup, error) {

	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return nil, apperr.NotFound("User")
	}

	if user.MfaEnabled {
		return nil, apperr.Conflict("MFA is already enabled for this account")
	}

	secret, err := sec.GenerateTotpSecret()
	if err != nil {
		return nil, fmt.Errorf("mfa_secret_generate_failed: %w", err)
	}

	// Pending state: secret stored, flag untouched. A repeat call simply
	// replaces the pending secret.
	user.MfaSecret = secret
	if err := service.userRepository.Update(context, user); err != nil {
		return nil, fmt.Errorf("mfa_secret_store_failed: %w", err)
	}

	otpauthURL := sec.BuildTotpProvisionURI(constants.MfaIssuer, user.Email, secret)

	png, err := qrcode.Encode(otpauthURL, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("mfa_qrcode_render_failed: %w", err)
	}

	return &MfaSetup{
		Secret:     secret,
		OtpauthURL: otpauthURL,
		QRCode:     "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
	}, nil
}

/*
ConfirmSetup verifies the submitted code against the pending secret, and on
success activates MFA and issues single-use backup recovery codes.

The plaintext codes are returned exactly once; only bcrypt hashes persist.

Parameters:
  - context: context.Context
  - userID: string
  - code: string

Returns:
  - []string: Plaintext backup codes, shown to the user this one time
  - error: Unauthorized on code mismatch, BadRequest without a pending secret
*/
func (service *MfaService) ConfirmSetup(context context.Context, userID, code string) ([]string, error) {

	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return nil, apperr.NotFound("User")
	}

	if user.MfaEnabled {
		return nil, apperr.Conflict("MFA is already enabled for this account")
	}
	if user.MfaSecret == "" {
		return nil, apperr.BadRequest("MFA setup has not been initiated")
	}

	valid, err := sec.VerifyTotpCode(user.MfaSecret, code, time.Now())
	if err != nil {
		return nil, fmt.Errorf("mfa_totp_verify_failed: %w", err)
	}
	if !valid {
		return nil, apperr.Unauthorized("Invalid verification code")
	}

	backupCodes, err := sec.GenerateBackupCodes(BackupCodeCount)
	if err != nil {
		return nil, fmt.Errorf("mfa_backup_generate_failed: %w", err)
	}

	hashes := make([]string, 0, len(backupCodes))
	for _, backupCode := range backupCodes {
		hash, err := service.hasher.Hash(backupCode)
		if err != nil {
			return nil, fmt.Errorf("mfa_backup_hash_failed: %w", err)
		}
		hashes = append(hashes, hash)
	}

	user.MfaEnabled = true
	user.MfaBackupCodes = hashes
	if err := service.userRepository.Update(context, user); err != nil {
		return nil, fmt.Errorf("mfa_enable_failed: %w", err)
	}

	service.logger.InfoContext(context, "mfa enabled", "user_id", user.ID)
	return backupCodes, nil
}

/*
Verify checks a TOTP code against the active secret, falling back to the
backup-code pool. A matched backup code is consumed: its hash is removed from
the pool so it can never be replayed.

Parameters:
  - context: context.Context
  - userID: string
  - code: string

Returns:
  - bool: True when the code is accepted
  - error: BadRequest when MFA is not enabled; storage failures
*/
func (service *MfaService) Verify(context context.Context, userID, code string) (bool, error) {

	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return false, apperr.NotFound("User")
	}

	if !user.MfaEnabled || user.MfaSecret == "" {
		return false, apperr.BadRequest("MFA is not enabled for this account")
	}

	valid, err := sec.VerifyTotpCode(user.MfaSecret, code, time.Now())
	if err != nil {
		return false, fmt.Errorf("mfa_totp_verify_failed: %w", err)
	}
	if valid {
		return true, nil
	}

	// Backup-code fallback: consume the matched hash.
	for index, hash := range user.MfaBackupCodes {
		if sec.CheckPasswordHash(code, hash) {
			user.MfaBackupCodes = append(user.MfaBackupCodes[:index], user.MfaBackupCodes[index+1:]...)
			if err := service.userRepository.Update(context, user); err != nil {
				return false, fmt.Errorf("mfa_backup_consume_failed: %w", err)
			}
			service.logger.InfoContext(context, "mfa backup code consumed",
				"user_id", user.ID, "remaining", len(user.MfaBackupCodes))
			return true, nil
		}
	}

	return false, nil
}

/*
Disable turns MFA off. Two-factor to disable two-factor: both the account
password and a currently valid TOTP or backup code are required, so a stolen
session alone cannot silently strip the protection.

Parameters:
  - context: context.Context
  - userID: string
  - password: string
  - code: string

Returns:
  - error: Unauthorized on either proof failing
*/
func (service *MfaService) Disable(context context.Context, userID, password, code string) error {

	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return apperr.NotFound("User")
	}

	if !user.MfaEnabled {
		return apperr.BadRequest("MFA is not enabled for this account")
	}

	if user.PasswordHash == "" || !sec.CheckPasswordHash(password, user.PasswordHash) {
		return apperr.Unauthorized("Password is incorrect")
	}

	accepted, err := service.Verify(context, userID, code)
	if err != nil {
		return err
	}
	if !accepted {
		return apperr.Unauthorized("Invalid verification code")
	}

	// Verify may have consumed a backup code; reload before clearing.
	user, err = service.userRepository.FindByID(context, userID)
	if err != nil {
		return apperr.NotFound("User")
	}

	user.MfaEnabled = false
	user.MfaSecret = ""
	user.MfaBackupCodes = nil
	if err := service.userRepository.Update(context, user); err != nil {
		return fmt.Errorf("mfa_disable_failed: %w", err)
	}

	service.logger.InfoContext(context, "mfa disabled", "user_id", user.ID)
	return nil
}

/*
Status reports the MFA state for the account-security page.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *MfaStatus: Enabled flag and backup codes remaining
  - error: apperr.NotFound or database failures
*/
func (service *MfaService) Status(context context.Context, userID string) (*MfaStatus, error) {

	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return nil, apperr.NotFound("User")
	}

	return &MfaStatus{
		Enabled:              user.MfaEnabled,
		BackupCodesRemaining: len(user.MfaBackupCodes),
	}, nil
}

// IsMfaRequired reports whether a login for this user must pass the MFA
// challenge: the user's own flag, the VENDOR role mandate, or the global
// enforcement switch.
func (service *MfaService) IsMfaRequired(user *User) bool {
	return user.MfaEnabled || user.Role == sec.RoleVendor || service.globallyEnforced
}
