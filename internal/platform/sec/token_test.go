// Copyright (c) 2026 TalentX. All rights reserved.
// Author: platform@talentx.app

package sec

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecureToken(t *testing.T) {
	token, err := GenerateSecureToken(32)
	require.NoError(t, err)
	assert.Len(t, token, 64, "32 random bytes hex-encode to 64 characters")

	other, err := GenerateSecureToken(32)
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestHashToken(t *testing.T) {
	first := HashToken("some-opaque-token")
	second := HashToken("some-opaque-token")

	assert.Equal(t, first, second, "hashing must be deterministic for lookups")
	assert.Len(t, first, 64)
	assert.NotEqual(t, first, HashToken("some-other-token"))
}

func TestGenerateNumericCode(t *testing.T) {
	codePattern := regexp.MustCompile(`^[0-9]{6}$`)
	for i := 0; i < 50; i++ {
		code, err := GenerateNumericCode(6)
		require.NoError(t, err)
		assert.Regexp(t, codePattern, code)
	}
}

func TestGenerateBackupCodes(t *testing.T) {
	codes, err := GenerateBackupCodes(10)
	require.NoError(t, err)
	require.Len(t, codes, 10)

	codePattern := regexp.MustCompile(`^[23456789A-HJKMNP-Z]{4}-[23456789A-HJKMNP-Z]{4}$`)
	seen := make(map[string]bool, len(codes))
	for _, code := range codes {
		assert.Regexp(t, codePattern, code)
		assert.False(t, seen[code], "backup codes must be unique")
		seen[code] = true
	}
}

func TestUserRolePermissionsAndTimeouts(t *testing.T) {
	assert.True(t, RoleRecruiter.IsValid())
	assert.False(t, UserRole("INTERN").IsValid())

	permissions := RoleRecruiter.Permissions()
	assert.Contains(t, permissions, "jobs:write")
	assert.NotContains(t, permissions, "settings:write")

	permissions = append(permissions, "custom:extra")
	assert.NotContains(t, RoleRecruiter.Permissions(), "custom:extra",
		"Permissions must return a copy")

	assert.Equal(t, DefaultSessionTimeout, UserRole("INTERN").SessionTimeout())
	assert.Less(t, RoleAdmin.SessionTimeout(), RoleCandidate.SessionTimeout())
}
