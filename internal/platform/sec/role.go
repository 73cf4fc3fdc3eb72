// Copyright (c) 2026 TalentX. All rights reserved.
// Author: platform@talentx.app

package sec

import "time"

// UserRole is the platform-wide role assigned to a user within their tenant.
type UserRole string

const (
	RoleSuperAdmin    UserRole = "SUPER_ADMIN"
	RoleAdmin         UserRole = "ADMIN"
	RoleRecruiter     UserRole = "RECRUITER"
	RoleHiringManager UserRole = "HIRING_MANAGER"
	RoleInterviewer   UserRole = "INTERVIEWER"
	RoleCandidate     UserRole = "CANDIDATE"
	RoleVendor        UserRole = "VENDOR"
)

// IsValid reports whether the role is one of the known platform roles.
func (role UserRole) IsValid() bool {
	switch role {
	case RoleSuperAdmin, RoleAdmin, RoleRecruiter, RoleHiringManager,
		RoleInterviewer, RoleCandidate, RoleVendor:
		return true
	}
	return false
}

// # Static Permissions

// rolePermissions is the static permission set per role. Per-user overrides
// and custom role definitions are layered on top by the auth service.
var rolePermissions = map[UserRole][]string{
	RoleSuperAdmin: {
		"tenants:*", "users:*", "jobs:*", "candidates:*",
		"interviews:*", "offers:*", "reports:*", "settings:*",
	},
	RoleAdmin: {
		"users:read", "users:write", "users:invite",
		"jobs:read", "jobs:write", "candidates:read", "candidates:write",
		"interviews:read", "interviews:write", "offers:read", "offers:write",
		"reports:read", "settings:read", "settings:write",
	},
	RoleRecruiter: {
		"jobs:read", "jobs:write", "candidates:read", "candidates:write",
		"interviews:read", "interviews:write", "offers:read", "offers:write",
		"reports:read",
	},
	RoleHiringManager: {
		"jobs:read", "candidates:read",
		"interviews:read", "interviews:write", "offers:read",
		"reports:read",
	},
	RoleInterviewer: {
		"candidates:read", "interviews:read", "interviews:feedback",
	},
	RoleCandidate: {
		"profile:read", "profile:write", "applications:read", "applications:write",
	},
	RoleVendor: {
		"candidates:read", "candidates:submit", "jobs:read",
	},
}

// Permissions returns the static permission set for a role. The returned
// slice is a copy; callers may append overrides freely.
func (role UserRole) Permissions() []string {
	static := rolePermissions[role]
	permissions := make([]string, len(static))
	copy(permissions, static)
	return permissions
}

// # Session Timeouts

const (
	// DefaultSessionTimeout applies to roles without an explicit entry.
	DefaultSessionTimeout = 60 * time.Minute

	// SessionWarningLead is how long before expiry the client should warn the
	// user that their session is about to end.
	SessionWarningLead = 2 * time.Minute
)

// roleSessionTimeouts holds per-role inactivity timeouts. Privileged roles
// get short sessions; candidates keep a week-long one so applications in
// progress survive a lunch break.
var roleSessionTimeouts = map[UserRole]time.Duration{
	RoleSuperAdmin:    30 * time.Minute,
	RoleAdmin:         30 * time.Minute,
	RoleVendor:        30 * time.Minute,
	RoleRecruiter:     60 * time.Minute,
	RoleHiringManager: 60 * time.Minute,
	RoleInterviewer:   60 * time.Minute,
	RoleCandidate:     7 * 24 * time.Hour,
}

// SessionTimeout returns the inactivity timeout for a role, falling back to
// [DefaultSessionTimeout] for unknown roles.
func (role UserRole) SessionTimeout() time.Duration {
	if timeout, ok := roleSessionTimeouts[role]; ok {
		return timeout
	}
	return DefaultSessionTimeout
}
