// Copyright (c) 2026 TalentX. All rights reserved.
// Author: platform@talentx.app

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Security: JWT issuers and credential-flow header names.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "talentx-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Authentication

const (
	// AuthIssuer is the standard 'iss' claim in JWTs.
	AuthIssuer = "talentx.app"

	// MfaIssuer is the issuer label shown in authenticator apps for TOTP entries.
	MfaIssuer = "TalentX"
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"

	// HeaderSessionToken carries the opaque device-session token. It is
	// orthogonal to the Authorization bearer token and only consumed by the
	// idle-timeout and device-management endpoints.
	HeaderSessionToken = "x-session-token"
)

// # JSON Field Identifiers

const (
	FieldData      = "data"
	FieldError     = "error"
	FieldCode      = "code"
	FieldDetails   = "details"
	FieldMessage   = "message"
	FieldStatus    = "status"
	FieldTimestamp = "timestamp"
	FieldSuccess   = "success"
	FieldChecks    = "checks"
)

// # Database Schemas

const (
	SchemaAuth    = "auth"
	SchemaTenants = "tenants"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixOtpThrottle   = "auth:otp_throttle:"
	RedisPrefixResetThrottle = "auth:reset_throttle:"
)
