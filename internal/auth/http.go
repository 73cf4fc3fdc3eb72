// Copyright (c) 2026 TalentX. All rights reserved.
// Author: platform@talentx.app

package auth

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/talentxhq/talentx-api/internal/platform/apperr"
	"github.com/talentxhq/talentx-api/internal/platform/middleware"
	requestutil "github.com/talentxhq/talentx-api/internal/platform/request"
	"github.com/talentxhq/talentx-api/internal/platform/respond"
	"github.com/talentxhq/talentx-api/internal/platform/sec"
	"github.com/talentxhq/talentx-api/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements the authentication HTTP endpoints.
//
// # Scope
//
// This handler is the gateway for the whole credential lifecycle: enrollment,
// password and passwordless login, MFA, password recovery, and device session
// management. It is strictly a transport layer — every business rule lives in
// the domain services.
type Handler struct {
	authService     *Service
	passwordService *PasswordService
	otpService      *OtpService
	mfaService      *MfaService
	sessionService  *SessionService
}

// NewHandler constructs a new [Handler] with its service dependencies.
func NewHandler(
	authService *Service,
	passwordService *PasswordService,
	otpService *OtpService,
	mfaService *MfaService,
	sessionService *SessionService,
) *Handler {
	return &Handler{
		authService:     authService,
		passwordService: passwordService,
		otpService:      otpService,
		mfaService:      mfaService,
		sessionService:  sessionService,
	}
}

// Routes returns a [chi.Router] configured with authentication routes.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Post("/refresh", handler.refresh)
	router.Post("/forgot-password", handler.forgotPassword)
	router.Post("/reset-password", handler.resetPassword)
	router.Post("/otp/request", handler.otpRequest)
	router.Post("/otp/verify", handler.otpVerify)
	router.Post("/mfa/verify", handler.mfaVerify)

	// Session-token endpoints: authenticated by the opaque x-session-token
	// header, not the bearer token.
	router.Get("/sessions/validate", handler.validateSession)
	router.Post("/sessions/refresh", handler.refreshSession)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/logout", handler.logout)
		r.Post("/change-password", handler.changePassword)
		r.Post("/mfa/setup", handler.mfaSetup)
		r.Post("/mfa/confirm", handler.mfaConfirm)
		r.Post("/mfa/disable", handler.mfaDisable)
		r.Get("/mfa/status", handler.mfaStatus)
		r.Get("/sessions", handler.listSessions)
		r.Delete("/sessions", handler.terminateAllSessions)
		r.Delete("/sessions/{id}", handler.terminateSession)
		r.Get("/session-timeout", handler.sessionTimeout)
	})

	return router
}

// # Request Payloads

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	TenantID  string `json:"tenantId"`
	Role      string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TenantID string `json:"tenantId"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type forgotPasswordRequest struct {
	Email    string `json:"email"`
	TenantID string `json:"tenantId"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type otpRequestRequest struct {
	Email    string `json:"email"`
	TenantID string `json:"tenantId"`
	Type     string `json:"type"`
}

type otpVerifyRequest struct {
	Email    string `json:"email"`
	TenantID string `json:"tenantId"`
	Code     string `json:"code"`
	Type     string `json:"type"`
}

type mfaCodeRequest struct {
	Code string `json:"code"`
}

type mfaVerifyRequest struct {
	MfaToken string `json:"mfaToken"`
	Code     string `json:"code"`
}

type mfaDisableRequest struct {
	Password string `json:"password"`
	Code     string `json:"code"`
}

// # Account Endpoints

/*
Register creates a new account, resolving or creating its tenant.

POST /api/v1/auth/register

Request:
  - Body: registerRequest (Email, Password, FirstName, LastName, TenantID?, Role?)

Response:
  - 201: RegisterResult: Created user, tenant, and verification requirement
  - 400: Validation failure or weak password
  - 409: Email already registered in the resolved tenant
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		Required(FieldFirstName, input.FirstName).
		MaxLen(FieldFirstName, input.FirstName, 100).
		MaxLen(FieldLastName, input.LastName, 100)
	if input.Role != "" {
		validator.Custom(FieldRole, !sec.UserRole(input.Role).IsValid(), "must be a valid role")
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.authService.Register(request.Context(), RegisterInput{
		Email:     input.Email,
		Password:  input.Password,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		TenantID:  input.TenantID,
		Role:      sec.UserRole(input.Role),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, result)
}

/*
Login authenticates with email and password.

POST /api/v1/auth/login

Three response shapes ride on 200 OK; callers discriminate by the Locked and
RequiresMfa fields: a lockout countdown, an MFA challenge carrying a
transport-only mfaToken, or a full session with tokens.

Request:
  - Body: loginRequest (Email, Password, TenantID?)

Response:
  - 200: LoginResult: One of the three shapes
  - 401: Invalid credentials or unverified email
  - 403: Inactive or suspended account
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Required(FieldPassword, input.Password)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.authService.Login(request.Context(), LoginInput{
		Email:     input.Email,
		Password:  input.Password,
		TenantID:  input.TenantID,
		UserAgent: request.UserAgent(),
		IPAddress: getClientIP(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, result)
}

/*
Refresh rotates a refresh token into a fresh access/refresh pair.

POST /api/v1/auth/refresh

Response:
  - 200: AuthTokens
  - 401: Missing, expired, or already-consumed token
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	var input refreshRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}
	if input.RefreshToken == "" {
		respond.Error(writer, request, validate.RequiredError(FieldRefreshToken, "is required"))
		return
	}

	tokens, err := handler.authService.Refresh(request.Context(), input.RefreshToken)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, tokens)
}

/*
Logout performs a global sign-out: all refresh tokens and device sessions of
the caller are invalidated, not just the current ones.

POST /api/v1/auth/logout
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.Logout(request.Context(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OKMessage(writer, "Logged out successfully", nil)
}

// # Password Endpoints

/*
ForgotPassword requests a reset link by email.

POST /api/v1/auth/forgot-password

The response is identical whether or not the address is registered, so the
endpoint cannot be used for account enumeration.

Response:
  - 200: Generic confirmation
  - 429: Throttle tripped for this address
*/
func (handler *Handler) forgotPassword(writer http.ResponseWriter, request *http.Request) {
	var input forgotPasswordRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).Email(FieldEmail, input.Email)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.passwordService.ForgotPassword(request.Context(), input.Email, input.TenantID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OKMessage(writer, "If the email is registered, a reset link has been sent", nil)
}

/*
ResetPassword redeems a reset token for a new password.

POST /api/v1/auth/reset-password

Response:
  - 200: Confirmation; every existing session is now invalid
  - 400: Expired or already-used token, weak or reused password
  - 401: Unknown token
*/
func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	var input resetPasswordRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldToken, input.Token).
		Required(FieldNewPassword, input.NewPassword)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.passwordService.ResetPassword(request.Context(), input.Token, input.NewPassword); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OKMessage(writer, "Password has been reset. Please log in with your new password", nil)
}

/*
ChangePassword rotates the password of the authenticated caller.

POST /api/v1/auth/change-password

Response:
  - 200: Confirmation; existing sessions stay alive
  - 400: Weak or reused password
  - 401: Wrong current password
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input changePasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldCurrentPassword, input.CurrentPassword).
		Required(FieldNewPassword, input.NewPassword)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.passwordService.ChangePassword(request.Context(), userID, input.CurrentPassword, input.NewPassword); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OKMessage(writer, "Password changed successfully", nil)
}

// # One-Time Code Endpoints

/*
OtpRequest issues a single-use numeric code by email.

POST /api/v1/auth/otp/request

Response:
  - 200: OtpRequestResult (code included only in insecure test mode)
  - 404: Unknown user for a non-LOGIN flow
  - 429: Issuance throttle tripped
*/
func (handler *Handler) otpRequest(writer http.ResponseWriter, request *http.Request) {
	var input otpRequestRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldOtpType, input.Type).
		OneOf(FieldOtpType, input.Type, string(OtpLogin), string(OtpEmailVerify), string(OtpPasswordReset))
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.otpService.Request(request.Context(), input.Email, input.TenantID, OtpType(input.Type))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, result)
}

/*
OtpVerify redeems a numeric code.

POST /api/v1/auth/otp/verify

LOGIN codes return tokens and a device session, auto-provisioning the account
when the email is new. Other types confirm with verified=true.

Response:
  - 200: OtpVerifyResult
  - 400: Expired code or attempt ceiling reached
  - 401: Code mismatch
  - 404: No unused code for this email and type
*/
func (handler *Handler) otpVerify(writer http.ResponseWriter, request *http.Request) {
	var input otpVerifyRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldCode, input.Code).
		NumericCode(FieldCode, input.Code).
		Required(FieldOtpType, input.Type).
		OneOf(FieldOtpType, input.Type, string(OtpLogin), string(OtpEmailVerify), string(OtpPasswordReset))
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.otpService.Verify(request.Context(), OtpVerifyInput{
		Email:     input.Email,
		TenantID:  input.TenantID,
		Code:      input.Code,
		Type:      OtpType(input.Type),
		UserAgent: request.UserAgent(),
		IPAddress: getClientIP(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, result)
}

// # Multi-Factor Endpoints

/*
MfaSetup starts TOTP enrollment for the authenticated caller.

POST /api/v1/auth/mfa/setup

Response:
  - 200: MfaSetup (secret, otpauth URI, QR code data URL)
  - 409: MFA already enabled
*/
func (handler *Handler) mfaSetup(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	setup, err := handler.mfaService.InitiateSetup(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, setup)
}

/*
MfaConfirm proves possession of the pending secret and activates MFA.

POST /api/v1/auth/mfa/confirm

Response:
  - 200: Plaintext backup codes, shown exactly once
  - 401: Code mismatch
*/
func (handler *Handler) mfaConfirm(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input mfaCodeRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldCode, input.Code).NumericCode(FieldCode, input.Code)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	backupCodes, err := handler.mfaService.ConfirmSetup(request.Context(), userID, input.Code)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OKMessage(writer, "MFA enabled. Store your backup codes in a safe place", map[string]any{
		"backupCodes": backupCodes,
	})
}

/*
MfaVerify completes a login that returned an MFA challenge.

POST /api/v1/auth/mfa/verify

Public by design: the caller holds only the challenge token from the login
response, not a bearer token.

Response:
  - 200: LoginResult: Full session shape
  - 401: Invalid challenge token or code
*/
func (handler *Handler) mfaVerify(writer http.ResponseWriter, request *http.Request) {
	var input mfaVerifyRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldToken, input.MfaToken).
		Required(FieldCode, input.Code)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.authService.VerifyMfaLogin(request.Context(),
		input.MfaToken, input.Code, request.UserAgent(), getClientIP(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, result)
}

/*
MfaDisable turns MFA off. Requires both the account password and a currently
valid TOTP or backup code.

POST /api/v1/auth/mfa/disable
*/
func (handler *Handler) mfaDisable(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input mfaDisableRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldPassword, input.Password).
		Required(FieldCode, input.Code)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.mfaService.Disable(request.Context(), userID, input.Password, input.Code); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OKMessage(writer, "MFA disabled", nil)
}

// MfaStatus reports the MFA state for the account-security page.
//
// GET /api/v1/auth/mfa/status
func (handler *Handler) mfaStatus(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	status, err := handler.mfaService.Status(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, status)
}

// # Session Endpoints

/*
ListSessions enumerates the caller's live device sessions, flagging the one
matching the x-session-token header.

GET /api/v1/auth/sessions
*/
func (handler *Handler) listSessions(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	sessions, err := handler.sessionService.GetUserSessions(request.Context(), userID, requestutil.SessionToken(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, sessions)
}

/*
TerminateSession deletes one of the caller's sessions by ID.

DELETE /api/v1/auth/sessions/{id}

Response:
  - 204: Session removed
  - 404: Unknown session, or a session owned by another account
*/
func (handler *Handler) terminateSession(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	sessionID := requestutil.ID(request, "id")
	if sessionID == "" {
		respond.Error(writer, request, apperr.BadRequest("Session id is required"))
		return
	}

	if err := handler.sessionService.TerminateSession(request.Context(), sessionID, userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
TerminateAllSessions logs out the caller's other devices, sparing the session
named by the x-session-token header when present.

DELETE /api/v1/auth/sessions
*/
func (handler *Handler) terminateAllSessions(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	terminated, err := handler.sessionService.TerminateAllSessions(request.Context(), userID, requestutil.SessionToken(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OKMessage(writer, "Sessions terminated", map[string]any{"terminated": terminated})
}

/*
ValidateSession probes the session named by the x-session-token header.

GET /api/v1/auth/sessions/validate

Fails closed: unknown and expired tokens both report valid=false with 200.
*/
func (handler *Handler) validateSession(writer http.ResponseWriter, request *http.Request) {
	token := requestutil.SessionToken(request)
	if token == "" {
		respond.Error(writer, request, validate.RequiredError(FieldSessionToken, "header is required"))
		return
	}

	validation, err := handler.sessionService.ValidateSession(request.Context(), token)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, validation)
}

/*
RefreshSession is the client heartbeat: slides the session expiry forward to
now plus the caller's role timeout.

POST /api/v1/auth/sessions/refresh
*/
func (handler *Handler) refreshSession(writer http.ResponseWriter, request *http.Request) {
	token := requestutil.SessionToken(request)
	if token == "" {
		respond.Error(writer, request, validate.RequiredError(FieldSessionToken, "header is required"))
		return
	}

	refreshed, err := handler.sessionService.RefreshSession(request.Context(), token)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, refreshed)
}

// SessionTimeout exposes the caller's role-based timeout for countdown UI.
//
// GET /api/v1/auth/session-timeout
func (handler *Handler) sessionTimeout(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, handler.sessionService.GetSessionTimeout(claims.Role))
}

// getClientIP extracts the originating address, honoring proxy headers.
func getClientIP(request *http.Request) string {

	ip := request.Header.Get("X-Real-IP")
	if ip == "" {
		// X-Forwarded-For may carry a proxy chain; the first entry is the
		// originating client.
		forwarded := request.Header.Get("X-Forwarded-For")
		if index := strings.Index(forwarded, ","); index >= 0 {
			forwarded = forwarded[:index]
		}
		ip = strings.TrimSpace(forwarded)
	}

	if ip == "" {
		ip = request.RemoteAddr
	}
	return ip
}
