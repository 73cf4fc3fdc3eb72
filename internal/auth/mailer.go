// Copyright (c) 2026 TalentX. All rights reserved.
// Author: platform@talentx.app

package auth

import "context"

// Mailer is the outbound email contract this package depends on. All sends are
// fire-and-forget from the caller's perspective: failures are logged at the
// call site and never fail the originating request.
//
// Satisfied by [email.SMTPMailer] and [email.LogMailer].
type Mailer interface {
	SendOtpEmail(ctx context.Context, toEmail, code, purpose string) error
	SendPasswordResetEmail(ctx context.Context, toEmail, resetURL string) error
	SendInvitationEmail(ctx context.Context, toEmail, inviterName, acceptURL string) error
}

// detachedContext preserves the parent's values (request ID, logger) while
// dropping its cancellation, so an async send outlives the originating request.
func detachedContext(parent context.Context) context.Context {
	return context.WithoutCancel(parent)
}
