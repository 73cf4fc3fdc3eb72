// Copyright (c) 2026 TalentX. All rights reserved.
// Author: platform@talentx.app

/*
Package email delivers transactional mail for the authentication flows.

It currently covers one-time codes, password reset links, and teammate
invitations. Delivery is always fire-and-forget from the caller's point of
view: a failed send is logged, never surfaced to the HTTP client, so mail
outages cannot reveal whether an address is registered.

Implementations:

  - SMTPMailer: real delivery over SMTP with STARTTLS.
  - LogMailer: development fallback that writes the mail to the log.
*/
package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// Mailer sends the transactional messages the auth flows produce.
type Mailer interface {
	SendOtpEmail(ctx context.Context, toEmail, code string, purpose string) error
	SendPasswordResetEmail(ctx context.Context, toEmail, resetURL string) error
	SendInvitationEmail(ctx context.Context, toEmail, inviterName, acceptURL string) error
}

// # SMTP Delivery

// SMTPMailer sends mail through a single configured SMTP relay.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	logger   *slog.Logger
}

// NewSMTPMailer constructs an [SMTPMailer].
func NewSMTPMailer(host string, port int, username, password, from string, logger *slog.Logger) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		logger:   logger,
	}
}

// SendOtpEmail delivers a one-time verification code.
func (mailer *SMTPMailer) SendOtpEmail(ctx context.Context, toEmail, code string, purpose string) error {
	subject := "Your TalentX " + purposeLabel(purpose) + " code"
	body := fmt.Sprintf(
		"Your %s code is: %s\r\n\r\n"+
			"It expires in 10 minutes. If you did not request this code, you can ignore this email.\r\n",
		purposeLabel(purpose), code,
	)
	return mailer.send(ctx, toEmail, subject, body)
}

// purposeLabel maps an OTP purpose to the wording used in the message. The
// purpose strings mirror the verification-code types the auth domain sends.
func purposeLabel(purpose string) string {
	switch purpose {
	case "LOGIN":
		return "sign-in"
	case "EMAIL_VERIFY":
		return "email verification"
	case "PASSWORD_RESET":
		return "password reset"
	default:
		return "verification"
	}
}

// SendPasswordResetEmail delivers a password reset link.
func (mailer *SMTPMailer) SendPasswordResetEmail(ctx context.Context, toEmail, resetURL string) error {
	subject := "Reset your TalentX password"
	body := fmt.Sprintf(
		"We received a request to reset your password.\r\n\r\n"+
			"Reset it here: %s\r\n\r\n"+
			"The link expires in 1 hour. If you did not request a reset, no action is needed.\r\n",
		resetURL,
	)
	return mailer.send(ctx, toEmail, subject, body)
}

// SendInvitationEmail delivers a teammate invitation.
func (mailer *SMTPMailer) SendInvitationEmail(ctx context.Context, toEmail, inviterName, acceptURL string) error {
	subject := "You have been invited to TalentX"
	body := fmt.Sprintf(
		"%s invited you to join their team on TalentX.\r\n\r\n"+
			"Accept the invitation here: %s\r\n",
		inviterName, acceptURL,
	)
	return mailer.send(ctx, toEmail, subject, body)
}

// send performs one SMTP transaction with STARTTLS and optional AUTH.
func (mailer *SMTPMailer) send(ctx context.Context, toEmail, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("email: send cancelled: %w", err)
	}

	address := fmt.Sprintf("%s:%d", mailer.host, mailer.port)
	client, err := smtp.Dial(address)
	if err != nil {
		return fmt.Errorf("email: smtp dial failed: %w", err)
	}
	defer func() { _ = client.Close() }()

	if ok, _ := client.Extension("STARTTLS"); ok {
		tlsConfig := &tls.Config{ServerName: mailer.host, MinVersion: tls.VersionTLS12}
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("email: starttls failed: %w", err)
		}
	}

	if mailer.username != "" {
		auth := smtp.PlainAuth("", mailer.username, mailer.password, mailer.host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("email: smtp auth failed: %w", err)
		}
	}

	if err := client.Mail(mailer.from); err != nil {
		return fmt.Errorf("email: smtp mail failed: %w", err)
	}
	if err := client.Rcpt(toEmail); err != nil {
		return fmt.Errorf("email: smtp rcpt failed: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("email: smtp data failed: %w", err)
	}
	if _, err := writer.Write([]byte(buildMessage(mailer.from, toEmail, subject, body))); err != nil {
		return fmt.Errorf("email: smtp write failed: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("email: smtp close failed: %w", err)
	}

	if err := client.Quit(); err != nil && !strings.Contains(err.Error(), "use of closed network connection") {
		return fmt.Errorf("email: smtp quit failed: %w", err)
	}

	mailer.logger.Info("email_sent", slog.String("to", toEmail), slog.String("subject", subject))
	return nil
}

// buildMessage assembles a minimal RFC 5322 plain-text message.
func buildMessage(from, to, subject, body string) string {
	lines := []string{
		"From: " + from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}
	return strings.Join(lines, "\r\n")
}

// # Development Delivery

// LogMailer writes mail to the structured log instead of sending it.
// Used in development and tests where no SMTP relay is available.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer constructs a [LogMailer].
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (mailer *LogMailer) SendOtpEmail(ctx context.Context, toEmail, code string, purpose string) error {
	mailer.logger.InfoContext(ctx, "email_otp_logged",
		slog.String("to", toEmail),
		slog.String("purpose", purpose),
		slog.String("code", code),
	)
	return nil
}

func (mailer *LogMailer) SendPasswordResetEmail(ctx context.Context, toEmail, resetURL string) error {
	mailer.logger.InfoContext(ctx, "email_password_reset_logged",
		slog.String("to", toEmail),
		slog.String("reset_url", resetURL),
	)
	return nil
}

func (mailer *LogMailer) SendInvitationEmail(ctx context.Context, toEmail, inviterName, acceptURL string) error {
	mailer.logger.InfoContext(ctx, "email_invitation_logged",
		slog.String("to", toEmail),
		slog.String("inviter", inviterName),
		slog.String("accept_url", acceptURL),
	)
	return nil
}
