package ports

import (
	"context"
	"time"

	"github.com/gearguard/gearguard/internal/core/domain"
)

// TokenRevoker is the denylist consulted by the auth middleware. Revoking
// an unknown token is not an error.
type TokenRevoker interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// OTPStore holds short-lived password-reset codes keyed by normalized email.
type OTPStore interface {
	Put(ctx context.Context, email, otp string, ttl time.Duration) error
	// Get returns domain.ErrOTPExpired when no code is stored for email.
	Get(ctx context.Context, email string) (string, error)
	Delete(ctx context.Context, email string) error
}

// MailPublisher hands mail messages to the outbox queue. Delivery is the
// mailer worker's problem.
type MailPublisher interface {
	Publish(ctx context.Context, msg domain.MailMessage) error
}
