package ports

import (
	"context"

	"github.com/gearguard/gearguard/internal/core/domain"
)

// CredentialStore is the authority for user records and secret verification.
// Two implementations exist: the Mongo-backed production store and the
// file-backed demo store. Every mutation must be observable by a subsequent
// FindByEmail/Verify — no write caching.
//
// The store enforces storage invariants only (unique normalized email,
// secret match). Policy checks such as minimum password length belong to
// the caller.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)

	// Verify returns the user when email and secret both match, and
	// domain.ErrInvalidCredentials otherwise — never revealing which of
	// the two failed.
	Verify(ctx context.Context, email, secret string) (*domain.User, error)

	// Create hashes the secret and inserts the record. Fails with
	// domain.ErrDuplicateEmail when the normalized email is taken.
	Create(ctx context.Context, user *domain.User, secret string) (*domain.User, error)

	UpdateProfile(ctx context.Context, id string, patch domain.ProfilePatch) (*domain.User, error)

	// ChangeSecret fails with domain.ErrWrongPassword when current does
	// not match the stored secret.
	ChangeSecret(ctx context.Context, id, current, next string) error

	// ResetSecret overwrites the secret without knowing the current one.
	// Reserved for the OTP reset flow; the caller owns OTP verification.
	ResetSecret(ctx context.Context, email, next string) error

	AnyAdminExists(ctx context.Context) (bool, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
	ListUsersByRole(ctx context.Context, role domain.Role) ([]*domain.User, error)
}
