package ports

import (
	"context"

	"github.com/gearguard/gearguard/internal/core/domain"
)

// IdentityProvider is the single contract the session manager talks to.
// Two implementations exist: a REST client of the identity service and a
// local provider over the demo credential store. The session manager never
// knows which one it holds.
type IdentityProvider interface {
	Login(ctx context.Context, email, password string) (string, *domain.User, error)

	// Resolve maps a persisted token back to its identity. A revoked,
	// expired or otherwise rejected token yields
	// domain.ErrInvalidCredentials, which the caller must treat as
	// "drop session".
	Resolve(ctx context.Context, token string) (*domain.User, error)

	SetupAdmin(ctx context.Context, input SignupInput) (string, *domain.User, error)
	CreateUser(ctx context.Context, token string, input SignupInput) (*domain.User, error)
	UpdateProfile(ctx context.Context, token string, patch domain.ProfilePatch) (*domain.User, error)
	ChangePassword(ctx context.Context, token, current, next string) error
	AdminExists(ctx context.Context) (bool, error)
	Logout(ctx context.Context, token string) error
}
