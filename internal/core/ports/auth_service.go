package ports

import (
	"context"

	"github.com/gearguard/gearguard/internal/core/domain"
)

// SignupInput carries the fields for provisioning a new account.
type SignupInput struct {
	Username string
	Password string
	FullName string
	Email    string
	Role     domain.Role
}

// AuthService is the server-side authentication core consumed by the HTTP
// handlers.
type AuthService interface {
	Login(ctx context.Context, email, password string) (string, *domain.User, error)

	// SetupAdmin is the one-time bootstrap path: permitted only while no
	// admin exists, and behaves like a successful login.
	SetupAdmin(ctx context.Context, input SignupInput) (string, *domain.User, error)

	// CreateUser provisions an account on behalf of actorRole. Only
	// ADMIN and MANAGER may provision; a MANAGER may create neither
	// ADMIN nor MANAGER accounts.
	CreateUser(ctx context.Context, actorRole domain.Role, input SignupInput) (*domain.User, error)

	CurrentUser(ctx context.Context, email string) (*domain.User, error)
	UpdateProfile(ctx context.Context, email string, patch domain.ProfilePatch) (*domain.User, error)
	ChangePassword(ctx context.Context, email, current, next string) error

	// Logout revokes the bearer token for the remainder of its lifetime.
	Logout(ctx context.Context, token string) error

	AdminExists(ctx context.Context) (bool, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
	ListUsersByRole(ctx context.Context, role domain.Role) ([]*domain.User, error)

	ForgotPassword(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, otp string) error
	ResetPassword(ctx context.Context, email, otp, next string) error
}
