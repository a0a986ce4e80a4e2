package domain

import "errors"

var (
	// ErrInvalidCredentials covers both unknown email and wrong password.
	// Callers surface it as a generic "authentication failed" so the API
	// never reveals which half was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrDuplicateEmail signals a create against an already-registered
	// (case-insensitively matching) email.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrAdminExists signals a setup-admin call after the one-time
	// bootstrap window has closed.
	ErrAdminExists = errors.New("admin already exists")

	// ErrWrongPassword signals a password change with a bad current password.
	ErrWrongPassword = errors.New("current password is incorrect")

	// ErrWeakPassword signals a new password below the minimum length.
	ErrWeakPassword = errors.New("password must be at least 6 characters")

	ErrUserNotFound = errors.New("user not found")
	ErrForbidden    = errors.New("access forbidden")

	ErrInvalidOTP = errors.New("invalid OTP")
	ErrOTPExpired = errors.New("OTP has expired")

	// ErrTokenRevoked signals a bearer token that was explicitly logged out.
	ErrTokenRevoked = errors.New("token revoked")

	// ErrNetwork wraps client-side transport failures. Never retried
	// automatically; the caller decides whether to offer a retry.
	ErrNetwork = errors.New("network failure")
)
