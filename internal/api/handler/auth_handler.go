package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gearguard/gearguard/internal/api/metrics"
	"github.com/gearguard/gearguard/internal/core/domain"
	"github.com/gearguard/gearguard/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type signupRequest struct {
	Username string `json:"username"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Role     string `json:"role"`
}

type profileRequest struct {
	FullName  *string `json:"fullName"`
	Phone     *string `json:"phone"`
	AvatarURL *string `json:"avatarUrl"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type verifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6"`
}

type resetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required,len=6"`
	NewPassword string `json:"newPassword" validate:"required"`
}

// authResponse flattens the token next to the user fields, matching what
// the dashboard client expects.
type authResponse struct {
	Token string `json:"token,omitempty"`
	*domain.User
}

type checkAdminResponse struct {
	AdminExists bool `json:"adminExists"`
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// Login authenticates a user and returns a JWT token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	token, user, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return err
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()

	return c.JSON(http.StatusOK, authResponse{Token: token, User: user})
}

// SetupAdmin provisions the first administrator account. It is the only
// unauthenticated account-creation path and works exactly once.
//
// @Summary      Bootstrap the first admin account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "Admin account details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /auth/setup-admin [post]
func (h *AuthHandler) SetupAdmin(c echo.Context) error {
	var req signupRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	token, admin, err := h.authService.SetupAdmin(c.Request().Context(), ports.SignupInput{
		Username: req.Username,
		Password: req.Password,
		FullName: req.FullName,
		Email:    req.Email,
	})
	if err != nil {
		return err
	}
	metrics.UsersProvisionedTotal.WithLabelValues(string(domain.RoleAdmin)).Inc()

	return c.JSON(http.StatusCreated, authResponse{Token: token, User: admin})
}

// CheckAdmin reports whether an admin account exists, so clients know
// whether to offer the one-time setup screen.
//
// @Summary      Check whether initial admin setup is still open
// @Tags         auth
// @Produce      json
// @Success      200  {object}  checkAdminResponse
// @Router       /auth/check-admin [get]
func (h *AuthHandler) CheckAdmin(c echo.Context) error {
	exists, err := h.authService.AdminExists(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, checkAdminResponse{AdminExists: exists})
}

// CreateUser provisions an account on behalf of the authenticated caller.
//
// @Summary      Create a user account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "New account details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /auth/create-user [post]
// @Security     BearerAuth
func (h *AuthHandler) CreateUser(c echo.Context) error {
	var req signupRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	_, actorRole, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	user, err := h.authService.CreateUser(c.Request().Context(), actorRole, ports.SignupInput{
		Username: req.Username,
		Password: req.Password,
		FullName: req.FullName,
		Email:    req.Email,
		Role:     role,
	})
	if err != nil {
		return err
	}
	metrics.UsersProvisionedTotal.WithLabelValues(string(user.Role)).Inc()

	return c.JSON(http.StatusCreated, authResponse{User: user})
}

// Me returns the account behind the bearer token.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Success      200  {object}  domain.User
// @Failure      401  {object}  map[string]string
// @Router       /auth/me [get]
// @Security     BearerAuth
func (h *AuthHandler) Me(c echo.Context) error {
	email, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	user, err := h.authService.CurrentUser(c.Request().Context(), email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateProfile patches the caller's own profile fields. Absent fields are
// left untouched.
//
// @Summary      Update own profile
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      profileRequest  true  "Fields to update"
// @Success      200   {object}  domain.User
// @Failure      404   {object}  map[string]string
// @Router       /auth/profile [put]
// @Security     BearerAuth
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	var req profileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	email, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	user, err := h.authService.UpdateProfile(c.Request().Context(), email, domain.ProfilePatch{
		FullName:  req.FullName,
		Phone:     req.Phone,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// ChangePassword rotates the caller's password after verifying the
// current one.
//
// @Summary      Change own password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      changePasswordRequest  true  "Current and new password"
// @Success      204   "password changed"
// @Failure      400   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /auth/change-password [post]
// @Security     BearerAuth
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req changePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	email, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	if err := h.authService.ChangePassword(c.Request().Context(), email, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Logout revokes the presented bearer token for the remainder of its
// lifetime.
//
// @Summary      Logout
// @Tags         auth
// @Success      204  "token revoked"
// @Router       /auth/logout [post]
// @Security     BearerAuth
func (h *AuthHandler) Logout(c echo.Context) error {
	token, err := ctxToken(c)
	if err != nil {
		return err
	}

	if err := h.authService.Logout(c.Request().Context(), token); err != nil {
		return err
	}
	metrics.TokensRevokedTotal.Inc()

	return c.NoContent(http.StatusNoContent)
}

// ListUsers returns all accounts, optionally filtered by role.
//
// @Summary      List users
// @Tags         auth
// @Produce      json
// @Param        role  query     string  false  "Filter by role"
// @Success      200   {array}   domain.User
// @Router       /auth/users [get]
// @Security     BearerAuth
func (h *AuthHandler) ListUsers(c echo.Context) error {
	if raw := c.QueryParam("role"); raw != "" {
		role, err := domain.ParseRole(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		users, err := h.authService.ListUsersByRole(c.Request().Context(), role)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, users)
	}

	users, err := h.authService.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// ForgotPassword starts the OTP reset flow. The response is identical for
// known and unknown emails.
//
// @Summary      Request a password reset code
// @Tags         auth
// @Accept       json
// @Success      204  "reset code sent if the account exists"
// @Router       /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.authService.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return err
	}
	metrics.PasswordResetsTotal.WithLabelValues("requested").Inc()

	return c.NoContent(http.StatusNoContent)
}

// VerifyOTP checks a reset code without consuming it.
//
// @Summary      Verify a password reset code
// @Tags         auth
// @Accept       json
// @Success      204  "code is valid"
// @Failure      400  {object}  map[string]string
// @Router       /auth/verify-otp [post]
func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	var req verifyOTPRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.authService.VerifyOTP(c.Request().Context(), req.Email, req.OTP); err != nil {
		return err
	}
	metrics.PasswordResetsTotal.WithLabelValues("verified").Inc()

	return c.NoContent(http.StatusNoContent)
}

// ResetPassword completes the OTP reset flow with a new password.
//
// @Summary      Reset password with a verification code
// @Tags         auth
// @Accept       json
// @Success      204  "password reset"
// @Failure      400  {object}  map[string]string
// @Failure      422  {object}  map[string]string
// @Router       /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.authService.ResetPassword(c.Request().Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		return err
	}
	metrics.PasswordResetsTotal.WithLabelValues("completed").Inc()

	return c.NoContent(http.StatusNoContent)
}
