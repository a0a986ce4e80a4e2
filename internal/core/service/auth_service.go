package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/gearguard/gearguard/internal/core/domain"
	"github.com/gearguard/gearguard/internal/core/ports"
)

// MinPasswordLength is the weakest password the service accepts. The check
// lives here rather than in the credential store so storage stays free of
// policy.
const MinPasswordLength = 6

const otpTTL = 10 * time.Minute

// AuthService implements login, one-time admin bootstrap, provisioning,
// profile and password management, and the OTP reset flow.
type AuthService struct {
	store     ports.CredentialStore
	revoker   ports.TokenRevoker
	otps      ports.OTPStore
	mail      ports.MailPublisher
	jwtSecret string
	tokenTTL  time.Duration
	log       zerolog.Logger
}

func NewAuthService(store ports.CredentialStore, revoker ports.TokenRevoker, otps ports.OTPStore, mail ports.MailPublisher, jwtSecret string, tokenTTL time.Duration, log zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		store:     store,
		revoker:   revoker,
		otps:      otps,
		mail:      mail,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		log:       log,
	}
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.store.Verify(ctx, email, password)
	if err != nil {
		return "", nil, err
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *AuthService) SetupAdmin(ctx context.Context, input ports.SignupInput) (string, *domain.User, error) {
	exists, err := s.store.AnyAdminExists(ctx)
	if err != nil {
		return "", nil, err
	}
	if exists {
		return "", nil, domain.ErrAdminExists
	}

	input.Role = domain.RoleAdmin
	admin, err := s.createRecord(ctx, input)
	if err != nil {
		return "", nil, err
	}

	token, err := s.generateToken(admin)
	if err != nil {
		return "", nil, err
	}
	return token, admin, nil
}

func (s *AuthService) CreateUser(ctx context.Context, actorRole domain.Role, input ports.SignupInput) (*domain.User, error) {
	if !input.Role.Valid() {
		return nil, fmt.Errorf("create user: unknown role %q", input.Role)
	}
	if !actorRole.CanProvision(input.Role) {
		return nil, domain.ErrForbidden
	}

	user, err := s.createRecord(ctx, input)
	if err != nil {
		return nil, err
	}

	s.publishMail(ctx, domain.MailMessage{
		Type: domain.MailTypeNewAccount,
		To:   user.Email,
		Data: domain.NewAccountMailData{FullName: user.FullName, Email: user.Email, Role: user.Role},
	})

	return user, nil
}

func (s *AuthService) CurrentUser(ctx context.Context, email string) (*domain.User, error) {
	return s.store.FindByEmail(ctx, email)
}

func (s *AuthService) UpdateProfile(ctx context.Context, email string, patch domain.ProfilePatch) (*domain.User, error) {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.store.UpdateProfile(ctx, user.ID, patch)
}

func (s *AuthService) ChangePassword(ctx context.Context, email, current, next string) error {
	if len(next) < MinPasswordLength {
		return domain.ErrWeakPassword
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	return s.store.ChangeSecret(ctx, user.ID, current, next)
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	// Revoke for whatever lifetime the token has left; an unparsable
	// token has nothing to revoke.
	remaining := s.tokenTTL
	claims := jwt.MapClaims{}
	if _, err := jwt.ParseWithClaims(token, claims, s.keyFunc); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			remaining = time.Until(exp.Time)
		}
	}
	if remaining <= 0 {
		return nil
	}
	return s.revoker.Revoke(ctx, token, remaining)
}

func (s *AuthService) AdminExists(ctx context.Context) (bool, error) {
	return s.store.AnyAdminExists(ctx)
}

func (s *AuthService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.store.ListUsers(ctx)
}

func (s *AuthService) ListUsersByRole(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	return s.store.ListUsersByRole(ctx, role)
}

func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Answer unknown emails exactly like known ones so the
			// endpoint cannot be used for account enumeration.
			s.log.Debug().Str("email", domain.NormalizeEmail(email)).Msg("password reset requested for unknown email")
			return nil
		}
		return err
	}

	otp, err := generateOTP()
	if err != nil {
		return err
	}

	if err := s.otps.Put(ctx, domain.NormalizeEmail(email), otp, otpTTL); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}

	s.publishMail(ctx, domain.MailMessage{
		Type: domain.MailTypeResetPassword,
		To:   user.Email,
		Data: domain.ResetPasswordMailData{
			FullName:      user.FullName,
			OTP:           otp,
			ExpiryMinutes: int(otpTTL.Minutes()),
		},
	})

	return nil
}

func (s *AuthService) VerifyOTP(ctx context.Context, email, otp string) error {
	stored, err := s.otps.Get(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return err
	}
	if stored != otp {
		return domain.ErrInvalidOTP
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, email, otp, next string) error {
	if err := s.VerifyOTP(ctx, email, otp); err != nil {
		return err
	}
	if len(next) < MinPasswordLength {
		return domain.ErrWeakPassword
	}

	if err := s.store.ResetSecret(ctx, email, next); err != nil {
		return err
	}

	// A leftover OTP must not reset the password twice.
	if err := s.otps.Delete(ctx, domain.NormalizeEmail(email)); err != nil {
		s.log.Warn().Err(err).Msg("failed to delete used OTP")
	}
	return nil
}

func (s *AuthService) createRecord(ctx context.Context, input ports.SignupInput) (*domain.User, error) {
	if input.Email == "" || input.FullName == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if len(input.Password) < MinPasswordLength {
		return nil, domain.ErrWeakPassword
	}

	username := input.Username
	if username == "" {
		username = strings.SplitN(domain.NormalizeEmail(input.Email), "@", 2)[0]
	}

	user := &domain.User{
		Username: username,
		Email:    domain.NormalizeEmail(input.Email),
		FullName: input.FullName,
		Role:     input.Role,
		Active:   true,
	}
	return s.store.Create(ctx, user, input.Password)
}

func (s *AuthService) publishMail(ctx context.Context, msg domain.MailMessage) {
	if s.mail == nil {
		return
	}
	// Mail is best-effort: a dead broker must not fail the user action.
	if err := s.mail.Publish(ctx, msg); err != nil {
		s.log.Error().Err(err).Str("type", msg.Type).Msg("failed to publish mail message")
	}
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  user.Email,
		"role": string(user.Role),
		"uid":  user.ID,
		"iat":  now.Unix(),
		"exp":  now.Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

func (s *AuthService) keyFunc(token *jwt.Token) (interface{}, error) {
	if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	return []byte(s.jwtSecret), nil
}

// generateOTP returns a 6-digit numeric code.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
