package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/ledgerly/finance-tracker/internal/core/domain"
	"github.com/ledgerly/finance-tracker/internal/core/ports"
)

const minPasswordLength = 6

// dummyHash is compared against when the email is unknown so that both
// failure paths of Login cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)

var validate = validator.New()

// LoginLimiter abstracts the failed-login counter (Redis).
type LoginLimiter interface {
	Blocked(ctx context.Context, key string) (bool, error)
	RecordFailure(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

// AuthService implements signup, login, refresh, logout and password reset.
type AuthService struct {
	users     ports.UserRepository
	tokens    ports.TokenService
	mailer    ports.Mailer
	limiter   LoginLimiter
	resetBase string
	resetTTL  time.Duration
	log       zerolog.Logger
	now       func() time.Time
}

// NewAuthService wires the auth use cases. limiter may be nil to disable
// login throttling. resetBase is the front-end origin reset links point at.
func NewAuthService(
	users ports.UserRepository,
	tokens ports.TokenService,
	mailer ports.Mailer,
	limiter LoginLimiter,
	resetBase string,
	resetTTL time.Duration,
	log zerolog.Logger,
) *AuthService {
	if resetTTL <= 0 {
		resetTTL = defaultResetTTL
	}
	return &AuthService{
		users:     users,
		tokens:    tokens,
		mailer:    mailer,
		limiter:   limiter,
		resetBase: strings.TrimRight(resetBase, "/"),
		resetTTL:  resetTTL,
		log:       log,
		now:       time.Now,
	}
}

func (s *AuthService) Signup(ctx context.Context, in ports.SignupInput) (*ports.TokenPair, error) {
	username := strings.TrimSpace(in.Username)
	email := normalizeEmail(in.Email)

	if username == "" {
		return nil, domain.NewValidationError("username is required")
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(in.Password) < minPasswordLength {
		return nil, domain.NewValidationError(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("signup: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("signup: hash password: %w", err)
	}

	now := s.now().UTC()
	user, err := s.users.Create(ctx, &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, err
		}
		return nil, fmt.Errorf("signup: %w", err)
	}

	pair, err := s.startSession(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("user signed up")
	return pair, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	key := "login_fail:" + email
	if s.limiter != nil {
		blocked, err := s.limiter.Blocked(ctx, key)
		if err != nil {
			s.log.Warn().Err(err).Msg("login throttle check failed, proceeding")
		} else if blocked {
			return nil, domain.ErrTooManyAttempts
		}
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("login: %w", err)
		}
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		s.recordFailure(ctx, key)
		return nil, domain.ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.recordFailure(ctx, key)
		s.log.Info().Str("user_id", user.ID).Msg("login failed")
		return nil, domain.ErrInvalidCredentials
	}

	pair, err := s.startSession(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, key); err != nil {
			s.log.Warn().Err(err).Msg("failed to reset login throttle")
		}
	}

	s.log.Info().Str("user_id", user.ID).Msg("user logged in")
	return &ports.LoginResult{Tokens: *pair, Profile: user.Profile()}, nil
}

// Refresh mints a new access token. The refresh token must both verify and
// equal the value currently stored for its user.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", domain.ErrUnauthorized
	}

	user, err := s.users.FindByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.log.Info().Msg("refresh rejected: token not on record")
			return "", domain.ErrInvalidToken
		}
		return "", fmt.Errorf("refresh: %w", err)
	}

	userID, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil || userID != user.ID {
		s.log.Info().Str("user_id", user.ID).Msg("refresh rejected: verification failed")
		return "", domain.ErrInvalidToken
	}

	access, err := s.tokens.IssueAccessToken(userID)
	if err != nil {
		return "", fmt.Errorf("refresh: issue access token: %w", err)
	}
	return access, nil
}

// Logout revokes the stored refresh token. Clearing an empty slot is a no-op.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return err
	}
	if err := s.users.SetRefreshToken(ctx, userID, ""); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.log.Info().Str("user_id", userID).Msg("user logged out")
	return nil
}

func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return domain.NewValidationError("email is required")
	}
	if err := validateEmail(email); err != nil {
		return err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	token, err := s.tokens.IssueResetToken(user.ID)
	if err != nil {
		return fmt.Errorf("forgot password: issue reset token: %w", err)
	}
	expiry := s.now().Add(s.resetTTL).UTC()
	if err := s.users.SetResetToken(ctx, user.ID, token, expiry); err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}

	link := s.resetBase + "/reset-password?token=" + url.QueryEscape(token)
	if err := s.mailer.SendPasswordReset(ctx, user.Email, link); err != nil {
		return fmt.Errorf("forgot password: send email: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("password reset requested")
	return nil
}

// ResetPassword sets a new password. The reset token is single use: it is
// cleared in the same write that replaces the hash.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return domain.NewValidationError("token is required")
	}
	if len(newPassword) < minPasswordLength {
		return domain.NewValidationError(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	userID, err := s.tokens.VerifyResetToken(token)
	if err != nil {
		return domain.ErrInvalidToken
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrInvalidToken
		}
		return fmt.Errorf("reset password: %w", err)
	}
	if !user.ResetTokenValid(token, s.now()) {
		return domain.ErrInvalidToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("reset password: hash password: %w", err)
	}
	if err := s.users.ConsumeResetToken(ctx, userID, token, string(hash)); err != nil {
		if errors.Is(err, domain.ErrInvalidToken) {
			return err
		}
		return fmt.Errorf("reset password: %w", err)
	}

	s.log.Info().Str("user_id", userID).Msg("password reset")
	return nil
}

func (s *AuthService) Profile(ctx context.Context, userID string) (*domain.Profile, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	p := user.Profile()
	return &p, nil
}

// startSession issues a token pair and stores the refresh token, replacing
// whatever session the user had before.
func (s *AuthService) startSession(ctx context.Context, userID string) (*ports.TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(userID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefreshToken(userID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	if err := s.users.SetRefreshToken(ctx, userID, refresh); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return &ports.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) recordFailure(ctx context.Context, key string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.RecordFailure(ctx, key); err != nil {
		s.log.Warn().Err(err).Msg("failed to record login failure")
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if err := validate.Var(email, "required,email"); err != nil {
		return domain.NewValidationError("a valid email is required")
	}
	return nil
}
