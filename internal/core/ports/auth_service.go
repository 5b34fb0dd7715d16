package ports

import (
	"context"

	"github.com/ledgerly/finance-tracker/internal/core/domain"
)

// SignupInput carries the fields required to create an account.
type SignupInput struct {
	Username string
	Email    string
	Password string
}

// TokenPair is an access token and its companion refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// LoginResult is returned on successful login.
type LoginResult struct {
	Tokens  TokenPair
	Profile domain.Profile
}

type AuthService interface {
	Signup(ctx context.Context, in SignupInput) (*TokenPair, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, userID string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	Profile(ctx context.Context, userID string) (*domain.Profile, error)
}
