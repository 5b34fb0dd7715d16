package ports

import (
	"context"
	"time"

	"github.com/ledgerly/finance-tracker/internal/core/domain"
)

// UserRepository persists user records, including the refresh-token slot and
// the password-reset token pair.
type UserRepository interface {
	// Create inserts a new user. Returns domain.ErrUserExists when the email is taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// FindByRefreshToken returns the user whose stored refresh token equals token.
	FindByRefreshToken(ctx context.Context, token string) (*domain.User, error)

	// SetRefreshToken overwrites the stored refresh token. An empty token revokes the session.
	SetRefreshToken(ctx context.Context, userID, token string) error
	// SetResetToken stores a password-reset token and its expiry.
	SetResetToken(ctx context.Context, userID, token string, expiry time.Time) error
	// ConsumeResetToken replaces the password hash and clears both reset fields,
	// but only while the stored reset token still equals token. Returns
	// domain.ErrInvalidToken when it no longer does.
	ConsumeResetToken(ctx context.Context, userID, token, passwordHash string) error
}
