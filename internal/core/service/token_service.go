package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ledgerly/finance-tracker/internal/core/domain"
)

// Token audiences. A token only verifies for the purpose it was minted for.
const (
	audienceAccess  = "access"
	audienceRefresh = "refresh"
	audienceReset   = "password-reset"
)

const (
	defaultAccessTTL  = time.Hour
	defaultRefreshTTL = 7 * 24 * time.Hour
	defaultResetTTL   = 10 * time.Minute
)

// TokenConfig holds the signing secrets and lifetimes.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	ResetTTL      time.Duration
}

// JWTTokenService signs HS256 JWTs. Access and reset tokens share the access
// secret and are told apart by audience; refresh tokens use their own secret.
type JWTTokenService struct {
	cfg TokenConfig
	now func() time.Time
}

func NewJWTTokenService(cfg TokenConfig) *JWTTokenService {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = defaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = defaultRefreshTTL
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = defaultResetTTL
	}
	return &JWTTokenService{cfg: cfg, now: time.Now}
}

func (s *JWTTokenService) IssueAccessToken(userID string) (string, error) {
	return s.sign(userID, audienceAccess, s.cfg.AccessSecret, s.cfg.AccessTTL)
}

func (s *JWTTokenService) IssueRefreshToken(userID string) (string, error) {
	return s.sign(userID, audienceRefresh, s.cfg.RefreshSecret, s.cfg.RefreshTTL)
}

func (s *JWTTokenService) IssueResetToken(userID string) (string, error) {
	return s.sign(userID, audienceReset, s.cfg.AccessSecret, s.cfg.ResetTTL)
}

func (s *JWTTokenService) VerifyAccessToken(token string) (string, error) {
	return s.verify(token, audienceAccess, s.cfg.AccessSecret)
}

func (s *JWTTokenService) VerifyRefreshToken(token string) (string, error) {
	return s.verify(token, audienceRefresh, s.cfg.RefreshSecret)
}

func (s *JWTTokenService) VerifyResetToken(token string) (string, error) {
	return s.verify(token, audienceReset, s.cfg.AccessSecret)
}

// ResetTTL reports how long a freshly issued reset token stays valid.
func (s *JWTTokenService) ResetTTL() time.Duration {
	return s.cfg.ResetTTL
}

func (s *JWTTokenService) sign(userID, audience, secret string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("sign token: empty subject")
	}
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

func (s *JWTTokenService) verify(token, audience, secret string) (string, error) {
	if token == "" {
		return "", domain.ErrInvalidToken
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(secret), nil
	},
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", domain.ErrInvalidToken
	}
	return claims.Subject, nil
}
