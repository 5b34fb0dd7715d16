package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ledgerly/finance-tracker/internal/core/domain"
)

func TestJWTTokenService_RoundTrip(t *testing.T) {
	svc := newTestTokens()

	access, err := svc.IssueAccessToken("u1")
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	if sub, err := svc.VerifyAccessToken(access); err != nil || sub != "u1" {
		t.Fatalf("VerifyAccessToken = %q, %v", sub, err)
	}

	refresh, err := svc.IssueRefreshToken("u1")
	if err != nil {
		t.Fatalf("IssueRefreshToken: %v", err)
	}
	if sub, err := svc.VerifyRefreshToken(refresh); err != nil || sub != "u1" {
		t.Fatalf("VerifyRefreshToken = %q, %v", sub, err)
	}

	reset, err := svc.IssueResetToken("u1")
	if err != nil {
		t.Fatalf("IssueResetToken: %v", err)
	}
	if sub, err := svc.VerifyResetToken(reset); err != nil || sub != "u1" {
		t.Fatalf("VerifyResetToken = %q, %v", sub, err)
	}
}

func TestJWTTokenService_PurposesDoNotMix(t *testing.T) {
	svc := newTestTokens()
	access, _ := svc.IssueAccessToken("u1")
	refresh, _ := svc.IssueRefreshToken("u1")
	reset, _ := svc.IssueResetToken("u1")

	if _, err := svc.VerifyAccessToken(refresh); err != domain.ErrInvalidToken {
		t.Errorf("refresh token accepted as access token: %v", err)
	}
	if _, err := svc.VerifyAccessToken(reset); err != domain.ErrInvalidToken {
		t.Errorf("reset token accepted as access token: %v", err)
	}
	if _, err := svc.VerifyRefreshToken(access); err != domain.ErrInvalidToken {
		t.Errorf("access token accepted as refresh token: %v", err)
	}
	if _, err := svc.VerifyResetToken(access); err != domain.ErrInvalidToken {
		t.Errorf("access token accepted as reset token: %v", err)
	}
}

func TestJWTTokenService_Expiry(t *testing.T) {
	svc := newTestTokens()
	issued := time.Now()
	svc.now = func() time.Time { return issued }

	access, _ := svc.IssueAccessToken("u1")
	reset, _ := svc.IssueResetToken("u1")

	svc.now = func() time.Time { return issued.Add(30 * time.Minute) }
	if _, err := svc.VerifyAccessToken(access); err != nil {
		t.Errorf("access token should still be valid: %v", err)
	}
	if _, err := svc.VerifyResetToken(reset); err != domain.ErrInvalidToken {
		t.Errorf("reset token should have expired after 10m: %v", err)
	}

	svc.now = func() time.Time { return issued.Add(2 * time.Hour) }
	if _, err := svc.VerifyAccessToken(access); err != domain.ErrInvalidToken {
		t.Errorf("access token should have expired: %v", err)
	}
}

func TestJWTTokenService_WrongSecret(t *testing.T) {
	issuer := NewJWTTokenService(TokenConfig{AccessSecret: "one", RefreshSecret: "two"})
	verifier := NewJWTTokenService(TokenConfig{AccessSecret: "three", RefreshSecret: "four"})

	access, _ := issuer.IssueAccessToken("u1")
	if _, err := verifier.VerifyAccessToken(access); err != domain.ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := verifier.VerifyAccessToken(""); err != domain.ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken for empty token, got %v", err)
	}
}

func TestJWTTokenService_RejectsUnsignedTokens(t *testing.T) {
	svc := newTestTokens()
	claims := jwt.RegisteredClaims{
		Subject:   "u1",
		Audience:  jwt.ClaimStrings{"access"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}
	if _, err := svc.VerifyAccessToken(none); err != domain.ErrInvalidToken {
		t.Errorf("alg=none token accepted: %v", err)
	}
}

func TestJWTTokenService_TokensAreUnique(t *testing.T) {
	svc := newTestTokens()
	fixed := time.Now()
	svc.now = func() time.Time { return fixed }

	a, _ := svc.IssueRefreshToken("u1")
	b, _ := svc.IssueRefreshToken("u1")
	if a == b {
		t.Fatal("two tokens issued in the same second must differ")
	}
}

func TestJWTTokenService_Defaults(t *testing.T) {
	svc := NewJWTTokenService(TokenConfig{AccessSecret: "a", RefreshSecret: "b"})
	if svc.ResetTTL() != 10*time.Minute {
		t.Errorf("expected default reset ttl 10m, got %v", svc.ResetTTL())
	}
	if _, err := svc.IssueAccessToken(""); err == nil {
		t.Error("expected error for empty subject")
	}
}
