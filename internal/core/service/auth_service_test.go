package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/ledgerly/finance-tracker/internal/core/domain"
	"github.com/ledgerly/finance-tracker/internal/core/ports"
)

type stubUserRepo struct {
	users  map[string]*domain.User // keyed by id
	nextID int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	if u.ResetTokenExpiry != nil {
		exp := *u.ResetTokenExpiry
		clone.ResetTokenExpiry = &exp
	}
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	created := cloneUser(user)
	created.ID = fmt.Sprintf("user-%d", r.nextID)
	r.users[created.ID] = cloneUser(created)
	return cloneUser(created), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByRefreshToken(_ context.Context, token string) (*domain.User, error) {
	for _, u := range r.users {
		if token != "" && u.RefreshToken == token {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) SetRefreshToken(_ context.Context, userID, token string) error {
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.RefreshToken = token
	return nil
}

func (r *stubUserRepo) SetResetToken(_ context.Context, userID, token string, expiry time.Time) error {
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.ResetToken = token
	u.ResetTokenExpiry = &expiry
	return nil
}

func (r *stubUserRepo) ConsumeResetToken(_ context.Context, userID, token, passwordHash string) error {
	u, ok := r.users[userID]
	if !ok || u.ResetToken == "" || u.ResetToken != token {
		return domain.ErrInvalidToken
	}
	u.PasswordHash = passwordHash
	u.ResetToken = ""
	u.ResetTokenExpiry = nil
	return nil
}

type stubMailer struct {
	lastTo   string
	lastLink string
	err      error
}

func (m *stubMailer) SendPasswordReset(_ context.Context, to, link string) error {
	if m.err != nil {
		return m.err
	}
	m.lastTo, m.lastLink = to, link
	return nil
}

type stubLimiter struct {
	failures map[string]int
	max      int
}

func (l *stubLimiter) Blocked(_ context.Context, key string) (bool, error) {
	return l.failures[key] >= l.max, nil
}

func (l *stubLimiter) RecordFailure(_ context.Context, key string) error {
	l.failures[key]++
	return nil
}

func (l *stubLimiter) Reset(_ context.Context, key string) error {
	delete(l.failures, key)
	return nil
}

func newTestTokens() *JWTTokenService {
	return NewJWTTokenService(TokenConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     time.Hour,
	})
}

func newTestAuthService(repo *stubUserRepo, mailer *stubMailer) *AuthService {
	return NewAuthService(repo, newTestTokens(), mailer, nil, "http://app.test/", 0, zerolog.Nop())
}

func resetTokenFromLink(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parse reset link: %v", err)
	}
	if u.Path != "/reset-password" {
		t.Fatalf("unexpected reset path: %s", u.Path)
	}
	return u.Query().Get("token")
}

func TestAuthService_Signup_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(repo, &stubMailer{})

	pair, err := svc.Signup(context.Background(), ports.SignupInput{Username: "a", Email: "A@x.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", pair)
	}

	user, err := repo.FindByEmail(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("user not persisted with normalized email: %v", err)
	}
	if user.PasswordHash == "secret1" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret1")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if user.RefreshToken != pair.RefreshToken {
		t.Fatalf("refresh token not stored on user record")
	}
}

func TestAuthService_Signup_Validation(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo(), &stubMailer{})

	cases := []ports.SignupInput{
		{Username: "", Email: "a@x.com", Password: "secret1"},
		{Username: "a", Email: "not-an-email", Password: "secret1"},
		{Username: "a", Email: "a@x.com", Password: "12345"},
	}
	for _, in := range cases {
		_, err := svc.Signup(context.Background(), in)
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("Signup(%+v): expected ErrValidation, got %v", in, err)
		}
	}
}

func TestAuthService_Signup_Duplicate(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo(), &stubMailer{})

	_, _ = svc.Signup(context.Background(), ports.SignupInput{Username: "bob", Email: "bob@example.com", Password: "secret1"})
	_, err := svc.Signup(context.Background(), ports.SignupInput{Username: "bob2", Email: "bob@example.com", Password: "secret2"})
	if err != domain.ErrUserExists {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(repo, &stubMailer{})

	if _, err := svc.Signup(context.Background(), ports.SignupInput{Username: "carol", Email: "carol@example.com", Password: "s3cret"}); err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	res, err := svc.Login(context.Background(), "carol@example.com", "s3cret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.Profile.Username != "carol" || res.Profile.Email != "carol@example.com" {
		t.Fatalf("unexpected profile: %+v", res.Profile)
	}

	subject, err := newTestTokens().VerifyAccessToken(res.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("access token invalid: %v", err)
	}
	if subject != res.Profile.ID {
		t.Fatalf("token subject %q does not match user %q", subject, res.Profile.ID)
	}
}

func TestAuthService_Login_UniformFailure(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo(), &stubMailer{})
	_, _ = svc.Signup(context.Background(), ports.SignupInput{Username: "dave", Email: "dave@example.com", Password: "goodpass"})

	if _, err := svc.Login(context.Background(), "dave@example.com", "badpass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "ghost@example.com", "goodpass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_Throttled(t *testing.T) {
	repo := newStubUserRepo()
	limiter := &stubLimiter{failures: map[string]int{}, max: 2}
	svc := NewAuthService(repo, newTestTokens(), &stubMailer{}, limiter, "http://app.test", 0, zerolog.Nop())
	_, _ = svc.Signup(context.Background(), ports.SignupInput{Username: "erin", Email: "erin@example.com", Password: "goodpass"})

	for i := 0; i < 2; i++ {
		if _, err := svc.Login(context.Background(), "erin@example.com", "nope"); err != domain.ErrInvalidCredentials {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i, err)
		}
	}
	if _, err := svc.Login(context.Background(), "erin@example.com", "goodpass"); err != domain.ErrTooManyAttempts {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}

	_ = limiter.Reset(context.Background(), "login_fail:erin@example.com")
	if _, err := svc.Login(context.Background(), "erin@example.com", "goodpass"); err != nil {
		t.Fatalf("login after window should succeed: %v", err)
	}
	if limiter.failures["login_fail:erin@example.com"] != 0 {
		t.Fatalf("successful login should clear the failure counter")
	}
}

func TestAuthService_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newStubUserRepo()
	svc := newTestAuthService(repo, &stubMailer{})

	signup, err := svc.Signup(ctx, ports.SignupInput{Username: "a", Email: "a@x.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	if _, err := svc.Login(ctx, "a@x.com", "wrong"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	login, err := svc.Login(ctx, "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if login.Tokens.AccessToken == signup.AccessToken || login.Tokens.RefreshToken == signup.RefreshToken {
		t.Fatalf("login must issue fresh tokens")
	}

	// The signup session was replaced by the login session.
	if _, err := svc.Refresh(ctx, signup.RefreshToken); err != domain.ErrInvalidToken {
		t.Fatalf("superseded refresh token: expected ErrInvalidToken, got %v", err)
	}

	access, err := svc.Refresh(ctx, login.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if _, err := newTestTokens().VerifyAccessToken(access); err != nil {
		t.Fatalf("refreshed access token invalid: %v", err)
	}

	if err := svc.Logout(ctx, login.Profile.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.Refresh(ctx, login.Tokens.RefreshToken); err != domain.ErrInvalidToken {
		t.Fatalf("refresh after logout: expected ErrInvalidToken, got %v", err)
	}

	// Logging out twice is harmless.
	if err := svc.Logout(ctx, login.Profile.ID); err != nil {
		t.Fatalf("second logout: %v", err)
	}
}

func TestAuthService_Refresh_Errors(t *testing.T) {
	ctx := context.Background()
	repo := newStubUserRepo()
	svc := newTestAuthService(repo, &stubMailer{})

	if _, err := svc.Refresh(ctx, ""); err != domain.ErrUnauthorized {
		t.Fatalf("missing token: expected ErrUnauthorized, got %v", err)
	}
	if _, err := svc.Refresh(ctx, "garbage"); err != domain.ErrInvalidToken {
		t.Fatalf("unknown token: expected ErrInvalidToken, got %v", err)
	}

	pair, _ := svc.Signup(ctx, ports.SignupInput{Username: "f", Email: "f@x.com", Password: "secret1"})

	// A token stored on the record but signed with the wrong secret is rejected.
	forged := NewJWTTokenService(TokenConfig{AccessSecret: "x", RefreshSecret: "other"})
	bad, _ := forged.IssueRefreshToken("user-1")
	_ = repo.SetRefreshToken(ctx, "user-1", bad)
	if _, err := svc.Refresh(ctx, bad); err != domain.ErrInvalidToken {
		t.Fatalf("forged token: expected ErrInvalidToken, got %v", err)
	}
	if _, err := svc.Refresh(ctx, pair.RefreshToken); err != domain.ErrInvalidToken {
		t.Fatalf("overwritten token: expected ErrInvalidToken, got %v", err)
	}
}

func TestAuthService_Logout_UserNotFound(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo(), &stubMailer{})
	if err := svc.Logout(context.Background(), "nobody"); err != domain.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAuthService_PasswordReset_SingleUse(t *testing.T) {
	ctx := context.Background()
	repo := newStubUserRepo()
	mailer := &stubMailer{}
	svc := newTestAuthService(repo, mailer)
	_, _ = svc.Signup(ctx, ports.SignupInput{Username: "g", Email: "g@x.com", Password: "oldpass"})

	if err := svc.ForgotPassword(ctx, "g@x.com"); err != nil {
		t.Fatalf("forgot password: %v", err)
	}
	if mailer.lastTo != "g@x.com" {
		t.Fatalf("reset mail sent to %q", mailer.lastTo)
	}
	token := resetTokenFromLink(t, mailer.lastLink)

	if err := svc.ResetPassword(ctx, token, "newpass"); err != nil {
		t.Fatalf("reset password: %v", err)
	}
	if err := svc.ResetPassword(ctx, token, "another"); err != domain.ErrInvalidToken {
		t.Fatalf("second reset: expected ErrInvalidToken, got %v", err)
	}

	if _, err := svc.Login(ctx, "g@x.com", "oldpass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("old password should no longer work, got %v", err)
	}
	if _, err := svc.Login(ctx, "g@x.com", "newpass"); err != nil {
		t.Fatalf("new password should work: %v", err)
	}

	u, _ := repo.FindByEmail(ctx, "g@x.com")
	if u.ResetToken != "" || u.ResetTokenExpiry != nil {
		t.Fatalf("reset fields must be cleared, got %+v", u)
	}
}

func TestAuthService_PasswordReset_Expired(t *testing.T) {
	ctx := context.Background()
	repo := newStubUserRepo()
	mailer := &stubMailer{}
	svc := newTestAuthService(repo, mailer)
	_, _ = svc.Signup(ctx, ports.SignupInput{Username: "h", Email: "h@x.com", Password: "oldpass"})
	_ = svc.ForgotPassword(ctx, "h@x.com")
	token := resetTokenFromLink(t, mailer.lastLink)

	// The stored expiry has passed even though the JWT itself is still valid.
	svc.now = func() time.Time { return time.Now().Add(11 * time.Minute) }
	if err := svc.ResetPassword(ctx, token, "newpass"); err != domain.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAuthService_PasswordReset_Errors(t *testing.T) {
	ctx := context.Background()
	mailer := &stubMailer{}
	svc := newTestAuthService(newStubUserRepo(), mailer)

	if err := svc.ForgotPassword(ctx, ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("missing email: expected ErrValidation, got %v", err)
	}
	if err := svc.ForgotPassword(ctx, "nobody@x.com"); err != domain.ErrUserNotFound {
		t.Fatalf("unknown email: expected ErrUserNotFound, got %v", err)
	}
	if err := svc.ResetPassword(ctx, "not-a-jwt", "newpass"); err != domain.ErrInvalidToken {
		t.Fatalf("bad token: expected ErrInvalidToken, got %v", err)
	}
	if err := svc.ResetPassword(ctx, "", "newpass"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("empty token: expected ErrValidation, got %v", err)
	}

	_, _ = svc.Signup(ctx, ports.SignupInput{Username: "i", Email: "i@x.com", Password: "oldpass"})
	mailer.err = errors.New("smtp down")
	err := svc.ForgotPassword(ctx, "i@x.com")
	if err == nil || errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("mail failure must surface as a server error, got %v", err)
	}
}

func TestAuthService_Profile(t *testing.T) {
	ctx := context.Background()
	svc := newTestAuthService(newStubUserRepo(), &stubMailer{})
	_, _ = svc.Signup(ctx, ports.SignupInput{Username: "j", Email: "j@x.com", Password: "secret1"})

	p, err := svc.Profile(ctx, "user-1")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if p.Username != "j" || p.Email != "j@x.com" {
		t.Fatalf("unexpected profile %+v", p)
	}
	if _, err := svc.Profile(ctx, "user-404"); err != domain.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
