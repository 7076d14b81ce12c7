package auth

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgAuth "github.com/Abhijit5011/Electromart/pkg/auth"
	"github.com/Abhijit5011/Electromart/pkg/config"
	"github.com/Abhijit5011/Electromart/pkg/db/models"
	"github.com/Abhijit5011/Electromart/pkg/enums"
	pkgerrors "github.com/Abhijit5011/Electromart/pkg/errors"
	"github.com/Abhijit5011/Electromart/pkg/logger"
	"github.com/Abhijit5011/Electromart/pkg/security"
)

var testJWT = config.JWTConfig{
	Secret:                 "secret",
	Issuer:                 "electromart",
	ExpirationMinutes:      30,
	RefreshTokenTTLMinutes: 120,
}

// cheap argon parameters keep the suite fast
var testPassword = config.PasswordConfig{ArgonMemoryKB: 1024, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}

func buildTestService(t *testing.T, profiles ...*models.Profile) (*service, *stubProfileRepo, *stubSessionManager) {
	t.Helper()
	repo := newStubProfileRepo(profiles...)
	sessions := newStubSessionManager()
	svc, err := NewService(ServiceParams{
		ProfileRepo:    repo,
		SessionManager: sessions,
		JWTConfig:      testJWT,
		PasswordConfig: testPassword,
		Logger:         logger.New(logger.Options{ServiceName: "auth-test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc.(*service), repo, sessions
}

func newProfile(t *testing.T, email, password string) *models.Profile {
	t.Helper()
	hash, err := security.HashPassword(password, testPassword)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &models.Profile{ID: uuid.New(), Name: "Asha", Email: email, PasswordHash: hash, Role: enums.RoleUser}
}

func assertUnauthorized(t *testing.T, err error, msg string) {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
	if typed.Message() != msg {
		t.Fatalf("expected message %q, got %q", msg, typed.Message())
	}
}

func TestLoginIssuesTokenPair(t *testing.T) {
	profile := newProfile(t, "asha@example.com", "secret-pass")
	svc, _, sessions := buildTestService(t, profile)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: " ASHA@example.com ", Password: "secret-pass"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != profile.ID || claims.Role != enums.RoleUser {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if sessions.sessions[claims.ID].token != resp.RefreshToken {
		t.Fatalf("refresh token not stored under jti")
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	banned := newProfile(t, "banned@example.com", "secret-pass")
	banned.IsBanned = true
	active := newProfile(t, "active@example.com", "secret-pass")
	svc, _, _ := buildTestService(t, banned, active)
	ctx := context.Background()

	cases := []LoginRequest{
		{Email: "nobody@example.com", Password: "secret-pass"},
		{Email: "active@example.com", Password: "wrong-pass"},
		{Email: "banned@example.com", Password: "secret-pass"},
	}
	for _, req := range cases {
		_, err := svc.Login(ctx, req)
		assertUnauthorized(t, err, invalidCredentialsMessage)
	}
}

func TestSignupCreatesUserAndSession(t *testing.T) {
	svc, repo, _ := buildTestService(t)

	resp, err := svc.Signup(context.Background(), SignupRequest{
		Name:            "Ravi",
		Email:           "Ravi@Example.com",
		Phone:           "9876543210",
		Password:        "secret-pass",
		ConfirmPassword: "secret-pass",
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if resp.Profile.Email != "ravi@example.com" || resp.Profile.Role != enums.RoleUser || resp.Profile.IsBanned {
		t.Fatalf("unexpected profile %+v", resp.Profile)
	}
	if _, err := repo.FindByEmail(context.Background(), "ravi@example.com"); err != nil {
		t.Fatalf("profile not stored: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatalf("expected token pair")
	}
}

func TestSignupValidationAndDuplicate(t *testing.T) {
	existing := newProfile(t, "taken@example.com", "secret-pass")
	svc, _, _ := buildTestService(t, existing)
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupRequest{Name: "A", Email: "a@example.com", Password: "secret-pass", ConfirmPassword: "other-pass"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = svc.Signup(ctx, SignupRequest{Name: "A", Email: "TAKEN@example.com", Password: "secret-pass", ConfirmPassword: "secret-pass"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestResumeRotatesExpiredToken(t *testing.T) {
	profile := newProfile(t, "asha@example.com", "secret-pass")
	svc, _, sessions := buildTestService(t, profile)
	ctx := context.Background()

	first, err := svc.Login(ctx, LoginRequest{Email: profile.Email, Password: "secret-pass"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	// the next access token is minted an hour later, after the first expired
	svc.now = func() time.Time { return time.Now().UTC().Add(time.Hour) }
	resumed, err := svc.Resume(ctx, ResumeRequest{AccessToken: first.AccessToken, RefreshToken: first.RefreshToken})
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if resumed.RefreshToken == first.RefreshToken {
		t.Fatalf("expected rotated refresh token")
	}
	if len(sessions.sessions) != 1 {
		t.Fatalf("expected old session dropped, have %d", len(sessions.sessions))
	}

	_, err = svc.Resume(ctx, ResumeRequest{AccessToken: first.AccessToken, RefreshToken: first.RefreshToken})
	assertUnauthorized(t, err, invalidCredentialsMessage)
}

func TestResumeRejectsBannedProfile(t *testing.T) {
	profile := newProfile(t, "asha@example.com", "secret-pass")
	svc, _, sessions := buildTestService(t, profile)
	ctx := context.Background()

	first, err := svc.Login(ctx, LoginRequest{Email: profile.Email, Password: "secret-pass"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	profile.IsBanned = true

	_, err = svc.Resume(ctx, ResumeRequest{AccessToken: first.AccessToken, RefreshToken: first.RefreshToken})
	assertUnauthorized(t, err, accountBannedMessage)
	if len(sessions.sessions) != 0 {
		t.Fatalf("expected banned session revoked")
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	profile := newProfile(t, "asha@example.com", "secret-pass")
	svc, _, sessions := buildTestService(t, profile)
	ctx := context.Background()

	resp, err := svc.Login(ctx, LoginRequest{Email: profile.Email, Password: "secret-pass"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := svc.Logout(ctx, claims.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok := sessions.sessions[claims.ID]; ok {
		t.Fatalf("expected session removed")
	}
}
