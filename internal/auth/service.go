package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Abhijit5011/Electromart/internal/profiles"
	pkgAuth "github.com/Abhijit5011/Electromart/pkg/auth"
	"github.com/Abhijit5011/Electromart/pkg/auth/session"
	"github.com/Abhijit5011/Electromart/pkg/config"
	"github.com/Abhijit5011/Electromart/pkg/db"
	"github.com/Abhijit5011/Electromart/pkg/db/models"
	"github.com/Abhijit5011/Electromart/pkg/enums"
	pkgerrors "github.com/Abhijit5011/Electromart/pkg/errors"
	"github.com/Abhijit5011/Electromart/pkg/logger"
	"github.com/Abhijit5011/Electromart/pkg/security"
)

const (
	invalidCredentialsMessage = "invalid credentials"
	accountBannedMessage      = "account banned"
	emailConstraint           = "profiles_email_key"
)

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*SessionResponse, error)
	Signup(ctx context.Context, req SignupRequest) (*SessionResponse, error)
	Resume(ctx context.Context, req ResumeRequest) (*SessionResponse, error)
	Logout(ctx context.Context, accessID string) error
}

type service struct {
	profiles    profileRepository
	session     sessionManager
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
	now         func() time.Time
}

type profileRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Profile, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	Create(ctx context.Context, profile *models.Profile) error
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string, userID uuid.UUID) (string, error)
	Rotate(ctx context.Context, oldAccessID string, userID uuid.UUID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	ProfileRepo    profileRepository
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	Logger         *logger.Logger
}

// NewService constructs the auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.ProfileRepo == nil {
		return nil, fmt.Errorf("profile repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		profiles:    params.ProfileRepo,
		session:     params.SessionManager,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
		logg:        params.Logger,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

// Login answers unknown email, wrong password and banned profile with the same error.
func (s *service) Login(ctx context.Context, req LoginRequest) (*SessionResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	profile, err := s.profiles.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			security.BurnVerify(req.Password)
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup profile")
	}

	valid, err := security.VerifyPassword(req.Password, profile.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid || profile.IsBanned {
		if valid {
			s.logg.Warn(s.logg.WithUserID(ctx, profile.ID.String()), "login refused for banned profile")
		}
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return s.issue(ctx, profile)
}

// Signup creates a shopper profile and signs it in.
func (s *service) Signup(ctx context.Context, req SignupRequest) (*SessionResponse, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	details := map[string]any{}
	if name == "" {
		details["name"] = "required"
	}
	if email == "" {
		details["email"] = "required"
	}
	if err := security.ValidatePassword(req.Password); err != nil {
		details["password"] = err.Error()
	}
	if req.Password != req.ConfirmPassword {
		details["confirm_password"] = "passwords do not match"
	}
	if len(details) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid signup").WithDetails(details)
	}

	if _, err := s.profiles.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check profile email")
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	profile := &models.Profile{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Phone:        strings.TrimSpace(req.Phone),
		Role:         enums.RoleUser,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		if db.IsUniqueViolation(err, emailConstraint) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create profile")
	}
	s.logg.Info(s.logg.WithUserID(ctx, profile.ID.String()), "profile registered")
	return s.issue(ctx, profile)
}

// Resume rotates the refresh session behind a possibly expired access token and re-reads the profile.
func (s *service) Resume(ctx context.Context, req ResumeRequest) (*SessionResponse, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, strings.TrimSpace(req.AccessToken))
	if err != nil || claims.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	accessID, refreshToken, err := s.session.Rotate(ctx, claims.ID, claims.UserID, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	profile, err := s.profiles.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.revoke(ctx, accessID)
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	if profile.IsBanned {
		s.revoke(ctx, accessID)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, accountBannedMessage)
	}

	accessToken, err := s.mint(profile, accessID)
	if err != nil {
		return nil, err
	}
	return &SessionResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Profile:      profiles.FromModel(profile),
	}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session")
	}
	if err := s.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) issue(ctx context.Context, profile *models.Profile) (*SessionResponse, error) {
	accessID := session.NewAccessID()
	accessToken, err := s.mint(profile, accessID)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.session.Generate(ctx, accessID, profile.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh token")
	}
	return &SessionResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Profile:      profiles.FromModel(profile),
	}, nil
}

func (s *service) mint(profile *models.Profile, accessID string) (string, error) {
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, s.now(), pkgAuth.AccessTokenPayload{
		UserID: profile.ID,
		Role:   profile.Role,
		JTI:    accessID,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return token, nil
}

func (s *service) revoke(ctx context.Context, accessID string) {
	if err := s.session.Revoke(ctx, accessID); err != nil {
		s.logg.Error(ctx, "revoke session", err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
