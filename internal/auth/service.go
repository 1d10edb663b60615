package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/littlelemonhq/littlelemon-backend/internal/users"
	pkgauth "github.com/littlelemonhq/littlelemon-backend/pkg/auth"
	"github.com/littlelemonhq/littlelemon-backend/pkg/config"
	"github.com/littlelemonhq/littlelemon-backend/pkg/db"
	"github.com/littlelemonhq/littlelemon-backend/pkg/db/models"
	pkgerrors "github.com/littlelemonhq/littlelemon-backend/pkg/errors"
	"github.com/littlelemonhq/littlelemon-backend/pkg/security"
	"gorm.io/gorm"
)

type userRepo interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// RegisterInput carries the data required to create an account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// LoginInput carries credentials for token issuance.
type LoginInput struct {
	Username string
	Password string
}

// LoginResult bundles the issued token with the owning profile.
type LoginResult struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	User      users.Profile `json:"user"`
}

// Service handles account registration and credential exchange.
type Service struct {
	repo        userRepo
	jwtConfig   config.JWTConfig
	passwordCfg config.PasswordConfig
	now         func() time.Time
}

// NewService wires the auth service with its dependencies.
func NewService(repo userRepo, jwtConfig config.JWTConfig, passwordCfg config.PasswordConfig) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	return &Service{
		repo:        repo,
		jwtConfig:   jwtConfig,
		passwordCfg: passwordCfg,
		now:         time.Now,
	}, nil
}

// Register creates a new account with a hashed password.
func (s *Service) Register(ctx context.Context, input RegisterInput) (users.Profile, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if username == "" {
		return users.Profile{}, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	if email == "" {
		return users.Profile{}, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if len(input.Password) < 8 {
		return users.Profile{}, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return users.Profile{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
	}
	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return users.Profile{}, pkgerrors.New(pkgerrors.CodeConflict, "username or email already taken")
		}
		return users.Profile{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return users.ToProfile(created), nil
}

// Login verifies credentials and mints an access token.
func (s *Service) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return LoginResult{}, pkgerrors.New(pkgerrors.CodeValidation, "username and password are required")
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LoginResult{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return LoginResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if !user.IsActive {
		return LoginResult{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "account disabled")
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil || !ok {
		return LoginResult{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	now := s.now()
	token, err := pkgauth.MintAccessToken(s.jwtConfig, now, pkgauth.AccessTokenPayload{
		UserID:   user.ID,
		Username: user.Username,
	})
	if err != nil {
		return LoginResult{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token")
	}

	if err := s.repo.TouchLastLogin(ctx, user.ID, now); err != nil {
		return LoginResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stamp last login")
	}

	return LoginResult{
		Token:     token,
		ExpiresAt: now.Add(time.Duration(s.jwtConfig.ExpirationMinutes) * time.Minute),
		User:      users.ToProfile(user),
	}, nil
}
