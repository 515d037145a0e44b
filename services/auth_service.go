package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"storefront-service/common/auth"
	"storefront-service/models"
	"storefront-service/repository"
)

const defaultTokenTTL = 24 * time.Hour

type LoginResult struct {
	AccessToken string       `json:"accessToken"`
	ExpiresIn   int64        `json:"expiresIn"`
	User        *models.User `json:"user"`
}

type AuthService struct {
	users    repository.UserRepository
	tokenTTL time.Duration
	logger   *zap.Logger
}

func NewAuthService(users repository.UserRepository, tokenTTL time.Duration, logger *zap.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	return &AuthService{users: users, tokenTTL: tokenTTL, logger: logger}
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, *ServiceError) {
	invalid := &ServiceError{StatusCode: http.StatusUnauthorized, Message: "invalid email or password"}

	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, invalid
	}
	if err != nil {
		s.logger.Error("failed to load user for login", zap.Error(err))
		return nil, internal("failed to log in")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, invalid
	}

	token, err := auth.GenerateAccessToken(user.ID.String(), user.Email, user.Role, s.tokenTTL)
	if err != nil {
		s.logger.Error("failed to issue access token", zap.Error(err))
		return nil, internal("failed to log in")
	}
	return &LoginResult{AccessToken: token, ExpiresIn: int64(s.tokenTTL.Seconds()), User: user}, nil
}

// EnsureAdmin creates the first administrative account when none exists. It
// is safe to run on every start: an existing admin or owner short-circuits it.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password, name string) (bool, error) {
	count, err := s.users.CountByRole(ctx, models.RoleAdmin, models.RoleOwner)
	if err != nil {
		return false, fmt.Errorf("count admins: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	email = normalizeEmail(email)
	if email == "" || len(password) < 8 {
		return false, fmt.Errorf("no admin account exists and ADMIN_EMAIL/ADMIN_PASSWORD (min 8 chars) are not set")
	}
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return false, fmt.Errorf("email %s is already registered as a non-admin account", email)
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return false, fmt.Errorf("look up admin email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}
	if name == "" {
		name = "Administrator"
	}
	admin := &models.User{
		ID:       uuid.New(),
		Name:     name,
		Email:    email,
		Password: string(hash),
		Role:     models.RoleAdmin,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}
	s.logger.Info("bootstrap admin account created", zap.String("email", email))
	return true, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
