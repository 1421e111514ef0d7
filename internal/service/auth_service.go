package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// AuthService coordinates signup and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost: cfg.BcryptCost,
		logger:     logger,
	}
}

// Signup creates a new user account with the requested role.
func (s *AuthService) Signup(ctx context.Context, email, password, role string) (*domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password required", nil)
	}
	parsedRole, ok := domain.ParseRole(role)
	if !ok {
		return nil, apperrors.NewValidationError("Role must be 'CUSTOMER' or 'AGENT'", nil)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("User with this email already exists", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		Role:         parsedRole,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// unique-violation from a concurrent signup with the same email
		if de := apperrors.ToDomainError(err); de.Code == "CONFLICT" {
			return nil, apperrors.NewConflict("User with this email already exists", nil)
		}
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("user signed up", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// Login authenticates a user. The supplied role must match the stored one.
// The returned token is issued for clients that want to carry one; request
// authorization stays id-based.
func (s *AuthService) Login(ctx context.Context, email, password, role string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewNotFound("User not found", nil)
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("Invalid username or password")
	}

	parsedRole, ok := domain.ParseRole(role)
	if !ok || parsedRole != user.Role {
		return nil, "", time.Time{}, apperrors.NewForbidden("Access denied: User does not have the required role.")
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID))
	return user, token, exp, nil
}
