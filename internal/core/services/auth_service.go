package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dkuznetsov/bank-cards/internal/apperrors"
	"github.com/dkuznetsov/bank-cards/internal/core/domain"
	portsrepo "github.com/dkuznetsov/bank-cards/internal/core/ports/repositories"
	portssvc "github.com/dkuznetsov/bank-cards/internal/core/ports/services"
	"github.com/dkuznetsov/bank-cards/internal/middleware"
	"github.com/dkuznetsov/bank-cards/internal/utils"
)

// AuthConfig holds the token-issuance settings.
type AuthConfig struct {
	JWTSecret string
	Expiry    time.Duration
	Issuer    string
}

// authService verifies credentials and issues JWTs.
type authService struct {
	userRepo portsrepo.UserRepository
	cfg      AuthConfig
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo portsrepo.UserRepository, cfg AuthConfig) portssvc.AuthSvcFacade {
	return &authService{userRepo: userRepo, cfg: cfg}
}

var _ portssvc.AuthSvcFacade = (*authService)(nil)

// Login verifies the username/password pair and returns a signed token plus
// the authenticated user. Unknown usernames and wrong passwords produce the
// same error so callers cannot probe for accounts.
func (s *authService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	user, err := s.userRepo.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
		}
		logger.Error("Failed to look up user for login", slog.String("error", err.Error()))
		return "", nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		logger.Warn("Password mismatch", slog.String("username", username))
		return "", nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
	}

	now := time.Now().UTC()
	claims := middleware.AuthClaims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UserID,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.Expiry)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		logger.Error("Failed to sign token", slog.String("error", err.Error()))
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	logger.Info("User logged in", slog.String("user_id", user.UserID))
	return token, user, nil
}
