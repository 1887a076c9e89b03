// Package services defines the contracts the HTTP layer consumes from the
// core. Implementations live in internal/core/services.
package services

import (
	"context"

	"github.com/dkuznetsov/bank-cards/internal/core/domain"
	"github.com/dkuznetsov/bank-cards/internal/dto"
)

// UserSvcFacade exposes user management operations.
type UserSvcFacade interface {
	Register(ctx context.Context, req dto.RegisterRequest, asAdmin bool) (*domain.User, error)
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	DeleteUser(ctx context.Context, userID string) error
}
