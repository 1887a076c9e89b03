package services

import (
	"context"

	"github.com/dkuznetsov/bank-cards/internal/core/domain"
)

// AuthSvcFacade exposes authentication operations.
type AuthSvcFacade interface {
	// Login verifies credentials and issues a signed JWT carrying the user ID
	// as subject and the role as a custom claim.
	Login(ctx context.Context, username, password string) (string, *domain.User, error)
}
