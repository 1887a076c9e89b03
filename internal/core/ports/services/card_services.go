package services

import (
	"context"

	"github.com/dkuznetsov/bank-cards/internal/core/domain"
	"github.com/dkuznetsov/bank-cards/internal/dto"
	"github.com/shopspring/decimal"
)

// CardSvcFacade exposes card lifecycle operations.
type CardSvcFacade interface {
	// CreateCard issues a card to ownerID. The raw PAN is normalized, must be
	// exactly 16 digits, must not collide with an existing fingerprint or
	// ciphertext, and the expiry date must be strictly in the future.
	CreateCard(ctx context.Context, ownerID string, req dto.CreateCardRequest) (*domain.Card, error)

	// GetCard returns a card visible to the requester: owners see their own
	// cards, admins see any.
	GetCard(ctx context.Context, cardID, requesterID string, isAdmin bool) (*domain.Card, error)

	ListOwnCards(ctx context.Context, ownerID string, params dto.ListCardsParams) (*dto.ListCardsResponse, error)
	ListAllCards(ctx context.Context, params dto.ListCardsParams) (*dto.ListCardsResponse, error)

	// TopUp adds amount to an ACTIVE card's balance under an exclusive row
	// lock. No ledger entry is produced.
	TopUp(ctx context.Context, cardID, requesterID string, isAdmin bool, amount decimal.Decimal) error

	// RequestBlock is the owner-initiated ACTIVE -> BLOCK_REQUESTED move.
	RequestBlock(ctx context.Context, cardID, ownerID string) error

	// AdminSetStatus moves a card to any status directly.
	AdminSetStatus(ctx context.Context, cardID string, status domain.CardStatus) error

	// DeleteCard removes a card with no ledger references.
	DeleteCard(ctx context.Context, cardID string) error
}
