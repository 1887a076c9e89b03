package repositories

import (
	"context"
	"time"

	"github.com/dkuznetsov/bank-cards/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// CardListFilter narrows owner card listings.
type CardListFilter struct {
	Status *domain.CardStatus
	Last4  string // substring match, empty means no filter
}

// CardRepository is the persistence contract for cards. Methods taking a
// pgx.Tx participate in a caller-managed transaction; FindCardsByIDsForUpdate
// acquires exclusive row locks held until that transaction finishes.
type CardRepository interface {
	TxManager

	SaveCard(ctx context.Context, card domain.Card) error
	FindCardByID(ctx context.Context, cardID string) (*domain.Card, error)

	// FindCardsByIDs retrieves cards by IDs without locking. Unknown IDs are
	// simply absent from the result; callers needing all rows must check.
	FindCardsByIDs(ctx context.Context, cardIDs []string) (map[string]domain.Card, error)

	// FindCardsByIDsForUpdate locks the requested rows in ascending card_id
	// order, regardless of the order of cardIDs, so two concurrent transfers
	// over the same pair of cards always acquire locks in the same order.
	FindCardsByIDsForUpdate(ctx context.Context, tx pgx.Tx, cardIDs []string) (map[string]domain.Card, error)

	// UpdateCardBalancesInTx applies balance deltas to the given cards within
	// the transaction that holds their row locks.
	UpdateCardBalancesInTx(ctx context.Context, tx pgx.Tx, balanceChanges map[string]decimal.Decimal, now time.Time) error

	// UpdateCardStatusInTx persists a status change within the transaction
	// that holds the card's row lock, so the transition decision and the
	// write see the same state.
	UpdateCardStatusInTx(ctx context.Context, tx pgx.Tx, cardID string, status domain.CardStatus, now time.Time) error

	ExistsByPanHash(ctx context.Context, panHash string) (bool, error)
	ExistsByEncryptedPan(ctx context.Context, encryptedPan string) (bool, error)

	ListCardsByOwner(ctx context.Context, ownerID string, filter CardListFilter, limit int, nextToken *string) ([]domain.Card, *string, error)
	ListAllCards(ctx context.Context, limit int, nextToken *string) ([]domain.Card, *string, error)

	DeleteCard(ctx context.Context, cardID string) error
}
