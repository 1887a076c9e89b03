package repositories

import (
	"context"

	"github.com/dkuznetsov/bank-cards/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// TransactionRepository is the persistence contract for the append-only
// transfer ledger. There is deliberately no update or delete method.
type TransactionRepository interface {
	// SaveTransactionInTx appends a ledger entry within the transfer's
	// database transaction so the debit, credit and ledger row commit as one.
	SaveTransactionInTx(ctx context.Context, tx pgx.Tx, txn domain.Transaction) error

	// Listings return entries in descending creation order.
	ListTransactionsByCardID(ctx context.Context, cardID string, limit int, nextToken *string) ([]domain.Transaction, *string, error)
	ListTransactionsByOwnerID(ctx context.Context, ownerID string, limit int, nextToken *string) ([]domain.Transaction, *string, error)

	// ExistsByCardID reports whether any ledger entry references the card as
	// source or destination. Card deletion is refused while this holds.
	ExistsByCardID(ctx context.Context, cardID string) (bool, error)
}
