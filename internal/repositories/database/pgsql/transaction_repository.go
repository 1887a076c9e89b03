package pgsql

import (
	"context"
	"fmt"

	"github.com/dkuznetsov/bank-cards/internal/apperrors"
	"github.com/dkuznetsov/bank-cards/internal/core/domain"
	portsrepo "github.com/dkuznetsov/bank-cards/internal/core/ports/repositories"
	"github.com/dkuznetsov/bank-cards/internal/models"
	"github.com/dkuznetsov/bank-cards/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const transactionColumns = `transaction_id, owner_id, from_card_id, to_card_id, amount, status, created_at, message`

type PgxTransactionRepository struct {
	BaseRepository
}

// newPgxTransactionRepository creates a new repository for the transfer ledger.
func newPgxTransactionRepository(pool *pgxpool.Pool) portsrepo.TransactionRepository {
	return &PgxTransactionRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.TransactionRepository = (*PgxTransactionRepository)(nil)

func toDomainTransaction(m models.Transaction) domain.Transaction {
	return domain.Transaction{
		TransactionID: m.TransactionID,
		OwnerID:       m.OwnerID,
		FromCardID:    m.FromCardID,
		ToCardID:      m.ToCardID,
		Amount:        m.Amount,
		Status:        domain.TransactionStatus(m.Status),
		CreatedAt:     m.CreatedAt,
		Message:       m.Message,
	}
}

// SaveTransactionInTx appends a ledger entry within the caller's transaction.
// Ledger rows are insert-only; there is no corresponding update or delete.
func (r *PgxTransactionRepository) SaveTransactionInTx(ctx context.Context, tx pgx.Tx, txn domain.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err := tx.Exec(ctx, query,
		txn.TransactionID,
		txn.OwnerID,
		txn.FromCardID,
		txn.ToCardID,
		txn.Amount,
		string(txn.Status),
		txn.CreatedAt,
		txn.Message,
	)
	if err != nil {
		return fmt.Errorf("failed to save transaction %s: %w", txn.TransactionID, err)
	}
	return nil
}

// ListTransactionsByCardID retrieves ledger entries touching the card as
// source or destination, newest first.
func (r *PgxTransactionRepository) ListTransactionsByCardID(ctx context.Context, cardID string, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	conditions := "(from_card_id = $1 OR to_card_id = $1)"
	return r.listTransactions(ctx, conditions, []interface{}{cardID}, limit, nextToken)
}

// ListTransactionsByOwnerID retrieves an owner's ledger entries, newest first.
func (r *PgxTransactionRepository) ListTransactionsByOwnerID(ctx context.Context, ownerID string, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	return r.listTransactions(ctx, "owner_id = $1", []interface{}{ownerID}, limit, nextToken)
}

func (r *PgxTransactionRepository) listTransactions(ctx context.Context, condition string, args []interface{}, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	if nextToken != nil && *nextToken != "" {
		createdAt, txnID, err := pagination.DecodeCursor(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		args = append(args, createdAt)
		tsArg := len(args)
		args = append(args, txnID)
		condition = fmt.Sprintf("%s AND (created_at, transaction_id) < ($%d, $%d)", condition, tsArg, tsArg+1)
	}

	args = append(args, limit+1)
	query := fmt.Sprintf(`
		SELECT %s
		FROM transactions
		WHERE %s
		ORDER BY created_at DESC, transaction_id DESC
		LIMIT $%d;
	`, transactionColumns, condition, len(args))

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		var m models.Transaction
		if err := rows.Scan(&m.TransactionID, &m.OwnerID, &m.FromCardID, &m.ToCardID, &m.Amount, &m.Status, &m.CreatedAt, &m.Message); err != nil {
			return nil, nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		txns = append(txns, toDomainTransaction(m))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}

	var token *string
	if len(txns) > limit {
		txns = txns[:limit]
		last := txns[len(txns)-1]
		t := pagination.EncodeCursor(last.CreatedAt, last.TransactionID)
		token = &t
	}
	return txns, token, nil
}

// ExistsByCardID reports whether any ledger entry references the card.
func (r *PgxTransactionRepository) ExistsByCardID(ctx context.Context, cardID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM transactions WHERE from_card_id = $1 OR to_card_id = $1);`
	if err := r.Pool.QueryRow(ctx, query, cardID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check transaction existence for card %s: %w", cardID, err)
	}
	return exists, nil
}
