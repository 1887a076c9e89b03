package pgsql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dkuznetsov/bank-cards/internal/apperrors"
	"github.com/dkuznetsov/bank-cards/internal/core/domain"
	portsrepo "github.com/dkuznetsov/bank-cards/internal/core/ports/repositories"
	"github.com/dkuznetsov/bank-cards/internal/models"
	"github.com/dkuznetsov/bank-cards/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const cardColumns = `card_id, owner_id, encrypted_pan, pan_hash, last4, expiry_date, status, balance, created_at, last_updated_at`

type PgxCardRepository struct {
	BaseRepository
}

// newPgxCardRepository creates a new repository for card data.
func newPgxCardRepository(pool *pgxpool.Pool) portsrepo.CardRepository {
	return &PgxCardRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.CardRepository = (*PgxCardRepository)(nil)

func toDomainCard(m models.Card) domain.Card {
	return domain.Card{
		CardID:       m.CardID,
		OwnerID:      m.OwnerID,
		EncryptedPan: m.EncryptedPan,
		PanHash:      m.PanHash,
		Last4:        m.Last4,
		ExpiryDate:   m.ExpiryDate,
		Status:       domain.CardStatus(m.Status),
		Balance:      m.Balance,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			LastUpdatedAt: m.LastUpdatedAt,
		},
	}
}

func scanCard(row pgx.Row) (domain.Card, error) {
	var m models.Card
	err := row.Scan(
		&m.CardID,
		&m.OwnerID,
		&m.EncryptedPan,
		&m.PanHash,
		&m.Last4,
		&m.ExpiryDate,
		&m.Status,
		&m.Balance,
		&m.CreatedAt,
		&m.LastUpdatedAt,
	)
	if err != nil {
		return domain.Card{}, err
	}
	return toDomainCard(m), nil
}

// SaveCard inserts a new card. Unique violations on pan_hash or encrypted_pan
// surface as ErrDuplicate so the service can classify them.
func (r *PgxCardRepository) SaveCard(ctx context.Context, card domain.Card) error {
	query := `
		INSERT INTO cards (` + cardColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := r.Pool.Exec(ctx, query,
		card.CardID,
		card.OwnerID,
		card.EncryptedPan,
		card.PanHash,
		card.Last4,
		card.ExpiryDate,
		string(card.Status),
		card.Balance,
		card.CreatedAt,
		card.LastUpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: card with this number already exists (%s)", apperrors.ErrDuplicate, pgErr.ConstraintName)
		}
		return fmt.Errorf("failed to save card %s: %w", card.CardID, err)
	}
	return nil
}

// FindCardByID retrieves a card by its ID without locking.
func (r *PgxCardRepository) FindCardByID(ctx context.Context, cardID string) (*domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE card_id = $1;`
	card, err := scanCard(r.Pool.QueryRow(ctx, query, cardID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find card by ID %s: %w", cardID, err)
	}
	return &card, nil
}

// FindCardsByIDs retrieves cards by IDs without locking. IDs with no matching
// row are absent from the result map.
func (r *PgxCardRepository) FindCardsByIDs(ctx context.Context, cardIDs []string) (map[string]domain.Card, error) {
	if len(cardIDs) == 0 {
		return map[string]domain.Card{}, nil
	}

	query := `SELECT ` + cardColumns + ` FROM cards WHERE card_id = ANY($1);`
	rows, err := r.Pool.Query(ctx, query, cardIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards by IDs: %w", err)
	}
	defer rows.Close()

	cardsMap := make(map[string]domain.Card)
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card row: %w", err)
		}
		cardsMap[card.CardID] = card
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating card rows: %w", err)
	}
	return cardsMap, nil
}

// FindCardsByIDsForUpdate retrieves cards by IDs and locks the rows for
// update. ORDER BY card_id fixes the lock acquisition order so concurrent
// transfers over the same pair of cards cannot deadlock. Must be called
// within a transaction.
func (r *PgxCardRepository) FindCardsByIDsForUpdate(ctx context.Context, tx pgx.Tx, cardIDs []string) (map[string]domain.Card, error) {
	if len(cardIDs) == 0 {
		return map[string]domain.Card{}, nil
	}

	query := `
		SELECT ` + cardColumns + `
		FROM cards
		WHERE card_id = ANY($1)
		ORDER BY card_id
		FOR UPDATE;
	`
	rows, err := tx.Query(ctx, query, cardIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards for update: %w", err)
	}
	defer rows.Close()

	cardsMap := make(map[string]domain.Card)
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan locked card row: %w", err)
		}
		cardsMap[card.CardID] = card
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating locked card rows: %w", err)
	}

	if len(cardsMap) != len(cardIDs) {
		missing := []string{}
		for _, id := range cardIDs {
			if _, found := cardsMap[id]; !found {
				missing = append(missing, id)
			}
		}
		slog.WarnContext(ctx, "Some cards requested for update lock were not found", "missing_cards", missing)
		return nil, fmt.Errorf("%w: could not find or lock all requested cards, missing: %v", apperrors.ErrNotFound, missing)
	}

	return cardsMap, nil
}

// UpdateCardBalancesInTx applies balance deltas within a transaction that
// already holds the row locks.
func (r *PgxCardRepository) UpdateCardBalancesInTx(ctx context.Context, tx pgx.Tx, balanceChanges map[string]decimal.Decimal, now time.Time) error {
	if len(balanceChanges) == 0 {
		return nil
	}

	query := `
		UPDATE cards
		SET balance = balance + $2, last_updated_at = $3
		WHERE card_id = $1;
	`
	batch := &pgx.Batch{}
	for cardID, change := range balanceChanges {
		batch.Queue(query, cardID, change, now)
	}
	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to execute balance update batch: %w", err)
	}
	return nil
}

// UpdateCardStatusInTx persists a status change within the transaction that
// locked the card row, so the transition decided on the locked read cannot
// overwrite a concurrent change.
func (r *PgxCardRepository) UpdateCardStatusInTx(ctx context.Context, tx pgx.Tx, cardID string, status domain.CardStatus, now time.Time) error {
	query := `
		UPDATE cards
		SET status = $2, last_updated_at = $3
		WHERE card_id = $1;
	`
	cmdTag, err := tx.Exec(ctx, query, cardID, string(status), now)
	if err != nil {
		return fmt.Errorf("failed to update status of card %s: %w", cardID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ExistsByPanHash reports whether a card with the given fingerprint exists.
func (r *PgxCardRepository) ExistsByPanHash(ctx context.Context, panHash string) (bool, error) {
	var exists bool
	err := r.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM cards WHERE pan_hash = $1);`, panHash).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check pan hash existence: %w", err)
	}
	return exists, nil
}

// ExistsByEncryptedPan reports whether a card with the given ciphertext blob
// exists.
func (r *PgxCardRepository) ExistsByEncryptedPan(ctx context.Context, encryptedPan string) (bool, error) {
	var exists bool
	err := r.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM cards WHERE encrypted_pan = $1);`, encryptedPan).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check encrypted pan existence: %w", err)
	}
	return exists, nil
}

// ListCardsByOwner retrieves a page of an owner's cards, newest first, with
// optional status and last4 filters.
func (r *PgxCardRepository) ListCardsByOwner(ctx context.Context, ownerID string, filter portsrepo.CardListFilter, limit int, nextToken *string) ([]domain.Card, *string, error) {
	conditions := []string{"owner_id = $1"}
	args := []interface{}{ownerID}

	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Last4 != "" {
		args = append(args, "%"+filter.Last4+"%")
		conditions = append(conditions, fmt.Sprintf("last4 LIKE $%d", len(args)))
	}
	return r.listCards(ctx, conditions, args, limit, nextToken)
}

// ListAllCards retrieves a page of all cards, newest first.
func (r *PgxCardRepository) ListAllCards(ctx context.Context, limit int, nextToken *string) ([]domain.Card, *string, error) {
	return r.listCards(ctx, nil, nil, limit, nextToken)
}

func (r *PgxCardRepository) listCards(ctx context.Context, conditions []string, args []interface{}, limit int, nextToken *string) ([]domain.Card, *string, error) {
	if nextToken != nil && *nextToken != "" {
		createdAt, cardID, err := pagination.DecodeCursor(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		args = append(args, createdAt)
		tsArg := len(args)
		args = append(args, cardID)
		conditions = append(conditions, fmt.Sprintf("(created_at, card_id) < ($%d, $%d)", tsArg, tsArg+1))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, limit+1) // one extra row to detect the next page
	query := fmt.Sprintf(`
		SELECT %s
		FROM cards
		%s
		ORDER BY created_at DESC, card_id DESC
		LIMIT $%d;
	`, cardColumns, where, len(args))

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan card row: %w", err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating card rows: %w", err)
	}

	var token *string
	if len(cards) > limit {
		cards = cards[:limit]
		last := cards[len(cards)-1]
		t := pagination.EncodeCursor(last.CreatedAt, last.CardID)
		token = &t
	}
	return cards, token, nil
}

// DeleteCard removes a card. The service guards against deleting cards with
// ledger references before calling this.
func (r *PgxCardRepository) DeleteCard(ctx context.Context, cardID string) error {
	cmdTag, err := r.Pool.Exec(ctx, `DELETE FROM cards WHERE card_id = $1;`, cardID)
	if err != nil {
		return fmt.Errorf("failed to delete card %s: %w", cardID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
