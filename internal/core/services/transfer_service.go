package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dkuznetsov/bank-cards/internal/apperrors"
	"github.com/dkuznetsov/bank-cards/internal/core/domain"
	portsrepo "github.com/dkuznetsov/bank-cards/internal/core/ports/repositories"
	portssvc "github.com/dkuznetsov/bank-cards/internal/core/ports/services"
	"github.com/dkuznetsov/bank-cards/internal/dto"
	"github.com/dkuznetsov/bank-cards/internal/middleware"
)

// transferService is the funds-transfer engine. It moves money between two
// cards of the same owner under exclusive row locks and appends one immutable
// ledger entry per successful transfer.
type transferService struct {
	cardRepo portsrepo.CardRepository
	userRepo portsrepo.UserRepository
	txnRepo  portsrepo.TransactionRepository
}

// NewTransferService creates a new TransferService.
func NewTransferService(
	cardRepo portsrepo.CardRepository,
	userRepo portsrepo.UserRepository,
	txnRepo portsrepo.TransactionRepository,
) portssvc.TransferSvcFacade {
	return &transferService{
		cardRepo: cardRepo,
		userRepo: userRepo,
		txnRepo:  txnRepo,
	}
}

var _ portssvc.TransferSvcFacade = (*transferService)(nil)

// Transfer debits fromCardID and credits toCardID by amount, appending a
// SUCCESS ledger entry. The debit, credit and ledger append commit as one
// database transaction; any precondition failure aborts with no effects.
//
// Both card rows are locked before any balance is read. Lock acquisition is
// in ascending card-id order regardless of transfer direction, so two
// opposite transfers between the same pair of cards cannot deadlock.
func (s *transferService) Transfer(ctx context.Context, ownerID, fromCardID, toCardID string, amount decimal.Decimal) (*dto.TransactionResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if ownerID == "" || fromCardID == "" || toCardID == "" {
		return nil, fmt.Errorf("%w: ownerID, fromCardID and toCardID are required", apperrors.ErrValidation)
	}
	if !validAmount(amount) {
		return nil, fmt.Errorf("%w: amount must be positive with at most 2 decimal places", apperrors.ErrValidation)
	}

	ownerExists, err := s.userRepo.ExistsUser(ctx, ownerID)
	if err != nil {
		logger.Error("Failed to check owner existence", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to check owner existence: %w", err)
	}
	if !ownerExists {
		return nil, fmt.Errorf("%w: user %s", apperrors.ErrNotFound, ownerID)
	}

	tx, err := s.cardRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer s.cardRepo.RollbackTx(ctx, tx)

	lockIDs := canonicalLockOrder(fromCardID, toCardID)
	cards, err := s.cardRepo.FindCardsByIDsForUpdate(ctx, tx, lockIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to lock cards: %w", err)
	}
	from, to := cards[fromCardID], cards[toCardID]

	if from.OwnerID != ownerID || to.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: cards must belong to the requesting user", apperrors.ErrForbidden)
	}
	if fromCardID == toCardID {
		return nil, fmt.Errorf("%w: from and to cards must be different", apperrors.ErrValidation)
	}
	if from.Balance.LessThan(amount) {
		return nil, fmt.Errorf("%w: balance %s is below requested amount %s", apperrors.ErrInsufficientFunds, from.Balance.String(), amount.String())
	}
	if !from.IsActive() {
		return nil, fmt.Errorf("%w: from card has status %s", apperrors.ErrCardNotActive, from.Status)
	}
	if !to.IsActive() {
		return nil, fmt.Errorf("%w: to card has status %s", apperrors.ErrCardNotActive, to.Status)
	}

	now := time.Now().UTC()
	changes := map[string]decimal.Decimal{
		fromCardID: amount.Neg(),
		toCardID:   amount,
	}
	if err := s.cardRepo.UpdateCardBalancesInTx(ctx, tx, changes, now); err != nil {
		return nil, fmt.Errorf("failed to move funds: %w", err)
	}

	txn := domain.Transaction{
		TransactionID: uuid.NewString(),
		OwnerID:       ownerID,
		FromCardID:    fromCardID,
		ToCardID:      toCardID,
		Amount:        amount,
		Status:        domain.Success,
		CreatedAt:     now,
		Message:       "OK",
	}
	if err := s.txnRepo.SaveTransactionInTx(ctx, tx, txn); err != nil {
		return nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}

	if err := s.cardRepo.CommitTx(ctx, tx); err != nil {
		return nil, err
	}

	logger.Info("Transfer completed",
		slog.String("transaction_id", txn.TransactionID),
		slog.String("from_card_id", fromCardID),
		slog.String("to_card_id", toCardID),
		slog.String("amount", amount.String()),
	)
	masked := map[string]string{
		fromCardID: from.MaskedNumber(),
		toCardID:   to.MaskedNumber(),
	}
	resp := dto.ToTransactionResponse(&txn, masked)
	return &resp, nil
}

// canonicalLockOrder returns the distinct card IDs sorted ascending. The
// repository locks rows in this order.
func canonicalLockOrder(a, b string) []string {
	if a == b {
		return []string{a}
	}
	ids := []string{a, b}
	sort.Strings(ids)
	return ids
}

// ListByCard retrieves the ledger entries touching a card, newest first. The
// requester must own the card or be an admin.
func (s *transferService) ListByCard(ctx context.Context, cardID, requesterID string, isAdmin bool, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	card, err := s.cardRepo.FindCardByID(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to find card %s: %w", cardID, err)
	}
	if !isAdmin && card.OwnerID != requesterID {
		return nil, fmt.Errorf("%w: card %s does not belong to the requesting user", apperrors.ErrForbidden, cardID)
	}

	limit := params.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	txns, nextToken, err := s.txnRepo.ListTransactionsByCardID(ctx, cardID, limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	masked, err := s.maskedForTransactions(ctx, txns)
	if err != nil {
		return nil, err
	}
	return &dto.ListTransactionsResponse{Transactions: dto.ToTransactionResponses(txns, masked), NextToken: nextToken}, nil
}

// ListByOwner retrieves the requester's own ledger entries, newest first.
func (s *transferService) ListByOwner(ctx context.Context, ownerID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	txns, nextToken, err := s.txnRepo.ListTransactionsByOwnerID(ctx, ownerID, limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	masked, err := s.maskedForTransactions(ctx, txns)
	if err != nil {
		return nil, err
	}
	return &dto.ListTransactionsResponse{Transactions: dto.ToTransactionResponses(txns, masked), NextToken: nextToken}, nil
}

// maskedForTransactions resolves the masked display forms of every card
// referenced by the page of ledger entries. Cards deleted since the entry was
// written stay unresolved and render as the bare placeholder.
func (s *transferService) maskedForTransactions(ctx context.Context, txns []domain.Transaction) (map[string]string, error) {
	if len(txns) == 0 {
		return nil, nil
	}
	seen := make(map[string]struct{}, len(txns)*2)
	ids := make([]string, 0, len(txns)*2)
	for i := range txns {
		for _, id := range []string{txns[i].FromCardID, txns[i].ToCardID} {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	cards, err := s.cardRepo.FindCardsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cards for ledger entries: %w", err)
	}
	masked := make(map[string]string, len(cards))
	for id, card := range cards {
		masked[id] = card.MaskedNumber()
	}
	return masked, nil
}
