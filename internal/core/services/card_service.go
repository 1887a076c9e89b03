package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dkuznetsov/bank-cards/internal/apperrors"
	"github.com/dkuznetsov/bank-cards/internal/core/domain"
	portsrepo "github.com/dkuznetsov/bank-cards/internal/core/ports/repositories"
	portssvc "github.com/dkuznetsov/bank-cards/internal/core/ports/services"
	"github.com/dkuznetsov/bank-cards/internal/dto"
	"github.com/dkuznetsov/bank-cards/internal/middleware"
	"github.com/dkuznetsov/bank-cards/internal/platform/pancrypto"
)

const panLength = 16

const defaultListLimit = 20

// cardService provides card lifecycle operations.
type cardService struct {
	cardRepo portsrepo.CardRepository
	userRepo portsrepo.UserRepository
	txnRepo  portsrepo.TransactionRepository
	codec    *pancrypto.Codec
	hasher   *pancrypto.Hasher
}

// NewCardService creates a new CardService.
func NewCardService(
	cardRepo portsrepo.CardRepository,
	userRepo portsrepo.UserRepository,
	txnRepo portsrepo.TransactionRepository,
	codec *pancrypto.Codec,
	hasher *pancrypto.Hasher,
) portssvc.CardSvcFacade {
	return &cardService{
		cardRepo: cardRepo,
		userRepo: userRepo,
		txnRepo:  txnRepo,
		codec:    codec,
		hasher:   hasher,
	}
}

var _ portssvc.CardSvcFacade = (*cardService)(nil)

// validAmount reports whether d is strictly positive with at most two
// fractional digits. Balances and amounts are exact decimals; no rounding is
// ever applied.
func validAmount(d decimal.Decimal) bool {
	return d.IsPositive() && d.Equal(d.Truncate(2))
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

// CreateCard issues a card to ownerID after normalizing, fingerprinting and
// encrypting the PAN. Nothing is persisted unless every check passes.
func (s *cardService) CreateCard(ctx context.Context, ownerID string, req dto.CreateCardRequest) (*domain.Card, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	ownerExists, err := s.userRepo.ExistsUser(ctx, ownerID)
	if err != nil {
		logger.Error("Failed to check owner existence", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to check owner existence: %w", err)
	}
	if !ownerExists {
		return nil, fmt.Errorf("%w: user %s", apperrors.ErrNotFound, ownerID)
	}

	normalized := pancrypto.Normalize(req.CardNumber)
	if len(normalized) != panLength || !allDigits(normalized) {
		return nil, fmt.Errorf("%w: card number must be exactly %d digits", apperrors.ErrValidation, panLength)
	}

	if !req.ExpiryDate.After(time.Now().UTC()) {
		return nil, fmt.Errorf("%w: card is expired", apperrors.ErrValidation)
	}

	panHash := s.hasher.Fingerprint(normalized)
	hashExists, err := s.cardRepo.ExistsByPanHash(ctx, panHash)
	if err != nil {
		logger.Error("Failed to check pan hash uniqueness", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to check pan hash uniqueness: %w", err)
	}
	if hashExists {
		return nil, fmt.Errorf("%w: a card with this number already exists", apperrors.ErrDuplicate)
	}

	encryptedPan, err := s.codec.Encode(normalized)
	if err != nil {
		logger.Error("Failed to encrypt card number", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to encrypt card number: %w", err)
	}
	panExists, err := s.cardRepo.ExistsByEncryptedPan(ctx, encryptedPan)
	if err != nil {
		logger.Error("Failed to check encrypted pan uniqueness", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to check encrypted pan uniqueness: %w", err)
	}
	if panExists {
		return nil, fmt.Errorf("%w: a card with this number already exists", apperrors.ErrDuplicate)
	}

	now := time.Now().UTC()
	card := domain.Card{
		CardID:       uuid.NewString(),
		OwnerID:      ownerID,
		EncryptedPan: encryptedPan,
		PanHash:      panHash,
		Last4:        normalized[panLength-4:],
		ExpiryDate:   req.ExpiryDate,
		Status:       domain.CardActive,
		Balance:      decimal.Zero,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			LastUpdatedAt: now,
		},
	}

	if err := s.cardRepo.SaveCard(ctx, card); err != nil {
		logger.Error("Failed to save card", slog.String("error", err.Error()))
		return nil, err
	}

	logger.Info("Card created", slog.String("card_id", card.CardID), slog.String("owner_id", ownerID))
	return &card, nil
}

// GetCard returns a card if the requester owns it or is an admin.
func (s *cardService) GetCard(ctx context.Context, cardID, requesterID string, isAdmin bool) (*domain.Card, error) {
	card, err := s.cardRepo.FindCardByID(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to find card %s: %w", cardID, err)
	}
	if !isAdmin && card.OwnerID != requesterID {
		return nil, fmt.Errorf("%w: card %s does not belong to the requesting user", apperrors.ErrForbidden, cardID)
	}
	return card, nil
}

// ListOwnCards retrieves a page of the owner's cards.
func (s *cardService) ListOwnCards(ctx context.Context, ownerID string, params dto.ListCardsParams) (*dto.ListCardsResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	filter := portsrepo.CardListFilter{Status: params.Status, Last4: params.Last4}
	cards, nextToken, err := s.cardRepo.ListCardsByOwner(ctx, ownerID, filter, limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	return &dto.ListCardsResponse{Cards: dto.ToCardResponses(cards), NextToken: nextToken}, nil
}

// ListAllCards retrieves a page of every card in the system (admin only; the
// handler enforces the role).
func (s *cardService) ListAllCards(ctx context.Context, params dto.ListCardsParams) (*dto.ListCardsResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	cards, nextToken, err := s.cardRepo.ListAllCards(ctx, limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	return &dto.ListCardsResponse{Cards: dto.ToCardResponses(cards), NextToken: nextToken}, nil
}

// TopUp adds amount to an ACTIVE card's balance. The card row stays locked
// from the read to the commit so concurrent mutations serialize. Top-ups are
// deliberately not recorded in the transfer ledger.
func (s *cardService) TopUp(ctx context.Context, cardID, requesterID string, isAdmin bool, amount decimal.Decimal) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !validAmount(amount) {
		return fmt.Errorf("%w: amount must be positive with at most 2 decimal places", apperrors.ErrValidation)
	}

	tx, err := s.cardRepo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer s.cardRepo.RollbackTx(ctx, tx)

	cards, err := s.cardRepo.FindCardsByIDsForUpdate(ctx, tx, []string{cardID})
	if err != nil {
		return fmt.Errorf("failed to lock card %s: %w", cardID, err)
	}
	card := cards[cardID]

	if !isAdmin && card.OwnerID != requesterID {
		return fmt.Errorf("%w: card %s does not belong to the requesting user", apperrors.ErrForbidden, cardID)
	}
	if !card.IsActive() {
		return fmt.Errorf("%w: card %s has status %s", apperrors.ErrCardNotActive, cardID, card.Status)
	}

	now := time.Now().UTC()
	changes := map[string]decimal.Decimal{cardID: amount}
	if err := s.cardRepo.UpdateCardBalancesInTx(ctx, tx, changes, now); err != nil {
		return fmt.Errorf("failed to apply top-up: %w", err)
	}

	if err := s.cardRepo.CommitTx(ctx, tx); err != nil {
		return err
	}

	logger.Info("Card topped up", slog.String("card_id", cardID), slog.String("amount", amount.String()))
	return nil
}

// RequestBlock applies the owner-initiated block request. The card row stays
// locked from the read to the commit, so the transition decision is made
// against the card's current status.
func (s *cardService) RequestBlock(ctx context.Context, cardID, ownerID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	tx, err := s.cardRepo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer s.cardRepo.RollbackTx(ctx, tx)

	cards, err := s.cardRepo.FindCardsByIDsForUpdate(ctx, tx, []string{cardID})
	if err != nil {
		return fmt.Errorf("failed to lock card %s: %w", cardID, err)
	}
	card := cards[cardID]

	if card.OwnerID != ownerID {
		return fmt.Errorf("%w: card %s does not belong to the requesting user", apperrors.ErrForbidden, cardID)
	}
	if err := card.RequestBlock(); err != nil {
		return err
	}

	if err := s.cardRepo.UpdateCardStatusInTx(ctx, tx, cardID, card.Status, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to update card status: %w", err)
	}
	if err := s.cardRepo.CommitTx(ctx, tx); err != nil {
		return err
	}

	logger.Info("Card block requested", slog.String("card_id", cardID))
	return nil
}

// AdminSetStatus moves a card directly to the given status, under the same
// row lock discipline as RequestBlock.
func (s *cardService) AdminSetStatus(ctx context.Context, cardID string, status domain.CardStatus) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	tx, err := s.cardRepo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer s.cardRepo.RollbackTx(ctx, tx)

	cards, err := s.cardRepo.FindCardsByIDsForUpdate(ctx, tx, []string{cardID})
	if err != nil {
		return fmt.Errorf("failed to lock card %s: %w", cardID, err)
	}
	card := cards[cardID]

	if err := card.SetStatus(status); err != nil {
		return err
	}

	if err := s.cardRepo.UpdateCardStatusInTx(ctx, tx, cardID, card.Status, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to update card status: %w", err)
	}
	if err := s.cardRepo.CommitTx(ctx, tx); err != nil {
		return err
	}

	logger.Info("Card status changed", slog.String("card_id", cardID), slog.String("status", string(status)))
	return nil
}

// DeleteCard removes a card that has no ledger references.
func (s *cardService) DeleteCard(ctx context.Context, cardID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	hasTransactions, err := s.txnRepo.ExistsByCardID(ctx, cardID)
	if err != nil {
		return fmt.Errorf("failed to check ledger references for card %s: %w", cardID, err)
	}
	if hasTransactions {
		return fmt.Errorf("%w: card %s has ledger entries and cannot be deleted", apperrors.ErrConflict, cardID)
	}

	if err := s.cardRepo.DeleteCard(ctx, cardID); err != nil {
		return fmt.Errorf("failed to delete card %s: %w", cardID, err)
	}

	logger.Info("Card deleted", slog.String("card_id", cardID))
	return nil
}
