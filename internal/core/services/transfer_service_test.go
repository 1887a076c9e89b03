package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/dkuznetsov/bank-cards/internal/apperrors"
	"github.com/dkuznetsov/bank-cards/internal/core/domain"
	portsrepo "github.com/dkuznetsov/bank-cards/internal/core/ports/repositories"
	portssvc "github.com/dkuznetsov/bank-cards/internal/core/ports/services"
	"github.com/dkuznetsov/bank-cards/internal/core/services"
	"github.com/dkuznetsov/bank-cards/internal/dto"
)

type TransferServiceTestSuite struct {
	suite.Suite
	mockCardRepo *MockCardRepository
	mockUserRepo *MockUserRepository
	mockTxnRepo  *MockTransactionRepository
	service      portssvc.TransferSvcFacade

	ownerID    string
	fromCardID string
	toCardID   string
}

func (s *TransferServiceTestSuite) SetupTest() {
	s.mockCardRepo = new(MockCardRepository)
	s.mockUserRepo = new(MockUserRepository)
	s.mockTxnRepo = new(MockTransactionRepository)
	s.service = services.NewTransferService(s.mockCardRepo, s.mockUserRepo, s.mockTxnRepo)

	s.ownerID = uuid.NewString()
	s.fromCardID = "aaaaaaaa-0000-0000-0000-000000000001"
	s.toCardID = "bbbbbbbb-0000-0000-0000-000000000002"
}

func (s *TransferServiceTestSuite) card(cardID, ownerID string, balance string, status domain.CardStatus) domain.Card {
	return domain.Card{
		CardID:  cardID,
		OwnerID: ownerID,
		Last4:   "1111",
		Status:  status,
		Balance: decimal.RequireFromString(balance),
	}
}

func (s *TransferServiceTestSuite) expectLockedCards(cards map[string]domain.Card) {
	s.mockUserRepo.On("ExistsUser", mock.Anything, s.ownerID).Return(true, nil).Once()
	s.mockCardRepo.On("BeginTx", mock.Anything).Return(nil, nil).Once()
	s.mockCardRepo.On("RollbackTx", mock.Anything, mock.Anything).Return(nil).Maybe()
	s.mockCardRepo.On("FindCardsByIDsForUpdate", mock.Anything, mock.Anything, mock.Anything).Return(cards, nil).Once()
}

func (s *TransferServiceTestSuite) TestTransfer_Success() {
	ctx := context.Background()
	amount := decimal.RequireFromString("250")
	from := s.card(s.fromCardID, s.ownerID, "1000", domain.CardActive)
	to := s.card(s.toCardID, s.ownerID, "10", domain.CardActive)
	to.Last4 = "2222"
	s.expectLockedCards(map[string]domain.Card{
		s.fromCardID: from,
		s.toCardID:   to,
	})

	s.mockCardRepo.On("UpdateCardBalancesInTx", mock.Anything, mock.Anything, mock.MatchedBy(func(changes map[string]decimal.Decimal) bool {
		return len(changes) == 2 &&
			changes[s.fromCardID].Equal(decimal.RequireFromString("-250")) &&
			changes[s.toCardID].Equal(amount)
	}), mock.AnythingOfType("time.Time")).Return(nil).Once()

	var saved domain.Transaction
	s.mockTxnRepo.On("SaveTransactionInTx", mock.Anything, mock.Anything, mock.AnythingOfType("domain.Transaction")).
		Run(func(args mock.Arguments) {
			saved = args.Get(2).(domain.Transaction)
		}).Return(nil).Once()
	s.mockCardRepo.On("CommitTx", mock.Anything, mock.Anything).Return(nil).Once()

	txn, err := s.service.Transfer(ctx, s.ownerID, s.fromCardID, s.toCardID, amount)

	s.Require().NoError(err)
	s.Require().NotNil(txn)
	s.Equal(string(domain.Success), txn.Status)
	s.Equal(s.ownerID, txn.OwnerID)
	s.Equal(s.fromCardID, txn.FromCardID)
	s.Equal(s.toCardID, txn.ToCardID)
	s.Equal("**** **** **** 1111", txn.FromMasked)
	s.Equal("**** **** **** 2222", txn.ToMasked)
	s.True(txn.Amount.Equal(amount))
	s.NotEmpty(txn.TransactionID)
	s.WithinDuration(time.Now(), txn.CreatedAt, time.Second)
	s.Equal(txn.TransactionID, saved.TransactionID)

	s.mockCardRepo.AssertExpectations(s.T())
	s.mockTxnRepo.AssertExpectations(s.T())
	s.mockUserRepo.AssertExpectations(s.T())
}

func (s *TransferServiceTestSuite) TestTransfer_LocksInAscendingIDOrder() {
	ctx := context.Background()
	// Transfer direction is b -> a; locks must still be requested as [a, b].
	s.mockUserRepo.On("ExistsUser", mock.Anything, s.ownerID).Return(true, nil).Once()
	s.mockCardRepo.On("BeginTx", mock.Anything).Return(nil, nil).Once()
	s.mockCardRepo.On("RollbackTx", mock.Anything, mock.Anything).Return(nil).Maybe()
	s.mockCardRepo.On("FindCardsByIDsForUpdate", mock.Anything, mock.Anything, []string{s.fromCardID, s.toCardID}).
		Return(map[string]domain.Card{
			s.fromCardID: s.card(s.fromCardID, s.ownerID, "10", domain.CardActive),
			s.toCardID:   s.card(s.toCardID, s.ownerID, "1000", domain.CardActive),
		}, nil).Once()
	s.mockCardRepo.On("UpdateCardBalancesInTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	s.mockTxnRepo.On("SaveTransactionInTx", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	s.mockCardRepo.On("CommitTx", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := s.service.Transfer(ctx, s.ownerID, s.toCardID, s.fromCardID, decimal.RequireFromString("5"))

	s.Require().NoError(err)
	s.mockCardRepo.AssertExpectations(s.T())
}

func (s *TransferServiceTestSuite) TestTransfer_InsufficientFunds() {
	ctx := context.Background()
	s.expectLockedCards(map[string]domain.Card{
		s.fromCardID: s.card(s.fromCardID, s.ownerID, "100", domain.CardActive),
		s.toCardID:   s.card(s.toCardID, s.ownerID, "10", domain.CardActive),
	})

	_, err := s.service.Transfer(ctx, s.ownerID, s.fromCardID, s.toCardID, decimal.RequireFromString("250"))

	s.Require().ErrorIs(err, apperrors.ErrInsufficientFunds)
	s.mockCardRepo.AssertNotCalled(s.T(), "UpdateCardBalancesInTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	s.mockCardRepo.AssertNotCalled(s.T(), "CommitTx", mock.Anything, mock.Anything)
	s.mockCardRepo.AssertCalled(s.T(), "RollbackTx", mock.Anything, mock.Anything)
}

func (s *TransferServiceTestSuite) TestTransfer_BlockedSourceCard() {
	ctx := context.Background()
	s.expectLockedCards(map[string]domain.Card{
		s.fromCardID: s.card(s.fromCardID, s.ownerID, "1000", domain.CardBlocked),
		s.toCardID:   s.card(s.toCardID, s.ownerID, "10", domain.CardActive),
	})

	_, err := s.service.Transfer(ctx, s.ownerID, s.fromCardID, s.toCardID, decimal.RequireFromString("250"))

	s.Require().ErrorIs(err, apperrors.ErrCardNotActive)
	s.Contains(err.Error(), "from card")
}

func (s *TransferServiceTestSuite) TestTransfer_BlockRequestedDestinationCard() {
	ctx := context.Background()
	s.expectLockedCards(map[string]domain.Card{
		s.fromCardID: s.card(s.fromCardID, s.ownerID, "1000", domain.CardActive),
		s.toCardID:   s.card(s.toCardID, s.ownerID, "10", domain.CardBlockRequested),
	})

	_, err := s.service.Transfer(ctx, s.ownerID, s.fromCardID, s.toCardID, decimal.RequireFromString("250"))

	s.Require().ErrorIs(err, apperrors.ErrCardNotActive)
	s.Contains(err.Error(), "to card")
}

func (s *TransferServiceTestSuite) TestTransfer_ForeignCard() {
	ctx := context.Background()
	s.expectLockedCards(map[string]domain.Card{
		s.fromCardID: s.card(s.fromCardID, s.ownerID, "1000", domain.CardActive),
		s.toCardID:   s.card(s.toCardID, uuid.NewString(), "10", domain.CardActive),
	})

	_, err := s.service.Transfer(ctx, s.ownerID, s.fromCardID, s.toCardID, decimal.RequireFromString("250"))

	s.Require().ErrorIs(err, apperrors.ErrForbidden)
}

func (s *TransferServiceTestSuite) TestTransfer_SameCard() {
	ctx := context.Background()
	s.mockUserRepo.On("ExistsUser", mock.Anything, s.ownerID).Return(true, nil).Once()
	s.mockCardRepo.On("BeginTx", mock.Anything).Return(nil, nil).Once()
	s.mockCardRepo.On("RollbackTx", mock.Anything, mock.Anything).Return(nil).Maybe()
	// The single ID is locked once; the distinctness check fires afterwards.
	s.mockCardRepo.On("FindCardsByIDsForUpdate", mock.Anything, mock.Anything, []string{s.fromCardID}).
		Return(map[string]domain.Card{
			s.fromCardID: s.card(s.fromCardID, s.ownerID, "1000", domain.CardActive),
		}, nil).Once()

	_, err := s.service.Transfer(ctx, s.ownerID, s.fromCardID, s.fromCardID, decimal.RequireFromString("250"))

	s.Require().ErrorIs(err, apperrors.ErrValidation)
	s.mockCardRepo.AssertExpectations(s.T())
}

func (s *TransferServiceTestSuite) TestTransfer_InvalidAmounts() {
	ctx := context.Background()
	for _, raw := range []string{"0", "-5", "10.555"} {
		_, err := s.service.Transfer(ctx, s.ownerID, s.fromCardID, s.toCardID, decimal.RequireFromString(raw))
		s.Require().ErrorIs(err, apperrors.ErrValidation, "amount %s", raw)
	}
	s.mockCardRepo.AssertNotCalled(s.T(), "BeginTx", mock.Anything)
}

func (s *TransferServiceTestSuite) TestTransfer_UnknownOwner() {
	ctx := context.Background()
	s.mockUserRepo.On("ExistsUser", mock.Anything, s.ownerID).Return(false, nil).Once()

	_, err := s.service.Transfer(ctx, s.ownerID, s.fromCardID, s.toCardID, decimal.RequireFromString("250"))

	s.Require().ErrorIs(err, apperrors.ErrNotFound)
	s.mockCardRepo.AssertNotCalled(s.T(), "BeginTx", mock.Anything)
}

func (s *TransferServiceTestSuite) TestTransfer_MissingCard() {
	ctx := context.Background()
	s.mockUserRepo.On("ExistsUser", mock.Anything, s.ownerID).Return(true, nil).Once()
	s.mockCardRepo.On("BeginTx", mock.Anything).Return(nil, nil).Once()
	s.mockCardRepo.On("RollbackTx", mock.Anything, mock.Anything).Return(nil).Maybe()
	s.mockCardRepo.On("FindCardsByIDsForUpdate", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, apperrors.ErrNotFound).Once()

	_, err := s.service.Transfer(ctx, s.ownerID, s.fromCardID, s.toCardID, decimal.RequireFromString("250"))

	s.Require().ErrorIs(err, apperrors.ErrNotFound)
	s.mockCardRepo.AssertNotCalled(s.T(), "CommitTx", mock.Anything, mock.Anything)
}

func (s *TransferServiceTestSuite) TestListByOwner_ResolvesMaskedCards() {
	ctx := context.Background()
	txns := []domain.Transaction{{
		TransactionID: uuid.NewString(),
		OwnerID:       s.ownerID,
		FromCardID:    s.fromCardID,
		ToCardID:      s.toCardID,
		Amount:        decimal.RequireFromString("25"),
		Status:        domain.Success,
	}}
	s.mockTxnRepo.On("ListTransactionsByOwnerID", mock.Anything, s.ownerID, 20, (*string)(nil)).
		Return(txns, nil, nil).Once()

	from := s.card(s.fromCardID, s.ownerID, "100", domain.CardActive)
	to := s.card(s.toCardID, s.ownerID, "100", domain.CardActive)
	to.Last4 = "2222"
	s.mockCardRepo.On("FindCardsByIDs", mock.Anything, []string{s.fromCardID, s.toCardID}).
		Return(map[string]domain.Card{s.fromCardID: from, s.toCardID: to}, nil).Once()

	resp, err := s.service.ListByOwner(ctx, s.ownerID, dto.ListTransactionsParams{})

	s.Require().NoError(err)
	s.Require().Len(resp.Transactions, 1)
	s.Equal("**** **** **** 1111", resp.Transactions[0].FromMasked)
	s.Equal("**** **** **** 2222", resp.Transactions[0].ToMasked)
	s.mockCardRepo.AssertExpectations(s.T())
}

func TestTransferServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TransferServiceTestSuite))
}

// --- Concurrency: balances are conserved under parallel transfers ---

// fakeTx marks a fake store transaction. The embedded interface is never
// called; it only satisfies the pgx.Tx parameter type.
type fakeTx struct {
	pgx.Tx
	done bool
}

// fakeCardStore is an in-memory CardRepository whose transactions serialize on
// a mutex, mimicking row locks held from BeginTx to Commit/Rollback.
type fakeCardStore struct {
	mu      sync.Mutex
	cards   map[string]domain.Card
	pending map[string]decimal.Decimal
}

func newFakeCardStore(cards ...domain.Card) *fakeCardStore {
	s := &fakeCardStore{cards: make(map[string]domain.Card)}
	for _, c := range cards {
		s.cards[c.CardID] = c
	}
	return s
}

func (s *fakeCardStore) BeginTx(ctx context.Context) (pgx.Tx, error) {
	s.mu.Lock()
	s.pending = make(map[string]decimal.Decimal)
	return &fakeTx{}, nil
}

func (s *fakeCardStore) CommitTx(ctx context.Context, tx pgx.Tx) error {
	ft := tx.(*fakeTx)
	if ft.done {
		return nil
	}
	for id, delta := range s.pending {
		c := s.cards[id]
		c.Balance = c.Balance.Add(delta)
		s.cards[id] = c
	}
	ft.done = true
	s.mu.Unlock()
	return nil
}

func (s *fakeCardStore) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	ft := tx.(*fakeTx)
	if ft.done {
		return nil
	}
	ft.done = true
	s.mu.Unlock()
	return nil
}

func (s *fakeCardStore) FindCardsByIDsForUpdate(ctx context.Context, tx pgx.Tx, cardIDs []string) (map[string]domain.Card, error) {
	out := make(map[string]domain.Card, len(cardIDs))
	for _, id := range cardIDs {
		c, ok := s.cards[id]
		if !ok {
			return nil, apperrors.ErrNotFound
		}
		out[id] = c
	}
	return out, nil
}

func (s *fakeCardStore) UpdateCardBalancesInTx(ctx context.Context, tx pgx.Tx, changes map[string]decimal.Decimal, now time.Time) error {
	for id, delta := range changes {
		s.pending[id] = s.pending[id].Add(delta)
	}
	return nil
}

func (s *fakeCardStore) SaveCard(ctx context.Context, card domain.Card) error { panic("not used") }
func (s *fakeCardStore) FindCardByID(ctx context.Context, cardID string) (*domain.Card, error) {
	panic("not used")
}
func (s *fakeCardStore) FindCardsByIDs(ctx context.Context, cardIDs []string) (map[string]domain.Card, error) {
	panic("not used")
}
func (s *fakeCardStore) UpdateCardStatusInTx(ctx context.Context, tx pgx.Tx, cardID string, status domain.CardStatus, now time.Time) error {
	panic("not used")
}
func (s *fakeCardStore) ExistsByPanHash(ctx context.Context, panHash string) (bool, error) {
	panic("not used")
}
func (s *fakeCardStore) ExistsByEncryptedPan(ctx context.Context, encryptedPan string) (bool, error) {
	panic("not used")
}
func (s *fakeCardStore) ListCardsByOwner(ctx context.Context, ownerID string, filter portsrepo.CardListFilter, limit int, nextToken *string) ([]domain.Card, *string, error) {
	panic("not used")
}
func (s *fakeCardStore) ListAllCards(ctx context.Context, limit int, nextToken *string) ([]domain.Card, *string, error) {
	panic("not used")
}
func (s *fakeCardStore) DeleteCard(ctx context.Context, cardID string) error { panic("not used") }

// fakeLedger appends entries under its own lock.
type fakeLedger struct {
	mu      sync.Mutex
	entries []domain.Transaction
}

func (l *fakeLedger) SaveTransactionInTx(ctx context.Context, tx pgx.Tx, txn domain.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, txn)
	return nil
}

func (l *fakeLedger) ListTransactionsByCardID(ctx context.Context, cardID string, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	panic("not used")
}
func (l *fakeLedger) ListTransactionsByOwnerID(ctx context.Context, ownerID string, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	panic("not used")
}
func (l *fakeLedger) ExistsByCardID(ctx context.Context, cardID string) (bool, error) {
	panic("not used")
}

func TestTransfer_AppliesDebitAndCredit(t *testing.T) {
	ownerID := uuid.NewString()
	cardA := "aaaaaaaa-0000-0000-0000-000000000001"
	cardB := "bbbbbbbb-0000-0000-0000-000000000002"

	store := newFakeCardStore(
		domain.Card{CardID: cardA, OwnerID: ownerID, Status: domain.CardActive, Balance: decimal.RequireFromString("1000")},
		domain.Card{CardID: cardB, OwnerID: ownerID, Status: domain.CardActive, Balance: decimal.RequireFromString("10")},
	)
	ledger := &fakeLedger{}
	userRepo := new(MockUserRepository)
	userRepo.On("ExistsUser", mock.Anything, ownerID).Return(true, nil)

	svc := services.NewTransferService(store, userRepo, ledger)

	txn, err := svc.Transfer(context.Background(), ownerID, cardA, cardB, decimal.RequireFromString("250"))
	if err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	if !txn.Amount.Equal(decimal.RequireFromString("250")) || txn.Status != string(domain.Success) {
		t.Errorf("unexpected ledger entry: amount=%s status=%s", txn.Amount, txn.Status)
	}
	if got := store.cards[cardA].Balance; !got.Equal(decimal.RequireFromString("750")) {
		t.Errorf("source balance = %s, want 750", got)
	}
	if got := store.cards[cardB].Balance; !got.Equal(decimal.RequireFromString("260")) {
		t.Errorf("destination balance = %s, want 260", got)
	}
	if len(ledger.entries) != 1 {
		t.Errorf("ledger entries = %d, want 1", len(ledger.entries))
	}
}

func TestTransfer_ConcurrentTransfersConserveTotal(t *testing.T) {
	ownerID := uuid.NewString()
	cardA := "aaaaaaaa-0000-0000-0000-000000000001"
	cardB := "bbbbbbbb-0000-0000-0000-000000000002"

	store := newFakeCardStore(
		domain.Card{CardID: cardA, OwnerID: ownerID, Status: domain.CardActive, Balance: decimal.RequireFromString("500")},
		domain.Card{CardID: cardB, OwnerID: ownerID, Status: domain.CardActive, Balance: decimal.RequireFromString("500")},
	)
	ledger := &fakeLedger{}
	userRepo := new(MockUserRepository)
	userRepo.On("ExistsUser", mock.Anything, ownerID).Return(true, nil)

	svc := services.NewTransferService(store, userRepo, ledger)

	const workers = 5
	const iterations = 10
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				if _, err := svc.Transfer(context.Background(), ownerID, cardA, cardB, decimal.RequireFromString("7")); err != nil {
					t.Errorf("a->b transfer failed: %v", err)
				}
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				if _, err := svc.Transfer(context.Background(), ownerID, cardB, cardA, decimal.RequireFromString("3")); err != nil {
					t.Errorf("b->a transfer failed: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	// a: 500 - 50*7 + 50*3 = 300; b: 500 + 50*7 - 50*3 = 700.
	if got := store.cards[cardA].Balance; !got.Equal(decimal.RequireFromString("300")) {
		t.Errorf("card a balance = %s, want 300", got)
	}
	if got := store.cards[cardB].Balance; !got.Equal(decimal.RequireFromString("700")) {
		t.Errorf("card b balance = %s, want 700", got)
	}
	total := store.cards[cardA].Balance.Add(store.cards[cardB].Balance)
	if !total.Equal(decimal.RequireFromString("1000")) {
		t.Errorf("total balance = %s, want 1000", total)
	}
	if len(ledger.entries) != 2*workers*iterations {
		t.Errorf("ledger entries = %d, want %d", len(ledger.entries), 2*workers*iterations)
	}
}
