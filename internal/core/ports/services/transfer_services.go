package services

import (
	"context"

	"github.com/dkuznetsov/bank-cards/internal/dto"
	"github.com/shopspring/decimal"
)

// TransferSvcFacade exposes the funds-transfer engine and ledger queries.
type TransferSvcFacade interface {
	// Transfer moves amount between two cards of the same owner. The debit,
	// credit and ledger append are one atomic unit; on any precondition
	// failure nothing is persisted. The response carries the masked display
	// forms of both cards.
	Transfer(ctx context.Context, ownerID, fromCardID, toCardID string, amount decimal.Decimal) (*dto.TransactionResponse, error)

	// Ledger listings, newest first.
	ListByCard(ctx context.Context, cardID, requesterID string, isAdmin bool, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error)
	ListByOwner(ctx context.Context, ownerID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error)
}
