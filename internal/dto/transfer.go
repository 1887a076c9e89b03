package dto

import (
	"time"

	"github.com/dkuznetsov/bank-cards/internal/core/domain"
	"github.com/shopspring/decimal"
)

// TransferRequest is the payload for moving funds between two cards owned by
// the same user.
type TransferRequest struct {
	FromCardID string          `json:"fromCardID" binding:"required,uuid"`
	ToCardID   string          `json:"toCardID" binding:"required,uuid"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
}

// TransactionResponse is the public shape of a ledger entry. The referenced
// cards appear in masked display form; the raw PAN never leaves the service.
type TransactionResponse struct {
	TransactionID string          `json:"transactionID"`
	OwnerID       string          `json:"ownerID"`
	FromCardID    string          `json:"fromCardID"`
	ToCardID      string          `json:"toCardID"`
	FromMasked    string          `json:"fromMasked"`
	ToMasked      string          `json:"toMasked"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
	Message       string          `json:"message"`
}

// ListTransactionsParams holds pagination parameters for ledger listings.
type ListTransactionsParams struct {
	Limit     int
	NextToken *string
}

// ListTransactionsResponse is a page of ledger entries plus the next cursor.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	NextToken    *string               `json:"nextToken,omitempty"`
}

// ToTransactionResponse maps a domain ledger entry to its response shape.
// masked holds the display forms of the referenced cards keyed by card ID;
// cards that cannot be resolved fall back to the placeholder mask.
func ToTransactionResponse(t *domain.Transaction, masked map[string]string) TransactionResponse {
	return TransactionResponse{
		TransactionID: t.TransactionID,
		OwnerID:       t.OwnerID,
		FromCardID:    t.FromCardID,
		ToCardID:      t.ToCardID,
		FromMasked:    maskedOrPlaceholder(masked, t.FromCardID),
		ToMasked:      maskedOrPlaceholder(masked, t.ToCardID),
		Amount:        t.Amount,
		Status:        string(t.Status),
		CreatedAt:     t.CreatedAt,
		Message:       t.Message,
	}
}

// ToTransactionResponses maps a slice of domain ledger entries.
func ToTransactionResponses(txns []domain.Transaction, masked map[string]string) []TransactionResponse {
	out := make([]TransactionResponse, len(txns))
	for i := range txns {
		out[i] = ToTransactionResponse(&txns[i], masked)
	}
	return out
}

func maskedOrPlaceholder(masked map[string]string, cardID string) string {
	if m, ok := masked[cardID]; ok {
		return m
	}
	return "****"
}
