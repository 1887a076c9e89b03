package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the outcome recorded on a ledger entry.
type TransactionStatus string

// Success is the only status the transfer engine produces: failed transfers
// leave no ledger entry at all.
const Success TransactionStatus = "SUCCESS"

// Transaction is an immutable ledger entry for a completed transfer.
// It is created exactly once and never updated or deleted.
type Transaction struct {
	TransactionID string            `json:"transactionID"` // Primary Key (UUID)
	OwnerID       string            `json:"ownerID"`       // FK -> User.UserID
	FromCardID    string            `json:"fromCardID"`    // FK -> Card.CardID
	ToCardID      string            `json:"toCardID"`      // FK -> Card.CardID
	Amount        decimal.Decimal   `json:"amount"`        // Positive, scale 2
	Status        TransactionStatus `json:"status"`
	CreatedAt     time.Time         `json:"createdAt"`
	Message       string            `json:"message"`
}
