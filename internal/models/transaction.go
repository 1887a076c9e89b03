package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents a ledger row as stored in the database.
// Rows are append-only; there is no update path.
type Transaction struct {
	TransactionID string          `db:"transaction_id"`
	OwnerID       string          `db:"owner_id"`
	FromCardID    string          `db:"from_card_id"`
	ToCardID      string          `db:"to_card_id"`
	Amount        decimal.Decimal `db:"amount"`
	Status        string          `db:"status"`
	CreatedAt     time.Time       `db:"created_at"`
	Message       string          `db:"message"`
}
