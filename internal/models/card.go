package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Card represents a card row as stored in the database.
// encrypted_pan holds the base64 AES-GCM blob produced by the PAN codec;
// pan_hash holds the keyed fingerprint. Both columns carry unique indexes.
type Card struct {
	CardID        string          `db:"card_id"`
	OwnerID       string          `db:"owner_id"`
	EncryptedPan  string          `db:"encrypted_pan"`
	PanHash       string          `db:"pan_hash"`
	Last4         string          `db:"last4"`
	ExpiryDate    time.Time       `db:"expiry_date"`
	Status        string          `db:"status"`
	Balance       decimal.Decimal `db:"balance"`
	CreatedAt     time.Time       `db:"created_at"`
	LastUpdatedAt time.Time       `db:"last_updated_at"`
}
