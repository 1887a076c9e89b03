package domain

import (
	"fmt"
	"time"

	"github.com/dkuznetsov/bank-cards/internal/apperrors"
	"github.com/shopspring/decimal"
)

// CardStatus is the lifecycle state of a card.
type CardStatus string

const (
	CardActive         CardStatus = "ACTIVE"
	CardBlockRequested CardStatus = "BLOCK_REQUESTED"
	CardBlocked        CardStatus = "BLOCKED"
)

// ValidCardStatus reports whether s is one of the known statuses.
func ValidCardStatus(s CardStatus) bool {
	switch s {
	case CardActive, CardBlockRequested, CardBlocked:
		return true
	}
	return false
}

// Card represents a bank card. The PAN is stored encrypted; PanHash is a keyed
// fingerprint of the normalized PAN used for uniqueness checks without decryption.
// Balance is mutated only through the transfer and top-up operations.
type Card struct {
	CardID       string          `json:"cardID"`  // Primary Key (UUID)
	OwnerID      string          `json:"ownerID"` // FK -> User.UserID, immutable
	EncryptedPan string          `json:"-"`       // AES-GCM ciphertext blob, unique
	PanHash      string          `json:"-"`       // HMAC fingerprint, unique
	Last4        string          `json:"last4"`
	ExpiryDate   time.Time       `json:"expiryDate"`
	Status       CardStatus      `json:"status"`
	Balance      decimal.Decimal `json:"balance"`
	AuditFields
}

// MaskedNumber derives the display form of the card number.
func (c Card) MaskedNumber() string {
	if len(c.Last4) < 4 {
		return "****"
	}
	return "**** **** **** " + c.Last4
}

// IsActive reports whether the card may participate in transfers and top-ups.
func (c Card) IsActive() bool {
	return c.Status == CardActive
}

// RequestBlock applies the owner-initiated transition to BLOCK_REQUESTED.
// A card that is already BLOCKED cannot have a block requested again.
func (c *Card) RequestBlock() error {
	if c.Status == CardBlocked {
		return fmt.Errorf("%w: card %s is already blocked", apperrors.ErrConflict, c.CardID)
	}
	c.Status = CardBlockRequested
	return nil
}

// SetStatus applies an administrative status change. Administrators may move a
// card to any status directly, bypassing the block-request step.
func (c *Card) SetStatus(status CardStatus) error {
	if !ValidCardStatus(status) {
		return fmt.Errorf("%w: unknown card status %q", apperrors.ErrValidation, status)
	}
	c.Status = status
	return nil
}
