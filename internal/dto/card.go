package dto

import (
	"time"

	"github.com/dkuznetsov/bank-cards/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateCardRequest is the payload for issuing a card to a user.
// CardNumber is the raw PAN; it is normalized, fingerprinted and encrypted
// before anything is persisted, and never echoed back.
type CreateCardRequest struct {
	CardNumber string    `json:"cardNumber" binding:"required"`
	ExpiryDate time.Time `json:"expiryDate" binding:"required,futuredate"`
}

// TopUpRequest is the payload for a balance top-up.
type TopUpRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// SetStatusRequest is the payload for an administrative status change.
type SetStatusRequest struct {
	Status domain.CardStatus `json:"status" binding:"required"`
}

// CardResponse is the public shape of a card. The number only ever appears
// masked.
type CardResponse struct {
	CardID       string          `json:"cardID"`
	OwnerID      string          `json:"ownerID"`
	MaskedNumber string          `json:"maskedNumber"`
	ExpiryDate   time.Time       `json:"expiryDate"`
	Status       string          `json:"status"`
	Balance      decimal.Decimal `json:"balance"`
}

// ListCardsParams holds pagination and filter parameters for card listings.
type ListCardsParams struct {
	Status    *domain.CardStatus
	Last4     string
	Limit     int
	NextToken *string
}

// ListCardsResponse is a page of cards plus the cursor for the next page.
type ListCardsResponse struct {
	Cards     []CardResponse `json:"cards"`
	NextToken *string        `json:"nextToken,omitempty"`
}

// ToCardResponse maps a domain card to its response shape.
func ToCardResponse(c *domain.Card) CardResponse {
	return CardResponse{
		CardID:       c.CardID,
		OwnerID:      c.OwnerID,
		MaskedNumber: c.MaskedNumber(),
		ExpiryDate:   c.ExpiryDate,
		Status:       string(c.Status),
		Balance:      c.Balance,
	}
}

// ToCardResponses maps a slice of domain cards.
func ToCardResponses(cards []domain.Card) []CardResponse {
	out := make([]CardResponse, len(cards))
	for i := range cards {
		out[i] = ToCardResponse(&cards[i])
	}
	return out
}
