package card

import (
	"time"

	"github.com/shopspring/decimal"
)

// BuyRequest is a purchase of Count cards backed by an on-chain payment.
type BuyRequest struct {
	Count     int    `json:"count" validate:"required,min=1"`
	PaymentTx string `json:"payment_tx" validate:"required"`
}

// BuyResponse returns the freshly minted cards and the card_no range
// they occupy.
type BuyResponse struct {
	Cards       []Response `json:"cards"`
	StartCardNo int        `json:"start_card_no"`
	EndCardNo   int        `json:"end_card_no"`
}

// ProcessPrizeRequest settles a scratched card.
type ProcessPrizeRequest struct {
	CardID int64 `json:"card_id" validate:"required"`
}

// ProcessPrizeResponse reports the settlement result. PaymentError is set
// when the prize was recorded but the payout broadcast failed; such a
// card is claimed with no payout tx until reconciliation retries it.
type ProcessPrizeResponse struct {
	Outcome      string          `json:"outcome"`
	Amount       decimal.Decimal `json:"amount"`
	Message      string          `json:"message"`
	PayoutTx     string          `json:"payout_tx,omitempty"`
	PaymentError string          `json:"payment_error,omitempty"`
	SharedTo     string          `json:"shared_to,omitempty"`
	LeveledUp    bool            `json:"leveled_up,omitempty"`
	NewLevel     int             `json:"new_level,omitempty"`
	BonusCards   int             `json:"bonus_cards,omitempty"`
}

// Outcome labels used in settlement responses.
const (
	OutcomeWin       = "win"
	OutcomeFriendWin = "friend_win"
	OutcomeLose      = "lose"
)

// Response is the wire form of a card. The prize stays hidden until the
// card is scratched.
type Response struct {
	ID          int64            `json:"id"`
	CardNo      int              `json:"card_no"`
	Cells       []Cell           `json:"cells"`
	Scratched   bool             `json:"scratched"`
	Claimed     bool             `json:"claimed"`
	PrizeAmount *decimal.Decimal `json:"prize_amount,omitempty"`
	PayoutTx    string           `json:"payout_tx,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// ToResponse maps a card to its wire form, revealing the prize only for
// scratched cards.
func ToResponse(c *Card) Response {
	resp := Response{
		ID:        c.ID,
		CardNo:    c.CardNo,
		Cells:     c.Cells,
		Scratched: c.Scratched,
		Claimed:   c.Claimed,
		PayoutTx:  c.PayoutTx,
		CreatedAt: c.CreatedAt,
	}
	if c.Scratched {
		amount := c.PrizeAmount
		resp.PrizeAmount = &amount
	}
	return resp
}
