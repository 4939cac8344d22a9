// Package reveal holds the public reveal feed and global stats models.
package reveal

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reveal is the audit record written once per card settlement. It doubles
// as the public feed entry; PayoutTx is filled in after the prize
// broadcast succeeds.
type Reveal struct {
	ID        string
	CardID    int64
	Wallet    string
	Username  string
	PFP       string
	Amount    decimal.Decimal
	Asset     string
	PaymentTx string
	PayoutTx  string
	Won       bool
	SharedTo  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Stats is the global aggregate row maintained alongside the feed.
type Stats struct {
	TotalCards     int64
	TotalScratched int64
	TotalWinnings  decimal.Decimal
	TotalPaidOut   decimal.Decimal
	UpdatedAt      time.Time
}

// Response is the wire form of a feed entry.
type Response struct {
	ID       string          `json:"id"`
	Wallet   string          `json:"wallet"`
	Username string          `json:"username,omitempty"`
	PFP      string          `json:"pfp,omitempty"`
	Amount   decimal.Decimal `json:"amount"`
	Asset    string          `json:"asset,omitempty"`
	Won      bool            `json:"won"`
	SharedTo string          `json:"shared_to,omitempty"`
	At       time.Time       `json:"at"`
}

// StatsResponse is the wire form of the global aggregates.
type StatsResponse struct {
	TotalCards     int64           `json:"total_cards"`
	TotalScratched int64           `json:"total_scratched"`
	TotalWinnings  decimal.Decimal `json:"total_winnings"`
	TotalPaidOut   decimal.Decimal `json:"total_paid_out"`
}

// ToResponse maps a feed entry to its wire form.
func ToResponse(r *Reveal) Response {
	return Response{
		ID:       r.ID,
		Wallet:   r.Wallet,
		Username: r.Username,
		PFP:      r.PFP,
		Amount:   r.Amount,
		Asset:    r.Asset,
		Won:      r.Won,
		SharedTo: r.SharedTo,
		At:       r.CreatedAt,
	}
}
