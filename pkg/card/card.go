// Package card holds the scratch card domain model.
package card

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Payment reference sentinels for cards that were granted rather than
// purchased. Stored in the payment_tx column in place of a transaction id.
const (
	PaymentRefLevelUp = "FREE_CARD_LEVEL_UP"
	PaymentRefShared  = "FREE_CARD_SHARED"
	PaymentRefBulk    = "BULK_CREATION"
)

// Grid dimensions. Cells are stored row-major: cells[row*Cols+col].
const (
	Rows  = 4
	Cols  = 3
	Cells = Rows * Cols
)

// Cell is a single grid element. For friend-win rows the friend fields
// carry the designated recipient's social identity.
type Cell struct {
	Amount        decimal.Decimal `json:"amount"`
	AssetContract string          `json:"asset_contract,omitempty"`
	FriendFID     int64           `json:"friend_fid,omitempty"`
	FriendName    string          `json:"friend_username,omitempty"`
	FriendPFP     string          `json:"friend_pfp,omitempty"`
	FriendWallet  string          `json:"friend_wallet,omitempty"`
}

// Friend is an entry in the friend pool used to populate friend-win rows.
type Friend struct {
	FID    int64  `json:"fid"`
	Name   string `json:"username"`
	PFP    string `json:"pfp"`
	Wallet string `json:"wallet"`
}

// Card is the domain model for a scratch card. The prize is assigned at
// creation and stays hidden until the card is scratched. A card is
// immutable except for the scratch/claim transition, which happens once.
type Card struct {
	ID            int64
	UserWallet    string
	CardNo        int
	PaymentTx     string
	PrizeAmount   decimal.Decimal
	PrizeContract string
	Cells         []Cell
	Scratched     bool
	Claimed       bool
	PayoutTx      string
	SharedTo      string
	CreatedAt     time.Time
	ScratchedAt   *time.Time
}

// FindWinningRow returns the index of the row whose 3 cells all carry the
// given amount and asset, or -1 when no such row exists. Asset comparison
// is case-insensitive (contract addresses).
func FindWinningRow(cells []Cell, amount decimal.Decimal, asset string) int {
	if len(cells) != Cells || amount.Sign() <= 0 {
		return -1
	}
	for r := 0; r < Rows; r++ {
		match := true
		for c := 0; c < Cols; c++ {
			cell := cells[r*Cols+c]
			if !cell.Amount.Equal(amount) || !strings.EqualFold(cell.AssetContract, asset) {
				match = false
				break
			}
		}
		if match {
			return r
		}
	}
	return -1
}

// FriendRow returns the friend payload of the first friend-win row, or
// nil when the card has none. All cells in a friend-win row carry the
// same friend, so the first cell of the row is authoritative.
func FriendRow(cells []Cell) *Cell {
	if len(cells) != Cells {
		return nil
	}
	minusOne := decimal.NewFromInt(-1)
	for r := 0; r < Rows; r++ {
		cell := cells[r*Cols]
		if cell.Amount.Equal(minusOne) {
			return &cell
		}
	}
	return nil
}
