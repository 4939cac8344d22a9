// Package prize implements the weighted outcome draw for scratch cards.
// Every card gets its outcome assigned here at creation time; scratching
// only reveals it.
package prize

import (
	"math/rand/v2"

	"github.com/shopspring/decimal"
)

// friendWinAmount is the sentinel prize amount marking a friend-win card.
// It never contributes to winnings.
var friendWinAmount = decimal.NewFromInt(-1)

// Outcome is the discrete prize category assigned to a card.
type Outcome struct {
	Amount decimal.Decimal
}

// Lose returns the no-prize outcome.
func Lose() Outcome { return Outcome{Amount: decimal.Zero} }

// FriendWin returns the friend-win sentinel outcome.
func FriendWin() Outcome { return Outcome{Amount: friendWinAmount} }

// Win returns a monetary win outcome for the given amount.
func Win(amount decimal.Decimal) Outcome { return Outcome{Amount: amount} }

// IsWin reports whether the outcome is a monetary win.
func (o Outcome) IsWin() bool { return o.Amount.Sign() > 0 }

// IsFriendWin reports whether the outcome is the friend-win sentinel.
// The check is exact equality with -1, not a sign test.
func (o Outcome) IsFriendWin() bool { return o.Amount.Equal(friendWinAmount) }

// IsLose reports whether the outcome carries no prize.
func (o Outcome) IsLose() bool { return o.Amount.IsZero() }

// WinningsContribution is the amount added to user and global winnings
// when this outcome settles. The friend-win sentinel contributes zero.
func (o Outcome) WinningsContribution() decimal.Decimal {
	if o.IsWin() {
		return o.Amount
	}
	return decimal.Zero
}

var (
	winHalf = decimal.RequireFromString("0.5")
	winOne  = decimal.NewFromInt(1)
	winTwo  = decimal.NewFromInt(2)
)

// Drawer draws prize outcomes.
type Drawer interface {
	Draw() Outcome
}

// WeightedDrawer draws outcomes from fixed probability bands over a
// uniform roll in [0,100).
type WeightedDrawer struct {
	roll func() float64
}

// New creates a WeightedDrawer backed by the shared math/rand/v2 source.
func New() *WeightedDrawer {
	return &WeightedDrawer{roll: func() float64 { return rand.Float64() * 100 }}
}

// NewWithRoll creates a WeightedDrawer with a caller-supplied roll
// function returning values in [0,100). Used by tests and anywhere a
// deterministic sequence is needed.
func NewWithRoll(roll func() float64) *WeightedDrawer {
	return &WeightedDrawer{roll: roll}
}

// Draw picks one outcome. Bands, cumulative over r in [0,100):
//
//	r < 30  -> lose
//	r < 40  -> friend win
//	r < 75  -> 0.5
//	r < 87  -> 1
//	r < 98  -> 2
//	r >= 98 -> lose (second blank band, intentionally not a prize tier)
func (d *WeightedDrawer) Draw() Outcome {
	r := d.roll()

	switch {
	case r < 30:
		return Lose()
	case r < 40:
		return FriendWin()
	case r < 75:
		return Win(winHalf)
	case r < 87:
		return Win(winOne)
	case r < 98:
		return Win(winTwo)
	default:
		return Lose()
	}
}

// Fixed is a Drawer that always returns the same outcome. Useful for
// tests and for the legacy entry point where the caller supplies the
// prize.
type Fixed struct {
	Outcome Outcome
}

// Draw returns the fixed outcome.
func (f Fixed) Draw() Outcome { return f.Outcome }
