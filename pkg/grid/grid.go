// Package grid generates the 4x3 scratch grid for a card from its
// pre-assigned prize outcome.
package grid

import (
	"fmt"
	"math/rand/v2"

	"github.com/shopspring/decimal"

	"github.com/LilFatFrank/scratch-off/pkg/card"
	"github.com/LilFatFrank/scratch-off/pkg/prize"
)

// maxDecoyAttempts bounds the resampling loop that keeps decoy rows from
// accidentally forming a triple. After the budget is spent the last draw
// is accepted as-is.
const maxDecoyAttempts = 30

// Params carries the inputs the generator needs beyond the outcome itself.
type Params struct {
	// PrizeAsset is the contract address stamped on winning cells.
	PrizeAsset string
	// DecoyAmounts and DecoyAssets are the pools non-winning cells draw
	// from. Both must be non-empty.
	DecoyAmounts []decimal.Decimal
	DecoyAssets  []string
	// Friends is the candidate pool for friend-win rows. May be empty, in
	// which case a placeholder friend with an empty wallet is used.
	Friends []card.Friend
}

// Generator builds card grids. The zero value is not usable, use New.
type Generator struct {
	intn func(n int) int
}

// New returns a Generator backed by math/rand/v2.
func New() *Generator {
	return &Generator{intn: rand.IntN}
}

// NewWithIntn returns a Generator with an injected integer source.
func NewWithIntn(intn func(n int) int) *Generator {
	return &Generator{intn: intn}
}

// Result is a generated grid plus the friend designated by a friend-win
// card. SharedTo is empty for win and lose outcomes, and also for a
// friend-win generated from an empty friend pool.
type Result struct {
	Cells    []card.Cell
	SharedTo string
}

// Generate lays out the 12 cells for the given outcome. Exactly one row
// matches on a win or friend-win, chosen uniformly. Every other row is
// filled from the decoy pools and resampled so its three cells never all
// carry the same amount.
func (g *Generator) Generate(outcome prize.Outcome, p Params) (Result, error) {
	if len(p.DecoyAmounts) == 0 {
		return Result{}, fmt.Errorf("grid: empty decoy amount pool")
	}
	if len(p.DecoyAssets) == 0 {
		return Result{}, fmt.Errorf("grid: empty decoy asset pool")
	}

	cells := make([]card.Cell, card.Cells)
	winRow := -1
	if !outcome.IsLose() {
		winRow = g.intn(card.Rows)
	}

	var sharedTo string
	for r := 0; r < card.Rows; r++ {
		if r != winRow {
			g.fillDecoyRow(cells, r, p)
			continue
		}
		if outcome.IsFriendWin() {
			sharedTo = g.fillFriendRow(cells, r, p)
		} else {
			g.fillWinRow(cells, r, outcome.Amount, p.PrizeAsset)
		}
	}
	return Result{Cells: cells, SharedTo: sharedTo}, nil
}

func (g *Generator) fillWinRow(cells []card.Cell, row int, amount decimal.Decimal, asset string) {
	for c := 0; c < card.Cols; c++ {
		cells[row*card.Cols+c] = card.Cell{Amount: amount, AssetContract: asset}
	}
}

func (g *Generator) fillFriendRow(cells []card.Cell, row int, p Params) string {
	friend := card.Friend{Name: "a friend"}
	if len(p.Friends) > 0 {
		friend = p.Friends[g.intn(len(p.Friends))]
	}
	cell := card.Cell{
		Amount:       decimal.NewFromInt(-1),
		FriendFID:    friend.FID,
		FriendName:   friend.Name,
		FriendPFP:    friend.PFP,
		FriendWallet: friend.Wallet,
	}
	for c := 0; c < card.Cols; c++ {
		cells[row*card.Cols+c] = cell
	}
	return friend.Wallet
}

// fillDecoyRow draws each cell from the decoy pools, resampling the third
// cell while it would complete a triple with the first two.
func (g *Generator) fillDecoyRow(cells []card.Cell, row int, p Params) {
	for c := 0; c < card.Cols; c++ {
		cell := g.drawDecoy(p)
		if c == card.Cols-1 {
			first := cells[row*card.Cols]
			second := cells[row*card.Cols+1]
			for attempt := 0; attempt < maxDecoyAttempts; attempt++ {
				if !cell.Amount.Equal(first.Amount) || !cell.Amount.Equal(second.Amount) {
					break
				}
				cell = g.drawDecoy(p)
			}
		}
		cells[row*card.Cols+c] = cell
	}
}

func (g *Generator) drawDecoy(p Params) card.Cell {
	return card.Cell{
		Amount:        p.DecoyAmounts[g.intn(len(p.DecoyAmounts))],
		AssetContract: p.DecoyAssets[g.intn(len(p.DecoyAssets))],
	}
}
