package revealstore

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/LilFatFrank/scratch-off/pkg/reveal"
)

// Store defines the interface for the public reveal feed and the global
// stats row.
type Store interface {
	// AddReveal appends a feed entry. The entry id is assigned here.
	AddReveal(ctx context.Context, r *reveal.Reveal) error
	// SetPayoutTx records the payout reference on an existing entry.
	SetPayoutTx(ctx context.Context, id, payoutTx string) error
	// ListReveals returns the newest entries first, up to limit.
	ListReveals(ctx context.Context, limit int) ([]*reveal.Reveal, error)
	// BumpStats applies additive deltas to the single aggregate row,
	// creating it on first use.
	BumpStats(ctx context.Context, delta StatsDelta) error
	GetStats(ctx context.Context) (*reveal.Stats, error)
}

// StatsDelta is one additive update to the aggregate row.
type StatsDelta struct {
	Cards     int64
	Scratched int64
	Winnings  decimal.Decimal
	PaidOut   decimal.Decimal
}
