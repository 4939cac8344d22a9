package cardstore

import (
	"context"
	"errors"

	"github.com/LilFatFrank/scratch-off/pkg/card"
)

// ErrCardNotFound is returned when a card lookup finds no matching record.
var ErrCardNotFound = errors.New("card not found")

// ErrAlreadyScratched is returned by MarkScratched when the card was
// scratched before this call. Callers use it as the idempotence guard for
// settlement.
var ErrAlreadyScratched = errors.New("card already scratched")

// Store defines the interface for scratch card persistence.
type Store interface {
	// CreateCards inserts the given cards for one owner, assigning each a
	// sequential per-user card number. Cards are numbered after the
	// owner's current highest.
	CreateCards(ctx context.Context, wallet string, cards []*card.Card) error
	GetCard(ctx context.Context, id int64) (*card.Card, error)
	ListCards(ctx context.Context, opts ...QueryOption) ([]*card.Card, error)
	// MarkScratched flips the card to scratched exactly once. A second
	// call for the same card returns ErrAlreadyScratched.
	MarkScratched(ctx context.Context, id int64) error
	// SetPayout records the payout transaction and claim state after a
	// prize is processed.
	SetPayout(ctx context.Context, id int64, payoutTx string, claimed bool) error
}

// QueryOptions defines options for querying cards
type QueryOptions struct {
	Wallet    *string
	Scratched *bool
	Limit     int
	Offset    int
}

// QueryOption is a functional option for querying cards
type QueryOption func(*QueryOptions)

// WithWallet filters by owner wallet
func WithWallet(wallet string) QueryOption {
	return func(opts *QueryOptions) {
		opts.Wallet = &wallet
	}
}

// WithScratched filters by scratch state
func WithScratched(scratched bool) QueryOption {
	return func(opts *QueryOptions) {
		opts.Scratched = &scratched
	}
}

// WithLimit caps the result set
func WithLimit(limit int) QueryOption {
	return func(opts *QueryOptions) {
		opts.Limit = limit
	}
}

// WithOffset skips the first offset results
func WithOffset(offset int) QueryOption {
	return func(opts *QueryOptions) {
		opts.Offset = offset
	}
}
