package userstore

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/LilFatFrank/scratch-off/pkg/user"
)

// ErrUserNotFound is returned when a user lookup finds no matching record.
var ErrUserNotFound = errors.New("user not found")

// Store defines the interface for player data persistence.
type Store interface {
	CreateUser(ctx context.Context, usr *user.User) error
	GetUser(ctx context.Context, opts ...QueryOption) (*user.User, error)
	UserExists(ctx context.Context, wallet string) (bool, error)
	// UpdateProfile refreshes the social identity fields of an existing row.
	UpdateProfile(ctx context.Context, wallet string, fid int64, username, pfp string) error
	// AddCards bumps cards_count by n using in-database arithmetic.
	AddCards(ctx context.Context, wallet string, n int) error
	// RecordScratch bumps cards_scratched by one, total_winnings by the
	// given amount and, when won is set, total_wins by one, all via
	// in-database arithmetic so concurrent reveals never lose updates.
	RecordScratch(ctx context.Context, wallet string, winnings decimal.Decimal, won bool) error
	// SetProgression moves the level counters from the observed state to
	// the new one. The update is conditional on the observed state still
	// holding; it reports whether the write applied.
	SetProgression(ctx context.Context, wallet string, fromLevel, fromRemaining, toLevel, toRemaining int) (bool, error)
	// Leaderboard returns up to limit users ordered by total winnings,
	// highest first.
	Leaderboard(ctx context.Context, limit int) ([]*user.User, error)
}

// QueryOptions defines options for querying users
type QueryOptions struct {
	Wallet *string
	FID    *int64
}

// QueryOption is a functional option for querying users
type QueryOption func(*QueryOptions)

// WithWallet sets the wallet address filter
func WithWallet(wallet string) QueryOption {
	return func(opts *QueryOptions) {
		opts.Wallet = &wallet
	}
}

// WithFID sets the social identity filter
func WithFID(fid int64) QueryOption {
	return func(opts *QueryOptions) {
		opts.FID = &fid
	}
}
