// Package payments verifies incoming USDC purchase transactions and
// broadcasts prize payouts from the treasury.
package payments

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
)

// ErrVerificationFailed is returned when an incoming payment transaction
// cannot be confirmed on chain for the expected amount and parties.
var ErrVerificationFailed = errors.New("payment verification failed")

// Verifier confirms that a purchase transaction paid the treasury.
type Verifier interface {
	// VerifyPayment checks that txHash is a confirmed transfer of
	// expectedAmount (in whole tokens) from the buyer's wallet to the
	// treasury. Amount comparison carries a small tolerance for
	// rounding at the token's decimal boundary.
	VerifyPayment(ctx context.Context, txHash, fromWallet string, expectedAmount decimal.Decimal) error
}

// Broadcaster sends prize payouts from the treasury wallet.
type Broadcaster interface {
	// Transfer sends amount whole tokens to the recipient and returns
	// the transaction hash. A failed broadcast is retried with a fresh
	// nonce, except for definitive rejections.
	Transfer(ctx context.Context, to string, amount decimal.Decimal) (string, error)
}

// DefinitiveError marks a payout failure that retrying cannot fix, such
// as an insufficient treasury balance or a reverted simulation.
type DefinitiveError struct {
	Reason string
	Err    error
}

func (e *DefinitiveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payout rejected: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("payout rejected: %s", e.Reason)
}

func (e *DefinitiveError) Unwrap() error { return e.Err }

// IsDefinitive reports whether err is a rejection that must not be retried.
func IsDefinitive(err error) bool {
	var de *DefinitiveError
	return errors.As(err, &de)
}

// ethBackend is the slice of the ethclient surface the package uses.
// Narrowed for test fakes.
type ethBackend interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}
