package payments

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/LilFatFrank/scratch-off/pkg/config"
)

// transferTopic is the keccak hash of the ERC-20 Transfer event signature.
var transferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

// transferSelector is the 4-byte selector of transfer(address,uint256).
var transferSelector = crypto.Keccak256([]byte("transfer(address,uint256)"))[:4]

// amountTolerance absorbs rounding at the token decimal boundary when
// comparing on-chain amounts against the expected price.
var amountTolerance = decimal.RequireFromString("0.001")

const transferGasLimit = 100_000

// Client verifies and broadcasts ERC-20 transfers on the configured chain.
type Client struct {
	cfg      *config.ChainConfig
	backend  ethBackend
	key      *ecdsa.PrivateKey
	treasury common.Address
	token    common.Address
	logger   *zap.Logger
}

// NewClient builds a Client from an ethclient-compatible backend and the
// treasury signing key.
func NewClient(cfg *config.ChainConfig, backend ethBackend, key *ecdsa.PrivateKey, logger *zap.Logger) *Client {
	return &Client{
		cfg:      cfg,
		backend:  backend,
		key:      key,
		treasury: common.HexToAddress(cfg.TreasuryAddress),
		token:    common.HexToAddress(cfg.USDCContract),
		logger:   logger,
	}
}

// VerifyPayment confirms a purchase: the receipt must be successful and
// contain a token Transfer of the expected amount from the buyer to the
// treasury.
func (c *Client) VerifyPayment(ctx context.Context, txHash, fromWallet string, expectedAmount decimal.Decimal) error {
	receipt, err := c.backend.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		return fmt.Errorf("%w: receipt lookup: %v", ErrVerificationFailed, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("%w: transaction reverted", ErrVerificationFailed)
	}

	from := common.HexToAddress(fromWallet)
	for _, lg := range receipt.Logs {
		if lg.Address != c.token || len(lg.Topics) != 3 || lg.Topics[0] != transferTopic {
			continue
		}
		if common.BytesToAddress(lg.Topics[1].Bytes()) != from {
			continue
		}
		if common.BytesToAddress(lg.Topics[2].Bytes()) != c.treasury {
			continue
		}

		paid := fromBaseUnits(new(big.Int).SetBytes(lg.Data), c.cfg.TokenDecimals)
		if paid.Sub(expectedAmount).Abs().LessThanOrEqual(amountTolerance) {
			return nil
		}
		return fmt.Errorf("%w: paid %s, expected %s", ErrVerificationFailed, paid, expectedAmount)
	}

	return fmt.Errorf("%w: no matching transfer to treasury", ErrVerificationFailed)
}

// Transfer broadcasts a token transfer from the treasury. Transient
// failures are retried up to the configured attempt budget with linear
// backoff and a fresh nonce per attempt.
func (c *Client) Transfer(ctx context.Context, to string, amount decimal.Decimal) (string, error) {
	recipient := common.HexToAddress(to)
	value := toBaseUnits(amount, c.cfg.TokenDecimals)

	var lastErr error
	for attempt := 1; attempt <= c.cfg.PayoutAttempts; attempt++ {
		if attempt > 1 {
			backoff := time.Duration(attempt-1) * c.cfg.PayoutRetryBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		hash, err := c.sendTransfer(ctx, recipient, value)
		if err == nil {
			return hash, nil
		}
		if classified := classify(err); IsDefinitive(classified) {
			return "", classified
		}
		lastErr = err
		c.logger.Warn("payout broadcast failed, retrying",
			zap.Int("attempt", attempt),
			zap.String("to", recipient.Hex()),
			zap.Error(err))
	}

	return "", fmt.Errorf("payout failed after %d attempts: %w", c.cfg.PayoutAttempts, lastErr)
}

func (c *Client) sendTransfer(ctx context.Context, to common.Address, value *big.Int) (string, error) {
	sender := crypto.PubkeyToAddress(c.key.PublicKey)

	nonce, err := c.backend.PendingNonceAt(ctx, sender)
	if err != nil {
		return "", fmt.Errorf("failed to get nonce: %w", err)
	}
	gasPrice, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to suggest gas price: %w", err)
	}

	data := make([]byte, 0, 4+32+32)
	data = append(data, transferSelector...)
	data = append(data, common.LeftPadBytes(to.Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(value.Bytes(), 32)...)

	tx := types.NewTransaction(nonce, c.token, big.NewInt(0), transferGasLimit, gasPrice, data)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(big.NewInt(c.cfg.ChainID)), c.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := c.backend.SendTransaction(ctx, signed); err != nil {
		return "", err
	}
	return signed.Hash().Hex(), nil
}

// classify wraps broadcast errors whose message marks a rejection the
// node will repeat on every resubmission.
func classify(err error) error {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"insufficient funds",
		"execution reverted",
		"exceeds allowance",
		"intrinsic gas too low",
	} {
		if strings.Contains(msg, marker) {
			return &DefinitiveError{Reason: marker, Err: err}
		}
	}
	return err
}

func toBaseUnits(amount decimal.Decimal, decimals int) *big.Int {
	return amount.Shift(int32(decimals)).Truncate(0).BigInt()
}

func fromBaseUnits(value *big.Int, decimals int) decimal.Decimal {
	return decimal.NewFromBigInt(value, 0).Shift(-int32(decimals))
}
