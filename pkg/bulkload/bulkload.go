// Package bulkload imports player lists in fixed-size batches, creating
// missing accounts and granting each one a starter pack of free cards.
package bulkload

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/LilFatFrank/scratch-off/pkg/card"
	"github.com/LilFatFrank/scratch-off/pkg/user"
)

const (
	defaultBatchSize    = 10
	defaultBatchDelay   = 2 * time.Second
	defaultCardsPerUser = 2
)

// Entry is one player to import.
type Entry struct {
	Wallet   string `json:"wallet"`
	FID      int64  `json:"fid,omitempty"`
	Username string `json:"username,omitempty"`
	PFP      string `json:"pfp,omitempty"`
}

// Failure records one entry that could not be imported.
type Failure struct {
	Wallet string
	Err    error
}

// Summary aggregates the outcome of a run.
type Summary struct {
	Processed    int
	Created      int
	Existing     int
	CardsGranted int
	Failures     []Failure
}

// UserService is the account surface the processor needs.
type UserService interface {
	CheckOrCreate(ctx context.Context, req *user.CheckOrCreateRequest) (*user.Response, error)
}

// CardService is the card-granting surface the processor needs.
type CardService interface {
	GrantCards(ctx context.Context, wallet string, count int, paymentRef string) ([]*card.Card, error)
}

// Config tunes the batch shape. Zero values fall back to the defaults.
type Config struct {
	BatchSize    int
	BatchDelay   time.Duration
	CardsPerUser int
}

// Processor imports entries in batches, pausing between batches so the
// payment-free card grants do not hammer the database.
type Processor struct {
	users  UserService
	cards  CardService
	cfg    Config
	logger *zap.Logger
}

// New creates a batch processor.
func New(users UserService, cards CardService, cfg Config, logger *zap.Logger) *Processor {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.BatchDelay <= 0 {
		cfg.BatchDelay = defaultBatchDelay
	}
	if cfg.CardsPerUser <= 0 {
		cfg.CardsPerUser = defaultCardsPerUser
	}
	return &Processor{
		users:  users,
		cards:  cards,
		cfg:    cfg,
		logger: logger,
	}
}

// Run imports all entries. Entries inside a batch run concurrently;
// batches run back to back with the configured pause between them. A
// failed entry is recorded and skipped, it never aborts the run.
func (p *Processor) Run(ctx context.Context, entries []Entry) (*Summary, error) {
	summary := &Summary{}
	var mu sync.Mutex

	for start := 0; start < len(entries); start += p.cfg.BatchSize {
		end := start + p.cfg.BatchSize
		if end > len(entries) {
			end = len(entries)
		}
		batch := entries[start:end]

		p.logger.Info("processing batch",
			zap.Int("batch", start/p.cfg.BatchSize+1),
			zap.Int("size", len(batch)),
		)

		var wg sync.WaitGroup
		for _, entry := range batch {
			wg.Add(1)
			go func(entry Entry) {
				defer wg.Done()

				created, granted, err := p.importOne(ctx, entry)

				mu.Lock()
				defer mu.Unlock()
				summary.Processed++
				if err != nil {
					summary.Failures = append(summary.Failures, Failure{Wallet: entry.Wallet, Err: err})
					return
				}
				if created {
					summary.Created++
				} else {
					summary.Existing++
				}
				summary.CardsGranted += granted
			}(entry)
		}
		wg.Wait()

		if end < len(entries) {
			select {
			case <-ctx.Done():
				return summary, ctx.Err()
			case <-time.After(p.cfg.BatchDelay):
			}
		}
	}

	p.logger.Info("bulk import finished",
		zap.Int("processed", summary.Processed),
		zap.Int("created", summary.Created),
		zap.Int("existing", summary.Existing),
		zap.Int("cards_granted", summary.CardsGranted),
		zap.Int("failed", len(summary.Failures)),
	)
	return summary, nil
}

func (p *Processor) importOne(ctx context.Context, entry Entry) (created bool, granted int, err error) {
	resp, err := p.users.CheckOrCreate(ctx, &user.CheckOrCreateRequest{
		Wallet:   entry.Wallet,
		FID:      entry.FID,
		Username: entry.Username,
		PFP:      entry.PFP,
	})
	if err != nil {
		return false, 0, fmt.Errorf("failed to check or create user: %w", err)
	}

	cards, err := p.cards.GrantCards(ctx, resp.Wallet, p.cfg.CardsPerUser, card.PaymentRefBulk)
	if err != nil {
		return resp.Created, 0, fmt.Errorf("failed to grant cards: %w", err)
	}
	return resp.Created, len(cards), nil
}
