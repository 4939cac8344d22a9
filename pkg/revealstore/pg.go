package revealstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/LilFatFrank/scratch-off/pkg/reveal"
)

// statsRowID is the id of the single aggregate row.
const statsRowID = 1

type pgStore struct {
	db *bun.DB
}

// NewStore creates a new postgres implementation of the reveal store
func NewStore(db *bun.DB) *pgStore {
	return &pgStore{db: db}
}

func (s *pgStore) AddReveal(ctx context.Context, r *reveal.Reveal) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	dao := toRevealDao(r)

	_, err := s.db.NewInsert().
		Model(dao).
		Returning("created_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to add reveal: %w", err)
	}
	r.CreatedAt = dao.CreatedAt
	return nil
}

func (s *pgStore) SetPayoutTx(ctx context.Context, id, payoutTx string) error {
	_, err := s.db.NewUpdate().
		Model((*RevealDao)(nil)).
		Set("payout_tx = ?", payoutTx).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set reveal payout: %w", err)
	}
	return nil
}

func (s *pgStore) ListReveals(ctx context.Context, limit int) ([]*reveal.Reveal, error) {
	var daos []RevealDao
	err := s.db.NewSelect().
		Model(&daos).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reveals: %w", err)
	}

	reveals := make([]*reveal.Reveal, len(daos))
	for i := range daos {
		reveals[i] = toReveal(&daos[i])
	}
	return reveals, nil
}

func (s *pgStore) BumpStats(ctx context.Context, delta StatsDelta) error {
	winnings := delta.Winnings
	paidOut := delta.PaidOut

	dao := &StatsDao{
		ID:             statsRowID,
		TotalCards:     delta.Cards,
		TotalScratched: delta.Scratched,
		TotalWinnings:  winnings,
		TotalPaidOut:   paidOut,
	}

	_, err := s.db.NewInsert().
		Model(dao).
		On("CONFLICT (id) DO UPDATE").
		Set("total_cards = s.total_cards + EXCLUDED.total_cards").
		Set("total_scratched = s.total_scratched + EXCLUDED.total_scratched").
		Set("total_winnings = s.total_winnings + EXCLUDED.total_winnings").
		Set("total_paid_out = s.total_paid_out + EXCLUDED.total_paid_out").
		Set("updated_at = NOW()").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to bump stats: %w", err)
	}
	return nil
}

func (s *pgStore) GetStats(ctx context.Context) (*reveal.Stats, error) {
	dao := new(StatsDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("id = ?", statsRowID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &reveal.Stats{}, nil
		}
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	return &reveal.Stats{
		TotalCards:     dao.TotalCards,
		TotalScratched: dao.TotalScratched,
		TotalWinnings:  dao.TotalWinnings,
		TotalPaidOut:   dao.TotalPaidOut,
		UpdatedAt:      dao.UpdatedAt,
	}, nil
}
