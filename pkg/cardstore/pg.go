package cardstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/LilFatFrank/scratch-off/pkg/card"
)

type pgStore struct {
	db *bun.DB
}

// NewStore creates a new postgres implementation of the card store
func NewStore(db *bun.DB) *pgStore {
	return &pgStore{db: db}
}

func (s *pgStore) CreateCards(ctx context.Context, wallet string, cards []*card.Card) error {
	if len(cards) == 0 {
		return nil
	}

	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var maxNo int
		err := tx.NewSelect().
			Model((*CardDao)(nil)).
			ColumnExpr("COALESCE(MAX(card_no), 0)").
			Where("lower(user_wallet) = lower(?)", wallet).
			Scan(ctx, &maxNo)
		if err != nil {
			return fmt.Errorf("failed to allocate card numbers: %w", err)
		}

		daos := make([]*CardDao, len(cards))
		for i, c := range cards {
			c.UserWallet = wallet
			c.CardNo = maxNo + i + 1
			daos[i] = toCardDao(c)
		}

		_, err = tx.NewInsert().
			Model(&daos).
			Returning("id, created_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert cards: %w", err)
		}

		for i, dao := range daos {
			cards[i].ID = dao.ID
			cards[i].CreatedAt = dao.CreatedAt
		}
		return nil
	})
}

func (s *pgStore) GetCard(ctx context.Context, id int64) (*card.Card, error) {
	dao := new(CardDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	return toCard(dao), nil
}

func (s *pgStore) ListCards(ctx context.Context, opts ...QueryOption) ([]*card.Card, error) {
	options := &QueryOptions{}
	for _, opt := range opts {
		opt(options)
	}

	var daos []CardDao
	query := s.db.NewSelect().Model(&daos)

	if options.Wallet != nil {
		query = query.Where("lower(user_wallet) = lower(?)", *options.Wallet)
	}
	if options.Scratched != nil {
		query = query.Where("scratched = ?", *options.Scratched)
	}
	query = query.Order("card_no ASC")
	if options.Limit > 0 {
		query = query.Limit(options.Limit)
	}
	if options.Offset > 0 {
		query = query.Offset(options.Offset)
	}

	if err := query.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}

	cards := make([]*card.Card, len(daos))
	for i := range daos {
		cards[i] = toCard(&daos[i])
	}
	return cards, nil
}

func (s *pgStore) MarkScratched(ctx context.Context, id int64) error {
	res, err := s.db.NewUpdate().
		Model((*CardDao)(nil)).
		Set("scratched = TRUE").
		Set("scratched_at = NOW()").
		Where("id = ?", id).
		Where("scratched = FALSE").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to mark card scratched: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}

	// Zero rows means either the card is gone or it was scratched first.
	exists, err := s.db.NewSelect().
		Model((*CardDao)(nil)).
		Where("id = ?", id).
		Exists(ctx)
	if err != nil {
		return fmt.Errorf("failed to check card exists: %w", err)
	}
	if !exists {
		return ErrCardNotFound
	}
	return ErrAlreadyScratched
}

func (s *pgStore) SetPayout(ctx context.Context, id int64, payoutTx string, claimed bool) error {
	q := s.db.NewUpdate().
		Model((*CardDao)(nil)).
		Set("claimed = ?", claimed).
		Where("id = ?", id)
	if payoutTx != "" {
		q = q.Set("payout_tx = ?", payoutTx)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set payout: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return ErrCardNotFound
	}
	return nil
}
