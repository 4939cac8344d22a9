package userstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/LilFatFrank/scratch-off/pkg/user"
)

type pgStore struct {
	db *bun.DB
}

// NewStore creates a new postgres implementation of the user store
func NewStore(db *bun.DB) *pgStore {
	return &pgStore{db: db}
}

func (s *pgStore) CreateUser(ctx context.Context, usr *user.User) error {
	dao := toUserDao(usr)

	_, err := s.db.NewInsert().
		Model(dao).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (s *pgStore) GetUser(ctx context.Context, opts ...QueryOption) (*user.User, error) {
	options := &QueryOptions{}
	for _, opt := range opts {
		opt(options)
	}

	dao := new(UserDao)
	query := s.db.NewSelect().Model(dao)

	if options.Wallet != nil {
		query = query.Where("lower(wallet) = lower(?)", *options.Wallet)
	}
	if options.FID != nil {
		query = query.Where("fid = ?", *options.FID)
	}

	err := query.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return toUser(dao), nil
}

func (s *pgStore) UserExists(ctx context.Context, wallet string) (bool, error) {
	exists, err := s.db.NewSelect().
		Model((*UserDao)(nil)).
		Where("lower(wallet) = lower(?)", wallet).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check user exists: %w", err)
	}
	return exists, nil
}

func (s *pgStore) UpdateProfile(ctx context.Context, wallet string, fid int64, username, pfp string) error {
	q := s.db.NewUpdate().
		Model((*UserDao)(nil)).
		Set("updated_at = NOW()").
		Where("lower(wallet) = lower(?)", wallet)

	if fid != 0 {
		q = q.Set("fid = ?", fid)
	}
	if username != "" {
		q = q.Set("username = ?", username)
	}
	if pfp != "" {
		q = q.Set("pfp = ?", pfp)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return requireRow(res)
}

func (s *pgStore) AddCards(ctx context.Context, wallet string, n int) error {
	res, err := s.db.NewUpdate().
		Model((*UserDao)(nil)).
		Set("cards_count = cards_count + ?", n).
		Set("updated_at = NOW()").
		Where("lower(wallet) = lower(?)", wallet).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to add cards: %w", err)
	}
	return requireRow(res)
}

func (s *pgStore) RecordScratch(ctx context.Context, wallet string, winnings decimal.Decimal, won bool) error {
	q := s.db.NewUpdate().
		Model((*UserDao)(nil)).
		Set("cards_scratched = cards_scratched + 1").
		Set("total_winnings = total_winnings + ?", winnings).
		Set("updated_at = NOW()").
		Where("lower(wallet) = lower(?)", wallet)
	if won {
		q = q.Set("total_wins = total_wins + 1")
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to record scratch: %w", err)
	}
	return requireRow(res)
}

func (s *pgStore) SetProgression(ctx context.Context, wallet string, fromLevel, fromRemaining, toLevel, toRemaining int) (bool, error) {
	res, err := s.db.NewUpdate().
		Model((*UserDao)(nil)).
		Set("current_level = ?", toLevel).
		Set("reveals_to_next_level = ?", toRemaining).
		Set("updated_at = NOW()").
		Where("lower(wallet) = lower(?)", wallet).
		Where("current_level = ?", fromLevel).
		Where("reveals_to_next_level = ?", fromRemaining).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to set progression: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return rows > 0, nil
}

func (s *pgStore) Leaderboard(ctx context.Context, limit int) ([]*user.User, error) {
	var daos []UserDao
	err := s.db.NewSelect().
		Model(&daos).
		Order("total_winnings DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	users := make([]*user.User, len(daos))
	for i := range daos {
		users[i] = toUser(&daos[i])
	}
	return users, nil
}

func requireRow(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}
