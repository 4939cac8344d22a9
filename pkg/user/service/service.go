package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	apperrors "github.com/LilFatFrank/scratch-off/pkg/app/errors"
	"github.com/LilFatFrank/scratch-off/pkg/auth"
	"github.com/LilFatFrank/scratch-off/pkg/reveal"
	"github.com/LilFatFrank/scratch-off/pkg/user"
	"github.com/LilFatFrank/scratch-off/pkg/userstore"
)

const (
	defaultLeaderboardLimit = 50
	maxLeaderboardLimit     = 200
	defaultRevealsLimit     = 50
	maxRevealsLimit         = 200
)

// Store is the narrow player persistence interface the service needs.
type Store interface {
	CreateUser(ctx context.Context, usr *user.User) error
	GetUser(ctx context.Context, opts ...userstore.QueryOption) (*user.User, error)
	UpdateProfile(ctx context.Context, wallet string, fid int64, username, pfp string) error
	Leaderboard(ctx context.Context, limit int) ([]*user.User, error)
}

// FeedStore is the reveal feed interface the service needs.
type FeedStore interface {
	ListReveals(ctx context.Context, limit int) ([]*reveal.Reveal, error)
	GetStats(ctx context.Context) (*reveal.Stats, error)
}

// Service defines the player-facing account and feed business logic.
type Service interface {
	// Login verifies an EIP-191 signature and mints a session token for
	// the recovered wallet.
	Login(ctx context.Context, req *user.LoginRequest) (*user.LoginResponse, error)
	// CheckOrCreate fetches the wallet's player row, creating it when
	// absent. A provided social profile refreshes the stored one.
	CheckOrCreate(ctx context.Context, req *user.CheckOrCreateRequest) (*user.Response, error)
	GetUser(ctx context.Context, wallet string) (*user.Response, error)
	Leaderboard(ctx context.Context, limit int) ([]user.Response, error)
	Reveals(ctx context.Context, limit int) ([]reveal.Response, error)
	Stats(ctx context.Context) (*reveal.StatsResponse, error)
}

type userService struct {
	store    Store
	feed     FeedStore
	sessions *auth.SessionIssuer
	logger   *zap.Logger
}

// NewService creates a new user service
func NewService(store Store, feed FeedStore, sessions *auth.SessionIssuer, logger *zap.Logger) Service {
	return &userService{
		store:    store,
		feed:     feed,
		sessions: sessions,
		logger:   logger,
	}
}

func (s *userService) Login(ctx context.Context, req *user.LoginRequest) (*user.LoginResponse, error) {
	if req.Message == "" || req.Signature == "" {
		return nil, apperrors.UnAuthorizedError(nil, "signature and message required")
	}

	addr, err := auth.VerifyEIP191Signature(req.Message, req.Signature)
	if err != nil {
		return nil, apperrors.UnAuthorizedError(err, "invalid signature")
	}
	wallet := auth.NormalizeAddress(addr.Hex())

	token, err := s.sessions.Issue(wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}

	s.logger.Info("wallet logged in", zap.String("wallet", wallet))
	return &user.LoginResponse{Token: token, Wallet: wallet}, nil
}

func (s *userService) CheckOrCreate(ctx context.Context, req *user.CheckOrCreateRequest) (*user.Response, error) {
	if !auth.ValidateEVMAddress(req.Wallet) {
		return nil, apperrors.BadRequestError(nil, "invalid wallet address")
	}
	wallet := auth.NormalizeAddress(req.Wallet)

	usr, err := s.store.GetUser(ctx, userstore.WithWallet(wallet))
	if err == nil {
		if req.FID != 0 || req.Username != "" || req.PFP != "" {
			if err := s.store.UpdateProfile(ctx, wallet, req.FID, req.Username, req.PFP); err != nil {
				s.logger.Warn("failed to refresh profile", zap.String("wallet", wallet), zap.Error(err))
			} else if refreshed, getErr := s.store.GetUser(ctx, userstore.WithWallet(wallet)); getErr == nil {
				usr = refreshed
			}
		}
		resp := user.ToResponse(usr, false)
		return &resp, nil
	}
	if !errors.Is(err, userstore.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	usr = user.New(wallet)
	usr.FID = req.FID
	usr.Username = req.Username
	usr.PFP = req.PFP
	if err := s.store.CreateUser(ctx, usr); err != nil {
		// A concurrent request may have created the row.
		if existing, getErr := s.store.GetUser(ctx, userstore.WithWallet(wallet)); getErr == nil {
			resp := user.ToResponse(existing, false)
			return &resp, nil
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	resp := user.ToResponse(usr, true)
	return &resp, nil
}

func (s *userService) GetUser(ctx context.Context, wallet string) (*user.Response, error) {
	if !auth.ValidateEVMAddress(wallet) {
		return nil, apperrors.BadRequestError(nil, "invalid wallet address")
	}

	usr, err := s.store.GetUser(ctx, userstore.WithWallet(wallet))
	if err != nil {
		if errors.Is(err, userstore.ErrUserNotFound) {
			return nil, apperrors.ResourceNotFoundError(err, "user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	resp := user.ToResponse(usr, false)
	return &resp, nil
}

func (s *userService) Leaderboard(ctx context.Context, limit int) ([]user.Response, error) {
	limit = clampLimit(limit, defaultLeaderboardLimit, maxLeaderboardLimit)

	users, err := s.store.Leaderboard(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	out := make([]user.Response, len(users))
	for i, u := range users {
		out[i] = user.ToResponse(u, false)
	}
	return out, nil
}

func (s *userService) Reveals(ctx context.Context, limit int) ([]reveal.Response, error) {
	limit = clampLimit(limit, defaultRevealsLimit, maxRevealsLimit)

	reveals, err := s.feed.ListReveals(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reveals: %w", err)
	}

	out := make([]reveal.Response, len(reveals))
	for i, r := range reveals {
		out[i] = reveal.ToResponse(r)
	}
	return out, nil
}

func (s *userService) Stats(ctx context.Context) (*reveal.StatsResponse, error) {
	stats, err := s.feed.GetStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return &reveal.StatsResponse{
		TotalCards:     stats.TotalCards,
		TotalScratched: stats.TotalScratched,
		TotalWinnings:  stats.TotalWinnings,
		TotalPaidOut:   stats.TotalPaidOut,
	}, nil
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
