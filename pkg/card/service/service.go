package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/LilFatFrank/scratch-off/internal/metrics"
	apperrors "github.com/LilFatFrank/scratch-off/pkg/app/errors"
	"github.com/LilFatFrank/scratch-off/pkg/card"
	"github.com/LilFatFrank/scratch-off/pkg/cardstore"
	"github.com/LilFatFrank/scratch-off/pkg/config"
	"github.com/LilFatFrank/scratch-off/pkg/friendgraph"
	"github.com/LilFatFrank/scratch-off/pkg/grid"
	"github.com/LilFatFrank/scratch-off/pkg/level"
	"github.com/LilFatFrank/scratch-off/pkg/payments"
	"github.com/LilFatFrank/scratch-off/pkg/prize"
	"github.com/LilFatFrank/scratch-off/pkg/reveal"
	"github.com/LilFatFrank/scratch-off/pkg/revealstore"
	"github.com/LilFatFrank/scratch-off/pkg/user"
	"github.com/LilFatFrank/scratch-off/pkg/userstore"
)

// progressionRetries bounds the optimistic level-counter update loop when
// concurrent reveals race on the same user.
const progressionRetries = 3

var (
	ErrPaymentVerificationFailed = errors.New("payment verification failed")
	ErrCardNotFound              = errors.New("card not found")
	ErrCardAlreadyScratched      = errors.New("card already scratched")
	ErrFriendDataMissing         = errors.New("friend data missing from card")
)

// CardStore is the narrow card persistence interface the service needs.
type CardStore interface {
	CreateCards(ctx context.Context, wallet string, cards []*card.Card) error
	GetCard(ctx context.Context, id int64) (*card.Card, error)
	ListCards(ctx context.Context, opts ...cardstore.QueryOption) ([]*card.Card, error)
	MarkScratched(ctx context.Context, id int64) error
	SetPayout(ctx context.Context, id int64, payoutTx string, claimed bool) error
}

// UserStore is the narrow player persistence interface the service needs.
type UserStore interface {
	CreateUser(ctx context.Context, usr *user.User) error
	GetUser(ctx context.Context, opts ...userstore.QueryOption) (*user.User, error)
	UpdateProfile(ctx context.Context, wallet string, fid int64, username, pfp string) error
	AddCards(ctx context.Context, wallet string, n int) error
	RecordScratch(ctx context.Context, wallet string, winnings decimal.Decimal, won bool) error
	SetProgression(ctx context.Context, wallet string, fromLevel, fromRemaining, toLevel, toRemaining int) (bool, error)
}

// RevealStore is the audit/stats interface the service needs.
type RevealStore interface {
	AddReveal(ctx context.Context, r *reveal.Reveal) error
	SetPayoutTx(ctx context.Context, id, payoutTx string) error
	BumpStats(ctx context.Context, delta revealstore.StatsDelta) error
}

// Service defines the card purchase and settlement business logic.
type Service interface {
	// BuyCards verifies the payment and mints req.Count cards for the
	// wallet.
	BuyCards(ctx context.Context, wallet string, req *card.BuyRequest) (*card.BuyResponse, error)
	// GrantCards mints count free cards, stamped with the given payment
	// reference sentinel.
	GrantCards(ctx context.Context, wallet string, count int, paymentRef string) ([]*card.Card, error)
	// ListCards returns the wallet's cards, optionally filtered by
	// scratch state.
	ListCards(ctx context.Context, wallet string, scratched *bool, limit, offset int) ([]card.Response, error)
	// GetCard returns one card owned by the wallet.
	GetCard(ctx context.Context, wallet string, id int64) (*card.Response, error)
	// ProcessPrize settles a card: marks it scratched, applies stats and
	// level progression, and triggers the outcome's side effects.
	ProcessPrize(ctx context.Context, wallet string, req *card.ProcessPrizeRequest) (*card.ProcessPrizeResponse, error)
}

// Params carries the game tuning the service needs, parsed from config.
type Params struct {
	UnitPrice           decimal.Decimal
	PrizeAsset          string
	DecoyAmounts        []decimal.Decimal
	DecoyAssets         []string
	LevelPolicy         level.Policy
	FriendPoolSize      int
	MaxCardsPerPurchase int
}

// NewParams parses game settings from config.
func NewParams(game *config.GameConfig, chain *config.ChainConfig) (Params, error) {
	price, err := decimal.NewFromString(game.UnitPrice)
	if err != nil {
		return Params{}, fmt.Errorf("invalid unit price %q: %w", game.UnitPrice, err)
	}

	amounts := make([]decimal.Decimal, len(game.DecoyAmounts))
	for i, raw := range game.DecoyAmounts {
		amounts[i], err = decimal.NewFromString(raw)
		if err != nil {
			return Params{}, fmt.Errorf("invalid decoy amount %q: %w", raw, err)
		}
	}

	policy, err := level.ParsePolicy(game.LevelPolicy)
	if err != nil {
		return Params{}, err
	}

	return Params{
		UnitPrice:           price,
		PrizeAsset:          chain.USDCContract,
		DecoyAmounts:        amounts,
		DecoyAssets:         game.DecoyAssets,
		LevelPolicy:         policy,
		FriendPoolSize:      game.FriendPoolSize,
		MaxCardsPerPurchase: game.MaxCardsPerPurchase,
	}, nil
}

type cardService struct {
	cards       CardStore
	users       UserStore
	reveals     RevealStore
	drawer      prize.Drawer
	grids       *grid.Generator
	friends     friendgraph.Source
	verifier    payments.Verifier
	broadcaster payments.Broadcaster
	params      Params
	logger      *zap.Logger
}

// NewService creates a new card service
func NewService(
	cards CardStore,
	users UserStore,
	reveals RevealStore,
	drawer prize.Drawer,
	grids *grid.Generator,
	friends friendgraph.Source,
	verifier payments.Verifier,
	broadcaster payments.Broadcaster,
	params Params,
	logger *zap.Logger,
) Service {
	return &cardService{
		cards:       cards,
		users:       users,
		reveals:     reveals,
		drawer:      drawer,
		grids:       grids,
		friends:     friends,
		verifier:    verifier,
		broadcaster: broadcaster,
		params:      params,
		logger:      logger,
	}
}

func (s *cardService) BuyCards(ctx context.Context, wallet string, req *card.BuyRequest) (*card.BuyResponse, error) {
	if req.Count < 1 || req.Count > s.params.MaxCardsPerPurchase {
		return nil, apperrors.BadRequestError(nil,
			fmt.Sprintf("count must be between 1 and %d", s.params.MaxCardsPerPurchase))
	}
	if req.PaymentTx == "" {
		return nil, apperrors.BadRequestError(nil, "payment transaction required")
	}

	total := s.params.UnitPrice.Mul(decimal.NewFromInt(int64(req.Count)))
	if err := s.verifier.VerifyPayment(ctx, req.PaymentTx, wallet, total); err != nil {
		s.logger.Warn("payment verification failed",
			zap.String("wallet", wallet),
			zap.String("payment_tx", req.PaymentTx),
			zap.Error(err))
		return nil, apperrors.BadRequestError(ErrPaymentVerificationFailed, "payment verification failed")
	}

	usr, err := s.checkOrCreateUser(ctx, wallet)
	if err != nil {
		return nil, err
	}

	cards, err := s.mintCards(ctx, usr, req.Count, req.PaymentTx)
	if err != nil {
		return nil, err
	}
	metrics.CardsCreated.WithLabelValues("purchase").Add(float64(len(cards)))

	resp := &card.BuyResponse{Cards: make([]card.Response, len(cards))}
	for i, c := range cards {
		resp.Cards[i] = card.ToResponse(c)
	}
	if len(cards) > 0 {
		resp.StartCardNo = cards[0].CardNo
		resp.EndCardNo = cards[len(cards)-1].CardNo
	}
	return resp, nil
}

func (s *cardService) GrantCards(ctx context.Context, wallet string, count int, paymentRef string) ([]*card.Card, error) {
	if count < 1 {
		return nil, apperrors.BadRequestError(nil, "count must be positive")
	}

	usr, err := s.checkOrCreateUser(ctx, wallet)
	if err != nil {
		return nil, err
	}

	cards, err := s.mintCards(ctx, usr, count, paymentRef)
	if err != nil {
		return nil, err
	}
	metrics.CardsCreated.WithLabelValues(grantSource(paymentRef)).Add(float64(len(cards)))
	return cards, nil
}

func (s *cardService) ListCards(ctx context.Context, wallet string, scratched *bool, limit, offset int) ([]card.Response, error) {
	opts := []cardstore.QueryOption{cardstore.WithWallet(wallet)}
	if scratched != nil {
		opts = append(opts, cardstore.WithScratched(*scratched))
	}
	if limit > 0 {
		opts = append(opts, cardstore.WithLimit(limit))
	}
	if offset > 0 {
		opts = append(opts, cardstore.WithOffset(offset))
	}

	cards, err := s.cards.ListCards(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}

	resp := make([]card.Response, len(cards))
	for i, c := range cards {
		resp[i] = card.ToResponse(c)
	}
	return resp, nil
}

func (s *cardService) GetCard(ctx context.Context, wallet string, id int64) (*card.Response, error) {
	c, err := s.ownedCard(ctx, wallet, id)
	if err != nil {
		return nil, err
	}
	resp := card.ToResponse(c)
	return &resp, nil
}

// ProcessPrize runs the settlement protocol. The conditional scratch
// update is the idempotence guard: whichever request flips it proceeds,
// every other request for the same card fails with a conflict.
func (s *cardService) ProcessPrize(ctx context.Context, wallet string, req *card.ProcessPrizeRequest) (*card.ProcessPrizeResponse, error) {
	c, err := s.ownedCard(ctx, wallet, req.CardID)
	if err != nil {
		return nil, err
	}

	if err := s.cards.MarkScratched(ctx, c.ID); err != nil {
		switch {
		case errors.Is(err, cardstore.ErrAlreadyScratched):
			return nil, apperrors.ConflictError(ErrCardAlreadyScratched, "card already scratched")
		case errors.Is(err, cardstore.ErrCardNotFound):
			return nil, apperrors.ResourceNotFoundError(ErrCardNotFound, "card not found")
		default:
			return nil, fmt.Errorf("failed to mark card scratched: %w", err)
		}
	}

	outcome := outcomeOf(c)
	winnings := outcome.WinningsContribution()

	if err := s.users.RecordScratch(ctx, wallet, winnings, outcome.IsWin()); err != nil {
		return nil, fmt.Errorf("failed to record scratch: %w", err)
	}
	if err := s.reveals.BumpStats(ctx, revealstore.StatsDelta{
		Scratched: 1,
		Winnings:  winnings,
		PaidOut:   decimal.Zero,
	}); err != nil {
		s.logger.Warn("failed to bump global stats", zap.Error(err))
	}
	metrics.Reveals.WithLabelValues(outcomeLabel(outcome)).Inc()

	// One audit record per settlement, win or lose.
	entry := s.addRevealEntry(ctx, c, wallet, outcome)

	resp := &card.ProcessPrizeResponse{
		Outcome: outcomeLabel(outcome),
		Amount:  winnings,
	}

	progression, err := s.advanceProgression(ctx, wallet, outcome)
	if err != nil {
		s.logger.Warn("failed to advance level progression",
			zap.String("wallet", wallet),
			zap.Error(err))
	} else if progression.LeveledUp {
		resp.LeveledUp = true
		resp.NewLevel = progression.Level
		resp.BonusCards = progression.BonusCards
		if _, err := s.GrantCards(ctx, wallet, progression.BonusCards, card.PaymentRefLevelUp); err != nil {
			s.logger.Error("failed to grant level-up cards",
				zap.String("wallet", wallet),
				zap.Int("count", progression.BonusCards),
				zap.Error(err))
		}
	}

	switch {
	case outcome.IsWin():
		s.settleWin(ctx, c, wallet, entry, resp)
	case outcome.IsFriendWin():
		if err := s.settleFriendWin(ctx, c, wallet, resp); err != nil {
			return nil, err
		}
		resp.Message = "You won a scratch card for a friend!"
	default:
		// A lost card still completes settlement.
		if err := s.cards.SetPayout(ctx, c.ID, "", true); err != nil {
			s.logger.Error("failed to mark card claimed", zap.Int64("card_id", c.ID), zap.Error(err))
		}
		resp.Message = "Better luck next time!"
	}

	return resp, nil
}

// settleWin pays the prize out and stamps the payout tx on the card and
// its reveal record. A payout failure does not fail settlement: the card
// is claimed with no payout tx, which is the marker reconciliation looks
// for.
func (s *cardService) settleWin(ctx context.Context, c *card.Card, wallet string, entry *reveal.Reveal, resp *card.ProcessPrizeResponse) {
	payoutTx, err := s.broadcaster.Transfer(ctx, wallet, c.PrizeAmount)
	if err != nil {
		s.logger.Error("prize payout failed",
			zap.Int64("card_id", c.ID),
			zap.String("wallet", wallet),
			zap.String("amount", c.PrizeAmount.String()),
			zap.Error(err))
		metrics.Payouts.WithLabelValues("failed").Inc()
		metrics.PendingPayouts.Inc()
		if err := s.cards.SetPayout(ctx, c.ID, "", true); err != nil {
			s.logger.Error("failed to mark card claimed", zap.Int64("card_id", c.ID), zap.Error(err))
		}
		resp.PaymentError = "prize payout failed, it will be retried"
		resp.Message = fmt.Sprintf("You won %s USDC! Payment processing failed.", c.PrizeAmount)
		return
	}

	if err := s.cards.SetPayout(ctx, c.ID, payoutTx, true); err != nil {
		s.logger.Error("failed to record payout", zap.Int64("card_id", c.ID), zap.Error(err))
	}
	if entry != nil && entry.ID != "" {
		if err := s.reveals.SetPayoutTx(ctx, entry.ID, payoutTx); err != nil {
			s.logger.Warn("failed to record payout on reveal", zap.Error(err))
		}
	}
	if err := s.reveals.BumpStats(ctx, revealstore.StatsDelta{
		Winnings: decimal.Zero,
		PaidOut:  c.PrizeAmount,
	}); err != nil {
		s.logger.Warn("failed to bump paid-out stats", zap.Error(err))
	}
	metrics.Payouts.WithLabelValues("sent").Inc()
	metrics.PayoutAmount.Observe(c.PrizeAmount.InexactFloat64())
	resp.PayoutTx = payoutTx
	resp.Message = fmt.Sprintf("Congratulations! You won %s USDC!", c.PrizeAmount)
}

// settleFriendWin gifts a card to the friend designated on the card.
func (s *cardService) settleFriendWin(ctx context.Context, c *card.Card, wallet string, resp *card.ProcessPrizeResponse) error {
	friendWallet := friendRecipient(c)
	friendCell := card.FriendRow(c.Cells)
	if friendWallet == "" {
		// A friend-win card without a recipient is a generation
		// invariant violation, not a caller mistake.
		return apperrors.GeneralError(ErrFriendDataMissing)
	}

	friend, err := s.checkOrCreateUser(ctx, friendWallet)
	if err != nil {
		return fmt.Errorf("failed to resolve friend user: %w", err)
	}
	if friend.Username == "" && friendCell != nil && friendCell.FriendName != "" {
		// Hydrate a freshly created friend row with the identity
		// already on the card.
		if err := s.users.UpdateProfile(ctx, friendWallet, friendCell.FriendFID, friendCell.FriendName, friendCell.FriendPFP); err != nil {
			s.logger.Debug("failed to hydrate friend profile", zap.Error(err))
		}
	}

	if _, err := s.GrantCards(ctx, friendWallet, 1, card.PaymentRefShared); err != nil {
		return fmt.Errorf("failed to grant shared card: %w", err)
	}

	if err := s.cards.SetPayout(ctx, c.ID, "", true); err != nil {
		s.logger.Error("failed to mark friend win claimed", zap.Int64("card_id", c.ID), zap.Error(err))
	}
	resp.SharedTo = friendWallet
	return nil
}

// advanceProgression applies one reveal to the user's level counters with
// a bounded optimistic retry against concurrent reveals.
func (s *cardService) advanceProgression(ctx context.Context, wallet string, outcome prize.Outcome) (level.Result, error) {
	for attempt := 0; attempt < progressionRetries; attempt++ {
		usr, err := s.users.GetUser(ctx, userstore.WithWallet(wallet))
		if err != nil {
			return level.Result{}, err
		}

		result := level.Advance(usr.CurrentLevel, usr.RevealsToNextLevel, outcome, s.params.LevelPolicy)
		if result.Level == usr.CurrentLevel && result.Remaining == usr.RevealsToNextLevel {
			return result, nil
		}

		applied, err := s.users.SetProgression(ctx, wallet,
			usr.CurrentLevel, usr.RevealsToNextLevel,
			result.Level, result.Remaining)
		if err != nil {
			return level.Result{}, err
		}
		if applied {
			return result, nil
		}
	}
	return level.Result{}, fmt.Errorf("progression update lost %d races", progressionRetries)
}

// mintCards draws outcomes and grids for count new cards and persists
// them. The friend pool is fetched once, only when a friend win occurs.
func (s *cardService) mintCards(ctx context.Context, usr *user.User, count int, paymentRef string) ([]*card.Card, error) {
	var friendPool []card.Friend
	friendPoolLoaded := false

	cards := make([]*card.Card, 0, count)
	for i := 0; i < count; i++ {
		outcome := s.drawer.Draw()

		if outcome.IsFriendWin() && !friendPoolLoaded {
			friendPool = s.loadFriendPool(ctx, usr)
			friendPoolLoaded = true
		}

		result, err := s.grids.Generate(outcome, grid.Params{
			PrizeAsset:   s.params.PrizeAsset,
			DecoyAmounts: s.params.DecoyAmounts,
			DecoyAssets:  s.params.DecoyAssets,
			Friends:      friendPool,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to generate grid: %w", err)
		}

		c := &card.Card{
			PaymentTx:   paymentRef,
			PrizeAmount: outcome.Amount,
			Cells:       result.Cells,
			SharedTo:    result.SharedTo,
		}
		if outcome.IsWin() {
			c.PrizeContract = s.params.PrizeAsset
		}
		cards = append(cards, c)
	}

	if err := s.cards.CreateCards(ctx, usr.Wallet, cards); err != nil {
		return nil, fmt.Errorf("failed to create cards: %w", err)
	}

	// The card rows are the source of truth; the counters are display
	// caches and failures here must not undo the mint.
	if err := s.users.AddCards(ctx, usr.Wallet, len(cards)); err != nil {
		s.logger.Warn("failed to bump cards_count",
			zap.String("wallet", usr.Wallet),
			zap.Error(err))
	}
	if err := s.reveals.BumpStats(ctx, revealstore.StatsDelta{
		Cards:    int64(len(cards)),
		Winnings: decimal.Zero,
		PaidOut:  decimal.Zero,
	}); err != nil {
		s.logger.Warn("failed to bump card stats", zap.Error(err))
	}

	return cards, nil
}

func (s *cardService) loadFriendPool(ctx context.Context, usr *user.User) []card.Friend {
	if usr.FID == 0 {
		return nil
	}
	pool, err := s.friends.BestFriends(ctx, usr.FID, s.params.FriendPoolSize)
	if err != nil {
		s.logger.Warn("failed to load friend pool, friend wins degrade to placeholder",
			zap.Int64("fid", usr.FID),
			zap.Error(err))
		return nil
	}
	return pool
}

func (s *cardService) checkOrCreateUser(ctx context.Context, wallet string) (*user.User, error) {
	usr, err := s.users.GetUser(ctx, userstore.WithWallet(wallet))
	if err == nil {
		return usr, nil
	}
	if !errors.Is(err, userstore.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	usr = user.New(wallet)
	if err := s.users.CreateUser(ctx, usr); err != nil {
		// A concurrent request may have created the row.
		if existing, getErr := s.users.GetUser(ctx, userstore.WithWallet(wallet)); getErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return usr, nil
}

func (s *cardService) ownedCard(ctx context.Context, wallet string, id int64) (*card.Card, error) {
	c, err := s.cards.GetCard(ctx, id)
	if err != nil {
		if errors.Is(err, cardstore.ErrCardNotFound) {
			return nil, apperrors.ResourceNotFoundError(ErrCardNotFound, "card not found")
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	if !equalWallet(c.UserWallet, wallet) {
		// Do not leak other users' card ids.
		return nil, apperrors.ResourceNotFoundError(ErrCardNotFound, "card not found")
	}
	return c, nil
}

// addRevealEntry writes the settlement audit record. The payout tx is
// left empty here and stamped by settleWin once the broadcast succeeds.
func (s *cardService) addRevealEntry(ctx context.Context, c *card.Card, wallet string, outcome prize.Outcome) *reveal.Reveal {
	entry := &reveal.Reveal{
		CardID:    c.ID,
		Wallet:    wallet,
		Amount:    outcome.WinningsContribution(),
		Asset:     c.PrizeContract,
		PaymentTx: c.PaymentTx,
		Won:       outcome.IsWin(),
	}
	if outcome.IsFriendWin() {
		entry.SharedTo = friendRecipient(c)
	}
	if usr, err := s.users.GetUser(ctx, userstore.WithWallet(wallet)); err == nil {
		entry.Username = usr.Username
		entry.PFP = usr.PFP
	}
	if err := s.reveals.AddReveal(ctx, entry); err != nil {
		s.logger.Warn("failed to add reveal entry", zap.Error(err))
	}
	return entry
}

// friendRecipient resolves the wallet a friend-win card designates,
// preferring the card column over the friend cell.
func friendRecipient(c *card.Card) string {
	if c.SharedTo != "" {
		return c.SharedTo
	}
	if cell := card.FriendRow(c.Cells); cell != nil {
		return cell.FriendWallet
	}
	return ""
}

func outcomeOf(c *card.Card) prize.Outcome {
	switch {
	case c.PrizeAmount.Sign() > 0:
		return prize.Win(c.PrizeAmount)
	case c.PrizeAmount.Equal(decimal.NewFromInt(-1)):
		return prize.FriendWin()
	default:
		return prize.Lose()
	}
}

func outcomeLabel(o prize.Outcome) string {
	switch {
	case o.IsWin():
		return card.OutcomeWin
	case o.IsFriendWin():
		return card.OutcomeFriendWin
	default:
		return card.OutcomeLose
	}
}

func grantSource(paymentRef string) string {
	switch paymentRef {
	case card.PaymentRefLevelUp:
		return "level_up"
	case card.PaymentRefShared:
		return "shared"
	case card.PaymentRefBulk:
		return "bulk"
	default:
		return "grant"
	}
}

func equalWallet(a, b string) bool {
	return strings.EqualFold(a, b)
}
