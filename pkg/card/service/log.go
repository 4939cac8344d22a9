package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/LilFatFrank/scratch-off/pkg/card"
)

const serviceName = "CardService"

// logService wraps Service with automatic logging of all method calls
type logService struct {
	svc    Service
	logger *zap.Logger
}

// NewLog creates a logging decorator for the card Service.
// It logs method entry/exit, duration and errors.
func NewLog(svc Service, logger *zap.Logger) Service {
	return &logService{
		svc:    svc,
		logger: logger,
	}
}

func (ls *logService) BuyCards(ctx context.Context, wallet string, req *card.BuyRequest) (resp *card.BuyResponse, err error) {
	start := time.Now()

	ls.logger.Info("BuyCards started",
		zap.String("service", serviceName),
		zap.String("method", "BuyCards"),
		zap.String("wallet", wallet),
		zap.Int("count", req.Count),
		zap.String("payment_tx", req.PaymentTx),
	)

	defer func() {
		duration := time.Since(start)
		if err != nil {
			ls.logger.Error("BuyCards failed",
				zap.String("service", serviceName),
				zap.String("method", "BuyCards"),
				zap.String("wallet", wallet),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("BuyCards completed",
				zap.String("service", serviceName),
				zap.String("method", "BuyCards"),
				zap.String("wallet", wallet),
				zap.Int("cards", len(resp.Cards)),
				zap.Duration("duration", duration),
			)
		}
	}()

	return ls.svc.BuyCards(ctx, wallet, req)
}

func (ls *logService) GrantCards(ctx context.Context, wallet string, count int, paymentRef string) (cards []*card.Card, err error) {
	start := time.Now()

	defer func() {
		duration := time.Since(start)
		if err != nil {
			ls.logger.Error("GrantCards failed",
				zap.String("service", serviceName),
				zap.String("method", "GrantCards"),
				zap.String("wallet", wallet),
				zap.Int("count", count),
				zap.String("payment_ref", paymentRef),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("GrantCards completed",
				zap.String("service", serviceName),
				zap.String("method", "GrantCards"),
				zap.String("wallet", wallet),
				zap.Int("count", count),
				zap.String("payment_ref", paymentRef),
				zap.Duration("duration", duration),
			)
		}
	}()

	return ls.svc.GrantCards(ctx, wallet, count, paymentRef)
}

func (ls *logService) ListCards(ctx context.Context, wallet string, scratched *bool, limit, offset int) ([]card.Response, error) {
	return ls.svc.ListCards(ctx, wallet, scratched, limit, offset)
}

func (ls *logService) GetCard(ctx context.Context, wallet string, id int64) (*card.Response, error) {
	return ls.svc.GetCard(ctx, wallet, id)
}

func (ls *logService) ProcessPrize(ctx context.Context, wallet string, req *card.ProcessPrizeRequest) (resp *card.ProcessPrizeResponse, err error) {
	start := time.Now()

	ls.logger.Info("ProcessPrize started",
		zap.String("service", serviceName),
		zap.String("method", "ProcessPrize"),
		zap.String("wallet", wallet),
		zap.Int64("card_id", req.CardID),
	)

	defer func() {
		duration := time.Since(start)
		if err != nil {
			ls.logger.Error("ProcessPrize failed",
				zap.String("service", serviceName),
				zap.String("method", "ProcessPrize"),
				zap.String("wallet", wallet),
				zap.Int64("card_id", req.CardID),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("ProcessPrize completed",
				zap.String("service", serviceName),
				zap.String("method", "ProcessPrize"),
				zap.String("wallet", wallet),
				zap.Int64("card_id", req.CardID),
				zap.String("outcome", resp.Outcome),
				zap.String("amount", resp.Amount.String()),
				zap.Bool("leveled_up", resp.LeveledUp),
				zap.Duration("duration", duration),
			)
		}
	}()

	return ls.svc.ProcessPrize(ctx, wallet, req)
}
