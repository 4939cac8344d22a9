package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/LilFatFrank/scratch-off/pkg/reveal"
	"github.com/LilFatFrank/scratch-off/pkg/user"
)

const serviceName = "UserService"

// logService wraps Service with automatic logging of all method calls
type logService struct {
	svc    Service
	logger *zap.Logger
}

// NewLog creates a logging decorator for the user Service.
func NewLog(svc Service, logger *zap.Logger) Service {
	return &logService{
		svc:    svc,
		logger: logger,
	}
}

func (ls *logService) Login(ctx context.Context, req *user.LoginRequest) (resp *user.LoginResponse, err error) {
	start := time.Now()

	defer func() {
		duration := time.Since(start)
		if err != nil {
			ls.logger.Warn("Login failed",
				zap.String("service", serviceName),
				zap.String("method", "Login"),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("Login completed",
				zap.String("service", serviceName),
				zap.String("method", "Login"),
				zap.String("wallet", resp.Wallet),
				zap.Duration("duration", duration),
			)
		}
	}()

	return ls.svc.Login(ctx, req)
}

func (ls *logService) CheckOrCreate(ctx context.Context, req *user.CheckOrCreateRequest) (resp *user.Response, err error) {
	start := time.Now()

	defer func() {
		duration := time.Since(start)
		if err != nil {
			ls.logger.Error("CheckOrCreate failed",
				zap.String("service", serviceName),
				zap.String("method", "CheckOrCreate"),
				zap.String("wallet", req.Wallet),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("CheckOrCreate completed",
				zap.String("service", serviceName),
				zap.String("method", "CheckOrCreate"),
				zap.String("wallet", resp.Wallet),
				zap.Bool("created", resp.Created),
				zap.Duration("duration", duration),
			)
		}
	}()

	return ls.svc.CheckOrCreate(ctx, req)
}

func (ls *logService) GetUser(ctx context.Context, wallet string) (*user.Response, error) {
	return ls.svc.GetUser(ctx, wallet)
}

func (ls *logService) Leaderboard(ctx context.Context, limit int) ([]user.Response, error) {
	return ls.svc.Leaderboard(ctx, limit)
}

func (ls *logService) Reveals(ctx context.Context, limit int) ([]reveal.Response, error) {
	return ls.svc.Reveals(ctx, limit)
}

func (ls *logService) Stats(ctx context.Context) (*reveal.StatsResponse, error) {
	return ls.svc.Stats(ctx)
}
