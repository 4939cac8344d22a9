// Package api assembles the HTTP API server from its collaborators.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/LilFatFrank/scratch-off/internal/metrics"
	apphttp "github.com/LilFatFrank/scratch-off/pkg/app/http"
	"github.com/LilFatFrank/scratch-off/pkg/auth"
	cardservice "github.com/LilFatFrank/scratch-off/pkg/card/service"
	"github.com/LilFatFrank/scratch-off/pkg/cardstore"
	"github.com/LilFatFrank/scratch-off/pkg/config"
	"github.com/LilFatFrank/scratch-off/pkg/friendgraph"
	"github.com/LilFatFrank/scratch-off/pkg/grid"
	"github.com/LilFatFrank/scratch-off/pkg/keys"
	"github.com/LilFatFrank/scratch-off/pkg/payments"
	"github.com/LilFatFrank/scratch-off/pkg/pgutil"
	"github.com/LilFatFrank/scratch-off/pkg/prize"
	"github.com/LilFatFrank/scratch-off/pkg/revealstore"
	userservice "github.com/LilFatFrank/scratch-off/pkg/user/service"
	"github.com/LilFatFrank/scratch-off/pkg/userstore"
)

// Services bundles the wired business services for routing.
type Services struct {
	Cards    cardservice.Service
	Users    userservice.Service
	Sessions *auth.SessionIssuer
}

// NewRouter builds the chi router with middleware, public routes and the
// session-protected game routes.
func NewRouter(svcs Services, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestMetrics)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		userservice.RegisterPublicRoutes(api, svcs.Users, logger)

		api.Group(func(protected chi.Router) {
			protected.Use(auth.RequireSession(svcs.Sessions, logger))
			userservice.RegisterRoutes(protected, svcs.Users, logger)
			cardservice.RegisterRoutes(protected, svcs.Cards, logger)
		})
	})

	return r
}

// requestMetrics records per-route request counts by status code.
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(ww.Status())).Inc()
	})
}

// BuildServices wires stores, chain collaborators and business services
// from config. The returned closer releases the database and RPC
// connections.
func BuildServices(cfg *config.Config, logger *zap.Logger) (Services, func(), error) {
	db, err := pgutil.ConnectDB(&cfg.Database)
	if err != nil {
		return Services{}, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	eth, err := ethclient.Dial(cfg.Chain.RPCURL)
	if err != nil {
		db.Close()
		return Services{}, nil, fmt.Errorf("failed to dial chain rpc: %w", err)
	}

	payoutKey, err := keys.LoadPayoutKey(&cfg.Chain)
	if err != nil {
		eth.Close()
		db.Close()
		return Services{}, nil, fmt.Errorf("failed to load payout key: %w", err)
	}

	sessions, err := auth.NewSessionIssuer(&cfg.Auth)
	if err != nil {
		eth.Close()
		db.Close()
		return Services{}, nil, fmt.Errorf("failed to build session issuer: %w", err)
	}

	params, err := cardservice.NewParams(&cfg.Game, &cfg.Chain)
	if err != nil {
		eth.Close()
		db.Close()
		return Services{}, nil, fmt.Errorf("failed to build game params: %w", err)
	}

	chain := payments.NewClient(&cfg.Chain, eth, payoutKey, logger)
	friends := friendgraph.NewClient(&cfg.FriendGraph, logger)

	users := userstore.NewStore(db)
	cards := cardstore.NewStore(db)
	reveals := revealstore.NewStore(db)

	cardSvc := cardservice.NewLog(cardservice.NewService(
		cards,
		users,
		reveals,
		prize.New(),
		grid.New(),
		friends,
		chain,
		chain,
		params,
		logger,
	), logger)

	userSvc := userservice.NewLog(
		userservice.NewService(users, reveals, sessions, logger),
		logger,
	)

	closer := func() {
		eth.Close()
		db.Close()
	}
	return Services{Cards: cardSvc, Users: userSvc, Sessions: sessions}, closer, nil
}

// Run wires everything from config and serves until ctx is canceled.
func Run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	svcs, closer, err := BuildServices(cfg, logger)
	if err != nil {
		return err
	}
	defer closer()

	router := NewRouter(svcs, logger)
	return apphttp.ServeAndWait(ctx, router, logger, &cfg.Server)
}
