package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apperrors "github.com/LilFatFrank/scratch-off/pkg/app/errors"
	"github.com/LilFatFrank/scratch-off/pkg/auth"
	"github.com/LilFatFrank/scratch-off/pkg/reveal"
	"github.com/LilFatFrank/scratch-off/pkg/user"
)

// stubService lets handler tests script each method.
type stubService struct {
	login         func(ctx context.Context, req *user.LoginRequest) (*user.LoginResponse, error)
	checkOrCreate func(ctx context.Context, req *user.CheckOrCreateRequest) (*user.Response, error)
	getUser       func(ctx context.Context, wallet string) (*user.Response, error)
	leaderboard   func(ctx context.Context, limit int) ([]user.Response, error)
	reveals       func(ctx context.Context, limit int) ([]reveal.Response, error)
	stats         func(ctx context.Context) (*reveal.StatsResponse, error)
}

func (s *stubService) Login(ctx context.Context, req *user.LoginRequest) (*user.LoginResponse, error) {
	return s.login(ctx, req)
}

func (s *stubService) CheckOrCreate(ctx context.Context, req *user.CheckOrCreateRequest) (*user.Response, error) {
	return s.checkOrCreate(ctx, req)
}

func (s *stubService) GetUser(ctx context.Context, wallet string) (*user.Response, error) {
	return s.getUser(ctx, wallet)
}

func (s *stubService) Leaderboard(ctx context.Context, limit int) ([]user.Response, error) {
	return s.leaderboard(ctx, limit)
}

func (s *stubService) Reveals(ctx context.Context, limit int) ([]reveal.Response, error) {
	return s.reveals(ctx, limit)
}

func (s *stubService) Stats(ctx context.Context) (*reveal.StatsResponse, error) {
	return s.stats(ctx)
}

// withWallet injects an authenticated wallet, standing in for the session
// middleware.
func withWallet(wallet string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithWallet(r.Context(), wallet)))
		})
	}
}

func newUserTestServer(svc Service, wallet string) http.Handler {
	r := chi.NewRouter()
	RegisterPublicRoutes(r, svc, zap.NewNop())
	r.Group(func(pr chi.Router) {
		if wallet != "" {
			pr.Use(withWallet(wallet))
		}
		RegisterRoutes(pr, svc, zap.NewNop())
	})
	return r
}

func TestLoginHTTP_Success(t *testing.T) {
	svc := &stubService{
		login: func(_ context.Context, req *user.LoginRequest) (*user.LoginResponse, error) {
			if req.Message != "hello" || req.Signature != "0xsig" {
				t.Fatalf("unexpected request: %+v", req)
			}
			return &user.LoginResponse{Token: "tok", Wallet: testWallet}, nil
		},
	}
	handler := newUserTestServer(svc, "")

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"message":"hello","signature":"0xsig"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got user.LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.Token != "tok" || got.Wallet != testWallet {
		t.Fatalf("unexpected response: %+v", got)
	}
}

func TestLoginHTTP_InvalidJSON(t *testing.T) {
	handler := newUserTestServer(&stubService{}, "")

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString("{invalid"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestLoginHTTP_MissingFields(t *testing.T) {
	handler := newUserTestServer(&stubService{}, "")

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"message":"hi"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestCheckOrCreateHTTP_UsesSessionWallet(t *testing.T) {
	svc := &stubService{
		checkOrCreate: func(_ context.Context, req *user.CheckOrCreateRequest) (*user.Response, error) {
			if req.Wallet != testWallet {
				t.Fatalf("expected session wallet %s, got %s", testWallet, req.Wallet)
			}
			return &user.Response{Wallet: testWallet, Created: true}, nil
		},
	}
	handler := newUserTestServer(svc, testWallet)

	// The body wallet must be ignored in favor of the session.
	body := `{"wallet":"0x9999999999999999999999999999999999999999","username":"alice"}`
	req := httptest.NewRequest(http.MethodPost, "/users/check-or-create", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}
}

func TestCheckOrCreateHTTP_MissingAuth(t *testing.T) {
	handler := newUserTestServer(&stubService{}, "")

	req := httptest.NewRequest(http.MethodPost, "/users/check-or-create", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestGetUserHTTP_NotFound(t *testing.T) {
	svc := &stubService{
		getUser: func(_ context.Context, wallet string) (*user.Response, error) {
			return nil, apperrors.ResourceNotFoundError(nil, "user not found")
		},
	}
	handler := newUserTestServer(svc, "")

	req := httptest.NewRequest(http.MethodGet, "/users/"+testWallet, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestLeaderboardHTTP_PassesLimit(t *testing.T) {
	svc := &stubService{
		leaderboard: func(_ context.Context, limit int) ([]user.Response, error) {
			if limit != 25 {
				t.Fatalf("expected limit 25, got %d", limit)
			}
			return []user.Response{{Wallet: testWallet}}, nil
		},
	}
	handler := newUserTestServer(svc, "")

	req := httptest.NewRequest(http.MethodGet, "/leaderboard?limit=25", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var got struct {
		Users []user.Response `json:"users"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(got.Users) != 1 {
		t.Fatalf("unexpected response: %+v", got)
	}
}

func TestRevealsHTTP_Success(t *testing.T) {
	svc := &stubService{
		reveals: func(_ context.Context, limit int) ([]reveal.Response, error) {
			return []reveal.Response{{ID: "r1", Wallet: testWallet, Amount: decimal.NewFromInt(1)}}, nil
		},
	}
	handler := newUserTestServer(svc, "")

	req := httptest.NewRequest(http.MethodGet, "/reveals", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var got struct {
		Reveals []reveal.Response `json:"reveals"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(got.Reveals) != 1 || got.Reveals[0].ID != "r1" {
		t.Fatalf("unexpected response: %+v", got)
	}
}

func TestStatsHTTP_Success(t *testing.T) {
	svc := &stubService{
		stats: func(context.Context) (*reveal.StatsResponse, error) {
			return &reveal.StatsResponse{TotalCards: 3, TotalScratched: 1}, nil
		},
	}
	handler := newUserTestServer(svc, "")

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var got reveal.StatsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.TotalCards != 3 {
		t.Fatalf("unexpected response: %+v", got)
	}
}
