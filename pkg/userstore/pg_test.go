package userstore

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/LilFatFrank/scratch-off/pkg/pgutil"
	mghelper "github.com/LilFatFrank/scratch-off/pkg/pgutil/migrations"
	"github.com/LilFatFrank/scratch-off/pkg/user"
)

func setupStore(t *testing.T) (context.Context, *pgStore) {
	t.Helper()
	requireDockerAccess(t)

	ctx := context.Background()
	db, cleanup := pgutil.SetupTestDB(t)
	t.Cleanup(cleanup)

	if err := mghelper.CreateSchema(ctx, db, &UserDao{}); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	return ctx, NewStore(db)
}

func requireDockerAccess(t *testing.T) {
	t.Helper()

	candidates := []string{
		"/var/run/docker.sock",
		filepath.Join(os.Getenv("HOME"), ".docker/run/docker.sock"),
	}

	for _, sock := range candidates {
		if sock == "" {
			continue
		}
		if _, err := os.Stat(sock); err != nil {
			continue
		}
		conn, err := (&net.Dialer{}).DialContext(context.Background(), "unix", sock)
		if err == nil {
			_ = conn.Close()
			return
		}
	}

	t.Skip("docker daemon socket is not accessible; skipping testcontainer-backed userstore tests")
}

func assertDecimalEqual(t *testing.T, got decimal.Decimal, want string) {
	t.Helper()

	wantDec, err := decimal.NewFromString(want)
	if err != nil {
		t.Fatalf("failed to parse want decimal %q: %v", want, err)
	}
	if !got.Equal(wantDec) {
		t.Fatalf("decimal mismatch: got %s want %s", got.String(), wantDec.String())
	}
}

func TestUserPGStore_CreateUserAndConstraints(t *testing.T) {
	ctx, s := setupStore(t)

	u := user.New("0x1111111111111111111111111111111111111111")
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}

	exists, err := s.UserExists(ctx, u.Wallet)
	if err != nil {
		t.Fatalf("UserExists() failed: %v", err)
	}
	if !exists {
		t.Fatalf("expected user to exist")
	}

	dup := user.New(u.Wallet)
	if err := s.CreateUser(ctx, dup); err == nil {
		t.Fatalf("expected duplicate wallet insert to fail")
	}
}

func TestUserPGStore_GetUser_CaseInsensitiveWallet(t *testing.T) {
	ctx, s := setupStore(t)

	u := user.New("0xAbCdEf1234567890aBcDeF1234567890abcdef12")
	u.Username = "alice"
	u.FID = 42
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}

	got, err := s.GetUser(ctx, WithWallet("0xabcdef1234567890abcdef1234567890abcdef12"))
	if err != nil {
		t.Fatalf("GetUser() failed: %v", err)
	}
	if got.Username != "alice" || got.FID != 42 {
		t.Fatalf("unexpected user: %+v", got)
	}
	if got.CurrentLevel != 1 || got.RevealsToNextLevel != 5 {
		t.Fatalf("expected fresh progression state, got %+v", got)
	}

	if _, err := s.GetUser(ctx, WithWallet("0x2222222222222222222222222222222222222222")); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserPGStore_AddCardsAndRecordScratch(t *testing.T) {
	ctx, s := setupStore(t)

	u := user.New("0x3333333333333333333333333333333333333333")
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}

	if err := s.AddCards(ctx, u.Wallet, 3); err != nil {
		t.Fatalf("AddCards() failed: %v", err)
	}
	if err := s.RecordScratch(ctx, u.Wallet, decimal.RequireFromString("0.5"), true); err != nil {
		t.Fatalf("RecordScratch() failed: %v", err)
	}
	if err := s.RecordScratch(ctx, u.Wallet, decimal.NewFromInt(2), true); err != nil {
		t.Fatalf("RecordScratch() failed: %v", err)
	}
	if err := s.RecordScratch(ctx, u.Wallet, decimal.Zero, false); err != nil {
		t.Fatalf("RecordScratch() failed: %v", err)
	}

	got, err := s.GetUser(ctx, WithWallet(u.Wallet))
	if err != nil {
		t.Fatalf("GetUser() failed: %v", err)
	}
	if got.CardsCount != 3 {
		t.Fatalf("expected cards_count 3, got %d", got.CardsCount)
	}
	if got.CardsScratched != 3 {
		t.Fatalf("expected cards_scratched 3, got %d", got.CardsScratched)
	}
	if got.TotalWins != 2 {
		t.Fatalf("expected total_wins 2, got %d", got.TotalWins)
	}
	assertDecimalEqual(t, got.TotalWinnings, "2.5")

	if err := s.AddCards(ctx, "0x4444444444444444444444444444444444444444", 1); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound for unknown wallet, got %v", err)
	}
}

func TestUserPGStore_SetProgression_Conditional(t *testing.T) {
	ctx, s := setupStore(t)

	u := user.New("0x5555555555555555555555555555555555555555")
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}

	applied, err := s.SetProgression(ctx, u.Wallet, 1, 5, 1, 4)
	if err != nil {
		t.Fatalf("SetProgression() failed: %v", err)
	}
	if !applied {
		t.Fatalf("expected progression update to apply")
	}

	// A writer holding a stale view must not clobber the new state.
	applied, err = s.SetProgression(ctx, u.Wallet, 1, 5, 1, 3)
	if err != nil {
		t.Fatalf("SetProgression() failed: %v", err)
	}
	if applied {
		t.Fatalf("stale progression update should not apply")
	}

	got, err := s.GetUser(ctx, WithWallet(u.Wallet))
	if err != nil {
		t.Fatalf("GetUser() failed: %v", err)
	}
	if got.CurrentLevel != 1 || got.RevealsToNextLevel != 4 {
		t.Fatalf("unexpected progression state: %+v", got)
	}
}

func TestUserPGStore_Leaderboard(t *testing.T) {
	ctx, s := setupStore(t)

	for i, winnings := range []string{"1", "10", "5"} {
		u := user.New(walletN(i))
		if err := s.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
		if err := s.RecordScratch(ctx, u.Wallet, decimal.RequireFromString(winnings), true); err != nil {
			t.Fatalf("RecordScratch() failed: %v", err)
		}
	}

	top, err := s.Leaderboard(ctx, 2)
	if err != nil {
		t.Fatalf("Leaderboard() failed: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(top))
	}
	assertDecimalEqual(t, top[0].TotalWinnings, "10")
	assertDecimalEqual(t, top[1].TotalWinnings, "5")
}

func walletN(i int) string {
	const hexdigits = "0123456789abcdef"
	b := make([]byte, 40)
	for j := range b {
		b[j] = hexdigits[i%16]
	}
	return "0x" + string(b)
}
