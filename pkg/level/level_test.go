package level

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/LilFatFrank/scratch-off/pkg/prize"
)

func TestParsePolicy(t *testing.T) {
	if p, err := ParsePolicy("all"); err != nil || p != CountAllReveals {
		t.Fatalf("expected CountAllReveals, got %v err %v", p, err)
	}
	if p, err := ParsePolicy("wins_only"); err != nil || p != CountWinsOnly {
		t.Fatalf("expected CountWinsOnly, got %v err %v", p, err)
	}
	if _, err := ParsePolicy("sometimes"); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}

func TestRequirement(t *testing.T) {
	tests := []struct {
		level int
		want  int
	}{
		{1, 5}, {2, 10}, {3, 20}, {4, 50}, {5, 100}, {6, 100}, {10, 100},
	}
	for _, tt := range tests {
		if got := Requirement(tt.level); got != tt.want {
			t.Fatalf("requirement(%d): expected %d, got %d", tt.level, tt.want, got)
		}
	}
}

func TestAdvance_CountsDown(t *testing.T) {
	got := Advance(1, 5, prize.Win(decimal.NewFromInt(1)), CountWinsOnly)
	if got.Level != 1 || got.Remaining != 4 || got.LeveledUp {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestAdvance_LevelUpAwardsBonusCards(t *testing.T) {
	got := Advance(1, 1, prize.Win(decimal.NewFromInt(2)), CountWinsOnly)
	if !got.LeveledUp {
		t.Fatalf("expected level-up: %+v", got)
	}
	if got.Level != 2 || got.Remaining != 10 || got.BonusCards != 1 {
		t.Fatalf("unexpected result: %+v", got)
	}

	got = Advance(4, 1, prize.Win(decimal.NewFromInt(1)), CountWinsOnly)
	if got.Level != 5 || got.Remaining != 100 || got.BonusCards != 4 {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestAdvance_WinsOnlyIgnoresLosses(t *testing.T) {
	got := Advance(2, 3, prize.Lose(), CountWinsOnly)
	if got.Level != 2 || got.Remaining != 3 || got.LeveledUp {
		t.Fatalf("lose should not count under wins-only policy: %+v", got)
	}
}

func TestAdvance_WinsOnlyCountsFriendWins(t *testing.T) {
	got := Advance(2, 3, prize.FriendWin(), CountWinsOnly)
	if got.Level != 2 || got.Remaining != 2 {
		t.Fatalf("friend win should count under wins-only policy: %+v", got)
	}
}

func TestAdvance_CountAllCountsEveryReveal(t *testing.T) {
	got := Advance(2, 3, prize.Lose(), CountAllReveals)
	if got.Remaining != 2 {
		t.Fatalf("lose should count under all policy: %+v", got)
	}
	got = Advance(2, 1, prize.FriendWin(), CountAllReveals)
	if !got.LeveledUp || got.Level != 3 {
		t.Fatalf("friend win should count under all policy: %+v", got)
	}
}

func TestAdvance_RepairsInvalidState(t *testing.T) {
	got := Advance(0, 0, prize.Win(decimal.NewFromInt(1)), CountWinsOnly)
	if got.Level != 1 || got.Remaining != 4 {
		t.Fatalf("expected repaired level 1 state, got %+v", got)
	}
}
