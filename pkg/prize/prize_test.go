package prize

import (
	"testing"

	"github.com/shopspring/decimal"
)

func drawAt(t *testing.T, roll float64) Outcome {
	t.Helper()
	d := NewWithRoll(func() float64 { return roll })
	return d.Draw()
}

func TestDraw_Bands(t *testing.T) {
	tests := []struct {
		name string
		roll float64
		want Outcome
	}{
		{"low lose start", 0, Lose()},
		{"low lose end", 29.999, Lose()},
		{"friend win start", 30, FriendWin()},
		{"friend win end", 39.999, FriendWin()},
		{"half win start", 40, Win(decimal.RequireFromString("0.5"))},
		{"half win end", 74.999, Win(decimal.RequireFromString("0.5"))},
		{"unit win start", 75, Win(decimal.NewFromInt(1))},
		{"unit win end", 86.999, Win(decimal.NewFromInt(1))},
		{"double win start", 87, Win(decimal.NewFromInt(2))},
		{"double win end", 97.999, Win(decimal.NewFromInt(2))},
		{"high lose start", 98, Lose()},
		{"high lose end", 99.999, Lose()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := drawAt(t, tt.roll)
			if !got.Amount.Equal(tt.want.Amount) {
				t.Fatalf("roll %v: expected amount %s, got %s", tt.roll, tt.want.Amount, got.Amount)
			}
		})
	}
}

func TestOutcome_Classification(t *testing.T) {
	lose := Lose()
	if !lose.IsLose() || lose.IsWin() || lose.IsFriendWin() {
		t.Fatalf("lose outcome misclassified: %+v", lose)
	}

	friend := FriendWin()
	if !friend.IsFriendWin() || friend.IsWin() || friend.IsLose() {
		t.Fatalf("friend win outcome misclassified: %+v", friend)
	}

	win := Win(decimal.NewFromInt(2))
	if !win.IsWin() || win.IsLose() || win.IsFriendWin() {
		t.Fatalf("win outcome misclassified: %+v", win)
	}
}

func TestWinningsContribution(t *testing.T) {
	if got := FriendWin().WinningsContribution(); !got.IsZero() {
		t.Fatalf("expected zero contribution for friend win, got %s", got)
	}
	if got := Lose().WinningsContribution(); !got.IsZero() {
		t.Fatalf("expected zero contribution for lose, got %s", got)
	}
	two := decimal.NewFromInt(2)
	if got := Win(two).WinningsContribution(); !got.Equal(two) {
		t.Fatalf("expected contribution %s, got %s", two, got)
	}
}

func TestDraw_FrequencyConvergence(t *testing.T) {
	const draws = 200000
	d := New()

	counts := map[string]int{}
	for i := 0; i < draws; i++ {
		got := d.Draw()
		switch {
		case got.IsFriendWin():
			counts["friend"]++
		case got.IsLose():
			counts["lose"]++
		default:
			counts[got.Amount.String()]++
		}
	}

	// The two lose bands (30% and 2%) are indistinguishable per draw and
	// aggregate to 32%.
	expected := map[string]float64{
		"lose":   32,
		"friend": 10,
		"0.5":    35,
		"1":      12,
		"2":      11,
	}
	const tolerance = 1.5
	for band, want := range expected {
		got := float64(counts[band]) / draws * 100
		if got < want-tolerance || got > want+tolerance {
			t.Errorf("band %s: expected %.1f%% ± %.1f, got %.2f%% (%d/%d)",
				band, want, tolerance, got, counts[band], draws)
		}
	}
}

func TestDraw_RollRangeInvariant(t *testing.T) {
	d := New()
	for i := 0; i < 1000; i++ {
		got := d.Draw()
		if !got.IsLose() && !got.IsFriendWin() && !got.IsWin() {
			t.Fatalf("draw produced unclassifiable outcome: %+v", got)
		}
	}
}
