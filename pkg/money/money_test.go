package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRoundHalfAwayFromZero(t *testing.T) {
	cases := map[string]string{
		"1.005":  "1.01",
		"1.004":  "1",
		"-1.005": "-1.01",
		"2.5":    "2.5",
		"10":     "10",
	}
	for in, want := range cases {
		got := Round(decimal.RequireFromString(in))
		if !got.Equal(decimal.RequireFromString(want)) {
			t.Fatalf("Round(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestDisplayTruncates(t *testing.T) {
	if got := Display(decimal.RequireFromString("1180.99")); !got.Equal(decimal.NewFromInt(1180)) {
		t.Fatalf("expected 1180, got %s", got)
	}
}

func TestPercentAndSum(t *testing.T) {
	got := Percent(decimal.NewFromInt(200), decimal.NewFromInt(18))
	if !got.Equal(decimal.NewFromInt(36)) {
		t.Fatalf("expected 36, got %s", got)
	}
	total := Sum(decimal.RequireFromString("1.10"), decimal.RequireFromString("2.20"))
	if !total.Equal(decimal.RequireFromString("3.3")) {
		t.Fatalf("expected 3.3, got %s", total)
	}
	if !Sum().IsZero() {
		t.Fatal("expected empty sum to be zero")
	}
}
