package repository

import (
	"testing"
	"time"
)

func TestBarSizeStep(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"30 secs", 30 * time.Second},
		{"1 sec", time.Second},
		{"1 min", time.Minute},
		{"5 mins", 5 * time.Minute},
		{"1 hour", time.Hour},
		{"2 hours", 2 * time.Hour},
		{"1 day", 24 * time.Hour},
	}
	for _, c := range cases {
		if got := BarSizeStep(c.in); got != c.want {
			t.Fatalf("BarSizeStep(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

// Unknown units intentionally degrade to one minute instead of erroring.
// This mirrors upstream tolerance for formatting variance, but it means a
// typo silently produces minute-grid gap detection; keep that pinned.
func TestBarSizeStepLenientDefault(t *testing.T) {
	for _, in := range []string{"", "garbage", "3 fortnights", "x mins", "-5 mins"} {
		if got := BarSizeStep(in); got != time.Minute {
			t.Fatalf("BarSizeStep(%q) = %v, want fallback of 1m", in, got)
		}
	}
}

func TestNormalizeBarSize(t *testing.T) {
	if got := NormalizeBarSize(""); got != DefaultBarSize {
		t.Fatalf("empty bar size: got %q", got)
	}
	if got := NormalizeBarSize("5 mins"); got != "5 mins" {
		t.Fatalf("explicit bar size: got %q", got)
	}
}
