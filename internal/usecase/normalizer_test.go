package usecase

import (
	"errors"
	"testing"
	"time"

	"HistPull/internal/domain/models"
)

func TestNormalizeBarsDefaults(t *testing.T) {
	now := time.Date(2023, 6, 30, 16, 0, 0, 0, time.UTC)
	q, err := NormalizeBars(&models.MarketDataRequest{Symbol: "aapl"}, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Symbol != "AAPL" || q.SecType != "STK" || q.WhatToShow != "TRADES" || !q.UseRTH {
		t.Fatalf("defaults not applied: %+v", q)
	}
	if q.BarSize != "1 min" {
		t.Fatalf("bar size = %q", q.BarSize)
	}
	if !q.AnchorEnd.Equal(now) {
		t.Fatalf("anchor = %v, want now", q.AnchorEnd)
	}
	if !q.Window.Start.Equal(now.AddDate(0, 0, -1)) || !q.Window.End.Equal(now) {
		t.Fatalf("window = %+v, want default 1 D", q.Window)
	}
}

func TestNormalizeBarsInvalidAnchor(t *testing.T) {
	_, err := NormalizeBars(&models.MarketDataRequest{Symbol: "AAPL", EndDateTime: "junk"}, time.Now())
	if !errors.Is(err, models.ErrInvalidTimestamp) {
		t.Fatalf("expected ErrInvalidTimestamp, got %v", err)
	}
}

func TestNormalizeTicksDefaults(t *testing.T) {
	now := time.Date(2023, 6, 30, 16, 0, 0, 0, time.UTC)
	q, err := NormalizeTicks(&models.HistoricalTicksRequest{Symbol: "msft"}, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.TargetCount != 1000 {
		t.Fatalf("target count = %d", q.TargetCount)
	}
	if !q.Window.End.Equal(now) || !q.Window.Start.Equal(now.AddDate(0, -1, 0)) {
		t.Fatalf("window = %+v, want one month back from now", q.Window)
	}
}

// Two logically identical requests must fingerprint identically: one relies
// on defaults, the other supplies every default explicitly.
func TestFingerprintStability(t *testing.T) {
	now := time.Date(2023, 6, 30, 16, 0, 0, 0, time.UTC)
	useRTH := true

	implicit, err := NormalizeBars(&models.MarketDataRequest{
		Symbol:      "AAPL",
		EndDateTime: "20230630-16:00:00",
	}, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	explicit, err := NormalizeBars(&models.MarketDataRequest{
		Symbol:      "aapl",
		SecType:     "STK",
		EndDateTime: "20230630-16:00:00",
		Duration:    "1 D",
		BarSize:     "1 min",
		WhatToShow:  "TRADES",
		UseRTH:      &useRTH,
	}, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if implicit.Fingerprint() != explicit.Fingerprint() {
		t.Fatalf("fingerprints differ:\n%s\n%s", implicit.Fingerprint(), explicit.Fingerprint())
	}

	other, _ := NormalizeBars(&models.MarketDataRequest{
		Symbol:      "AAPL",
		EndDateTime: "20230630-16:00:00",
		BarSize:     "5 mins",
	}, now)
	if other.Fingerprint() == implicit.Fingerprint() {
		t.Fatal("distinct queries must not collide")
	}
}
