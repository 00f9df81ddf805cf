package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"HistPull/internal/domain/models"
)

// fakeStore implements repository.MarketStore in memory.
type fakeStore struct {
	bars  []models.Bar
	ticks []models.Tick

	readErr  error
	writeErr error

	barWrites  int
	tickWrites int
}

func (s *fakeStore) ReadBars(_ context.Context, q models.Query) ([]models.Bar, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	var out []models.Bar
	for _, b := range s.bars {
		if !b.Timestamp.Before(q.Window.Start) && b.Timestamp.Before(q.Window.End) {
			out = append(out, b)
		}
	}
	return MergeBars(out), nil
}

func (s *fakeStore) WriteBars(_ context.Context, _ models.Query, bars []models.Bar) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.barWrites++
	s.bars = MergeBars(s.bars, bars)
	return nil
}

func (s *fakeStore) ReadTicks(_ context.Context, q models.Query) ([]models.Tick, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	var out []models.Tick
	for _, tk := range s.ticks {
		if !tk.Timestamp.Before(q.Window.Start) && tk.Timestamp.Before(q.Window.End) {
			out = append(out, tk)
		}
	}
	return MergeTicks(out), nil
}

func (s *fakeStore) WriteTicks(_ context.Context, _ models.Query, ticks []models.Tick) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.tickWrites++
	s.ticks = MergeTicks(s.ticks, ticks)
	return nil
}

func (s *fakeStore) Health(context.Context) error { return nil }

// fakeProvider serves bars on the cadence grid and counts every call.
type fakeProvider struct {
	step time.Duration

	resolveErr error
	fetchErr   error
	failAfter  int // fail the nth bar fetch (1-based), 0 = never

	resolves   int
	barFetches int
	tickCalls  []int // requested counts

	ticksServed []models.Tick
}

func (p *fakeProvider) ResolveContract(_ context.Context, symbol, secType string) (models.Contract, error) {
	p.resolves++
	if p.resolveErr != nil {
		return models.Contract{}, p.resolveErr
	}
	return models.Contract{ConID: 1, Symbol: symbol, SecType: secType}, nil
}

func (p *fakeProvider) FetchBars(_ context.Context, _ models.Contract, end time.Time, durationExpr, _, _ string, _ bool) ([]models.Bar, error) {
	p.barFetches++
	if p.fetchErr != nil && (p.failAfter == 0 || p.barFetches >= p.failAfter) {
		return nil, p.fetchErr
	}
	w := ResolveWindow(end, durationExpr)
	var out []models.Bar
	for ts := w.Start; !ts.After(end); ts = ts.Add(p.step) {
		out = append(out, models.Bar{Timestamp: ts, Close: 100})
	}
	return out, nil
}

func (p *fakeProvider) FetchTicks(_ context.Context, _ models.Contract, _, _ time.Time, count int, _ bool) ([]models.Tick, error) {
	p.tickCalls = append(p.tickCalls, count)
	if p.fetchErr != nil {
		return nil, p.fetchErr
	}
	return lastN(p.ticksServed, count), nil
}

func barQuery(start, end time.Time) models.Query {
	return models.Query{
		Symbol:     "AAPL",
		SecType:    "STK",
		AnchorEnd:  end,
		Window:     models.Window{Start: start, End: end},
		BarSize:    "1 min",
		WhatToShow: "TRADES",
		UseRTH:     true,
	}
}

func TestBarsZeroGapShortCircuit(t *testing.T) {
	base := time.Date(2023, 6, 30, 9, 0, 0, 0, time.UTC)
	store := &fakeStore{}
	for m := 0; m < 10; m++ {
		store.bars = append(store.bars, models.Bar{Timestamp: base.Add(time.Duration(m) * time.Minute)})
	}
	provider := &fakeProvider{step: time.Minute}

	got, err := NewBackfiller(store, provider, nil).Bars(context.Background(), barQuery(base, base.Add(10*time.Minute)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("len = %d, want 10", len(got))
	}
	if provider.resolves != 0 || provider.barFetches != 0 {
		t.Fatalf("expected zero provider calls, got resolves=%d fetches=%d", provider.resolves, provider.barFetches)
	}
}

func TestBarsBackfillsGaps(t *testing.T) {
	base := time.Date(2023, 6, 30, 9, 0, 0, 0, time.UTC)
	at := func(m int) time.Time { return base.Add(time.Duration(m) * time.Minute) }

	store := &fakeStore{bars: barsAt(at(0), at(1), at(4), at(5), at(9))}
	provider := &fakeProvider{step: time.Minute}

	got, err := NewBackfiller(store, provider, nil).Bars(context.Background(), barQuery(at(0), at(10)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Two gaps -> two fetches, one resolve, results persisted.
	if provider.resolves != 1 || provider.barFetches != 2 {
		t.Fatalf("resolves=%d fetches=%d, want 1/2", provider.resolves, provider.barFetches)
	}
	if store.barWrites != 2 {
		t.Fatalf("store writes = %d, want 2", store.barWrites)
	}
	// Merged result covers the full grid, ascending and unique.
	if len(got) != 10 {
		t.Fatalf("len = %d, want 10: %v", len(got), got)
	}
	for i, b := range got {
		if !b.Timestamp.Equal(at(i)) {
			t.Fatalf("slot %d = %v, want %v", i, b.Timestamp, at(i))
		}
	}
}

func TestBarsEmptyWindowFullySatisfied(t *testing.T) {
	base := time.Date(2023, 6, 30, 9, 0, 0, 0, time.UTC)
	provider := &fakeProvider{step: time.Minute}
	got, err := NewBackfiller(&fakeStore{}, provider, nil).Bars(context.Background(), barQuery(base, base))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 || provider.resolves != 0 {
		t.Fatalf("empty window must be a no-op, got %v resolves=%d", got, provider.resolves)
	}
}

func TestBarsContractNotFound(t *testing.T) {
	base := time.Date(2023, 6, 30, 9, 0, 0, 0, time.UTC)
	provider := &fakeProvider{step: time.Minute, resolveErr: models.ErrContractNotFound}
	_, err := NewBackfiller(&fakeStore{}, provider, nil).Bars(context.Background(), barQuery(base, base.Add(10*time.Minute)))
	if !errors.Is(err, models.ErrContractNotFound) {
		t.Fatalf("expected ErrContractNotFound, got %v", err)
	}
}

func TestBarsUpstreamFailureKeepsPartialProgress(t *testing.T) {
	base := time.Date(2023, 6, 30, 9, 0, 0, 0, time.UTC)
	at := func(m int) time.Time { return base.Add(time.Duration(m) * time.Minute) }

	// Two gaps; the second fetch fails.
	store := &fakeStore{bars: barsAt(at(0), at(1), at(4), at(5), at(9))}
	provider := &fakeProvider{step: time.Minute, fetchErr: errors.New("pacing violation"), failAfter: 2}

	_, err := NewBackfiller(store, provider, nil).Bars(context.Background(), barQuery(at(0), at(10)))
	if !errors.Is(err, models.ErrUpstreamFetch) {
		t.Fatalf("expected ErrUpstreamFetch, got %v", err)
	}
	// The first gap's rows were persisted before the failure and stay valid.
	if store.barWrites != 1 {
		t.Fatalf("store writes = %d, want 1", store.barWrites)
	}

	// Re-querying converges: only the remaining gap is fetched.
	provider2 := &fakeProvider{step: time.Minute}
	got, err := NewBackfiller(store, provider2, nil).Bars(context.Background(), barQuery(at(0), at(10)))
	if err != nil {
		t.Fatalf("unexpected error on retry: %v", err)
	}
	if provider2.barFetches != 1 {
		t.Fatalf("retry fetches = %d, want 1", provider2.barFetches)
	}
	if len(got) != 10 {
		t.Fatalf("retry len = %d, want 10", len(got))
	}
}

func TestBarsStoreReadFailure(t *testing.T) {
	base := time.Date(2023, 6, 30, 9, 0, 0, 0, time.UTC)
	store := &fakeStore{readErr: errors.New("connection refused")}
	_, err := NewBackfiller(store, &fakeProvider{step: time.Minute}, nil).Bars(context.Background(), barQuery(base, base.Add(time.Minute)))
	if !errors.Is(err, models.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func tickQuery(start, end time.Time, target int) models.Query {
	return models.Query{
		Symbol:      "AAPL",
		SecType:     "STK",
		AnchorEnd:   end,
		Window:      models.Window{Start: start, End: end},
		TargetCount: target,
		WhatToShow:  "TRADES",
		UseRTH:      true,
	}
}

func ticksEvery(base time.Time, n int, step time.Duration) []models.Tick {
	out := make([]models.Tick, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.Tick{Timestamp: base.Add(time.Duration(i) * step), Price: float64(i)})
	}
	return out
}

func TestTicksCacheHitShortCircuit(t *testing.T) {
	base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeStore{ticks: ticksEvery(base, 700, time.Second)}
	provider := &fakeProvider{}

	got, err := NewBackfiller(store, provider, nil).Ticks(context.Background(), tickQuery(base, base.Add(time.Hour), 500))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.resolves != 0 || len(provider.tickCalls) != 0 {
		t.Fatal("cache hit must issue zero provider calls")
	}
	if len(got) != 500 {
		t.Fatalf("len = %d, want 500", len(got))
	}
	// Most recent 500 of 700, ascending.
	if got[0].Price != 200 || got[len(got)-1].Price != 699 {
		t.Fatalf("slice window wrong: first=%v last=%v", got[0].Price, got[len(got)-1].Price)
	}
	for i := 1; i < len(got); i++ {
		if !got[i-1].Timestamp.Before(got[i].Timestamp) {
			t.Fatalf("not ascending at %d", i)
		}
	}
}

func TestTicksDeficitFetch(t *testing.T) {
	base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeStore{ticks: ticksEvery(base, 300, time.Second)}
	// Provider serves fresh prints strictly after the persisted ones.
	provider := &fakeProvider{ticksServed: ticksEvery(base.Add(time.Hour), 200, time.Second)}

	got, err := NewBackfiller(store, provider, nil).Ticks(context.Background(), tickQuery(base, base.Add(2*time.Hour), 500))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(provider.tickCalls) != 1 || provider.tickCalls[0] != 200 {
		t.Fatalf("tick fetch calls = %v, want one fetch of 200", provider.tickCalls)
	}
	if store.tickWrites != 1 {
		t.Fatalf("store writes = %d, want 1", store.tickWrites)
	}
	if len(got) != 500 {
		t.Fatalf("len = %d, want 500", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Timestamp.Before(got[i-1].Timestamp) {
			t.Fatalf("not ascending at %d", i)
		}
	}
}

func TestTicksUpstreamFailure(t *testing.T) {
	base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeStore{}
	provider := &fakeProvider{fetchErr: errors.New("session lost")}
	_, err := NewBackfiller(store, provider, nil).Ticks(context.Background(), tickQuery(base, base.Add(time.Hour), 100))
	if !errors.Is(err, models.ErrUpstreamFetch) {
		t.Fatalf("expected ErrUpstreamFetch, got %v", err)
	}
}
