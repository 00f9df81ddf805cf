package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"HistPull/internal/domain/models"
	domrepo "HistPull/internal/domain/repository"
	applogger "HistPull/pkg/logger"
)

// Backfiller reconciles a normalized query against the store and the
// upstream provider: read what exists, detect the missing sub-ranges, fetch
// only those, persist each fetch, and return one merged sequence that is
// indistinguishable from a single complete fetch.
//
// Gaps are fetched and persisted one at a time in ascending order. Contract
// resolution happens only when at least one gap (or a positive tick
// deficit) exists, so a fully satisfied query issues zero upstream calls.
// Any collaborator failure is terminal for the query; gap results persisted
// before the failure stay valid, which makes re-querying convergent.
type Backfiller struct {
	store    domrepo.MarketStore
	provider domrepo.Provider
	metrics  domrepo.Metrics
	events   domrepo.BackfillPublisher
	l        *applogger.Logger
}

func NewBackfiller(store domrepo.MarketStore, provider domrepo.Provider, metrics domrepo.Metrics) *Backfiller {
	return &Backfiller{store: store, provider: provider, metrics: metrics}
}

// SetLogger injects a structured logger.
func (b *Backfiller) SetLogger(l *applogger.Logger) { b.l = l }

// SetPublisher injects an optional completed-backfill event publisher.
func (b *Backfiller) SetPublisher(p domrepo.BackfillPublisher) { b.events = p }

// Bars resolves a bar query and returns the merged window contents.
func (b *Backfiller) Bars(ctx context.Context, q models.Query) ([]models.Bar, error) {
	start := time.Now()

	existing, err := b.store.ReadBars(ctx, q)
	if err != nil {
		b.recordError("store_read")
		return nil, fmt.Errorf("%w: read bars: %v", models.ErrStoreUnavailable, err)
	}

	step := domrepo.BarSizeStep(q.BarSize)
	gaps, err := BarGaps(q.Window, step, existing)
	if errors.Is(err, models.ErrEmptyWindow) {
		gaps = nil
	} else if err != nil {
		return nil, err
	}
	if b.metrics != nil {
		b.metrics.RecordGapsDetected("bars", len(gaps))
	}

	if len(gaps) == 0 {
		// Fully satisfied from the store: no contract lookup, no fetch.
		b.observe("backfill_bars", start)
		return existing, nil
	}

	contract, err := b.provider.ResolveContract(ctx, q.Symbol, q.SecType)
	if err != nil {
		b.recordError("resolve_contract")
		return nil, err
	}

	batches := [][]models.Bar{existing}
	fetched := 0
	for _, g := range gaps {
		// The fetch is anchored at the gap's end slot; widening the span by
		// one step keeps the slot at g.Start inside the covered range.
		expr := DurationFor(g.Start.Add(-step), g.End)
		if b.metrics != nil {
			b.metrics.RecordProviderCall("bars", q.Symbol)
		}
		bars, err := b.provider.FetchBars(ctx, contract, g.End, expr, q.BarSize, q.WhatToShow, q.UseRTH)
		if err != nil {
			b.recordError("fetch_bars")
			return nil, fmt.Errorf("%w: %v", models.ErrUpstreamFetch, err)
		}
		if len(bars) == 0 {
			continue
		}
		if err := b.store.WriteBars(ctx, q, bars); err != nil {
			b.recordError("store_write")
			return nil, fmt.Errorf("%w: write bars: %v", models.ErrStoreUnavailable, err)
		}
		if b.metrics != nil {
			b.metrics.RecordRowsPersisted("bars", len(bars))
		}
		fetched += len(bars)
		batches = append(batches, bars)
	}

	merged := MergeBars(batches...)
	if b.l != nil {
		b.l.Info("bar backfill complete",
			applogger.String("symbol", q.Symbol),
			applogger.Int("gaps", len(gaps)),
			applogger.Int("fetched", fetched),
			applogger.Int("rows", len(merged)),
		)
	}
	b.publish(ctx, q, "bars", len(gaps), fetched)
	b.observe("backfill_bars", start)
	return merged, nil
}

// Ticks resolves a tick query and returns the most recent TargetCount
// prints in ascending order.
func (b *Backfiller) Ticks(ctx context.Context, q models.Query) ([]models.Tick, error) {
	start := time.Now()

	existing, err := b.store.ReadTicks(ctx, q)
	if err != nil {
		b.recordError("store_read")
		return nil, fmt.Errorf("%w: read ticks: %v", models.ErrStoreUnavailable, err)
	}

	if len(existing) >= q.TargetCount {
		// Pure cache hit: stale-but-sufficient beats re-verifying freshness.
		if b.metrics != nil {
			b.metrics.RecordCacheHit("ticks_store")
		}
		b.observe("backfill_ticks", start)
		return lastN(MergeTicks(existing), q.TargetCount), nil
	}

	gap, deficit, err := TickDeficit(q.Window, q.TargetCount, len(existing))
	if errors.Is(err, models.ErrEmptyWindow) {
		deficit = 0
	} else if err != nil {
		return nil, err
	}
	if b.metrics != nil && deficit > 0 {
		b.metrics.RecordGapsDetected("ticks", 1)
	}
	if deficit <= 0 {
		b.observe("backfill_ticks", start)
		return lastN(MergeTicks(existing), q.TargetCount), nil
	}

	contract, err := b.provider.ResolveContract(ctx, q.Symbol, q.SecType)
	if err != nil {
		b.recordError("resolve_contract")
		return nil, err
	}

	if b.metrics != nil {
		b.metrics.RecordProviderCall("ticks", q.Symbol)
	}
	ticks, err := b.provider.FetchTicks(ctx, contract, gap.Start, gap.End, deficit, q.UseRTH)
	if err != nil {
		b.recordError("fetch_ticks")
		return nil, fmt.Errorf("%w: %v", models.ErrUpstreamFetch, err)
	}
	if len(ticks) > 0 {
		if err := b.store.WriteTicks(ctx, q, ticks); err != nil {
			b.recordError("store_write")
			return nil, fmt.Errorf("%w: write ticks: %v", models.ErrStoreUnavailable, err)
		}
		if b.metrics != nil {
			b.metrics.RecordRowsPersisted("ticks", len(ticks))
		}
	}

	merged := MergeTicks(existing, ticks)
	if b.l != nil {
		b.l.Info("tick backfill complete",
			applogger.String("symbol", q.Symbol),
			applogger.Int("deficit", deficit),
			applogger.Int("fetched", len(ticks)),
			applogger.Int("rows", len(merged)),
		)
	}
	b.publish(ctx, q, "ticks", 1, len(ticks))
	b.observe("backfill_ticks", start)
	return lastN(merged, q.TargetCount), nil
}

func (b *Backfiller) publish(ctx context.Context, q models.Query, kind string, gaps, rows int) {
	if b.events == nil {
		return
	}
	ev := &models.BackfillEvent{
		Symbol:      q.Symbol,
		SecType:     q.SecType,
		Kind:        kind,
		Fingerprint: q.Fingerprint(),
		WindowStart: q.Window.Start,
		WindowEnd:   q.Window.End,
		GapsFilled:  gaps,
		RowsFetched: rows,
		CompletedAt: time.Now().UTC(),
	}
	if err := b.events.PublishBackfill(ctx, ev); err != nil && b.l != nil {
		// Advisory stream only; the query result is already assembled.
		b.l.Warn("backfill event publish failed", applogger.Error(err))
	}
}

func (b *Backfiller) observe(op string, start time.Time) {
	if b.metrics != nil {
		b.metrics.RecordLatency(op, time.Since(start).Seconds())
	}
}

func (b *Backfiller) recordError(kind string) {
	if b.metrics != nil {
		b.metrics.RecordError(kind)
	}
}
