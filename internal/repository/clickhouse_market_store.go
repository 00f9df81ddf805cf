package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"HistPull/internal/domain/models"
	domrepo "HistPull/internal/domain/repository"
	pkgch "HistPull/pkg/clickhouse"
	applogger "HistPull/pkg/logger"
)

// CHMarketStore implements MarketStore backed by ClickHouse. Both tables
// use ReplacingMergeTree keyed on the record identity, so re-writing an
// already persisted record is a no-op after merge — the store-level
// idempotency the backfill engine relies on. Reads use FINAL to collapse
// not-yet-merged duplicates.
type CHMarketStore struct {
	db        *sql.DB
	barTable  string
	tickTable string
	l         *applogger.Logger
}

func NewCHMarketStore(ch *pkgch.Client, database string) *CHMarketStore {
	return &CHMarketStore{
		db:        ch.DB(),
		barTable:  database + ".bars",
		tickTable: database + ".ticks",
	}
}

// SetLogger injects a structured logger.
func (s *CHMarketStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHMarketStore) ReadBars(ctx context.Context, q models.Query) ([]models.Bar, error) {
	start := time.Now()
	const qtpl = `
        SELECT ts, open, high, low, close, volume, trade_count, wap, has_gaps
        FROM %s FINAL
        WHERE symbol = ? AND sec_type = ? AND bar_size = ? AND what_to_show = ? AND use_rth = ?
          AND ts >= ? AND ts < ?
        ORDER BY ts ASC
    `
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(qtpl, s.barTable),
		q.Symbol, q.SecType, q.BarSize, q.WhatToShow, q.UseRTH,
		q.Window.Start.UTC(), q.Window.End.UTC(),
	)
	if err != nil {
		s.logErr("read_bars query error", q, err)
		return nil, fmt.Errorf("read bars: %w", err)
	}
	defer rows.Close()

	out := make([]models.Bar, 0, 1024)
	for rows.Next() {
		var b models.Bar
		var ts time.Time
		if err := rows.Scan(&ts, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.TradeCount, &b.WAP, &b.HasGaps); err != nil {
			s.logErr("read_bars scan error", q, err)
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		b.Timestamp = ts.UTC()
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		s.logErr("read_bars rows error", q, err)
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse read_bars ok",
			applogger.String("symbol", q.Symbol),
			applogger.String("bar_size", q.BarSize),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHMarketStore) WriteBars(ctx context.Context, q models.Query, bars []models.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	// Multi-row VALUES inserts, chunked to bound statement size.
	const chunkSize = 2000
	for lo := 0; lo < len(bars); lo += chunkSize {
		hi := lo + chunkSize
		if hi > len(bars) {
			hi = len(bars)
		}
		values := make([]string, 0, hi-lo)
		args := make([]interface{}, 0, (hi-lo)*14)
		for _, b := range bars[lo:hi] {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				q.Symbol, q.SecType, q.BarSize, q.WhatToShow, q.UseRTH,
				b.Timestamp.UTC(), b.Open, b.High, b.Low, b.Close,
				b.Volume, b.TradeCount, b.WAP, b.HasGaps,
			)
		}
		stmt := fmt.Sprintf(
			"INSERT INTO %s (symbol, sec_type, bar_size, what_to_show, use_rth, ts, open, high, low, close, volume, trade_count, wap, has_gaps) VALUES %s",
			s.barTable, strings.Join(values, ","),
		)
		if _, err := s.db.ExecContext(ctx, stmt, args...); err != nil {
			s.logErr("write_bars insert error", q, err)
			return fmt.Errorf("write bars: %w", err)
		}
	}
	if s.l != nil {
		s.l.Info("clickhouse write_bars ok",
			applogger.String("symbol", q.Symbol),
			applogger.String("bar_size", q.BarSize),
			applogger.Int("rows", len(bars)),
		)
	}
	return nil
}

func (s *CHMarketStore) ReadTicks(ctx context.Context, q models.Query) ([]models.Tick, error) {
	start := time.Now()
	const qtpl = `
        SELECT ts, price, size, exchange_code, special_conditions
        FROM %s FINAL
        WHERE symbol = ? AND sec_type = ? AND ts >= ? AND ts < ?
        ORDER BY ts ASC
    `
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(qtpl, s.tickTable),
		q.Symbol, q.SecType, q.Window.Start.UTC(), q.Window.End.UTC(),
	)
	if err != nil {
		s.logErr("read_ticks query error", q, err)
		return nil, fmt.Errorf("read ticks: %w", err)
	}
	defer rows.Close()

	out := make([]models.Tick, 0, 1024)
	for rows.Next() {
		var t models.Tick
		var ts time.Time
		if err := rows.Scan(&ts, &t.Price, &t.Size, &t.ExchangeCode, &t.SpecialConditions); err != nil {
			s.logErr("read_ticks scan error", q, err)
			return nil, fmt.Errorf("scan tick: %w", err)
		}
		t.Timestamp = ts.UTC()
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		s.logErr("read_ticks rows error", q, err)
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse read_ticks ok",
			applogger.String("symbol", q.Symbol),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHMarketStore) WriteTicks(ctx context.Context, q models.Query, ticks []models.Tick) error {
	if len(ticks) == 0 {
		return nil
	}
	const chunkSize = 2000
	for lo := 0; lo < len(ticks); lo += chunkSize {
		hi := lo + chunkSize
		if hi > len(ticks) {
			hi = len(ticks)
		}
		values := make([]string, 0, hi-lo)
		args := make([]interface{}, 0, (hi-lo)*7)
		for _, t := range ticks[lo:hi] {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				q.Symbol, q.SecType, t.Timestamp.UTC(),
				t.Price, t.Size, t.ExchangeCode, t.SpecialConditions,
			)
		}
		stmt := fmt.Sprintf(
			"INSERT INTO %s (symbol, sec_type, ts, price, size, exchange_code, special_conditions) VALUES %s",
			s.tickTable, strings.Join(values, ","),
		)
		if _, err := s.db.ExecContext(ctx, stmt, args...); err != nil {
			s.logErr("write_ticks insert error", q, err)
			return fmt.Errorf("write ticks: %w", err)
		}
	}
	if s.l != nil {
		s.l.Info("clickhouse write_ticks ok",
			applogger.String("symbol", q.Symbol),
			applogger.Int("rows", len(ticks)),
		)
	}
	return nil
}

func (s *CHMarketStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHMarketStore) logErr(msg string, q models.Query, err error) {
	if s.l == nil {
		return
	}
	s.l.Error(msg,
		applogger.String("symbol", q.Symbol),
		applogger.String("sec_type", q.SecType),
		applogger.Error(err),
	)
}

var _ domrepo.MarketStore = (*CHMarketStore)(nil)
