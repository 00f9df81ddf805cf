package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Window is a half-open [Start, End) time range in UTC.
type Window struct {
	Start time.Time
	End   time.Time
}

// Gap is a sub-range of a requested window known to be absent from the
// store. For bar series Start/End are inclusive cadence slots; for ticks a
// single synthetic gap spans the whole window and Count carries the deficit.
type Gap struct {
	Start time.Time
	End   time.Time
}

// Contract is the resolved upstream instrument handle for a symbol.
type Contract struct {
	ConID    int64  `json:"conId"`
	Symbol   string `json:"symbol"`
	SecType  string `json:"secType"`
	Exchange string `json:"exchange,omitempty"`
	Currency string `json:"currency,omitempty"`
}

// Query is a normalized, fully-defaulted data request. BarSize is set for
// bar queries, TargetCount for tick queries; the other is left zero.
type Query struct {
	Symbol      string
	SecType     string
	AnchorEnd   time.Time
	Window      Window
	BarSize     string
	TargetCount int
	WhatToShow  string
	UseRTH      bool
}

// Fingerprint returns the canonical SHA-256 digest of the query. The digest
// is computed over a sorted-key serialization of the observable fields, so
// logically identical queries hash identically regardless of how they were
// constructed.
func (q Query) Fingerprint() string {
	fields := map[string]any{
		"symbol":     q.Symbol,
		"secType":    q.SecType,
		"start":      q.Window.Start.UTC().Format(time.RFC3339),
		"end":        q.Window.End.UTC().Format(time.RFC3339),
		"whatToShow": q.WhatToShow,
		"useRTH":     q.UseRTH,
	}
	if q.BarSize != "" {
		fields["barSize"] = q.BarSize
	}
	if q.TargetCount > 0 {
		fields["targetCount"] = q.TargetCount
	}
	// json.Marshal emits map keys in sorted order, which is exactly the
	// canonicalization the fingerprint relies on.
	b, _ := json.Marshal(fields)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// BackfillEvent describes one completed reconciliation, published for
// downstream consumers after the merged result is assembled.
type BackfillEvent struct {
	Symbol      string    `json:"symbol"`
	SecType     string    `json:"secType"`
	Kind        string    `json:"kind"` // "bars" or "ticks"
	Fingerprint string    `json:"fingerprint"`
	WindowStart time.Time `json:"windowStart"`
	WindowEnd   time.Time `json:"windowEnd"`
	GapsFilled  int       `json:"gapsFilled"`
	RowsFetched int       `json:"rowsFetched"`
	CompletedAt time.Time `json:"completedAt"`
}
