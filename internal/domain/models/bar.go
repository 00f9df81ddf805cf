package models

import "time"

// Bar is an aggregated OHLCV record for one fixed bar-size interval.
// Bars are immutable once persisted; identity is
// (symbol, secType, barSize, whatToShow, useRTH, timestamp).
type Bar struct {
	Timestamp  time.Time `json:"date"`
	Open       float64   `json:"open"`
	High       float64   `json:"high"`
	Low        float64   `json:"low"`
	Close      float64   `json:"close"`
	Volume     float64   `json:"volume"`
	TradeCount int64     `json:"count,omitempty"`
	WAP        float64   `json:"wap,omitempty"`
	HasGaps    bool      `json:"hasGaps,omitempty"`
}
