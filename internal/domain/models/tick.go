package models

import "time"

// Tick is a single trade print. Identity is (symbol, secType, timestamp);
// equal-timestamp collisions are deduplicated first-seen at merge time.
type Tick struct {
	Timestamp         time.Time `json:"time"`
	Price             float64   `json:"price"`
	Size              float64   `json:"size"`
	ExchangeCode      string    `json:"exchange,omitempty"`
	SpecialConditions string    `json:"specialConditions,omitempty"`
}
