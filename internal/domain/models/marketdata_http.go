package models

// Inbound request shapes for the market data HTTP endpoints. Defined in
// domain for consistency and reuse; defaults and validation run through the
// shared request pipeline in pkg/http.

type MarketDataRequest struct {
	Symbol      string `json:"symbol" validate:"required"`
	SecType     string `json:"secType" default:"STK"`
	EndDateTime string `json:"endDateTime"` // YYYYMMDD-HH:MM:SS UTC, empty = now
	Duration    string `json:"duration" default:"1 D"`
	BarSize     string `json:"barSize" default:"1 min"`
	WhatToShow  string `json:"whatToShow" default:"TRADES"`
	UseRTH      *bool  `json:"useRTH" default:"true"`
}

type HistoricalTicksRequest struct {
	Symbol        string `json:"symbol" validate:"required"`
	SecType       string `json:"secType" default:"STK"`
	StartDate     string `json:"startDate"` // empty = one month before end
	EndDate       string `json:"endDate"`   // empty = now
	NumberOfTicks int    `json:"numberOfTicks" default:"1000" validate:"gte=1,lte=100000"`
	UseRTH        *bool  `json:"useRTH" default:"true"`
}
