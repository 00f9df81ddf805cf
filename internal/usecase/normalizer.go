package usecase

import (
	"strings"
	"time"

	"HistPull/internal/domain/models"
	domrepo "HistPull/internal/domain/repository"
)

// Request normalization: canonicalize an inbound request into a Query with
// every default resolved, so that logically identical requests (different
// field order, absent vs default-supplied values) produce identical Queries
// and therefore identical fingerprints. Pure functions, no side effects.

const (
	defaultSecType    = "STK"
	defaultWhatToShow = "TRADES"
	defaultDuration   = "1 D"
	defaultTickCount  = 1000
)

// NormalizeBars canonicalizes a bar request. now supplies the anchor when
// endDateTime is absent.
func NormalizeBars(req *models.MarketDataRequest, now time.Time) (models.Query, error) {
	anchor := now.UTC().Truncate(time.Second)
	if req.EndDateTime != "" {
		t, err := ParseAnchor(req.EndDateTime)
		if err != nil {
			return models.Query{}, err
		}
		anchor = t
	}

	duration := req.Duration
	if duration == "" {
		duration = defaultDuration
	}

	q := models.Query{
		Symbol:     strings.ToUpper(strings.TrimSpace(req.Symbol)),
		SecType:    orDefault(req.SecType, defaultSecType),
		AnchorEnd:  anchor,
		Window:     ResolveWindow(anchor, duration),
		BarSize:    domrepo.NormalizeBarSize(req.BarSize),
		WhatToShow: orDefault(req.WhatToShow, defaultWhatToShow),
		UseRTH:     boolOrTrue(req.UseRTH),
	}
	return q, nil
}

// NormalizeTicks canonicalizes a tick request. An absent end defaults to
// now; an absent start defaults to one month before the end.
func NormalizeTicks(req *models.HistoricalTicksRequest, now time.Time) (models.Query, error) {
	end := now.UTC().Truncate(time.Second)
	if req.EndDate != "" {
		t, err := ParseAnchor(req.EndDate)
		if err != nil {
			return models.Query{}, err
		}
		end = t
	}

	start := end.AddDate(0, -1, 0)
	if req.StartDate != "" {
		t, err := ParseAnchor(req.StartDate)
		if err != nil {
			return models.Query{}, err
		}
		start = t
	}

	count := req.NumberOfTicks
	if count <= 0 {
		count = defaultTickCount
	}

	q := models.Query{
		Symbol:      strings.ToUpper(strings.TrimSpace(req.Symbol)),
		SecType:     orDefault(req.SecType, defaultSecType),
		AnchorEnd:   end,
		Window:      models.Window{Start: start, End: end},
		TargetCount: count,
		WhatToShow:  defaultWhatToShow,
		UseRTH:      boolOrTrue(req.UseRTH),
	}
	return q, nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func boolOrTrue(b *bool) bool {
	if b == nil {
		return true
	}
	return *b
}
