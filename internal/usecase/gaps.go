package usecase

import (
	"time"

	"HistPull/internal/domain/models"
)

// BarGaps computes the ordered, non-overlapping set of missing sub-windows
// for a bar series, treating the window as a fixed grid with one expected
// record every step starting at window.Start. Records must be ascending and
// already restricted to the window (the store read contract guarantees
// both). Gap bounds are inclusive cadence slots.
//
// The detector is exact to the step: a single missing sample produces a
// single-slot gap. Consumers wanting tolerance for occasional provider-side
// holes must feed a coarser step.
func BarGaps(window models.Window, step time.Duration, existing []models.Bar) ([]models.Gap, error) {
	if !window.Start.Before(window.End) {
		return nil, models.ErrEmptyWindow
	}
	if len(existing) == 0 {
		return []models.Gap{{Start: window.Start, End: window.End}}, nil
	}

	var gaps []models.Gap

	if first := existing[0].Timestamp; first.After(window.Start) {
		gaps = append(gaps, models.Gap{Start: window.Start, End: first.Add(-step)})
	}

	for i := 1; i < len(existing); i++ {
		prev := existing[i-1].Timestamp
		curr := existing[i].Timestamp
		if curr.Sub(prev) > step {
			gaps = append(gaps, models.Gap{Start: prev.Add(step), End: curr.Add(-step)})
		}
	}

	if last := existing[len(existing)-1].Timestamp; last.Before(window.End.Add(-step)) {
		gaps = append(gaps, models.Gap{Start: last.Add(step), End: window.End})
	}

	return gaps, nil
}

// TickDeficit computes the count-based gap for tick data. Ticks carry no
// cadence, so "missing" is a count shortfall, not a range: a positive
// deficit yields one synthetic gap spanning the whole window with the
// number of prints still needed.
func TickDeficit(window models.Window, targetCount, existingCount int) (models.Gap, int, error) {
	if !window.Start.Before(window.End) {
		return models.Gap{}, 0, models.ErrEmptyWindow
	}
	deficit := targetCount - existingCount
	if deficit <= 0 {
		return models.Gap{}, 0, nil
	}
	return models.Gap{Start: window.Start, End: window.End}, deficit, nil
}
