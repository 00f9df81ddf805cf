package usecase

import (
	"errors"
	"testing"
	"time"

	"HistPull/internal/domain/models"
)

func barsAt(times ...time.Time) []models.Bar {
	out := make([]models.Bar, 0, len(times))
	for _, ts := range times {
		out = append(out, models.Bar{Timestamp: ts})
	}
	return out
}

func TestBarGapsMinuteGrid(t *testing.T) {
	day := time.Date(2023, 6, 30, 9, 0, 0, 0, time.UTC)
	at := func(m int) time.Time { return day.Add(time.Duration(m) * time.Minute) }

	window := models.Window{Start: at(0), End: at(10)}
	existing := barsAt(at(0), at(1), at(4), at(5), at(9))

	gaps, err := BarGaps(window, time.Minute, existing)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []models.Gap{
		{Start: at(2), End: at(3)},
		{Start: at(6), End: at(8)},
	}
	if len(gaps) != len(want) {
		t.Fatalf("got %d gaps %v, want %d", len(gaps), gaps, len(want))
	}
	for i := range want {
		if !gaps[i].Start.Equal(want[i].Start) || !gaps[i].End.Equal(want[i].End) {
			t.Fatalf("gap %d = [%v, %v], want [%v, %v]",
				i, gaps[i].Start, gaps[i].End, want[i].Start, want[i].End)
		}
	}
}

func TestBarGapsLeadingAndTrailing(t *testing.T) {
	day := time.Date(2023, 6, 30, 9, 0, 0, 0, time.UTC)
	at := func(m int) time.Time { return day.Add(time.Duration(m) * time.Minute) }

	window := models.Window{Start: at(0), End: at(10)}
	existing := barsAt(at(3), at(4), at(5))

	gaps, err := BarGaps(window, time.Minute, existing)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gaps) != 2 {
		t.Fatalf("got %d gaps %v, want 2", len(gaps), gaps)
	}
	if !gaps[0].Start.Equal(at(0)) || !gaps[0].End.Equal(at(2)) {
		t.Fatalf("leading gap = [%v, %v]", gaps[0].Start, gaps[0].End)
	}
	if !gaps[1].Start.Equal(at(6)) || !gaps[1].End.Equal(at(10)) {
		t.Fatalf("trailing gap = [%v, %v]", gaps[1].Start, gaps[1].End)
	}
}

func TestBarGapsEmptyStore(t *testing.T) {
	window := models.Window{
		Start: time.Date(2023, 6, 30, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2023, 6, 30, 16, 0, 0, 0, time.UTC),
	}
	gaps, err := BarGaps(window, time.Minute, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gaps) != 1 || !gaps[0].Start.Equal(window.Start) || !gaps[0].End.Equal(window.End) {
		t.Fatalf("expected one full-window gap, got %v", gaps)
	}
}

func TestBarGapsFullyCovered(t *testing.T) {
	day := time.Date(2023, 6, 30, 9, 0, 0, 0, time.UTC)
	at := func(m int) time.Time { return day.Add(time.Duration(m) * time.Minute) }
	window := models.Window{Start: at(0), End: at(5)}

	gaps, err := BarGaps(window, time.Minute, barsAt(at(0), at(1), at(2), at(3), at(4)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gaps) != 0 {
		t.Fatalf("expected zero gaps, got %v", gaps)
	}
}

func TestBarGapsEmptyWindow(t *testing.T) {
	ts := time.Date(2023, 6, 30, 9, 0, 0, 0, time.UTC)
	for _, end := range []time.Time{ts, ts.Add(-time.Minute)} {
		_, err := BarGaps(models.Window{Start: ts, End: end}, time.Minute, nil)
		if !errors.Is(err, models.ErrEmptyWindow) {
			t.Fatalf("expected ErrEmptyWindow, got %v", err)
		}
	}
}

// Coverage property: every expected grid slot is either an existing record
// or inside exactly one returned gap, and gaps never overlap.
func TestBarGapsCoverage(t *testing.T) {
	day := time.Date(2023, 6, 30, 9, 0, 0, 0, time.UTC)
	at := func(m int) time.Time { return day.Add(time.Duration(m) * time.Minute) }
	window := models.Window{Start: at(0), End: at(30)}
	existing := barsAt(at(0), at(2), at(3), at(7), at(11), at(12), at(13), at(20), at(29))

	gaps, err := BarGaps(window, time.Minute, existing)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < len(gaps); i++ {
		if !gaps[i-1].End.Before(gaps[i].Start) {
			t.Fatalf("gaps overlap or unordered: %v then %v", gaps[i-1], gaps[i])
		}
	}
	have := map[time.Time]bool{}
	for _, b := range existing {
		have[b.Timestamp] = true
	}
	inGap := func(ts time.Time) bool {
		for _, g := range gaps {
			if !ts.Before(g.Start) && !ts.After(g.End) {
				return true
			}
		}
		return false
	}
	for slot := window.Start; slot.Before(window.End); slot = slot.Add(time.Minute) {
		if have[slot] == inGap(slot) {
			t.Fatalf("slot %v: existing=%v inGap=%v", slot, have[slot], inGap(slot))
		}
	}
}

func TestTickDeficit(t *testing.T) {
	window := models.Window{
		Start: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC),
	}

	gap, deficit, err := TickDeficit(window, 500, 300)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deficit != 200 {
		t.Fatalf("deficit = %d, want 200", deficit)
	}
	if !gap.Start.Equal(window.Start) || !gap.End.Equal(window.End) {
		t.Fatalf("gap = [%v, %v], want full window", gap.Start, gap.End)
	}

	if _, deficit, _ = TickDeficit(window, 500, 500); deficit != 0 {
		t.Fatalf("satisfied count: deficit = %d", deficit)
	}
	if _, deficit, _ = TickDeficit(window, 500, 800); deficit != 0 {
		t.Fatalf("surplus count: deficit = %d", deficit)
	}

	if _, _, err = TickDeficit(models.Window{Start: window.End, End: window.Start}, 500, 0); !errors.Is(err, models.ErrEmptyWindow) {
		t.Fatalf("expected ErrEmptyWindow, got %v", err)
	}
}
