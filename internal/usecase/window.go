package usecase

import (
	"fmt"
	"math"
	"strings"
	"time"

	"HistPull/internal/domain/models"
	"HistPull/pkg/util"
)

// ResolveWindow converts an absolute anchor end plus a relative duration
// expression ("<integer> <unit>") into a half-open [start, end) window.
// Units: seconds, days, weeks, months, years (case-insensitive, singular or
// plural, or the upstream single-letter forms). Unrecognized units fall
// back to day-based subtraction; this leniency is deliberate so minor
// upstream formatting variance never fails a request.
func ResolveWindow(anchorEnd time.Time, durationExpr string) models.Window {
	end := anchorEnd.UTC()
	count, unit := splitDuration(durationExpr)

	var start time.Time
	switch unit {
	case "s", "sec", "secs", "second", "seconds":
		start = end.Add(-time.Duration(count) * time.Second)
	case "w", "week", "weeks":
		start = end.AddDate(0, 0, -7*count)
	case "m", "month", "months":
		start = end.AddDate(0, -count, 0)
	case "y", "year", "years":
		start = end.AddDate(-count, 0, 0)
	default: // "d", "day", "days" and anything unrecognized
		start = end.AddDate(0, 0, -count)
	}
	return models.Window{Start: start, End: end}
}

// DurationFor is the inverse of ResolveWindow: it chooses a coarse duration
// expression guaranteed to cover end - start. Spans up to one hour are
// expressed in whole seconds (the upstream API is second-granular for short
// windows); anything longer is expressed in whole days, both rounded up so
// a fetch windowed on the result always covers at least the span.
func DurationFor(start, end time.Time) string {
	span := end.Sub(start)
	if span <= 0 {
		return "1 S"
	}
	if span <= time.Hour {
		return fmt.Sprintf("%d S", int64(math.Ceil(span.Seconds())))
	}
	days := int64(math.Ceil(span.Hours() / 24))
	return fmt.Sprintf("%d D", days)
}

// ParseAnchor parses the fixed YYYYMMDD-HH:MM:SS UTC anchor format,
// reporting models.ErrInvalidTimestamp on malformed input.
func ParseAnchor(s string) (time.Time, error) {
	t, err := util.ParseAnchorTime(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", models.ErrInvalidTimestamp, err)
	}
	return t, nil
}

func splitDuration(expr string) (int, string) {
	parts := strings.Fields(expr)
	if len(parts) != 2 {
		return 1, "d"
	}
	count := util.ParseIntDefault(parts[0], 1)
	if count < 0 {
		count = 1
	}
	return count, strings.ToLower(parts[1])
}
