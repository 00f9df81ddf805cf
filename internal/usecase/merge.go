package usecase

import (
	"sort"
	"time"

	"HistPull/internal/domain/models"
)

// mergeByTime concatenates batches, stable-sorts ascending by timestamp and
// drops any record whose timestamp equals the previous surviving record's.
// The stable sort means ties keep input order, so first-seen wins; the
// whole operation is idempotent.
func mergeByTime[T any](ts func(T) time.Time, batches ...[]T) []T {
	var out []T
	for _, b := range batches {
		out = append(out, b...)
	}
	if len(out) == 0 {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		return ts(out[i]).Before(ts(out[j]))
	})

	kept := out[:1]
	for _, r := range out[1:] {
		if ts(r).Equal(ts(kept[len(kept)-1])) {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

// MergeBars merges bar batches into one sorted, duplicate-free sequence.
func MergeBars(batches ...[]models.Bar) []models.Bar {
	return mergeByTime(func(b models.Bar) time.Time { return b.Timestamp }, batches...)
}

// MergeTicks merges tick batches into one sorted, duplicate-free sequence.
func MergeTicks(batches ...[]models.Tick) []models.Tick {
	return mergeByTime(func(t models.Tick) time.Time { return t.Timestamp }, batches...)
}

// lastN returns the trailing n elements (all of xs when n >= len).
func lastN[T any](xs []T, n int) []T {
	if n >= len(xs) {
		return xs
	}
	return xs[len(xs)-n:]
}
