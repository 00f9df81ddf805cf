package usecase

import (
	"testing"
	"time"

	"HistPull/internal/domain/models"
)

func TestMergeBarsSortsAndDedupes(t *testing.T) {
	base := time.Date(2023, 6, 30, 9, 0, 0, 0, time.UTC)
	at := func(m int) time.Time { return base.Add(time.Duration(m) * time.Minute) }

	a := []models.Bar{{Timestamp: at(3), Close: 3}, {Timestamp: at(1), Close: 1}}
	b := []models.Bar{{Timestamp: at(2), Close: 2}, {Timestamp: at(1), Close: 99}} // dup at(1)

	got := MergeBars(a, b)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3: %v", len(got), got)
	}
	for i := 1; i < len(got); i++ {
		if !got[i-1].Timestamp.Before(got[i].Timestamp) {
			t.Fatalf("not strictly ascending at %d", i)
		}
	}
	// First-seen wins for equal timestamps: the record from batch a.
	if got[0].Close != 1 {
		t.Fatalf("dedup kept close=%v, want first-seen 1", got[0].Close)
	}
}

func TestMergeIdempotent(t *testing.T) {
	base := time.Date(2023, 6, 30, 9, 0, 0, 0, time.UTC)
	batches := [][]models.Tick{
		{{Timestamp: base.Add(5 * time.Second), Price: 5}, {Timestamp: base, Price: 0}},
		{{Timestamp: base.Add(2 * time.Second), Price: 2}, {Timestamp: base, Price: 9}},
	}
	once := MergeTicks(batches...)
	twice := MergeTicks(once)
	if len(once) != len(twice) {
		t.Fatalf("idempotency broken: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if !once[i].Timestamp.Equal(twice[i].Timestamp) || once[i].Price != twice[i].Price {
			t.Fatalf("idempotency broken at %d: %v vs %v", i, once[i], twice[i])
		}
	}
}

func TestMergeEmpty(t *testing.T) {
	if got := MergeBars(); len(got) != 0 {
		t.Fatalf("expected empty merge, got %v", got)
	}
	if got := MergeTicks(nil, []models.Tick{}); len(got) != 0 {
		t.Fatalf("expected empty merge, got %v", got)
	}
}

func TestLastN(t *testing.T) {
	xs := []int{1, 2, 3, 4, 5}
	if got := lastN(xs, 2); len(got) != 2 || got[0] != 4 || got[1] != 5 {
		t.Fatalf("lastN = %v", got)
	}
	if got := lastN(xs, 10); len(got) != 5 {
		t.Fatalf("lastN over length = %v", got)
	}
}
