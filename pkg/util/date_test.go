package util

import (
	"testing"
	"time"
)

func TestParseAnchorTime(t *testing.T) {
	got, err := ParseAnchorTime("20230630-16:00:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2023, 6, 30, 16, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseAnchorTimeRejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "2023-06-30T16:00:00Z", "20230630 16:00:00", "20231350-99:00:00"} {
		if _, err := ParseAnchorTime(s); err == nil {
			t.Fatalf("expected error for %q", s)
		}
	}
}

func TestFormatAnchorTimeRoundTrip(t *testing.T) {
	want := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got, err := ParseAnchorTime(FormatAnchorTime(want))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("round trip mismatch: %v != %v", got, want)
	}
}
