package util

import (
	"fmt"
	"time"
)

// AnchorTimeLayout is the fixed wire format for anchor timestamps, always
// interpreted as UTC.
const AnchorTimeLayout = "20060102-15:04:05"

// ParseAnchorTime parses a YYYYMMDD-HH:MM:SS anchor string as UTC.
func ParseAnchorTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(AnchorTimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse anchor time %q: %w", s, err)
	}
	return t, nil
}

// FormatAnchorTime formats t in the anchor wire format (UTC).
func FormatAnchorTime(t time.Time) string {
	return t.UTC().Format(AnchorTimeLayout)
}
