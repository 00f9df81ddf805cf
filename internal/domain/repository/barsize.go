package repository

import (
	"strconv"
	"strings"
	"time"
)

// DefaultBarSize is the cadence used when a request omits the bar size.
const DefaultBarSize = "1 min"

// NormalizeBarSize returns a usable bar size for raw input (or the default).
func NormalizeBarSize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultBarSize
	}
	return s
}

// BarSizeStep converts an upstream bar size string ("<n> <unit>") to its
// cadence step. Unrecognized units and malformed counts fall back to one
// minute rather than failing; callers that need strict parsing must
// validate upstream.
func BarSizeStep(barSize string) time.Duration {
	parts := strings.Fields(barSize)
	if len(parts) != 2 {
		return time.Minute
	}
	n, err := strconv.Atoi(parts[0])
	if err != nil || n <= 0 {
		return time.Minute
	}
	switch strings.ToLower(parts[1]) {
	case "sec", "secs", "second", "seconds":
		return time.Duration(n) * time.Second
	case "min", "mins", "minute", "minutes":
		return time.Duration(n) * time.Minute
	case "hour", "hours":
		return time.Duration(n) * time.Hour
	case "day", "days":
		return time.Duration(n) * 24 * time.Hour
	default:
		return time.Minute
	}
}
