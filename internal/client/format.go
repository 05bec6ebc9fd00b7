package client

import (
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatCount renders a like count for display: 999, 1.2K, 3.4M
func FormatCount(n int) string {
	switch {
	case n >= 1_000_000:
		return strconv.FormatFloat(float64(n)/1_000_000, 'f', 1, 64) + "M"
	case n >= 1_000:
		return strconv.FormatFloat(float64(n)/1_000, 'f', 1, 64) + "K"
	default:
		return strconv.Itoa(n)
	}
}

// FormatRelativeTime renders a post timestamp relative to now: "now", "3 hours ago"
func FormatRelativeTime(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}
