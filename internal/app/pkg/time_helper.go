package pkg

import (
	"fmt"
	"time"
)

// NormalizeUTC converts t to UTC truncated to whole seconds. Claims
// timestamps are normalized at issuance so the canonical JSON encoding,
// and therefore the signature, is stable across re-encodes.
func NormalizeUTC(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// FormatRemaining renders the time until expiry for display
// (e.g. "23h 59m"). Elapsed or zero durations render as "expired".
func FormatRemaining(until time.Duration) string {
	if until <= 0 {
		return "expired"
	}

	hours := int(until.Hours())
	minutes := int(until.Minutes()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%ds", int(until.Seconds()))
}
