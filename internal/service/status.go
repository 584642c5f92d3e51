package service

import (
	"fmt"
	"strings"
	"time"

	"herald/internal/models"
)

// FormatStatusMessage renders a snapshot as the chat reply for the status
// command.
func FormatStatusMessage(snap models.StatusSnapshot) string {
	var b strings.Builder

	b.WriteString("**Herald Status**\n")
	fmt.Fprintf(&b, "Last 24h: ✅ published %d, ❌ failed %d, processed %d\n",
		snap.PublishedLast24h, snap.FailedLast24h, snap.ProcessedLast24h)
	fmt.Fprintf(&b, "Uptime: %s\n", FormatUptime(snap.Uptime))

	if len(snap.RecentFailures) > 0 {
		b.WriteString("Recent failures:\n")
		// Chat replies stay short; the HTTP status endpoint has the full list.
		failures := snap.RecentFailures
		if len(failures) > 3 {
			failures = failures[:3]
		}
		for _, f := range failures {
			detail := f.Detail
			if len(detail) > 80 {
				detail = detail[:80] + "…"
			}
			fmt.Fprintf(&b, "• <#%s>: %s\n", f.ChannelID, detail)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// FormatUptime renders a duration as "2d 5h 13m".
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := int(d / (24 * time.Hour))
	hours := int(d/time.Hour) % 24
	minutes := int(d/time.Minute) % 60
	return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
}
