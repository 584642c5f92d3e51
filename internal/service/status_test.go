package service

import (
	"strings"
	"testing"
	"time"

	"herald/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestFormatStatusMessage_Counts(t *testing.T) {
	snap := models.StatusSnapshot{
		PublishedLast24h: 7,
		FailedLast24h:    2,
		ProcessedLast24h: 9,
		Uptime:           2*24*time.Hour + 5*time.Hour + 13*time.Minute,
	}

	out := FormatStatusMessage(snap)

	assert.Contains(t, out, "published 7")
	assert.Contains(t, out, "failed 2")
	assert.Contains(t, out, "processed 9")
	assert.Contains(t, out, "2d 5h 13m")
	assert.NotContains(t, out, "Recent failures")
}

func TestFormatStatusMessage_FailuresCapped(t *testing.T) {
	snap := models.StatusSnapshot{FailedLast24h: 5}
	for i := 0; i < 5; i++ {
		snap.RecentFailures = append(snap.RecentFailures, models.FailureSummary{
			ChannelID: "chan-1",
			Detail:    "boom",
		})
	}

	out := FormatStatusMessage(snap)

	assert.Contains(t, out, "Recent failures")
	assert.Equal(t, 3, strings.Count(out, "<#chan-1>"))
}

func TestFormatStatusMessage_TruncatesLongDetail(t *testing.T) {
	snap := models.StatusSnapshot{
		FailedLast24h: 1,
		RecentFailures: []models.FailureSummary{
			{ChannelID: "chan-1", Detail: strings.Repeat("x", 200)},
		},
	}

	out := FormatStatusMessage(snap)

	assert.Contains(t, out, strings.Repeat("x", 80)+"…")
	assert.NotContains(t, out, strings.Repeat("x", 81))
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{0, "0d 0h 0m"},
		{90 * time.Second, "0d 0h 1m"},
		{3 * time.Hour, "0d 3h 0m"},
		{26*time.Hour + 30*time.Minute, "1d 2h 30m"},
		{-time.Minute, "0d 0h 0m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatUptime(tt.d))
	}
}
