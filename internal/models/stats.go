package models

import "time"

// StatEventKind distinguishes the events the statistics register tracks.
type StatEventKind string

const (
	StatPublished        StatEventKind = "published"
	StatProcessingFailed StatEventKind = "processing_failed"
	StatMessageSeen      StatEventKind = "message_seen"
)

// StatEvent is one entry in the time-bounded statistics log. Append-only from
// the pipeline's perspective; the register owns pruning.
type StatEvent struct {
	Kind      StatEventKind `json:"kind"`
	Timestamp time.Time     `json:"timestamp"`
	ChannelID string        `json:"channelId"`
	Detail    string        `json:"detail,omitempty"`
}

// FailureSummary is one recent failure as surfaced by the status query.
type FailureSummary struct {
	ChannelID string    `json:"channelId"`
	Detail    string    `json:"detail"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusSnapshot is the read-only aggregate served to the status front ends.
// Recomputed from the live event set on every query, never persisted.
type StatusSnapshot struct {
	PublishedLast24h int              `json:"publishedLast24h"`
	FailedLast24h    int              `json:"failedLast24h"`
	ProcessedLast24h int              `json:"processedLast24h"`
	RecentFailures   []FailureSummary `json:"recentFailures"`
	Uptime           time.Duration    `json:"-"`
	UptimeSeconds    int64            `json:"uptimeSeconds"`
	GeneratedAt      time.Time        `json:"generatedAt"`
}
