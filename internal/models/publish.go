package models

import "time"

// PublishOutcome is the terminal classification of one publish attempt series.
type PublishOutcome string

const (
	PublishSuccess PublishOutcome = "success"
	// PublishTransientFailure means the attempt ceiling was exhausted on
	// retryable outcomes (rate limits, network errors).
	PublishTransientFailure PublishOutcome = "transient_failure"
	// PublishPermanentFailure covers permission errors and anything else
	// retrying cannot fix.
	PublishPermanentFailure PublishOutcome = "permanent_failure"
)

// PublishResult reports how a publish call series ended. AttemptCount covers
// every attempt made, including the final one.
type PublishResult struct {
	Outcome      PublishOutcome `json:"outcome"`
	AttemptCount int            `json:"attemptCount"`
	RetryAfter   time.Duration  `json:"retryAfter,omitempty"`
	Err          error          `json:"-"`
}

// Succeeded reports whether the message was actually crossposted.
func (r PublishResult) Succeeded() bool {
	return r.Outcome == PublishSuccess
}
