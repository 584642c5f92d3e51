package service

import (
	"context"
	"errors"
	"time"

	"herald/internal/models"
	"herald/internal/retry"
	"herald/pkg/discord/types"

	"github.com/sirupsen/logrus"
)

// Crossposter is the single platform call the executor needs.
type Crossposter interface {
	CrosspostMessage(ctx context.Context, channelID, messageID string) error
}

// Publisher executes the publish call for one message with rate-limit-aware,
// bounded retry.
type Publisher interface {
	Publish(ctx context.Context, channelID, messageID string) models.PublishResult
}

// PublishExecutor retries rate-limited calls after the signaled wait plus a
// jitter margin, retries generic failures with exponential backoff, and never
// retries permission errors. The attempt ceiling bounds worst-case latency
// per message so one bad call cannot stall the event stream.
type PublishExecutor struct {
	client            Crossposter
	backoff           *retry.Backoff
	jitterMargin      time.Duration
	rateLimitFallback time.Duration
	logger            *logrus.Logger
}

// ExecutorConfig tunes the retry policy.
type ExecutorConfig struct {
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	JitterMargin      time.Duration
	RateLimitFallback time.Duration
}

func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		MaxAttempts:       3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		JitterMargin:      250 * time.Millisecond,
		RateLimitFallback: 60 * time.Second,
	}
}

func NewPublishExecutor(client Crossposter, cfg ExecutorConfig, logger *logrus.Logger) *PublishExecutor {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultExecutorConfig().MaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = DefaultExecutorConfig().InitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = DefaultExecutorConfig().MaxBackoff
	}
	if cfg.RateLimitFallback <= 0 {
		cfg.RateLimitFallback = DefaultExecutorConfig().RateLimitFallback
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}
	return &PublishExecutor{
		client: client,
		backoff: retry.NewBackoff(retry.BackoffConfig{
			InitialDelay: cfg.InitialBackoff,
			MaxDelay:     cfg.MaxBackoff,
			Multiplier:   2.0,
			MaxAttempts:  cfg.MaxAttempts,
			Jitter:       true,
		}),
		jitterMargin:      cfg.JitterMargin,
		rateLimitFallback: cfg.RateLimitFallback,
		logger:            logger,
	}
}

// Publish attempts the crosspost call up to the attempt ceiling. The result
// always reports the total attempts made.
func (e *PublishExecutor) Publish(ctx context.Context, channelID, messageID string) models.PublishResult {
	maxAttempts := e.backoff.MaxAttempts()
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := e.client.CrosspostMessage(ctx, channelID, messageID)
		if err == nil {
			return models.PublishResult{Outcome: models.PublishSuccess, AttemptCount: attempt}
		}
		lastErr = err

		var rateLimit *types.RateLimitError
		var forbidden *types.ForbiddenError

		switch {
		case errors.As(err, &forbidden):
			// Missing Manage Messages on the channel; retrying cannot help.
			e.logger.WithFields(logrus.Fields{
				LogFieldChannelID: channelID,
				LogFieldMessageID: messageID,
				LogFieldAttempt:   attempt,
			}).WithError(err).Error("Forbidden to publish message")
			return models.PublishResult{
				Outcome:      models.PublishPermanentFailure,
				AttemptCount: attempt,
				Err:          err,
			}

		case errors.As(err, &rateLimit):
			if attempt == maxAttempts {
				break
			}
			wait := rateLimit.RetryAfter
			if wait <= 0 {
				wait = e.rateLimitFallback
			}
			wait += e.jitterMargin
			e.logger.WithFields(logrus.Fields{
				LogFieldChannelID: channelID,
				LogFieldMessageID: messageID,
				LogFieldAttempt:   attempt,
				"retry_after":     wait.String(),
			}).Warn("Rate limited while publishing, waiting before retry")
			if !e.wait(ctx, wait) {
				return models.PublishResult{
					Outcome:      models.PublishTransientFailure,
					AttemptCount: attempt,
					RetryAfter:   rateLimit.RetryAfter,
					Err:          ctx.Err(),
				}
			}

		default:
			if attempt == maxAttempts {
				break
			}
			delay := e.backoff.NextDelay(attempt)
			e.logger.WithFields(logrus.Fields{
				LogFieldChannelID: channelID,
				LogFieldMessageID: messageID,
				LogFieldAttempt:   attempt,
				"backoff":         delay.String(),
			}).WithError(err).Warn("Publish attempt failed, backing off")
			if !e.wait(ctx, delay) {
				return models.PublishResult{
					Outcome:      models.PublishTransientFailure,
					AttemptCount: attempt,
					Err:          ctx.Err(),
				}
			}
		}
	}

	return models.PublishResult{
		Outcome:      models.PublishTransientFailure,
		AttemptCount: maxAttempts,
		Err:          lastErr,
	}
}

// wait sleeps for d or until ctx is done; false means the context ended.
func (e *PublishExecutor) wait(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
