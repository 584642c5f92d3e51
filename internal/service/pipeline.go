package service

import (
	"context"
	"time"

	"herald/internal/metrics"
	"herald/internal/models"
	"herald/internal/tracing"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// PipelineConfig bounds the in-memory state the pipeline owns.
type PipelineConfig struct {
	Retention          time.Duration
	RecentFailureLimit int
}

func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Retention:          24 * time.Hour,
		RecentFailureLimit: 10,
	}
}

// Pipeline coordinates one inbound event through classification, dedup,
// publish, and statistics. It is the sole owner of the dedup ledger and the
// statistics register; both are created here and torn down with the process.
// Every failure is absorbed into a stat event and a log line so one bad
// message never stops event processing for the rest.
type Pipeline struct {
	classifier *Classifier
	ledger     *DedupLedger
	stats      *StatsRegister
	executor   Publisher
	logger     *logrus.Logger
}

func NewPipeline(executor Publisher, cfg PipelineConfig, logger *logrus.Logger) *Pipeline {
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultPipelineConfig().Retention
	}
	if cfg.RecentFailureLimit <= 0 {
		cfg.RecentFailureLimit = DefaultPipelineConfig().RecentFailureLimit
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}
	return &Pipeline{
		classifier: NewClassifier(),
		ledger:     NewDedupLedger(cfg.Retention),
		stats:      NewStatsRegister(cfg.Retention, cfg.RecentFailureLimit),
		executor:   executor,
		logger:     logger,
	}
}

// HandleMessage runs one pipeline pass. Invocations for distinct messages may
// run concurrently; shared state is internally synchronized and the only
// blocking waits (publish retries) are private to this invocation.
func (p *Pipeline) HandleMessage(ctx context.Context, ev models.MessageEvent) {
	ctx, span := tracing.StartSpan(ctx, "pipeline.handle_message",
		attribute.String("message.id", ev.ID),
		attribute.String("channel.id", ev.ChannelID),
	)
	defer span.End()

	metrics.IncrementCounter("herald_messages_received_total", nil, "Messages delivered by the gateway")

	decision := p.classifier.Classify(ev)
	if !decision.Eligible {
		p.handleIneligible(ev, decision)
		return
	}

	if !p.ledger.TryAcquire(ev.ID) {
		metrics.IncrementCounter("herald_duplicate_messages_total", nil, "Messages skipped by the dedup ledger")
		p.logger.WithFields(logrus.Fields{
			LogFieldMessageID: ev.ID,
			LogFieldChannelID: ev.ChannelID,
		}).Debug("Duplicate delivery, already handled")
		return
	}

	p.logger.WithFields(logrus.Fields{
		LogFieldMessageID:  ev.ID,
		LogFieldChannelID:  ev.ChannelID,
		LogFieldGuildID:    ev.GuildID,
		LogFieldAuthor:     ev.AuthorTag,
		LogFieldAuthorKind: string(decision.Originator),
	}).Info("New announcement message, publishing")

	result := p.executor.Publish(ctx, ev.ChannelID, ev.ID)
	p.recordResult(ev, result)
}

func (p *Pipeline) handleIneligible(ev models.MessageEvent, decision Decision) {
	// Already-published copies of announcement traffic still count as
	// processed messages; everything else (wrong channel, our own chatter,
	// other bots outside the webhook carve-out) is dropped silently.
	if decision.Reason == ReasonAlreadyPublished {
		p.stats.Record(models.StatEvent{
			Kind:      models.StatMessageSeen,
			ChannelID: ev.ChannelID,
			Detail:    string(decision.Reason),
		})
	}
	p.logger.WithFields(logrus.Fields{
		LogFieldMessageID: ev.ID,
		LogFieldChannelID: ev.ChannelID,
		LogFieldReason:    string(decision.Reason),
	}).Debug("Message not eligible for publication")
}

func (p *Pipeline) recordResult(ev models.MessageEvent, result models.PublishResult) {
	if result.Succeeded() {
		p.stats.Record(models.StatEvent{
			Kind:      models.StatPublished,
			ChannelID: ev.ChannelID,
		})
		metrics.IncrementCounter("herald_messages_published_total", nil, "Messages successfully crossposted")
		p.logger.WithFields(logrus.Fields{
			LogFieldMessageID: ev.ID,
			LogFieldChannelID: ev.ChannelID,
			LogFieldAttempts:  result.AttemptCount,
		}).Info("Successfully published message")
		return
	}

	detail := string(result.Outcome)
	if result.Err != nil {
		detail = result.Err.Error()
	}
	p.stats.Record(models.StatEvent{
		Kind:      models.StatProcessingFailed,
		ChannelID: ev.ChannelID,
		Detail:    detail,
	})
	metrics.IncrementCounter("herald_publish_failures_total",
		map[string]string{"outcome": string(result.Outcome)},
		"Publish attempts that ended in failure")
	p.logger.WithError(result.Err).WithFields(logrus.Fields{
		LogFieldMessageID: ev.ID,
		LogFieldChannelID: ev.ChannelID,
		LogFieldOutcome:   string(result.Outcome),
		LogFieldAttempts:  result.AttemptCount,
	}).Error("Failed to publish message")
}

// Snapshot serves the status query front ends.
func (p *Pipeline) Snapshot() models.StatusSnapshot {
	return p.stats.Snapshot()
}

// SweepRetention prunes the ledger and the statistics register. Called by the
// sweep scheduler on its own cadence; safe against concurrent handling.
func (p *Pipeline) SweepRetention(ctx context.Context) error {
	droppedEntries := p.ledger.Sweep()
	droppedEvents := p.stats.Sweep()

	metrics.SetGauge("herald_dedup_ledger_size", float64(p.ledger.Size()), nil, "Active dedup ledger entries")

	if droppedEntries > 0 || droppedEvents > 0 {
		p.logger.WithFields(logrus.Fields{
			"ledger_entries": droppedEntries,
			"stat_events":    droppedEvents,
		}).Info("Cleaned up expired records")
	}
	return ctx.Err()
}
