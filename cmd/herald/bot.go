package main

import (
	"context"
	"strings"
	"sync"
	"time"

	"herald/internal/models"
	"herald/internal/service"
	"herald/pkg/discord"
	"herald/pkg/discord/types"

	"github.com/sirupsen/logrus"
)

// Bot glues the gateway to the pipeline and answers the status command. It
// tracks in-flight handlers so shutdown can drain them within the grace
// period.
type Bot struct {
	pipeline *service.Pipeline
	client   discord.Client
	gateway  *discord.Gateway
	prefix   string
	logger   *logrus.Logger

	ctx context.Context
	wg  sync.WaitGroup
}

func NewBot(ctx context.Context, pipeline *service.Pipeline, client discord.Client, prefix string, logger *logrus.Logger) *Bot {
	return &Bot{
		pipeline: pipeline,
		client:   client,
		prefix:   prefix,
		logger:   logger,
		ctx:      ctx,
	}
}

// SetGateway wires the gateway after construction; the gateway needs the
// bot's handler and the bot needs the gateway's self identity.
func (b *Bot) SetGateway(gw *discord.Gateway) {
	b.gateway = gw
}

// HandleGatewayMessage is the gateway event handler. It runs on a dedicated
// goroutine per dispatch, so distinct messages flow through the pipeline
// concurrently.
func (b *Bot) HandleGatewayMessage(msg types.Message, channelType int) {
	if b.ctx.Err() != nil {
		return
	}
	b.wg.Add(1)
	defer b.wg.Done()

	selfID := ""
	if b.gateway != nil {
		selfID = b.gateway.SelfUser().ID
	}
	ev := service.EventFromGateway(msg, channelType, selfID, time.Now())

	if b.isStatusCommand(ev) {
		b.replyStatus(ev)
		return
	}

	b.pipeline.HandleMessage(b.ctx, ev)
}

// Drain waits for in-flight handlers to finish, up to the timeout.
func (b *Bot) Drain(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		b.logger.Warn("Shutdown grace period elapsed with handlers still in flight")
	}
}

func (b *Bot) isStatusCommand(ev models.MessageEvent) bool {
	if ev.AuthorKind != models.AuthorKindHuman {
		return false
	}
	return strings.TrimSpace(ev.Content) == b.prefix+"status"
}

func (b *Bot) replyStatus(ev models.MessageEvent) {
	ctx, cancel := context.WithTimeout(b.ctx, 10*time.Second)
	defer cancel()

	content := service.FormatStatusMessage(b.pipeline.Snapshot())
	if _, err := b.client.CreateMessage(ctx, ev.ChannelID, content); err != nil {
		b.logger.WithError(err).WithField(service.LogFieldChannelID, ev.ChannelID).Error("Failed to send status reply")
	}
}
