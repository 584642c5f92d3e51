package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	apperrors "herald/internal/errors"
	"herald/internal/models"
	"herald/pkg/twitch"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

// WebhookExecutor posts the go-live notification.
type WebhookExecutor interface {
	ExecuteWebhook(ctx context.Context, webhookURL, content string) error
}

type streamerState struct {
	youtubeURL string
	live       bool
}

// StreamWatcher polls the Twitch Helix API on a fixed interval and posts a
// Discord webhook message when a tracked streamer goes live. The roster is
// refreshed from a remote CSV (twitch_username,youtube_link) on every tick so
// edits show up without a restart. Poll failures are retried with backoff and
// logged, never fatal.
type StreamWatcher struct {
	twitchClient twitch.Client
	webhook      WebhookExecutor
	config       models.StreamWatchConfig
	httpClient   *http.Client
	logger       *logrus.Logger

	mu        sync.RWMutex
	streamers map[string]*streamerState
	running   bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewStreamWatcher(twitchClient twitch.Client, webhook WebhookExecutor, cfg models.StreamWatchConfig, httpClient *http.Client, logger *logrus.Logger) *StreamWatcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &StreamWatcher{
		twitchClient: twitchClient,
		webhook:      webhook,
		config:       cfg,
		httpClient:   httpClient,
		logger:       logger,
		streamers:    make(map[string]*streamerState),
	}
}

// Start begins the background poll loop.
func (sw *StreamWatcher) Start(ctx context.Context) error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.running {
		return fmt.Errorf("stream watcher is already running")
	}
	if !sw.config.Enabled {
		sw.logger.Info("Stream watcher is disabled in configuration")
		return nil
	}

	sw.ctx, sw.cancel = context.WithCancel(ctx)
	sw.running = true

	sw.wg.Add(1)
	go sw.pollLoop()

	sw.logger.WithField("interval_sec", sw.config.PollIntervalSec).Info("Stream watcher started")
	return nil
}

// Stop gracefully stops the poll loop.
func (sw *StreamWatcher) Stop() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if !sw.running {
		return
	}
	sw.cancel()
	sw.wg.Wait()
	sw.running = false
	sw.logger.Info("Stream watcher stopped")
}

// IsRunning returns whether the poll loop is active.
func (sw *StreamWatcher) IsRunning() bool {
	sw.mu.RLock()
	defer sw.mu.RUnlock()
	return sw.running
}

func (sw *StreamWatcher) pollLoop() {
	defer sw.wg.Done()

	interval := time.Duration(sw.config.PollIntervalSec) * time.Second
	if interval <= 0 {
		interval = 60 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sw.pollOnce()
	for {
		select {
		case <-sw.ctx.Done():
			return
		case <-ticker.C:
			sw.pollOnce()
		}
	}
}

func (sw *StreamWatcher) pollOnce() {
	ctx, cancel := context.WithTimeout(sw.ctx, 45*time.Second)
	defer cancel()

	if err := sw.refreshRoster(ctx); err != nil {
		sw.logger.WithError(err).Warn("Failed to refresh streamer roster, using previous list")
	}

	sw.mu.RLock()
	logins := make([]string, 0, len(sw.streamers))
	for login := range sw.streamers {
		logins = append(logins, login)
	}
	sw.mu.RUnlock()

	for _, login := range logins {
		if ctx.Err() != nil {
			return
		}
		sw.checkStreamer(ctx, login)
	}
}

func (sw *StreamWatcher) checkStreamer(ctx context.Context, login string) {
	var live bool
	op := func() error {
		var err error
		live, err = sw.twitchClient.IsLive(ctx, login)
		return err
	}
	if err := backoff.Retry(op, sw.retryPolicy(ctx)); err != nil {
		wrapped := apperrors.WrapRetryable(err, apperrors.ErrCodeTwitchAPI, "stream status check failed").
			WithContext(LogFieldStreamer, login)
		apperrors.LogRetryableError(sw.logger, wrapped, "Failed to check stream status")
		return
	}

	sw.mu.Lock()
	state, ok := sw.streamers[login]
	if !ok {
		sw.mu.Unlock()
		return
	}
	wasLive := state.live
	state.live = live
	youtubeURL := state.youtubeURL
	sw.mu.Unlock()

	switch {
	case live && !wasLive:
		sw.logger.WithField(LogFieldStreamer, login).Info("Streamer went live")
		sw.announce(ctx, login, youtubeURL)
	case !live && wasLive:
		sw.logger.WithField(LogFieldStreamer, login).Info("Streamer went offline")
	}
}

func (sw *StreamWatcher) announce(ctx context.Context, login, youtubeURL string) {
	var b strings.Builder
	if sw.config.AnnounceTemplate != "" {
		fmt.Fprintf(&b, sw.config.AnnounceTemplate, login)
	} else {
		fmt.Fprintf(&b, "🔴 **%s** is now live on Twitch!", login)
	}
	fmt.Fprintf(&b, "\nWatch here: https://twitch.tv/%s", login)
	if strings.HasPrefix(youtubeURL, "http") {
		fmt.Fprintf(&b, "\nYouTube Channel: <%s>", youtubeURL)
	}

	op := func() error {
		return sw.webhook.ExecuteWebhook(ctx, sw.config.WebhookURL, b.String())
	}
	if err := backoff.Retry(op, sw.retryPolicy(ctx)); err != nil {
		wrapped := apperrors.Wrap(err, apperrors.ErrCodeDiscordAPI, "go-live notification failed").
			WithContext(LogFieldStreamer, login)
		apperrors.LogError(sw.logger, wrapped, "Failed to send go-live notification")
		return
	}
	sw.logger.WithField(LogFieldStreamer, login).Info("Go-live notification sent")
}

// refreshRoster downloads the streamer CSV and merges it into the tracked
// set, preserving known live state for streamers that stay on the list.
func (sw *StreamWatcher) refreshRoster(ctx context.Context) error {
	if sw.config.StreamersCSVURL == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sw.config.StreamersCSVURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create roster request: %w", err)
	}

	var body []byte
	op := func() error {
		resp, err := sw.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("roster fetch failed: status %d", resp.StatusCode)
		}
		body, err = io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return err
	}
	if err := backoff.Retry(op, sw.retryPolicy(ctx)); err != nil {
		return err
	}

	reader := csv.NewReader(strings.NewReader(string(body)))
	reader.FieldsPerRecord = -1

	next := make(map[string]*streamerState)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to parse roster CSV: %w", err)
		}
		if len(record) == 0 || strings.TrimSpace(record[0]) == "" {
			continue
		}
		login := strings.ToLower(strings.TrimSpace(record[0]))
		youtubeURL := ""
		if len(record) > 1 {
			youtubeURL = strings.TrimSpace(record[1])
		}
		next[login] = &streamerState{youtubeURL: youtubeURL}
	}

	sw.mu.Lock()
	for login, state := range next {
		if prev, ok := sw.streamers[login]; ok {
			state.live = prev.live
		}
	}
	sw.streamers = next
	count := len(sw.streamers)
	sw.mu.Unlock()

	sw.logger.WithField(LogFieldCount, count).Debug("Streamer roster refreshed")
	return nil
}

func (sw *StreamWatcher) retryPolicy(ctx context.Context) backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 2 * time.Second
	policy.MaxInterval = 15 * time.Second
	policy.MaxElapsedTime = 40 * time.Second
	return backoff.WithContext(backoff.WithMaxRetries(policy, 2), ctx)
}
