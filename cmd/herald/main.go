package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"herald/internal/config"
	"herald/internal/constants"
	apperrors "herald/internal/errors"
	"herald/internal/service"
	"herald/internal/tracing"
	"herald/pkg/discord"
	"herald/pkg/discord/types"
	"herald/pkg/twitch"

	"github.com/sirupsen/logrus"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	// CLI flags
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	configPath = flag.String("config", "config.json", "Path to configuration file")
	version    = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("Herald %s\nBuild Time: %s\nGit Commit: %s\n", Version, BuildTime, GitCommit)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logrus.Fatalf("Application error: %v", err)
	}
}

func run(ctx context.Context) error {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	logger.WithFields(logrus.Fields{
		"version": Version,
		"build":   BuildTime,
		"commit":  GitCommit,
	}).Info("Starting Herald")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else if cfg.LogLevel != "" {
		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			logger.Warnf("Invalid log level %q, defaulting to info", cfg.LogLevel)
			level = logrus.InfoLevel
		}
		logger.SetLevel(level)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	tracingManager := tracing.NewManager(cfg.Tracing, logger)
	if err := tracingManager.Initialize(ctx); err != nil {
		logger.Warnf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		if err := tracingManager.Shutdown(context.Background()); err != nil {
			logger.Warnf("Failed to shutdown tracing: %v", err)
		}
	}()

	httpClient := &http.Client{Timeout: time.Duration(cfg.Discord.TimeoutSec) * time.Second}
	restClient := discord.NewClient(cfg.Discord.APIBaseURL, cfg.Discord.Token,
		cfg.Discord.RequestsPerSec, constants.DefaultRequestBurst, httpClient, logger)

	// Token check before anything else starts.
	startupCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	self, err := restClient.GetCurrentUser(startupCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to authenticate with Discord: %w", err)
	}
	logger.WithField("user", self.Tag()).Info("Authenticated with Discord")

	executor := service.NewPublishExecutor(restClient, service.ExecutorConfig{
		MaxAttempts:       cfg.Retry.MaxAttempts,
		InitialBackoff:    time.Duration(cfg.Retry.InitialBackoffMs) * time.Millisecond,
		MaxBackoff:        time.Duration(cfg.Retry.MaxBackoffMs) * time.Millisecond,
		JitterMargin:      constants.DefaultRateLimitJitterMs * time.Millisecond,
		RateLimitFallback: constants.DefaultRateLimitFallbackSec * time.Second,
	}, logger)

	pipeline := service.NewPipeline(executor, service.PipelineConfig{
		Retention:          time.Duration(cfg.Stats.RetentionHours) * time.Hour,
		RecentFailureLimit: cfg.Stats.RecentFailureLimit,
	}, logger)

	// The work context outlives the signal context: in-flight publishes get
	// the grace period to finish their retry ceiling before being cut off.
	workCtx, workCancel := context.WithCancel(context.Background())
	defer workCancel()
	bot := NewBot(workCtx, pipeline, restClient, cfg.Discord.CommandPrefix, logger)

	intents := types.IntentGuilds | types.IntentGuildMessages | types.IntentMessageContent
	gateway := discord.NewGateway(cfg.Discord.GatewayURL, cfg.Discord.Token, intents,
		bot.HandleGatewayMessage, logger)
	bot.SetGateway(gateway)

	scheduler := service.NewScheduler(pipeline, cfg.Stats.SweepIntervalHours, logger)
	go scheduler.Start(ctx)

	server := NewServer(pipeline, logger)
	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	var streamWatcher *service.StreamWatcher
	if cfg.StreamWatch.Enabled {
		twitchClient := twitch.NewClient(cfg.StreamWatch.HelixBaseURL, cfg.StreamWatch.OAuthTokenURL,
			cfg.StreamWatch.TwitchClientID, cfg.StreamWatch.TwitchSecret, nil, logger)
		streamWatcher = service.NewStreamWatcher(twitchClient, restClient, cfg.StreamWatch, nil, logger)
		if err := streamWatcher.Start(ctx); err != nil {
			return fmt.Errorf("failed to start stream watcher: %w", err)
		}
	}

	if err := gateway.Start(ctx); err != nil {
		return apperrors.NewGatewayError("failed to start gateway", err)
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	// Ordered shutdown: stop event intake first, drain in-flight publishes,
	// then stop the periodic work and the HTTP surface.
	gateway.Stop()
	bot.Drain(constants.DefaultGracefulShutdownSec * time.Second)
	workCancel()
	scheduler.Stop()
	if streamWatcher != nil {
		streamWatcher.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		constants.DefaultGracefulShutdownSec*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("HTTP server shutdown failed")
	}

	logger.Info("Herald stopped")
	return nil
}
