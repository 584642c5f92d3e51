package config

import (
	"encoding/json"
	"fmt"
	"os"

	"herald/internal/constants"
	"herald/internal/models"
	"herald/internal/security"
)

var (
	ErrMissingToken  = models.ConfigError{Message: "missing Discord bot token (set DISCORD_TOKEN)"}
	ErrBadSampleRate = models.ConfigError{Message: "tracing sample_rate must be between 0 and 1"}
)

// LoadConfig reads the JSON config file, fills in defaults, applies
// environment overrides, and validates the result. Secrets (bot token,
// webhook URL, Twitch credentials) come only from the environment.
func LoadConfig(path string) (*models.Config, error) {
	if err := security.ValidateConfigPath(path); err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	file, err := os.ReadFile(path) // #nosec G304 - path validated above
	if err != nil {
		return nil, err
	}

	var config models.Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	applyDefaults(&config)
	applyEnvironmentOverrides(&config)

	if err := validate(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

func applyDefaults(c *models.Config) {
	if c.Discord.APIBaseURL == "" {
		c.Discord.APIBaseURL = constants.DefaultAPIBaseURL
	}
	if c.Discord.GatewayURL == "" {
		c.Discord.GatewayURL = constants.DefaultGatewayURL
	}
	if c.Discord.CommandPrefix == "" {
		c.Discord.CommandPrefix = constants.DefaultCommandPrefix
	}
	if c.Discord.RequestsPerSec <= 0 {
		c.Discord.RequestsPerSec = constants.DefaultRequestsPerSec
	}
	if c.Discord.TimeoutSec <= 0 {
		c.Discord.TimeoutSec = constants.DefaultHTTPTimeoutSec
	}

	if c.Retry.InitialBackoffMs <= 0 {
		c.Retry.InitialBackoffMs = constants.DefaultRetryBackoffMs
	}
	if c.Retry.MaxBackoffMs <= 0 {
		c.Retry.MaxBackoffMs = constants.DefaultMaxBackoffMs
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = constants.DefaultPublishMaxAttempts
	}

	if c.Stats.RetentionHours <= 0 {
		c.Stats.RetentionHours = constants.DefaultRetentionHours
	}
	if c.Stats.SweepIntervalHours <= 0 {
		c.Stats.SweepIntervalHours = constants.DefaultSweepIntervalHours
	}
	if c.Stats.RecentFailureLimit <= 0 {
		c.Stats.RecentFailureLimit = constants.DefaultRecentFailureLimit
	}

	if c.StreamWatch.PollIntervalSec <= 0 {
		c.StreamWatch.PollIntervalSec = constants.DefaultStreamPollIntervalSec
	}
	if c.StreamWatch.HelixBaseURL == "" {
		c.StreamWatch.HelixBaseURL = constants.DefaultHelixBaseURL
	}
	if c.StreamWatch.OAuthTokenURL == "" {
		c.StreamWatch.OAuthTokenURL = constants.DefaultOAuthTokenURL
	}

	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "herald"
	}
	if c.Tracing.SampleRate == 0 {
		c.Tracing.SampleRate = 0.1
	}
}

func applyEnvironmentOverrides(c *models.Config) {
	if token := os.Getenv("DISCORD_TOKEN"); token != "" {
		c.Discord.Token = token
	}
	if url := os.Getenv("DISCORD_WEBHOOK_URL"); url != "" {
		c.StreamWatch.WebhookURL = url
	}
	if id := os.Getenv("TWITCH_CLIENT_ID"); id != "" {
		c.StreamWatch.TwitchClientID = id
	}
	if secret := os.Getenv("TWITCH_CLIENT_SECRET"); secret != "" {
		c.StreamWatch.TwitchSecret = secret
	}
	if level := os.Getenv("HERALD_LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
}

func validate(c *models.Config) error {
	if c.Discord.Token == "" {
		return ErrMissingToken
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return ErrBadSampleRate
	}

	if c.StreamWatch.Enabled {
		if c.StreamWatch.StreamersCSVURL == "" {
			return models.ConfigError{Message: "streamWatch enabled but streamersCsvUrl is empty"}
		}
		if c.StreamWatch.WebhookURL == "" {
			return models.ConfigError{Message: "streamWatch enabled but DISCORD_WEBHOOK_URL is not set"}
		}
		if c.StreamWatch.TwitchClientID == "" || c.StreamWatch.TwitchSecret == "" {
			return models.ConfigError{Message: "streamWatch enabled but TWITCH_CLIENT_ID/TWITCH_CLIENT_SECRET are not set"}
		}
	}
	return nil
}
