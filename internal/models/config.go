package models

// Config holds the application configuration
type Config struct {
	Discord     DiscordConfig     `json:"discord"`
	Retry       RetryConfig       `json:"retry"`
	Stats       StatsConfig       `json:"stats"`
	Tracing     TracingConfig     `json:"tracing"`
	StreamWatch StreamWatchConfig `json:"streamWatch"`
	LogLevel    string            `json:"log_level"`
}

// DiscordConfig holds Discord related configuration. The bot token is never
// stored in the config file; it is injected from the environment.
type DiscordConfig struct {
	Token          string  `json:"-"`
	APIBaseURL     string  `json:"api_base_url"`
	GatewayURL     string  `json:"gateway_url"`
	CommandPrefix  string  `json:"command_prefix"`
	RequestsPerSec float64 `json:"requestsPerSec"`
	TimeoutSec     int     `json:"timeoutSec"`
}

// RetryConfig holds publish retry related configuration
type RetryConfig struct {
	InitialBackoffMs int `json:"initialBackoffMs"`
	MaxBackoffMs     int `json:"maxBackoffMs"`
	MaxAttempts      int `json:"maxAttempts"`
}

// StatsConfig bounds the in-memory statistics and dedup state.
type StatsConfig struct {
	RetentionHours     int `json:"retentionHours"`
	SweepIntervalHours int `json:"sweepIntervalHours"`
	RecentFailureLimit int `json:"recentFailureLimit"`
}

// TracingConfig contains OpenTelemetry configuration
type TracingConfig struct {
	ServiceName    string  `json:"service_name"`
	ServiceVersion string  `json:"service_version"`
	Environment    string  `json:"environment"`
	OTLPEndpoint   string  `json:"otlp_endpoint"`
	SampleRate     float64 `json:"sample_rate"`
	Enabled        bool    `json:"enabled"`
	UseStdout      bool    `json:"use_stdout"`
}

// StreamWatchConfig configures the companion Twitch stream notifier.
// Credentials come from the environment, never the config file.
type StreamWatchConfig struct {
	Enabled          bool   `json:"enabled"`
	PollIntervalSec  int    `json:"pollIntervalSec"`
	StreamersCSVURL  string `json:"streamersCsvUrl"`
	WebhookURL       string `json:"-"`
	TwitchClientID   string `json:"-"`
	TwitchSecret     string `json:"-"`
	HelixBaseURL     string `json:"helix_base_url"`
	OAuthTokenURL    string `json:"oauth_token_url"`
	AnnounceTemplate string `json:"announceTemplate"`
}

type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string {
	return e.Message
}
