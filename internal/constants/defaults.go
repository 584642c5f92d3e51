package constants

// Default publish retry configuration values
const (
	DefaultPublishMaxAttempts   = 3
	DefaultRetryBackoffMs       = 1000
	DefaultMaxBackoffMs         = 30000
	DefaultRateLimitJitterMs    = 250
	DefaultRateLimitFallbackSec = 60
)

// Default retention and sweep values
const (
	DefaultRetentionHours     = 24
	DefaultSweepIntervalHours = 1
	DefaultRecentFailureLimit = 10
)

// Default Discord configuration values
const (
	DefaultAPIBaseURL     = "https://discord.com/api/v10"
	DefaultGatewayURL     = "wss://gateway.discord.gg/?v=10&encoding=json"
	DefaultCommandPrefix  = "!"
	DefaultRequestsPerSec = 5.0
	DefaultRequestBurst   = 10
	DefaultHTTPTimeoutSec = 30
)

// Default stream notifier values
const (
	DefaultStreamPollIntervalSec = 60
	DefaultHelixBaseURL          = "https://api.twitch.tv/helix"
	DefaultOAuthTokenURL         = "https://id.twitch.tv/oauth2/token"
)

// Default server and shutdown values
const (
	DefaultServerPort            = 8082
	DefaultServerReadTimeoutSec  = 15
	DefaultServerWriteTimeoutSec = 15
	DefaultServerIdleTimeoutSec  = 60
	DefaultGracefulShutdownSec   = 30
)
