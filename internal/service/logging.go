package service

// Standard log field names, used verbatim across the application so log
// queries stay consistent.
const (
	LogFieldMessageID  = "message_id"
	LogFieldChannelID  = "channel_id"
	LogFieldGuildID    = "guild_id"
	LogFieldAuthor     = "author"
	LogFieldAuthorKind = "author_kind"
	LogFieldReason     = "reason"
	LogFieldOutcome    = "outcome"
	LogFieldAttempt    = "attempt"
	LogFieldAttempts   = "attempts"
	LogFieldRequestID  = "request_id"
	LogFieldTraceID    = "trace_id"
	LogFieldMethod     = "method"
	LogFieldPath       = "path"
	LogFieldStatusCode = "status_code"
	LogFieldDuration   = "duration_ms"
	LogFieldRemoteIP   = "remote_ip"
	LogFieldCount      = "count"
	LogFieldStreamer   = "streamer"
)
