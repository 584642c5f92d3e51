package types

import "encoding/json"

// Gateway opcodes.
const (
	OpDispatch       = 0
	OpHeartbeat      = 1
	OpIdentify       = 2
	OpReconnect      = 7
	OpInvalidSession = 9
	OpHello          = 10
	OpHeartbeatACK   = 11
)

// GatewayPayload is the framing envelope for every gateway message.
type GatewayPayload struct {
	Op       int             `json:"op"`
	Data     json.RawMessage `json:"d,omitempty"`
	Sequence *int64          `json:"s,omitempty"`
	Type     string          `json:"t,omitempty"`
}

// HelloData is the payload of an OpHello frame.
type HelloData struct {
	HeartbeatIntervalMs int `json:"heartbeat_interval"`
}

// IdentifyData is the payload of an OpIdentify frame.
type IdentifyData struct {
	Token      string             `json:"token"`
	Intents    int                `json:"intents"`
	Properties IdentifyProperties `json:"properties"`
}

// IdentifyProperties describes the connecting client.
type IdentifyProperties struct {
	OS      string `json:"os"`
	Browser string `json:"browser"`
	Device  string `json:"device"`
}

// ReadyData is the payload of the READY dispatch.
type ReadyData struct {
	User      User   `json:"user"`
	SessionID string `json:"session_id"`
}

// GuildCreateData is the subset of the GUILD_CREATE dispatch we care about:
// the channel list, used to learn channel types.
type GuildCreateData struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Channels []Channel `json:"channels"`
}
