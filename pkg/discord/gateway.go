package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"sync"
	"time"

	"herald/pkg/discord/types"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/sirupsen/logrus"
)

// EventHandler receives every MESSAGE_CREATE dispatch together with the
// resolved channel type (-1 when the channel is not yet known). Handlers are
// invoked on their own goroutine; distinct messages may be processed
// concurrently.
type EventHandler func(msg types.Message, channelType int)

// Gateway maintains the websocket connection to Discord: identify, heartbeat,
// channel-type tracking, and dispatch of message events. It reconnects with a
// doubling delay after connection loss.
type Gateway struct {
	url     string
	token   string
	intents int
	handler EventHandler
	logger  *logrus.Logger

	reconnectDelay time.Duration
	maxReconnect   time.Duration

	mu           sync.RWMutex
	channelTypes map[string]int
	selfUser     types.User
	seq          int64
	running      bool

	writeMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewGateway creates a gateway client. handler must be non-nil.
func NewGateway(url, token string, intents int, handler EventHandler, logger *logrus.Logger) *Gateway {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}
	return &Gateway{
		url:            url,
		token:          token,
		intents:        intents,
		handler:        handler,
		logger:         logger,
		reconnectDelay: 5 * time.Second,
		maxReconnect:   2 * time.Minute,
		channelTypes:   make(map[string]int),
	}
}

// Start begins the connect/serve loop in the background.
func (g *Gateway) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.running {
		return fmt.Errorf("gateway is already running")
	}
	g.ctx, g.cancel = context.WithCancel(ctx)
	g.running = true

	g.wg.Add(1)
	go g.runLoop()

	return nil
}

// Stop closes the connection and waits for the serve loop to exit. New events
// stop being delivered; handlers already running are unaffected.
func (g *Gateway) Stop() {
	g.mu.Lock()
	if !g.running {
		g.mu.Unlock()
		return
	}
	g.running = false
	g.mu.Unlock()

	g.cancel()
	g.wg.Wait()
	g.logger.Info("Gateway stopped")
}

// SelfUser returns the bot identity from the READY dispatch. Zero value until
// the first session is established.
func (g *Gateway) SelfUser() types.User {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.selfUser
}

// ChannelType reports the cached type of a channel.
func (g *Gateway) ChannelType(channelID string) (int, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	t, ok := g.channelTypes[channelID]
	return t, ok
}

func (g *Gateway) runLoop() {
	defer g.wg.Done()

	delay := g.reconnectDelay
	for {
		if g.ctx.Err() != nil {
			return
		}

		err := g.serveSession(g.ctx)
		if g.ctx.Err() != nil {
			return
		}

		g.logger.WithError(err).WithField("retry_in", delay.String()).Warn("Gateway session ended, reconnecting")

		select {
		case <-g.ctx.Done():
			return
		case <-time.After(delay):
		}

		delay *= 2
		if delay > g.maxReconnect {
			delay = g.maxReconnect
		}
	}
}

// serveSession runs one websocket session to completion. Returning an error
// triggers a reconnect; the caller owns backoff.
func (g *Gateway) serveSession(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	conn, _, err := websocket.Dial(dialCtx, g.url, nil)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to dial gateway: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "shutting down")

	// GUILD_CREATE payloads for large guilds exceed the default read limit.
	conn.SetReadLimit(8 * 1024 * 1024)

	var hello types.GatewayPayload
	if err := wsjson.Read(ctx, conn, &hello); err != nil {
		return fmt.Errorf("failed to read hello: %w", err)
	}
	if hello.Op != types.OpHello {
		return fmt.Errorf("expected hello opcode, got %d", hello.Op)
	}
	var helloData types.HelloData
	if err := json.Unmarshal(hello.Data, &helloData); err != nil {
		return fmt.Errorf("failed to decode hello: %w", err)
	}

	if err := g.sendIdentify(ctx, conn); err != nil {
		return err
	}

	sessionCtx, stopSession := context.WithCancel(ctx)
	defer stopSession()

	g.wg.Add(1)
	go g.heartbeatLoop(sessionCtx, conn, time.Duration(helloData.HeartbeatIntervalMs)*time.Millisecond)

	for {
		var payload types.GatewayPayload
		if err := wsjson.Read(sessionCtx, conn, &payload); err != nil {
			return fmt.Errorf("failed to read gateway frame: %w", err)
		}

		switch payload.Op {
		case types.OpDispatch:
			if payload.Sequence != nil {
				g.setSequence(*payload.Sequence)
			}
			g.dispatch(payload.Type, payload.Data)
		case types.OpHeartbeat:
			if err := g.sendHeartbeat(sessionCtx, conn); err != nil {
				return err
			}
		case types.OpReconnect:
			return fmt.Errorf("gateway requested reconnect")
		case types.OpInvalidSession:
			return fmt.Errorf("gateway invalidated session")
		case types.OpHeartbeatACK:
			// nothing to do
		}
	}
}

func (g *Gateway) sendIdentify(ctx context.Context, conn *websocket.Conn) error {
	data, err := json.Marshal(types.IdentifyData{
		Token:   g.token,
		Intents: g.intents,
		Properties: types.IdentifyProperties{
			OS:      runtime.GOOS,
			Browser: "herald",
			Device:  "herald",
		},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal identify: %w", err)
	}
	return g.write(ctx, conn, types.GatewayPayload{Op: types.OpIdentify, Data: data})
}

func (g *Gateway) heartbeatLoop(ctx context.Context, conn *websocket.Conn, interval time.Duration) {
	defer g.wg.Done()

	if interval <= 0 {
		interval = 41250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := g.sendHeartbeat(ctx, conn); err != nil {
				g.logger.WithError(err).Debug("Heartbeat write failed")
				return
			}
		}
	}
}

func (g *Gateway) sendHeartbeat(ctx context.Context, conn *websocket.Conn) error {
	seq := g.sequence()
	data, err := json.Marshal(seq)
	if err != nil {
		return err
	}
	return g.write(ctx, conn, types.GatewayPayload{Op: types.OpHeartbeat, Data: data})
}

func (g *Gateway) write(ctx context.Context, conn *websocket.Conn, payload types.GatewayPayload) error {
	g.writeMu.Lock()
	defer g.writeMu.Unlock()
	return wsjson.Write(ctx, conn, payload)
}

func (g *Gateway) dispatch(eventType string, data json.RawMessage) {
	switch eventType {
	case "READY":
		var ready types.ReadyData
		if err := json.Unmarshal(data, &ready); err != nil {
			g.logger.WithError(err).Error("Failed to decode READY dispatch")
			return
		}
		g.mu.Lock()
		g.selfUser = ready.User
		g.mu.Unlock()
		g.logger.WithField("user", ready.User.Tag()).Info("Connected to Discord gateway")

	case "GUILD_CREATE":
		var guild types.GuildCreateData
		if err := json.Unmarshal(data, &guild); err != nil {
			g.logger.WithError(err).Error("Failed to decode GUILD_CREATE dispatch")
			return
		}
		announcement := 0
		g.mu.Lock()
		for _, ch := range guild.Channels {
			g.channelTypes[ch.ID] = ch.Type
			if ch.Type == types.ChannelTypeGuildAnnouncement {
				announcement++
			}
		}
		g.mu.Unlock()
		g.logger.WithFields(logrus.Fields{
			"guild":                 guild.Name,
			"channels":              len(guild.Channels),
			"announcement_channels": announcement,
		}).Info("Guild available")

	case "CHANNEL_CREATE", "CHANNEL_UPDATE":
		var ch types.Channel
		if err := json.Unmarshal(data, &ch); err != nil {
			g.logger.WithError(err).Error("Failed to decode channel dispatch")
			return
		}
		g.mu.Lock()
		g.channelTypes[ch.ID] = ch.Type
		g.mu.Unlock()

	case "CHANNEL_DELETE":
		var ch types.Channel
		if err := json.Unmarshal(data, &ch); err != nil {
			return
		}
		g.mu.Lock()
		delete(g.channelTypes, ch.ID)
		g.mu.Unlock()

	case "MESSAGE_CREATE":
		var msg types.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			g.logger.WithError(err).Error("Failed to decode MESSAGE_CREATE dispatch")
			return
		}
		chType := -1
		g.mu.RLock()
		if t, ok := g.channelTypes[msg.ChannelID]; ok {
			chType = t
		}
		g.mu.RUnlock()

		go g.handler(msg, chType)
	}
}

func (g *Gateway) setSequence(seq int64) {
	g.mu.Lock()
	g.seq = seq
	g.mu.Unlock()
}

func (g *Gateway) sequence() int64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.seq
}
