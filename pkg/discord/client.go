package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"herald/pkg/discord/types"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Client is the outbound Discord REST surface herald uses. CrosspostMessage
// surfaces rate-limit waits and permission errors distinguishably from
// generic failures; the publish executor branches on them.
type Client interface {
	CrosspostMessage(ctx context.Context, channelID, messageID string) error
	CreateMessage(ctx context.Context, channelID, content string) (*types.Message, error)
	GetCurrentUser(ctx context.Context) (*types.User, error)
	ExecuteWebhook(ctx context.Context, webhookURL, content string) error
}

type RestClient struct {
	baseURL string
	token   string
	client  *http.Client
	limiter *rate.Limiter
	logger  *logrus.Logger
}

// NewClient creates a REST client. requestsPerSec paces all outbound calls so
// a burst of inbound announcements does not trip the global rate limit.
func NewClient(baseURL, token string, requestsPerSec float64, burst int, httpClient *http.Client, logger *logrus.Logger) *RestClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}
	if requestsPerSec <= 0 {
		requestsPerSec = 5
	}
	if burst <= 0 {
		burst = 1
	}

	return &RestClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		client:  httpClient,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSec), burst),
		logger:  logger,
	}
}

// CrosspostMessage publishes an announcement-channel message to all following
// channels. A 429 maps to *types.RateLimitError, a 403 to
// *types.ForbiddenError; everything else non-2xx is a generic error.
func (c *RestClient) CrosspostMessage(ctx context.Context, channelID, messageID string) error {
	endpoint := fmt.Sprintf("%s/channels/%s/messages/%s/crosspost", c.baseURL, channelID, messageID)

	resp, err := c.do(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return nil
	}
	return decodeAPIError(resp)
}

// CreateMessage posts a plain text message to a channel.
func (c *RestClient) CreateMessage(ctx context.Context, channelID, content string) (*types.Message, error) {
	endpoint := fmt.Sprintf("%s/channels/%s/messages", c.baseURL, channelID)

	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	var msg types.Message
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &msg, nil
}

// GetCurrentUser fetches the bot's own identity. Used at startup as a token
// check and to teach the classifier which author id is "self".
func (c *RestClient) GetCurrentUser(ctx context.Context) (*types.User, error) {
	endpoint := fmt.Sprintf("%s/users/@me", c.baseURL)

	resp, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	var user types.User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &user, nil
}

// ExecuteWebhook posts content through a webhook URL. The URL carries its own
// auth, so no bot token is attached.
func (c *RestClient) ExecuteWebhook(ctx context.Context, webhookURL, content string) error {
	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return decodeAPIError(resp)
	}
	return nil
}

func (c *RestClient) do(ctx context.Context, method, endpoint string, body []byte) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.WithFields(logrus.Fields{
		"method":   method,
		"endpoint": endpoint,
	}).Debug("Sending Discord API request")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

// decodeAPIError turns a non-2xx response into the most specific error type
// the body and status allow. The caller owns resp.Body.
func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var body types.APIErrorBody
	// Body may be empty or not JSON; the zero value is fine either way.
	_ = json.Unmarshal(raw, &body)

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		retryAfter := time.Duration(body.RetryAfter * float64(time.Second))
		if retryAfter <= 0 {
			if header := resp.Header.Get("Retry-After"); header != "" {
				if secs, err := time.ParseDuration(header + "s"); err == nil {
					retryAfter = secs
				}
			}
		}
		return &types.RateLimitError{RetryAfter: retryAfter, Global: body.Global}
	case http.StatusForbidden:
		return &types.ForbiddenError{Message: body.Message, Code: body.Code}
	default:
		return fmt.Errorf("discord API error: status %d, body: %s", resp.StatusCode, string(raw))
	}
}
