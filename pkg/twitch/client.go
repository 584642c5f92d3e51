package twitch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Client is the Twitch Helix surface the stream watcher uses.
type Client interface {
	IsLive(ctx context.Context, login string) (bool, error)
}

// HelixClient talks to the Twitch Helix API using app (client credentials)
// authentication. The access token is fetched lazily and refreshed when the
// API answers 401.
type HelixClient struct {
	baseURL      string
	tokenURL     string
	clientID     string
	clientSecret string
	client       *http.Client
	logger       *logrus.Logger

	mu    sync.Mutex
	token string
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type streamsResponse struct {
	Data []struct {
		ID        string `json:"id"`
		UserLogin string `json:"user_login"`
		Type      string `json:"type"`
	} `json:"data"`
}

func NewClient(baseURL, tokenURL, clientID, clientSecret string, httpClient *http.Client, logger *logrus.Logger) *HelixClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}
	return &HelixClient{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		client:       httpClient,
		logger:       logger,
	}
}

// IsLive reports whether the given channel currently has an active stream.
func (c *HelixClient) IsLive(ctx context.Context, login string) (bool, error) {
	resp, err := c.getStreams(ctx, login)
	if err != nil {
		return false, err
	}
	return len(resp.Data) > 0, nil
}

func (c *HelixClient) getStreams(ctx context.Context, login string) (*streamsResponse, error) {
	token, err := c.accessToken(ctx, false)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/streams?user_login=%s", c.baseURL, url.QueryEscape(login))
	resp, err := c.get(ctx, endpoint, token)
	if err != nil {
		return nil, err
	}

	// Token expired mid-flight: refresh once and retry the call.
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		if token, err = c.accessToken(ctx, true); err != nil {
			return nil, err
		}
		if resp, err = c.get(ctx, endpoint, token); err != nil {
			return nil, err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("twitch API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var streams streamsResponse
	if err := json.NewDecoder(resp.Body).Decode(&streams); err != nil {
		return nil, fmt.Errorf("failed to decode streams response: %w", err)
	}
	return &streams, nil
}

func (c *HelixClient) get(ctx context.Context, endpoint, token string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Client-ID", c.clientID)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

// accessToken returns the cached app token, fetching a fresh one when forced
// or when none is held yet.
func (c *HelixClient) accessToken(ctx context.Context, force bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && !force {
		return c.token, nil
	}

	form := url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"grant_type":    {"client_credentials"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to request access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("token request failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("token response contained no access token")
	}

	c.token = tok.AccessToken
	c.logger.Debug("Refreshed Twitch app access token")
	return c.token, nil
}
