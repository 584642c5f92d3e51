package discord

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"herald/pkg/discord/types"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return logger
}

func newTestClient(serverURL string) *RestClient {
	return NewClient(serverURL, "test-token", 100, 10, nil, testLogger())
}

func TestCrosspostMessage_Success(t *testing.T) {
	var gotPath, gotAuth, gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotMethod = r.Method
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(types.Message{ID: "msg-1", Flags: types.MessageFlagCrossposted})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	err := client.CrosspostMessage(context.Background(), "chan-1", "msg-1")

	require.NoError(t, err)
	assert.Equal(t, "/channels/chan-1/messages/msg-1/crosspost", gotPath)
	assert.Equal(t, "Bot test-token", gotAuth)
	assert.Equal(t, http.MethodPost, gotMethod)
}

func TestCrosspostMessage_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(types.APIErrorBody{
			Message:    "You are being rate limited.",
			RetryAfter: 2.5,
			Global:     false,
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	err := client.CrosspostMessage(context.Background(), "chan-1", "msg-1")

	var rateLimit *types.RateLimitError
	require.ErrorAs(t, err, &rateLimit)
	assert.Equal(t, 2500*time.Millisecond, rateLimit.RetryAfter)
	assert.False(t, rateLimit.Global)
}

func TestCrosspostMessage_RateLimitedHeaderFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	err := client.CrosspostMessage(context.Background(), "chan-1", "msg-1")

	var rateLimit *types.RateLimitError
	require.ErrorAs(t, err, &rateLimit)
	assert.Equal(t, 3*time.Second, rateLimit.RetryAfter)
}

func TestCrosspostMessage_Forbidden(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(types.APIErrorBody{Message: "Missing Permissions", Code: 50013})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	err := client.CrosspostMessage(context.Background(), "chan-1", "msg-1")

	var forbidden *types.ForbiddenError
	require.ErrorAs(t, err, &forbidden)
	assert.Equal(t, "Missing Permissions", forbidden.Message)
	assert.Equal(t, 50013, forbidden.Code)
}

func TestCrosspostMessage_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	err := client.CrosspostMessage(context.Background(), "chan-1", "msg-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestCreateMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/channels/chan-1/messages", r.URL.Path)
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "hello", payload["content"])

		json.NewEncoder(w).Encode(types.Message{ID: "msg-2", ChannelID: "chan-1", Content: "hello"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	msg, err := client.CreateMessage(context.Background(), "chan-1", "hello")

	require.NoError(t, err)
	assert.Equal(t, "msg-2", msg.ID)
	assert.Equal(t, "hello", msg.Content)
}

func TestGetCurrentUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/@me", r.URL.Path)
		json.NewEncoder(w).Encode(types.User{ID: "bot-1", Username: "herald", Bot: true})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	user, err := client.GetCurrentUser(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "bot-1", user.ID)
	assert.True(t, user.Bot)
}

func TestExecuteWebhook(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"), "webhook calls carry no bot token")
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "live now", payload["content"])
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	err := client.ExecuteWebhook(context.Background(), server.URL, "live now")

	assert.NoError(t, err)
}

func TestExecuteWebhook_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	err := client.ExecuteWebhook(context.Background(), server.URL, "live now")

	assert.Error(t, err)
}

func TestClient_RateLimiterPacesRequests(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(types.User{ID: "bot-1"})
	}))
	defer server.Close()

	// 20 req/s with burst 1 forces ~50ms between calls.
	client := NewClient(server.URL, "test-token", 20, 1, nil, testLogger())

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.GetCurrentUser(context.Background())
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestClient_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := newTestClient(server.URL)
	err := client.CrosspostMessage(ctx, "chan-1", "msg-1")
	assert.Error(t, err)
}
