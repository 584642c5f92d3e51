package service

import (
	"context"

	"herald/internal/models"

	"github.com/stretchr/testify/mock"
)

// Mock publish executor
type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, channelID, messageID string) models.PublishResult {
	args := m.Called(ctx, channelID, messageID)
	return args.Get(0).(models.PublishResult)
}

// Mock crossposter with a scripted error sequence
type mockCrossposter struct {
	mock.Mock
	calls   int
	results []error
}

func (m *mockCrossposter) CrosspostMessage(ctx context.Context, channelID, messageID string) error {
	m.calls++
	if len(m.results) == 0 {
		return nil
	}
	idx := m.calls - 1
	if idx >= len(m.results) {
		idx = len(m.results) - 1
	}
	return m.results[idx]
}

// Mock sweeper
type mockSweeper struct {
	mock.Mock
}

func (m *mockSweeper) SweepRetention(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Mock twitch client
type mockTwitchClient struct {
	mock.Mock
}

func (m *mockTwitchClient) IsLive(ctx context.Context, login string) (bool, error) {
	args := m.Called(ctx, login)
	return args.Bool(0), args.Error(1)
}

// Mock webhook executor
type mockWebhookExecutor struct {
	mock.Mock
}

func (m *mockWebhookExecutor) ExecuteWebhook(ctx context.Context, webhookURL, content string) error {
	args := m.Called(ctx, webhookURL, content)
	return args.Error(0)
}
