package types

import (
	"fmt"
	"time"
)

// Channel types as defined by the Discord API.
const (
	ChannelTypeGuildText         = 0
	ChannelTypeGuildAnnouncement = 5
)

// Message flags.
const (
	// MessageFlagCrossposted marks a message that has already been published
	// to following channels.
	MessageFlagCrossposted = 1 << 0
)

// Gateway intents.
const (
	IntentGuilds         = 1 << 0
	IntentGuildMessages  = 1 << 9
	IntentMessageContent = 1 << 15
)

// User is a Discord user record.
type User struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator"`
	Bot           bool   `json:"bot"`
}

// Tag returns the human form of the user identity.
func (u User) Tag() string {
	if u.Discriminator == "" || u.Discriminator == "0" {
		return u.Username
	}
	return u.Username + "#" + u.Discriminator
}

// Channel is a (partial) Discord channel record.
type Channel struct {
	ID      string `json:"id"`
	Type    int    `json:"type"`
	GuildID string `json:"guild_id"`
	Name    string `json:"name"`
}

// Message is a Discord message as returned by the REST API and the gateway.
type Message struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
	GuildID   string `json:"guild_id"`
	Author    User   `json:"author"`
	Content   string `json:"content"`
	WebhookID string `json:"webhook_id"`
	Flags     int    `json:"flags"`
	Type      int    `json:"type"`
}

// Crossposted reports whether the message already carries the published flag.
func (m Message) Crossposted() bool {
	return m.Flags&MessageFlagCrossposted != 0
}

// RateLimitError is returned when the API answers 429. RetryAfter is the wait
// the platform demands before the call may be repeated.
type RateLimitError struct {
	RetryAfter time.Duration
	Global     bool
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s (global=%t)", e.RetryAfter, e.Global)
}

// ForbiddenError is returned when the API answers 403, typically because the
// bot lacks the Manage Messages permission on the channel.
type ForbiddenError struct {
	Message string
	Code    int
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden: %s (code %d)", e.Message, e.Code)
}

// APIErrorBody is the JSON error envelope Discord returns on failures.
type APIErrorBody struct {
	Message    string  `json:"message"`
	Code       int     `json:"code"`
	RetryAfter float64 `json:"retry_after"`
	Global     bool    `json:"global"`
}
