package models

import (
	"time"
)

// ChannelType identifies the kind of channel a message arrived in.
type ChannelType string

const (
	ChannelTypeAnnouncement ChannelType = "announcement"
	ChannelTypeOther        ChannelType = "other"
)

// AuthorKind classifies who produced a message. It is derived once when the
// gateway event is decoded so downstream logic never probes raw payload fields.
type AuthorKind string

const (
	AuthorKindHuman   AuthorKind = "human"
	AuthorKindWebhook AuthorKind = "webhook"
	AuthorKindBot     AuthorKind = "bot"
	AuthorKindSelf    AuthorKind = "self"
)

// MessageEvent is one inbound message as delivered by the gateway client.
// Immutable once constructed; consumed exactly once by the pipeline.
type MessageEvent struct {
	ID          string      `json:"id"`
	ChannelID   string      `json:"channelId"`
	GuildID     string      `json:"guildId"`
	ChannelType ChannelType `json:"channelType"`
	AuthorKind  AuthorKind  `json:"authorKind"`
	AuthorTag   string      `json:"authorTag"`
	Published   bool        `json:"published"`
	HasContent  bool        `json:"hasContent"`
	Content     string      `json:"-"`
	ReceivedAt  time.Time   `json:"receivedAt"`
}
