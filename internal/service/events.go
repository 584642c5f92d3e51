package service

import (
	"time"

	"herald/internal/models"
	"herald/pkg/discord/types"
)

// EventFromGateway converts a raw gateway message into the pipeline's event
// shape. Author kind is derived exactly once here; downstream logic never
// probes platform fields again.
func EventFromGateway(msg types.Message, channelType int, selfID string, receivedAt time.Time) models.MessageEvent {
	authorKind := models.AuthorKindHuman
	switch {
	case msg.WebhookID != "":
		authorKind = models.AuthorKindWebhook
	case selfID != "" && msg.Author.ID == selfID:
		authorKind = models.AuthorKindSelf
	case msg.Author.Bot:
		authorKind = models.AuthorKindBot
	}

	chType := models.ChannelTypeOther
	if channelType == types.ChannelTypeGuildAnnouncement {
		chType = models.ChannelTypeAnnouncement
	}

	return models.MessageEvent{
		ID:          msg.ID,
		ChannelID:   msg.ChannelID,
		GuildID:     msg.GuildID,
		ChannelType: chType,
		AuthorKind:  authorKind,
		AuthorTag:   msg.Author.Tag(),
		Published:   msg.Crossposted(),
		HasContent:  msg.Content != "",
		Content:     msg.Content,
		ReceivedAt:  receivedAt,
	}
}
