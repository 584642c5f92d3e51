package service

import (
	"herald/internal/models"
)

// IneligibleReason explains why a message was not published. These are
// routing decisions, not errors.
type IneligibleReason string

const (
	ReasonWrongChannelType IneligibleReason = "wrong-channel-type"
	ReasonAlreadyPublished IneligibleReason = "already-published"
	ReasonSelfAuthored     IneligibleReason = "self-authored"
	ReasonBotAuthored      IneligibleReason = "bot-authored"
)

// Decision is the classifier's verdict for one message. Originator tags the
// kind of poster (human vs webhook) for statistics.
type Decision struct {
	Eligible   bool
	Reason     IneligibleReason
	Originator models.AuthorKind
}

// Classifier decides publish eligibility. Stateless and safe for concurrent
// use.
type Classifier struct{}

func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify applies the eligibility rules in order: channel type first, then
// the platform published flag, then authorship. The webhook carve-out runs
// before the self/bot rejection: webhook posts are attributed to a bot-like
// identity and would otherwise be wrongly excluded.
func (c *Classifier) Classify(ev models.MessageEvent) Decision {
	originator := models.AuthorKindHuman
	if ev.AuthorKind == models.AuthorKindWebhook {
		originator = models.AuthorKindWebhook
	}

	if ev.ChannelType != models.ChannelTypeAnnouncement {
		return Decision{Reason: ReasonWrongChannelType, Originator: originator}
	}
	if ev.Published {
		return Decision{Reason: ReasonAlreadyPublished, Originator: originator}
	}
	if ev.AuthorKind == models.AuthorKindWebhook {
		return Decision{Eligible: true, Originator: originator}
	}
	if ev.AuthorKind == models.AuthorKindSelf {
		return Decision{Reason: ReasonSelfAuthored, Originator: originator}
	}
	if ev.AuthorKind == models.AuthorKindBot {
		return Decision{Reason: ReasonBotAuthored, Originator: originator}
	}
	return Decision{Eligible: true, Originator: originator}
}
