package domain

import "github.com/google/uuid"

// Activity types we care about. Everything else is ignored by the dispatcher.
const (
	ActivityMessage            = "message"
	ActivityConversationUpdate = "conversationUpdate"
	ActivityTrace              = "trace"
)

// CardActionIMBack makes a card button post its value back as a message.
const CardActionIMBack = "imBack"

// ContentTypeHeroCard is the attachment content type for hero cards.
const ContentTypeHeroCard = "application/vnd.microsoft.card.hero"

// DefaultLocale is the fixed locale tag the bot speaks.
const DefaultLocale = "pt-br"

// ChannelAccount identifies a participant (user or bot) on the channel.
type ChannelAccount struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Role string `json:"role,omitempty"`
}

// ConversationAccount identifies the conversation on the channel.
type ConversationAccount struct {
	ID string `json:"id"`
}

// CardAction is a button on a card.
type CardAction struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	Value string `json:"value"`
}

// HeroCard is the structured choice prompt used by the SDR flow.
type HeroCard struct {
	Title   string       `json:"title"`
	Buttons []CardAction `json:"buttons,omitempty"`
}

// Attachment wraps a card on an activity.
type Attachment struct {
	ContentType string   `json:"contentType"`
	Content     HeroCard `json:"content"`
}

// Activity is the bot-activity wire payload exchanged with the channel.
// Inbound turns and outbound replies share this shape.
type Activity struct {
	Type         string               `json:"type"`
	ID           string               `json:"id,omitempty"`
	ChannelID    string               `json:"channelId,omitempty"`
	ServiceURL   string               `json:"serviceUrl,omitempty"`
	Conversation *ConversationAccount `json:"conversation,omitempty"`
	From         *ChannelAccount      `json:"from,omitempty"`
	Recipient    *ChannelAccount      `json:"recipient,omitempty"`
	Text         string               `json:"text,omitempty"`
	Locale       string               `json:"locale,omitempty"`
	ReplyToID    string               `json:"replyToId,omitempty"`
	MembersAdded []ChannelAccount     `json:"membersAdded,omitempty"`
	Attachments  []Attachment         `json:"attachments,omitempty"`

	// Trace-only fields, attached to debug replies on the emulator channel.
	Label     string `json:"label,omitempty"`
	Name      string `json:"name,omitempty"`
	Value     string `json:"value,omitempty"`
	ValueType string `json:"valueType,omitempty"`
}

// ConversationID returns the conversation id, or "" when the payload has none.
func (a *Activity) ConversationID() string {
	if a.Conversation == nil {
		return ""
	}
	return a.Conversation.ID
}

// UtteranceID returns the activity id, minting one when the channel omitted it.
// The support flow derives ticket numbers from this value, so it must not be empty.
func (a *Activity) UtteranceID() string {
	if a.ID != "" {
		return a.ID
	}
	return uuid.NewString()
}

// DisplayText extracts the primary human-readable text of an activity.
// For card replies it falls back to the card title, then to a placeholder.
// The transcript logger uses this so card turns still show up in the log.
func (a *Activity) DisplayText() string {
	if a.Text != "" {
		return a.Text
	}
	if len(a.Attachments) > 0 && a.Attachments[0].Content.Title != "" {
		return a.Attachments[0].Content.Title
	}
	return "[Card Sent]"
}

// newReplyShell builds the outbound envelope for a reply to the given inbound
// activity: sender/recipient swapped, same conversation and service URL.
func newReplyShell(inbound *Activity) *Activity {
	return &Activity{
		ID:           uuid.NewString(),
		ChannelID:    inbound.ChannelID,
		ServiceURL:   inbound.ServiceURL,
		Conversation: inbound.Conversation,
		From:         inbound.Recipient,
		Recipient:    inbound.From,
		ReplyToID:    inbound.ID,
		Locale:       DefaultLocale,
	}
}

// NewTextReply builds a plain-text reply to an inbound activity.
func NewTextReply(inbound *Activity, text string) *Activity {
	reply := newReplyShell(inbound)
	reply.Type = ActivityMessage
	reply.Text = text
	return reply
}

// NewYesNoCardReply builds a hero-card reply with Sim/Não buttons whose values
// are posted back verbatim as the next turn's text.
func NewYesNoCardReply(inbound *Activity, title, yesValue, noValue string) *Activity {
	reply := newReplyShell(inbound)
	reply.Type = ActivityMessage
	reply.Attachments = []Attachment{{
		ContentType: ContentTypeHeroCard,
		Content: HeroCard{
			Title: title,
			Buttons: []CardAction{
				{Type: CardActionIMBack, Title: "Sim", Value: yesValue},
				{Type: CardActionIMBack, Title: "Não", Value: noValue},
			},
		},
	}}
	return reply
}

// NewTraceReply builds a trace activity carrying error detail. Only sent on
// debug channels (the emulator), never to real users.
func NewTraceReply(inbound *Activity, detail string) *Activity {
	reply := newReplyShell(inbound)
	reply.Type = ActivityTrace
	reply.Label = "ErroDetalhado"
	reply.Name = "on_turn_error Trace"
	reply.Value = detail
	reply.ValueType = "https://www.botframework.com/schemas/error"
	return reply
}
