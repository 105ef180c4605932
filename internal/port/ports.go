// Package port defines the interfaces the bot core depends on.
// Concrete implementations live under internal/infra; services depend on
// these interfaces only, which keeps the core testable with plain mocks.
package port

import (
	"context"

	"github.com/tralhotec/tralhobot-go/internal/domain"
)

// IntentClassifier maps an utterance to an intent prediction.
// Any transport or service failure is returned as an error; the dispatcher
// treats it the same as "no usable prediction" and falls through.
type IntentClassifier interface {
	Classify(ctx context.Context, u *domain.Utterance) (*domain.IntentResult, error)
}

// LeadNotifier delivers a completed lead and its transcript to the
// stakeholders. Failure is non-fatal to the conversation.
type LeadNotifier interface {
	Notify(ctx context.Context, lead *domain.LeadRecord, transcript string) error
}

// ActivitySender delivers an outbound activity back to the originating
// channel. The activity carries its own service URL and conversation.
type ActivitySender interface {
	SendActivity(ctx context.Context, activity *domain.Activity) error
}

// ConversationStore is the keyed turn state store. Lock serializes turns for
// one conversation id; turns for different ids run in parallel.
type ConversationStore interface {
	Lock(key string) (unlock func())
	Get(key string) (*domain.Conversation, bool)
	Set(key string, conv *domain.Conversation)
	Delete(key string)
}
