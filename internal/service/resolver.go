package service

import (
	"context"

	"github.com/tralhotec/tralhobot-go/internal/domain"
)

// ============================================================
// Pipeline de resolvers — a cadeia de fallback explícita
// ============================================================
//
// Cada etapa da cadeia (fluxo em andamento → classificador → FAQ) é um
// TurnResolver. O dispatcher percorre a lista em ordem; o primeiro que
// aceitar o turno produz a resposta. Se nenhum aceitar, vale a resposta
// padrão. A ordem da lista É a regra de prioridade — montada uma única
// vez no main, testável isoladamente.

// TurnInput carries everything a resolver needs for one turn. Resolvers
// mutate the conversation state in place; the dispatcher persists it after
// the pipeline runs.
type TurnInput struct {
	Activity     *domain.Activity
	Conversation *domain.Conversation

	// Text is the original utterance, Lower its lowercased form. Cached
	// here so every resolver does not re-lowercase.
	Text  string
	Lower string

	// FlushTranscript is set by the SDR flow when the turn completed the
	// flow and the transcript must go to the notification sink. Lead is the
	// record to send with it.
	FlushTranscript bool
	Lead            *domain.LeadRecord
}

// TurnResolver is one tier of the fallback chain.
// Resolve returns (reply, true) when this tier owns the turn, (nil, false)
// to pass the turn to the next tier. Resolvers never return errors: every
// failure inside a tier degrades to the next one.
type TurnResolver interface {
	Name() string
	Resolve(ctx context.Context, in *TurnInput) (*domain.Activity, bool)
}
