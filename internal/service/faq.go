package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/tralhotec/tralhobot-go/internal/domain"
	"github.com/tralhotec/tralhobot-go/internal/infra/observability"
)

// FAQResolver é a penúltima camada da cadeia: varre a tabela fixa de
// palavra-chave → resposta sobre o texto minúsculo do turno. A primeira
// chave contida no texto vence; a ordem da tabela é a prioridade.
type FAQResolver struct {
	entries []faqEntry
	logger  *zap.Logger
}

// NewFAQResolver creates the FAQ matcher over the fixed table.
func NewFAQResolver(logger *zap.Logger) *FAQResolver {
	return &FAQResolver{entries: faqTable, logger: logger}
}

// Name identifies this resolver in logs and metrics.
func (f *FAQResolver) Name() string { return observability.ResolverFAQ }

// Resolve answers with the first matching FAQ entry plus the fixed
// follow-up prompt, or passes the turn on when nothing matches.
func (f *FAQResolver) Resolve(_ context.Context, in *TurnInput) (*domain.Activity, bool) {
	for _, e := range f.entries {
		if strings.Contains(in.Lower, e.keyword) {
			f.logger.Debug("faq match",
				zap.String("keyword", e.keyword),
				zap.String("conversation_id", in.Activity.ConversationID()),
			)
			return domain.NewTextReply(in.Activity, e.answer+faqFollowUpText), true
		}
	}
	return nil, false
}
