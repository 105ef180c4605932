package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tralhotec/tralhobot-go/internal/domain"
	"github.com/tralhotec/tralhobot-go/internal/infra/observability"
)

// ============================================================
// SupportFlow — triagem de chamados em 3 etapas
// ============================================================
//
// Máquina de estados do suporte:
//
//	awaiting_problem_description → awaiting_resolution_confirmation
//	awaiting_resolution_confirmation --"sim"--> none
//	awaiting_resolution_confirmation --else--> awaiting_escalation_details
//	awaiting_escalation_details → none (ticket criado)
//
// O fluxo é determinístico: cada turno sempre produz resposta e próxima
// fase a partir do estado atual + entrada, sem chamadas externas.
type SupportFlow struct {
	logger *zap.Logger
}

// NewSupportFlow creates the support flow resolver.
func NewSupportFlow(logger *zap.Logger) *SupportFlow {
	return &SupportFlow{logger: logger}
}

// Name identifies this resolver in logs and metrics.
func (f *SupportFlow) Name() string { return observability.ResolverSupport }

// Resolve owns the turn whenever the support flow is in progress.
func (f *SupportFlow) Resolve(_ context.Context, in *TurnInput) (*domain.Activity, bool) {
	phase := in.Conversation.Support.Phase
	if phase == domain.SupportNone {
		return nil, false
	}

	var text string
	switch phase {
	case domain.SupportAwaitingProblemDescription:
		text = f.intake(in)

	case domain.SupportAwaitingResolutionConfirmation:
		text = f.confirmation(in)

	case domain.SupportAwaitingEscalationDetails:
		text = f.escalation(in)

	default:
		// Fase desconhecida: nunca derruba o turno, responde o fallback.
		f.logger.Warn("support flow: unknown phase",
			zap.String("phase", string(phase)),
			zap.String("conversation_id", in.Activity.ConversationID()),
		)
		text = supportFlowErrorText
	}

	return domain.NewTextReply(in.Activity, text), true
}

// intake scans the ordered suggestion table against the problem description.
// First keyword match wins; either way the flow moves to confirmation.
func (f *SupportFlow) intake(in *TurnInput) string {
	in.Conversation.Support.Phase = domain.SupportAwaitingResolutionConfirmation

	for _, s := range supportSuggestions {
		if strings.Contains(in.Lower, s.keyword) {
			return fmt.Sprintf("Ok, obrigado pelos detalhes. Encontrei uma sugestão que pode ajudar: %s Isso resolveu o problema? (Sim/Não)", s.suggestion)
		}
	}
	return "Obrigado pelos detalhes. Não encontrei uma sugestão automática imediata. Isso resolveu o problema de alguma forma ou ainda precisa de ajuda? (Sim/Não)"
}

// confirmation closes the flow on "sim"; anything else escalates.
func (f *SupportFlow) confirmation(in *TurnInput) string {
	if strings.Contains(in.Lower, "sim") {
		in.Conversation.Support.Phase = domain.SupportNone
		return "Ótimo! Fico feliz em ajudar. Há mais algo em que posso ser útil?"
	}

	in.Conversation.Support.Phase = domain.SupportAwaitingEscalationDetails
	return "Lamento que isso não tenha resolvido. Para que nossa equipe de suporte possa analisar seu caso, preciso coletar algumas informações. Poderia me informar seu nome completo, e-mail de contato e o nome da sua empresa, por favor?"
}

// escalation registers the free-form contact details and mints the ticket id
// from the first 5 characters of the inbound activity id.
func (f *SupportFlow) escalation(in *TurnInput) string {
	in.Conversation.Support.Phase = domain.SupportNone

	ticket := in.Activity.UtteranceID()
	if len(ticket) > 5 {
		ticket = ticket[:5]
	}

	f.logger.Info("support ticket created",
		zap.String("ticket", "TRALHO-"+ticket),
		zap.String("conversation_id", in.Activity.ConversationID()),
	)

	return fmt.Sprintf("Obrigado pelas informações. Registrei sua solicitação com os detalhes fornecidos (%s). "+
		"Nossa equipe de suporte entrará em contato com você o mais breve possível. "+
		"O número do seu ticket de suporte é TRALHO-%s. Há mais algo em que posso ajudar agora?",
		in.Text, ticket)
}
