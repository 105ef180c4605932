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
// SDRFlow — qualificação de leads
// ============================================================
//
// Máquina de estados do SDR:
//
//	awaiting_name_role → awaiting_company → awaiting_needs → awaiting_size
//	awaiting_size --qualificado-->     proposing_meeting    (card Sim/Não)
//	awaiting_size --não qualificado--> handling_unqualified (card Sim/Não)
//	proposing_meeting    --sim--> awaiting_email_for_schedule  --email--> none*
//	proposing_meeting    --não--> none*
//	handling_unqualified --sim--> awaiting_email_for_materials --email--> none*
//	handling_unqualified --não--> none*
//
// (*) toda chegada em none marca o flush do transcript + LeadRecord para o
// sink de notificação — o dispatcher executa o envio depois de registrar o
// turno no log.
//
// A decisão de qualificação acontece exatamente uma vez, na saída de
// awaiting_size, através do predicado plugável.
type SDRFlow struct {
	qualify domain.QualificationPredicate
	logger  *zap.Logger
}

// NewSDRFlow creates the SDR flow resolver with the given qualification
// predicate. Pass domain.SizeKeywordPredicate for the current product rule.
func NewSDRFlow(qualify domain.QualificationPredicate, logger *zap.Logger) *SDRFlow {
	return &SDRFlow{qualify: qualify, logger: logger}
}

// Name identifies this resolver in logs and metrics.
func (f *SDRFlow) Name() string { return observability.ResolverSDR }

// Resolve owns the turn whenever the SDR flow is in progress. The support
// flow sits earlier in the pipeline, so support keeps priority when both
// could apply.
func (f *SDRFlow) Resolve(_ context.Context, in *TurnInput) (*domain.Activity, bool) {
	sdr := &in.Conversation.SDR
	if sdr.Phase == domain.SDRNone {
		return nil, false
	}

	var reply *domain.Activity
	switch sdr.Phase {
	case domain.SDRAwaitingNameRole:
		sdr.Name = in.Text
		sdr.Role = in.Text
		sdr.Phase = domain.SDRAwaitingCompany
		reply = domain.NewTextReply(in.Activity, "Obrigado! E qual é o nome da sua empresa?")

	case domain.SDRAwaitingCompany:
		sdr.Company = in.Text
		sdr.Phase = domain.SDRAwaitingNeeds
		reply = domain.NewTextReply(in.Activity, fmt.Sprintf(
			"Obrigado, %s. Para entender melhor como podemos ajudar a %s, "+
				"poderia me contar um pouco sobre os principais desafios que vocês enfrentam hoje em relação à colaboração entre equipes, gestão de documentos ou infraestrutura de TI?",
			orDefault(sdr.Name, "Contato"), orDefault(sdr.Company, "sua empresa")))

	case domain.SDRAwaitingNeeds:
		sdr.Needs = in.Text
		sdr.Phase = domain.SDRAwaitingSize
		reply = domain.NewTextReply(in.Activity,
			"Entendido. E para contextualizar, sua empresa se enquadra em qual porte? "+
				"(Ex: até 10 funcionários, 11-50, mais de 50)")

	case domain.SDRAwaitingSize:
		reply = f.branchOnQualification(in, sdr)

	case domain.SDRProposingMeeting:
		reply = f.proposeMeeting(in, sdr)

	case domain.SDRAwaitingEmailForSchedule:
		reply = f.confirmSchedule(in, sdr)

	case domain.SDRHandlingUnqualified:
		reply = f.handleUnqualified(in, sdr)

	case domain.SDRAwaitingEmailForMaterials:
		sdr.Email = in.Text
		reply = domain.NewTextReply(in.Activity, fmt.Sprintf(
			"Materiais enviados para %s. Agradeço seu tempo e interesse na Tralhotec. Tenha um ótimo dia!", sdr.Email))
		f.finish(in, sdr)

	default:
		f.logger.Warn("sdr flow: unknown phase",
			zap.String("phase", string(sdr.Phase)),
			zap.String("conversation_id", in.Activity.ConversationID()),
		)
		reply = domain.NewTextReply(in.Activity, sdrFlowErrorText)
	}

	return reply, true
}

// branchOnQualification captures the company size, evaluates the predicate
// exactly once, and branches into the qualified or unqualified arm with a
// yes/no card.
func (f *SDRFlow) branchOnQualification(in *TurnInput, sdr *domain.SDRState) *domain.Activity {
	sdr.Size = in.Text
	qualified := f.qualify(sdr.Role, sdr.Size)
	sdr.Qualified = &qualified

	f.logger.Info("lead qualification decided",
		zap.Bool("qualified", qualified),
		zap.String("conversation_id", in.Activity.ConversationID()),
	)

	if qualified {
		sdr.Phase = domain.SDRProposingMeeting
		return domain.NewYesNoCardReply(in.Activity,
			"Com base no que conversamos, acredito que nossas soluções podem realmente agregar valor à sua empresa. "+
				"Gostaria de agendar uma conversa com um de nossos especialistas? Ele(a) poderá apresentar demonstrações personalizadas e discutir como podemos atender às suas necessidades específicas.",
			valueScheduleMeetingYes, valueScheduleMeetingNo)
	}

	sdr.Phase = domain.SDRHandlingUnqualified
	return domain.NewYesNoCardReply(in.Activity,
		"Obrigado pelas informações. No momento, parece que nossas soluções podem não ser o encaixe ideal para as suas necessidades atuais / perfil da sua empresa. "+
			"Gostaria de receber alguns materiais informativos sobre [Tópico Relevante] por e-mail para referência futura? (Sim/Não)",
		valueSendMaterialsYes, valueSendMaterialsNo)
}

func (f *SDRFlow) proposeMeeting(in *TurnInput, sdr *domain.SDRState) *domain.Activity {
	if strings.TrimSpace(in.Text) == valueScheduleMeetingYes {
		sdr.Phase = domain.SDRAwaitingEmailForSchedule
		return domain.NewTextReply(in.Activity, "Excelente! Para qual e-mail posso enviar o convite da reunião?")
	}

	reply := domain.NewTextReply(in.Activity, "Entendido. Se mudar de ideia ou precisar de algo mais, é só chamar!")
	f.finish(in, sdr)
	return reply
}

func (f *SDRFlow) confirmSchedule(in *TurnInput, sdr *domain.SDRState) *domain.Activity {
	sdr.Email = in.Text
	specialist := "[Nome do Especialista]"
	reply := domain.NewTextReply(in.Activity, fmt.Sprintf(
		"Perfeito! Agendamento confirmado com %s. O convite foi enviado para %s. "+
			"Confirmando os dados: Nome: %s, Cargo: %s. "+
			"%s está ansioso para conversar com você. Há mais algo em que posso ajudar agora?",
		specialist, sdr.Email, orDefault(sdr.Name, "N/A"), orDefault(sdr.Role, "N/A"), specialist))
	f.finish(in, sdr)
	return reply
}

func (f *SDRFlow) handleUnqualified(in *TurnInput, sdr *domain.SDRState) *domain.Activity {
	if strings.TrimSpace(in.Text) == valueSendMaterialsYes {
		sdr.Phase = domain.SDRAwaitingEmailForMaterials
		return domain.NewTextReply(in.Activity, "Ótimo! Para qual e-mail posso enviar os materiais?")
	}

	reply := domain.NewTextReply(in.Activity, "Entendido. Agradeço seu tempo e interesse na Tralhotec. Tenha um ótimo dia!")
	f.finish(in, sdr)
	return reply
}

// finish fecha o fluxo: fase volta para none e o turno fica marcado para
// flush do transcript com o LeadRecord construído a partir do estado atual.
func (f *SDRFlow) finish(in *TurnInput, sdr *domain.SDRState) {
	in.Lead = sdr.Lead()
	in.FlushTranscript = true
	sdr.Phase = domain.SDRNone
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
