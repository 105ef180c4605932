package domain

import "strings"

// ============================================================
// Fases dos fluxos — enums tipados no lugar dos dicts do bot antigo
// ============================================================

// SupportPhase é a fase atual do fluxo de suporte.
type SupportPhase string

const (
	SupportNone                           SupportPhase = "none"
	SupportAwaitingProblemDescription     SupportPhase = "awaiting_problem_description"
	SupportAwaitingResolutionConfirmation SupportPhase = "awaiting_resolution_confirmation"
	SupportAwaitingEscalationDetails      SupportPhase = "awaiting_escalation_details"
)

// SDRPhase é a fase atual do fluxo de qualificação SDR.
type SDRPhase string

const (
	SDRNone                      SDRPhase = "none"
	SDRAwaitingNameRole          SDRPhase = "awaiting_name_role"
	SDRAwaitingCompany           SDRPhase = "awaiting_company"
	SDRAwaitingNeeds             SDRPhase = "awaiting_needs"
	SDRAwaitingSize              SDRPhase = "awaiting_size"
	SDRProposingMeeting          SDRPhase = "proposing_meeting"
	SDRAwaitingEmailForSchedule  SDRPhase = "awaiting_email_for_schedule"
	SDRHandlingUnqualified       SDRPhase = "handling_unqualified"
	SDRAwaitingEmailForMaterials SDRPhase = "awaiting_email_for_materials"
)

// SupportState carrega o estado mutável do fluxo de suporte.
type SupportState struct {
	Phase SupportPhase
}

// SDRState carrega o estado mutável do fluxo SDR: a fase e os dados
// coletados turno a turno. Qualified é um ponteiro porque a qualificação
// é decidida exatamente uma vez, na transição a partir de awaiting_size —
// nil significa "ainda não avaliado".
type SDRState struct {
	Phase     SDRPhase
	Name      string
	Role      string
	Company   string
	Needs     string
	Size      string
	Email     string
	Qualified *bool
}

// Lead monta o LeadRecord efêmero entregue ao sink de notificação
// quando o fluxo SDR termina.
func (s *SDRState) Lead() *LeadRecord {
	qualified := s.Qualified != nil && *s.Qualified
	return &LeadRecord{
		Name:      s.Name,
		Role:      s.Role,
		Company:   s.Company,
		Needs:     s.Needs,
		Size:      s.Size,
		Email:     s.Email,
		Qualified: qualified,
	}
}

// LeadRecord é o registro de lead enviado aos stakeholders.
// Não é armazenado além do envio do e-mail.
type LeadRecord struct {
	Name      string
	Role      string
	Company   string
	Needs     string
	Size      string
	Email     string
	Qualified bool
}

// ============================================================
// Conversation — estado por conversa, vive no Turn State Store
// ============================================================

// Conversation é o estado completo de uma conversa: as duas máquinas de
// estado e o log de transcrição. Invariante: no máximo uma das fases
// (Support.Phase, SDR.Phase) é diferente de none — o suporte é checado
// primeiro pelo dispatcher.
type Conversation struct {
	Support    SupportState
	SDR        SDRState
	Transcript []string
}

// NewConversation returns the default state for a fresh conversation:
// both flows at none, empty transcript.
func NewConversation() *Conversation {
	return &Conversation{
		Support: SupportState{Phase: SupportNone},
		SDR:     SDRState{Phase: SDRNone},
	}
}

// ResetFlows zera as duas máquinas de estado (evento de entrada na conversa).
func (c *Conversation) ResetFlows() {
	c.Support = SupportState{Phase: SupportNone}
	c.SDR = SDRState{Phase: SDRNone}
}

// AppendLine appends one "speaker: text" line to the transcript.
func (c *Conversation) AppendLine(speaker, text string) {
	c.Transcript = append(c.Transcript, speaker+": "+text)
}

// TranscriptText renders the transcript as the plain-text block the
// notification e-mail embeds.
func (c *Conversation) TranscriptText() string {
	if len(c.Transcript) == 0 {
		return ""
	}
	return strings.Join(c.Transcript, "\n") + "\n"
}

// ClearTranscript wipes the log after it has been flushed to the sink.
func (c *Conversation) ClearTranscript() {
	c.Transcript = nil
}

// ============================================================
// Predicado de qualificação — plugável, decidido pelo produto
// ============================================================

// QualificationPredicate decide, a partir do cargo e do porte informados,
// se o lead é qualificado. Avaliado uma única vez por conversa.
type QualificationPredicate func(role, size string) bool

// SizeKeywordPredicate é o predicado padrão (revisão mais recente do bot):
// qualifica quando o texto do porte contém "10", "50" ou "grande".
func SizeKeywordPredicate(_, size string) bool {
	lower := strings.ToLower(size)
	for _, kw := range []string{"10", "50", "grande"} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// RoleAndSizePredicate é a variante antiga: exige cargo com senioridade E
// empresa de pequeno porte. Mantida para o produto poder trocar sem tocar
// na máquina de estados.
func RoleAndSizePredicate(role, size string) bool {
	roleLower := strings.ToLower(role)
	sizeLower := strings.ToLower(size)

	seniority := false
	for _, r := range []string{"gerente", "diretor", "sócio", "coordenador"} {
		if strings.Contains(roleLower, r) {
			seniority = true
			break
		}
	}
	if !seniority {
		return false
	}
	for _, s := range []string{"até 10", "11-50", "pequeno"} {
		if strings.Contains(sizeLower, s) {
			return true
		}
	}
	return false
}

// ============================================================
// Classificador de intenções — resultado normalizado
// ============================================================

// Utterance é a entrada do gateway de classificação.
type Utterance struct {
	ConversationID string
	UtteranceID    string
	ParticipantID  string
	Text           string
}

// Entity is a span the classifier recognized inside the utterance.
type Entity struct {
	Category string
	Text     string
}

// IntentResult is the classifier prediction normalized for the dispatcher.
type IntentResult struct {
	TopIntent  string
	Confidence float64
	Entities   []Entity
}

// Intent labels the CLU project exposes.
const (
	IntentSaudacao         = "Saudacao"
	IntentPerguntarPreco   = "PerguntarPreco"
	IntentSolicitarSuporte = "SolicitarSuporte"
	IntentQualificarSDR    = "QualificarSDR"
	IntentDespedida        = "Despedida"
	IntentNone             = "None"
)
