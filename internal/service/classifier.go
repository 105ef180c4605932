package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/tralhotec/tralhobot-go/internal/domain"
	"github.com/tralhotec/tralhobot-go/internal/infra/observability"
	"github.com/tralhotec/tralhobot-go/internal/port"
)

// ============================================================
// ClassifierResolver — gateway de intenções na cadeia de fallback
// ============================================================
//
// Só entra no pipeline quando o CLU está totalmente configurado (endpoint +
// projeto + deployment). Qualquer erro do serviço é engolido: loga, conta a
// métrica e passa o turno adiante para o FAQ — nunca chega ao usuário e
// nunca há retry.
//
// A tabela intenção → resposta é fixa. SolicitarSuporte e QualificarSDR,
// além de responder, transicionam o fluxo correspondente para a fase
// inicial — só acontecem com as duas máquinas em none, porque os resolvers
// de fluxo vêm antes na cadeia.
type ClassifierResolver struct {
	classifier port.IntentClassifier
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewClassifierResolver creates the classifier tier of the pipeline.
func NewClassifierResolver(classifier port.IntentClassifier, metrics *observability.Metrics, logger *zap.Logger) *ClassifierResolver {
	return &ClassifierResolver{classifier: classifier, metrics: metrics, logger: logger}
}

// Name identifies this resolver in logs and metrics.
func (c *ClassifierResolver) Name() string { return observability.ResolverClassifier }

// Resolve classifies the utterance and answers from the fixed intent table.
// A successful prediction always owns the turn — including the explicit
// "None" intent, which answers the default text without falling to the FAQ.
func (c *ClassifierResolver) Resolve(ctx context.Context, in *TurnInput) (*domain.Activity, bool) {
	result, err := c.classifier.Classify(ctx, &domain.Utterance{
		ConversationID: in.Activity.ConversationID(),
		UtteranceID:    in.Activity.UtteranceID(),
		ParticipantID:  participantID(in.Activity),
		Text:           in.Text,
	})
	if err != nil {
		c.metrics.IncrClassifierError()
		c.logger.Warn("classifier call failed, falling through",
			zap.String("conversation_id", in.Activity.ConversationID()),
			zap.Error(err),
		)
		return nil, false
	}

	c.logger.Info("intent classified",
		zap.String("intent", result.TopIntent),
		zap.Float64("confidence", result.Confidence),
		zap.Int("entities", len(result.Entities)),
	)

	var text string
	switch result.TopIntent {
	case domain.IntentSaudacao:
		text = greetingReplyText
	case domain.IntentPerguntarPreco:
		text = priceReplyText
	case domain.IntentSolicitarSuporte:
		in.Conversation.Support.Phase = domain.SupportAwaitingProblemDescription
		text = supportIntroText
	case domain.IntentQualificarSDR:
		in.Conversation.SDR.Phase = domain.SDRAwaitingNameRole
		text = sdrIntroText
	case domain.IntentDespedida:
		text = farewellReplyText
	default:
		// IntentNone e rótulos não mapeados respondem o texto padrão.
		text = defaultReplyText
	}

	return domain.NewTextReply(in.Activity, text), true
}

func participantID(a *domain.Activity) string {
	if a.From != nil {
		return a.From.ID
	}
	return ""
}
