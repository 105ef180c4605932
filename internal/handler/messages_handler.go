package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/tralhotec/tralhobot-go/internal/domain"
	"github.com/tralhotec/tralhobot-go/internal/port"
	"github.com/tralhotec/tralhobot-go/internal/service"
)

var tracer = otel.Tracer("handler")

// ============================================================
// MessagesHandler — POST /api/messages
// ============================================================
//
// Único endpoint do webhook. Recebe o payload de activity do canal, roda o
// turno e devolve 201 com corpo vazio — a resposta de verdade sai pela
// chamada outbound do conector, não por aqui.
//
// Regras de borda (antes de qualquer lógica do core):
//
//	Content-Type sem application/json → 415
//	JSON malformado                   → 400
//	aceito                            → 201
func MessagesHandler(dispatcher *service.Dispatcher, sender port.ActivitySender, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/messages")
		defer span.End()

		if !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
			writeError(w, http.StatusUnsupportedMediaType, "Tipo de conteúdo não suportado")
			return
		}

		var activity domain.Activity
		if err := json.NewDecoder(r.Body).Decode(&activity); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Erro ao parsear JSON: %v", err))
			return
		}
		span.SetAttributes(
			attribute.String("activity.type", activity.Type),
			attribute.String("conversation.id", activity.ConversationID()),
		)

		if activity.ConversationID() == "" {
			writeError(w, http.StatusBadRequest, "activity sem conversation id")
			return
		}

		reply, err := dispatcher.HandleTurn(ctx, &activity)
		if err != nil {
			logger.Error("turn failed",
				zap.String("conversation_id", activity.ConversationID()),
				zap.Error(err),
			)
			if reply == nil {
				// O turno nem chegou a rodar (bulkhead cheio, contexto
				// cancelado): responde o status certo e deixa o canal
				// reentregar a activity.
				handleServiceError(w, err, logger)
				return
			}
			// O dispatcher já converteu panics do core em uma resposta de
			// desculpas; entrega ela e, no Emulator, o trace com o detalhe.
			deliver(ctx, sender, reply, logger)
			if activity.ChannelID == "emulator" {
				deliver(ctx, sender, domain.NewTraceReply(&activity, err.Error()), logger)
			}
			writeJSON(w, http.StatusCreated, struct{}{})
			return
		}

		if reply != nil {
			deliver(ctx, sender, reply, logger)
		}

		writeJSON(w, http.StatusCreated, struct{}{})
	}
}

// deliver sends one outbound activity through the channel connector.
// Delivery failure does not change the webhook acknowledgement — the turn
// was processed and its state persisted.
func deliver(ctx context.Context, sender port.ActivitySender, activity *domain.Activity, logger *zap.Logger) {
	if sender == nil {
		return
	}
	if err := sender.SendActivity(ctx, activity); err != nil {
		logger.Error("reply delivery failed",
			zap.String("conversation_id", activity.ConversationID()),
			zap.Error(err),
		)
	}
}
