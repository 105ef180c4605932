// Package service implements the dialogue core: the per-turn dispatcher and
// the resolver tiers it routes through (support flow, SDR flow, intent
// classifier, FAQ, default reply).
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/tralhotec/tralhobot-go/internal/domain"
	"github.com/tralhotec/tralhobot-go/internal/infra/observability"
	"github.com/tralhotec/tralhobot-go/internal/infra/resilience"
	"github.com/tralhotec/tralhobot-go/internal/port"
)

var tracer = otel.Tracer("service/dispatcher")

// notifyTimeout bounds the fire-and-observe notification send.
const notifyTimeout = 10 * time.Second

// ============================================================
// Dispatcher — controle por turno
// ============================================================
//
// Um turno é lógico-atômico por conversa: o par get/set no state store roda
// dentro do lock da chave, então dois turnos da mesma conversa nunca se
// entrelaçam. Conversas diferentes rodam em paralelo, limitadas apenas pelo
// bulkhead.
type Dispatcher struct {
	store     port.ConversationStore
	resolvers []TurnResolver
	notifier  port.LeadNotifier
	bulkhead  *resilience.Bulkhead
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewDispatcher creates the per-turn dispatcher.
//
// The resolvers slice is the fallback chain in priority order; main wires it
// as support flow → SDR flow → classifier (when configured) → FAQ. The
// notifier may be nil when no SMTP is configured — completions then only log.
func NewDispatcher(
	store port.ConversationStore,
	resolvers []TurnResolver,
	notifier port.LeadNotifier,
	bulkhead *resilience.Bulkhead,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		store:     store,
		resolvers: resolvers,
		notifier:  notifier,
		bulkhead:  bulkhead,
		metrics:   metrics,
		logger:    logger,
	}
}

// HandleTurn processes one inbound activity and returns the reply to send
// back through the channel, or nil when the activity type warrants none.
//
// Panics anywhere in the core surface as the generic apology reply — an
// unmatched phase or a broken resolver must never kill the turn.
func (d *Dispatcher) HandleTurn(ctx context.Context, activity *domain.Activity) (reply *domain.Activity, err error) {
	if err := d.bulkhead.Acquire(ctx); err != nil {
		return nil, err
	}
	defer d.bulkhead.Release()

	ctx, span := tracer.Start(ctx, "Dispatcher.HandleTurn")
	defer span.End()
	span.SetAttributes(
		attribute.String("conversation.id", activity.ConversationID()),
		attribute.String("activity.type", activity.Type),
	)

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic while handling turn",
				zap.Any("panic", r),
				zap.String("conversation_id", activity.ConversationID()),
			)
			err = fmt.Errorf("turn panicked: %v", r)
			reply = domain.NewTextReply(activity, "Desculpe, algo deu errado no Tralhobot.")
		}
	}()

	switch activity.Type {
	case domain.ActivityConversationUpdate:
		return d.handleJoin(ctx, activity), nil
	case domain.ActivityMessage:
		return d.handleMessage(ctx, activity), nil
	default:
		// Typing indicators etc. — acknowledged, never answered.
		return nil, nil
	}
}

// handleJoin greets a member added to the conversation: both flow states are
// reset and the transcript is seeded with the welcome line. The bot's own
// join (recipient id) is ignored.
func (d *Dispatcher) handleJoin(ctx context.Context, activity *domain.Activity) *domain.Activity {
	_, span := tracer.Start(ctx, "Dispatcher.handleJoin")
	defer span.End()

	botID := ""
	if activity.Recipient != nil {
		botID = activity.Recipient.ID
	}

	greeted := false
	for _, member := range activity.MembersAdded {
		if member.ID == botID {
			continue
		}
		greeted = true
	}
	if !greeted {
		return nil
	}

	convID := activity.ConversationID()
	unlock := d.store.Lock(convID)
	defer unlock()

	conv := domain.NewConversation()
	conv.AppendLine("Tralhobot", welcomeText)
	d.store.Set(convID, conv)

	d.metrics.IncrConversationStarted()
	d.logger.Info("conversation started", zap.String("conversation_id", convID))

	return domain.NewTextReply(activity, welcomeText)
}

// handleMessage runs the resolver pipeline for one message turn under the
// conversation's key lock, appends the exchange to the transcript and, when
// the SDR flow completed, flushes the transcript to the notification sink.
func (d *Dispatcher) handleMessage(ctx context.Context, activity *domain.Activity) *domain.Activity {
	start := time.Now()
	convID := activity.ConversationID()

	unlock := d.store.Lock(convID)
	defer unlock()

	conv, ok := d.store.Get(convID)
	if !ok {
		conv = domain.NewConversation()
	}

	in := &TurnInput{
		Activity:     activity,
		Conversation: conv,
		Text:         activity.Text,
		Lower:        strings.ToLower(activity.Text),
	}

	reply, resolver := d.resolve(ctx, in)

	conv.AppendLine("User", activity.Text)
	conv.AppendLine("Tralhobot", reply.DisplayText())

	if in.FlushTranscript {
		d.flushTranscript(ctx, conv, in.Lead)
	}

	d.store.Set(convID, conv)
	d.metrics.RecordTurn(resolver, time.Since(start))
	d.logger.Debug("turn handled",
		zap.String("conversation_id", convID),
		zap.String("resolver", resolver),
		zap.String("support_phase", string(conv.Support.Phase)),
		zap.String("sdr_phase", string(conv.SDR.Phase)),
	)

	return reply
}

// resolve percorre a cadeia em ordem; o primeiro resolver que aceitar o
// turno responde. Sem aceite, vale o texto padrão.
func (d *Dispatcher) resolve(ctx context.Context, in *TurnInput) (*domain.Activity, string) {
	for _, r := range d.resolvers {
		if reply, handled := r.Resolve(ctx, in); handled {
			return reply, r.Name()
		}
	}
	return domain.NewTextReply(in.Activity, defaultReplyText), observability.ResolverDefault
}

// flushTranscript hands the completed lead and the transcript to the
// notification sink and clears the log. Fire-and-observe: the send runs off
// the turn's critical path and its failure only logs — the reply to the
// user is already decided.
func (d *Dispatcher) flushTranscript(ctx context.Context, conv *domain.Conversation, lead *domain.LeadRecord) {
	transcript := conv.TranscriptText()
	conv.ClearTranscript()

	if d.notifier == nil {
		d.logger.Warn("lead notification skipped: no sink configured",
			zap.Bool("qualified", lead.Qualified),
		)
		return
	}

	go func() {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()

		if err := d.notifier.Notify(sendCtx, lead, transcript); err != nil {
			d.metrics.IncrNotification("failed")
			d.logger.Error("lead notification failed", zap.Error(err))
			return
		}
		d.metrics.IncrNotification("sent")
	}()
}
