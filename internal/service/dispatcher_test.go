package service_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tralhotec/tralhobot-go/internal/domain"
	"github.com/tralhotec/tralhobot-go/internal/infra/observability"
	"github.com/tralhotec/tralhobot-go/internal/infra/resilience"
	"github.com/tralhotec/tralhobot-go/internal/infra/statestore"
	"github.com/tralhotec/tralhobot-go/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

type notification struct {
	lead       *domain.LeadRecord
	transcript string
}

type mockNotifier struct {
	mu    sync.Mutex
	sent  []notification
	err   error
	fired chan struct{}
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{fired: make(chan struct{}, 8)}
}

func (m *mockNotifier) Notify(_ context.Context, lead *domain.LeadRecord, transcript string) error {
	m.mu.Lock()
	m.sent = append(m.sent, notification{lead: lead, transcript: transcript})
	m.mu.Unlock()
	m.fired <- struct{}{}
	return m.err
}

func (m *mockNotifier) waitForNotify(t *testing.T) notification {
	t.Helper()
	select {
	case <-m.fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the notification")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[len(m.sent)-1]
}

type dispatcherFixture struct {
	dispatcher *service.Dispatcher
	store      *statestore.Store[*domain.Conversation]
	notifier   *mockNotifier
	classifier *mockClassifier
}

func newDispatcherFixture(classifier *mockClassifier) *dispatcherFixture {
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	store := statestore.New[*domain.Conversation](time.Hour)
	notifier := newMockNotifier()

	resolvers := []service.TurnResolver{
		service.NewSupportFlow(logger),
		service.NewSDRFlow(domain.SizeKeywordPredicate, logger),
	}
	if classifier != nil {
		resolvers = append(resolvers, service.NewClassifierResolver(classifier, metrics, logger))
	}
	resolvers = append(resolvers, service.NewFAQResolver(logger))

	return &dispatcherFixture{
		dispatcher: service.NewDispatcher(store, resolvers, notifier, resilience.NewBulkhead(10), metrics, logger),
		store:      store,
		notifier:   notifier,
		classifier: classifier,
	}
}

func messageActivity(convID, text string) *domain.Activity {
	return &domain.Activity{
		Type:         domain.ActivityMessage,
		ID:           "act-" + convID,
		ChannelID:    "emulator",
		Conversation: &domain.ConversationAccount{ID: convID},
		From:         &domain.ChannelAccount{ID: "user-1"},
		Recipient:    &domain.ChannelAccount{ID: "bot-1"},
		Text:         text,
	}
}

// --- Tests ---

func TestDispatcher_JoinGreetsAndResetsState(t *testing.T) {
	f := newDispatcherFixture(nil)

	// Pre-existing state that the join must wipe.
	stale := domain.NewConversation()
	stale.SDR.Phase = domain.SDRAwaitingCompany
	f.store.Set("conv-join", stale)

	join := &domain.Activity{
		Type:         domain.ActivityConversationUpdate,
		Conversation: &domain.ConversationAccount{ID: "conv-join"},
		Recipient:    &domain.ChannelAccount{ID: "bot-1"},
		MembersAdded: []domain.ChannelAccount{{ID: "user-1"}},
	}

	reply, err := f.dispatcher.HandleTurn(context.Background(), join)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if reply == nil || !strings.Contains(reply.Text, "Bem-vindo(a) à Tralhotec") {
		t.Fatalf("expected the welcome reply, got %+v", reply)
	}

	conv, ok := f.store.Get("conv-join")
	if !ok {
		t.Fatal("expected conversation state stored")
	}
	if conv.SDR.Phase != domain.SDRNone || conv.Support.Phase != domain.SupportNone {
		t.Error("expected both flows reset on join")
	}
	if len(conv.Transcript) != 1 || !strings.HasPrefix(conv.Transcript[0], "Tralhobot: ") {
		t.Errorf("expected the welcome seeded in the transcript, got %v", conv.Transcript)
	}
}

func TestDispatcher_BotOwnJoinIsIgnored(t *testing.T) {
	f := newDispatcherFixture(nil)

	join := &domain.Activity{
		Type:         domain.ActivityConversationUpdate,
		Conversation: &domain.ConversationAccount{ID: "conv-bot"},
		Recipient:    &domain.ChannelAccount{ID: "bot-1"},
		MembersAdded: []domain.ChannelAccount{{ID: "bot-1"}},
	}

	reply, err := f.dispatcher.HandleTurn(context.Background(), join)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if reply != nil {
		t.Errorf("expected no greeting for the bot's own join, got %+v", reply)
	}
}

func TestDispatcher_UnknownActivityTypeIsAcknowledged(t *testing.T) {
	f := newDispatcherFixture(nil)

	reply, err := f.dispatcher.HandleTurn(context.Background(), &domain.Activity{
		Type:         "typing",
		Conversation: &domain.ConversationAccount{ID: "conv-typing"},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if reply != nil {
		t.Errorf("expected nil reply for unhandled activity type, got %+v", reply)
	}
}

func TestDispatcher_DefaultReplyWhenNothingMatches(t *testing.T) {
	f := newDispatcherFixture(nil) // no classifier configured

	reply, err := f.dispatcher.HandleTurn(context.Background(), messageActivity("conv-default", "xyzzy plugh"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(reply.Text, "não entendi sua pergunta") {
		t.Errorf("expected the default reply, got %q", reply.Text)
	}
}

func TestDispatcher_ActiveFlowBeatsClassifier(t *testing.T) {
	classifier := &mockClassifier{result: &domain.IntentResult{TopIntent: domain.IntentSaudacao}}
	f := newDispatcherFixture(classifier)

	conv := domain.NewConversation()
	conv.Support.Phase = domain.SupportAwaitingResolutionConfirmation
	f.store.Set("conv-flow", conv)

	reply, err := f.dispatcher.HandleTurn(context.Background(), messageActivity("conv-flow", "sim"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(reply.Text, "Fico feliz em ajudar") {
		t.Errorf("expected the support flow reply, got %q", reply.Text)
	}
	if classifier.calls != 0 {
		t.Errorf("classifier must not run while a flow is active, got %d calls", classifier.calls)
	}
}

func TestDispatcher_ReplayedAnswerFallsThrough(t *testing.T) {
	// "sim" with both flows at none has no flow to land in: with no
	// classifier and no FAQ keyword it gets the default reply.
	f := newDispatcherFixture(nil)
	f.store.Set("conv-replay", domain.NewConversation())

	reply, err := f.dispatcher.HandleTurn(context.Background(), messageActivity("conv-replay", "sim"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(reply.Text, "não entendi sua pergunta") {
		t.Errorf("expected the default reply for a replayed answer, got %q", reply.Text)
	}
}

func TestDispatcher_ClassifierFailureFallsToFAQ(t *testing.T) {
	classifier := &mockClassifier{err: context.DeadlineExceeded}
	f := newDispatcherFixture(classifier)

	reply, err := f.dispatcher.HandleTurn(context.Background(), messageActivity("conv-faq", "preciso da documentação"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(reply.Text, "SharePoint Online") {
		t.Errorf("expected the FAQ answer after classifier failure, got %q", reply.Text)
	}
}

func TestDispatcher_TranscriptAccumulates(t *testing.T) {
	f := newDispatcherFixture(nil)

	if _, err := f.dispatcher.HandleTurn(context.Background(), messageActivity("conv-log", "qual o preço?")); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	conv, ok := f.store.Get("conv-log")
	if !ok {
		t.Fatal("expected conversation state stored")
	}
	if len(conv.Transcript) != 2 {
		t.Fatalf("expected 2 transcript lines, got %d: %v", len(conv.Transcript), conv.Transcript)
	}
	if conv.Transcript[0] != "User: qual o preço?" {
		t.Errorf("unexpected user line: %q", conv.Transcript[0])
	}
	if !strings.HasPrefix(conv.Transcript[1], "Tralhobot: ") {
		t.Errorf("unexpected bot line: %q", conv.Transcript[1])
	}
}

func TestDispatcher_SDRCompletionNotifiesOnce(t *testing.T) {
	f := newDispatcherFixture(nil)

	qualified := true
	conv := domain.NewConversation()
	conv.SDR = domain.SDRState{
		Phase:     domain.SDRAwaitingEmailForSchedule,
		Name:      "Maria Silva",
		Role:      "Maria Silva",
		Company:   "Empresa XPTO",
		Needs:     "Colaboração",
		Size:      "cerca de 50",
		Qualified: &qualified,
	}
	conv.AppendLine("Tralhobot", "Olá!")
	f.store.Set("conv-done", conv)

	reply, err := f.dispatcher.HandleTurn(context.Background(), messageActivity("conv-done", "maria@xpto.com"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(reply.Text, "Agendamento confirmado") {
		t.Fatalf("expected the schedule confirmation, got %q", reply.Text)
	}

	sent := f.notifier.waitForNotify(t)
	if !sent.lead.Qualified {
		t.Error("expected a qualified lead in the notification")
	}
	if sent.lead.Email != "maria@xpto.com" {
		t.Errorf("expected lead email, got %q", sent.lead.Email)
	}
	if !strings.Contains(sent.transcript, "User: maria@xpto.com") {
		t.Errorf("expected the final turn in the transcript, got %q", sent.transcript)
	}
	if !strings.Contains(sent.transcript, "Tralhobot: Agendamento confirmado") {
		t.Errorf("expected the bot reply in the transcript, got %q", sent.transcript)
	}

	stored, _ := f.store.Get("conv-done")
	if len(stored.Transcript) != 0 {
		t.Errorf("expected transcript cleared after flush, got %v", stored.Transcript)
	}
	if stored.SDR.Phase != domain.SDRNone {
		t.Errorf("expected phase none after flush, got %s", stored.SDR.Phase)
	}

	f.notifier.mu.Lock()
	count := len(f.notifier.sent)
	f.notifier.mu.Unlock()
	if count != 1 {
		t.Errorf("expected exactly one notification, got %d", count)
	}
}

func TestDispatcher_NoNotifierConfiguredStillCompletes(t *testing.T) {
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	store := statestore.New[*domain.Conversation](time.Hour)
	resolvers := []service.TurnResolver{service.NewSDRFlow(domain.SizeKeywordPredicate, logger)}
	d := service.NewDispatcher(store, resolvers, nil, resilience.NewBulkhead(10), metrics, logger)

	qualified := false
	conv := domain.NewConversation()
	conv.SDR = domain.SDRState{Phase: domain.SDRHandlingUnqualified, Qualified: &qualified}
	store.Set("conv-nosink", conv)

	reply, err := d.HandleTurn(context.Background(), messageActivity("conv-nosink", "send_materials_no"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(reply.Text, "Agradeço seu tempo") {
		t.Errorf("expected the close reply, got %q", reply.Text)
	}

	stored, _ := store.Get("conv-nosink")
	if len(stored.Transcript) != 0 {
		t.Error("transcript must be cleared even when no sink is configured")
	}
}

func TestDispatcher_BulkheadRejectsOnCancelledContext(t *testing.T) {
	f := newDispatcherFixture(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.dispatcher.HandleTurn(ctx, messageActivity("conv-cancel", "oi")); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
