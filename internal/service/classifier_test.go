package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tralhotec/tralhobot-go/internal/domain"
	"github.com/tralhotec/tralhobot-go/internal/infra/observability"
	"github.com/tralhotec/tralhobot-go/internal/service"

	"go.uber.org/zap"
)

type mockClassifier struct {
	result *domain.IntentResult
	err    error
	calls  int
}

func (m *mockClassifier) Classify(_ context.Context, _ *domain.Utterance) (*domain.IntentResult, error) {
	m.calls++
	return m.result, m.err
}

func TestClassifier_SupportIntentStartsFlow(t *testing.T) {
	resolver := service.NewClassifierResolver(
		&mockClassifier{result: &domain.IntentResult{TopIntent: domain.IntentSolicitarSuporte, Confidence: 0.91}},
		observability.NewMetrics(),
		zap.NewNop(),
	)
	conv := domain.NewConversation()

	reply, handled := resolver.Resolve(context.Background(), newTurnInput(conv, "preciso de ajuda com o sistema"))
	if !handled {
		t.Fatal("expected classifier to own the turn")
	}
	if !strings.Contains(reply.Text, "descrever o problema") {
		t.Errorf("expected the support intro, got %q", reply.Text)
	}
	if conv.Support.Phase != domain.SupportAwaitingProblemDescription {
		t.Errorf("expected support flow started, got %s", conv.Support.Phase)
	}
	if conv.SDR.Phase != domain.SDRNone {
		t.Errorf("SDR flow must stay inactive, got %s", conv.SDR.Phase)
	}
}

func TestClassifier_SDRIntentStartsFlow(t *testing.T) {
	resolver := service.NewClassifierResolver(
		&mockClassifier{result: &domain.IntentResult{TopIntent: domain.IntentQualificarSDR, Confidence: 0.88}},
		observability.NewMetrics(),
		zap.NewNop(),
	)
	conv := domain.NewConversation()

	reply, handled := resolver.Resolve(context.Background(), newTurnInput(conv, "quero falar com um especialista"))
	if !handled {
		t.Fatal("expected classifier to own the turn")
	}
	if !strings.Contains(reply.Text, "seu nome completo") {
		t.Errorf("expected the SDR intro, got %q", reply.Text)
	}
	if conv.SDR.Phase != domain.SDRAwaitingNameRole {
		t.Errorf("expected SDR flow started, got %s", conv.SDR.Phase)
	}
	if conv.Support.Phase != domain.SupportNone {
		t.Errorf("support flow must stay inactive, got %s", conv.Support.Phase)
	}
}

func TestClassifier_NoneIntentOwnsTheTurn(t *testing.T) {
	resolver := service.NewClassifierResolver(
		&mockClassifier{result: &domain.IntentResult{TopIntent: domain.IntentNone, Confidence: 0.40}},
		observability.NewMetrics(),
		zap.NewNop(),
	)
	conv := domain.NewConversation()

	reply, handled := resolver.Resolve(context.Background(), newTurnInput(conv, "xyzzy"))
	if !handled {
		t.Fatal("a successful prediction owns the turn, including None")
	}
	if !strings.Contains(reply.Text, "não entendi sua pergunta") {
		t.Errorf("expected the default reply for None, got %q", reply.Text)
	}
}

func TestClassifier_ErrorFallsThrough(t *testing.T) {
	resolver := service.NewClassifierResolver(
		&mockClassifier{err: errors.New("service unavailable")},
		observability.NewMetrics(),
		zap.NewNop(),
	)
	conv := domain.NewConversation()

	reply, handled := resolver.Resolve(context.Background(), newTurnInput(conv, "qual o preço?"))
	if handled {
		t.Fatal("expected classifier failure to pass the turn")
	}
	if reply != nil {
		t.Error("expected nil reply on failure")
	}
	if conv.Support.Phase != domain.SupportNone || conv.SDR.Phase != domain.SDRNone {
		t.Error("a failed classification must not touch flow state")
	}
}

func TestClassifier_GreetingAndFarewell(t *testing.T) {
	cases := []struct {
		intent string
		expect string
	}{
		{domain.IntentSaudacao, "Como posso ajudar você hoje?"},
		{domain.IntentPerguntarPreco, "Nossos preços variam"},
		{domain.IntentDespedida, "Até logo!"},
	}
	for _, tc := range cases {
		resolver := service.NewClassifierResolver(
			&mockClassifier{result: &domain.IntentResult{TopIntent: tc.intent}},
			observability.NewMetrics(),
			zap.NewNop(),
		)
		reply, handled := resolver.Resolve(context.Background(), newTurnInput(domain.NewConversation(), "oi"))
		if !handled {
			t.Fatalf("%s: expected handled turn", tc.intent)
		}
		if !strings.Contains(reply.Text, tc.expect) {
			t.Errorf("%s: expected %q in reply, got %q", tc.intent, tc.expect, reply.Text)
		}
	}
}
