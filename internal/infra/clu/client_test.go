package clu_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tralhotec/tralhobot-go/internal/domain"
	"github.com/tralhotec/tralhobot-go/internal/infra/clu"
	"github.com/tralhotec/tralhobot-go/internal/infra/resilience"
)

func testUtterance() *domain.Utterance {
	return &domain.Utterance{
		ConversationID: "conv-1",
		UtteranceID:    "utt-1",
		ParticipantID:  "user-1",
		Text:           "quero falar com um especialista",
	}
}

func TestClassify_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/language/:analyze-conversations" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("api-version") != "2023-04-01" {
			t.Errorf("unexpected api-version: %s", r.URL.Query().Get("api-version"))
		}
		if r.Header.Get("Ocp-Apim-Subscription-Key") != "secret-key" {
			t.Errorf("missing subscription key header")
		}

		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if payload["kind"] != "Conversation" {
			t.Errorf("expected kind Conversation, got %v", payload["kind"])
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"result": {
				"prediction": {
					"topIntent": "QualificarSDR",
					"intents": [{"category": "QualificarSDR", "confidenceScore": 0.93}],
					"entities": [{"category": "Cargo", "text": "especialista"}]
				}
			}
		}`))
	}))
	defer server.Close()

	client := clu.NewClient(
		&http.Client{Timeout: 5 * time.Second},
		server.URL, "secret-key", "tralhobot-clu", "production",
		resilience.NewCircuitBreaker("clu-test"),
	)

	result, err := client.Classify(context.Background(), testUtterance())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.TopIntent != "QualificarSDR" {
		t.Errorf("expected topIntent QualificarSDR, got %s", result.TopIntent)
	}
	if result.Confidence != 0.93 {
		t.Errorf("expected confidence 0.93, got %f", result.Confidence)
	}
	if len(result.Entities) != 1 || result.Entities[0].Category != "Cargo" {
		t.Errorf("unexpected entities: %+v", result.Entities)
	}
}

func TestClassify_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := clu.NewClient(
		&http.Client{Timeout: 5 * time.Second},
		server.URL, "key", "project", "deployment",
		resilience.NewCircuitBreaker("clu-test-503"),
	)

	_, err := client.Classify(context.Background(), testUtterance())
	if err == nil {
		t.Fatal("expected error for 503 response")
	}

	var extErr *domain.ErrExternalService
	if !errors.As(err, &extErr) {
		t.Fatalf("expected ErrExternalService, got %T", err)
	}
	if extErr.Service != "clu" {
		t.Errorf("expected service 'clu', got %s", extErr.Service)
	}
}

func TestClassify_EmptyPredictionIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result": {"prediction": {"topIntent": ""}}}`))
	}))
	defer server.Close()

	client := clu.NewClient(
		&http.Client{Timeout: 5 * time.Second},
		server.URL, "key", "project", "deployment",
		resilience.NewCircuitBreaker("clu-test-empty"),
	)

	_, err := client.Classify(context.Background(), testUtterance())
	if err == nil {
		t.Fatal("expected error for a response without a prediction")
	}
}

func TestClassify_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := clu.NewClient(
		&http.Client{Timeout: 50 * time.Millisecond},
		server.URL, "key", "project", "deployment",
		resilience.NewCircuitBreaker("clu-test-timeout"),
	)

	_, err := client.Classify(context.Background(), testUtterance())
	if err == nil {
		t.Fatal("expected timeout error")
	}
}
