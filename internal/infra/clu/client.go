// Package clu implements the Intent Classifier Gateway: a thin client for
// the Azure Conversational Language Understanding REST API that normalizes
// its prediction shape for the dispatcher.
package clu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tralhotec/tralhobot-go/internal/domain"
)

var tracer = otel.Tracer("infra/clu")

const apiVersion = "2023-04-01"

// ============================================================
// Wire shapes — casam com o contrato :analyze-conversations
// ============================================================

type conversationItem struct {
	ParticipantID string `json:"participantId"`
	ID            string `json:"id"`
	Text          string `json:"text"`
	Modality      string `json:"modality"`
	Language      string `json:"language"`
}

type analysisInput struct {
	ConversationItem conversationItem `json:"conversationItem"`
}

type parameters struct {
	ProjectName    string `json:"projectName"`
	DeploymentName string `json:"deploymentName"`
	Verbose        bool   `json:"verbose"`
}

type analyzeRequest struct {
	Kind          string        `json:"kind"`
	AnalysisInput analysisInput `json:"analysisInput"`
	Parameters    parameters    `json:"parameters"`
}

type analyzeResponse struct {
	Result struct {
		Prediction struct {
			TopIntent string `json:"topIntent"`
			Intents   []struct {
				Category        string  `json:"category"`
				ConfidenceScore float64 `json:"confidenceScore"`
			} `json:"intents"`
			Entities []struct {
				Category string `json:"category"`
				Text     string `json:"text"`
			} `json:"entities"`
		} `json:"prediction"`
	} `json:"result"`
}

// Client calls the CLU analyze-conversations endpoint.
type Client struct {
	httpClient     *http.Client
	endpoint       string
	key            string
	projectName    string
	deploymentName string
	cb             *gobreaker.CircuitBreaker
}

// NewClient creates the classifier gateway. The endpoint is the Azure
// Language resource base URL (no path).
func NewClient(httpClient *http.Client, endpoint, key, projectName, deploymentName string, cb *gobreaker.CircuitBreaker) *Client {
	return &Client{
		httpClient:     httpClient,
		endpoint:       endpoint,
		key:            key,
		projectName:    projectName,
		deploymentName: deploymentName,
		cb:             cb,
	}
}

// Classify sends one utterance for analysis and returns the normalized
// prediction. Any transport or service error comes back as ErrExternalService;
// there are no retries — the dispatcher falls through to the FAQ tier.
func (c *Client) Classify(ctx context.Context, u *domain.Utterance) (*domain.IntentResult, error) {
	ctx, span := tracer.Start(ctx, "CLUClient.Classify")
	defer span.End()
	span.SetAttributes(attribute.String("conversation.id", u.ConversationID))

	result, err := c.cb.Execute(func() (any, error) {
		payload := analyzeRequest{
			Kind: "Conversation",
			AnalysisInput: analysisInput{
				ConversationItem: conversationItem{
					ParticipantID: u.ParticipantID,
					ID:            u.UtteranceID,
					Text:          u.Text,
					Modality:      "text",
					Language:      domain.DefaultLocale,
				},
			},
			Parameters: parameters{
				ProjectName:    c.projectName,
				DeploymentName: c.deploymentName,
				Verbose:        true,
			},
		}

		body, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal analyze request: %w", err)
		}

		url := fmt.Sprintf("%s/language/:analyze-conversations?api-version=%s", c.endpoint, apiVersion)
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("create http request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if c.key != "" {
			httpReq.Header.Set("Ocp-Apim-Subscription-Key", c.key)
		}

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return nil, fmt.Errorf("http call to clu: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("clu analyze-conversations returned status %d", resp.StatusCode)
		}

		var decoded analyzeResponse
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return nil, fmt.Errorf("decode clu response: %w", err)
		}

		prediction := decoded.Result.Prediction
		if prediction.TopIntent == "" {
			return nil, fmt.Errorf("clu response carried no prediction")
		}

		out := &domain.IntentResult{TopIntent: prediction.TopIntent}
		if len(prediction.Intents) > 0 {
			out.Confidence = prediction.Intents[0].ConfidenceScore
		}
		for _, e := range prediction.Entities {
			out.Entities = append(out.Entities, domain.Entity{Category: e.Category, Text: e.Text})
		}
		return out, nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "clu", Err: err}
	}

	return result.(*domain.IntentResult), nil
}
