// Package channel implements the outbound side of the transport adapter:
// replies are delivered back to the originating channel through its own
// connector endpoint, not on the inbound webhook response.
package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/tralhotec/tralhobot-go/internal/domain"
	"github.com/tralhotec/tralhobot-go/internal/infra/resilience"
)

var tracer = otel.Tracer("infra/channel")

// Connector posts reply activities to
// {serviceUrl}/v3/conversations/{conversationId}/activities.
type Connector struct {
	httpClient  *http.Client
	appID       string
	appPassword string
	cb          *gobreaker.CircuitBreaker
	cfg         resilience.Config
	logger      *zap.Logger

	mu          sync.Mutex
	cachedToken string
	tokenExpiry time.Time
}

// NewConnector creates the outbound channel client. With an empty
// appPassword (Emulator runs) requests go out unauthenticated.
func NewConnector(httpClient *http.Client, appID, appPassword string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Connector {
	return &Connector{
		httpClient:  httpClient,
		appID:       appID,
		appPassword: appPassword,
		cb:          cb,
		cfg:         cfg,
		logger:      logger,
	}
}

// SendActivity delivers one outbound activity. The activity carries its own
// service URL and conversation. Redelivery of a composed reply is harmless,
// so this is the one external call that goes through the retry helper.
func (c *Connector) SendActivity(ctx context.Context, activity *domain.Activity) error {
	ctx, span := tracer.Start(ctx, "Connector.SendActivity")
	defer span.End()
	span.SetAttributes(
		attribute.String("conversation.id", activity.ConversationID()),
		attribute.String("activity.type", activity.Type),
	)

	if activity.ServiceURL == "" || activity.Conversation == nil {
		return &domain.ErrValidation{Field: "serviceUrl", Message: "activity sem destino de canal"}
	}

	endpoint := fmt.Sprintf("%s/v3/conversations/%s/activities",
		activity.ServiceURL, url.PathEscape(activity.Conversation.ID))

	_, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := json.Marshal(activity)
			if err != nil {
				return fmt.Errorf("marshal activity: %w", err)
			}

			httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
			if err != nil {
				return fmt.Errorf("create http request: %w", err)
			}
			httpReq.Header.Set("Content-Type", "application/json")

			if c.appPassword != "" {
				token, err := c.bearerToken()
				if err != nil {
					return fmt.Errorf("sign connector token: %w", err)
				}
				httpReq.Header.Set("Authorization", "Bearer "+token)
			}

			resp, err := c.httpClient.Do(httpReq)
			if err != nil {
				return fmt.Errorf("http call to channel: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode >= 300 {
				return fmt.Errorf("channel connector returned status %d", resp.StatusCode)
			}
			return nil
		})
		return nil, innerErr
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "channel", Err: err}
	}

	return nil
}

// bearerToken returns a short-lived HS256 token signed with the app
// credential pair, cached until shortly before expiry.
func (c *Connector) bearerToken() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cachedToken != "" && time.Now().Before(c.tokenExpiry.Add(-1*time.Minute)) {
		return c.cachedToken, nil
	}

	expiry := time.Now().Add(10 * time.Minute)
	claims := jwt.MapClaims{
		"iss": c.appID,
		"aud": c.appID,
		"iat": jwt.NewNumericDate(time.Now()),
		"exp": jwt.NewNumericDate(expiry),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.appPassword))
	if err != nil {
		return "", err
	}

	c.cachedToken = token
	c.tokenExpiry = expiry
	return token, nil
}
