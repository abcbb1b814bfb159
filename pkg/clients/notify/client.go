package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/mamadbah2/livestock/internal/config"
)

// Client delivers lifecycle notifications to a configured webhook endpoint.
type Client interface {
	SendEvent(ctx context.Context, event Event) error
}

// Event is the payload posted to the webhook when a batch, package or order
// reaches a terminal state, or when the daily summary is published.
type Event struct {
	Kind       string    `json:"kind"`
	EntityID   string    `json:"entity_id,omitempty"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Event kinds posted to the webhook.
const (
	KindImportCompleted  = "import.completed"
	KindExportCompleted  = "export.completed"
	KindPackageCompleted = "package.completed"
	KindOrderCompleted   = "order.completed"
	KindDailySummary     = "report.daily_summary"
)

// Emit posts the event when a client is configured. Delivery is best effort:
// failures are logged, never returned, so a webhook outage cannot fail the
// operation that triggered the event.
func Emit(ctx context.Context, c Client, logger *zap.Logger, event Event) {
	if c == nil {
		return
	}
	if err := c.SendEvent(ctx, event); err != nil {
		logger.Warn("failed to deliver notify event",
			zap.String("kind", event.Kind),
			zap.String("entity_id", event.EntityID),
			zap.Error(err))
	}
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
	webhookURL string
}

// NewClient builds a webhook client using the provided configuration values.
func NewClient(cfg config.NotifyConfig) *APIClient {
	restyClient := resty.New()
	restyClient.
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	if cfg.Token != "" {
		restyClient.SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.Token))
	}

	return &APIClient{
		httpClient: restyClient,
		webhookURL: cfg.WebhookURL,
	}
}

// apiError represents a webhook error payload.
type apiError struct {
	Error string `json:"error"`
}

func (c *APIClient) SendEvent(ctx context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(event).
		SetError(apiErr).
		Post(c.webhookURL)
	if err != nil {
		return fmt.Errorf("send notify event: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		message := ""
		if apiErr != nil {
			message = apiErr.Error
		}
		return fmt.Errorf("notify webhook error: code=%d, message=%s", resp.StatusCode(), message)
	}

	return nil
}
