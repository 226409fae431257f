package upstream

import (
	"context"
	"net/http"
	"time"

	"emr-metadata-dashboard/internal/dashboard/domain/repository"
	"emr-metadata-dashboard/internal/shared/errors"
	"emr-metadata-dashboard/internal/shared/metrics"
)

// WebhookClient posts verification requests to the sync pipeline.
type WebhookClient struct {
	baseClient
}

var _ repository.VerificationWebhook = (*WebhookClient)(nil)

func NewWebhookClient(webhookURL string, timeout time.Duration, m *metrics.Metrics) *WebhookClient {
	return &WebhookClient{baseClient: newBaseClient("verification_webhook", webhookURL, timeout, m)}
}

func (c *WebhookClient) Trigger(ctx context.Context, vr repository.VerificationRequest) error {
	if c.baseURL == "" {
		return errors.NewUpstreamError("verification webhook is not configured")
	}
	body, err := jsonBody(vr)
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPost, "", body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doJSON(req, nil)
}
