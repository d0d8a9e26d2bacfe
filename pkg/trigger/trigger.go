package trigger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/tsukikage-sato/contact-web/pkg/httpclient"
	"github.com/tsukikage-sato/contact-web/pkg/logger"
	"github.com/tsukikage-sato/contact-web/pkg/metrics"
	"github.com/tsukikage-sato/contact-web/pkg/retry"
)

// Event is posted to a trigger URL. It never carries the guest's message or contact details.
type Event struct {
	Type       string `json:"type"`
	RequestID  string `json:"requestId"`
	OccurredAt string `json:"occurredAt"`
}

const asyncTimeout = 30 * time.Second

// Call posts event to triggerURL, retrying transient failures
func Call(ctx context.Context, triggerURL string, event Event, httpClient httpclient.Client, config retry.Config) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode trigger event: %w", err)
	}

	return retry.Do(ctx, config, "trigger:"+event.Type, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, triggerURL, bytes.NewReader(body))
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return nil
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("trigger returned status %d", resp.StatusCode)
		default:
			return retry.Permanent(fmt.Errorf("trigger returned status %d", resp.StatusCode))
		}
	})
}

// CallAsync posts event in the background. Failures are logged but don't
// affect the operation that raised the event.
func CallAsync(triggerURL string, event Event, httpClient httpclient.Client) {
	if triggerURL == "" {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), asyncTimeout)
		defer cancel()

		if err := Call(ctx, triggerURL, event, httpClient, retry.WebhookConfig()); err != nil {
			metrics.NotificationTriggers.WithLabelValues("error").Inc()
			logger.Error("Failed to call trigger URL",
				zap.Error(err),
				zap.String("event", event.Type),
				zap.String("request_id", event.RequestID))
			return
		}

		metrics.NotificationTriggers.WithLabelValues("success").Inc()
		logger.Info("Trigger URL called successfully",
			zap.String("event", event.Type),
			zap.String("request_id", event.RequestID))
	}()
}
