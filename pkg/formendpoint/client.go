// Package formendpoint delivers contact submissions to the hosted script that
// appends them to the inn's spreadsheet.
//
// The script answers GET ?callback=<name>&data=<json> with a body of the form
// <name>({"result":"success"}). The callback name is unique per request so a
// reply can be matched to the request that caused it.
package formendpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/tsukikage-sato/contact-web/internal/models"
	"github.com/tsukikage-sato/contact-web/pkg/circuitbreaker"
	"github.com/tsukikage-sato/contact-web/pkg/httpclient"
	"github.com/tsukikage-sato/contact-web/pkg/logger"
	"github.com/tsukikage-sato/contact-web/pkg/metrics"
	"github.com/tsukikage-sato/contact-web/pkg/tracing"
)

const (
	callbackPrefix = "handleContactResponse_"
	maxBodyBytes   = 64 * 1024
)

var (
	// ErrUnreachable means the endpoint could not be reached or answered with a non-2xx status
	ErrUnreachable = errors.New("form endpoint unreachable")

	// ErrTimeout means no reply arrived before the deadline
	ErrTimeout = fmt.Errorf("form endpoint timed out: %w", context.DeadlineExceeded)

	// ErrMalformedResponse means the reply could not be parsed
	ErrMalformedResponse = errors.New("malformed form endpoint response")

	// ErrCallbackMismatch means the reply invoked a callback other than the one issued
	ErrCallbackMismatch = errors.New("form endpoint replied to a different callback")
)

// Client talks to the form endpoint
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient httpclient.Client
	breaker    *gobreaker.CircuitBreaker
}

// NewClient creates a client for the endpoint at baseURL
func NewClient(baseURL string, timeout time.Duration, httpClient httpclient.Client) *Client {
	return &Client{
		baseURL:    baseURL,
		timeout:    timeout,
		httpClient: httpClient,
		breaker:    circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig("form_endpoint")),
	}
}

// CallbackName returns the callback identifier issued for requestID
func CallbackName(requestID string) string {
	return callbackPrefix + strings.ReplaceAll(requestID, "-", "")
}

// RequestURL builds the GET URL for one delivery
func (c *Client) RequestURL(requestID string, payload models.OutboundPayload) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid form endpoint URL: %w", err)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}

	q := u.Query()
	q.Set("callback", CallbackName(requestID))
	q.Set("data", string(data))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Deliver sends payload and returns the endpoint's verdict. A non-success
// result is returned as a response, not an error; errors are reserved for
// not getting a usable answer at all.
func (c *Client) Deliver(ctx context.Context, requestID string, payload models.OutboundPayload) (models.EndpointResponse, error) {
	start := time.Now()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	ctx, span := tracing.StartSpan(ctx, "formendpoint.Deliver", attribute.String("contact.request_id", requestID))
	resp, err := circuitbreaker.Execute(c.breaker, func() (models.EndpointResponse, error) {
		return c.deliver(ctx, requestID, payload)
	})
	span.SetAttributes(attribute.String("contact.result", resp.Result))
	tracing.EndSpan(span, err)

	status := "success"
	if err != nil {
		status = "error"
	} else if !resp.Succeeded() {
		status = "rejected"
	}
	duration := metrics.MeasureDuration(start)
	metrics.EndpointRequestDuration.WithLabelValues(status).Observe(duration)
	metrics.EndpointRequestTotal.WithLabelValues(status).Inc()
	logger.LogAPICall("form_endpoint", "deliver", status, duration,
		zap.String("request_id", requestID),
		zap.Error(err))

	if err != nil {
		if circuitbreaker.IsRejection(err) {
			return models.EndpointResponse{}, fmt.Errorf("%w: %w", ErrUnreachable, circuitbreaker.FormatError(c.breaker.Name(), err))
		}
		return models.EndpointResponse{}, err
	}
	return resp, nil
}

func (c *Client) deliver(ctx context.Context, requestID string, payload models.OutboundPayload) (models.EndpointResponse, error) {
	target, err := c.RequestURL(requestID, payload)
	if err != nil {
		return models.EndpointResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return models.EndpointResponse{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/javascript, application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return models.EndpointResponse{}, ErrTimeout
		}
		return models.EndpointResponse{}, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.EndpointResponse{}, fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return models.EndpointResponse{}, ErrTimeout
		}
		return models.EndpointResponse{}, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}

	return ParseResponse(body, CallbackName(requestID))
}

// ParseResponse reads either a callback-wrapped reply or bare JSON
func ParseResponse(body []byte, callback string) (models.EndpointResponse, error) {
	text := strings.TrimSpace(string(body))
	text = strings.TrimPrefix(text, "/**/")
	text = strings.TrimSuffix(text, ";")
	text = strings.TrimSpace(text)

	if open := strings.IndexByte(text, '('); open > 0 && strings.HasSuffix(text, ")") {
		name := strings.TrimSpace(text[:open])
		if name != callback {
			return models.EndpointResponse{}, fmt.Errorf("%w: got %q", ErrCallbackMismatch, name)
		}
		text = strings.TrimSpace(text[open+1 : len(text)-1])
	}

	var out models.EndpointResponse
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return models.EndpointResponse{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if out.Result == "" {
		return models.EndpointResponse{}, fmt.Errorf("%w: missing result", ErrMalformedResponse)
	}
	return out, nil
}
