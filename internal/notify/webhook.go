package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tagwatch/internal/config"
	"tagwatch/internal/domain"
	"tagwatch/internal/permanent"
)

// WebhookSender posts alarm events as JSON to one HTTP endpoint.
type WebhookSender struct {
	url    string
	client *http.Client
}

// NewWebhookSender creates the webhook channel sender.
// Params: webhook config with URL and request timeout.
// Returns: initialized sender.
func NewWebhookSender(cfg config.WebhookConfig) *WebhookSender {
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookSender{
		url:    cfg.URL,
		client: &http.Client{Timeout: timeout},
	}
}

// Channel returns sender channel name.
// Params: none.
// Returns: static channel key.
func (s *WebhookSender) Channel() string {
	return "webhook"
}

// Send delivers one event to the configured endpoint.
// Client errors other than 429 are marked permanent so they are not retried.
// Params: context and alarm event.
// Returns: transport or HTTP status error.
func (s *WebhookSender) Send(ctx context.Context, event domain.AlarmEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return permanent.Mark(fmt.Errorf("encode webhook payload: %w", err))
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return permanent.Mark(fmt.Errorf("build webhook request: %w", err))
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := s.client.Do(request)
	if err != nil {
		return fmt.Errorf("webhook send: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return nil
	}

	statusErr := unexpectedStatusError("webhook", response)
	if response.StatusCode >= 400 && response.StatusCode < 500 && response.StatusCode != http.StatusTooManyRequests {
		return permanent.Mark(statusErr)
	}
	return statusErr
}

// unexpectedStatusError formats a non-2xx HTTP response with optional body.
// Params: sender prefix label and HTTP response pointer.
// Returns: status-only or status+body error.
func unexpectedStatusError(prefix string, response *http.Response) error {
	rawBody, readErr := io.ReadAll(response.Body)
	if readErr != nil {
		return fmt.Errorf("%s status=%d (read body error: %w)", prefix, response.StatusCode, readErr)
	}
	trimmedBody := strings.TrimSpace(string(rawBody))
	if trimmedBody == "" {
		return fmt.Errorf("%s status=%d", prefix, response.StatusCode)
	}
	return fmt.Errorf("%s status=%d body=%s", prefix, response.StatusCode, trimmedBody)
}
