package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tagwatch/internal/config"
	"tagwatch/internal/domain"
	"tagwatch/internal/permanent"
)

type fakeSender struct {
	name     string
	failures int
	calls    int
	err      error
}

func (s *fakeSender) Channel() string { return s.name }

func (s *fakeSender) Send(context.Context, domain.AlarmEvent) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	if s.calls <= s.failures {
		return errors.New("transient failure")
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEvent(priority domain.Priority) domain.AlarmEvent {
	return domain.AlarmEvent{
		ID:       "evt-1",
		Tag:      "engine_temp_1",
		Level:    domain.LevelWarning,
		Value:    95,
		Message:  "engine_temp_1: Engine 1 temperature - value 95.0 (limit 90)",
		Priority: priority,
	}
}

func TestDispatcherRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{name: "webhook", failures: 2}
	d := &Dispatcher{
		senders: []ChannelSender{sender},
		retries: map[string]config.NotifyRetry{
			"webhook": {Enabled: true, MaxAttempts: 5, InitialMS: 1, MaxMS: 5},
		},
		timeout: time.Second,
		logger:  discardLogger(),
	}

	d.Dispatch(testEvent(domain.PriorityHigh))
	if sender.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", sender.calls)
	}
}

func TestDispatcherStopsOnPermanentError(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{name: "webhook", err: permanent.Mark(errors.New("rejected"))}
	d := &Dispatcher{
		senders: []ChannelSender{sender},
		retries: map[string]config.NotifyRetry{
			"webhook": {Enabled: true, MaxAttempts: 5, InitialMS: 1, MaxMS: 5},
		},
		timeout: time.Second,
		logger:  discardLogger(),
	}

	d.Dispatch(testEvent(domain.PriorityHigh))
	if sender.calls != 1 {
		t.Fatalf("permanent error must not be retried, got %d attempts", sender.calls)
	}
}

func TestDispatcherSingleAttemptWhenRetryDisabled(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{name: "log", err: errors.New("boom")}
	d := &Dispatcher{
		senders: []ChannelSender{sender},
		retries: map[string]config.NotifyRetry{},
		timeout: time.Second,
		logger:  discardLogger(),
	}

	d.Dispatch(testEvent(domain.PriorityLow))
	if sender.calls != 1 {
		t.Fatalf("expected single attempt, got %d", sender.calls)
	}
}

func TestDispatcherFailingChannelDoesNotBlockOthers(t *testing.T) {
	t.Parallel()

	broken := &fakeSender{name: "webhook", err: errors.New("down")}
	healthy := &fakeSender{name: "log"}
	d := &Dispatcher{
		senders: []ChannelSender{broken, healthy},
		retries: map[string]config.NotifyRetry{},
		timeout: time.Second,
		logger:  discardLogger(),
	}

	d.Dispatch(testEvent(domain.PriorityMedium))
	if healthy.calls != 1 {
		t.Fatalf("healthy channel must still receive the event")
	}
}

func TestWebhookSenderPostsEventJSON(t *testing.T) {
	t.Parallel()

	var received domain.AlarmEvent
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode webhook payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := NewWebhookSender(config.WebhookConfig{URL: server.URL, TimeoutMS: 1000})
	if err := sender.Send(context.Background(), testEvent(domain.PriorityHigh)); err != nil {
		t.Fatalf("send: %v", err)
	}
	if received.Tag != "engine_temp_1" || received.Level != domain.LevelWarning {
		t.Fatalf("unexpected payload %+v", received)
	}
}

func TestWebhookSenderMarksClientErrorsPermanent(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	sender := NewWebhookSender(config.WebhookConfig{URL: server.URL, TimeoutMS: 1000})
	err := sender.Send(context.Background(), testEvent(domain.PriorityHigh))
	if err == nil {
		t.Fatalf("expected error for 400 response")
	}
	if !permanent.Is(err) {
		t.Fatalf("4xx must be marked permanent: %v", err)
	}
}

func TestWebhookSenderKeepsServerErrorsRetryable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	sender := NewWebhookSender(config.WebhookConfig{URL: server.URL, TimeoutMS: 1000})
	err := sender.Send(context.Background(), testEvent(domain.PriorityHigh))
	if err == nil {
		t.Fatalf("expected error for 500 response")
	}
	if permanent.Is(err) {
		t.Fatalf("5xx must stay retryable: %v", err)
	}
}

func TestTelegramSenderSkipsBelowMinPriority(t *testing.T) {
	t.Parallel()

	sender := &TelegramSender{minPriority: domain.PriorityHigh}
	if err := sender.Send(context.Background(), testEvent(domain.PriorityLow)); err != nil {
		t.Fatalf("filtered event must not error: %v", err)
	}
}

func TestTelegramSenderRequiresToken(t *testing.T) {
	t.Parallel()

	_, err := NewTelegramSender(config.TelegramNotifyConfig{ChatID: 42})
	if err == nil {
		t.Fatalf("missing token must fail")
	}
}

func TestLogSenderNeverFails(t *testing.T) {
	t.Parallel()

	sender := NewLogSender(discardLogger())
	if err := sender.Send(context.Background(), testEvent(domain.PriorityUrgent)); err != nil {
		t.Fatalf("log sender: %v", err)
	}
}
