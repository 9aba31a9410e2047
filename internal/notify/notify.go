package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tagwatch/internal/config"
	"tagwatch/internal/domain"
	"tagwatch/internal/permanent"
)

const defaultDispatchTimeout = 10 * time.Second

// ChannelSender sends one confirmed alarm event to one channel.
// Params: context and alarm event payload.
// Returns: transport error when the send fails.
type ChannelSender interface {
	Channel() string
	Send(ctx context.Context, event domain.AlarmEvent) error
}

// Dispatcher fans one alarm event out to all enabled channels.
// A failing channel never blocks the others.
type Dispatcher struct {
	senders []ChannelSender
	retries map[string]config.NotifyRetry
	timeout time.Duration
	logger  *slog.Logger

	publisher *NATSPublisher
}

// NewDispatcher builds the notification dispatcher from enabled channels.
// Params: notify config and logger.
// Returns: configured dispatcher or channel initialization error.
func NewDispatcher(cfg config.NotifyConfig, logger *slog.Logger) (*Dispatcher, error) {
	dispatcher := &Dispatcher{
		retries: make(map[string]config.NotifyRetry),
		timeout: defaultDispatchTimeout,
		logger:  logger,
	}
	if cfg.TimeoutSec > 0 {
		dispatcher.timeout = time.Duration(cfg.TimeoutSec) * time.Second
	}

	if cfg.Log.Enabled {
		dispatcher.senders = append(dispatcher.senders, NewLogSender(logger))
	}
	if cfg.Webhook.Enabled {
		sender := NewWebhookSender(cfg.Webhook)
		dispatcher.senders = append(dispatcher.senders, sender)
		dispatcher.retries[sender.Channel()] = cfg.Webhook.Retry
	}
	if cfg.Telegram.Enabled {
		sender, err := NewTelegramSender(cfg.Telegram)
		if err != nil {
			return nil, fmt.Errorf("init telegram channel: %w", err)
		}
		dispatcher.senders = append(dispatcher.senders, sender)
	}
	if cfg.NATS.Enabled {
		publisher, err := NewNATSPublisher(cfg.NATS)
		if err != nil {
			return nil, fmt.Errorf("init nats channel: %w", err)
		}
		dispatcher.publisher = publisher
		dispatcher.senders = append(dispatcher.senders, publisher)
	}
	return dispatcher, nil
}

// Dispatch delivers one event to every enabled channel.
// Params: confirmed alarm event.
// Returns: none; channel failures are logged, not propagated.
func (d *Dispatcher) Dispatch(event domain.AlarmEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	for _, sender := range d.senders {
		if err := d.sendWithRetry(ctx, sender, event); err != nil {
			if d.logger != nil {
				d.logger.Error("notify send failed",
					"channel", sender.Channel(),
					"tag", event.Tag,
					"error", err.Error(),
				)
			}
		}
	}
}

// Channels returns enabled channel names in registration order.
// Params: none.
// Returns: channel name list.
func (d *Dispatcher) Channels() []string {
	names := make([]string, 0, len(d.senders))
	for _, sender := range d.senders {
		names = append(names, sender.Channel())
	}
	return names
}

// Close releases channel transports.
// Params: none.
// Returns: none.
func (d *Dispatcher) Close() {
	if d.publisher != nil {
		d.publisher.Close()
	}
}

// sendWithRetry sends one event honoring the channel retry policy.
// Permanent failures abort retrying immediately.
// Params: context, sender, and event payload.
// Returns: final error after retries are exhausted.
func (d *Dispatcher) sendWithRetry(ctx context.Context, sender ChannelSender, event domain.AlarmEvent) error {
	retry := d.retries[sender.Channel()]
	if !retry.Enabled {
		return sender.Send(ctx, event)
	}

	attempt := 0
	backoff := time.Duration(retry.InitialMS) * time.Millisecond
	maxBackoff := time.Duration(retry.MaxMS) * time.Millisecond

	for {
		attempt++
		err := sender.Send(ctx, event)
		if err == nil {
			if attempt > 1 && d.logger != nil {
				d.logger.Info("notify send recovered after retries",
					"channel", sender.Channel(), "attempt", attempt)
			}
			return nil
		}
		if permanent.Is(err) {
			return err
		}
		if retry.MaxAttempts > 0 && attempt >= retry.MaxAttempts {
			return fmt.Errorf("channel %s failed after %d attempts: %w", sender.Channel(), attempt, err)
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
		if maxBackoff > 0 && backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// LogSender writes alarm events to the structured log.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates the log channel sender.
// Params: logger sink.
// Returns: initialized sender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Channel returns sender channel name.
// Params: none.
// Returns: static channel key.
func (s *LogSender) Channel() string {
	return "log"
}

// Send logs one event; high priorities log at warn level.
// Params: context and alarm event.
// Returns: always nil.
func (s *LogSender) Send(_ context.Context, event domain.AlarmEvent) error {
	if s.logger == nil {
		return nil
	}
	attrs := []any{
		"tag", event.Tag,
		"level", event.Level.String(),
		"priority", event.Priority.String(),
		"value", event.Value,
		"message", event.Message,
	}
	if event.Priority >= domain.PriorityHigh {
		s.logger.Warn("alarm notification", attrs...)
		return nil
	}
	s.logger.Info("alarm notification", attrs...)
	return nil
}
