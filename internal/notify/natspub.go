package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"

	"tagwatch/internal/config"
	"tagwatch/internal/domain"
)

// NATSPublisher broadcasts alarm events on one NATS subject.
type NATSPublisher struct {
	nc      *nats.Conn
	subject string
}

// NewNATSPublisher connects and creates the NATS broadcast channel.
// Params: notify NATS config with URLs and subject.
// Returns: connected publisher or connection error.
func NewNATSPublisher(cfg config.NATSNotifyConfig) (*NATSPublisher, error) {
	nc, err := nats.Connect(strings.Join(cfg.URL, ","))
	if err != nil {
		return nil, fmt.Errorf("connect nats notify: %w", err)
	}
	return &NATSPublisher{nc: nc, subject: cfg.Subject}, nil
}

// Channel returns sender channel name.
// Params: none.
// Returns: static channel key.
func (s *NATSPublisher) Channel() string {
	return "nats"
}

// Send publishes one event as JSON.
// Params: context (unused by core NATS publish) and alarm event.
// Returns: encode or publish error.
func (s *NATSPublisher) Send(_ context.Context, event domain.AlarmEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode nats notify payload: %w", err)
	}
	if err := s.nc.Publish(s.subject, payload); err != nil {
		return fmt.Errorf("nats notify publish: %w", err)
	}
	return nil
}

// Close drains and closes the connection.
// Params: none.
// Returns: none.
func (s *NATSPublisher) Close() {
	if s.nc == nil {
		return
	}
	_ = s.nc.Drain()
}
