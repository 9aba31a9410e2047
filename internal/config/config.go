package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	defaultServiceName   = "tagwatch"
	defaultHTTPListen    = ":8080"
	defaultHealthPath    = "/healthz"
	defaultReadyPath     = "/readyz"
	defaultSamplePath    = "/samples"
	defaultMaxBodyBytes  = 1 << 20
	defaultAlarmsFile    = "config/alarms.toml"
	defaultNATSURL       = "nats://127.0.0.1:4222"
	defaultNATSSubject   = "tagwatch.samples"
	defaultNATSStream    = "TAGWATCH_SAMPLES"
	defaultNATSConsumer  = "tagwatch-ingest"
	defaultNATSGroup     = "tagwatch-workers"
	defaultNATSAckWait   = 30
	defaultNATSNackDelay = 1000
	defaultNATSMaxAckPnd = 2048
	defaultNotifySubject = "tagwatch.alarms"
	defaultNotifyTimeout = 5
	defaultRetryAttempts = 3
	defaultRetryInitial  = 250
	defaultRetryMax      = 5000
)

// Config holds service runtime settings.
// Params: TOML sections from one config file.
// Returns: validated runtime configuration.
type Config struct {
	Service ServiceConfig    `toml:"service"`
	Log     LogConfig        `toml:"log"`
	Alarms  AlarmStoreConfig `toml:"alarms"`
	Ingest  IngestConfig     `toml:"ingest"`
	Notify  NotifyConfig     `toml:"notify"`
}

// ServiceConfig contains process-level settings.
// Params: service name used in log attributes.
// Returns: service behavior defaults.
type ServiceConfig struct {
	Name string `toml:"name"`
}

// LogConfig selects console and file log sinks.
// Params: per-sink enabled/level/format settings.
// Returns: logging runtime options.
type LogConfig struct {
	Console LogSinkConfig `toml:"console"`
	File    LogSinkConfig `toml:"file"`
}

// LogSinkConfig describes one log sink.
// Params: enabled flag, level name, format, and file path.
// Returns: sink settings for logging setup.
type LogSinkConfig struct {
	Enabled bool   `toml:"enabled"`
	Level   string `toml:"level"`
	Format  string `toml:"format"`
	Path    string `toml:"path"`
}

// AlarmStoreConfig locates the alarm-definition file.
// Params: TOML file path for per-tag alarm settings.
// Returns: definition store location.
type AlarmStoreConfig struct {
	File string `toml:"file"`
}

// IngestConfig defines inbound sample interfaces.
// Params: embedded HTTP and NATS subscription controls.
// Returns: ingestion runtime options.
type IngestConfig struct {
	HTTP HTTPIngestConfig `toml:"http"`
	NATS NATSIngestConfig `toml:"nats"`
}

// HTTPIngestConfig describes HTTP sample endpoint and health paths.
// Params: listen address, route paths, and body limit.
// Returns: HTTP ingest settings.
type HTTPIngestConfig struct {
	Enabled      bool   `toml:"enabled"`
	Listen       string `toml:"listen"`
	SamplePath   string `toml:"sample_path"`
	HealthPath   string `toml:"health_path"`
	ReadyPath    string `toml:"ready_path"`
	MaxBodyBytes int64  `toml:"max_body_bytes"`
}

// NATSIngestConfig describes JetStream sample consumer.
// Params: connection URLs and consumer identity/limits.
// Returns: NATS ingest settings.
type NATSIngestConfig struct {
	Enabled       bool     `toml:"enabled"`
	URL           []string `toml:"url"`
	Subject       string   `toml:"subject"`
	Stream        string   `toml:"stream"`
	ConsumerName  string   `toml:"consumer_name"`
	DeliverGroup  string   `toml:"deliver_group"`
	AckWaitSec    int      `toml:"ack_wait_sec"`
	NackDelayMS   int      `toml:"nack_delay_ms"`
	MaxDeliver    int      `toml:"max_deliver"`
	MaxAckPending int      `toml:"max_ack_pending"`
}

// NotifyConfig describes outbound notification channels.
// Params: per-channel settings and shared dispatch timeout.
// Returns: notification runtime options.
type NotifyConfig struct {
	TimeoutSec int                  `toml:"timeout_sec"`
	Log        LogChannelConfig     `toml:"log"`
	Webhook    WebhookConfig        `toml:"webhook"`
	Telegram   TelegramNotifyConfig `toml:"telegram"`
	NATS       NATSNotifyConfig     `toml:"nats"`
}

// LogChannelConfig toggles the structured-log notification channel.
// Params: enabled flag.
// Returns: log channel settings.
type LogChannelConfig struct {
	Enabled bool `toml:"enabled"`
}

// NotifyRetry defines bounded retry/backoff for one channel.
// Params: enabled flag, attempt cap, and backoff bounds.
// Returns: retry policy values.
type NotifyRetry struct {
	Enabled     bool `toml:"enabled"`
	MaxAttempts int  `toml:"max_attempts"`
	InitialMS   int  `toml:"initial_ms"`
	MaxMS       int  `toml:"max_ms"`
}

// WebhookConfig describes generic HTTP notification target.
// Params: destination URL, request timeout, and retry policy.
// Returns: webhook channel settings.
type WebhookConfig struct {
	Enabled   bool        `toml:"enabled"`
	URL       string      `toml:"url"`
	TimeoutMS int         `toml:"timeout_ms"`
	Retry     NotifyRetry `toml:"retry"`
}

// TelegramNotifyConfig describes Telegram notification target.
// Params: bot token, destination chat, and minimum priority filter.
// Returns: telegram channel settings.
type TelegramNotifyConfig struct {
	Enabled     bool   `toml:"enabled"`
	Token       string `toml:"token"`
	ChatID      int64  `toml:"chat_id"`
	MinPriority string `toml:"min_priority"`
}

// NATSNotifyConfig describes event broadcast publisher.
// Params: connection URLs and publish subject.
// Returns: NATS notify settings.
type NATSNotifyConfig struct {
	Enabled bool     `toml:"enabled"`
	URL     []string `toml:"url"`
	Subject string   `toml:"subject"`
}

// Load reads, defaults, and validates one TOML config file.
// Params: config file path.
// Returns: validated config or read/decode/validation error.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %q: %w", path, err)
	}
	var cfg Config
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config %q: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %q: %w", path, err)
	}
	return cfg, nil
}

// Default returns runnable configuration without external channels.
// Params: none.
// Returns: config with console logging and HTTP ingest enabled.
func Default() Config {
	var cfg Config
	cfg.Log.Console.Enabled = true
	cfg.Ingest.HTTP.Enabled = true
	cfg.Notify.Log.Enabled = true
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills unset fields with documented defaults.
// Params: none.
// Returns: config mutated in place.
func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Service.Name) == "" {
		c.Service.Name = defaultServiceName
	}
	applySinkDefaults(&c.Log.Console)
	applySinkDefaults(&c.Log.File)
	if strings.TrimSpace(c.Alarms.File) == "" {
		c.Alarms.File = defaultAlarmsFile
	}

	if strings.TrimSpace(c.Ingest.HTTP.Listen) == "" {
		c.Ingest.HTTP.Listen = defaultHTTPListen
	}
	if strings.TrimSpace(c.Ingest.HTTP.SamplePath) == "" {
		c.Ingest.HTTP.SamplePath = defaultSamplePath
	}
	if strings.TrimSpace(c.Ingest.HTTP.HealthPath) == "" {
		c.Ingest.HTTP.HealthPath = defaultHealthPath
	}
	if strings.TrimSpace(c.Ingest.HTTP.ReadyPath) == "" {
		c.Ingest.HTTP.ReadyPath = defaultReadyPath
	}
	if c.Ingest.HTTP.MaxBodyBytes <= 0 {
		c.Ingest.HTTP.MaxBodyBytes = defaultMaxBodyBytes
	}

	if len(c.Ingest.NATS.URL) == 0 {
		c.Ingest.NATS.URL = []string{defaultNATSURL}
	}
	if strings.TrimSpace(c.Ingest.NATS.Subject) == "" {
		c.Ingest.NATS.Subject = defaultNATSSubject
	}
	if strings.TrimSpace(c.Ingest.NATS.Stream) == "" {
		c.Ingest.NATS.Stream = defaultNATSStream
	}
	if strings.TrimSpace(c.Ingest.NATS.ConsumerName) == "" {
		c.Ingest.NATS.ConsumerName = defaultNATSConsumer
	}
	if strings.TrimSpace(c.Ingest.NATS.DeliverGroup) == "" {
		c.Ingest.NATS.DeliverGroup = defaultNATSGroup
	}
	if c.Ingest.NATS.AckWaitSec <= 0 {
		c.Ingest.NATS.AckWaitSec = defaultNATSAckWait
	}
	if c.Ingest.NATS.NackDelayMS <= 0 {
		c.Ingest.NATS.NackDelayMS = defaultNATSNackDelay
	}
	if c.Ingest.NATS.MaxDeliver == 0 {
		c.Ingest.NATS.MaxDeliver = -1
	}
	if c.Ingest.NATS.MaxAckPending <= 0 {
		c.Ingest.NATS.MaxAckPending = defaultNATSMaxAckPnd
	}

	if c.Notify.TimeoutSec <= 0 {
		c.Notify.TimeoutSec = defaultNotifyTimeout
	}
	applyRetryDefaults(&c.Notify.Webhook.Retry)
	if c.Notify.Webhook.TimeoutMS <= 0 {
		c.Notify.Webhook.TimeoutMS = 3000
	}
	if strings.TrimSpace(c.Notify.Telegram.MinPriority) == "" {
		c.Notify.Telegram.MinPriority = "high"
	}
	if len(c.Notify.NATS.URL) == 0 {
		c.Notify.NATS.URL = []string{defaultNATSURL}
	}
	if strings.TrimSpace(c.Notify.NATS.Subject) == "" {
		c.Notify.NATS.Subject = defaultNotifySubject
	}
}

// applySinkDefaults fills unset log sink fields.
// Params: mutable sink pointer.
// Returns: sink mutated in place.
func applySinkDefaults(sink *LogSinkConfig) {
	if strings.TrimSpace(sink.Level) == "" {
		sink.Level = "info"
	}
	if strings.TrimSpace(sink.Format) == "" {
		sink.Format = "line"
	}
}

// applyRetryDefaults fills unset retry policy fields.
// Params: mutable retry pointer.
// Returns: retry mutated in place.
func applyRetryDefaults(retry *NotifyRetry) {
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = defaultRetryAttempts
	}
	if retry.InitialMS <= 0 {
		retry.InitialMS = defaultRetryInitial
	}
	if retry.MaxMS <= 0 {
		retry.MaxMS = defaultRetryMax
	}
}

// Validate checks cross-field configuration invariants.
// Params: none.
// Returns: first validation error.
func (c Config) Validate() error {
	if !c.Log.Console.Enabled && !c.Log.File.Enabled {
		return errors.New("at least one log sink must be enabled")
	}
	if c.Log.File.Enabled && strings.TrimSpace(c.Log.File.Path) == "" {
		return errors.New("log.file.path is required when file sink is enabled")
	}
	if c.Notify.Webhook.Enabled && strings.TrimSpace(c.Notify.Webhook.URL) == "" {
		return errors.New("notify.webhook.url is required when webhook is enabled")
	}
	if c.Notify.Telegram.Enabled {
		if strings.TrimSpace(c.Notify.Telegram.Token) == "" {
			return errors.New("notify.telegram.token is required when telegram is enabled")
		}
		if c.Notify.Telegram.ChatID == 0 {
			return errors.New("notify.telegram.chat_id is required when telegram is enabled")
		}
	}
	return nil
}
