package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"tagwatch/internal/clock"
	"tagwatch/internal/config"
	"tagwatch/internal/engine"
	"tagwatch/internal/ingest"
	"tagwatch/internal/logging"
	"tagwatch/internal/notify"
	"tagwatch/internal/opsapi"
)

// Service composes runtime dependencies and process lifecycle.
type Service struct {
	cfg        config.Config
	logger     *slog.Logger
	closeLog   func()
	manager    *Manager
	dispatcher *notify.Dispatcher
	httpSrv    *http.Server
	natsSub    interface{ Close() error }
	readyFlag  atomic.Bool
	clock      clock.Clock
}

// NewService builds the service from one config file.
// Params: config file path and clock implementation.
// Returns: initialized service or setup error.
func NewService(configPath string, clk clock.Clock) (*Service, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, closeLog, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	defs := loadAlarmDefs(cfg.Alarms, logger)
	manager := NewManager(engine.NewRegistry(defs), logger, clk)

	dispatcher, err := notify.NewDispatcher(cfg.Notify, logger)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("build notify dispatcher: %w", err)
	}
	manager.Subscribe(dispatcher.Dispatch)

	service := &Service{
		cfg:        cfg,
		logger:     logger,
		closeLog:   closeLog,
		manager:    manager,
		dispatcher: dispatcher,
		clock:      clk,
	}

	service.buildHTTPServer()
	if err := service.buildNATSSubscriber(); err != nil {
		service.cleanupInitResources()
		return nil, err
	}

	return service, nil
}

// Manager exposes the alarm manager for embedding callers.
// Params: none.
// Returns: owned manager instance.
func (s *Service) Manager() *Manager {
	return s.manager
}

// Ready reports whether the service accepts ingest traffic.
// Params: none.
// Returns: readiness flag.
func (s *Service) Ready() bool {
	return s.readyFlag.Load()
}

// Run starts the service lifecycle and blocks until a shutdown signal.
// Params: root context for service runtime.
// Returns: terminal run error.
func (s *Service) Run(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("http server starting", "listen", s.cfg.Ingest.HTTP.Listen)
		err := s.httpSrv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	s.readyFlag.Store(true)
	s.logger.Info("service started",
		"name", s.cfg.Service.Name,
		"tags", s.manager.Registry().Len(),
		"channels", s.dispatcher.Channels(),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		return s.shutdown()
	case err := <-errChan:
		_ = s.shutdown()
		return fmt.Errorf("http server failed: %w", err)
	case <-sigChan:
		return s.shutdown()
	}
}

// shutdown closes runtime resources in dependency order.
// Params: none.
// Returns: first close error.
func (s *Service) shutdown() error {
	s.readyFlag.Store(false)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	var firstErr error
	markErr := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if err := s.httpSrv.Shutdown(ctx); err != nil {
		s.logger.Error("http shutdown failed", "error", err.Error())
		markErr(fmt.Errorf("http shutdown: %w", err))
	}
	if s.natsSub != nil {
		if err := s.natsSub.Close(); err != nil {
			s.logger.Error("nats subscriber close failed", "error", err.Error())
			markErr(fmt.Errorf("nats subscriber close: %w", err))
		}
	}
	if s.dispatcher != nil {
		s.dispatcher.Close()
	}
	if s.closeLog != nil {
		s.closeLog()
	}
	return firstErr
}

// cleanupInitResources closes partially initialized resources on startup failures.
// Params: none.
// Returns: all acquired resources closed best-effort.
func (s *Service) cleanupInitResources() {
	if s.natsSub != nil {
		_ = s.natsSub.Close()
		s.natsSub = nil
	}
	if s.httpSrv != nil {
		_ = s.httpSrv.Close()
		s.httpSrv = nil
	}
	if s.dispatcher != nil {
		s.dispatcher.Close()
		s.dispatcher = nil
	}
	if s.closeLog != nil {
		s.closeLog()
		s.closeLog = nil
	}
}

// buildHTTPServer wires health, ingest, and operations routes.
// Params: none.
// Returns: none.
func (s *Service) buildHTTPServer() {
	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.Ingest.HTTP.HealthPath, func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusOK)
		_, _ = writer.Write([]byte("ok"))
	})
	mux.HandleFunc(s.cfg.Ingest.HTTP.ReadyPath, func(writer http.ResponseWriter, _ *http.Request) {
		if !s.readyFlag.Load() {
			writer.WriteHeader(http.StatusServiceUnavailable)
			_, _ = writer.Write([]byte("not-ready"))
			return
		}
		writer.WriteHeader(http.StatusOK)
		_, _ = writer.Write([]byte("ready"))
	})

	if s.cfg.Ingest.HTTP.Enabled {
		ingest.NewHTTPHandler(s.cfg.Ingest.HTTP, s.manager, s, s.logger).Register(mux)
	}
	opsapi.NewHandler(s.manager, s.logger).Register(mux)

	s.httpSrv = &http.Server{
		Addr:              s.cfg.Ingest.HTTP.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// buildNATSSubscriber starts NATS sample ingest when enabled.
// Params: none.
// Returns: initialization error.
func (s *Service) buildNATSSubscriber() error {
	if !s.cfg.Ingest.NATS.Enabled {
		return nil
	}
	subscriber, err := ingest.NewNATSSubscriber(s.cfg.Ingest.NATS, s.manager, s.logger)
	if err != nil {
		return err
	}
	s.natsSub = subscriber
	return nil
}

// loadAlarmDefs loads definitions from the alarm store file. Any load
// failure falls back to the default set; a missing file is seeded, a
// broken one is left on disk for the operator to inspect.
// Params: alarm store config and logger.
// Returns: definitions by tag, never an error.
func loadAlarmDefs(cfg config.AlarmStoreConfig, logger *slog.Logger) map[string]config.AlarmConfig {
	defs, err := config.LoadAlarmDefs(cfg.File)
	if err == nil {
		return defs
	}

	defs = config.DefaultAlarmDefs()
	if !errors.Is(err, os.ErrNotExist) {
		logger.Error("load alarm definitions failed, using defaults", "file", cfg.File, "error", err.Error())
		return defs
	}

	if saveErr := config.SaveAlarmDefs(cfg.File, defs); saveErr != nil {
		logger.Warn("persist default alarm definitions failed", "file", cfg.File, "error", saveErr.Error())
	} else {
		logger.Info("seeded default alarm definitions", "file", cfg.File, "tags", len(defs))
	}
	return defs
}
