package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"tagwatch/internal/config"
	"tagwatch/internal/domain"
)

// SampleSink accepts decoded measurement samples for evaluation.
type SampleSink interface {
	Push(sample domain.Sample) error
	PushBatch(samples []domain.Sample) error
}

// ReadyChecker reports whether the service accepts traffic.
type ReadyChecker interface {
	Ready() bool
}

// HTTPHandler serves the sample ingest endpoints.
type HTTPHandler struct {
	cfg    config.HTTPIngestConfig
	sink   SampleSink
	ready  ReadyChecker
	logger *slog.Logger
}

// NewHTTPHandler builds the ingest handler.
// Params: cfg ingest settings, sink evaluation target, ready readiness probe, logger sink.
// Returns: configured handler.
func NewHTTPHandler(
	cfg config.HTTPIngestConfig,
	sink SampleSink,
	ready ReadyChecker,
	logger *slog.Logger,
) *HTTPHandler {
	return &HTTPHandler{cfg: cfg, sink: sink, ready: ready, logger: logger}
}

// Register attaches ingest routes onto the mux.
// Params: mux route target.
// Returns: none.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc(h.cfg.SamplePath, h.handleSample)
	mux.HandleFunc(h.cfg.SamplePath+"/batch", h.handleBatch)
}

// handleSample accepts one sample as a JSON object.
func (h *HTTPHandler) handleSample(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.readBody(w, r)
	if !ok {
		return
	}

	sample, err := domain.DecodeSample(payload)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.sink.Push(sample); err != nil {
		h.logger.Error("sample push failed", "tag", sample.Tag, "error", err.Error())
		writeJSONError(w, http.StatusInternalServerError, "sample push failed")
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// handleBatch accepts a JSON array of samples.
func (h *HTTPHandler) handleBatch(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.readBody(w, r)
	if !ok {
		return
	}

	samples, err := domain.DecodeSamples(payload)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.sink.PushBatch(samples); err != nil {
		h.logger.Error("batch push failed", "count", len(samples), "error", err.Error())
		writeJSONError(w, http.StatusInternalServerError, "batch push failed")
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// readBody validates the request envelope and reads the limited body.
// Params: w response writer, r inbound request.
// Returns: body bytes and false when the request was already answered.
func (h *HTTPHandler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "POST required")
		return nil, false
	}
	if h.ready != nil && !h.ready.Ready() {
		writeJSONError(w, http.StatusServiceUnavailable, "service not ready")
		return nil, false
	}

	body := http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes)
	defer func() { _ = body.Close() }()

	payload, err := io.ReadAll(body)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("read body: %v", err))
		return nil, false
	}
	return payload, true
}

// writeJSONError renders one error envelope.
// Params: w response writer, status HTTP code, message human text.
// Returns: none.
func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
