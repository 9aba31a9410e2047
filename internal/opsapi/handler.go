package opsapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"tagwatch/internal/domain"
	"tagwatch/internal/report"
)

const defaultQueryWindow = 24 * time.Hour

// AlarmService exposes the alarm state the API serves.
type AlarmService interface {
	ActiveAlarms() []domain.AlarmEvent
	History(window time.Duration) []domain.AlarmEvent
	Statistics() domain.Statistics
	Acknowledge(tag, user string) bool
}

// Handler serves the alarm operations endpoints.
type Handler struct {
	service AlarmService
	logger  *slog.Logger
}

// NewHandler builds the operations API handler.
// Params: alarm service and logger.
// Returns: configured handler.
func NewHandler(service AlarmService, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register attaches operation routes onto the mux.
// Params: mux route target.
// Returns: none.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/alarms/active", h.handleActive)
	mux.HandleFunc("/alarms/history", h.handleHistory)
	mux.HandleFunc("/alarms/stats", h.handleStats)
	mux.HandleFunc("/alarms/ack", h.handleAcknowledge)
	mux.HandleFunc("/alarms/report", h.handleReport)
}

// handleActive returns current active alarms ordered by priority.
func (h *Handler) handleActive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	writeJSON(w, http.StatusOK, h.service.ActiveAlarms())
}

// handleHistory returns events inside the requested window.
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	window, err := parseWindow(r.URL.Query().Get("window"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.service.History(window))
}

// handleStats returns one statistics snapshot.
func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	writeJSON(w, http.StatusOK, h.service.Statistics())
}

// handleAcknowledge stamps one active alarm with the acknowledging user.
func (h *Handler) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var payload struct {
		Tag  string `json:"tag"`
		User string `json:"user"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decode ack request: %v", err))
		return
	}
	if strings.TrimSpace(payload.Tag) == "" || strings.TrimSpace(payload.User) == "" {
		writeError(w, http.StatusBadRequest, "tag and user are required")
		return
	}

	if !h.service.Acknowledge(payload.Tag, payload.User) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no active alarm for tag %q", payload.Tag))
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"acknowledged": true})
}

// handleReport exports history as a CSV or XLSX document.
func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	window, err := parseWindow(r.URL.Query().Get("window"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	events := h.service.History(window)
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	switch format {
	case "", "csv":
		document, err := report.BuildCSV(events)
		if err != nil {
			h.logger.Error("csv export failed", "error", err.Error())
			writeError(w, http.StatusInternalServerError, "export failed")
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="alarms.csv"`)
		_, _ = w.Write(document)
	case "xlsx":
		document, err := report.BuildXLSX(events)
		if err != nil {
			h.logger.Error("xlsx export failed", "error", err.Error())
			writeError(w, http.StatusInternalServerError, "export failed")
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="alarms.xlsx"`)
		_, _ = w.Write(document)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported format %q", format))
	}
}

// parseWindow converts the window query parameter into a duration.
// Params: raw query value, empty means the default window.
// Returns: positive duration or parse error.
func parseWindow(raw string) (time.Duration, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return defaultQueryWindow, nil
	}
	window, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, fmt.Errorf("parse window %q: %w", trimmed, err)
	}
	if window <= 0 {
		return 0, fmt.Errorf("window must be positive, got %q", trimmed)
	}
	return window, nil
}

// writeJSON renders one JSON response.
// Params: writer, HTTP status, and payload.
// Returns: none.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError renders one error envelope.
// Params: writer, HTTP status, and message.
// Returns: none.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
