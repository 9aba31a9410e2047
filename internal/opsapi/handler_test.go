package opsapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tagwatch/internal/domain"
)

type fakeAlarmService struct {
	active       []domain.AlarmEvent
	history      []domain.AlarmEvent
	stats        domain.Statistics
	ackOK        bool
	ackTag       string
	ackUser      string
	wantedWindow time.Duration
}

func (s *fakeAlarmService) ActiveAlarms() []domain.AlarmEvent { return s.active }

func (s *fakeAlarmService) History(window time.Duration) []domain.AlarmEvent {
	s.wantedWindow = window
	return s.history
}

func (s *fakeAlarmService) Statistics() domain.Statistics { return s.stats }

func (s *fakeAlarmService) Acknowledge(tag, user string) bool {
	s.ackTag = tag
	s.ackUser = user
	return s.ackOK
}

func newTestHandler(service *fakeAlarmService) *http.ServeMux {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mux := http.NewServeMux()
	NewHandler(service, logger).Register(mux)
	return mux
}

func opsTestEvent(tag string) domain.AlarmEvent {
	return domain.AlarmEvent{
		ID:        "evt-1",
		Tag:       tag,
		Timestamp: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Level:     domain.LevelWarning,
		Value:     95,
		Message:   tag + " warning",
		Priority:  domain.PriorityHigh,
	}
}

func TestActiveAlarmsEndpoint(t *testing.T) {
	t.Parallel()

	service := &fakeAlarmService{active: []domain.AlarmEvent{opsTestEvent("engine_temp_1")}}
	mux := newTestHandler(service)
	response := httptest.NewRecorder()

	mux.ServeHTTP(response, httptest.NewRequest(http.MethodGet, "/alarms/active", nil))
	if response.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", response.Code)
	}

	var decoded []domain.AlarmEvent
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(decoded) != 1 || decoded[0].Tag != "engine_temp_1" {
		t.Fatalf("unexpected body %+v", decoded)
	}
}

func TestHistoryEndpointParsesWindow(t *testing.T) {
	t.Parallel()

	service := &fakeAlarmService{history: []domain.AlarmEvent{opsTestEvent("engine_temp_1")}}
	mux := newTestHandler(service)
	response := httptest.NewRecorder()

	mux.ServeHTTP(response, httptest.NewRequest(http.MethodGet, "/alarms/history?window=2h", nil))
	if response.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", response.Code)
	}
	if service.wantedWindow != 2*time.Hour {
		t.Fatalf("expected 2h window, got %v", service.wantedWindow)
	}
}

func TestHistoryEndpointDefaultsWindow(t *testing.T) {
	t.Parallel()

	service := &fakeAlarmService{}
	mux := newTestHandler(service)
	response := httptest.NewRecorder()

	mux.ServeHTTP(response, httptest.NewRequest(http.MethodGet, "/alarms/history", nil))
	if response.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", response.Code)
	}
	if service.wantedWindow != defaultQueryWindow {
		t.Fatalf("expected default window, got %v", service.wantedWindow)
	}
}

func TestHistoryEndpointRejectsBadWindow(t *testing.T) {
	t.Parallel()

	cases := []string{"nonsense", "-2h", "0s"}
	for _, window := range cases {
		service := &fakeAlarmService{}
		mux := newTestHandler(service)
		response := httptest.NewRecorder()

		mux.ServeHTTP(response, httptest.NewRequest(http.MethodGet, "/alarms/history?window="+window, nil))
		if response.Code != http.StatusBadRequest {
			t.Fatalf("window %q: expected 400, got %d", window, response.Code)
		}
	}
}

func TestStatsEndpoint(t *testing.T) {
	t.Parallel()

	service := &fakeAlarmService{stats: domain.Statistics{TotalEvents: 7, ActiveCount: 2}}
	mux := newTestHandler(service)
	response := httptest.NewRecorder()

	mux.ServeHTTP(response, httptest.NewRequest(http.MethodGet, "/alarms/stats", nil))
	if response.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", response.Code)
	}

	var decoded domain.Statistics
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if decoded.TotalEvents != 7 || decoded.ActiveCount != 2 {
		t.Fatalf("unexpected stats %+v", decoded)
	}
}

func TestAcknowledgeEndpoint(t *testing.T) {
	t.Parallel()

	service := &fakeAlarmService{ackOK: true}
	mux := newTestHandler(service)
	response := httptest.NewRecorder()
	body := strings.NewReader(`{"tag":"engine_temp_1","user":"OPERATOR"}`)

	mux.ServeHTTP(response, httptest.NewRequest(http.MethodPost, "/alarms/ack", body))
	if response.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", response.Code)
	}
	if service.ackTag != "engine_temp_1" || service.ackUser != "OPERATOR" {
		t.Fatalf("acknowledge arguments wrong: %q %q", service.ackTag, service.ackUser)
	}
}

func TestAcknowledgeEndpointRejectsMissingFields(t *testing.T) {
	t.Parallel()

	service := &fakeAlarmService{ackOK: true}
	mux := newTestHandler(service)
	response := httptest.NewRecorder()
	body := strings.NewReader(`{"tag":"engine_temp_1"}`)

	mux.ServeHTTP(response, httptest.NewRequest(http.MethodPost, "/alarms/ack", body))
	if response.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", response.Code)
	}
}

func TestAcknowledgeEndpointNotFound(t *testing.T) {
	t.Parallel()

	service := &fakeAlarmService{ackOK: false}
	mux := newTestHandler(service)
	response := httptest.NewRecorder()
	body := strings.NewReader(`{"tag":"engine_temp_1","user":"OPERATOR"}`)

	mux.ServeHTTP(response, httptest.NewRequest(http.MethodPost, "/alarms/ack", body))
	if response.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", response.Code)
	}
}

func TestReportEndpointCSV(t *testing.T) {
	t.Parallel()

	service := &fakeAlarmService{history: []domain.AlarmEvent{opsTestEvent("engine_temp_1")}}
	mux := newTestHandler(service)
	response := httptest.NewRecorder()

	mux.ServeHTTP(response, httptest.NewRequest(http.MethodGet, "/alarms/report?window=1h", nil))
	if response.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", response.Code)
	}
	if got := response.Header().Get("Content-Type"); got != "text/csv" {
		t.Fatalf("unexpected content type %q", got)
	}
	if !strings.Contains(response.Body.String(), "engine_temp_1") {
		t.Fatalf("csv body must contain event rows")
	}
}

func TestReportEndpointXLSX(t *testing.T) {
	t.Parallel()

	service := &fakeAlarmService{history: []domain.AlarmEvent{opsTestEvent("engine_temp_1")}}
	mux := newTestHandler(service)
	response := httptest.NewRecorder()

	mux.ServeHTTP(response, httptest.NewRequest(http.MethodGet, "/alarms/report?format=xlsx", nil))
	if response.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", response.Code)
	}
	if got := response.Header().Get("Content-Type"); !strings.Contains(got, "spreadsheetml") {
		t.Fatalf("unexpected content type %q", got)
	}
	if response.Body.Len() == 0 {
		t.Fatalf("xlsx body must not be empty")
	}
}

func TestReportEndpointRejectsUnknownFormat(t *testing.T) {
	t.Parallel()

	service := &fakeAlarmService{}
	mux := newTestHandler(service)
	response := httptest.NewRecorder()

	mux.ServeHTTP(response, httptest.NewRequest(http.MethodGet, "/alarms/report?format=pdf", nil))
	if response.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", response.Code)
	}
}
