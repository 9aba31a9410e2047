package ingest

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tagwatch/internal/config"
	"tagwatch/internal/domain"
)

type httpTestSink struct {
	pushCalls  int
	batchCalls int
	samples    []domain.Sample
	err        error
}

func (s *httpTestSink) Push(sample domain.Sample) error {
	s.pushCalls++
	if s.err != nil {
		return s.err
	}
	s.samples = append(s.samples, sample)
	return nil
}

func (s *httpTestSink) PushBatch(samples []domain.Sample) error {
	s.batchCalls++
	if s.err != nil {
		return s.err
	}
	s.samples = append(s.samples, samples...)
	return nil
}

type staticReady bool

func (r staticReady) Ready() bool { return bool(r) }

func newTestMux(sink SampleSink, ready ReadyChecker) *http.ServeMux {
	cfg := config.HTTPIngestConfig{
		Enabled:      true,
		SamplePath:   "/samples",
		MaxBodyBytes: 1 << 20,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mux := http.NewServeMux()
	NewHTTPHandler(cfg, sink, ready, logger).Register(mux)
	return mux
}

func testSampleJSON(tag string) string {
	return fmt.Sprintf(`{"tag":"%s","value":95.5,"dt":1739876543210}`, tag)
}

func TestHTTPHandlerAcceptsSingleSample(t *testing.T) {
	t.Parallel()

	sink := &httpTestSink{}
	mux := newTestMux(sink, staticReady(true))
	request := httptest.NewRequest(http.MethodPost, "/samples", strings.NewReader(testSampleJSON("engine_temp_1")))
	response := httptest.NewRecorder()

	mux.ServeHTTP(response, request)
	if response.Code != http.StatusAccepted {
		t.Fatalf("expected status %d, got %d", http.StatusAccepted, response.Code)
	}
	if sink.pushCalls != 1 || sink.batchCalls != 0 {
		t.Fatalf("unexpected sink calls push=%d batch=%d", sink.pushCalls, sink.batchCalls)
	}
	if len(sink.samples) != 1 || sink.samples[0].Tag != "engine_temp_1" {
		t.Fatalf("unexpected samples %+v", sink.samples)
	}
}

func TestHTTPHandlerAcceptsBatchSamples(t *testing.T) {
	t.Parallel()

	sink := &httpTestSink{}
	mux := newTestMux(sink, staticReady(true))
	payload := fmt.Sprintf("[%s,%s]", testSampleJSON("engine_temp_1"), testSampleJSON("fuel_pressure"))
	request := httptest.NewRequest(http.MethodPost, "/samples/batch", strings.NewReader(payload))
	response := httptest.NewRecorder()

	mux.ServeHTTP(response, request)
	if response.Code != http.StatusAccepted {
		t.Fatalf("expected status %d, got %d", http.StatusAccepted, response.Code)
	}
	if sink.pushCalls != 0 || sink.batchCalls != 1 {
		t.Fatalf("unexpected sink calls push=%d batch=%d", sink.pushCalls, sink.batchCalls)
	}
	if len(sink.samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(sink.samples))
	}
}

func TestHTTPHandlerRejectsInvalidPayloads(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		path string
		body string
	}{
		{name: "empty batch", path: "/samples/batch", body: "[]"},
		{name: "missing tag", path: "/samples", body: `{"value":1,"dt":1739876543210}`},
		{name: "missing dt", path: "/samples", body: `{"tag":"engine_temp_1","value":1}`},
		{name: "broken json", path: "/samples", body: `{"tag":`},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			sink := &httpTestSink{}
			mux := newTestMux(sink, staticReady(true))
			request := httptest.NewRequest(http.MethodPost, tc.path, strings.NewReader(tc.body))
			response := httptest.NewRecorder()

			mux.ServeHTTP(response, request)
			if response.Code != http.StatusBadRequest {
				t.Fatalf("expected status %d, got %d", http.StatusBadRequest, response.Code)
			}
			if len(sink.samples) != 0 {
				t.Fatalf("invalid payload must not reach sink")
			}
		})
	}
}

func TestHTTPHandlerRejectsNonPost(t *testing.T) {
	t.Parallel()

	sink := &httpTestSink{}
	mux := newTestMux(sink, staticReady(true))
	request := httptest.NewRequest(http.MethodGet, "/samples", nil)
	response := httptest.NewRecorder()

	mux.ServeHTTP(response, request)
	if response.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status %d, got %d", http.StatusMethodNotAllowed, response.Code)
	}
}

func TestHTTPHandlerRefusesWhenNotReady(t *testing.T) {
	t.Parallel()

	sink := &httpTestSink{}
	mux := newTestMux(sink, staticReady(false))
	request := httptest.NewRequest(http.MethodPost, "/samples", strings.NewReader(testSampleJSON("engine_temp_1")))
	response := httptest.NewRecorder()

	mux.ServeHTTP(response, request)
	if response.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, response.Code)
	}
	if sink.pushCalls != 0 {
		t.Fatalf("unready handler must not push")
	}
}

func TestHTTPHandlerReportsPushFailure(t *testing.T) {
	t.Parallel()

	sink := &httpTestSink{err: errors.New("sink unavailable")}
	mux := newTestMux(sink, staticReady(true))
	request := httptest.NewRequest(http.MethodPost, "/samples", strings.NewReader(testSampleJSON("engine_temp_1")))
	response := httptest.NewRecorder()

	mux.ServeHTTP(response, request)
	if response.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, response.Code)
	}
}
