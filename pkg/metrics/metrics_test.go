package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewManager(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true

	m := NewManager(cfg)
	if m == nil {
		t.Fatal("NewManager returned nil")
	}

	if !m.Enabled() {
		t.Error("Expected metrics to be enabled")
	}
}

func TestNewManager_Disabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false

	m := NewManager(cfg)
	if m == nil {
		t.Fatal("NewManager returned nil")
	}

	if m.Enabled() {
		t.Error("Expected metrics to be disabled")
	}
}

func TestMetricsHandler(t *testing.T) {
	m := NewManager(DefaultConfig())

	m.RecordWorkflowRun("complete", 2*time.Second)
	m.RecordStageDuration("illustrating", "ok", 300*time.Millisecond)
	m.RecordGeneration("analyze_prompt", "fallback", 10*time.Millisecond)
	m.RecordSMS("mock", "delivered")
	m.RecordSMSRateLimited()
	m.RecordGiftCardIssued("starbucks", "standard")
	m.RecordHTTPRequest("POST", "/api/gift-cards/issue", "201", 5*time.Millisecond)
	m.IncQueueDepth("genai")
	m.RecordWaitDuration("genai", 3*time.Millisecond)
	m.RecordThroughput("genai")
	m.RecordDropped("genai")

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	body := w.Body.String()
	expected := []string{
		"workflow_runs_total",
		"workflow_duration_seconds",
		"workflow_stage_duration_seconds",
		"genai_requests_total",
		"genai_request_duration_seconds",
		"sms_messages_total",
		"sms_rate_limited_total",
		"giftcards_issued_total",
		"http_requests_total",
		"lane_queue_depth",
		"lane_wait_duration_seconds",
		"lane_throughput_total",
		"lane_dropped_total",
	}
	for _, metric := range expected {
		if !strings.Contains(body, metric) {
			t.Errorf("Expected metric %s not found in output", metric)
		}
	}
}

func TestMetricsHandler_Disabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false

	m := NewManager(cfg)

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	m.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 when disabled, got %d", w.Code)
	}
}

func TestStartServer(t *testing.T) {
	m := NewManager(DefaultConfig())
	port := 19091

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		err := m.StartServer(ctx, port, "/metrics")
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Give server time to start
	time.Sleep(100 * time.Millisecond)

	resp, err := http.Get("http://localhost:19091/metrics")
	if err != nil {
		t.Fatalf("Failed to fetch metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	cancel()

	select {
	case err := <-errCh:
		t.Errorf("Server error: %v", err)
	case <-time.After(1 * time.Second):
	}
}

func TestNoOpManager(t *testing.T) {
	m := NoOpManager()

	if m.Enabled() {
		t.Error("NoOpManager should not be enabled")
	}

	// These should not panic
	m.RecordWorkflowRun("failed", time.Second)
	m.RecordStageDuration("editing", "soft_fail", time.Millisecond)
	m.IncActiveWorkflows()
	m.DecActiveWorkflows()
	m.RecordGeneration("check_grammar", "parsed", time.Millisecond)
	m.RecordSMS("twilio", "failed")
	m.RecordSMSRateLimited()
	m.RecordGiftCardIssued("amazon", "product")
	m.RecordHTTPRequest("GET", "/health", "200", time.Millisecond)
	m.IncActiveConnections()
	m.DecActiveConnections()
}

func BenchmarkRecordWorkflowRun(b *testing.B) {
	m := NewManager(DefaultConfig())
	d := 100 * time.Millisecond
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.RecordWorkflowRun("complete", d)
	}
}

func BenchmarkRecordHTTPRequest(b *testing.B) {
	m := NewManager(DefaultConfig())
	d := 5 * time.Millisecond
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.RecordHTTPRequest("GET", "/api/gift-cards/catalog", "200", d)
	}
}

func BenchmarkNoOpRecording(b *testing.B) {
	m := NoOpManager()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.RecordWorkflowRun("complete", time.Millisecond)
		m.RecordGeneration("analyze_prompt", "parsed", time.Millisecond)
		m.RecordSMS("mock", "delivered")
	}
}
