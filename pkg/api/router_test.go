package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/cardforge/cardforge/config"
	"github.com/cardforge/cardforge/pkg/agents"
	"github.com/cardforge/cardforge/pkg/api/handlers"
	"github.com/cardforge/cardforge/pkg/api/middleware"
	"github.com/cardforge/cardforge/pkg/api/response"
	"github.com/cardforge/cardforge/pkg/catalog"
	"github.com/cardforge/cardforge/pkg/genai"
	"github.com/cardforge/cardforge/pkg/logger"
	"github.com/cardforge/cardforge/pkg/metrics"
	"github.com/cardforge/cardforge/pkg/sms"
	"github.com/cardforge/cardforge/pkg/workflow"
)

// createTestHandlers wires every handler against in-process fakes: the
// generation gateway has no model and SMS goes to the mock provider.
func createTestHandlers(m *metrics.Manager) *Handlers {
	log := logger.NewNop()
	gw := genai.NewGateway(nil, genai.Config{TextModel: "text-model"})
	store := catalog.NewStore(catalog.Config{BaseURL: "https://cards.test"})
	messenger := sms.NewGateway(sms.NewMockProvider(log))
	orch := workflow.New(gw, workflow.WithStages(agents.Pipeline(gw, store)...))

	h := &Handlers{
		Health:    handlers.NewHealthHandler("cardforge", "test", "dev", nil),
		Cards:     handlers.NewCardsHandler(gw, "gemini", log),
		GiftCards: handlers.NewGiftCardsHandler(store, log),
		SMS:       handlers.NewSMSHandler(messenger, log),
		Workflow:  handlers.NewWorkflowHandler(orch, log),
	}
	if m != nil {
		h.Metrics = m
		h.MetricsHandler = m.Handler()
	}
	return h
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.App.Environment = "test"
	return cfg
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestNewRouter(t *testing.T) {
	router := NewRouter(testConfig(), logger.NewNop(), &Handlers{})

	if router == nil {
		t.Fatal("NewRouter returned nil")
	}
}

func TestRegisterRoutes(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"health", http.MethodGet, "/health", "", http.StatusOK},
		{"ready", http.MethodGet, "/ready", "", http.StatusOK},
		{"card test", http.MethodGet, "/api/cards/test", "", http.StatusOK},
		{"generate", http.MethodPost, "/api/cards/generate", `{"recipient_name":"Maya","occasion":"birthday","interests":["coffee"]}`, http.StatusOK},
		{"generate invalid", http.MethodPost, "/api/cards/generate", `{"recipient_name":"Maya"}`, http.StatusBadRequest},
		{"refine", http.MethodPost, "/api/cards/refine", `{"original_prompt":"a cat","refinement_request":"bluer"}`, http.StatusOK},
		{"message", http.MethodPost, "/api/cards/generate-message", `{"recipient_name":"Maya","occasion":"birthday"}`, http.StatusOK},
		{"grammar", http.MethodPost, "/api/cards/check-grammar", `{"text":"hello"}`, http.StatusOK},
		{"catalog", http.MethodGet, "/api/gift-cards/catalog", "", http.StatusOK},
		{"search", http.MethodGet, "/api/gift-cards/search?q=book", "", http.StatusOK},
		{"merchant", http.MethodGet, "/api/gift-cards/merchants/nike", "", http.StatusOK},
		{"unknown merchant", http.MethodGet, "/api/gift-cards/merchants/acme", "", http.StatusNotFound},
		{"recommend", http.MethodPost, "/api/gift-cards/recommend", `{"interests":["music"]}`, http.StatusOK},
		{"workflow", http.MethodPost, "/api/workflows/generate-card", `{"prompt":"A thank you card"}`, http.StatusOK},
		{"sms send", http.MethodPost, "/api/sms/send", `{"to":"5551234567","body":"hi"}`, http.StatusOK},
		{"sms validate", http.MethodGet, "/api/sms/validate?phone=5551234567", "", http.StatusOK},
	}

	router := NewRouter(testConfig(), logger.NewNop(), createTestHandlers(nil))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(router, tt.method, tt.path, tt.body)

			if w.Code != tt.wantStatus {
				t.Errorf("%s %s status = %v, want %v, body: %s", tt.method, tt.path, w.Code, tt.wantStatus, w.Body.String())
			}
			if w.Header().Get(middleware.RequestIDHeader) == "" {
				t.Error("missing request id header")
			}
		})
	}
}

func TestRouter_IssueGiftCardEndToEnd(t *testing.T) {
	router := NewRouter(testConfig(), logger.NewNop(), createTestHandlers(nil))

	w := serve(router, http.MethodPost, "/api/gift-cards/issue",
		`{"merchant_id":"starbucks","amount":10,"recipient_email":"a@b.com"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %v, want 201, body: %s", w.Code, w.Body.String())
	}
	var resp struct {
		GiftCard struct {
			Code   string `json:"code"`
			Status string `json:"status"`
		} `json:"gift_card"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !regexp.MustCompile(`^[A-Z0-9]{4}(-[A-Z0-9]{4}){3}$`).MatchString(resp.GiftCard.Code) {
		t.Errorf("code %q does not match the gift code format", resp.GiftCard.Code)
	}
	if resp.GiftCard.Status != "active" {
		t.Errorf("status = %q, want active", resp.GiftCard.Status)
	}
}

func TestRouter_NotFoundListsRoutes(t *testing.T) {
	router := NewRouter(testConfig(), logger.NewNop(), createTestHandlers(nil))

	for _, path := range []string{"/nope", "/api/nope"} {
		w := serve(router, http.MethodGet, path, "")

		if w.Code != http.StatusNotFound {
			t.Fatalf("%s: status = %v, want 404", path, w.Code)
		}
		var resp response.ErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Error != "Not Found" || resp.Message == "" {
			t.Errorf("%s: unexpected body %+v", path, resp)
		}
		if !containsRoute(resp.AvailableRoutes, "POST /api/gift-cards/issue") {
			t.Errorf("%s: availableRoutes missing issue route: %v", path, resp.AvailableRoutes)
		}
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	router := NewRouter(testConfig(), logger.NewNop(), createTestHandlers(nil))

	w := serve(router, http.MethodDelete, "/api/gift-cards/catalog", "")

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %v, want 405", w.Code)
	}
	var resp response.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != response.ErrCodeMethodNotAllowed || len(resp.AvailableRoutes) == 0 {
		t.Errorf("unexpected body %+v", resp)
	}
}

func TestRouter_InlineMetrics(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.Enabled = true
	cfg.Metrics.Port = 0
	cfg.Metrics.Path = "/metrics"

	m := metrics.NewManager(metrics.DefaultConfig())
	router := NewRouter(cfg, logger.NewNop(), createTestHandlers(m))

	serve(router, http.MethodGet, "/api/gift-cards/merchants/nike", "")

	w := serve(router, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %v", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "http_requests_total") {
		t.Error("expected http_requests_total in scrape output")
	}
	if !strings.Contains(body, `path="/api/gift-cards/merchants/{id}"`) {
		t.Error("expected the route pattern as the path label")
	}
}

func TestRouter_MetricsOnDedicatedPort(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.Enabled = true
	cfg.Metrics.Port = 9090

	m := metrics.NewManager(metrics.DefaultConfig())
	router := NewRouter(cfg, logger.NewNop(), createTestHandlers(m))

	if w := serve(router, http.MethodGet, cfg.Metrics.Path, ""); w.Code != http.StatusNotFound {
		t.Errorf("metrics path on the API port: status = %v, want 404", w.Code)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	cfg := testConfig()
	cfg.Server.CORS = config.CORSConfig{
		Enabled:        true,
		AllowedOrigins: []string{"https://app.test"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type"},
	}
	router := NewRouter(cfg, logger.NewNop(), createTestHandlers(nil))

	req := httptest.NewRequest(http.MethodOptions, "/api/cards/generate", nil)
	req.Header.Set("Origin", "https://app.test")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %v, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.test" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestRouter_RecoveryHidesStackInProduction(t *testing.T) {
	for _, env := range []string{"development", "production"} {
		cfg := testConfig()
		cfg.App.Environment = env
		router := NewRouter(cfg, logger.NewNop(), &Handlers{})
		router.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("kaboom") })

		w := serve(router, http.MethodGet, "/boom", "")

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("%s: status = %v, want 500", env, w.Code)
		}
		var resp response.ErrorResponse
		if err := json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if hasStack := resp.Stack != ""; hasStack != (env != "production") {
			t.Errorf("%s: stack present = %v", env, hasStack)
		}
	}
}

func containsRoute(routes []string, want string) bool {
	for _, r := range routes {
		if r == want {
			return true
		}
	}
	return false
}
