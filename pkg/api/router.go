// Package api provides HTTP API server components.
package api

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/cardforge/cardforge/config"
	"github.com/cardforge/cardforge/pkg/api/handlers"
	"github.com/cardforge/cardforge/pkg/api/middleware"
	"github.com/cardforge/cardforge/pkg/api/response"
	"github.com/cardforge/cardforge/pkg/logger"
)

// Handlers holds all HTTP handlers. Nil handlers leave their routes
// unregistered.
type Handlers struct {
	Health    *handlers.HealthHandler
	Cards     *handlers.CardsHandler
	GiftCards *handlers.GiftCardsHandler
	SMS       *handlers.SMSHandler
	Workflow  *handlers.WorkflowHandler

	// Metrics is the optional metrics recorder
	Metrics middleware.MetricsRecorder

	// MetricsHandler serves the scrape endpoint when metrics are not on
	// a dedicated port.
	MetricsHandler http.Handler
}

// NewRouter creates a new chi router with middleware and routes.
func NewRouter(cfg *config.Config, log logger.Logger, h *Handlers) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID())
	r.Use(middleware.Tracing("/health", "/ready", cfg.Metrics.Path))
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log, !cfg.App.IsProduction()))
	if h.Metrics != nil {
		r.Use(middleware.Metrics(h.Metrics, cfg.Metrics.Path))
	}
	r.Use(middleware.CORS(&cfg.Server.CORS))
	r.Use(middleware.Timeout(cfg.Server.HTTP.RequestTimeout))

	var routes []string
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeRouteError(w, req, http.StatusNotFound,
			fmt.Sprintf("Route %s %s not found", req.Method, req.URL.Path), routes)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeRouteError(w, req, http.StatusMethodNotAllowed,
			fmt.Sprintf("Method %s not allowed on %s", req.Method, req.URL.Path), routes)
	})

	RegisterRoutes(r, h)
	if cfg.Metrics.Enabled && cfg.Metrics.Port == 0 && h.MetricsHandler != nil {
		r.Method(http.MethodGet, cfg.Metrics.Path, h.MetricsHandler)
	}

	routes = availableRoutes(r)
	return r
}

// RegisterRoutes registers all API routes.
func RegisterRoutes(r chi.Router, h *Handlers) {
	if h.Health != nil {
		r.Get("/health", h.Health.Health)
		r.Get("/ready", h.Health.Ready)
	}

	r.Route("/api", func(r chi.Router) {
		if h.Cards != nil {
			r.Route("/cards", func(r chi.Router) {
				r.Post("/generate", h.Cards.Generate)
				r.Post("/refine", h.Cards.Refine)
				r.Post("/generate-message", h.Cards.GenerateMessage)
				r.Post("/check-grammar", h.Cards.CheckGrammar)
				r.Get("/test", h.Cards.TestConnection)
			})
		}

		if h.GiftCards != nil {
			r.Route("/gift-cards", func(r chi.Router) {
				r.Get("/catalog", h.GiftCards.Catalog)
				r.Get("/search", h.GiftCards.Search)
				r.Get("/merchants/{id}", h.GiftCards.Merchant)
				r.Post("/issue", h.GiftCards.Issue)
				r.Post("/issue-product", h.GiftCards.IssueProduct)
				r.Post("/recommend", h.GiftCards.Recommend)
				r.Get("/{id}/balance", h.GiftCards.Balance)
				r.Get("/{id}/wallet-pass", h.GiftCards.WalletPass)
			})
		}

		if h.Workflow != nil {
			r.Post("/workflows/generate-card", h.Workflow.GenerateCard)
		}

		if h.SMS != nil {
			r.Route("/sms", func(r chi.Router) {
				r.Post("/send", h.SMS.Send)
				r.Post("/gift-link", h.SMS.GiftLink)
				r.Post("/verification-code", h.SMS.VerificationCode)
				r.Post("/invitation", h.SMS.Invitation)
				r.Post("/group-notification", h.SMS.GroupNotification)
				r.Get("/validate", h.SMS.ValidatePhone)
			})
		}
	})
}

// availableRoutes lists "METHOD /pattern" for every registered route.
func availableRoutes(r chi.Routes) []string {
	var routes []string
	_ = chi.Walk(r, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, method+" "+route)
		return nil
	})
	sort.Strings(routes)
	return routes
}

func writeRouteError(w http.ResponseWriter, r *http.Request, status int, message string, routes []string) {
	resp := response.NewError(status, message, middleware.GetRequestID(r.Context()))
	resp.AvailableRoutes = routes
	response.JSON(w, status, resp)
}
