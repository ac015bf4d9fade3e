package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/cardforge/cardforge/pkg/api/models"
	"github.com/cardforge/cardforge/pkg/api/response"
	"github.com/cardforge/cardforge/pkg/genai"
	"github.com/cardforge/cardforge/pkg/logger"
)

// connectionTimeout bounds GET /api/cards/test.
const connectionTimeout = 10 * time.Second

// CardGenerator is the part of the generation gateway the card routes use.
type CardGenerator interface {
	GenerateDesignVariations(ctx context.Context, in genai.CardInput) []genai.DesignVariant
	GenerateMessage(ctx context.Context, in genai.CardInput) string
	RefineDesign(ctx context.Context, originalPrompt, feedback string) genai.RefinedDesign
	CheckGrammar(ctx context.Context, text string) string
	TestConnection(ctx context.Context) bool
	Models() map[string]string
}

var _ CardGenerator = (*genai.Gateway)(nil)

// CardsHandler handles card design endpoints. Gateway failures never
// surface here: the gateway substitutes fallback content.
type CardsHandler struct {
	gateway   CardGenerator
	service   string
	logger    logger.Logger
	validator *validator.Validate
}

// NewCardsHandler creates a new cards handler. service names the model
// provider in connection reports.
func NewCardsHandler(gw CardGenerator, service string, log logger.Logger) *CardsHandler {
	return &CardsHandler{
		gateway:   gw,
		service:   service,
		logger:    log,
		validator: newValidator(),
	}
}

// Generate handles POST /api/cards/generate
func (h *CardsHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.CardRequest
	if !decodeJSON(w, r, h.validator, h.logger, &req) {
		return
	}

	ctx := r.Context()
	in := req.Input()
	designs := h.gateway.GenerateDesignVariations(ctx, in)
	message := in.Message
	if message == "" {
		message = h.gateway.GenerateMessage(ctx, in)
	}

	response.JSON(w, http.StatusOK, models.GenerateCardResponse{
		Designs: designs,
		Message: message,
		Input:   in,
	})
}

// Refine handles POST /api/cards/refine
func (h *CardsHandler) Refine(w http.ResponseWriter, r *http.Request) {
	var req models.RefineRequest
	if !decodeJSON(w, r, h.validator, h.logger, &req) {
		return
	}

	design := h.gateway.RefineDesign(r.Context(), req.OriginalPrompt, req.RefinementRequest)
	response.JSON(w, http.StatusOK, models.RefineResponse{Design: design})
}

// GenerateMessage handles POST /api/cards/generate-message
func (h *CardsHandler) GenerateMessage(w http.ResponseWriter, r *http.Request) {
	var req models.MessageRequest
	if !decodeJSON(w, r, h.validator, h.logger, &req) {
		return
	}

	msg := h.gateway.GenerateMessage(r.Context(), req.Input())
	response.JSON(w, http.StatusOK, models.MessageResponse{Message: msg})
}

// CheckGrammar handles POST /api/cards/check-grammar
func (h *CardsHandler) CheckGrammar(w http.ResponseWriter, r *http.Request) {
	var req models.GrammarRequest
	if !decodeJSON(w, r, h.validator, h.logger, &req) {
		return
	}

	corrected := h.gateway.CheckGrammar(r.Context(), req.Text)
	response.JSON(w, http.StatusOK, models.GrammarResponse{
		Original:   req.Text,
		Corrected:  corrected,
		HasChanges: corrected != req.Text,
	})
}

// TestConnection handles GET /api/cards/test
func (h *CardsHandler) TestConnection(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), connectionTimeout)
	defer cancel()

	status := "disconnected"
	if h.gateway.TestConnection(ctx) {
		status = "connected"
	}
	response.JSON(w, http.StatusOK, models.ConnectionResponse{
		Status:  status,
		Service: h.service,
		Models:  h.gateway.Models(),
	})
}
