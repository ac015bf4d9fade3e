package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/cardforge/cardforge/pkg/api/middleware"
	"github.com/cardforge/cardforge/pkg/api/models"
	"github.com/cardforge/cardforge/pkg/api/response"
	"github.com/cardforge/cardforge/pkg/catalog"
	"github.com/cardforge/cardforge/pkg/logger"
)

// GiftCatalog is the gift card store as seen by the HTTP layer.
type GiftCatalog interface {
	List(ctx context.Context) []catalog.Merchant
	Merchant(ctx context.Context, id string) (catalog.Merchant, error)
	Search(ctx context.Context, query, category string) []catalog.Merchant
	Issue(ctx context.Context, req catalog.IssueRequest) (*catalog.GiftCard, error)
	IssueProduct(ctx context.Context, req catalog.ProductIssueRequest) (*catalog.ProductGiftCard, error)
	Balance(ctx context.Context, cardID string) (catalog.Balance, error)
	WalletPass(ctx context.Context, cardID, platform string) (catalog.WalletPass, error)
	Recommend(ctx context.Context, interests []string, occasion string, limit int) []catalog.Merchant
}

var _ GiftCatalog = (*catalog.Store)(nil)

// GiftCardsHandler handles gift card endpoints.
type GiftCardsHandler struct {
	catalog   GiftCatalog
	logger    logger.Logger
	validator *validator.Validate
}

// NewGiftCardsHandler creates a new gift card handler.
func NewGiftCardsHandler(store GiftCatalog, log logger.Logger) *GiftCardsHandler {
	return &GiftCardsHandler{
		catalog:   store,
		logger:    log,
		validator: newValidator(),
	}
}

// Catalog handles GET /api/gift-cards/catalog
func (h *GiftCardsHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, models.MerchantsResponse{Merchants: h.catalog.List(r.Context())})
}

// Search handles GET /api/gift-cards/search?q=&category=
func (h *GiftCardsHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	merchants := h.catalog.Search(r.Context(), q.Get("q"), q.Get("category"))
	response.JSON(w, http.StatusOK, models.MerchantsResponse{Merchants: merchants})
}

// Merchant handles GET /api/gift-cards/merchants/{id}
func (h *GiftCardsHandler) Merchant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	m, err := h.catalog.Merchant(ctx, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, middleware.GetRequestID(ctx))
		return
	}
	response.JSON(w, http.StatusOK, models.MerchantResponse{Merchant: m})
}

// Issue handles POST /api/gift-cards/issue
func (h *GiftCardsHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req models.IssueRequest
	if !decodeJSON(w, r, h.validator, h.logger, &req) {
		return
	}

	ctx := r.Context()
	card, err := h.catalog.Issue(ctx, catalog.IssueRequest{
		MerchantID:     req.MerchantID,
		Amount:         req.Amount,
		RecipientEmail: req.RecipientEmail,
		Metadata:       req.Metadata,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "Failed to issue gift card", "merchant", req.MerchantID, "error", err)
		response.HandleError(w, err, middleware.GetRequestID(ctx))
		return
	}
	response.JSON(w, http.StatusCreated, models.GiftCardResponse{GiftCard: card})
}

// IssueProduct handles POST /api/gift-cards/issue-product
func (h *GiftCardsHandler) IssueProduct(w http.ResponseWriter, r *http.Request) {
	var req models.IssueProductRequest
	if !decodeJSON(w, r, h.validator, h.logger, &req) {
		return
	}

	ctx := r.Context()
	card, err := h.catalog.IssueProduct(ctx, catalog.ProductIssueRequest{
		MerchantID:     req.MerchantID,
		ProductURL:     req.ProductURL,
		RecipientEmail: req.RecipientEmail,
		Metadata:       req.Metadata,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "Failed to issue product gift card", "merchant", req.MerchantID, "error", err)
		response.HandleError(w, err, middleware.GetRequestID(ctx))
		return
	}
	response.JSON(w, http.StatusCreated, models.GiftCardResponse{GiftCard: card})
}

// Balance handles GET /api/gift-cards/{id}/balance
func (h *GiftCardsHandler) Balance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bal, err := h.catalog.Balance(ctx, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, middleware.GetRequestID(ctx))
		return
	}
	response.JSON(w, http.StatusOK, bal)
}

// WalletPass handles GET /api/gift-cards/{id}/wallet-pass?platform=apple|google
// The platform defaults to apple.
func (h *GiftCardsHandler) WalletPass(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	platform := r.URL.Query().Get("platform")
	if platform == "" {
		platform = "apple"
	}
	pass, err := h.catalog.WalletPass(ctx, chi.URLParam(r, "id"), platform)
	if err != nil {
		response.HandleError(w, err, middleware.GetRequestID(ctx))
		return
	}
	response.JSON(w, http.StatusOK, pass)
}

// Recommend handles POST /api/gift-cards/recommend
func (h *GiftCardsHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req models.RecommendRequest
	if !decodeJSON(w, r, h.validator, h.logger, &req) {
		return
	}

	merchants := h.catalog.Recommend(r.Context(), req.Interests, req.Occasion, req.Limit)
	response.JSON(w, http.StatusOK, models.MerchantsResponse{Merchants: merchants})
}
