package handlers

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardforge/cardforge/pkg/api/models"
	"github.com/cardforge/cardforge/pkg/api/response"
	"github.com/cardforge/cardforge/pkg/catalog"
	"github.com/cardforge/cardforge/pkg/logger"
)

var giftCodePattern = regexp.MustCompile(`^[A-Z0-9]{4}(-[A-Z0-9]{4}){3}$`)

func newGiftCardRouter(cfg catalog.Config) http.Handler {
	h := NewGiftCardsHandler(catalog.NewStore(cfg), logger.NewNop())
	r := chi.NewRouter()
	r.Get("/api/gift-cards/catalog", h.Catalog)
	r.Get("/api/gift-cards/search", h.Search)
	r.Get("/api/gift-cards/merchants/{id}", h.Merchant)
	r.Post("/api/gift-cards/issue", h.Issue)
	r.Post("/api/gift-cards/issue-product", h.IssueProduct)
	r.Post("/api/gift-cards/recommend", h.Recommend)
	r.Get("/api/gift-cards/{id}/balance", h.Balance)
	r.Get("/api/gift-cards/{id}/wallet-pass", h.WalletPass)
	return r
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

type issuedCard struct {
	GiftCard struct {
		ID          string  `json:"id"`
		MerchantID  string  `json:"merchant_id"`
		Amount      float64 `json:"amount"`
		Code        string  `json:"code"`
		Status      string  `json:"status"`
		ProductName string  `json:"product_name"`
	} `json:"gift_card"`
}

func TestGiftCardsHandler_IssueStarbucks(t *testing.T) {
	router := newGiftCardRouter(catalog.Config{BaseURL: "https://cards.test"})

	w := postJSON(t, router.ServeHTTP, "/api/gift-cards/issue", map[string]any{
		"merchant_id":     "starbucks",
		"amount":          10,
		"recipient_email": "a@b.com",
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decodeBody[issuedCard](t, w)
	assert.Regexp(t, giftCodePattern, resp.GiftCard.Code)
	assert.Equal(t, "active", resp.GiftCard.Status)
	assert.Equal(t, "starbucks", resp.GiftCard.MerchantID)
	assert.Equal(t, 10.0, resp.GiftCard.Amount)

	// The issued card is known to balance and wallet look-ups.
	bal := get(router, "/api/gift-cards/"+resp.GiftCard.ID+"/balance")
	require.Equal(t, http.StatusOK, bal.Code)
	balance := decodeBody[catalog.Balance](t, bal)
	assert.Equal(t, "USD", balance.Currency)
	assert.GreaterOrEqual(t, balance.Balance, 0.0)
	assert.Less(t, balance.Balance, 100.0)

	pass := get(router, "/api/gift-cards/"+resp.GiftCard.ID+"/wallet-pass?platform=google")
	require.Equal(t, http.StatusOK, pass.Code)
	wp := decodeBody[catalog.WalletPass](t, pass)
	assert.Contains(t, wp.PassURL, "/wallet/google/")
	assert.NotEmpty(t, wp.DownloadURL)
}

func TestGiftCardsHandler_IssueErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
		wantCode   string
	}{
		{
			name:       "missing fields",
			body:       map[string]any{"merchant_id": "starbucks"},
			wantStatus: http.StatusBadRequest,
			wantCode:   response.ErrCodeValidationFailed,
		},
		{
			name:       "bad email",
			body:       map[string]any{"merchant_id": "starbucks", "amount": 10, "recipient_email": "nope"},
			wantStatus: http.StatusBadRequest,
			wantCode:   response.ErrCodeValidationFailed,
		},
		{
			name:       "amount above range",
			body:       map[string]any{"merchant_id": "starbucks", "amount": 1000, "recipient_email": "a@b.com"},
			wantStatus: http.StatusBadRequest,
			wantCode:   response.ErrCodeBadRequest,
		},
		{
			name:       "unknown merchant",
			body:       map[string]any{"merchant_id": "nowhere", "amount": 10, "recipient_email": "a@b.com"},
			wantStatus: http.StatusNotFound,
			wantCode:   response.ErrCodeNotFound,
		},
	}

	router := newGiftCardRouter(catalog.Config{BaseURL: "https://cards.test"})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, router.ServeHTTP, "/api/gift-cards/issue", tt.body)

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			resp := decodeBody[response.ErrorResponse](t, w)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestGiftCardsHandler_IssueProduct(t *testing.T) {
	router := newGiftCardRouter(catalog.Config{BaseURL: "https://cards.test"})

	w := postJSON(t, router.ServeHTTP, "/api/gift-cards/issue-product", map[string]any{
		"merchant_id":     "bestbuy",
		"product_url":     "https://www.bestbuy.com/site/noise-cancelling-headphones",
		"recipient_email": "a@b.com",
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decodeBody[issuedCard](t, w)
	assert.Equal(t, "Noise Cancelling Headphones", resp.GiftCard.ProductName)
	assert.Regexp(t, giftCodePattern, resp.GiftCard.Code)

	bad := postJSON(t, router.ServeHTTP, "/api/gift-cards/issue-product", map[string]any{
		"merchant_id":     "bestbuy",
		"product_url":     "ftp://files.example.com/thing",
		"recipient_email": "a@b.com",
	})
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestGiftCardsHandler_CatalogAndSearch(t *testing.T) {
	router := newGiftCardRouter(catalog.Config{BaseURL: "https://cards.test"})

	all := decodeBody[models.MerchantsResponse](t, get(router, "/api/gift-cards/catalog"))
	assert.Len(t, all.Merchants, len(catalog.DefaultMerchants()))

	found := decodeBody[models.MerchantsResponse](t, get(router, "/api/gift-cards/search?q=coffee"))
	require.NotEmpty(t, found.Merchants)
	assert.Equal(t, "starbucks", found.Merchants[0].ID)
	assert.LessOrEqual(t, len(found.Merchants), len(all.Merchants))
}

func TestGiftCardsHandler_Merchant(t *testing.T) {
	router := newGiftCardRouter(catalog.Config{BaseURL: "https://cards.test"})

	w := get(router, "/api/gift-cards/merchants/amazon")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Amazon", decodeBody[models.MerchantResponse](t, w).Merchant.Name)

	missing := get(router, "/api/gift-cards/merchants/nowhere")
	assert.Equal(t, http.StatusNotFound, missing.Code)
	resp := decodeBody[response.ErrorResponse](t, missing)
	assert.Equal(t, "Not Found", resp.Error)
}

func TestGiftCardsHandler_UnknownCard(t *testing.T) {
	strict := newGiftCardRouter(catalog.Config{BaseURL: "https://cards.test"})
	assert.Equal(t, http.StatusNotFound, get(strict, "/api/gift-cards/abc/balance").Code)

	mock := newGiftCardRouter(catalog.Config{BaseURL: "https://cards.test", Mock: true})
	assert.Equal(t, http.StatusOK, get(mock, "/api/gift-cards/abc/balance").Code)
	assert.Equal(t, http.StatusBadRequest, get(mock, "/api/gift-cards/abc/wallet-pass?platform=windows").Code)
	assert.Equal(t, http.StatusOK, get(mock, "/api/gift-cards/abc/wallet-pass").Code)
}

func TestGiftCardsHandler_Recommend(t *testing.T) {
	router := newGiftCardRouter(catalog.Config{BaseURL: "https://cards.test"})

	w := postJSON(t, router.ServeHTTP, "/api/gift-cards/recommend", models.RecommendRequest{
		Interests: []string{"zzz-nothing-matches"},
		Limit:     2,
	})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody[models.MerchantsResponse](t, w)
	require.Len(t, resp.Merchants, 2)
	assert.Equal(t, "starbucks", resp.Merchants[0].ID)
	assert.Equal(t, "amazon", resp.Merchants[1].ID)

	empty := postJSON(t, router.ServeHTTP, "/api/gift-cards/recommend", map[string]any{"interests": []string{}})
	assert.Equal(t, http.StatusBadRequest, empty.Code)
}
