// Package catalog is the in-memory gift card catalog: merchant listing and
// search, fabricated card issuance, balance and wallet-pass look-ups, and
// interest-based recommendations.
package catalog

import (
	"context"
	"fmt"
	"maps"
	"math"
	"math/rand/v2"
	"net/url"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cardforge/cardforge/pkg/logger"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CardStatus is the lifecycle state of an issued card.
type CardStatus string

const (
	StatusActive   CardStatus = "active"
	StatusRedeemed CardStatus = "redeemed"
	StatusExpired  CardStatus = "expired"
)

const (
	cardValidity = 365 * 24 * time.Hour

	// DefaultRecommendationLimit is used when Recommend is called with limit <= 0.
	DefaultRecommendationLimit = 3

	kindStandard = "standard"
	kindProduct  = "product"
)

// GiftCard is a fabricated gift card.
type GiftCard struct {
	ID             string         `json:"id"`
	MerchantID     string         `json:"merchant_id"`
	MerchantName   string         `json:"merchant_name"`
	Amount         float64        `json:"amount"`
	Currency       string         `json:"currency"`
	Code           string         `json:"code"`
	PIN            string         `json:"pin"`
	RedemptionURL  string         `json:"redemption_url"`
	WalletURL      string         `json:"wallet_url"`
	QRCodeURL      string         `json:"qr_code_url"`
	RecipientEmail string         `json:"recipient_email"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	Status         CardStatus     `json:"status"`
	ExpiresAt      time.Time      `json:"expires_at"`
	CreatedAt      time.Time      `json:"created_at"`
}

// ProductGiftCard is a gift card tied to a specific product page.
type ProductGiftCard struct {
	GiftCard
	ProductURL   string `json:"product_url"`
	ProductName  string `json:"product_name"`
	ProductImage string `json:"product_image"`
	CartURL      string `json:"cart_url"`
}

// IssueRequest asks for a card of a fixed amount.
type IssueRequest struct {
	MerchantID     string
	Amount         float64
	RecipientEmail string
	Metadata       map[string]any
}

// ProductIssueRequest asks for a card covering a product.
type ProductIssueRequest struct {
	MerchantID     string
	ProductURL     string
	RecipientEmail string
	Metadata       map[string]any
}

// Balance is the remaining value of a card.
type Balance struct {
	CardID   string  `json:"card_id"`
	Balance  float64 `json:"balance"`
	Currency string  `json:"currency"`
}

// WalletPass points at the downloadable wallet pass for a card.
type WalletPass struct {
	Platform    string `json:"platform"`
	PassURL     string `json:"pass_url"`
	DownloadURL string `json:"download_url"`
}

// Config controls store behaviour.
type Config struct {
	BaseURL string
	// Mock allows balance and wallet look-ups for ids this process did not issue.
	Mock bool
	// Sandbox tags every issued card with metadata sandbox=true.
	Sandbox          bool
	SimulatedLatency time.Duration
}

// MetricsRecorder receives one observation per issued card.
type MetricsRecorder interface {
	RecordGiftCardIssued(merchant, kind string)
}

type nopMetrics struct{}

func (nopMetrics) RecordGiftCardIssued(string, string) {}

// Store is the gift card catalog. Merchants are read-only after
// construction; issued cards are indexed under mu.
type Store struct {
	cfg       Config
	merchants []Merchant
	byID      map[string]int

	mu    sync.RWMutex
	cards map[string]*GiftCard

	log     logger.Logger
	metrics MetricsRecorder
	now     func() time.Time
	balance func() float64
}

// Option configures a Store.
type Option func(*Store)

// WithMerchants replaces the seeded catalog.
func WithMerchants(merchants []Merchant) Option {
	return func(s *Store) {
		s.merchants = append([]Merchant(nil), merchants...)
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(s *Store) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore builds a store seeded with DefaultMerchants.
func NewStore(cfg Config, opts ...Option) *Store {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	s := &Store{
		cfg:       cfg,
		merchants: DefaultMerchants(),
		cards:     make(map[string]*GiftCard),
		log:       logger.NewNop(),
		metrics:   nopMetrics{},
		now:       time.Now,
		balance:   rand.Float64,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.byID = make(map[string]int, len(s.merchants))
	for i, m := range s.merchants {
		s.byID[m.ID] = i
	}
	return s
}

// List returns the full catalog in declaration order.
func (s *Store) List(ctx context.Context) []Merchant {
	return append([]Merchant(nil), s.merchants...)
}

// Merchant looks up a merchant by id.
func (s *Store) Merchant(ctx context.Context, id string) (Merchant, error) {
	i, ok := s.byID[id]
	if !ok {
		return Merchant{}, fmt.Errorf("%w: %s", ErrMerchantNotFound, id)
	}
	return s.merchants[i], nil
}

// Search filters the catalog. query matches name, description and
// categories case-insensitively; category must equal one of the merchant's
// categories. Empty filters are ignored; both filters must hold when given.
func (s *Store) Search(ctx context.Context, query, category string) []Merchant {
	query = strings.ToLower(strings.TrimSpace(query))
	category = strings.TrimSpace(category)

	out := make([]Merchant, 0, len(s.merchants))
	for _, m := range s.merchants {
		if query != "" && !strings.Contains(m.haystack(), query) {
			continue
		}
		if category != "" && !m.hasCategory(category) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Issue fabricates a gift card. The amount must lie within the merchant's
// [MinValue, MaxValue]; it is never clamped.
func (s *Store) Issue(ctx context.Context, req IssueRequest) (*GiftCard, error) {
	m, err := s.issuable(req.MerchantID)
	if err != nil {
		return nil, err
	}
	if req.Amount < m.MinValue || req.Amount > m.MaxValue || math.IsNaN(req.Amount) {
		return nil, &AmountRangeError{
			MerchantID: m.ID,
			Amount:     req.Amount,
			Min:        m.MinValue,
			Max:        m.MaxValue,
			Currency:   m.Currency,
		}
	}
	if err := s.simulateLatency(ctx); err != nil {
		return nil, err
	}

	card, err := s.newCard(m, req.Amount, req.RecipientEmail, req.Metadata)
	if err != nil {
		return nil, err
	}
	s.index(card)
	s.metrics.RecordGiftCardIssued(m.ID, kindStandard)
	s.log.InfoContext(ctx, "gift card issued",
		"card_id", card.ID,
		"merchant", m.ID,
		"amount", card.Amount,
		"sandbox", s.cfg.Sandbox,
	)
	return card, nil
}

// IssueProduct fabricates a card for a product page. The card is worth
// the merchant's maximum value.
func (s *Store) IssueProduct(ctx context.Context, req ProductIssueRequest) (*ProductGiftCard, error) {
	m, err := s.issuable(req.MerchantID)
	if err != nil {
		return nil, err
	}
	u, err := parseProductURL(req.ProductURL)
	if err != nil {
		return nil, err
	}
	if err := s.simulateLatency(ctx); err != nil {
		return nil, err
	}

	card, err := s.newCard(m, m.MaxValue, req.RecipientEmail, req.Metadata)
	if err != nil {
		return nil, err
	}
	s.index(card)

	product := &ProductGiftCard{
		GiftCard:     *card,
		ProductURL:   u.String(),
		ProductName:  productName(u, m),
		ProductImage: fmt.Sprintf("%s/products/%s/image.png", s.cfg.BaseURL, card.ID),
		CartURL: fmt.Sprintf("%s/cart/preload?card=%s&product=%s",
			s.cfg.BaseURL, card.ID, url.QueryEscape(u.String())),
	}
	s.metrics.RecordGiftCardIssued(m.ID, kindProduct)
	s.log.InfoContext(ctx, "product gift card issued",
		"card_id", card.ID,
		"merchant", m.ID,
		"product_host", u.Host,
	)
	return product, nil
}

// Balance returns a random balance in [0, 100) rounded down to cents.
// There is no ledger behind it.
func (s *Store) Balance(ctx context.Context, cardID string) (Balance, error) {
	currency, err := s.cardCurrency(cardID)
	if err != nil {
		return Balance{}, err
	}
	if err := s.simulateLatency(ctx); err != nil {
		return Balance{}, err
	}
	return Balance{
		CardID:   cardID,
		Balance:  math.Floor(s.balance()*10000) / 100,
		Currency: currency,
	}, nil
}

// WalletPass returns pass URLs for platform apple or google.
func (s *Store) WalletPass(ctx context.Context, cardID, platform string) (WalletPass, error) {
	platform = strings.ToLower(strings.TrimSpace(platform))
	ext := ""
	switch platform {
	case "apple":
		ext = ".pkpass"
	case "google":
		ext = ".json"
	default:
		return WalletPass{}, fmt.Errorf("%w: %q (want apple or google)", ErrInvalidPlatform, platform)
	}
	if _, err := s.cardCurrency(cardID); err != nil {
		return WalletPass{}, err
	}

	passURL := fmt.Sprintf("%s/wallet/%s/%s", s.cfg.BaseURL, platform, url.PathEscape(cardID))
	return WalletPass{
		Platform:    platform,
		PassURL:     passURL,
		DownloadURL: passURL + "/download" + ext,
	}, nil
}

// Recommend ranks merchants by how many interests appear in their name,
// description or categories. The occasion only reorders merchants that
// already matched. With no match at all the first limit merchants are
// returned in catalog order.
func (s *Store) Recommend(ctx context.Context, interests []string, occasion string, limit int) []Merchant {
	if limit <= 0 {
		limit = DefaultRecommendationLimit
	}

	type scored struct {
		idx   int
		score float64
	}
	boost := occasionCategories[strings.ToLower(strings.TrimSpace(occasion))]

	var matches []scored
	for i, m := range s.merchants {
		hay := m.haystack()
		score := 0.0
		for _, interest := range interests {
			interest = strings.ToLower(strings.TrimSpace(interest))
			if interest != "" && strings.Contains(hay, interest) {
				score++
			}
		}
		if score == 0 {
			continue
		}
		for _, c := range boost {
			if m.hasCategory(c) {
				score += 0.5
				break
			}
		}
		matches = append(matches, scored{idx: i, score: score})
	}

	if len(matches) == 0 {
		n := min(limit, len(s.merchants))
		return append([]Merchant(nil), s.merchants[:n]...)
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].score > matches[b].score
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]Merchant, len(matches))
	for i, sc := range matches {
		out[i] = s.merchants[sc.idx]
	}
	return out
}

func (s *Store) issuable(merchantID string) (Merchant, error) {
	m, err := s.Merchant(context.Background(), merchantID)
	if err != nil {
		return Merchant{}, err
	}
	if !m.Available {
		return Merchant{}, fmt.Errorf("%w: %s", ErrMerchantUnavailable, m.ID)
	}
	return m, nil
}

func (s *Store) newCard(m Merchant, amount float64, recipient string, metadata map[string]any) (*GiftCard, error) {
	code, err := newCode()
	if err != nil {
		return nil, fmt.Errorf("generate card code: %w", err)
	}
	pin, err := newPIN()
	if err != nil {
		return nil, fmt.Errorf("generate card pin: %w", err)
	}

	if s.cfg.Sandbox {
		tagged := make(map[string]any, len(metadata)+1)
		maps.Copy(tagged, metadata)
		tagged["sandbox"] = true
		metadata = tagged
	}

	now := s.now().UTC()
	id := uuid.NewString()
	return &GiftCard{
		ID:             id,
		MerchantID:     m.ID,
		MerchantName:   m.Name,
		Amount:         amount,
		Currency:       m.Currency,
		Code:           code,
		PIN:            pin,
		RedemptionURL:  fmt.Sprintf("%s/redeem/%s", s.cfg.BaseURL, code),
		WalletURL:      fmt.Sprintf("%s/wallet/%s", s.cfg.BaseURL, id),
		QRCodeURL:      fmt.Sprintf("%s/qr/%s.png", s.cfg.BaseURL, id),
		RecipientEmail: recipient,
		Metadata:       metadata,
		Status:         StatusActive,
		ExpiresAt:      now.Add(cardValidity),
		CreatedAt:      now,
	}, nil
}

func (s *Store) index(card *GiftCard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cards[card.ID] = card
}

func (s *Store) cardCurrency(cardID string) (string, error) {
	s.mu.RLock()
	card, ok := s.cards[cardID]
	s.mu.RUnlock()
	switch {
	case ok:
		return card.Currency, nil
	case s.cfg.Mock && strings.TrimSpace(cardID) != "":
		return "USD", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrCardNotFound, cardID)
	}
}

func (s *Store) simulateLatency(ctx context.Context) error {
	if s.cfg.SimulatedLatency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.cfg.SimulatedLatency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func parseProductURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProductURL, raw)
	}
	return u, nil
}

// productName derives a display name from the last path segment,
// e.g. /dp/noise-cancelling-headphones -> Noise Cancelling Headphones.
func productName(u *url.URL, m Merchant) string {
	seg := path.Base(strings.TrimRight(u.Path, "/"))
	seg = strings.TrimSuffix(seg, path.Ext(seg))
	words := strings.FieldsFunc(seg, func(r rune) bool {
		return r == '-' || r == '_' || r == '+' || r == ' '
	})
	if len(words) == 0 || seg == "." || seg == "/" {
		return "Product from " + m.Name
	}
	return cases.Title(language.Und, cases.NoLower).String(strings.Join(words, " "))
}
