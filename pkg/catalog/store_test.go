package catalog

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9]{4}(-[A-Z0-9]{4}){3}$`)

func newTestStore(opts ...Option) *Store {
	return NewStore(Config{BaseURL: "https://cards.test/"}, opts...)
}

func TestDefaultMerchants_Invariants(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range DefaultMerchants() {
		assert.LessOrEqual(t, m.MinValue, m.MaxValue, m.ID)
		assert.Positive(t, m.MinValue, m.ID)
		assert.NotEmpty(t, m.Categories, m.ID)
		assert.False(t, seen[m.ID], "duplicate id %s", m.ID)
		seen[m.ID] = true
	}
	assert.Len(t, seen, 12)
}

func TestIssue_Valid(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := newTestStore(WithClock(func() time.Time { return now }))

	card, err := s.Issue(context.Background(), IssueRequest{
		MerchantID:     "starbucks",
		Amount:         10,
		RecipientEmail: "a@b.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "starbucks", card.MerchantID)
	assert.Equal(t, 10.0, card.Amount)
	assert.Equal(t, "USD", card.Currency)
	assert.Regexp(t, codePattern, card.Code)
	assert.Regexp(t, `^\d{4}$`, card.PIN)
	assert.Equal(t, StatusActive, card.Status)
	assert.Equal(t, now.Add(365*24*time.Hour), card.ExpiresAt)
	assert.True(t, strings.HasPrefix(card.RedemptionURL, "https://cards.test/redeem/"), card.RedemptionURL)

	// Issued cards are indexed, so look-ups work without mock mode.
	bal, err := s.Balance(context.Background(), card.ID)
	require.NoError(t, err)
	assert.Equal(t, "USD", bal.Currency)
}

func TestIssue_SandboxMetadata(t *testing.T) {
	ctx := context.Background()
	req := IssueRequest{MerchantID: "starbucks", Amount: 10, Metadata: map[string]any{"order": "o-1"}}

	sandbox := NewStore(Config{BaseURL: "https://cards.test", Sandbox: true})
	card, err := sandbox.Issue(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"order": "o-1", "sandbox": true}, card.Metadata)
	assert.NotContains(t, req.Metadata, "sandbox", "caller metadata must not be mutated")

	product, err := sandbox.IssueProduct(ctx, ProductIssueRequest{MerchantID: "target", ProductURL: "https://target.com/p/mug"})
	require.NoError(t, err)
	assert.Equal(t, true, product.Metadata["sandbox"])

	live := newTestStore()
	card, err = live.Issue(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"order": "o-1"}, card.Metadata)
}

func TestIssue_AmountBoundaries(t *testing.T) {
	s := newTestStore()
	m, err := s.Merchant(context.Background(), "spotify")
	require.NoError(t, err)

	tests := []struct {
		name   string
		amount float64
		ok     bool
	}{
		{"min inclusive", m.MinValue, true},
		{"max inclusive", m.MaxValue, true},
		{"below min", m.MinValue - 0.01, false},
		{"above max", m.MaxValue + 0.01, false},
		{"zero", 0, false},
		{"negative", -5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card, err := s.Issue(context.Background(), IssueRequest{MerchantID: m.ID, Amount: tt.amount})
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, tt.amount, card.Amount)
				return
			}
			assert.ErrorIs(t, err, ErrAmountOutOfRange)
			var rangeErr *AmountRangeError
			require.True(t, errors.As(err, &rangeErr))
			assert.Equal(t, m.MinValue, rangeErr.Min)
			assert.Equal(t, m.MaxValue, rangeErr.Max)
		})
	}
}

func TestIssue_EveryMerchantRejectsOutsideRange(t *testing.T) {
	s := newTestStore()
	for _, m := range s.List(context.Background()) {
		_, err := s.Issue(context.Background(), IssueRequest{MerchantID: m.ID, Amount: m.MaxValue + 1})
		assert.ErrorIs(t, err, ErrAmountOutOfRange, m.ID)
		card, err := s.Issue(context.Background(), IssueRequest{MerchantID: m.ID, Amount: m.MinValue})
		require.NoError(t, err, m.ID)
		assert.Equal(t, m.ID, card.MerchantID)
	}
}

func TestIssue_UnknownMerchant(t *testing.T) {
	_, err := newTestStore().Issue(context.Background(), IssueRequest{MerchantID: "nope", Amount: 10})
	assert.ErrorIs(t, err, ErrMerchantNotFound)
}

func TestIssue_UnavailableMerchant(t *testing.T) {
	merchants := DefaultMerchants()[:1]
	merchants[0].Available = false
	_, err := newTestStore(WithMerchants(merchants)).Issue(context.Background(), IssueRequest{MerchantID: "starbucks", Amount: 10})
	assert.ErrorIs(t, err, ErrMerchantUnavailable)
}

func TestIssue_UniqueCodes(t *testing.T) {
	s := newTestStore()
	codes := map[string]bool{}
	for i := 0; i < 200; i++ {
		card, err := s.Issue(context.Background(), IssueRequest{MerchantID: "amazon", Amount: 50})
		require.NoError(t, err)
		assert.False(t, codes[card.Code], "duplicate code %s", card.Code)
		codes[card.Code] = true
	}
}

func TestIssue_SimulatedLatencyHonoursContext(t *testing.T) {
	s := NewStore(Config{BaseURL: "https://cards.test", SimulatedLatency: time.Second})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := s.Issue(ctx, IssueRequest{MerchantID: "amazon", Amount: 50})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type countingMetrics struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *countingMetrics) RecordGiftCardIssued(merchant, kind string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[merchant+"/"+kind]++
}

func TestIssueProduct(t *testing.T) {
	metrics := &countingMetrics{counts: map[string]int{}}
	s := newTestStore(WithMetrics(metrics))

	card, err := s.IssueProduct(context.Background(), ProductIssueRequest{
		MerchantID:     "bestbuy",
		ProductURL:     "https://www.bestbuy.com/site/noise-cancelling_headphones.p",
		RecipientEmail: "a@b.com",
	})
	require.NoError(t, err)

	assert.Equal(t, 500.0, card.Amount, "product cards carry the merchant maximum")
	assert.Equal(t, "Noise Cancelling Headphones", card.ProductName)
	assert.Contains(t, card.CartURL, "product=https%3A%2F%2Fwww.bestbuy.com")
	assert.Regexp(t, codePattern, card.Code)
	assert.Equal(t, 1, metrics.counts["bestbuy/product"])
}

func TestIssueProduct_InvalidURL(t *testing.T) {
	s := newTestStore()
	for _, raw := range []string{"", "not a url", "ftp://example.com/x", "https://", "/relative/path"} {
		_, err := s.IssueProduct(context.Background(), ProductIssueRequest{MerchantID: "amazon", ProductURL: raw})
		assert.ErrorIs(t, err, ErrInvalidProductURL, raw)
	}
}

func TestProductNameFallback(t *testing.T) {
	s := newTestStore()
	card, err := s.IssueProduct(context.Background(), ProductIssueRequest{MerchantID: "target", ProductURL: "https://target.com/"})
	require.NoError(t, err)
	assert.Equal(t, "Product from Target", card.ProductName)
}

func TestProductName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://target.com/p/noise-cancelling-headphones", "Noise Cancelling Headphones"},
		{"https://target.com/p/été_collection.html", "Été Collection"},
		{"https://target.com/p/%C3%A9t%C3%A9", "Été"},
		{"https://target.com/p/誕生日-set", "誕生日 Set"},
		{"https://target.com/p/ñapa-party/", "Ñapa Party"},
		{"https://target.com/p/iPad-case", "IPad Case"},
	}
	s := newTestStore()
	for _, tt := range tests {
		card, err := s.IssueProduct(context.Background(), ProductIssueRequest{MerchantID: "target", ProductURL: tt.url})
		require.NoError(t, err, tt.url)
		assert.Equal(t, tt.want, card.ProductName, tt.url)
	}
}

func TestSearch(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	all := s.List(ctx)

	assert.Len(t, s.Search(ctx, "", ""), len(all))

	coffee := s.Search(ctx, "COFFEE", "")
	require.NotEmpty(t, coffee)
	for _, m := range coffee {
		assert.Contains(t, m.haystack(), "coffee")
	}

	streaming := s.Search(ctx, "", "Streaming")
	assert.ElementsMatch(t, []string{"netflix", "spotify"}, ids(streaming))

	// Both filters apply.
	both := s.Search(ctx, "music", "streaming")
	assert.Equal(t, []string{"spotify"}, ids(both))

	assert.Empty(t, s.Search(ctx, "zzzz", ""))
}

func TestRecommend_FallbackToCatalogOrder(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	all := s.List(ctx)

	for _, limit := range []int{1, 3, 5, 100} {
		got := s.Recommend(ctx, []string{"quantum chromodynamics"}, "birthday", limit)
		want := min(limit, len(all))
		require.Len(t, got, want)
		assert.Equal(t, ids(all[:want]), ids(got))
	}

	assert.Len(t, s.Recommend(ctx, nil, "", 0), DefaultRecommendationLimit)
}

func TestRecommend_OnlyMatches(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	got := s.Recommend(ctx, []string{"books"}, "", 10)
	assert.ElementsMatch(t, []string{"amazon", "barnes-noble"}, ids(got))

	got = s.Recommend(ctx, []string{"music", "streaming"}, "", 3)
	require.NotEmpty(t, got)
	assert.Equal(t, "spotify", got[0].ID, "spotify matches both interests")
	assert.LessOrEqual(t, len(got), 3)
	for _, m := range got {
		hay := m.haystack()
		assert.True(t, strings.Contains(hay, "music") || strings.Contains(hay, "streaming"), m.ID)
	}
}

func TestRecommend_OccasionReordersMatches(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	assert.Equal(t, []string{"target", "home-depot"}, ids(s.Recommend(ctx, []string{"home"}, "", 3)))
	// Retirement favours garden merchants among the matches.
	assert.Equal(t, []string{"home-depot", "target"}, ids(s.Recommend(ctx, []string{"home"}, "Retirement", 3)))
}

func TestBalance(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	card, err := s.Issue(ctx, IssueRequest{MerchantID: "nike", Amount: 50})
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		b, err := s.Balance(ctx, card.ID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, b.Balance, 0.0)
		assert.Less(t, b.Balance, 100.0)
		assert.Equal(t, b.Balance, float64(int(b.Balance*100+0.5))/100)
		assert.Equal(t, "USD", b.Currency)
	}

	_, err = s.Balance(ctx, "unknown")
	assert.ErrorIs(t, err, ErrCardNotFound)
}

func TestBalance_MockAllowsUnknownIDs(t *testing.T) {
	s := NewStore(Config{BaseURL: "https://cards.test", Mock: true})
	s.balance = func() float64 { return 0.999999 }

	b, err := s.Balance(context.Background(), "external-card")
	require.NoError(t, err)
	assert.Equal(t, 99.99, b.Balance)
	assert.Equal(t, "USD", b.Currency)
}

func TestWalletPass(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	card, err := s.Issue(ctx, IssueRequest{MerchantID: "apple", Amount: 100})
	require.NoError(t, err)

	apple, err := s.WalletPass(ctx, card.ID, "Apple")
	require.NoError(t, err)
	assert.Equal(t, "apple", apple.Platform)
	assert.True(t, strings.HasSuffix(apple.DownloadURL, ".pkpass"))

	google, err := s.WalletPass(ctx, card.ID, "google")
	require.NoError(t, err)
	assert.Contains(t, google.PassURL, "/wallet/google/")

	_, err = s.WalletPass(ctx, card.ID, "samsung")
	assert.ErrorIs(t, err, ErrInvalidPlatform)

	_, err = s.WalletPass(ctx, "unknown", "apple")
	assert.ErrorIs(t, err, ErrCardNotFound)
}

func TestConcurrentIssue(t *testing.T) {
	s := newTestStore()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			card, err := s.Issue(context.Background(), IssueRequest{MerchantID: "target", Amount: 20})
			if assert.NoError(t, err) {
				_, err = s.Balance(context.Background(), card.ID)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
}

func ids(ms []Merchant) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.ID
	}
	return out
}
