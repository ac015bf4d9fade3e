package catalog

import "strings"

// Merchant is a gift-card issuing retailer. Records are immutable once
// the store is built.
type Merchant struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Logo        string   `json:"logo"`
	Categories  []string `json:"categories"`
	MinValue    float64  `json:"min_value"`
	MaxValue    float64  `json:"max_value"`
	Currency    string   `json:"currency"`
	Available   bool     `json:"available"`
	Description string   `json:"description,omitempty"`
}

// haystack is the lower-cased text recommendation and search match against.
func (m Merchant) haystack() string {
	return strings.ToLower(m.Name + " " + m.Description + " " + strings.Join(m.Categories, " "))
}

func (m Merchant) hasCategory(category string) bool {
	for _, c := range m.Categories {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}

// DefaultMerchants returns the seeded catalog in declaration order. The
// order doubles as the popularity ranking for recommendation fallback.
func DefaultMerchants() []Merchant {
	return []Merchant{
		{
			ID:          "starbucks",
			Name:        "Starbucks",
			Logo:        "/logos/starbucks.png",
			Categories:  []string{"food", "coffee", "drinks"},
			MinValue:    5,
			MaxValue:    100,
			Currency:    "USD",
			Available:   true,
			Description: "Coffee, tea and snacks at thousands of cafes",
		},
		{
			ID:          "amazon",
			Name:        "Amazon",
			Logo:        "/logos/amazon.png",
			Categories:  []string{"shopping", "electronics", "books", "general"},
			MinValue:    10,
			MaxValue:    500,
			Currency:    "USD",
			Available:   true,
			Description: "Millions of items from electronics to groceries",
		},
		{
			ID:          "target",
			Name:        "Target",
			Logo:        "/logos/target.png",
			Categories:  []string{"shopping", "home", "general"},
			MinValue:    10,
			MaxValue:    500,
			Currency:    "USD",
			Available:   true,
			Description: "Everyday essentials, home goods and clothing",
		},
		{
			ID:          "bestbuy",
			Name:        "Best Buy",
			Logo:        "/logos/bestbuy.png",
			Categories:  []string{"electronics", "gaming", "tech"},
			MinValue:    25,
			MaxValue:    500,
			Currency:    "USD",
			Available:   true,
			Description: "Consumer electronics, video games and appliances",
		},
		{
			ID:          "sephora",
			Name:        "Sephora",
			Logo:        "/logos/sephora.png",
			Categories:  []string{"beauty", "makeup", "skincare"},
			MinValue:    10,
			MaxValue:    250,
			Currency:    "USD",
			Available:   true,
			Description: "Makeup, skincare, fragrance and beauty tools",
		},
		{
			ID:          "nike",
			Name:        "Nike",
			Logo:        "/logos/nike.png",
			Categories:  []string{"sports", "fashion", "fitness"},
			MinValue:    25,
			MaxValue:    250,
			Currency:    "USD",
			Available:   true,
			Description: "Athletic shoes, apparel and running gear",
		},
		{
			ID:          "apple",
			Name:        "Apple",
			Logo:        "/logos/apple.png",
			Categories:  []string{"electronics", "tech", "music", "apps"},
			MinValue:    25,
			MaxValue:    500,
			Currency:    "USD",
			Available:   true,
			Description: "Apps, music, devices and accessories",
		},
		{
			ID:          "netflix",
			Name:        "Netflix",
			Logo:        "/logos/netflix.png",
			Categories:  []string{"entertainment", "movies", "streaming"},
			MinValue:    25,
			MaxValue:    200,
			Currency:    "USD",
			Available:   true,
			Description: "Movies and TV series streaming",
		},
		{
			ID:          "spotify",
			Name:        "Spotify",
			Logo:        "/logos/spotify.png",
			Categories:  []string{"music", "entertainment", "streaming"},
			MinValue:    10,
			MaxValue:    99,
			Currency:    "USD",
			Available:   true,
			Description: "Music and podcast streaming",
		},
		{
			ID:          "uber-eats",
			Name:        "Uber Eats",
			Logo:        "/logos/uber-eats.png",
			Categories:  []string{"food", "delivery", "dining"},
			MinValue:    15,
			MaxValue:    200,
			Currency:    "USD",
			Available:   true,
			Description: "Restaurant delivery and takeout",
		},
		{
			ID:          "barnes-noble",
			Name:        "Barnes & Noble",
			Logo:        "/logos/barnes-noble.png",
			Categories:  []string{"books", "reading", "education"},
			MinValue:    10,
			MaxValue:    200,
			Currency:    "USD",
			Available:   true,
			Description: "Books, magazines, games and gifts",
		},
		{
			ID:          "home-depot",
			Name:        "The Home Depot",
			Logo:        "/logos/home-depot.png",
			Categories:  []string{"home", "garden", "tools", "diy"},
			MinValue:    25,
			MaxValue:    500,
			Currency:    "USD",
			Available:   true,
			Description: "Home improvement, tools and garden supplies",
		},
	}
}

// occasionCategories lists categories that get a small ranking boost for
// an occasion.
var occasionCategories = map[string][]string{
	"birthday":     {"entertainment", "shopping", "food"},
	"anniversary":  {"dining", "beauty", "food"},
	"wedding":      {"home", "shopping"},
	"graduation":   {"electronics", "books", "tech"},
	"holiday":      {"shopping", "general", "entertainment"},
	"christmas":    {"shopping", "general", "entertainment"},
	"thank you":    {"coffee", "food"},
	"baby shower":  {"shopping", "home"},
	"housewarming": {"home", "garden"},
	"retirement":   {"garden", "reading", "entertainment"},
}
