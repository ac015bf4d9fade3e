package models

import "github.com/cardforge/cardforge/pkg/catalog"

// IssueRequest asks for a fixed-amount gift card.
type IssueRequest struct {
	MerchantID     string         `json:"merchant_id" validate:"required,max=64" example:"starbucks"`
	Amount         float64        `json:"amount" validate:"required,gt=0" example:"25"`
	RecipientEmail string         `json:"recipient_email" validate:"required,email" example:"maya@example.com"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// IssueProductRequest asks for a gift card covering a product page.
type IssueProductRequest struct {
	MerchantID     string         `json:"merchant_id" validate:"required,max=64"`
	ProductURL     string         `json:"product_url" validate:"required,url"`
	RecipientEmail string         `json:"recipient_email" validate:"required,email"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// RecommendRequest asks for merchants matching interests.
type RecommendRequest struct {
	Interests []string `json:"interests" validate:"required,min=1,max=20,dive,required,max=50"`
	Occasion  string   `json:"occasion,omitempty" validate:"omitempty,max=100"`
	Limit     int      `json:"limit,omitempty" validate:"omitempty,min=1,max=50"`
}

// MerchantsResponse lists merchants.
type MerchantsResponse struct {
	Merchants []catalog.Merchant `json:"merchants"`
}

// MerchantResponse wraps one merchant.
type MerchantResponse struct {
	Merchant catalog.Merchant `json:"merchant"`
}

// GiftCardResponse wraps an issued card. ProductGiftCard embeds GiftCard,
// so either fits.
type GiftCardResponse struct {
	GiftCard any `json:"gift_card"`
}
