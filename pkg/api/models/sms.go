package models

import "github.com/cardforge/cardforge/pkg/sms"

// SendSMSRequest sends a raw text message.
type SendSMSRequest struct {
	To   string `json:"to" validate:"required,max=32" example:"5551234567"`
	Body string `json:"body" validate:"required,max=1600"`
}

// GiftLinkRequest notifies a recipient that a card is waiting.
type GiftLinkRequest struct {
	To           string  `json:"to" validate:"required,max=32"`
	SenderName   string  `json:"sender_name,omitempty" validate:"omitempty,max=100"`
	CardURL      string  `json:"card_url" validate:"required,max=2048"`
	Occasion     string  `json:"occasion,omitempty" validate:"omitempty,max=100"`
	MerchantName string  `json:"merchant_name,omitempty" validate:"omitempty,max=100"`
	Amount       float64 `json:"amount,omitempty" validate:"omitempty,gt=0"`
}

// Link converts the request to a gateway gift link.
func (r GiftLinkRequest) Link() sms.GiftLink {
	return sms.GiftLink{
		SenderName:   r.SenderName,
		CardURL:      r.CardURL,
		Occasion:     r.Occasion,
		MerchantName: r.MerchantName,
		Amount:       r.Amount,
	}
}

// VerificationCodeRequest sends a one-time code. An empty code is generated.
type VerificationCodeRequest struct {
	To   string `json:"to" validate:"required,max=32"`
	Code string `json:"code,omitempty" validate:"omitempty,numeric,min=4,max=10"`
}

// InvitationRequest invites someone to view a card.
type InvitationRequest struct {
	To          string `json:"to" validate:"required,max=32"`
	InviterName string `json:"inviter_name,omitempty" validate:"omitempty,max=100"`
	CardURL     string `json:"card_url" validate:"required,max=2048"`
}

// GroupNotificationRequest asks several contributors to sign a card.
type GroupNotificationRequest struct {
	Recipients    []string `json:"recipients" validate:"required,min=1,max=50,dive,required,max=32"`
	OrganizerName string   `json:"organizer_name,omitempty" validate:"omitempty,max=100"`
	RecipientName string   `json:"recipient_name,omitempty" validate:"omitempty,max=100"`
	CardURL       string   `json:"card_url" validate:"required,max=2048"`
}

// Notification converts the request to a gateway group notification.
func (r GroupNotificationRequest) Notification() sms.GroupNotification {
	return sms.GroupNotification{
		OrganizerName: r.OrganizerName,
		RecipientName: r.RecipientName,
		CardURL:       r.CardURL,
	}
}

// ReceiptResponse wraps a delivery receipt.
type ReceiptResponse struct {
	Receipt *sms.Receipt `json:"receipt"`
}

// VerificationResponse wraps the receipt of a verification code send.
// The code itself is only echoed back by mock providers.
type VerificationResponse struct {
	Receipt *sms.Receipt `json:"receipt"`
	Code    string       `json:"code,omitempty"`
}

// GroupResponse reports per-recipient outcomes.
type GroupResponse struct {
	Results []sms.GroupResult `json:"results"`
	Sent    int               `json:"sent"`
	Failed  int               `json:"failed"`
}

// ValidatePhoneResponse reports phone normalisation.
type ValidatePhoneResponse struct {
	Input      string `json:"input"`
	Normalized string `json:"normalized"`
	Valid      bool   `json:"valid"`
}
