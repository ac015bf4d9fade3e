package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardforge/cardforge/pkg/api/models"
	"github.com/cardforge/cardforge/pkg/api/response"
	"github.com/cardforge/cardforge/pkg/logger"
	"github.com/cardforge/cardforge/pkg/ratelimit"
	"github.com/cardforge/cardforge/pkg/sms"
)

func newSMSHandler(opts ...sms.Option) (*SMSHandler, *sms.MockProvider) {
	provider := sms.NewMockProvider(nil, sms.WithCapture())
	opts = append([]sms.Option{sms.WithAppURL("https://cards.test")}, opts...)
	return NewSMSHandler(sms.NewGateway(provider, opts...), logger.NewNop()), provider
}

func TestSMSHandler_Send(t *testing.T) {
	handler, provider := newSMSHandler()

	w := postJSON(t, handler.Send, "/api/sms/send", models.SendSMSRequest{To: "555-123-4567", Body: "hello"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeBody[models.ReceiptResponse](t, w)
	assert.Equal(t, "+15551234567", resp.Receipt.To)
	assert.Equal(t, "delivered", resp.Receipt.Status)
	assert.True(t, resp.Receipt.Mock)
	require.Len(t, provider.Sent(), 1)
	assert.Equal(t, "hello", provider.Sent()[0].Body)
}

func TestSMSHandler_SendErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		wantStatus int
	}{
		{"missing body", map[string]string{"to": "5551234567"}, http.StatusBadRequest},
		{"invalid number", models.SendSMSRequest{To: "12", Body: "hi"}, http.StatusBadRequest},
		{"blank body", models.SendSMSRequest{To: "5551234567", Body: "   "}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, provider := newSMSHandler()
			w := postJSON(t, handler.Send, "/api/sms/send", tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Empty(t, provider.Sent())
		})
	}
}

func TestSMSHandler_RateLimited(t *testing.T) {
	handler, _ := newSMSHandler(sms.WithLimiter(ratelimit.NewMemoryLimiter(1, time.Hour)))
	req := models.SendSMSRequest{To: "5551234567", Body: "hi"}

	first := postJSON(t, handler.Send, "/api/sms/send", req)
	require.Equal(t, http.StatusOK, first.Code)

	second := postJSON(t, handler.Send, "/api/sms/send", req)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, response.ErrCodeRateLimited, decodeBody[response.ErrorResponse](t, second).Code)
}

func TestSMSHandler_GiftLink(t *testing.T) {
	handler, provider := newSMSHandler()

	w := postJSON(t, handler.GiftLink, "/api/sms/gift-link", models.GiftLinkRequest{
		To:           "5551234567",
		SenderName:   "Sam",
		CardURL:      "/cards/abc",
		Occasion:     "birthday",
		MerchantName: "Starbucks",
		Amount:       25,
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := provider.Sent()[0].Body
	assert.Contains(t, body, "Sam sent you a birthday card!")
	assert.Contains(t, body, "$25.00 Starbucks gift card")
	assert.Contains(t, body, "https://cards.test/cards/abc")
}

func TestSMSHandler_Invitation(t *testing.T) {
	handler, provider := newSMSHandler()

	w := postJSON(t, handler.Invitation, "/api/sms/invitation", models.InvitationRequest{
		To:          "+447700900123",
		InviterName: "Ana",
		CardURL:     "https://cards.test/view/1",
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "+447700900123", provider.Sent()[0].To)
	assert.True(t, strings.HasPrefix(provider.Sent()[0].Body, "Ana shared a card"))
}

func TestSMSHandler_VerificationCode(t *testing.T) {
	handler, provider := newSMSHandler()

	w := postJSON(t, handler.VerificationCode, "/api/sms/verification-code", map[string]string{"to": "5551234567"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeBody[models.VerificationResponse](t, w)
	assert.Regexp(t, `^\d{6}$`, resp.Code)
	assert.Contains(t, provider.Sent()[0].Body, resp.Code)

	bad := postJSON(t, handler.VerificationCode, "/api/sms/verification-code", map[string]string{"to": "5551234567", "code": "ab"})
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestSMSHandler_GroupNotification(t *testing.T) {
	handler, provider := newSMSHandler()

	w := postJSON(t, handler.GroupNotification, "/api/sms/group-notification", models.GroupNotificationRequest{
		Recipients:    []string{"5551234567", "nope", "5559876543"},
		OrganizerName: "Sam",
		RecipientName: "Maya",
		CardURL:       "/cards/group/1",
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeBody[models.GroupResponse](t, w)
	assert.Equal(t, 2, resp.Sent)
	assert.Equal(t, 1, resp.Failed)
	require.Len(t, resp.Results, 3)
	assert.Equal(t, "nope", resp.Results[1].To)
	assert.NotEmpty(t, resp.Results[1].Error)
	assert.Len(t, provider.Sent(), 2)

	empty := postJSON(t, handler.GroupNotification, "/api/sms/group-notification", map[string]any{
		"recipients": []string{},
		"card_url":   "/cards/group/1",
	})
	assert.Equal(t, http.StatusBadRequest, empty.Code)
}

func TestSMSHandler_ValidatePhone(t *testing.T) {
	tests := []struct {
		phone      string
		normalized string
		valid      bool
	}{
		{"5551234567", "+15551234567", true},
		{"15551234567", "+15551234567", true},
		{"+447700900123", "+447700900123", true},
		{"123", "+123", false},
	}

	handler, _ := newSMSHandler()
	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ValidatePhone(w, httptest.NewRequest(http.MethodGet, "/api/sms/validate?phone="+tt.phone, nil))

			resp := decodeBody[models.ValidatePhoneResponse](t, w)
			assert.Equal(t, tt.normalized, resp.Normalized)
			assert.Equal(t, tt.valid, resp.Valid)
		})
	}

	w := httptest.NewRecorder()
	handler.ValidatePhone(w, httptest.NewRequest(http.MethodGet, "/api/sms/validate", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
