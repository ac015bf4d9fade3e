package handlers

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/cardforge/cardforge/pkg/api/middleware"
	"github.com/cardforge/cardforge/pkg/api/models"
	"github.com/cardforge/cardforge/pkg/api/response"
	"github.com/cardforge/cardforge/pkg/logger"
	"github.com/cardforge/cardforge/pkg/sms"
)

// Messenger is the SMS gateway as seen by the HTTP layer.
type Messenger interface {
	Send(ctx context.Context, to, body string) (*sms.Receipt, error)
	SendGiftLink(ctx context.Context, to string, link sms.GiftLink) (*sms.Receipt, error)
	SendGroupNotification(ctx context.Context, recipients []string, n sms.GroupNotification) ([]sms.GroupResult, error)
	SendViewerInvitation(ctx context.Context, to, inviterName, cardURL string) (*sms.Receipt, error)
	SendVerificationCode(ctx context.Context, to, code string) (string, *sms.Receipt, error)
}

var _ Messenger = (*sms.Gateway)(nil)

// SMSHandler handles SMS endpoints.
type SMSHandler struct {
	messenger Messenger
	logger    logger.Logger
	validator *validator.Validate
}

// NewSMSHandler creates a new SMS handler.
func NewSMSHandler(m Messenger, log logger.Logger) *SMSHandler {
	return &SMSHandler{
		messenger: m,
		logger:    log,
		validator: newValidator(),
	}
}

// Send handles POST /api/sms/send
func (h *SMSHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req models.SendSMSRequest
	if !decodeJSON(w, r, h.validator, h.logger, &req) {
		return
	}
	receipt, err := h.messenger.Send(r.Context(), req.To, req.Body)
	h.writeReceipt(w, r, receipt, err)
}

// GiftLink handles POST /api/sms/gift-link
func (h *SMSHandler) GiftLink(w http.ResponseWriter, r *http.Request) {
	var req models.GiftLinkRequest
	if !decodeJSON(w, r, h.validator, h.logger, &req) {
		return
	}
	receipt, err := h.messenger.SendGiftLink(r.Context(), req.To, req.Link())
	h.writeReceipt(w, r, receipt, err)
}

// Invitation handles POST /api/sms/invitation
func (h *SMSHandler) Invitation(w http.ResponseWriter, r *http.Request) {
	var req models.InvitationRequest
	if !decodeJSON(w, r, h.validator, h.logger, &req) {
		return
	}
	receipt, err := h.messenger.SendViewerInvitation(r.Context(), req.To, req.InviterName, req.CardURL)
	h.writeReceipt(w, r, receipt, err)
}

// VerificationCode handles POST /api/sms/verification-code
func (h *SMSHandler) VerificationCode(w http.ResponseWriter, r *http.Request) {
	var req models.VerificationCodeRequest
	if !decodeJSON(w, r, h.validator, h.logger, &req) {
		return
	}

	ctx := r.Context()
	code, receipt, err := h.messenger.SendVerificationCode(ctx, req.To, req.Code)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := models.VerificationResponse{Receipt: receipt}
	// Nothing was delivered, so the caller gets the code directly.
	if receipt.Mock {
		resp.Code = code
	}
	response.JSON(w, http.StatusOK, resp)
}

// GroupNotification handles POST /api/sms/group-notification
func (h *SMSHandler) GroupNotification(w http.ResponseWriter, r *http.Request) {
	var req models.GroupNotificationRequest
	if !decodeJSON(w, r, h.validator, h.logger, &req) {
		return
	}

	results, err := h.messenger.SendGroupNotification(r.Context(), req.Recipients, req.Notification())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := models.GroupResponse{Results: results}
	for _, res := range results {
		if res.Error != "" {
			resp.Failed++
			continue
		}
		resp.Sent++
	}
	response.JSON(w, http.StatusOK, resp)
}

// ValidatePhone handles GET /api/sms/validate?phone=
func (h *SMSHandler) ValidatePhone(w http.ResponseWriter, r *http.Request) {
	phone := r.URL.Query().Get("phone")
	if phone == "" {
		response.ValidationError(w, "Missing or invalid fields: phone", []string{"phone"}, middleware.GetRequestID(r.Context()))
		return
	}

	normalized := sms.Normalize(phone)
	response.JSON(w, http.StatusOK, models.ValidatePhoneResponse{
		Input:      phone,
		Normalized: normalized,
		Valid:      sms.IsValid(normalized),
	})
}

func (h *SMSHandler) writeReceipt(w http.ResponseWriter, r *http.Request, receipt *sms.Receipt, err error) {
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, models.ReceiptResponse{Receipt: receipt})
}

func (h *SMSHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	status := response.HTTPStatusFromError(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, "SMS send failed", "error", err)
	} else {
		h.logger.WarnContext(ctx, "SMS send rejected", "error", err)
	}
	response.Error(w, status, err.Error(), middleware.GetRequestID(ctx))
}
