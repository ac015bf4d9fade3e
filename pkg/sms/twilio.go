package sms

import (
	"context"
	"fmt"
	"time"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// twilioMessenger is the slice of the Twilio REST API the provider uses.
type twilioMessenger interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioProvider sends through the Twilio Messages API.
type TwilioProvider struct {
	api  twilioMessenger
	from string
}

// NewTwilioProvider creates a provider for the given account.
func NewTwilioProvider(accountSID, authToken, from string) *TwilioProvider {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioProvider{api: client.Api, from: from}
}

// Name returns "twilio".
func (p *TwilioProvider) Name() string { return ProviderTwilio }

// Send creates one message. The Twilio client has no context support, so
// ctx is only checked before the call.
func (p *TwilioProvider) Send(ctx context.Context, to, body string) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(p.from)
	params.SetBody(body)

	resp, err := p.api.CreateMessage(params)
	if err != nil {
		return nil, fmt.Errorf("twilio create message: %w", err)
	}

	r := &Receipt{
		To:       to,
		Status:   "queued",
		Provider: ProviderTwilio,
		SentAt:   time.Now().UTC(),
	}
	if resp.Sid != nil {
		r.ID = *resp.Sid
	}
	if resp.Status != nil {
		r.Status = *resp.Status
	}
	return r, nil
}
