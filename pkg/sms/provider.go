package sms

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cardforge/cardforge/pkg/logger"
	"github.com/google/uuid"
)

// Provider names.
const (
	ProviderTwilio = "twilio"
	ProviderSNS    = "sns"
	ProviderMock   = "mock"
)

// Receipt describes one accepted message.
type Receipt struct {
	ID       string    `json:"id"`
	To       string    `json:"to"`
	Status   string    `json:"status"`
	Provider string    `json:"provider"`
	Mock     bool      `json:"mock"`
	SentAt   time.Time `json:"sent_at"`
}

// Provider delivers a single SMS. to is already normalised and valid.
type Provider interface {
	Name() string
	Send(ctx context.Context, to, body string) (*Receipt, error)
}

// placeholderPrefixes mark credentials copied from sample env files.
var placeholderPrefixes = []string{"test", "your_", "sandbox", "mock"}

// IsPlaceholder reports whether a credential is empty or a recognisable
// sample/test value.
func IsPlaceholder(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return true
	}
	for _, p := range placeholderPrefixes {
		if strings.HasPrefix(v, p) {
			return true
		}
	}
	return false
}

// ProviderConfig selects and configures a Provider.
type ProviderConfig struct {
	Provider string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	SNSRegion   string
	SNSSenderID string
}

// NewProvider builds the configured provider. Twilio falls back to the
// mock provider when its credentials are absent or placeholders.
func NewProvider(ctx context.Context, cfg ProviderConfig, log logger.Logger) (Provider, error) {
	if log == nil {
		log = logger.NewNop()
	}
	switch strings.ToLower(cfg.Provider) {
	case ProviderMock:
		return NewMockProvider(log), nil
	case ProviderSNS:
		p, err := NewSNSProvider(ctx, cfg.SNSRegion, cfg.SNSSenderID)
		if err != nil {
			return nil, fmt.Errorf("create sns provider: %w", err)
		}
		return p, nil
	case ProviderTwilio, "":
		if IsPlaceholder(cfg.TwilioAccountSID) || IsPlaceholder(cfg.TwilioAuthToken) || IsPlaceholder(cfg.TwilioFromNumber) {
			log.Warn("twilio credentials missing or placeholder, sms will only be logged")
			return NewMockProvider(log), nil
		}
		return NewTwilioProvider(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber), nil
	default:
		return nil, fmt.Errorf("unknown sms provider %q", cfg.Provider)
	}
}

// MockProvider logs messages instead of sending them.
type MockProvider struct {
	log     logger.Logger
	capture bool

	mu   sync.Mutex
	sent []SentMessage
}

// SentMessage is a message captured by MockProvider.
type SentMessage struct {
	To   string
	Body string
}

// MockOption configures a MockProvider.
type MockOption func(*MockProvider)

// WithCapture keeps every sent message for inspection through Sent.
// Without it the provider only logs.
func WithCapture() MockOption {
	return func(p *MockProvider) { p.capture = true }
}

// NewMockProvider creates a logging provider.
func NewMockProvider(log logger.Logger, opts ...MockOption) *MockProvider {
	if log == nil {
		log = logger.NewNop()
	}
	p := &MockProvider{log: log}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns "mock".
func (p *MockProvider) Name() string { return ProviderMock }

// Send logs the message and reports it as delivered.
func (p *MockProvider) Send(ctx context.Context, to, body string) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.capture {
		p.mu.Lock()
		p.sent = append(p.sent, SentMessage{To: to, Body: body})
		p.mu.Unlock()
	}

	p.log.InfoContext(ctx, "mock sms", "to", to, "body", body)
	return &Receipt{
		ID:       "mock_" + uuid.NewString(),
		To:       to,
		Status:   "delivered",
		Provider: ProviderMock,
		Mock:     true,
		SentAt:   time.Now().UTC(),
	}, nil
}

// Sent returns a copy of the captured messages.
func (p *MockProvider) Sent() []SentMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]SentMessage(nil), p.sent...)
}
