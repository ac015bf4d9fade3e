// Package sms is the messaging gateway: phone number normalisation,
// provider selection, per-destination rate limiting and the card
// notification messages built on top of a single Send.
package sms

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/cardforge/cardforge/pkg/logger"
	"github.com/cardforge/cardforge/pkg/ratelimit"
)

var (
	// ErrInvalidNumber is returned when a number fails IsValid after normalisation.
	ErrInvalidNumber = errors.New("invalid phone number")
	// ErrEmptyBody is returned for blank messages.
	ErrEmptyBody = errors.New("message body is empty")
	// ErrRateLimited is returned when the destination has exceeded its send budget.
	ErrRateLimited = errors.New("sms rate limit exceeded")
	// ErrNoRecipients is returned by group sends without recipients.
	ErrNoRecipients = errors.New("no recipients")
)

// maxGroupFanout bounds concurrent sends in SendGroupNotification.
const maxGroupFanout = 4

// MetricsRecorder receives send outcomes.
type MetricsRecorder interface {
	RecordSMS(provider, outcome string)
	RecordSMSRateLimited()
}

type nopMetrics struct{}

func (nopMetrics) RecordSMS(string, string) {}
func (nopMetrics) RecordSMSRateLimited()    {}

// Gateway sends SMS through a Provider.
type Gateway struct {
	provider Provider
	limiter  ratelimit.Limiter
	appURL   string
	log      logger.Logger
	metrics  MetricsRecorder
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLimiter enables per-destination rate limiting.
func WithLimiter(l ratelimit.Limiter) Option {
	return func(g *Gateway) {
		if l != nil {
			g.limiter = l
		}
	}
}

// WithAppURL sets the base used to absolutise relative card links.
func WithAppURL(u string) Option {
	return func(g *Gateway) {
		g.appURL = strings.TrimRight(u, "/")
	}
}

// WithLogger sets the gateway logger.
func WithLogger(l logger.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.log = l
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(g *Gateway) {
		if m != nil {
			g.metrics = m
		}
	}
}

// NewGateway creates a gateway around provider.
func NewGateway(provider Provider, opts ...Option) *Gateway {
	g := &Gateway{
		provider: provider,
		limiter:  ratelimit.Unlimited{},
		log:      logger.NewNop(),
		metrics:  nopMetrics{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ProviderName returns the active provider's name.
func (g *Gateway) ProviderName() string {
	return g.provider.Name()
}

// Send normalises to, applies the rate limit and delivers body.
func (g *Gateway) Send(ctx context.Context, to, body string) (*Receipt, error) {
	number := Normalize(to)
	if !IsValid(number) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidNumber, to)
	}
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyBody
	}

	allowed, err := g.limiter.Allow(ctx, number)
	if err != nil {
		// Fail open when the limiter backend is down.
		g.log.WarnContext(ctx, "sms rate limiter unavailable", "error", err)
		allowed = true
	}
	if !allowed {
		g.metrics.RecordSMSRateLimited()
		g.log.WarnContext(ctx, "sms rate limited", "to", mask(number))
		return nil, fmt.Errorf("%w for %s", ErrRateLimited, mask(number))
	}

	receipt, err := g.provider.Send(ctx, number, body)
	if err != nil {
		g.metrics.RecordSMS(g.provider.Name(), "failed")
		g.log.ErrorContext(ctx, "sms send failed",
			"provider", g.provider.Name(),
			"to", mask(number),
			"error", err,
		)
		return nil, err
	}

	g.metrics.RecordSMS(g.provider.Name(), "sent")
	g.log.InfoContext(ctx, "sms sent",
		"provider", g.provider.Name(),
		"to", mask(number),
		"id", receipt.ID,
		"status", receipt.Status,
	)
	return receipt, nil
}

// GiftLink is the content of a card-with-gift message.
type GiftLink struct {
	SenderName string
	CardURL    string
	Occasion   string
	// Optional gift card details.
	MerchantName string
	Amount       float64
}

// SendGiftLink tells a recipient a card (and optionally a gift card) is waiting.
func (g *Gateway) SendGiftLink(ctx context.Context, to string, link GiftLink) (*Receipt, error) {
	sender := orDefault(link.SenderName, "Someone")
	var b strings.Builder
	if link.Occasion != "" {
		fmt.Fprintf(&b, "%s sent you a %s card!", sender, link.Occasion)
	} else {
		fmt.Fprintf(&b, "%s sent you a card!", sender)
	}
	if link.MerchantName != "" && link.Amount > 0 {
		fmt.Fprintf(&b, " It includes a $%.2f %s gift card.", link.Amount, link.MerchantName)
	}
	fmt.Fprintf(&b, " Open it here: %s", g.absoluteURL(link.CardURL))
	return g.Send(ctx, to, b.String())
}

// GroupNotification asks contributors to sign a group card.
type GroupNotification struct {
	OrganizerName string
	RecipientName string
	CardURL       string
}

// GroupResult is the outcome for one recipient of a group send.
type GroupResult struct {
	To      string   `json:"to"`
	Receipt *Receipt `json:"receipt,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// SendGroupNotification fans a group-card invitation out to every
// recipient. Individual failures are reported per recipient; the
// returned error is non-nil only when there is nobody to send to.
func (g *Gateway) SendGroupNotification(ctx context.Context, recipients []string, n GroupNotification) ([]GroupResult, error) {
	if len(recipients) == 0 {
		return nil, ErrNoRecipients
	}

	body := fmt.Sprintf("%s invited you to sign a group card for %s. Add your message: %s",
		orDefault(n.OrganizerName, "A friend"),
		orDefault(n.RecipientName, "someone special"),
		g.absoluteURL(n.CardURL),
	)

	results := make([]GroupResult, len(recipients))
	sem := make(chan struct{}, maxGroupFanout)
	var wg sync.WaitGroup
	for i, to := range recipients {
		wg.Add(1)
		go func(i int, to string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[i].To = to
			receipt, err := g.Send(ctx, to, body)
			if err != nil {
				results[i].Error = err.Error()
				return
			}
			results[i].Receipt = receipt
		}(i, to)
	}
	wg.Wait()
	return results, nil
}

// SendViewerInvitation invites someone to view a finished card.
func (g *Gateway) SendViewerInvitation(ctx context.Context, to, inviterName, cardURL string) (*Receipt, error) {
	body := fmt.Sprintf("%s shared a card with you. View it here: %s",
		orDefault(inviterName, "A friend"), g.absoluteURL(cardURL))
	return g.Send(ctx, to, body)
}

// SendVerificationCode sends a one-time code, generating a six digit one
// when code is empty. The code actually sent is returned.
func (g *Gateway) SendVerificationCode(ctx context.Context, to, code string) (string, *Receipt, error) {
	if code == "" {
		var err error
		if code, err = newVerificationCode(); err != nil {
			return "", nil, fmt.Errorf("generate verification code: %w", err)
		}
	}
	body := fmt.Sprintf("Your cardforge verification code is %s. It expires in 10 minutes.", code)
	receipt, err := g.Send(ctx, to, body)
	if err != nil {
		return "", nil, err
	}
	return code, receipt, nil
}

func (g *Gateway) absoluteURL(u string) string {
	if strings.HasPrefix(u, "/") && g.appURL != "" {
		return g.appURL + u
	}
	if u == "" {
		return g.appURL
	}
	return u
}

func newVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// mask hides all but the last four digits in logs.
func mask(number string) string {
	if len(number) <= 4 {
		return number
	}
	return strings.Repeat("*", len(number)-4) + number[len(number)-4:]
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
