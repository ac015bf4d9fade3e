package sms

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNSPublisher is the slice of the SNS client the provider uses.
type SNSPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSProvider sends SMS through Amazon SNS direct publish.
type SNSProvider struct {
	client   SNSPublisher
	senderID string
}

// NewSNSProvider loads the default AWS credential chain for region.
func NewSNSProvider(ctx context.Context, region, senderID string) (*SNSProvider, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSNSProviderWithClient(sns.NewFromConfig(awsCfg), senderID), nil
}

// NewSNSProviderWithClient wraps an existing publisher.
func NewSNSProviderWithClient(client SNSPublisher, senderID string) *SNSProvider {
	return &SNSProvider{client: client, senderID: senderID}
}

// Name returns "sns".
func (p *SNSProvider) Name() string { return ProviderSNS }

// Send publishes a transactional SMS.
func (p *SNSProvider) Send(ctx context.Context, to, body string) (*Receipt, error) {
	attrs := map[string]types.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {
			DataType:    aws.String("String"),
			StringValue: aws.String("Transactional"),
		},
	}
	if p.senderID != "" {
		attrs["AWS.SNS.SMS.SenderID"] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(p.senderID),
		}
	}

	out, err := p.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(to),
		Message:           aws.String(body),
		MessageAttributes: attrs,
	})
	if err != nil {
		return nil, fmt.Errorf("sns publish: %w", err)
	}

	return &Receipt{
		ID:       aws.ToString(out.MessageId),
		To:       to,
		Status:   "sent",
		Provider: ProviderSNS,
		SentAt:   time.Now().UTC(),
	}, nil
}
