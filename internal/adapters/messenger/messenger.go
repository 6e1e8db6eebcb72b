package messenger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"eventlottery/internal/domain"
)

// SESConfig holds configuration for AWS SES.
type SESConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// Config holds configuration for creating a messenger.
type Config struct {
	Provider    string
	FromAddress string
	FromName    string
	SES         SESConfig
}

// New creates a messenger from config. Provider "ses" delivers dispatch
// records over AWS SES email; "noop" or unknown logs and drops them. Actual
// push delivery belongs to the external transport collaborator.
func New(config Config, logger *slog.Logger) (domain.Messenger, error) {
	switch config.Provider {
	case "ses":
		awsCfg := aws.Config{
			Region: config.SES.Region,
			Credentials: aws.NewCredentialsCache(
				credentials.NewStaticCredentialsProvider(
					config.SES.AccessKeyID,
					config.SES.SecretAccessKey,
					"",
				),
			),
		}
		client := ses.NewFromConfig(awsCfg)
		return &sesMessenger{
			client:      client,
			fromAddress: config.FromAddress,
			fromName:    config.FromName,
			logger:      logger,
		}, nil
	case "noop":
		return &noopMessenger{logger: logger}, nil
	default:
		logger.Warn("unknown messenger provider, using noop", "provider", config.Provider)
		return &noopMessenger{logger: logger}, nil
	}
}

type sesMessenger struct {
	client      *ses.Client
	fromAddress string
	fromName    string
	logger      *slog.Logger
}

func (m *sesMessenger) Deliver(ctx context.Context, recipient *domain.Entrant, d domain.Dispatch) error {
	if recipient.Email == "" {
		// No deliverable address in the projection; the in-app record is the
		// only channel for this entrant.
		m.logger.Info("dispatch has no address, skipping transport", "recipient_id", d.RecipientID, "type", string(d.Type))
		return nil
	}
	source := m.fromAddress
	if m.fromName != "" {
		source = fmt.Sprintf("%s <%s>", m.fromName, m.fromAddress)
	}
	input := &ses.SendEmailInput{
		Source: aws.String(source),
		Destination: &types.Destination{
			ToAddresses: []string{recipient.Email},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(d.Title),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data:    aws.String(d.Message),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}
	result, err := m.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("send via SES: %w", err)
	}
	m.logger.Info("dispatch delivered via SES", "recipient_id", d.RecipientID, "type", string(d.Type), "message_id", aws.ToString(result.MessageId))
	return nil
}

type noopMessenger struct {
	logger *slog.Logger
}

func (m *noopMessenger) Deliver(ctx context.Context, recipient *domain.Entrant, d domain.Dispatch) error {
	m.logger.Info("dispatch would be delivered (noop)", "recipient_id", d.RecipientID, "type", string(d.Type), "title", d.Title)
	return nil
}
