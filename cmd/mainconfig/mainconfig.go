package mainconfig

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/systemsmatic/backend/internal/config"
	"github.com/systemsmatic/backend/internal/mailer"
	"github.com/systemsmatic/backend/pkg/logging"
)

// LoadAWSConfig centralizes AWS SDK initialization so both binaries share the
// same LocalStack/production wiring.
func LoadAWSConfig(ctx context.Context, cfg *appconfig.Config) (aws.Config, error) {
	loaders := []func(*config.LoadOptions) error{config.WithRegion(cfg.AWSRegion)}
	if strings.TrimSpace(cfg.AWSAccessKeyID) != "" && strings.TrimSpace(cfg.AWSSecretAccessKey) != "" {
		loaders = append(loaders, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return aws.Config{}, err
	}

	if endpoint := cfg.AWSEndpointOverride; endpoint != "" {
		awsCfg.EndpointResolverWithOptions = aws.EndpointResolverWithOptionsFunc(
			func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
				switch service {
				case sesv2.ServiceID:
					return aws.Endpoint{
						URL:           endpoint,
						PartitionID:   "aws",
						SigningRegion: cfg.AWSRegion,
					}, nil
				default:
					return aws.Endpoint{}, &aws.EndpointNotFoundError{}
				}
			},
		)
	}

	return awsCfg, nil
}

// NewEmailSender builds the outbound email sender selected by
// cfg.EmailProvider and wraps it with retries. Unknown providers and missing
// credentials fall back to the stub sender so the app still boots locally.
func NewEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (mailer.EmailSender, error) {
	var sender mailer.EmailSender

	switch cfg.EmailProvider {
	case "ses":
		awsCfg, err := LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		sender = mailer.NewSESSender(sesv2.NewFromConfig(awsCfg), mailer.SESConfig{
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
		}, logger)
	case "sendgrid":
		sender = mailer.NewSendGridSender(mailer.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
		}, logger)
	case "smtp":
		sender = mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:      cfg.SMTPHost,
			Port:      cfg.SMTPPort,
			Username:  cfg.SMTPUsername,
			Password:  cfg.SMTPPassword,
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
		}, logger)
	}

	// Concrete constructors return a typed nil when unconfigured; compare
	// through the interface carefully.
	if sender == nil || isNil(sender) {
		logger.Warn("email provider not configured, using stub sender", "provider", cfg.EmailProvider)
		return mailer.NewStubSender(logger), nil
	}
	return mailer.NewRetrySender(sender, cfg.EmailRetryMax, logger), nil
}

func isNil(sender mailer.EmailSender) bool {
	switch s := sender.(type) {
	case *mailer.SESSender:
		return s == nil
	case *mailer.SendGridSender:
		return s == nil
	case *mailer.SMTPSender:
		return s == nil
	}
	return false
}
