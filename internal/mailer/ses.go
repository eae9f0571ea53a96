package mailer

import (
	"context"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/goalline/academy-server/internal/config"
)

// SESTransport sends mail through AWS SES v2 using raw MIME content, so the
// same message builder (including inline logo parts) serves both transports.
type SESTransport struct {
	client *sesv2.Client
}

// NewSESTransport creates a SES transport. The mail user/password pair is
// reused as the AWS access key / secret key when set; otherwise the default
// credential chain applies (IAM role in-cluster).
func NewSESTransport(ctx context.Context, cfg config.MailConfig) (*SESTransport, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.SESRegion),
	}
	if cfg.User != "" && cfg.Password != "" && !strings.Contains(cfg.User, "@") {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.User, cfg.Password, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SESTransport{client: sesv2.NewFromConfig(awsCfg)}, nil
}

// Send delivers a single message via SES.
func (t *SESTransport) Send(ctx context.Context, msg Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	_, err = t.client.SendEmail(ctx, &sesv2.SendEmailInput{
		Content: &types.EmailContent{
			Raw: &types.RawMessage{Data: data},
		},
	})
	if err != nil {
		return classifySESError(err)
	}
	return nil
}

func classifySESError(err error) error {
	s := err.Error()
	switch {
	case strings.Contains(s, "InvalidSignature") || strings.Contains(s, "UnrecognizedClient") ||
		strings.Contains(s, "AccessDenied") || strings.Contains(s, "credentials"):
		return fmt.Errorf("%w: %v", ErrAuth, err)
	case strings.Contains(s, "no such host") || strings.Contains(s, "connection refused") ||
		strings.Contains(s, "dial tcp") || strings.Contains(s, "timeout"):
		return fmt.Errorf("%w: %v", ErrConnection, err)
	default:
		return err
	}
}
