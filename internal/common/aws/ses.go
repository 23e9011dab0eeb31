package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/ses"
)

// SESClient sends admissions office emails.
type SESClient struct {
	client *ses.Client
}

func (s *Session) SES() *SESClient {
	return &SESClient{client: ses.NewFromConfig(s.cfg)}
}

func (c *SESClient) SendEmail(ctx context.Context, input *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return c.client.SendEmail(ctx, input, optFns...)
}
