package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// SNSClient publishes application events to a topic.
type SNSClient struct {
	client *sns.Client
}

func (s *Session) SNS() *SNSClient {
	return &SNSClient{client: sns.NewFromConfig(s.cfg)}
}

func (c *SNSClient) Publish(ctx context.Context, input *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return c.client.Publish(ctx, input, optFns...)
}
