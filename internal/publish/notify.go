package publish

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	"admission-intake/internal/models"
)

const EventApplicationReceived = "application.received"

// SNSService is the subset of the SNS client the notifier needs.
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SESService is the subset of the SES client the notifier needs.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type applicationEvent struct {
	Event         string `json:"event"`
	ApplicationID string `json:"applicationId"`
	Course        string `json:"course"`
	StartPeriod   string `json:"startYearMonth"`
	CreatedAt     string `json:"createdAt"`
}

// TopicNotifier announces each stored application on an SNS topic.
type TopicNotifier struct {
	client   SNSService
	topicARN string
}

func NewTopicNotifier(client SNSService, topicARN string) *TopicNotifier {
	return &TopicNotifier{client: client, topicARN: topicARN}
}

func (n *TopicNotifier) Name() string { return "sns-topic" }

func (n *TopicNotifier) Publish(ctx context.Context, app *models.StoredApplication) error {
	msg, err := json.Marshal(applicationEvent{
		Event:         EventApplicationReceived,
		ApplicationID: app.ApplicationID,
		Course:        app.Course,
		StartPeriod:   app.StartPeriod,
		CreatedAt:     app.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	_, err = n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String("Application received"),
		Message:  aws.String(string(msg)),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"course": {DataType: aws.String("String"), StringValue: aws.String(app.Course)},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish %s: %w", app.ApplicationID, err)
	}
	return nil
}

// EmailNotifier mails the admissions office a summary of each application.
type EmailNotifier struct {
	client SESService
	from   string
	to     string
}

func NewEmailNotifier(client SESService, from, to string) *EmailNotifier {
	return &EmailNotifier{client: client, from: from, to: to}
}

func (n *EmailNotifier) Name() string { return "ses-email" }

func (n *EmailNotifier) Publish(ctx context.Context, app *models.StoredApplication) error {
	subject := fmt.Sprintf("New application %s: %s", app.ApplicationID, app.Course)
	body := fmt.Sprintf("Application number: %s\nName: %s\nAddress: %s\nQualifications: %s\nCourse: %s\nIntended start: %s\nReceived: %s\n",
		app.ApplicationID, app.Name, app.Address, app.Qualifications, app.Course, app.StartPeriod, app.CreatedAt)

	_, err := n.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &sestypes.Destination{
			ToAddresses: []string{n.to},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.from),
	})
	if err != nil {
		return fmt.Errorf("ses send %s: %w", app.ApplicationID, err)
	}
	return nil
}
