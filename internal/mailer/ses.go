package mailer

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	awsclient "letting-compliance/internal/common/aws"
	"letting-compliance/internal/common/logger"
)

type SESClient = awsclient.SESAPI

type SESMailer struct {
	client SESClient
	from   string
	logger logger.Logger
}

func NewSESMailer(client SESClient, from string, log logger.Logger) *SESMailer {
	return &SESMailer{client: client, from: from, logger: log}
}

func (m *SESMailer) Provider() string { return ProviderSES }

func (m *SESMailer) Send(ctx context.Context, msg Message) Result {
	if res, ok := validate(msg); !ok {
		return res
	}

	out, err := m.client.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(m.from),
		Destination: &types.Destination{
			ToAddresses: msg.To,
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")},
			},
		},
	})
	if err != nil {
		m.logger.Error("ses send failed", map[string]interface{}{"error": err, "subject": msg.Subject})
		return failed(err.Error())
	}

	return Result{Success: true, ID: aws.ToString(out.MessageId)}
}
