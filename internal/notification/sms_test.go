package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "letting-compliance/internal/common/errors"
)

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

func TestSNSSender_SendSMS(t *testing.T) {
	var captured *sns.PublishInput
	client := &MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			captured = params
			return &sns.PublishOutput{MessageId: aws.String("sns-42")}, nil
		},
	}

	id, err := NewSNSSender(client, "LETCOMPLY").SendSMS(context.Background(), "+447700900001", "Gas Safety certificate expires in 2 days")
	require.NoError(t, err)
	assert.Equal(t, "sns-42", id)
	assert.Equal(t, "+447700900001", aws.ToString(captured.PhoneNumber))
	assert.Equal(t, "LETCOMPLY", aws.ToString(captured.MessageAttributes["AWS.SNS.SMS.SenderID"].StringValue))
	assert.Equal(t, "Transactional", aws.ToString(captured.MessageAttributes["AWS.SNS.SMS.SMSType"].StringValue))
}

func TestSNSSender_Failure(t *testing.T) {
	client := &MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			return nil, errors.New("throttled")
		},
	}

	_, err := NewSNSSender(client, "").SendSMS(context.Background(), "+447700900001", "x")
	assert.Equal(t, apperrors.ErrCodeSMSDeliveryFailed, apperrors.CodeOf(err))
}
