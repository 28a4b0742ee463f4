package queue

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

const defaultRegion = "us-east-1"

type sqsSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSClient sends queue messages to AWS SQS.
type SQSClient struct {
	client   sqsSender
	queueURL string
}

// NewSQSClient constructs an SQS-backed queue client.
func NewSQSClient(ctx context.Context, region, queueURL string) (*SQSClient, error) {
	queueURL = strings.TrimSpace(queueURL)
	if queueURL == "" {
		return nil, fmt.Errorf("GI_SQS_QUEUE_URL is required")
	}
	region = strings.TrimSpace(region)
	if region == "" {
		region = defaultRegion
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &SQSClient{
		client:   sqs.NewFromConfig(cfg),
		queueURL: queueURL,
	}, nil
}

// Send delivers a message to the configured SQS queue. On FIFO queues the
// upload id is the message group and upload id plus version deduplicates
// repeated approvals of the same row version.
func (s *SQSClient) Send(ctx context.Context, msg Message) error {
	payload, err := EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode sqs message: %w", err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:          aws.String(s.queueURL),
		MessageBody:       aws.String(string(payload)),
		MessageAttributes: messageAttributes(msg),
	}
	if strings.HasSuffix(s.queueURL, ".fifo") {
		input.MessageGroupId = aws.String(msg.UploadID)
		input.MessageDeduplicationId = aws.String(fmt.Sprintf("%s-%d", msg.UploadID, msg.Version))
	}
	if _, err = s.client.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("sqs send message: %w", err)
	}
	return nil
}

func messageAttributes(msg Message) map[string]sqstypes.MessageAttributeValue {
	attrs := map[string]sqstypes.MessageAttributeValue{
		"uploadId": {DataType: aws.String("String"), StringValue: aws.String(msg.UploadID)},
	}
	if msg.RequestID != "" {
		attrs["requestId"] = sqstypes.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(msg.RequestID)}
	}
	return attrs
}

var _ Client = (*SQSClient)(nil)
