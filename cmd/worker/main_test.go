package main

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"greenintellect-backend/internal/queue"
)

type fakeSQS struct {
	deleted []string
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	return &sqs.ReceiveMessageOutput{}, nil
}

func (f *fakeSQS) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(params.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

type fakeProcessor struct {
	err  error
	seen []string
}

func (f *fakeProcessor) Process(ctx context.Context, uploadID string) error {
	f.seen = append(f.seen, uploadID+"|"+queue.RequestIDFromContext(ctx))
	return f.err
}

func sqsMessage(t *testing.T, id, body string) sqstypes.Message {
	t.Helper()
	return sqstypes.Message{
		MessageId:     aws.String(id),
		ReceiptHandle: aws.String("receipt-" + id),
		Body:          aws.String(body),
		Attributes:    map[string]string{"ApproximateReceiveCount": "1"},
	}
}

func encoded(t *testing.T, msg queue.Message) string {
	t.Helper()
	body, err := queue.EncodeMessage(msg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return string(body)
}

func TestWorkerDeletesMessageOnSuccess(t *testing.T) {
	client := &fakeSQS{}
	proc := &fakeProcessor{}
	msg := sqsMessage(t, "m1", encoded(t, queue.Message{UploadID: "upload-1", RequestID: "req-1", Version: 2}))

	handleMessage(context.Background(), client, "queue", proc, msg)

	if len(client.deleted) != 1 || client.deleted[0] != "receipt-m1" {
		t.Fatalf("expected delete of receipt-m1, got %v", client.deleted)
	}
	if len(proc.seen) != 1 || proc.seen[0] != "upload-1|req-1" {
		t.Fatalf("expected processor call with request id, got %v", proc.seen)
	}
}

func TestWorkerDoesNotDeleteOnFailure(t *testing.T) {
	client := &fakeSQS{}
	proc := &fakeProcessor{err: errors.New("boom")}
	msg := sqsMessage(t, "m2", encoded(t, queue.Message{UploadID: "upload-2", RequestID: "req-2"}))

	handleMessage(context.Background(), client, "queue", proc, msg)

	if len(client.deleted) != 0 {
		t.Fatalf("expected no delete, got %v", client.deleted)
	}
}

func TestWorkerDropsUnrecoverableMessages(t *testing.T) {
	cases := map[string]string{
		"invalid json":   "{bad-json",
		"empty body":     "   ",
		"missing upload": `{"requestId":"req-3"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			client := &fakeSQS{}
			proc := &fakeProcessor{}

			handleMessage(context.Background(), client, "queue", proc, sqsMessage(t, "m3", body))

			if len(client.deleted) != 1 {
				t.Fatalf("expected delete, got %v", client.deleted)
			}
			if len(proc.seen) != 0 {
				t.Fatalf("processor should not run, got %v", proc.seen)
			}
		})
	}
}

func TestReceiveCount(t *testing.T) {
	if got := receiveCount(sqstypes.Message{}); got != 0 {
		t.Fatalf("expected 0 without attributes, got %d", got)
	}
	msg := sqstypes.Message{Attributes: map[string]string{"ApproximateReceiveCount": "4"}}
	if got := receiveCount(msg); got != 4 {
		t.Fatalf("expected 4, got %d", got)
	}
}
