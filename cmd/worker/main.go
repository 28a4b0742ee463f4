package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"greenintellect-backend/internal/bootstrap"
	"greenintellect-backend/internal/queue"
	"greenintellect-backend/internal/shared/config"
	"greenintellect-backend/internal/shared/metrics"
	"greenintellect-backend/internal/shared/storage/db"
	"greenintellect-backend/internal/shared/telemetry"
	"greenintellect-backend/internal/workerproc"
)

const (
	defaultRegion             = "us-east-1"
	defaultVisibilitySeconds  = 900
	defaultWorkerConcurrency  = 2
	defaultShutdownTimeoutSec = 30
)

func main() {
	cfg := config.Load()
	if cfg.QueueURL == "" {
		log.Fatal("GI_SQS_QUEUE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	visibilitySeconds := envInt("GI_SQS_VISIBILITY_TIMEOUT_SECONDS", defaultVisibilitySeconds)
	concurrency := envInt("GI_WORKER_CONCURRENCY", defaultWorkerConcurrency)
	shutdownTimeout := time.Duration(envInt("GI_SHUTDOWN_TIMEOUT_SECONDS", defaultShutdownTimeoutSec)) * time.Second

	region := cfg.AWSRegion
	if region == "" {
		region = defaultRegion
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}
	var sqsClient sqsAPI = sqs.NewFromConfig(awsCfg)

	app, err := bootstrap.Build(ctx, cfg, bootstrap.Options{
		DBOptions:  db.DefaultWorkerOptions(concurrency),
		SkipRouter: true,
	})
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	defer app.Close()

	sem := make(chan struct{}, max(1, concurrency))
	var wg sync.WaitGroup

	telemetry.Info("worker.started", map[string]any{
		"queue":       cfg.QueueURL,
		"concurrency": concurrency,
		"visibility":  visibilitySeconds,
	})

pollLoop:
	for {
		select {
		case <-ctx.Done():
			break pollLoop
		default:
		}

		resp, err := sqsClient.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(cfg.QueueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
			VisibilityTimeout:   int32(visibilitySeconds),
			AttributeNames:      []sqstypes.QueueAttributeName{sqstypes.QueueAttributeName("ApproximateReceiveCount")},
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				break pollLoop
			}
			telemetry.Error("worker.receive_failed", map[string]any{"error": err.Error()})
			continue
		}

		for _, msg := range resp.Messages {
			select {
			case <-ctx.Done():
				break pollLoop
			case sem <- struct{}{}:
			}
			metrics.IncWorkerJob("received")
			wg.Add(1)
			go func(m sqstypes.Message) {
				defer wg.Done()
				defer func() { <-sem }()
				handleMessage(ctx, sqsClient, cfg.QueueURL, app.Processor, m)
			}(msg)
		}
	}

	telemetry.Info("worker.shutdown", map[string]any{"timeout": shutdownTimeout.String()})
	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(shutdownTimeout):
		telemetry.Warn("worker.shutdown_timeout", map[string]any{"timeout": shutdownTimeout.String()})
	}
}

type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// handleMessage runs one upload job. Successful and unrecoverable messages are
// deleted; processing failures stay on the queue for redelivery.
func handleMessage(ctx context.Context, client sqsAPI, queueURL string, processor queue.Processor, msg sqstypes.Message) {
	body := aws.ToString(msg.Body)
	decoded, err := workerproc.HandleMessage(ctx, processor, body)
	if err != nil {
		fields := baseFields(msg, decoded.UploadID, decoded.RequestID)
		var msgErr *workerproc.MessageError
		if errors.As(err, &msgErr) {
			for k, v := range msgErr.Fields() {
				fields[k] = v
			}
		}
		fields["error"] = err.Error()
		if workerproc.Unrecoverable(err) {
			telemetry.Error("worker.upload.dropped", fields)
			if deleteMessage(ctx, client, queueURL, msg, decoded.UploadID, decoded.RequestID) {
				metrics.IncWorkerJob("dropped")
			}
			return
		}
		telemetry.Error("worker.upload.failed", fields)
		metrics.IncWorkerJob("failed")
		return
	}

	if deleteMessage(ctx, client, queueURL, msg, decoded.UploadID, decoded.RequestID) {
		telemetry.Info("worker.upload.completed", baseFields(msg, decoded.UploadID, decoded.RequestID))
		metrics.IncWorkerJob("completed")
	}
}

func deleteMessage(ctx context.Context, client sqsAPI, queueURL string, msg sqstypes.Message, uploadID, requestID string) bool {
	receipt := aws.ToString(msg.ReceiptHandle)
	if receipt == "" {
		fields := baseFields(msg, uploadID, requestID)
		fields["error"] = "missing receipt handle"
		telemetry.Error("worker.upload.delete_failed", fields)
		return false
	}
	if _, err := client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(receipt),
	}); err != nil {
		fields := baseFields(msg, uploadID, requestID)
		fields["error"] = err.Error()
		telemetry.Error("worker.upload.delete_failed", fields)
		return false
	}
	return true
}

func baseFields(msg sqstypes.Message, uploadID, requestID string) map[string]any {
	fields := map[string]any{
		"upload_id":      uploadID,
		"sqs_message_id": aws.ToString(msg.MessageId),
		"receive_count":  receiveCount(msg),
	}
	if strings.TrimSpace(requestID) != "" {
		fields["request_id"] = requestID
	}
	return fields
}

func receiveCount(msg sqstypes.Message) int {
	raw := msg.Attributes["ApproximateReceiveCount"]
	if raw == "" {
		return 0
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return parsed
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}
