package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=amd64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-worker

import (
	"context"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"greenintellect-backend/internal/bootstrap"
	"greenintellect-backend/internal/queue"
	"greenintellect-backend/internal/shared/config"
	"greenintellect-backend/internal/shared/metrics"
	"greenintellect-backend/internal/shared/storage/db"
	"greenintellect-backend/internal/shared/telemetry"
	"greenintellect-backend/internal/workerproc"
)

var (
	initOnce sync.Once
	initErr  error
	app      *bootstrap.App
)

func initApp() {
	cfg := config.Load()
	built, err := bootstrap.Build(context.Background(), cfg, bootstrap.Options{
		DBOptions:  db.DefaultWorkerOptions(1),
		SkipRouter: true,
	})
	if err != nil {
		initErr = err
		return
	}
	app = built
}

func handler(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	initOnce.Do(initApp)
	if initErr != nil {
		telemetry.Error("lambda.worker.bootstrap_failed", map[string]any{"error": initErr.Error()})
		failures := make([]events.SQSBatchItemFailure, 0, len(event.Records))
		for _, record := range event.Records {
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
		return events.SQSEventResponse{BatchItemFailures: failures}, initErr
	}
	return processRecords(ctx, app.Processor, event.Records), nil
}

// processRecords reports processing failures for redelivery. Unrecoverable
// messages are dropped so they do not loop through the queue.
func processRecords(ctx context.Context, processor queue.Processor, records []events.SQSMessage) events.SQSEventResponse {
	failures := make([]events.SQSBatchItemFailure, 0)
	for _, record := range records {
		metrics.IncWorkerJob("received")
		msg, err := workerproc.HandleMessage(ctx, processor, record.Body)
		switch {
		case err == nil:
			metrics.IncWorkerJob("completed")
		case workerproc.Unrecoverable(err):
			metrics.IncWorkerJob("dropped")
			telemetry.Error("lambda.worker.dropped", map[string]any{
				"sqs_message_id": record.MessageId,
				"error":          err.Error(),
			})
		default:
			metrics.IncWorkerJob("failed")
			telemetry.Error("lambda.worker.failed", map[string]any{
				"sqs_message_id": record.MessageId,
				"upload_id":      msg.UploadID,
				"request_id":     msg.RequestID,
				"error":          err.Error(),
			})
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
	}
	return events.SQSEventResponse{BatchItemFailures: failures}
}

func main() {
	lambda.Start(handler)
}
