package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"greenintellect-backend/internal/shared/telemetry"
)

const defaultLocalJobTimeout = 5 * time.Minute

// LocalClient runs jobs in-process on a goroutine. It is used when no SQS
// queue is configured.
type LocalClient struct {
	processor Processor
	timeout   time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewLocalClient returns a client that hands messages to processor.
func NewLocalClient(processor Processor, timeout time.Duration) *LocalClient {
	if timeout <= 0 {
		timeout = defaultLocalJobTimeout
	}
	return &LocalClient{processor: processor, timeout: timeout}
}

// Send starts processing the message in the background.
func (l *LocalClient) Send(ctx context.Context, msg Message) error {
	if l.processor == nil {
		return errors.New("local queue has no processor")
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return errors.New("local queue closed")
	}
	l.wg.Add(1)
	l.mu.Unlock()

	go func() {
		defer l.wg.Done()
		jobCtx, cancel := context.WithTimeout(WithRequestID(context.Background(), msg.RequestID), l.timeout)
		defer cancel()
		if err := l.processor.Process(jobCtx, msg.UploadID); err != nil {
			telemetry.Error("queue.local.failed", map[string]any{
				"upload_id":  msg.UploadID,
				"request_id": msg.RequestID,
				"error":      err.Error(),
			})
		}
	}()
	return nil
}

// Close stops accepting jobs and waits for in-flight ones.
func (l *LocalClient) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	l.wg.Wait()
}

var _ Client = (*LocalClient)(nil)
