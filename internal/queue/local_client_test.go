package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestLocalClientRunsProcessor(t *testing.T) {
	var mu sync.Mutex
	var got []string
	var gotRequest string
	client := NewLocalClient(ProcessorFunc(func(ctx context.Context, uploadID string) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, uploadID)
		gotRequest = RequestIDFromContext(ctx)
		return nil
	}), 0)

	if err := client.Send(context.Background(), Message{UploadID: "u1", RequestID: "req-1"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	client.Close()

	if len(got) != 1 || got[0] != "u1" {
		t.Fatalf("expected processor call for u1, got %v", got)
	}
	if gotRequest != "req-1" {
		t.Fatalf("expected request id propagated, got %q", gotRequest)
	}
}

func TestLocalClientRejectsAfterClose(t *testing.T) {
	client := NewLocalClient(ProcessorFunc(func(ctx context.Context, uploadID string) error {
		return errors.New("unused")
	}), 0)
	client.Close()
	if err := client.Send(context.Background(), Message{UploadID: "u1"}); err == nil {
		t.Fatalf("expected error after close")
	}
}

func TestRequestIDHelpers(t *testing.T) {
	ctx := WithRequestID(context.Background(), "abc")
	if RequestIDFromContext(Detach(ctx)) != "abc" {
		t.Fatalf("detach must keep request id")
	}
	if RequestIDFromContext(context.Background()) != "" {
		t.Fatalf("expected empty request id")
	}
}
