package queue

import "context"

// Client sends messages to a queue backend.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// Processor handles one queued upload analysis.
type Processor interface {
	Process(ctx context.Context, uploadID string) error
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, uploadID string) error

func (f ProcessorFunc) Process(ctx context.Context, uploadID string) error {
	return f(ctx, uploadID)
}
