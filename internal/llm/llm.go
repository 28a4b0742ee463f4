package llm

import (
	"context"
	"errors"
	"fmt"
)

// Client completes a single prompt against a chat-completion provider.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Kind classifies a terminal completion failure.
type Kind string

const (
	KindRateLimited   Kind = "rate_limited"
	KindUnauthorized  Kind = "unauthorized"
	KindProvider      Kind = "provider_error"
	KindMalformed     Kind = "malformed_response"
	KindTransport     Kind = "transport_failure"
	KindNotConfigured Kind = "not_configured"
)

var (
	ErrRateLimited       = errors.New("llm rate limited")
	ErrUnauthorized      = errors.New("llm unauthorized")
	ErrProvider          = errors.New("llm provider error")
	ErrMalformedResponse = errors.New("llm malformed response")
	ErrTransport         = errors.New("llm transport failure")
	ErrNotConfigured     = errors.New("llm not configured")
)

var kindSentinels = map[Kind]error{
	KindRateLimited:   ErrRateLimited,
	KindUnauthorized:  ErrUnauthorized,
	KindProvider:      ErrProvider,
	KindMalformed:     ErrMalformedResponse,
	KindTransport:     ErrTransport,
	KindNotConfigured: ErrNotConfigured,
}

// Error is a classified provider failure. Message is safe to show to end users.
type Error struct {
	Kind     Kind
	Status   int
	Message  string
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("llm %s", e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" status=%d", e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && sentinel == target
}

// KindOf returns the kind of a classified error, or KindTransport for anything else.
func KindOf(err error) Kind {
	var lerr *Error
	if errors.As(err, &lerr) {
		return lerr.Kind
	}
	for kind, sentinel := range kindSentinels {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return KindTransport
}

// NotConfiguredMessage is shown when no provider key is available.
const NotConfiguredMessage = "Groq API key is not configured. Please contact support."

// PlaceholderClient stands in when no API key is configured.
type PlaceholderClient struct{}

// Complete always fails with a not-configured error.
func (PlaceholderClient) Complete(ctx context.Context, prompt string) (string, error) {
	return "", &Error{Kind: KindNotConfigured, Message: NotConfiguredMessage}
}
