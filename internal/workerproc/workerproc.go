// Package workerproc decodes upload job messages and runs them. It is shared by
// the long-poll worker and the Lambda SQS handler so both apply the same
// drop-or-retry rules.
package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"greenintellect-backend/internal/queue"
)

// Reason classifies why a message could not be handled.
type Reason string

const (
	ReasonEmptyBody       Reason = "empty_body"
	ReasonDecode          Reason = "decode"
	ReasonMissingUploadID Reason = "missing_upload_id"
	ReasonProcess         Reason = "process"
)

// MessageError describes a failed message. Only ReasonProcess is worth a
// redelivery.
type MessageError struct {
	Reason    Reason
	UploadID  string
	RequestID string
	BodyLen   int
	BodySHA   string
	Err       error
}

func (e *MessageError) Error() string {
	msg := strings.ReplaceAll(string(e.Reason), "_", " ")
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MessageError) Unwrap() error { return e.Err }

// Fields returns log fields for the failure.
func (e *MessageError) Fields() map[string]any {
	fields := map[string]any{"reason": string(e.Reason)}
	if e.UploadID != "" {
		fields["upload_id"] = e.UploadID
	}
	if e.RequestID != "" {
		fields["request_id"] = e.RequestID
	}
	if e.Reason != ReasonProcess {
		fields["body_len"] = e.BodyLen
		if e.BodySHA != "" {
			fields["body_sha256"] = e.BodySHA
		}
	}
	if e.Err != nil {
		fields["error"] = e.Err.Error()
	}
	return fields
}

// Unrecoverable reports whether a message can never succeed and should be
// dropped instead of redelivered.
func Unrecoverable(err error) bool {
	var msgErr *MessageError
	return errors.As(err, &msgErr) && msgErr.Reason != ReasonProcess
}

func digest(body string) (int, string) {
	if body == "" {
		return 0, ""
	}
	sum := sha256.Sum256([]byte(body))
	return len(body), hex.EncodeToString(sum[:])
}

// ParseMessage decodes the payload and requires an upload id.
func ParseMessage(body string) (queue.Message, error) {
	fail := func(reason Reason, msg queue.Message, err error) (queue.Message, error) {
		n, sha := digest(body)
		return msg, &MessageError{Reason: reason, RequestID: msg.RequestID, BodyLen: n, BodySHA: sha, Err: err}
	}
	if strings.TrimSpace(body) == "" {
		return fail(ReasonEmptyBody, queue.Message{}, nil)
	}
	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return fail(ReasonDecode, queue.Message{}, err)
	}
	if strings.TrimSpace(msg.UploadID) == "" {
		return fail(ReasonMissingUploadID, msg, nil)
	}
	return msg, nil
}

// HandleMessage parses a payload and runs the processor for it.
func HandleMessage(ctx context.Context, processor queue.Processor, body string) (queue.Message, error) {
	if processor == nil {
		return queue.Message{}, errors.New("upload processor not configured")
	}
	msg, err := ParseMessage(body)
	if err != nil {
		return msg, err
	}

	ctx = queue.WithRequestID(ctx, msg.RequestID)
	if err := processor.Process(ctx, msg.UploadID); err != nil {
		return msg, &MessageError{Reason: ReasonProcess, UploadID: msg.UploadID, RequestID: msg.RequestID, Err: err}
	}
	return msg, nil
}
