package queue

import (
	"encoding/json"
	"time"
)

// Message asks the worker to analyze an approved upload.
type Message struct {
	UploadID   string `json:"uploadId"`
	RequestID  string `json:"requestId"`
	EnqueuedAt string `json:"enqueuedAt"`
	Version    int64  `json:"version"`
}

// NewMessage builds a message for the upload at the given row version.
func NewMessage(uploadID, requestID string, version int64, now time.Time) Message {
	return Message{
		UploadID:   uploadID,
		RequestID:  requestID,
		EnqueuedAt: now.UTC().Format(time.RFC3339),
		Version:    version,
	}
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
