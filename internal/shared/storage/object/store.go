package object

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"
)

// ErrNotFound is returned when a storage key does not exist.
var ErrNotFound = errors.New("object not found")

// ObjectStore defines the contract for saving and retrieving report files.
type ObjectStore interface {
	Put(ctx context.Context, storageKey, contentType string, r io.Reader, size int64) (int64, error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, storageKey string) error
}

// Presigner is implemented by stores that can hand out time-limited download URLs.
type Presigner interface {
	PresignGet(ctx context.Context, storageKey, fileName string, ttl time.Duration) (string, error)
}

// UploadKey returns the storage key for a user's report: <userId>/<fileName>.
func UploadKey(userID, fileName string) string {
	return path.Join(strings.Trim(userID, "/"), fileName)
}

// ValidKey rejects keys that escape the store root.
func ValidKey(storageKey string) bool {
	clean := path.Clean(strings.TrimSpace(storageKey))
	if clean == "." || clean == "" {
		return false
	}
	return !strings.HasPrefix(clean, "..") && !strings.HasPrefix(clean, "/")
}
