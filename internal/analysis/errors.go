package analysis

import (
	"errors"
	"fmt"
	"time"
)

// ErrPromptRequired is returned for an empty prompt.
var ErrPromptRequired = errors.New("prompt is required")

// TooSoonError reports that a company analysis was requested inside the
// minimum interval.
type TooSoonError struct {
	RetryAfter time.Duration
}

func (e *TooSoonError) Error() string {
	return fmt.Sprintf("analysis requested too soon, retry after %s", e.RetryAfter)
}
