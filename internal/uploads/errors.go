package uploads

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("upload not found")
	ErrConflict       = errors.New("upload was modified concurrently")
	ErrReasonRequired = errors.New("rejection reason is required")
	ErrInvalidInput   = errors.New("invalid input")
	ErrNotPDF         = errors.New("only PDF files are accepted")
	ErrTooLarge       = errors.New("file exceeds upload limit")
	ErrNotCompleted   = errors.New("analysis not completed")
)

// TransitionError reports an event that is not allowed from the current status.
type TransitionError struct {
	From  Status
	Event Event
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s upload in status %s", e.Event, e.From)
}

// ErrInvalidTransition matches any *TransitionError via errors.Is.
var ErrInvalidTransition = errors.New("invalid status transition")

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
