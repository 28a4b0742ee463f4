package review

import "errors"

var (
	// ErrUpdateInProgress is returned when the same record already has a
	// write in flight in this session.
	ErrUpdateInProgress = errors.New("update already in progress for this upload")
	ErrSessionClosed    = errors.New("review session closed")
)
