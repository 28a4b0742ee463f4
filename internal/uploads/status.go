package uploads

import (
	"encoding/json"
	"strings"
	"time"
)

// Event is a request to move an upload to another status.
type Event string

const (
	EventApprove        Event = "approve"
	EventReject         Event = "reject"
	EventMarkProcessing Event = "mark-processing"
	EventMarkCompleted  Event = "mark-completed"
	EventMarkFailed     Event = "mark-failed"
)

var transitions = map[Event]struct {
	from []Status
	to   Status
}{
	EventApprove:        {from: []Status{StatusPending, StatusRejected, StatusFailed}, to: StatusApproved},
	EventReject:         {from: []Status{StatusPending}, to: StatusRejected},
	EventMarkProcessing: {from: []Status{StatusPending, StatusApproved}, to: StatusProcessing},
	EventMarkCompleted:  {from: []Status{StatusProcessing}, to: StatusCompleted},
	EventMarkFailed:     {from: []Status{StatusProcessing}, to: StatusFailed},
}

// Next returns the status reached by applying event in status from.
func Next(from Status, event Event) (Status, error) {
	rule, ok := transitions[event]
	if !ok {
		return from, &TransitionError{From: from, Event: event}
	}
	for _, allowed := range rule.from {
		if allowed == from {
			return rule.to, nil
		}
	}
	return from, &TransitionError{From: from, Event: event}
}

// Transition carries an event and its payload.
type Transition struct {
	Event   Event
	Reason  string          // reject, mark-failed
	Results json.RawMessage // mark-completed
}

// Approve returns the approve transition.
func Approve() Transition { return Transition{Event: EventApprove} }

// Reject returns a reject transition with the given reason.
func Reject(reason string) Transition { return Transition{Event: EventReject, Reason: reason} }

// MarkProcessing returns the mark-processing transition.
func MarkProcessing() Transition { return Transition{Event: EventMarkProcessing} }

// MarkCompleted returns a mark-completed transition carrying results.
func MarkCompleted(results json.RawMessage) Transition {
	return Transition{Event: EventMarkCompleted, Results: results}
}

// MarkFailed returns a mark-failed transition with an error detail.
func MarkFailed(detail string) Transition { return Transition{Event: EventMarkFailed, Reason: detail} }

// Validate checks the payload independent of the current status.
func (t Transition) Validate() error {
	if t.Event == EventReject && strings.TrimSpace(t.Reason) == "" {
		return ErrReasonRequired
	}
	return nil
}

// Apply returns a copy of u with t applied. It does not touch storage.
func Apply(u Upload, t Transition, now time.Time) (Upload, error) {
	if err := t.Validate(); err != nil {
		return u, err
	}
	to, err := Next(u.Status, t.Event)
	if err != nil {
		return u, err
	}

	out := u
	out.Status = to
	out.UpdatedAt = now
	out.ErrorMessage = nil

	switch to {
	case StatusRejected, StatusFailed:
		msg := strings.TrimSpace(t.Reason)
		if msg == "" {
			msg = "Analysis failed"
		}
		out.ErrorMessage = &msg
	}
	switch to {
	case StatusProcessing:
		out.ProcessingProgress = 0
	case StatusCompleted:
		out.AnalysisResults = append(json.RawMessage(nil), t.Results...)
		out.ProcessingProgress = 100
		stamp := now
		out.AnalyzedAt = &stamp
	case StatusFailed:
		stamp := now
		out.AnalyzedAt = &stamp
	}
	return out, nil
}
