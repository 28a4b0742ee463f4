package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"greenintellect-backend/internal/shared/telemetry"
)

// DefaultMaxRetries bounds attempts when Executor.MaxRetries is unset.
const DefaultMaxRetries = 3

const (
	rateLimitBase = 1000 * time.Millisecond
	rateLimitCap  = 10 * time.Second
	errorBase     = 500 * time.Millisecond
	errorCap      = 5 * time.Second
)

// Call performs one attempt of the outbound request.
type Call func(ctx context.Context) (*http.Response, error)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Attempts   int
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// TransportError is the single failure shape returned by Do. StatusCode is zero
// when the last attempt failed before a response was received.
type TransportError struct {
	StatusCode int
	Response   *Response
	Attempts   int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		if e.StatusCode != 0 {
			return fmt.Sprintf("request failed after %d attempt(s) status=%d: %v", e.Attempts, e.StatusCode, e.Err)
		}
		return fmt.Sprintf("request failed after %d attempt(s): %v", e.Attempts, e.Err)
	}
	return fmt.Sprintf("request failed after %d attempt(s) status=%d", e.Attempts, e.StatusCode)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Executor runs a call with bounded retries and exponential backoff.
type Executor struct {
	MaxRetries int
	Sleep      SleepFunc
	// Retryable decides whether a non-2xx status is worth another attempt.
	// Nil retries every non-2xx status.
	Retryable func(status int) bool
	// Name labels log lines.
	Name string
}

// Backoff returns the wait after a failed attempt. Status 429 uses the
// rate-limit curve; anything else, including transport errors (status 0),
// uses the error curve.
func Backoff(status, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base, limit := errorBase, errorCap
	if status == http.StatusTooManyRequests {
		base, limit = rateLimitBase, rateLimitCap
	}
	if attempt > 30 {
		return limit
	}
	wait := base * time.Duration(1<<uint(attempt))
	if wait > limit {
		return limit
	}
	return wait
}

// Do executes call until it returns a 2xx response or attempts run out.
// Attempts are strictly sequential and no wait follows the final attempt.
func (e Executor) Do(ctx context.Context, call Call) (*Response, error) {
	maxRetries := e.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	sleep := e.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	var last *Response
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, &TransportError{StatusCode: statusOf(last), Response: last, Attempts: attempt - 1, Err: err}
		}

		resp, err := call(ctx)
		if err == nil {
			last, err = readResponse(resp)
		}
		if err != nil {
			last = nil
			if attempt == maxRetries || ctx.Err() != nil {
				return nil, &TransportError{Attempts: attempt, Err: err}
			}
			wait := Backoff(0, attempt)
			e.logRetry(attempt, maxRetries, 0, wait, err)
			if serr := sleep(ctx, wait); serr != nil {
				return nil, &TransportError{Attempts: attempt, Err: errors.Join(err, serr)}
			}
			continue
		}

		last.Attempts = attempt
		if last.OK() {
			return last, nil
		}
		if attempt == maxRetries || !e.retryable(last.StatusCode) {
			return nil, &TransportError{StatusCode: last.StatusCode, Response: last, Attempts: attempt}
		}
		wait := Backoff(last.StatusCode, attempt)
		e.logRetry(attempt, maxRetries, last.StatusCode, wait, nil)
		if serr := sleep(ctx, wait); serr != nil {
			return nil, &TransportError{StatusCode: last.StatusCode, Response: last, Attempts: attempt, Err: serr}
		}
	}
	return nil, &TransportError{StatusCode: statusOf(last), Response: last, Attempts: maxRetries, Err: errors.New("max retries exceeded")}
}

func (e Executor) retryable(status int) bool {
	if e.Retryable == nil {
		return true
	}
	return e.Retryable(status)
}

func (e Executor) logRetry(attempt, maxRetries, status int, wait time.Duration, err error) {
	fields := map[string]any{
		"attempt":     attempt,
		"max_retries": maxRetries,
		"wait_ms":     wait.Milliseconds(),
	}
	if e.Name != "" {
		fields["target"] = e.Name
	}
	if status != 0 {
		fields["status"] = status
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	telemetry.Warn("retry.backoff", fields)
}

// SleepContext blocks for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func readResponse(resp *http.Response) (*Response, error) {
	if resp == nil {
		return nil, errors.New("nil http response")
	}
	if resp.Body == nil {
		return &Response{StatusCode: resp.StatusCode, Header: resp.Header}, nil
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

func statusOf(r *Response) int {
	if r == nil {
		return 0
	}
	return r.StatusCode
}
