package analysis

import (
	"sync"
	"time"

	"greenintellect-backend/internal/shared/util"
)

const defaultMinInterval = 5 * time.Second

// intervalLimiter enforces a minimum gap between requests per key.
type intervalLimiter struct {
	mu      sync.Mutex
	lastHit map[string]time.Time
	now     func() time.Time
	window  time.Duration
}

func newIntervalLimiter(window time.Duration, now func() time.Time) *intervalLimiter {
	if now == nil {
		now = time.Now
	}
	if window <= 0 {
		window = defaultMinInterval
	}
	return &intervalLimiter{
		lastHit: make(map[string]time.Time),
		now:     now,
		window:  window,
	}
}

// Allow records a hit for (userID, companyID) and returns the remaining wait
// when the previous hit is still inside the window.
func (l *intervalLimiter) Allow(userID, companyID string) (bool, time.Duration) {
	if l == nil {
		return true, 0
	}
	key := util.HashKey(userID, companyID)
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if last, ok := l.lastHit[key]; ok {
		if elapsed := now.Sub(last); elapsed < l.window {
			return false, l.window - elapsed
		}
	}
	l.lastHit[key] = now
	l.evict(now)
	return true, 0
}

func (l *intervalLimiter) evict(now time.Time) {
	if len(l.lastHit) < 1024 {
		return
	}
	for k, t := range l.lastHit {
		if now.Sub(t) >= l.window {
			delete(l.lastHit, k)
		}
	}
}
