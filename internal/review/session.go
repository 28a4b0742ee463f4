package review

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"greenintellect-backend/internal/shared/metrics"
	"greenintellect-backend/internal/shared/telemetry"
	"greenintellect-backend/internal/uploads"
)

const (
	DefaultReconcileDelay = 1000 * time.Millisecond
	PageSize              = 8
	reloadTimeout         = 30 * time.Second
)

// Session is one admin's working view of the upload list. It keeps a
// snapshot of the records, refuses overlapping writes to the same record,
// and reconciles with storage shortly after each successful write.
type Session struct {
	AdminID string

	svc   *uploads.Service
	delay time.Duration

	mu       sync.Mutex
	records  map[string]uploads.Upload
	updating map[string]struct{}
	timer    *time.Timer
	closed   bool
	reloads  int

	// deletes counts committed deletes; deleted maps an id to the count at
	// its delete so older lists cannot bring the row back.
	deletes    uint64
	deleted    map[string]uint64
	refreshing int
}

// NewSession returns an empty session. Call Refresh to load the snapshot.
func NewSession(adminID string, svc *uploads.Service, delay time.Duration) *Session {
	if delay <= 0 {
		delay = DefaultReconcileDelay
	}
	return &Session{
		AdminID:  adminID,
		svc:      svc,
		delay:    delay,
		records:  make(map[string]uploads.Upload),
		updating: make(map[string]struct{}),
		deleted:  make(map[string]uint64),
	}
}

// Page is one page of the filtered snapshot.
type Page struct {
	Items      []uploads.Upload `json:"items"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	Total      int              `json:"total"`
	TotalPages int              `json:"totalPages"`
}

// Refresh reloads every record from storage.
func (s *Session) Refresh(ctx context.Context) error {
	if s.isClosed() {
		return ErrSessionClosed
	}
	s.mu.Lock()
	since := s.deletes
	s.refreshing++
	s.mu.Unlock()

	rows, err := s.svc.ListAll(ctx, uploads.Filter{})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshing--
	if err != nil {
		return err
	}
	if s.closed {
		return ErrSessionClosed
	}
	fresh := make(map[string]uploads.Upload, len(rows))
	for _, row := range rows {
		if at, ok := s.deleted[row.ID]; ok && at > since {
			continue
		}
		// a write that landed while the list was in flight wins
		if held, ok := s.records[row.ID]; ok && held.Version > row.Version {
			row = held
		}
		fresh[row.ID] = row
	}
	if s.refreshing == 0 {
		for id, at := range s.deleted {
			if at <= since {
				delete(s.deleted, id)
			}
		}
	}
	s.records = fresh
	s.reloads++
	return nil
}

// List refreshes the snapshot and returns the requested page of records
// whose file name, company name or uploader matches search.
func (s *Session) List(ctx context.Context, search string, page int) (Page, error) {
	if err := s.Refresh(ctx); err != nil {
		return Page{}, err
	}
	items := s.Snapshot(search)

	total := len(items)
	totalPages := (total + PageSize - 1) / PageSize
	if page < 1 {
		page = 1
	}
	start := (page - 1) * PageSize
	if start > total {
		start = total
	}
	end := start + PageSize
	if end > total {
		end = total
	}
	return Page{
		Items:      items[start:end],
		Page:       page,
		PageSize:   PageSize,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

// Snapshot returns the held records matching search, newest first.
func (s *Session) Snapshot(search string) []uploads.Upload {
	f := strings.ToLower(strings.TrimSpace(search))
	s.mu.Lock()
	out := make([]uploads.Upload, 0, len(s.records))
	for _, u := range s.records {
		if f == "" ||
			strings.Contains(strings.ToLower(u.FileName), f) ||
			strings.Contains(strings.ToLower(u.CompanyName), f) ||
			strings.Contains(strings.ToLower(u.UserID), f) {
			out = append(out, u)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Get returns the held record, falling back to storage.
func (s *Session) Get(ctx context.Context, id string) (uploads.Upload, error) {
	if s.isClosed() {
		return uploads.Upload{}, ErrSessionClosed
	}
	s.mu.Lock()
	u, ok := s.records[id]
	s.mu.Unlock()
	if ok {
		return u, nil
	}
	return s.svc.Get(ctx, id)
}

// Updating reports whether a write for id is in flight.
func (s *Session) Updating(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.updating[id]
	return ok
}

// Approve moves a pending upload to approved.
func (s *Session) Approve(ctx context.Context, id string) (uploads.Upload, Notice, error) {
	return s.Apply(ctx, id, uploads.Approve())
}

// Reject moves a pending upload to rejected with a reason.
func (s *Session) Reject(ctx context.Context, id, reason string) (uploads.Upload, Notice, error) {
	return s.Apply(ctx, id, uploads.Reject(reason))
}

// Apply writes t for record id. Payload validation and the per-record guard
// both run before any storage call.
func (s *Session) Apply(ctx context.Context, id string, t uploads.Transition) (uploads.Upload, Notice, error) {
	if s.isClosed() {
		return uploads.Upload{}, updateFailedNotice(ErrSessionClosed), ErrSessionClosed
	}
	if err := t.Validate(); err != nil {
		metrics.IncUploadTransitionRejected("reason_required")
		return uploads.Upload{}, updateFailedNotice(err), err
	}
	release, err := s.acquire(id)
	if err != nil {
		return uploads.Upload{}, updateFailedNotice(err), err
	}
	defer release()

	current, err := s.Get(ctx, id)
	if err != nil {
		return uploads.Upload{}, updateFailedNotice(err), err
	}
	stored, err := s.svc.TransitionFrom(ctx, current, t)
	if err != nil {
		telemetry.Warn("review.update_failed", map[string]any{
			"admin_id":  s.AdminID,
			"upload_id": id,
			"event":     string(t.Event),
			"error":     err.Error(),
		})
		return uploads.Upload{}, updateFailedNotice(err), err
	}

	s.mu.Lock()
	if !s.closed {
		s.records[stored.ID] = stored
		s.scheduleReloadLocked()
	}
	s.mu.Unlock()
	return stored, statusUpdatedNotice(stored), nil
}

// Delete removes an upload from storage and from the snapshot.
func (s *Session) Delete(ctx context.Context, id string) (Notice, error) {
	if s.isClosed() {
		return deleteFailedNotice(ErrSessionClosed), ErrSessionClosed
	}
	release, err := s.acquire(id)
	if err != nil {
		return deleteFailedNotice(err), err
	}
	defer release()

	if err := s.svc.Delete(ctx, id); err != nil {
		telemetry.Warn("review.delete_failed", map[string]any{
			"admin_id":  s.AdminID,
			"upload_id": id,
			"error":     err.Error(),
		})
		return deleteFailedNotice(err), err
	}

	s.mu.Lock()
	if !s.closed {
		s.deletes++
		s.deleted[id] = s.deletes
		delete(s.records, id)
		s.scheduleReloadLocked()
	}
	s.mu.Unlock()
	return deletedNotice(), nil
}

// Close stops pending reloads. Later calls return ErrSessionClosed and
// writes still in flight are not applied to the snapshot.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) acquire(id string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.updating[id]; busy {
		metrics.IncUploadTransitionRejected("update_in_progress")
		return nil, ErrUpdateInProgress
	}
	s.updating[id] = struct{}{}
	return func() {
		s.mu.Lock()
		delete(s.updating, id)
		s.mu.Unlock()
	}, nil
}

// scheduleReloadLocked restarts the reconcile timer. s.mu must be held.
func (s *Session) scheduleReloadLocked() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, s.reconcile)
}

func (s *Session) reconcile() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
	defer cancel()
	if err := s.Refresh(ctx); err != nil && err != ErrSessionClosed {
		telemetry.Warn("review.reload_failed", map[string]any{
			"admin_id": s.AdminID,
			"error":    err.Error(),
		})
	}
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
