package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"greenintellect-backend/internal/queue"
	"greenintellect-backend/internal/shared/metrics"
	"greenintellect-backend/internal/shared/storage/object"
	"greenintellect-backend/internal/shared/telemetry"
	"greenintellect-backend/internal/shared/util"
)

const (
	DefaultMaxBytes = 50 << 20
	pdfMIME         = "application/pdf"
	sniffLen        = 3072
)

// CompanyCounter reports the number of analyzed companies for dashboard stats.
type CompanyCounter interface {
	Count(ctx context.Context) (int, error)
}

// Service owns upload records, their files and their status transitions.
type Service struct {
	Repo      Repo
	Store     object.ObjectStore
	Queue     queue.Client
	Companies CompanyCounter
	Now       func() time.Time
	MaxBytes  int64
}

// CreateInput describes a new report upload.
type CreateInput struct {
	UserID      string
	CompanyName string
	ReportYear  int
	Body        io.Reader
	Size        int64
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) maxBytes() int64 {
	if s.MaxBytes > 0 {
		return s.MaxBytes
	}
	return DefaultMaxBytes
}

// Create validates the file, stores it and records a pending upload.
func (s *Service) Create(ctx context.Context, in CreateInput) (Upload, error) {
	in.UserID = strings.TrimSpace(in.UserID)
	in.CompanyName = strings.TrimSpace(in.CompanyName)
	if in.UserID == "" || in.CompanyName == "" {
		return Upload{}, fmt.Errorf("%w: companyName is required", ErrInvalidInput)
	}
	if in.ReportYear < 1900 || in.ReportYear > 2100 {
		return Upload{}, fmt.Errorf("%w: reportYear must be between 1900 and 2100", ErrInvalidInput)
	}
	if in.Body == nil {
		return Upload{}, fmt.Errorf("%w: file is required", ErrInvalidInput)
	}
	limit := s.maxBytes()
	if in.Size > limit {
		return Upload{}, ErrTooLarge
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(in.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Upload{}, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	if n == 0 || !mimetype.Detect(head).Is(pdfMIME) {
		return Upload{}, ErrNotPDF
	}

	now := s.now()
	fileName, err := util.ReportFileName(in.CompanyName, in.ReportYear, now)
	if err != nil {
		return Upload{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	key := object.UploadKey(in.UserID, fileName)

	body := io.LimitReader(io.MultiReader(bytes.NewReader(head), in.Body), limit+1)
	size := in.Size
	if size <= 0 {
		size = -1
	}
	written, err := s.Store.Put(ctx, key, pdfMIME, body, size)
	if err != nil {
		return Upload{}, fmt.Errorf("store upload: %w", err)
	}
	if written > limit {
		s.removeObject(ctx, key)
		return Upload{}, ErrTooLarge
	}

	u := Upload{
		ID:          uuid.NewString(),
		UserID:      in.UserID,
		CompanyName: in.CompanyName,
		ReportYear:  in.ReportYear,
		FileName:    fileName,
		FilePath:    key,
		Status:      StatusPending,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		s.removeObject(ctx, key)
		return Upload{}, err
	}
	telemetry.Info("uploads.created", map[string]any{
		"upload_id":  u.ID,
		"user_id":    u.UserID,
		"size_bytes": written,
	})
	return u, nil
}

// ListOwn returns the caller's uploads, newest first.
func (s *Service) ListOwn(ctx context.Context, userID string) ([]Upload, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrNotFound
	}
	return s.Repo.List(ctx, Filter{UserID: userID})
}

// ListAll returns uploads for the admin review list.
func (s *Service) ListAll(ctx context.Context, f Filter) ([]Upload, error) {
	return s.Repo.List(ctx, f)
}

// Get returns an upload by id.
func (s *Service) Get(ctx context.Context, id string) (Upload, error) {
	if strings.TrimSpace(id) == "" {
		return Upload{}, ErrNotFound
	}
	return s.Repo.Get(ctx, id)
}

// GetOwned returns an upload only when userID uploaded it.
func (s *Service) GetOwned(ctx context.Context, userID, id string) (Upload, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return Upload{}, err
	}
	if u.UserID != userID {
		return Upload{}, ErrNotFound
	}
	return u, nil
}

// DeleteOwned removes the caller's own upload.
func (s *Service) DeleteOwned(ctx context.Context, userID, id string) error {
	u, err := s.GetOwned(ctx, userID, id)
	if err != nil {
		return err
	}
	return s.remove(ctx, u)
}

// Delete removes any upload and its stored file. Allowed from every status.
func (s *Service) Delete(ctx context.Context, id string) error {
	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.remove(ctx, u)
}

func (s *Service) remove(ctx context.Context, u Upload) error {
	if err := s.Repo.Delete(ctx, u.ID); err != nil {
		return err
	}
	s.removeObject(ctx, u.FilePath)
	return nil
}

func (s *Service) removeObject(ctx context.Context, key string) {
	if s.Store == nil || key == "" {
		return
	}
	if err := s.Store.Delete(ctx, key); err != nil && !errors.Is(err, object.ErrNotFound) {
		telemetry.Warn("uploads.object_delete_failed", map[string]any{
			"key":   key,
			"error": err.Error(),
		})
	}
}

// Transition loads the current row and applies t to it.
func (s *Service) Transition(ctx context.Context, id string, t Transition) (Upload, error) {
	if err := t.Validate(); err != nil {
		metrics.IncUploadTransitionRejected(rejectReason(err))
		return Upload{}, err
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return Upload{}, err
	}
	return s.TransitionFrom(ctx, current, t)
}

// TransitionFrom applies t to the given snapshot. The write only succeeds if
// the stored version still equals current.Version.
func (s *Service) TransitionFrom(ctx context.Context, current Upload, t Transition) (Upload, error) {
	next, err := Apply(current, t, s.now())
	if err != nil {
		metrics.IncUploadTransitionRejected(rejectReason(err))
		return Upload{}, err
	}
	stored, err := s.Repo.UpdateIfVersion(ctx, next, current.Version)
	if err != nil {
		metrics.IncUploadTransitionRejected(rejectReason(err))
		return Upload{}, err
	}
	metrics.IncUploadTransition(string(stored.Status))
	telemetry.Info("uploads.transition", map[string]any{
		"upload_id": stored.ID,
		"from":      string(current.Status),
		"to":        string(stored.Status),
		"version":   stored.Version,
	})
	if stored.Status == StatusApproved {
		s.enqueue(ctx, stored)
	}
	return stored, nil
}

func (s *Service) enqueue(ctx context.Context, u Upload) {
	if s.Queue == nil {
		return
	}
	msg := queue.NewMessage(u.ID, queue.RequestIDFromContext(ctx), u.Version, s.now())
	if err := s.Queue.Send(queue.Detach(ctx), msg); err != nil {
		telemetry.Error("uploads.enqueue_failed", map[string]any{
			"upload_id":  u.ID,
			"request_id": msg.RequestID,
			"error":      err.Error(),
		})
	}
}

// OpenFile streams the stored PDF of an upload.
func (s *Service) OpenFile(ctx context.Context, u Upload) (io.ReadCloser, error) {
	rc, err := s.Store.Open(ctx, u.FilePath)
	if errors.Is(err, object.ErrNotFound) {
		return nil, ErrNotFound
	}
	return rc, err
}

// DownloadURLTTL bounds presigned download links.
const DownloadURLTTL = 15 * time.Minute

// DownloadURL returns a presigned link to the stored PDF. ok is false when the
// store cannot presign and the file must be streamed instead.
func (s *Service) DownloadURL(ctx context.Context, u Upload) (link string, expiresAt time.Time, ok bool, err error) {
	presigner, can := s.Store.(object.Presigner)
	if !can {
		return "", time.Time{}, false, nil
	}
	link, err = presigner.PresignGet(ctx, u.FilePath, u.FileName, DownloadURLTTL)
	if err != nil {
		return "", time.Time{}, false, err
	}
	return link, s.now().Add(DownloadURLTTL), true, nil
}

// AnalysisResults returns the stored analysis of a completed upload.
func AnalysisResults(u Upload) ([]byte, error) {
	if u.Status != StatusCompleted || len(u.AnalysisResults) == 0 {
		return nil, ErrNotCompleted
	}
	return u.AnalysisResults, nil
}

// Stats returns dashboard counts.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	counts, err := s.Repo.CountByStatus(ctx)
	if err != nil {
		return Stats{}, err
	}
	out := Stats{ByStatus: make(map[Status]int, len(Statuses))}
	for _, st := range Statuses {
		out.ByStatus[st] = counts[st]
		out.Total += counts[st]
	}
	if s.Companies != nil {
		n, err := s.Companies.Count(ctx)
		if err != nil {
			return Stats{}, err
		}
		out.Companies = n
	}
	return out, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrReasonRequired):
		return "reason_required"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
