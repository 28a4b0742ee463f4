package uploads

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
)

// MemoryRepo is an in-memory Repo used in tests and local runs without a database.
type MemoryRepo struct {
	mu   sync.Mutex
	rows map[string]Upload
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{rows: make(map[string]Upload)}
}

func (r *MemoryRepo) Create(ctx context.Context, u Upload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.Version == 0 {
		u.Version = 1
	}
	r.rows[u.ID] = cloneUpload(u)
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Upload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.rows[id]
	if !ok {
		return Upload{}, ErrNotFound
	}
	return cloneUpload(u), nil
}

func (r *MemoryRepo) List(ctx context.Context, f Filter) ([]Upload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Upload, 0, len(r.rows))
	for _, u := range r.rows {
		if matches(f, u) {
			out = append(out, cloneUpload(u))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepo) UpdateIfVersion(ctx context.Context, u Upload, expected int64) (Upload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.rows[u.ID]
	if !ok {
		return Upload{}, ErrNotFound
	}
	if current.Version != expected {
		return Upload{}, ErrConflict
	}
	current.Status = u.Status
	current.ErrorMessage = u.ErrorMessage
	current.AnalysisResults = u.AnalysisResults
	current.ProcessingProgress = u.ProcessingProgress
	current.UpdatedAt = u.UpdatedAt
	current.AnalyzedAt = u.AnalyzedAt
	current.Version = expected + 1
	r.rows[u.ID] = cloneUpload(current)
	return cloneUpload(current), nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *MemoryRepo) CountByStatus(ctx context.Context) (map[Status]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[Status]int)
	for _, u := range r.rows {
		out[u.Status]++
	}
	return out, nil
}

func matches(f Filter, u Upload) bool {
	if f.UserID != "" && u.UserID != f.UserID {
		return false
	}
	if f.Status != "" && u.Status != f.Status {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Search))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(u.FileName), q) ||
		strings.Contains(strings.ToLower(u.CompanyName), q) ||
		strings.Contains(strings.ToLower(u.UserID), q)
}

func cloneUpload(u Upload) Upload {
	if u.ErrorMessage != nil {
		msg := *u.ErrorMessage
		u.ErrorMessage = &msg
	}
	if u.AnalyzedAt != nil {
		at := *u.AnalyzedAt
		u.AnalyzedAt = &at
	}
	if u.AnalysisResults != nil {
		u.AnalysisResults = append(json.RawMessage(nil), u.AnalysisResults...)
	}
	return u
}

var _ Repo = (*MemoryRepo)(nil)
