package companies

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Company
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Company)}
}

func (r *MemoryRepo) Create(ctx context.Context, c Company) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[c.ID] = cloneCompany(c)
	return nil
}

func (r *MemoryRepo) Update(ctx context.Context, c Company) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.data[c.ID]
	if !ok {
		return ErrNotFound
	}
	c.CreatedAt = existing.CreatedAt
	r.data[c.ID] = cloneCompany(c)
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Company, error) {
	if err := ctx.Err(); err != nil {
		return Company{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.data[id]
	if !ok {
		return Company{}, ErrNotFound
	}
	return cloneCompany(c), nil
}

func (r *MemoryRepo) List(ctx context.Context, f Filter) ([]Company, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Company, 0, len(r.data))
	for _, c := range r.data {
		if f.Matches(c) {
			out = append(out, cloneCompany(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return ErrNotFound
	}
	delete(r.data, id)
	return nil
}

func (r *MemoryRepo) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data), nil
}

func cloneCompany(c Company) Company {
	c.KeyFindings = append([]KeyFinding(nil), c.KeyFindings...)
	return c
}

var _ Repo = (*MemoryRepo)(nil)
