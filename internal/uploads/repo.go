package uploads

import "context"

// Repo persists uploads.
type Repo interface {
	Create(ctx context.Context, u Upload) error
	Get(ctx context.Context, id string) (Upload, error)
	List(ctx context.Context, f Filter) ([]Upload, error)
	// UpdateIfVersion writes u only when the stored version equals expected
	// and returns the stored row with its new version.
	UpdateIfVersion(ctx context.Context, u Upload, expected int64) (Upload, error)
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context) (map[Status]int, error)
}
