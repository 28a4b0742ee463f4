package companies

import "context"

// Repo persists analyzed companies.
type Repo interface {
	Create(ctx context.Context, c Company) error
	Update(ctx context.Context, c Company) error
	Get(ctx context.Context, id string) (Company, error)
	List(ctx context.Context, f Filter) ([]Company, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}
