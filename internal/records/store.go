package records

import "context"

// Store is the persistence surface the engine depends on. Implementations
// must serialize mutations; the read path carries no such guarantee.
//
// List returns records ordered by registration time. The resolver's fuzzy
// tier reports the first record that clears the threshold, so iteration
// order is observable behavior.
type Store interface {
	Insert(ctx context.Context, record FileRecord) error
	Remove(ctx context.Context, id string) (bool, error)
	RemoveAll(ctx context.Context) (int64, error)
	List(ctx context.Context) ([]FileRecord, error)
	Get(ctx context.Context, id string) (*FileRecord, error)
	Count(ctx context.Context) (int, error)
}
