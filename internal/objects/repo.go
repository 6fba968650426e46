package objects

import "context"

// Repo persists object metadata. Creating the row is the point at which an object becomes visible.
type Repo interface {
	Create(ctx context.Context, obj Object) error
	GetByID(ctx context.Context, id string) (Object, error)
	ListByOwner(ctx context.Context, owner string) ([]Object, error)
	// Delete reports whether a row was removed.
	Delete(ctx context.Context, id string) (bool, error)
}
