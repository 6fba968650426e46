package objects

import (
	"context"
	"fmt"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu      sync.RWMutex
	byID    map[string]Object
	byOwner map[string]map[string]struct{}
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:    make(map[string]Object),
		byOwner: make(map[string]map[string]struct{}),
	}
}

// Create stores a new object.
func (r *MemoryRepo) Create(ctx context.Context, obj Object) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[obj.ID]; exists {
		return fmt.Errorf("object %s already exists", obj.ID)
	}
	r.byID[obj.ID] = obj
	ids, ok := r.byOwner[obj.Owner]
	if !ok {
		ids = make(map[string]struct{})
		r.byOwner[obj.Owner] = ids
	}
	ids[obj.ID] = struct{}{}
	return nil
}

// GetByID returns an object by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	obj, ok := r.byID[id]
	if !ok {
		return Object{}, ErrNotFound
	}
	return obj, nil
}

// ListByOwner returns the owner's objects in no particular order.
func (r *MemoryRepo) ListByOwner(ctx context.Context, owner string) ([]Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.byOwner[owner]
	out := make([]Object, 0, len(ids))
	for id := range ids {
		out = append(out, r.byID[id])
	}
	return out, nil
}

// Delete removes an object.
func (r *MemoryRepo) Delete(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	obj, ok := r.byID[id]
	if !ok {
		return false, nil
	}
	delete(r.byID, id)
	if ids := r.byOwner[obj.Owner]; ids != nil {
		delete(ids, id)
		if len(ids) == 0 {
			delete(r.byOwner, obj.Owner)
		}
	}
	return true, nil
}

var _ Repo = (*MemoryRepo)(nil)
