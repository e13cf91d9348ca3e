package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/modelhub/internal/domain/item"
	"github.com/google/uuid"
)

// CollectionRepo keeps one model's items in a map.
type CollectionRepo struct {
	mu    sync.RWMutex
	items map[string]item.Item
	now   func() time.Time
}

func NewCollectionRepo() *CollectionRepo {
	return &CollectionRepo{
		items: make(map[string]item.Item),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (r *CollectionRepo) Create(_ context.Context, attrs item.Attributes) (item.Item, error) {
	now := r.now()
	it := item.Item{
		ID:         uuid.NewString(),
		Attributes: copyAttrs(attrs),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	r.mu.Lock()
	r.items[it.ID] = it
	r.mu.Unlock()

	return withCopiedAttrs(it), nil
}

// List returns items oldest first, ties broken by id.
func (r *CollectionRepo) List(_ context.Context) ([]item.Item, error) {
	r.mu.RLock()
	out := make([]item.Item, 0, len(r.items))
	for _, it := range r.items {
		out = append(out, withCopiedAttrs(it))
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}

func (r *CollectionRepo) GetByID(_ context.Context, id string) (item.Item, error) {
	r.mu.RLock()
	it, ok := r.items[id]
	r.mu.RUnlock()

	if !ok {
		return item.Item{}, item.ErrNotFound
	}
	return withCopiedAttrs(it), nil
}

func (r *CollectionRepo) Update(_ context.Context, id string, attrs item.Attributes) (item.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	it, ok := r.items[id]
	if !ok {
		return item.Item{}, item.ErrNotFound
	}

	it.Attributes = copyAttrs(attrs)
	it.UpdatedAt = r.now()
	r.items[id] = it

	return withCopiedAttrs(it), nil
}

func (r *CollectionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	delete(r.items, id)
	r.mu.Unlock()

	return nil
}

// callers must never share maps with the store
func copyAttrs(attrs item.Attributes) item.Attributes {
	out := make(item.Attributes, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}

func withCopiedAttrs(it item.Item) item.Item {
	it.Attributes = copyAttrs(it.Attributes)
	return it
}
