// Package collection performs CRUD on named model collections without any
// per-model code. Every model is backed by a Store handle that is resolved
// once at startup and looked up by name on each request.
package collection

import (
	"context"
	"fmt"
	"sort"

	"github.com/geocoder89/modelhub/internal/domain/item"
	"github.com/go-playground/validator/v10"
)

// Store is the storage handle behind a single model.
type Store interface {
	Create(ctx context.Context, attrs item.Attributes) (item.Item, error)
	List(ctx context.Context) ([]item.Item, error)
	GetByID(ctx context.Context, id string) (item.Item, error)
	Update(ctx context.Context, id string, attrs item.Attributes) (item.Item, error)
	// Delete succeeds whether or not the id existed.
	Delete(ctx context.Context, id string) error
}

// Registry maps model names to their stores. It is filled before the server
// starts and never mutated afterwards.
type Registry struct {
	stores map[string]Store
}

var modelNameRules = validator.New()

// ValidateModelName rejects names that are unsafe to use as a table name.
func ValidateModelName(name string) error {
	if err := modelNameRules.Var(name, "required,lowercase,alphanum,max=63"); err != nil {
		return fmt.Errorf("invalid model name %q: %w", name, err)
	}
	return nil
}

func NewRegistry() *Registry {
	return &Registry{stores: make(map[string]Store)}
}

func (r *Registry) Register(model string, s Store) error {
	if err := ValidateModelName(model); err != nil {
		return err
	}
	if _, dup := r.stores[model]; dup {
		return fmt.Errorf("model %q registered twice", model)
	}
	r.stores[model] = s
	return nil
}

// Lookup returns item.ErrInvalidModel for names that were never registered.
func (r *Registry) Lookup(model string) (Store, error) {
	s, ok := r.stores[model]
	if !ok {
		return nil, fmt.Errorf("%w: %q", item.ErrInvalidModel, model)
	}
	return s, nil
}

func (r *Registry) Models() []string {
	out := make([]string, 0, len(r.stores))
	for name := range r.stores {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
