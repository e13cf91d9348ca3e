package collection

import (
	"context"

	"github.com/geocoder89/modelhub/internal/domain/item"
)

// PayloadValidator checks attributes for a model before they are stored.
type PayloadValidator interface {
	Validate(model string, attrs map[string]any) error
}

// Accessor is the single CRUD entry point shared by every model.
type Accessor struct {
	registry  *Registry
	validator PayloadValidator
}

// NewAccessor builds an Accessor. A nil validator accepts every payload.
func NewAccessor(registry *Registry, v PayloadValidator) *Accessor {
	return &Accessor{registry: registry, validator: v}
}

func (a *Accessor) Create(ctx context.Context, model string, attrs item.Attributes) (item.Item, error) {
	s, err := a.registry.Lookup(model)
	if err != nil {
		return item.Item{}, err
	}

	attrs = item.Clean(attrs)
	if err := a.validate(model, attrs); err != nil {
		return item.Item{}, err
	}

	return s.Create(ctx, attrs)
}

func (a *Accessor) List(ctx context.Context, model string) ([]item.Item, error) {
	s, err := a.registry.Lookup(model)
	if err != nil {
		return nil, err
	}
	return s.List(ctx)
}

func (a *Accessor) Get(ctx context.Context, model, id string) (item.Item, error) {
	s, err := a.registry.Lookup(model)
	if err != nil {
		return item.Item{}, err
	}
	return s.GetByID(ctx, id)
}

// Update replaces every non-id attribute of the item.
func (a *Accessor) Update(ctx context.Context, model, id string, attrs item.Attributes) (item.Item, error) {
	s, err := a.registry.Lookup(model)
	if err != nil {
		return item.Item{}, err
	}

	attrs = item.Clean(attrs)
	if err := a.validate(model, attrs); err != nil {
		return item.Item{}, err
	}

	return s.Update(ctx, id, attrs)
}

func (a *Accessor) Delete(ctx context.Context, model, id string) error {
	s, err := a.registry.Lookup(model)
	if err != nil {
		return err
	}
	return s.Delete(ctx, id)
}

func (a *Accessor) validate(model string, attrs item.Attributes) error {
	if a.validator == nil {
		return nil
	}
	return a.validator.Validate(model, attrs)
}
