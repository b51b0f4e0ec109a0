package memory

import (
	"context"

	"agenda/internal/model"
	"agenda/internal/repository"
)

// ContactMemory keeps contacts in memory.
type ContactMemory struct {
	t *table[model.Contact]
}

var _ repository.ContactRepository = (*ContactMemory)(nil)

// NewContactMemory returns an empty contact store.
func NewContactMemory() *ContactMemory {
	return &ContactMemory{t: newTable(
		func(c *model.Contact) string { return c.ID },
		func(c *model.Contact) string { return c.Nombre },
	)}
}

func (r *ContactMemory) Create(_ context.Context, c *model.Contact, searchKey string) (*model.Contact, error) {
	out, err := r.t.insert(*c, searchKey)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ContactMemory) FindByID(_ context.Context, id string) (*model.Contact, error) {
	out, err := r.t.get(id)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ContactMemory) List(_ context.Context, f repository.ContactFilter) (*repository.PageResult[model.Contact], error) {
	return r.t.page(f.Query, nil, f.PageQuery), nil
}

func (r *ContactMemory) Update(_ context.Context, c *model.Contact, searchKey string) (*model.Contact, error) {
	out, err := r.t.replace(*c, searchKey, func(stored, next *model.Contact) {
		next.CreatedAt = stored.CreatedAt
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ContactMemory) Delete(_ context.Context, id string) error {
	return r.t.remove(id)
}
