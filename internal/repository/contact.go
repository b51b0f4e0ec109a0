package repository

import (
	"context"

	"agenda/internal/model"
)

// ContactFilter narrows a contact listing.
// Query must already be normalized with search.Normalize; empty means no filter.
type ContactFilter struct {
	Query string
	PageQuery
}

// ContactRepository defines data access for contacts.
// No business logic here, strictly persistence operations.
type ContactRepository interface {
	// Create inserts a new contact. searchKey is stored for filtering.
	Create(ctx context.Context, c *model.Contact, searchKey string) (*model.Contact, error)

	// FindByID returns a contact by its ID or ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.Contact, error)

	// List returns a page of contacts ordered by nombre, id and the total count for the filter.
	List(ctx context.Context, f ContactFilter) (*PageResult[model.Contact], error)

	// Update replaces the mutable fields of an existing contact or returns ErrNotFound.
	Update(ctx context.Context, c *model.Contact, searchKey string) (*model.Contact, error)

	// Delete removes a contact by ID or returns ErrNotFound.
	Delete(ctx context.Context, id string) error
}
