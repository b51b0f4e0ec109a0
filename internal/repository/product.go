package repository

import (
	"context"

	"agenda/internal/model"
)

// ProductFilter narrows a product listing.
// Query must already be normalized; Categoria matches case-insensitively.
type ProductFilter struct {
	Query     string
	Categoria string
	PageQuery
}

// ProductRepository defines data access for catalog products.
type ProductRepository interface {
	Create(ctx context.Context, p *model.Product, searchKey string) (*model.Product, error)
	FindByID(ctx context.Context, id string) (*model.Product, error)
	List(ctx context.Context, f ProductFilter) (*PageResult[model.Product], error)
	Update(ctx context.Context, p *model.Product, searchKey string) (*model.Product, error)
	Delete(ctx context.Context, id string) error

	// ListCategories returns the distinct non-empty categories in ascending order.
	ListCategories(ctx context.Context) ([]string, error)

	// AdjustStock adds delta to existencia atomically.
	// It returns ErrInsufficientStock if the result would be negative.
	AdjustStock(ctx context.Context, id string, delta int) (*model.Product, error)

	// SetImage points the product at key without touching any other field and
	// returns the key it replaced.
	SetImage(ctx context.Context, id, key string) (prev string, p *model.Product, err error)
}
