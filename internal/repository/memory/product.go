package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"agenda/internal/model"
	"agenda/internal/repository"
)

// ProductMemory keeps catalog products in memory.
type ProductMemory struct {
	t *table[model.Product]
}

var _ repository.ProductRepository = (*ProductMemory)(nil)

// NewProductMemory returns an empty product store.
func NewProductMemory() *ProductMemory {
	return &ProductMemory{t: newTable(
		func(p *model.Product) string { return p.ID },
		func(p *model.Product) string { return p.Nombre },
	)}
}

func (r *ProductMemory) Create(_ context.Context, p *model.Product, searchKey string) (*model.Product, error) {
	out, err := r.t.insert(*p, searchKey)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ProductMemory) FindByID(_ context.Context, id string) (*model.Product, error) {
	out, err := r.t.get(id)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ProductMemory) List(_ context.Context, f repository.ProductFilter) (*repository.PageResult[model.Product], error) {
	var match func(*model.Product) bool
	if f.Categoria != "" {
		match = func(p *model.Product) bool {
			return strings.EqualFold(p.Categoria, f.Categoria)
		}
	}
	return r.t.page(f.Query, match, f.PageQuery), nil
}

func (r *ProductMemory) Update(_ context.Context, p *model.Product, searchKey string) (*model.Product, error) {
	out, err := r.t.replace(*p, searchKey, func(stored, next *model.Product) {
		next.CreatedAt = stored.CreatedAt
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ProductMemory) Delete(_ context.Context, id string) error {
	return r.t.remove(id)
}

func (r *ProductMemory) ListCategories(_ context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	r.t.each(func(p *model.Product) {
		if p.Categoria != "" {
			seen[p.Categoria] = struct{}{}
		}
	})
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

func (r *ProductMemory) AdjustStock(_ context.Context, id string, delta int) (*model.Product, error) {
	out, err := r.t.update(id, func(p *model.Product) error {
		if p.Existencia+delta < 0 {
			return repository.ErrInsufficientStock
		}
		p.Existencia += delta
		p.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ProductMemory) SetImage(_ context.Context, id, key string) (string, *model.Product, error) {
	var prev string
	out, err := r.t.update(id, func(p *model.Product) error {
		prev = p.Imagen
		p.Imagen = key
		p.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	return prev, &out, nil
}
