package postgres

import (
	"context"
	"database/sql"
	"errors"

	"agenda/internal/model"
	"agenda/internal/repository"
)

// precio is NUMERIC in the schema; cast so it scans straight into float64.
const productColumns = `id, nombre, precio::float8, descripcion, categoria, existencia, imagen, created_at, updated_at`

// ProductPostgres is a PostgreSQL implementation of repository.ProductRepository.
type ProductPostgres struct {
	db *sql.DB
}

// NewProductPostgres creates a new ProductPostgres repository.
func NewProductPostgres(db *sql.DB) *ProductPostgres {
	return &ProductPostgres{db: db}
}

var _ repository.ProductRepository = (*ProductPostgres)(nil)

// scanProduct reads productColumns followed by any extra returned columns.
func scanProduct(s scanner, extra ...any) (*model.Product, error) {
	var p model.Product
	dest := append([]any{
		&p.ID,
		&p.Nombre,
		&p.Precio,
		&p.Descripcion,
		&p.Categoria,
		&p.Existencia,
		&p.Imagen,
		&p.CreatedAt,
		&p.UpdatedAt,
	}, extra...)
	if err := s.Scan(dest...); err != nil {
		return nil, translateErr(err)
	}
	return &p, nil
}

func (r *ProductPostgres) Create(ctx context.Context, p *model.Product, searchKey string) (*model.Product, error) {
	const q = `
		INSERT INTO products (id, nombre, precio, descripcion, categoria, existencia, imagen, search_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + productColumns
	row := r.db.QueryRowContext(ctx, q,
		p.ID,
		p.Nombre,
		p.Precio,
		p.Descripcion,
		p.Categoria,
		p.Existencia,
		p.Imagen,
		searchKey,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return scanProduct(row)
}

func (r *ProductPostgres) FindByID(ctx context.Context, id string) (*model.Product, error) {
	const q = `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	return scanProduct(r.db.QueryRowContext(ctx, q, id))
}

func (r *ProductPostgres) List(ctx context.Context, f repository.ProductFilter) (*repository.PageResult[model.Product], error) {
	var w whereBuilder
	w.addSearch(f.Query)
	if f.Categoria != "" {
		w.add("lower(categoria) = lower($%d)", f.Categoria)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, err
	}

	limit, args := w.page(f.PageQuery)
	q := `SELECT ` + productColumns + ` FROM products` + w.sql() + ` ORDER BY lower(nombre), id` + limit
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Product]{Items: items, Total: total}, nil
}

func (r *ProductPostgres) Update(ctx context.Context, p *model.Product, searchKey string) (*model.Product, error) {
	const q = `
		UPDATE products
		SET nombre = $2, precio = $3, descripcion = $4, categoria = $5, existencia = $6,
		    imagen = $7, search_key = $8, updated_at = $9
		WHERE id = $1
		RETURNING ` + productColumns
	row := r.db.QueryRowContext(ctx, q,
		p.ID,
		p.Nombre,
		p.Precio,
		p.Descripcion,
		p.Categoria,
		p.Existencia,
		p.Imagen,
		searchKey,
		p.UpdatedAt,
	)
	return scanProduct(row)
}

func (r *ProductPostgres) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ProductPostgres) ListCategories(ctx context.Context) ([]string, error) {
	const q = `SELECT DISTINCT categoria FROM products WHERE categoria <> '' ORDER BY categoria`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AdjustStock applies delta in a single guarded UPDATE so concurrent callers
// cannot drive existencia negative.
func (r *ProductPostgres) AdjustStock(ctx context.Context, id string, delta int) (*model.Product, error) {
	const q = `
		UPDATE products
		SET existencia = existencia + $2, updated_at = now()
		WHERE id = $1 AND existencia + $2 >= 0
		RETURNING ` + productColumns
	p, err := scanProduct(r.db.QueryRowContext(ctx, q, id, delta))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, err
	}
	if exists {
		return nil, repository.ErrInsufficientStock
	}
	return nil, repository.ErrNotFound
}

// SetImage swaps only the imagen column. The row lock taken by the CTE keeps
// the returned previous key consistent with the one overwritten.
func (r *ProductPostgres) SetImage(ctx context.Context, id, key string) (string, *model.Product, error) {
	const q = `
		WITH prev AS (
			SELECT id AS prev_id, imagen AS prev_imagen FROM products WHERE id = $1 FOR UPDATE
		)
		UPDATE products
		SET imagen = $2, updated_at = now()
		FROM prev
		WHERE products.id = prev.prev_id
		RETURNING ` + productColumns + `, prev.prev_imagen`
	var prev string
	p, err := scanProduct(r.db.QueryRowContext(ctx, q, id, key), &prev)
	if err != nil {
		return "", nil, err
	}
	return prev, p, nil
}
