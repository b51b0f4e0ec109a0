package postgres

import (
	"context"
	"database/sql"

	"agenda/internal/model"
	"agenda/internal/repository"
)

const contactColumns = `id, nombre, apellido, telefono, email, created_at, updated_at`

// ContactPostgres is a PostgreSQL implementation of repository.ContactRepository.
type ContactPostgres struct {
	db *sql.DB
}

// NewContactPostgres creates a new ContactPostgres repository.
func NewContactPostgres(db *sql.DB) *ContactPostgres {
	return &ContactPostgres{db: db}
}

var _ repository.ContactRepository = (*ContactPostgres)(nil)

type scanner interface {
	Scan(dest ...any) error
}

func scanContact(s scanner) (*model.Contact, error) {
	var c model.Contact
	if err := s.Scan(
		&c.ID,
		&c.Nombre,
		&c.Apellido,
		&c.Telefono,
		&c.Email,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, translateErr(err)
	}
	return &c, nil
}

// Create inserts a new contact row and returns the stored record.
func (r *ContactPostgres) Create(ctx context.Context, c *model.Contact, searchKey string) (*model.Contact, error) {
	const q = `
		INSERT INTO contacts (id, nombre, apellido, telefono, email, search_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + contactColumns
	row := r.db.QueryRowContext(ctx, q,
		c.ID,
		c.Nombre,
		c.Apellido,
		c.Telefono,
		c.Email,
		searchKey,
		c.CreatedAt,
		c.UpdatedAt,
	)
	return scanContact(row)
}

// FindByID fetches a single contact by its ID.
func (r *ContactPostgres) FindByID(ctx context.Context, id string) (*model.Contact, error) {
	const q = `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1`
	return scanContact(r.db.QueryRowContext(ctx, q, id))
}

// List returns contacts using LIMIT/OFFSET pagination and a total count.
func (r *ContactPostgres) List(ctx context.Context, f repository.ContactFilter) (*repository.PageResult[model.Contact], error) {
	var w whereBuilder
	w.addSearch(f.Query)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, err
	}

	limit, args := w.page(f.PageQuery)
	q := `SELECT ` + contactColumns + ` FROM contacts` + w.sql() + ` ORDER BY lower(nombre), id` + limit
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Contact, 0)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Contact]{Items: items, Total: total}, nil
}

// Update overwrites the editable fields of a contact.
func (r *ContactPostgres) Update(ctx context.Context, c *model.Contact, searchKey string) (*model.Contact, error) {
	const q = `
		UPDATE contacts
		SET nombre = $2, apellido = $3, telefono = $4, email = $5, search_key = $6, updated_at = $7
		WHERE id = $1
		RETURNING ` + contactColumns
	row := r.db.QueryRowContext(ctx, q,
		c.ID,
		c.Nombre,
		c.Apellido,
		c.Telefono,
		c.Email,
		searchKey,
		c.UpdatedAt,
	)
	return scanContact(row)
}

// Delete removes a contact by ID.
func (r *ContactPostgres) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = $1`, id)
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
