package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agenda/internal/model"
	"agenda/internal/repository"
)

var productCols = []string{"id", "nombre", "precio", "descripcion", "categoria", "existencia", "imagen", "created_at", "updated_at"}

func productRow(id string, existencia int) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(productCols).
		AddRow(id, "Café", 1250.5, "molido", "Almacén", existencia, "", now, now)
}

func TestProductPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProductPostgres(db)
	now := time.Now().UTC()
	p := &model.Product{ID: "p-1", Nombre: "Café", Precio: 1250.5, Descripcion: "molido", Categoria: "Almacén", Existencia: 3, CreatedAt: now, UpdatedAt: now}

	mock.ExpectQuery("INSERT INTO products").
		WithArgs(p.ID, p.Nombre, p.Precio, p.Descripcion, p.Categoria, p.Existencia, p.Imagen, "cafe molido almacen", now, now).
		WillReturnRows(productRow("p-1", 3))

	out, err := repo.Create(context.Background(), p, "cafe molido almacen")

	assert.NoError(t, err)
	assert.Equal(t, 1250.5, out.Precio)
	assert.Equal(t, 3, out.Existencia)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductPostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProductPostgres(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM products WHERE search_key LIKE \$1 AND lower\(categoria\) = lower\(\$2\)`).
		WithArgs("%cafe%", "almacén").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT (.+) FROM products WHERE (.+) LIMIT \$3 OFFSET \$4`).
		WithArgs("%cafe%", "almacén", 10, 0).
		WillReturnRows(productRow("p-1", 2))

	res, err := repo.List(context.Background(), repository.ProductFilter{
		Query:     "cafe",
		Categoria: "almacén",
		PageQuery: repository.PageQuery{Limit: 10},
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Café", res.Items[0].Nombre)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductPostgres_ListCategories(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProductPostgres(db)

	mock.ExpectQuery("SELECT DISTINCT categoria FROM products").
		WillReturnRows(sqlmock.NewRows([]string{"categoria"}).AddRow("Almacén").AddRow("Limpieza"))

	cats, err := repo.ListCategories(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, []string{"Almacén", "Limpieza"}, cats)
}

func TestProductPostgres_AdjustStock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProductPostgres(db)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("UPDATE products SET existencia").
			WithArgs("p-1", -2).
			WillReturnRows(productRow("p-1", 1))

		p, err := repo.AdjustStock(ctx, "p-1", -2)

		assert.NoError(t, err)
		assert.Equal(t, 1, p.Existencia)
	})

	t.Run("insufficient stock", func(t *testing.T) {
		mock.ExpectQuery("UPDATE products SET existencia").
			WithArgs("p-1", -50).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs("p-1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		_, err := repo.AdjustStock(ctx, "p-1", -50)

		assert.ErrorIs(t, err, repository.ErrInsufficientStock)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("UPDATE products SET existencia").
			WithArgs("nope", 1).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs("nope").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		_, err := repo.AdjustStock(ctx, "nope", 1)

		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductPostgres_SetImage(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProductPostgres(db)
	ctx := context.Background()

	t.Run("returns previous key", func(t *testing.T) {
		now := time.Now()
		rows := sqlmock.NewRows(append(productCols, "prev_imagen")).
			AddRow("p-1", "Café", 1250.5, "molido", "Almacén", 7, "productos/p-1/new.png", now, now, "productos/p-1/old.png")
		mock.ExpectQuery(`UPDATE products SET imagen = \$2, updated_at = now\(\) FROM prev`).
			WithArgs("p-1", "productos/p-1/new.png").
			WillReturnRows(rows)

		prev, p, err := repo.SetImage(ctx, "p-1", "productos/p-1/new.png")

		require.NoError(t, err)
		assert.Equal(t, "productos/p-1/old.png", prev)
		assert.Equal(t, "productos/p-1/new.png", p.Imagen)
		assert.Equal(t, 7, p.Existencia)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE products SET imagen`).
			WithArgs("nope", "k").
			WillReturnError(sql.ErrNoRows)

		_, _, err := repo.SetImage(ctx, "nope", "k")

		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductPostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProductPostgres(db)

	mock.ExpectExec("DELETE FROM products WHERE id = ?").
		WithArgs("p-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Delete(context.Background(), "p-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
