package migration

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agenda/internal/logging"
)

func TestEnsureMigrated(t *testing.T) {
	ctx := context.Background()
	sentinelQuery := regexp.QuoteMeta("SELECT to_regclass($1) IS NOT NULL")

	t.Run("schema exists", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(sentinelQuery).
			WithArgs(sentinelTable).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		var buf bytes.Buffer
		err = EnsureMigrated(ctx, db, logging.New(&buf, time.UTC, "info"), "db-host")

		assert.NoError(t, err)
		assert.Contains(t, buf.String(), "db_migration_skip")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("runs every step", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(sentinelQuery).
			WithArgs(sentinelTable).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		for _, step := range steps {
			mock.ExpectExec(regexp.QuoteMeta(step.SQL)).WillReturnResult(sqlmock.NewResult(0, 0))
		}

		var buf bytes.Buffer
		err = EnsureMigrated(ctx, db, logging.New(&buf, time.UTC, "info"), "db-host")

		assert.NoError(t, err)
		assert.Contains(t, buf.String(), "db_migration_success")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("step failure stops migration", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(sentinelQuery).
			WithArgs(sentinelTable).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec(regexp.QuoteMeta(steps[0].SQL)).WillReturnError(errors.New("permission denied"))

		err = EnsureMigrated(ctx, db, nil, "db-host")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "migration step create_extension_uuid_ossp failed")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("sentinel check failure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(sentinelQuery).WillReturnError(errors.New("conn refused"))

		err = EnsureMigrated(ctx, db, nil, "db-host")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to check sentinel table")
	})
}

// The listing queries order by lower(nombre), id, filter categoria through
// lower() and search with an unanchored LIKE on search_key.
func TestSteps_IndexesMatchQueries(t *testing.T) {
	indexes := make(map[string]string)
	for _, step := range steps {
		indexes[step.Name] = step.SQL
	}

	tests := []struct {
		step string
		want string
	}{
		{"create_extension_pg_trgm", "pg_trgm"},
		{"create_index_contacts_nombre", "(lower(nombre), id)"},
		{"create_index_products_nombre", "(lower(nombre), id)"},
		{"create_index_contacts_search_key", "USING gin (search_key gin_trgm_ops)"},
		{"create_index_products_search_key", "USING gin (search_key gin_trgm_ops)"},
		{"create_index_products_categoria", "(lower(categoria))"},
	}
	for _, tt := range tests {
		t.Run(tt.step, func(t *testing.T) {
			require.Contains(t, indexes, tt.step)
			assert.Contains(t, indexes[tt.step], tt.want)
			assert.NotContains(t, indexes[tt.step], "text_pattern_ops")
		})
	}
}
