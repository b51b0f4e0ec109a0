package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type migrationStep struct {
	Name string
	SQL  string
}

// sentinelTable is created by the last table step; its presence means the
// schema is complete.
const sentinelTable = "public.products"

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		// Trigram indexes serve the unanchored LIKE '%q%' search.
		Name: "create_extension_pg_trgm",
		SQL:  `CREATE EXTENSION IF NOT EXISTS pg_trgm;`,
	},
	{
		Name: "create_table_contacts",
		SQL: `CREATE TABLE IF NOT EXISTS contacts (
  id         UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  nombre     TEXT        NOT NULL,
  apellido   TEXT        NOT NULL DEFAULT '',
  telefono   TEXT        NOT NULL DEFAULT '',
  email      TEXT        NOT NULL DEFAULT '',
  search_key TEXT        NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_contacts_nombre",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_contacts_lower_nombre ON contacts (lower(nombre), id);`,
	},
	{
		Name: "create_index_contacts_search_key",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_contacts_search_key ON contacts USING gin (search_key gin_trgm_ops);`,
	},
	{
		Name: "create_table_products",
		SQL: `CREATE TABLE IF NOT EXISTS products (
  id          UUID          PRIMARY KEY DEFAULT uuid_generate_v4(),
  nombre      TEXT          NOT NULL,
  precio      NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (precio >= 0),
  descripcion TEXT          NOT NULL DEFAULT '',
  categoria   TEXT          NOT NULL DEFAULT '',
  existencia  INTEGER       NOT NULL DEFAULT 0 CHECK (existencia >= 0),
  imagen      TEXT          NOT NULL DEFAULT '',
  search_key  TEXT          NOT NULL DEFAULT '',
  created_at  TIMESTAMPTZ   NOT NULL DEFAULT now(),
  updated_at  TIMESTAMPTZ   NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_products_nombre",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_products_lower_nombre ON products (lower(nombre), id);`,
	},
	{
		Name: "create_index_products_search_key",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_products_search_key ON products USING gin (search_key gin_trgm_ops);`,
	},
	{
		Name: "create_index_products_categoria",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_products_lower_categoria ON products (lower(categoria));`,
	},
}

// EnsureMigrated checks if the schema exists and runs the migration steps if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *zap.Logger, dbHost string) error {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("component", "database"), zap.String("db_host", dbHost))
	start := time.Now()

	log.Info("db_migration_check", zap.String("status", "starting"))

	var exists bool
	query := "SELECT to_regclass($1) IS NOT NULL"
	if err := db.QueryRowContext(ctx, query, sentinelTable).Scan(&exists); err != nil {
		log.Error("db_migration_failed",
			zap.String("status", "error"),
			zap.String("error_message", fmt.Sprintf("failed to check sentinel table: %v", err)),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info("db_migration_skip",
			zap.String("status", "success"),
			zap.String("reason", "schema already exists, skipping migration"),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil
	}

	log.Info("db_migration_start", zap.String("status", "in_progress"))

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error("db_migration_failed",
				zap.String("status", "error"),
				zap.String("migration_step", step.Name),
				zap.String("error_message", err.Error()),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
				zap.Int64("step_duration_ms", time.Since(stepStart).Milliseconds()),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Info("db_migration_step",
			zap.String("status", "success"),
			zap.String("migration_step", step.Name),
			zap.Int64("step_duration_ms", time.Since(stepStart).Milliseconds()),
		)
	}

	log.Info("db_migration_success",
		zap.String("status", "success"),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	return nil
}
