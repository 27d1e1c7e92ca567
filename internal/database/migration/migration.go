// Package migration creates the catalog tables on first start.
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

// Schema is the set of tables one service owns. Sentinel is checked first;
// when it exists the schema is considered migrated.
type Schema struct {
	Name     string
	Sentinel string
	Steps    []migrationStep
}

// FileStore is the content store catalog.
var FileStore = Schema{
	Name:     "filestore",
	Sentinel: "public.stored_files",
	Steps: []migrationStep{
		{
			Name: "create_table_stored_files",
			SQL: `CREATE TABLE IF NOT EXISTS stored_files (
  id          UUID        PRIMARY KEY,
  file_name   TEXT        NOT NULL,
  fingerprint TEXT        NOT NULL,
  location    TEXT        NOT NULL,
  size        BIGINT      NOT NULL CHECK (size >= 0),
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  CONSTRAINT stored_files_fingerprint_key UNIQUE (fingerprint)
);`,
		},
		{
			Name: "create_index_stored_files_created_at",
			SQL:  `CREATE INDEX IF NOT EXISTS idx_stored_files_created_at ON stored_files (created_at);`,
		},
	},
}

// Analysis is the analysis catalog. subject_id is not unique: concurrent
// computations of one subject may both insert a row.
var Analysis = Schema{
	Name:     "analysis",
	Sentinel: "public.analysis_results",
	Steps: []migrationStep{
		{
			Name: "create_table_analysis_results",
			SQL: `CREATE TABLE IF NOT EXISTS analysis_results (
  id              UUID        PRIMARY KEY,
  subject_id      UUID        NOT NULL,
  file_name       TEXT        NOT NULL,
  paragraph_count INTEGER     NOT NULL DEFAULT 0,
  word_count      INTEGER     NOT NULL DEFAULT 0,
  character_count INTEGER     NOT NULL DEFAULT 0,
  created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
  is_error        BOOLEAN     NOT NULL DEFAULT false,
  error_message   TEXT
);`,
		},
		{
			Name: "create_index_analysis_results_subject_id",
			SQL:  `CREATE INDEX IF NOT EXISTS idx_analysis_results_subject_id ON analysis_results (subject_id);`,
		},
		{
			Name: "create_index_analysis_results_subject_latest",
			SQL:  `CREATE INDEX IF NOT EXISTS idx_analysis_results_subject_latest ON analysis_results (subject_id, created_at DESC);`,
		},
	},
}

// EnsureMigrated checks the schema's sentinel table and runs its steps if it doesn't exist.
func EnsureMigrated(ctx context.Context, db *sql.DB, schema Schema, log *zap.Logger, dbHost string) error {
	start := time.Now()
	log = log.Named("database").With(
		zap.String("schema", schema.Name),
		zap.String("db_host", dbHost),
	)

	log.Info("db_migration_check", zap.String("status", "starting"))

	var exists bool
	err := db.QueryRowContext(ctx, "SELECT to_regclass($1) IS NOT NULL", schema.Sentinel).Scan(&exists)
	if err != nil {
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

	for _, step := range schema.Steps {
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
