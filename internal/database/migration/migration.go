// Package migration creates and upgrades the PostgreSQL schema at startup.
package migration

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

type migrationStep struct {
	Version int
	Name    string
	SQL     string
}

// steps are applied in order. Never edit an applied step; append a new one.
var steps = []migrationStep{
	{
		Version: 1,
		Name:    "create_extension_pgcrypto",
		SQL:     `CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
	},
	{
		Version: 2,
		Name:    "create_table_companies",
		SQL: `CREATE TABLE IF NOT EXISTS companies (
  id         UUID        PRIMARY KEY DEFAULT gen_random_uuid(),
  name       TEXT        NOT NULL,
  tax_id     TEXT,
  owner_id   UUID        NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Version: 3,
		Name:    "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id                 UUID        PRIMARY KEY DEFAULT gen_random_uuid(),
  company_id         UUID        NOT NULL REFERENCES companies (id) ON DELETE CASCADE,
  name               TEXT        NOT NULL,
  file_path          TEXT        NOT NULL UNIQUE,
  file_size          BIGINT      NOT NULL CHECK (file_size >= 0),
  mime_type          TEXT        NOT NULL,
  is_public          BOOLEAN     NOT NULL DEFAULT FALSE,
  document_type      TEXT,
  document_version   INTEGER,
  document_reference TEXT,
  created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Version: 4,
		Name:    "create_index_documents_company_created_at",
		SQL:     `CREATE INDEX IF NOT EXISTS idx_documents_company_created_at ON documents (company_id, created_at DESC);`,
	},
	{
		Version: 5,
		Name:    "create_table_company_shares",
		SQL: `CREATE TABLE IF NOT EXISTS company_shares (
  id              UUID        PRIMARY KEY DEFAULT gen_random_uuid(),
  company_id      UUID        NOT NULL REFERENCES companies (id) ON DELETE CASCADE,
  recipient_email TEXT        NOT NULL,
  token           TEXT        NOT NULL UNIQUE,
  created_by      UUID        NOT NULL,
  created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Version: 6,
		Name:    "create_index_company_shares_recipient",
		SQL:     `CREATE INDEX IF NOT EXISTS idx_company_shares_recipient ON company_shares (lower(recipient_email));`,
	},
	{
		// Several companies may carry the same tax id; received shares are
		// deduplicated on it instead.
		Version: 7,
		Name:    "index_companies_tax_id",
		SQL: `ALTER TABLE companies DROP CONSTRAINT IF EXISTS companies_tax_id_key;
CREATE INDEX IF NOT EXISTS idx_companies_tax_id ON companies (tax_id);`,
	},
}

const createVersionTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
  version    INTEGER     PRIMARY KEY,
  name       TEXT        NOT NULL,
  applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// EnsureMigrated applies every step newer than the recorded schema version.
// Pending steps run in a single transaction.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *zap.Logger) error {
	start := time.Now()
	log = log.With(zap.String("component", "database"))

	if _, err := db.ExecContext(ctx, createVersionTable); err != nil {
		log.Error("db migration failed", zap.Error(err))
		return errors.Wrap(err, "create schema_migrations")
	}

	var current int
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		log.Error("db migration failed", zap.Error(err))
		return errors.Wrap(err, "read schema version")
	}

	pending := pendingSteps(current)
	if len(pending) == 0 {
		log.Info("schema up to date, skipping migration",
			zap.Int("schema_version", current),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin migration")
	}
	defer func() { _ = tx.Rollback() }()

	for _, step := range pending {
		stepStart := time.Now()
		if _, err := tx.ExecContext(ctx, step.SQL); err != nil {
			log.Error("db migration failed",
				zap.String("migration_step", step.Name),
				zap.Int("version", step.Version),
				zap.Error(err),
			)
			return errors.Wrapf(err, "migration step %s", step.Name)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, step.Version, step.Name); err != nil {
			return errors.Wrapf(err, "record migration step %s", step.Name)
		}
		log.Info("db migration step",
			zap.String("migration_step", step.Name),
			zap.Int("version", step.Version),
			zap.Int64("step_duration_ms", time.Since(stepStart).Milliseconds()),
		)
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit migration")
	}

	log.Info("db migration success",
		zap.Int("schema_version", pending[len(pending)-1].Version),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return nil
}

func pendingSteps(current int) []migrationStep {
	out := make([]migrationStep, 0, len(steps))
	for _, s := range steps {
		if s.Version > current {
			out = append(out, s)
		}
	}
	return out
}
