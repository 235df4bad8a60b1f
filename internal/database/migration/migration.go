package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"localmart/internal/logx"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_payment_transactions",
		SQL: `CREATE TABLE IF NOT EXISTS payment_transactions (
  id              UUID        PRIMARY KEY,
  txn_ref         TEXT        NOT NULL UNIQUE,
  purpose         TEXT        NOT NULL CHECK (purpose IN ('order', 'market_fee')),
  reference_id    TEXT        NOT NULL,
  user_id         TEXT        NOT NULL,
  amount          BIGINT      NOT NULL CHECK (amount > 0),
  provider        TEXT        NOT NULL,
  status          TEXT        NOT NULL,
  provider_txn_no TEXT        NOT NULL DEFAULT '',
  bank_code       TEXT        NOT NULL DEFAULT '',
  response_code   TEXT        NOT NULL DEFAULT '',
  created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_payment_transactions_user_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_payment_transactions_user_id ON payment_transactions (user_id, created_at DESC);`,
	},
	{
		Name: "create_index_payment_transactions_reference",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_payment_transactions_reference ON payment_transactions (purpose, reference_id);`,
	},
}

// EnsureMigrated checks if the 'payment_transactions' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *logx.Logger, dbHost string) error {
	start := time.Now()

	log.Log(map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"db_host":   dbHost,
	})

	var exists bool
	query := "SELECT to_regclass('public.payment_transactions') IS NOT NULL"
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		log.Error("database", "db_migration_failed", err, map[string]any{
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info("database", "db_migration_skip", map[string]any{
			"msg":         "schema already exists, skipping migration",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error("database", "db_migration_failed", err, map[string]any{
				"migration_step":   step.Name,
				"db_host":          dbHost,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Info("database", "db_migration_step", map[string]any{
			"migration_step":   step.Name,
			"db_host":          dbHost,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	log.Info("database", "db_migration_success", map[string]any{
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}
