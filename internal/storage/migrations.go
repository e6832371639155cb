package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects. If the database cannot be migrated to this version, it's a fatal
// error.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS decisions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					request_id TEXT NOT NULL,
					product_hash TEXT NOT NULL,
					description TEXT NOT NULL,
					category TEXT,
					origin_country TEXT,
					destination_country TEXT,
					value REAL,
					hs_code TEXT NOT NULL,
					confidence REAL NOT NULL,
					source TEXT NOT NULL,
					source_name TEXT,
					disposition TEXT NOT NULL,
					reasoning TEXT,
					applied_rules TEXT,
					flags TEXT,
					requires_review INTEGER DEFAULT 0,
					auto_approved INTEGER DEFAULT 0,
					decided_at DATETIME NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_decisions_product_hash ON decisions(product_hash)`,
				`CREATE INDEX idx_decisions_decided_at ON decisions(decided_at)`,

				`CREATE TABLE IF NOT EXISTS feedback (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					product_hash TEXT NOT NULL,
					rating INTEGER NOT NULL,
					rated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_feedback_product_hash ON feedback(product_hash)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add disposition index for reporting queries",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec(`CREATE INDEX idx_decisions_disposition ON decisions(disposition)`); err != nil {
				return fmt.Errorf("failed to execute query: %w", err)
			}
			return nil
		},
	},
}

// Migrate applies any pending schema migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
