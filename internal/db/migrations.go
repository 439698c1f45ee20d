// internal/db/migrations.go
package db

import "fmt"

const credentialSchema = `
CREATE TABLE IF NOT EXISTS credentials (
    key         TEXT PRIMARY KEY,
    value       TEXT NOT NULL,
    updated_at  TEXT DEFAULT (datetime('now'))
);
`

const analysisSchema = `
CREATE TABLE IF NOT EXISTS analysis_runs (
    id          TEXT PRIMARY KEY,
    owner       TEXT NOT NULL,
    repo        TEXT NOT NULL,
    branch      TEXT NOT NULL,
    total_libs  INTEGER NOT NULL DEFAULT 0,
    tested_libs INTEGER NOT NULL DEFAULT 0,
    created_at  TEXT DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_analysis_runs_repo ON analysis_runs(owner, repo);
`

// RunMigrations creates or updates the schema. All statements are idempotent
// so this is safe to run on every startup.
func (d *DB) RunMigrations() error {
	for _, schema := range []string{credentialSchema, analysisSchema} {
		if _, err := d.Exec(schema); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
