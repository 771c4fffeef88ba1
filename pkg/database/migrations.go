package database

import (
	"database/sql"
	"fmt"
)

// Migration represents one schema evolution step.
type Migration struct {
	Version     string
	Description string
	SQL         string
}

// Built-in migrations, applied in order
// ARCHITECTURAL DISCOVERY: Embedded migrations keep the binary self-contained;
// the directory schema is small enough that file-based migrations would only
// add a deployment artifact to lose
var migrations = []Migration{
	{
		Version:     "001",
		Description: "class directory",
		SQL: `
			CREATE TABLE IF NOT EXISTS classes (
				session_id   TEXT PRIMARY KEY,
				teacher_id   TEXT NOT NULL,
				teacher_name TEXT NOT NULL,
				course_id    TEXT NOT NULL DEFAULT '',
				course_name  TEXT NOT NULL DEFAULT '',
				started_at   DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_classes_teacher ON classes(teacher_id);
			CREATE INDEX IF NOT EXISTS idx_classes_started ON classes(started_at);
		`,
	},
}

// MigrationManager applies pending migrations and tracks applied versions.
type MigrationManager struct {
	db *sql.DB
}

// NewMigrationManager creates a migration manager for an open database.
func NewMigrationManager(db *sql.DB) *MigrationManager {
	return &MigrationManager{db: db}
}

// ApplyMigrations brings the schema up to date. Each migration runs in its
// own transaction together with its version record.
func (m *MigrationManager) ApplyMigrations() error {
	if err := m.createMigrationTable(); err != nil {
		return fmt.Errorf("failed to create migration table: %w", err)
	}

	applied, err := m.appliedVersions()
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	for _, migration := range migrations {
		if applied[migration.Version] {
			continue
		}
		if err := m.apply(migration); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", migration.Version, err)
		}
	}
	return nil
}

func (m *MigrationManager) createMigrationTable() error {
	_, err := m.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

func (m *MigrationManager) appliedVersions() (map[string]bool, error) {
	rows, err := m.db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	versions := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		versions[version] = true
	}
	return versions, rows.Err()
}

func (m *MigrationManager) apply(migration Migration) error {
	tx, err := m.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(migration.SQL); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", migration.Version); err != nil {
		return err
	}
	return tx.Commit()
}
