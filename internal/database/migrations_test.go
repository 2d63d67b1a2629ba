package database

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	return db
}

func TestCreateMigrationsTable(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	if err := createMigrationsTable(db); err != nil {
		t.Fatalf("failed to create migrations table: %v", err)
	}

	var count int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name='migrations'
	`).Scan(&count)
	if err != nil {
		t.Fatalf("failed to query migrations table: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 migrations table, got %d", count)
	}
}

func TestRecordMigration(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	if err := createMigrationsTable(db); err != nil {
		t.Fatalf("failed to create migrations table: %v", err)
	}

	if err := recordMigration(db, "test_migration", 1); err != nil {
		t.Fatalf("failed to record migration: %v", err)
	}

	var migrationName string
	var batch int
	err := db.QueryRow(`
		SELECT migration, batch FROM migrations WHERE migration = ?
	`, "test_migration").Scan(&migrationName, &batch)
	if err != nil {
		t.Fatalf("failed to query migration: %v", err)
	}
	if migrationName != "test_migration" {
		t.Errorf("expected migration name 'test_migration', got %q", migrationName)
	}
	if batch != 1 {
		t.Errorf("expected batch 1, got %d", batch)
	}
}

func TestHasMigrationRun(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	if err := createMigrationsTable(db); err != nil {
		t.Fatalf("failed to create migrations table: %v", err)
	}

	hasRun, err := hasMigrationRun(db, "nonexistent")
	if err != nil {
		t.Fatalf("failed to check migration: %v", err)
	}
	if hasRun {
		t.Error("expected hasRun to be false for nonexistent migration")
	}

	if err := recordMigration(db, "test_migration", 1); err != nil {
		t.Fatalf("failed to record migration: %v", err)
	}

	hasRun, err = hasMigrationRun(db, "test_migration")
	if err != nil {
		t.Fatalf("failed to check migration: %v", err)
	}
	if !hasRun {
		t.Error("expected hasRun to be true for existing migration")
	}
}

func TestRunMigrations(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	if err := runMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	for _, table := range []string{"audit_logs", "migrations"} {
		var count int
		err := db.QueryRow(`
			SELECT COUNT(*) FROM sqlite_master
			WHERE type='table' AND name=?
		`, table).Scan(&count)
		if err != nil {
			t.Fatalf("failed to query table %s: %v", table, err)
		}
		if count != 1 {
			t.Errorf("expected table %s to exist", table)
		}
	}

	var recorded int
	if err := db.QueryRow(`SELECT COUNT(*) FROM migrations`).Scan(&recorded); err != nil {
		t.Fatalf("failed to count migrations: %v", err)
	}
	if recorded != len(migrations) {
		t.Errorf("expected %d recorded migrations, got %d", len(migrations), recorded)
	}

	// Second run is a no-op.
	if err := runMigrations(db); err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM migrations`).Scan(&recorded); err != nil {
		t.Fatalf("failed to count migrations: %v", err)
	}
	if recorded != len(migrations) {
		t.Errorf("expected migrations to be recorded once, got %d", recorded)
	}
}

func TestAddAuditLogsMacroNameColumn(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	if err := createAuditLogsTable(db); err != nil {
		t.Fatalf("failed to create audit_logs: %v", err)
	}
	_, err := db.Exec(`INSERT INTO audit_logs (action, resource_type) VALUES ('save', 'macro')`)
	if err != nil {
		t.Fatalf("failed to insert row: %v", err)
	}

	if err := addAuditLogsMacroNameColumn(db); err != nil {
		t.Fatalf("failed to add column: %v", err)
	}

	var count int
	err = db.QueryRow(`
		SELECT COUNT(*) FROM pragma_table_info('audit_logs')
		WHERE name = 'macro_name'
	`).Scan(&count)
	if err != nil {
		t.Fatalf("failed to inspect columns: %v", err)
	}
	if count != 1 {
		t.Error("macro_name column should exist after migration")
	}

	var action string
	if err := db.QueryRow(`SELECT action FROM audit_logs`).Scan(&action); err != nil {
		t.Fatalf("existing row lost: %v", err)
	}
	if action != "save" {
		t.Errorf("expected action 'save', got %q", action)
	}

	if err := addAuditLogsMacroNameColumn(db); err != nil {
		t.Errorf("migration should be idempotent: %v", err)
	}
}

func TestNew_Memory(t *testing.T) {
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
}
