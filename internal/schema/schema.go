// AngelaMos | 2026
// schema.go

package schema

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

//go:embed postgres/*.sql sqlite/*.sql
var migrations embed.FS

const migrationTable = "schema_migrations"

// Dir maps a sqlx driver name to its migration directory.
func Dir(driver string) (string, error) {
	switch driver {
	case "pgx", "postgres":
		return "postgres", nil
	case "sqlite":
		return "sqlite", nil
	default:
		return "", fmt.Errorf("no migrations for driver %q", driver)
	}
}

// Pending lists migrations not yet recorded in schema_migrations.
func Pending(ctx context.Context, db *sqlx.DB) ([]string, error) {
	files, err := files(db.DriverName())
	if err != nil {
		return nil, err
	}

	if err := ensureTable(ctx, db); err != nil {
		return nil, err
	}

	var pending []string
	for _, name := range files {
		applied, err := isApplied(ctx, db, name)
		if err != nil {
			return nil, fmt.Errorf("check migration %s: %w", name, err)
		}
		if !applied {
			pending = append(pending, name)
		}
	}

	return pending, nil
}

// Apply runs each embedded migration for the connection's dialect at most
// once, in file name order. Each file runs in its own transaction.
func Apply(ctx context.Context, db *sqlx.DB) ([]string, error) {
	pending, err := Pending(ctx, db)
	if err != nil {
		return nil, err
	}

	dir, err := Dir(db.DriverName())
	if err != nil {
		return nil, err
	}

	for _, name := range pending {
		body, err := fs.ReadFile(migrations, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}

		tx, err := db.BeginTxx(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("begin migration %s: %w", name, err)
		}

		if _, err := tx.ExecContext(ctx, string(body)); err != nil {
			_ = tx.Rollback() //nolint:errcheck // rollback on failed migration
			return nil, fmt.Errorf("exec migration %s: %w", name, err)
		}

		record := tx.Rebind(
			"INSERT INTO " + migrationTable + " (name, applied_at) VALUES (?, ?)",
		)
		if _, err := tx.ExecContext(ctx, record, name, time.Now().UTC().UnixMilli()); err != nil {
			_ = tx.Rollback() //nolint:errcheck // rollback on failed migration
			return nil, fmt.Errorf("record migration %s: %w", name, err)
		}

		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit migration %s: %w", name, err)
		}
	}

	return pending, nil
}

func files(driver string) ([]string, error) {
	dir, err := Dir(driver)
	if err != nil {
		return nil, err
	}

	entries, err := fs.ReadDir(migrations, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	return names, nil
}

func ensureTable(ctx context.Context, db *sqlx.DB) error {
	query := `CREATE TABLE IF NOT EXISTS ` + migrationTable + ` (
		name       TEXT PRIMARY KEY,
		applied_at BIGINT NOT NULL
	)`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}
	return nil
}

func isApplied(ctx context.Context, db *sqlx.DB, name string) (bool, error) {
	var found int
	query := db.Rebind("SELECT 1 FROM " + migrationTable + " WHERE name = ?")
	err := db.GetContext(ctx, &found, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
