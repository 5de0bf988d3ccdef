package dbx

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/gophdiary/internal/filex"
	"github.com/dmitrijs2005/gophdiary/internal/migrations"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// MemoryDSN opens a private in-memory database. Used by tests.
const MemoryDSN = ":memory:"

// Open opens (creating if necessary) the SQLite database at dsn, applies the
// connection pragmas and runs all pending migrations.
//
// Foreign keys are enforced on every connection. File databases use WAL
// journaling; the parent directory is created when missing. The pool is
// limited to one connection: SQLite has a single writer, and an in-memory
// database exists only inside the connection that created it.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("open database: empty dsn")
	}

	pragmas := []string{"_pragma=foreign_keys(1)", "_pragma=busy_timeout(5000)"}
	if !isMemory(dsn) {
		if dir := filepath.Dir(dsn); dir != "." {
			if _, err := filex.EnsureDir(dir); err != nil {
				return nil, fmt.Errorf("open database: %w", err)
			}
		}
		pragmas = append(pragmas, "_pragma=journal_mode(WAL)")
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}

	db, err := sql.Open("sqlite", dsn+sep+strings.Join(pragmas, "&"))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate applies the embedded goose migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func isMemory(dsn string) bool {
	return strings.HasPrefix(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}
