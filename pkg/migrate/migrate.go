package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strconv"
	"sync"

	"github.com/pressly/goose/v3"
)

const (
	// DefaultDir is where new migrations are created and validated on disk.
	DefaultDir = "pkg/migrate/migrations"
	// EmbeddedDir is the migrations root inside the compiled binary.
	EmbeddedDir = "migrations"

	dialect = "sqlite3"
)

//go:embed migrations/*.sql
var embedded embed.FS

// goose keeps dialect, base FS and logger in package globals.
var gooseMu sync.Mutex

// progress receives goose's status lines. Silent unless SetLogger is called,
// so the warehouse CLI never prints migration chatter.
var progress goose.Logger = goose.NopLogger()

// SetLogger routes goose progress output, for example to stdout in
// cmd/migrate. A nil logger silences it again.
func SetLogger(l goose.Logger) {
	gooseMu.Lock()
	defer gooseMu.Unlock()
	if l == nil {
		l = goose.NopLogger()
	}
	progress = l
}

// Embedded returns the migrations compiled into the binary.
func Embedded() fs.FS {
	return embedded
}

// Run executes a goose command against the embedded migrations.
func Run(ctx context.Context, db *sql.DB, command string, args ...string) error {
	return run(ctx, db, embedded, EmbeddedDir, command, args...)
}

// RunDir executes a goose command against migrations read from dir on disk.
func RunDir(ctx context.Context, db *sql.DB, dir string, command string, args ...string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	return run(ctx, db, nil, dir, command, args...)
}

func run(ctx context.Context, db *sql.DB, fsys fs.FS, dir string, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(fsys)
	goose.SetLogger(progress)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.RunContext(ctx, command, db, dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// Version returns the current schema version recorded by goose.
func Version(db *sql.DB) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := goose.SetDialect(dialect); err != nil {
		return 0, fmt.Errorf("set goose dialect: %w", err)
	}
	return goose.GetDBVersion(db)
}

// MigrateToVersion migrates the embedded migrations up or down to the
// requested version by comparing the current DB version.
func MigrateToVersion(ctx context.Context, db *sql.DB, targetVersion string) error {
	if targetVersion == "" {
		return fmt.Errorf("targetVersion is required")
	}

	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(embedded)
	goose.SetLogger(progress)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	current, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	switch {
	case current == target:
		return nil

	case current < target:
		if err := goose.UpToContext(ctx, db, EmbeddedDir, target); err != nil {
			return fmt.Errorf("goose up-to %d: %w", target, err)
		}
		return nil

	default:
		if err := goose.DownToContext(ctx, db, EmbeddedDir, target); err != nil {
			return fmt.Errorf("goose down-to %d: %w", target, err)
		}
		return nil
	}
}
