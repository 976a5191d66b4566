package migrate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/warehouse-backend/pkg/config"
	"github.com/angelmondragon/warehouse-backend/pkg/db"
	"github.com/angelmondragon/warehouse-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
)

func newMemoryClient(t *testing.T) *db.Client {
	t.Helper()
	client, err := db.Open(context.Background(), "file:"+uuid.NewString()+"?mode=memory&cache=shared", nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	if err := ValidateFS(Embedded(), EmbeddedDir); err != nil {
		t.Fatalf("embedded migrations invalid: %v", err)
	}
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("on-disk migrations invalid: %v", err)
	}
}

func TestRunUpCreatesTables(t *testing.T) {
	client := newMemoryClient(t)
	sqlDB, err := client.DB().DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	ctx := context.Background()

	if err := Run(ctx, sqlDB, "up"); err != nil {
		t.Fatalf("goose up: %v", err)
	}
	for _, table := range []string{"catalog_entries", "reservations"} {
		if !client.DB().Migrator().HasTable(table) {
			t.Fatalf("expected table %s after up", table)
		}
	}

	version, err := Version(sqlDB)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if version != 20260301090100 {
		t.Fatalf("unexpected version %d", version)
	}

	if err := MigrateToVersion(ctx, sqlDB, "20260301090000"); err != nil {
		t.Fatalf("migrate down to first version: %v", err)
	}
	if client.DB().Migrator().HasTable("reservations") {
		t.Fatal("reservations should be dropped after down-to")
	}
	if !client.DB().Migrator().HasTable("catalog_entries") {
		t.Fatal("catalog_entries should survive down-to")
	}

	if err := MigrateToVersion(ctx, sqlDB, "bogus"); err == nil {
		t.Fatal("expected error for invalid version")
	}
}

func TestRunRequiresDB(t *testing.T) {
	if err := Run(context.Background(), nil, "up"); err == nil {
		t.Fatal("expected error for nil db")
	}
	if err := RunDir(context.Background(), nil, "", "up"); err == nil {
		t.Fatal("expected error for empty dir")
	}
}

type recordingLogger struct {
	lines []string
}

func (r *recordingLogger) Printf(format string, v ...any) {
	r.lines = append(r.lines, fmt.Sprintf(format, v...))
}

func (r *recordingLogger) Fatalf(format string, v ...any) {
	r.lines = append(r.lines, "fatal: "+fmt.Sprintf(format, v...))
}

func TestGooseOutputIsSilentUnlessRouted(t *testing.T) {
	client := newMemoryClient(t)
	sqlDB, err := client.DB().DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	ctx := context.Background()

	// goose's default logger writes to stderr; swap in a recorder to prove
	// the package installs its own before every run.
	stray := &recordingLogger{}
	goose.SetLogger(stray)
	if err := Run(ctx, sqlDB, "up"); err != nil {
		t.Fatalf("goose up: %v", err)
	}
	if err := Run(ctx, sqlDB, "up"); err != nil {
		t.Fatalf("goose up again: %v", err)
	}
	if len(stray.lines) != 0 {
		t.Fatalf("expected no goose output by default, got %q", stray.lines)
	}

	routed := &recordingLogger{}
	SetLogger(routed)
	t.Cleanup(func() { SetLogger(nil) })
	if err := Run(ctx, sqlDB, "status"); err != nil {
		t.Fatalf("goose status: %v", err)
	}
	if len(routed.lines) == 0 {
		t.Fatal("expected status output on the routed logger")
	}
	if len(stray.lines) != 0 {
		t.Fatalf("routed output leaked: %q", stray.lines)
	}
}

func TestMaybeAutoRun(t *testing.T) {
	client := newMemoryClient(t)
	cfg := &config.Config{Storage: config.StorageConfig{Driver: config.StorageDriverYAML, AutoMigrate: true}}
	if err := MaybeAutoRun(context.Background(), cfg, logger.Nop(), client); err != nil {
		t.Fatalf("yaml driver: %v", err)
	}
	if client.DB().Migrator().HasTable("catalog_entries") {
		t.Fatal("yaml driver must not migrate")
	}

	cfg.Storage.Driver = config.StorageDriverSQLite
	if err := MaybeAutoRun(context.Background(), cfg, logger.Nop(), client); err != nil {
		t.Fatalf("sqlite driver: %v", err)
	}
	if !client.DB().Migrator().HasTable("catalog_entries") {
		t.Fatal("sqlite driver should migrate")
	}
}

func TestCreateSQLMigration(t *testing.T) {
	now = func() time.Time { return time.Date(2026, 4, 1, 8, 30, 0, 0, time.UTC) }
	t.Cleanup(func() { now = time.Now })
	dir := t.TempDir()

	path, err := CreateSQLMigration(dir, "Add Stock Alerts!")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if filepath.Base(path) != "20260401083000_add_stock_alerts.sql" {
		t.Fatalf("unexpected filename %s", filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "-- +goose Down") {
		t.Fatal("template missing down section")
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("created migration should validate: %v", err)
	}

	if _, err := CreateSQLMigration(dir, "add stock alerts"); err == nil {
		t.Fatal("expected duplicate migration error")
	}
	if _, err := CreateSQLMigration(dir, "!!!"); err == nil {
		t.Fatal("expected error for empty sanitized name")
	}
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "001_init.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatal("expected invalid filename error")
	}
}
